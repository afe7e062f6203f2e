package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePDFRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("just some text"), 0o644))

	_, err := ValidatePDF(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a PDF")
}

func TestValidatePDFMissingFile(t *testing.T) {
	_, err := ValidatePDF(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 120, o.DPI)
	assert.Equal(t, 80, o.Quality)

	o = Options{DPI: 200, Quality: 150}.withDefaults()
	assert.Equal(t, 200, o.DPI)
	assert.Equal(t, 80, o.Quality)
}
