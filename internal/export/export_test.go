package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/readcompanion/internal/vocab"
)

func sample() []vocab.Record {
	return []vocab.Record{
		{
			Text:        "run",
			Translation: "[v.  ] correr",
			TargetLang:  "es",
			Provider:    "bedrock",
			Model:       "anthropic.claude-3-5-sonnet-20240620-v1:0",
			PageNumber:  7,
			HadImage:    true,
			CreatedAt:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			Text:        "comma, inside",
			Translation: "with \"quotes\"",
			TargetLang:  "es",
			Provider:    "openai",
			CreatedAt:   time.Date(2026, 8, 2, 11, 30, 0, 0, time.UTC),
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("tsv")
	require.NoError(t, err)
	assert.Equal(t, FormatTSV, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(FormatCSV, sample())
	require.NoError(t, err)
	s := string(out)

	lines := strings.Split(strings.TrimSpace(s), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "text,translation,target_lang,provider,model,page,had_image,created_at", lines[0])
	assert.Contains(t, lines[1], "run")
	assert.Contains(t, lines[1], "7")
	// csv quoting for embedded comma and quotes
	assert.Contains(t, s, `"comma, inside"`)
	assert.Contains(t, s, `"with ""quotes"""`)
}

func TestRenderTSV(t *testing.T) {
	out, err := Render(FormatTSV, sample())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, strings.Join([]string{"text", "translation", "target_lang", "provider", "model", "page", "had_image", "created_at"}, "\t"), lines[0])
	assert.Contains(t, lines[1], "run\t")
}

func TestRenderHTML(t *testing.T) {
	out, err := Render(FormatHTML, sample())
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "<table>")
	assert.Contains(t, s, "Vocabulary (2 records)")
	assert.Contains(t, s, "[v.  ] correr")
	// Template escaping keeps record text safe in markup.
	rec := []vocab.Record{{Text: "<script>alert(1)</script>", CreatedAt: time.Now()}}
	out, err = Render(FormatHTML, rec)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>alert(1)</script>")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
	assert.Equal(t, "text/tab-separated-values; charset=utf-8", FormatTSV.ContentType())
	assert.Equal(t, "text/html; charset=utf-8", FormatHTML.ContentType())
}
