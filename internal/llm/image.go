package llm

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ImagePayload is the decoded form of a screenshot: the image format
// ("png", "jpeg", ...) and the base64 payload with the data-URI prefix
// stripped.
type ImagePayload struct {
	Format string
	Base64 string
}

const (
	dataURIScheme    = "data:image/"
	dataURISeparator = ";base64,"
)

// ParseImageDataURI splits a "data:image/<fmt>;base64,<data>" string into
// format and raw base64. Bare base64 without the envelope is accepted too:
// the bytes are sniffed with magic-byte detection to recover the format.
func ParseImageDataURI(uri string) (ImagePayload, error) {
	if strings.HasPrefix(uri, dataURIScheme) {
		rest := uri[len(dataURIScheme):]
		i := strings.Index(rest, dataURISeparator)
		if i <= 0 {
			return ImagePayload{}, fmt.Errorf("malformed image data URI")
		}
		return ImagePayload{Format: rest[:i], Base64: rest[i+len(dataURISeparator):]}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(uri)
	if err != nil {
		return ImagePayload{}, fmt.Errorf("image is neither a data URI nor base64: %w", err)
	}
	mt := mimetype.Detect(raw)
	if !strings.HasPrefix(mt.String(), "image/") {
		return ImagePayload{}, fmt.Errorf("unsupported image payload type %s", mt.String())
	}
	return ImagePayload{Format: strings.TrimPrefix(mt.String(), "image/"), Base64: uri}, nil
}

// DataURI re-wraps the payload as a data URI.
func (p ImagePayload) DataURI() string {
	return dataURIScheme + p.Format + dataURISeparator + p.Base64
}
