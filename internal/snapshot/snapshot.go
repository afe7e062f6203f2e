package snapshot

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// Options controls how a page is rendered.
type Options struct {
	DPI       int
	Quality   int
	Grayscale bool
}

func (o Options) withDefaults() Options {
	if o.DPI <= 0 {
		o.DPI = 120
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 80
	}
	return o
}

// Result is a rendered page snapshot ready to attach to a model call.
type Result struct {
	DataURI string
	Width   int
	Height  int
	Pages   int
}

// ValidatePDF checks the file by magic bytes (not extension) and returns its
// page count.
func ValidatePDF(path string) (int, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return 0, fmt.Errorf("detect file type: %w", err)
	}
	if !mt.Is("application/pdf") {
		return 0, fmt.Errorf("not a PDF: detected %s", mt.String())
	}

	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return n, nil
}

// RenderPage renders one page (1-based) of a PDF to a JPEG data URI, for
// callers that cannot capture their own screenshot of the reading surface.
func RenderPage(path string, page int, opts Options) (Result, error) {
	opts = opts.withDefaults()

	total, err := ValidatePDF(path)
	if err != nil {
		return Result{}, err
	}
	if page < 1 || page > total {
		return Result{}, fmt.Errorf("page %d out of range (1-%d)", page, total)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	// go-fitz pages are 0-based.
	img, err := doc.ImageDPI(page-1, float64(opts.DPI))
	if err != nil {
		return Result{}, fmt.Errorf("render page %d: %w", page, err)
	}

	bounds := img.Bounds()
	var final image.Image = img
	if opts.Grayscale {
		gray := image.NewGray(bounds)
		draw.Draw(gray, bounds, img, image.Point{}, draw.Src)
		final = gray
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, final, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}

	log.Debug().
		Int("page", page).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("jpeg_size", buf.Len()).
		Int("dpi", opts.DPI).
		Bool("grayscale", opts.Grayscale).
		Msg("rendered page snapshot")

	return Result{
		DataURI: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Pages:   total,
	}, nil
}
