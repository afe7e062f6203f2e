package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/local/readcompanion/internal/vocab"
)

// Format names a supported export rendering.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatHTML Format = "html"
)

// ContentType returns the MIME type to serve the export with.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// ParseFormat maps a query-string value to a Format, defaulting to CSV.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	case "html":
		return FormatHTML, nil
	}
	return FormatCSV, fmt.Errorf("unsupported export format: %q", s)
}

// Render serializes vocabulary records in the requested format.
func Render(f Format, records []vocab.Record) ([]byte, error) {
	switch f {
	case FormatHTML:
		return renderHTML(records)
	case FormatTSV:
		return renderDelimited(records, '\t')
	default:
		return renderDelimited(records, ',')
	}
}

var header = []string{"text", "translation", "target_lang", "provider", "model", "page", "had_image", "created_at"}

func renderDelimited(records []vocab.Record, sep rune) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = sep
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range records {
		page := ""
		if r.PageNumber > 0 {
			page = strconv.Itoa(r.PageNumber)
		}
		row := []string{
			r.Text,
			r.Translation,
			r.TargetLang,
			r.Provider,
			r.Model,
			page,
			strconv.FormatBool(r.HadImage),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

var htmlTpl = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Vocabulary export</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; vertical-align: top; }
th { background: #f0f0f0; }
td.translation { white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Vocabulary ({{len .}} records)</h1>
<table>
<tr><th>Text</th><th>Translation</th><th>Language</th><th>Provider</th><th>Page</th><th>Saved</th></tr>
{{range .}}<tr>
<td>{{.Text}}</td>
<td class="translation">{{.Translation}}</td>
<td>{{.TargetLang}}</td>
<td>{{.Provider}}{{if .Model}} / {{.Model}}{{end}}</td>
<td>{{if gt .PageNumber 0}}{{.PageNumber}}{{end}}</td>
<td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))

func renderHTML(records []vocab.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTpl.Execute(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
