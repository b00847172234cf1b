package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

// Table is a titled grid of text cells.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Image is a chart embedded in the document as inline SVG markup.
type Image struct {
	Title  string
	Markup template.HTML
}

// Document describes one exported PDF: a header band, optional summary
// tables and chart images, then the detail table.
type Document struct {
	Title       string
	Subtitle    string
	GeneratedAt string
	Summary     []Table
	Images      []Image
	Detail      Table
}

const documentTemplate = `<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:24px;color:#1f2933;font-size:11px;}
header{background:#8b1538;color:#fff;padding:12px 16px;margin-bottom:16px;}
header h1{font-size:18px;margin:0 0 4px 0;}
header p{margin:0;font-size:11px;}
h2{font-size:13px;margin:16px 0 6px 0;}
table{width:100%;border-collapse:collapse;margin-bottom:12px;}
th,td{border:1px solid #ddd;padding:4px 6px;text-align:left;}
th{background:#f5f5f5;}
.summary td{text-align:center;}
figure{margin:0 0 16px 0;page-break-inside:avoid;}
figure svg{width:100%;height:auto;}
</style></head><body>
<header><h1>{{.Title}}</h1>{{if .Subtitle}}<p>{{.Subtitle}}</p>{{end}}{{if .GeneratedAt}}<p>Generated {{.GeneratedAt}}</p>{{end}}</header>
{{range .Summary}}<section class="summary">{{if .Title}}<h2>{{.Title}}</h2>{{end}}{{template "table" .}}</section>{{end}}
{{range .Images}}<figure><h2>{{.Title}}</h2>{{.Markup}}</figure>{{end}}
<section>{{if .Detail.Title}}<h2>{{.Detail.Title}}</h2>{{end}}{{template "table" .Detail}}</section>
</body></html>
{{define "table"}}<table><thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead><tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody></table>{{end}}`

var documentTmpl = template.Must(template.New("document").Parse(documentTemplate))

// HTML renders the document markup handed to Gotenberg.
func (d Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("report: render document: %w", err)
	}
	return buf.String(), nil
}

// Renderer produces PDF bytes for documents.
type Renderer struct {
	client *Client
}

// NewRenderer wires a renderer to a Gotenberg client.
func NewRenderer(client *Client) *Renderer {
	return &Renderer{client: client}
}

// Render converts the document into PDF bytes.
func (r *Renderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	if r == nil || r.client == nil {
		return nil, ErrNotConfigured
	}
	html, err := doc.HTML()
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}
