package invoice

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/invoice.html.tmpl templates/styles.css
var templateFS embed.FS

// HTMLRenderer renders a self-contained HTML page with inline styles.
type HTMLRenderer struct {
	tmpl *template.Template
	css  template.CSS
}

// NewHTMLRenderer parses the embedded invoice template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/invoice.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}
	css, err := templateFS.ReadFile("templates/styles.css")
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice styles: %w", err)
	}
	return &HTMLRenderer{
		tmpl: tmpl,
		css:  template.CSS(css),
	}, nil
}

// Render executes the template for doc.
func (r *HTMLRenderer) Render(_ context.Context, doc Document) ([]byte, error) {
	data := struct {
		Document
		CSS template.CSS
	}{Document: doc, CSS: r.css}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render invoice for %s: %w", doc.Recipient, err)
	}
	return buf.Bytes(), nil
}

func (r *HTMLRenderer) Extension() string { return "html" }

func (r *HTMLRenderer) Name() string { return RendererHTML }
