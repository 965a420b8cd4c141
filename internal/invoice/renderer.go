package invoice

import (
	"context"
	"fmt"
	"time"
)

// Renderer names accepted by NewRenderer.
const (
	RendererHTML   = "html"
	RendererChrome = "chrome"
	RendererPDF    = "pdf"
)

// Renderer turns a Document into file contents.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
	// Extension is the file extension of the output, without dot.
	Extension() string
	Name() string
}

// RendererConfig holds the settings specific to some renderers.
type RendererConfig struct {
	// ChromePath overrides the Chrome/Chromium binary. Empty uses the lookup
	// of chromedp.
	ChromePath string
	// ChromeTimeout bounds one HTML to PDF conversion.
	ChromeTimeout time.Duration
	// FontPath is a UTF-8 TrueType font for the native PDF renderer. Empty
	// uses the built-in Helvetica.
	FontPath string
}

// NewRenderer returns the renderer with the given name.
func NewRenderer(name string, cfg RendererConfig) (Renderer, error) {
	switch name {
	case RendererHTML:
		return NewHTMLRenderer()
	case RendererChrome:
		html, err := NewHTMLRenderer()
		if err != nil {
			return nil, err
		}
		return NewChromeRenderer(html, cfg.ChromePath, cfg.ChromeTimeout), nil
	case RendererPDF:
		return NewPDFRenderer(cfg.FontPath), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q, must be one of: html, chrome, pdf", name)
	}
}

// FileName returns the output file name of doc for r.
func FileName(doc Document, r Renderer) string {
	return doc.FileName + "." + r.Extension()
}
