package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultChromeTimeout bounds one conversion when none is configured.
const DefaultChromeTimeout = 30 * time.Second

// ChromeRenderer prints the HTML invoice to PDF with headless Chrome.
type ChromeRenderer struct {
	html     *HTMLRenderer
	execPath string
	timeout  time.Duration
}

// NewChromeRenderer wraps html. A zero timeout uses DefaultChromeTimeout.
func NewChromeRenderer(html *HTMLRenderer, execPath string, timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = DefaultChromeTimeout
	}
	return &ChromeRenderer{html: html, execPath: execPath, timeout: timeout}
}

// Render loads the HTML into a blank page and prints it with backgrounds.
func (r *ChromeRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	markup, err := r.html.Render(ctx, doc)
	if err != nil {
		return nil, err
	}

	allocCtx := ctx
	if r.execPath != "" {
		opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.ExecPath(r.execPath))
		var cancelAlloc context.CancelFunc
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, opts...)
		defer cancelAlloc()
	}

	cctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	cctx, timeoutCancel := context.WithTimeout(cctx, r.timeout)
	defer timeoutCancel()

	var pdf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(markup)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	}

	if err := chromedp.Run(cctx, tasks); err != nil {
		return nil, fmt.Errorf("chrome: failed to print invoice for %s: %w", doc.Recipient, err)
	}
	return pdf, nil
}

func (r *ChromeRenderer) Extension() string { return "pdf" }

func (r *ChromeRenderer) Name() string { return RendererChrome }
