package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrPrintRendererMissing is returned when a PDFExporter has no print renderer.
var ErrPrintRendererMissing = errors.New("pdf exporter: print renderer not configured")

var chromeCandidates = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/snap/bin/chromium",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// DetectChromePath returns configured when it exists, otherwise the first installed
// browser from a list of common locations, or "" to let chromedp search PATH.
func DetectChromePath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}
	for _, path := range chromeCandidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// PDFExporter prints the print layout of a Document to PDF through headless Chrome.
type PDFExporter struct {
	Print      *PrintRenderer
	ChromePath string
	Timeout    time.Duration
}

func (e PDFExporter) timeout() time.Duration {
	if e.Timeout <= 0 {
		return 30 * time.Second
	}
	return e.Timeout
}

// Export renders doc with the print renderer and returns the PDF bytes.
func (e PDFExporter) Export(ctx context.Context, doc Document) ([]byte, error) {
	if e.Print == nil {
		return nil, ErrPrintRendererMissing
	}
	var html bytes.Buffer
	if err := e.Print.Render(&html, doc); err != nil {
		return nil, fmt.Errorf("render print layout: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	if path := DetectChromePath(e.ChromePath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html.String()).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return pdf, nil
}
