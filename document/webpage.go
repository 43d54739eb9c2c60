package document

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// WebPageOption configures the headless browser capture.
type WebPageOption func(*webPageConfig)

type webPageConfig struct {
	width      int
	height     int
	chromePath string
	noSandbox  bool
}

// WithViewport sets the emulated viewport size. Defaults to 1280x1696, an A4
// aspect at 96 DPI.
func WithViewport(width, height int) WebPageOption {
	return func(c *webPageConfig) { c.width, c.height = width, height }
}

// WithChromePath points chromedp at a specific browser binary.
func WithChromePath(path string) WebPageOption {
	return func(c *webPageConfig) { c.chromePath = path }
}

// WithNoSandbox disables the browser sandbox, needed in most containers.
func WithNoSandbox() WebPageOption {
	return func(c *webPageConfig) { c.noSandbox = true }
}

// FromWebPage renders a live web page with headless Chrome and returns the
// full-page screenshot as a single-page document.
func FromWebPage(ctx context.Context, url string, opts ...WebPageOption) (Document, error) {
	cfg := webPageConfig{width: 1280, height: 1696}
	for _, opt := range opts {
		opt(&cfg)
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("no-first-run", true),
	)
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var shot []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(cfg.width), int64(cfg.height)),
		chromedp.Navigate(url),
		chromedp.FullScreenshot(&shot, 100),
	)
	if err != nil {
		return Document{}, fmt.Errorf("render %s: %w", url, err)
	}
	return FromBytes(shot, url)
}
