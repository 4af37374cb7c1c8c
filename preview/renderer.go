package preview

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/logging"
)

// Options configure the Renderer.
type Options struct {
	Width  int
	Height int
	// FullPage captures the whole scrollable page instead of the viewport.
	FullPage bool
	// TimeoutMS bounds SetContent and Screenshot.
	TimeoutMS float64
	Logger    logging.Logger
}

// Renderer implements core.Renderer with one shared headless browser. Each
// render uses its own page so concurrent slots do not interfere.
type Renderer struct {
	opts Options

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewRenderer starts playwright and launches headless Chromium.
func NewRenderer(optFns ...func(o *Options)) (*Renderer, error) {
	opts := Options{
		Width:     1200,
		Height:    800,
		FullPage:  true,
		TimeoutMS: 10_000,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	return &Renderer{opts: opts, pw: pw, browser: browser}, nil
}

// Render implements core.Renderer.
func (r *Renderer) Render(ctx context.Context, html string, ec core.EditorContext) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := Document(html, ec)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}

	r.mu.Lock()
	browser := r.browser
	r.mu.Unlock()
	if browser == nil {
		return nil, fmt.Errorf("renderer closed")
	}

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: r.opts.Width, Height: r.opts.Height},
	})
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			r.opts.Logger.Warn("Failed to close preview page", "error", cerr.Error())
		}
	}()

	// playwright-go has no context support; closing the page aborts pending calls.
	stop := context.AfterFunc(ctx, func() { _ = page.Close() })
	defer stop()

	if err := page.SetContent(doc, playwright.PageSetContentOptions{
		Timeout:   playwright.Float(r.opts.TimeoutMS),
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}

	png, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(r.opts.FullPage),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  playwright.Float(r.opts.TimeoutMS),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return png, nil
}

// Close shuts down the browser and the playwright driver.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	var firstErr error
	if err := r.browser.Close(); err != nil {
		firstErr = err
	}
	if err := r.pw.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	r.browser = nil
	return firstErr
}
