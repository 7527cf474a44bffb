package exec

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"github.com/rahul/max/internal/plan"
)

// BrowserSession owns the single controlled browser instance. Handlers
// are the only callers; the rest of the pipeline never touches it. The
// browser stays open across plans until Close.
type BrowserSession struct {
	mu            sync.Mutex
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	currentURL    string

	// Headless is for tests; the interactive agent wants a visible
	// window.
	Headless bool
}

func NewBrowserSession() *BrowserSession {
	return &BrowserSession{}
}

func (b *BrowserSession) init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		select {
		case <-b.browserCtx.Done():
			b.cleanupLocked()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", b.Headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	return chromedp.Run(b.browserCtx)
}

func (b *BrowserSession) cleanupLocked() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.allocCtx = nil
	b.currentURL = ""
}

func (b *BrowserSession) Close() {
	b.mu.Lock()
	b.cleanupLocked()
	b.mu.Unlock()
}

// Active reports whether a browser window is currently open.
func (b *BrowserSession) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx == nil {
		return false
	}
	select {
	case <-b.browserCtx.Done():
		return false
	default:
		return true
	}
}

// run executes browser actions with a bounded deadline regardless of
// how long the page misbehaves.
func (b *BrowserSession) run(actions ...chromedp.Action) error {
	if err := b.init(); err != nil {
		return fmt.Errorf("failed to initialize browser: %v", err)
	}
	actionCtx, cancel := context.WithTimeout(b.browserCtx, 60*time.Second)
	defer cancel()
	return chromedp.Run(actionCtx, actions...)
}

func (b *BrowserSession) Navigate(url string) error {
	if err := b.run(chromedp.Navigate(url)); err != nil {
		return err
	}
	b.mu.Lock()
	b.currentURL = url
	b.mu.Unlock()
	return nil
}

func (b *BrowserSession) Click(ctx context.Context, selector string) error {
	return b.run(chromedp.Click(selector, chromedp.ByQuery))
}

// PageHTML returns the full document markup plus the URL it was loaded
// from, for the page reader.
func (b *BrowserSession) PageHTML() (html, url string, err error) {
	err = b.run(chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))
	b.mu.Lock()
	url = b.currentURL
	b.mu.Unlock()
	return html, url, err
}

// Handlers.

// OpenBrowser opens (or reuses) the controlled browser window. The
// browser parameter is advisory; the session always drives Chrome via
// DevTools regardless of the user's phrasing.
func (b *BrowserSession) OpenBrowser(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	if err := b.init(); err != nil {
		return "", nil, err
	}
	name := strParam(params, "browser")
	if name == "" {
		name = "chrome"
	}
	return fmt.Sprintf("Opened %s", name), nil, nil
}

func (b *BrowserSession) HandleNavigate(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	url := strParam(params, "url")
	if url == "" {
		return "", nil, fmt.Errorf("navigate needs a url")
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	if err := b.Navigate(url); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Navigated to %s", url), map[string]any{"url": url}, nil
}
