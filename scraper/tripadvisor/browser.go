package tripadvisor

import (
	"context"
	"errors"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	browserTimeout = 90 * time.Second
	renderSettle   = 5 * time.Second
)

// stealthScript masks the most common automation fingerprints before any
// page script runs.
const stealthScript = `
	Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
	Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]});
	Object.defineProperty(navigator, 'languages', {get: () => ['en-US', 'en']});
`

// newBrowserContext creates a fresh chromedp context (one browser, one tab)
// parented to the caller's context so cancellation propagates into Chrome.
func newBrowserContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("log-level", "3"), // suppress Chrome logs
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

func maskAutomation() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	})
}

// BrowserRenderStrategy drives a headless Chrome instance to the property's
// review page, waits for client-side rendering to finish, and captures the
// final markup. The browser is scoped to one Fetch call and torn down on
// every exit path.
type BrowserRenderStrategy struct {
	baseURL string
	timeout time.Duration
	settle  time.Duration
	logger  *utils.Logger

	// seams for tests; default to real chromedp
	newContext func(parent context.Context) (context.Context, context.CancelFunc)
	run        func(ctx context.Context, actions ...chromedp.Action) error
	capture    func(ctx context.Context, url string) (string, error)
}

// NewBrowserRenderStrategy creates a browser strategy targeting the given
// Tripadvisor base URL (e.g. "https://www.tripadvisor.ca").
func NewBrowserRenderStrategy(baseURL string, logger *utils.Logger) *BrowserRenderStrategy {
	s := &BrowserRenderStrategy{
		baseURL:    baseURL,
		timeout:    browserTimeout,
		settle:     renderSettle,
		logger:     logger,
		newContext: newBrowserContext,
		run:        chromedp.Run,
	}
	s.capture = s.captureWithBrowser
	return s
}

// captureWithBrowser is the production render: fresh browser, stealth
// script, navigate, settle, capture. The browser is torn down before
// returning, on every path.
func (s *BrowserRenderStrategy) captureWithBrowser(ctx context.Context, url string) (string, error) {
	bctx, cancel := s.newContext(ctx)
	defer cancel()

	var html string
	err := s.run(bctx,
		maskAutomation(),
		chromedp.Navigate(url),
		chromedp.Sleep(s.settle), // give JS time to render
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

func (s *BrowserRenderStrategy) Name() string { return "browser" }

// Fetch renders the review page and returns its markup. No retries; retry
// policy belongs to the caller.
func (s *BrowserRenderStrategy) Fetch(ctx context.Context, query models.PriceQuery) (*models.RawPage, error) {
	target := reviewPageURL(s.baseURL, query)
	s.logger.Info("Launching browser for: %s", target)

	ctx, cancelTimeout := context.WithTimeout(ctx, s.timeout)
	defer cancelTimeout()

	html, err := s.capture(ctx, target)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &FetchError{Kind: KindTimeout, Strategy: s.Name(), Err: err}
		}
		return nil, &FetchError{Kind: KindUpstream, Strategy: s.Name(), Err: err}
	}

	if isBlockPage(html) {
		return nil, &FetchError{Kind: KindBlocked, Strategy: s.Name(), Err: errors.New("block page detected in rendered markup")}
	}

	return &models.RawPage{Kind: models.PageHTML, HTML: html}, nil
}
