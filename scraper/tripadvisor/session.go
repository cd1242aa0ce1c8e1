package tripadvisor

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/mazen160/go-random"
)

const (
	harvestTimeout = 60 * time.Second
	// anti-bot checks run client-side after the initial load, so the
	// harvester settles much longer than a plain render.
	harvestSettle = 8 * time.Second
)

// Token shapes Tripadvisor embeds in hotel page markup. Keyed patterns are
// tried before the bare shape patterns so a labelled token always wins.
var (
	sessionIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"sessionId":\s*"([^"]+)"`),
		regexp.MustCompile(`sessionId["']?\s*[:=]\s*["']([^"']+)["']`),
		regexp.MustCompile(`\b([A-F0-9]{32})\b`),
	}
	pageLoadUIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"pageLoadUid":\s*"([^"]+)"`),
		regexp.MustCompile(`pageLoadUid["']?\s*[:=]\s*["']([^"']+)["']`),
		regexp.MustCompile(`\b([a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12})\b`),
	}
)

// SessionHarvester produces a SessionContext for the structured API
// strategy by visiting the property page in a real headless browser. One
// harvest serves one scraping run against one property; contexts are never
// reused across properties.
type SessionHarvester struct {
	baseURL string
	timeout time.Duration
	settle  time.Duration
	logger  *utils.Logger

	// seams for tests; default to real chromedp
	newContext func(parent context.Context) (context.Context, context.CancelFunc)
	visit      func(ctx context.Context, url string, settle time.Duration) (string, []models.Cookie, error)
}

func NewSessionHarvester(baseURL string, logger *utils.Logger) *SessionHarvester {
	h := &SessionHarvester{
		baseURL:    baseURL,
		timeout:    harvestTimeout,
		settle:     harvestSettle,
		logger:     logger,
		newContext: newBrowserContext,
	}
	h.visit = h.visitWithBrowser
	return h
}

// Harvest navigates to the property page, detects block pages before
// anything else is attempted, and returns cookies plus session tokens.
// When the page exposes no tokens, plausible substitutes are synthesized
// and the context is flagged as degraded.
func (h *SessionHarvester) Harvest(ctx context.Context, query models.PriceQuery) (*models.SessionContext, error) {
	target := reviewPageURL(h.baseURL, query)
	h.logger.Info("Harvesting session from: %s", target)

	ctx, cancelTimeout := context.WithTimeout(ctx, h.timeout)
	defer cancelTimeout()

	html, cookies, err := h.visit(ctx, target, h.settle)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &FetchError{Kind: KindTimeout, Strategy: "session", Err: err}
		}
		return nil, &FetchError{Kind: KindUpstream, Strategy: "session", Err: err}
	}

	// A blocked page yields a doomed session; fail fast instead of burning
	// an API call on it.
	if isBlockPage(html) {
		return nil, &FetchError{Kind: KindBlocked, Strategy: "session", Err: errors.New("block page detected during session harvest")}
	}

	sc := &models.SessionContext{Cookies: cookies}
	sc.SessionID = firstMatch(sessionIDPatterns, html)
	sc.PageLoadUID = firstMatch(pageLoadUIDPatterns, html)

	if sc.SessionID == "" || sc.PageLoadUID == "" {
		if err := synthesizeTokens(sc); err != nil {
			return nil, &FetchError{Kind: KindUpstream, Strategy: "session", Err: err}
		}
		h.logger.Warn("Session tokens not found in page, synthesized substitutes (degraded confidence)")
	}

	h.logger.Info("Harvested %d cookies (synthesized=%v)", len(sc.Cookies), sc.Synthesized)
	return sc, nil
}

// visitWithBrowser is the production page visit: fresh browser, stealth
// script, settle, markup capture, cookie harvest. The browser is torn down
// before returning, on every path.
func (h *SessionHarvester) visitWithBrowser(ctx context.Context, url string, settle time.Duration) (string, []models.Cookie, error) {
	bctx, cancel := h.newContext(ctx)
	defer cancel()

	var html string
	var cookies []models.Cookie
	err := chromedp.Run(bctx,
		maskAutomation(),
		chromedp.Navigate(url),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			harvested, err := network.GetCookies().Do(ctx)
			if err != nil {
				return err
			}
			for _, c := range harvested {
				cookies = append(cookies, models.Cookie{Name: c.Name, Value: c.Value})
			}
			return nil
		}),
	)
	if err != nil {
		return "", nil, err
	}
	return html, cookies, nil
}

func firstMatch(patterns []*regexp.Regexp, html string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}

// synthesizeTokens fills the missing tokens with plausible substitutes: a
// random 32-character uppercase-alphanumeric session id and a random UUID
// page-load id. The context is marked Synthesized so callers can lower
// confidence or skip the structured API entirely.
func synthesizeTokens(sc *models.SessionContext) error {
	if sc.SessionID == "" {
		id, err := random.Random(32, random.ASCIILettersUppercase+random.Digits, true)
		if err != nil {
			return err
		}
		sc.SessionID = id
	}
	if sc.PageLoadUID == "" {
		sc.PageLoadUID = uuid.NewString()
	}
	sc.Synthesized = true
	return nil
}
