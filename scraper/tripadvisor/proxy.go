package tripadvisor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
)

const (
	proxyTimeout = 120 * time.Second

	// waitForSelector is the element the rendering service blocks on; it is
	// the same hook the parser ranks first.
	waitForSelector = "[data-automation='metaPrice']"
	renderWaitMs    = 5000
)

// RenderingProxyStrategy delegates JS rendering to a third-party rendering
// service (ZenRows-style API). The service runs the browser; we only make
// one HTTP call per fetch.
type RenderingProxyStrategy struct {
	serviceURL string
	apiKey     string
	targetBase string
	http       *resty.Client
	logger     *utils.Logger
}

// NewRenderingProxyStrategy creates a proxy strategy. serviceURL is the
// rendering service endpoint, apiKey its credential, targetBase the
// Tripadvisor base URL whose review pages get rendered.
func NewRenderingProxyStrategy(serviceURL, apiKey, targetBase string, logger *utils.Logger) *RenderingProxyStrategy {
	client := resty.New()
	client.SetTimeout(proxyTimeout)
	client.SetHeader("user-agent", browser.Random())

	return &RenderingProxyStrategy{
		serviceURL: serviceURL,
		apiKey:     apiKey,
		targetBase: targetBase,
		http:       client,
		logger:     logger,
	}
}

func (s *RenderingProxyStrategy) Name() string { return "proxy" }

// Fetch asks the rendering service for the fully rendered review page.
// Schema variations on the service side are not retried here.
func (s *RenderingProxyStrategy) Fetch(ctx context.Context, query models.PriceQuery) (*models.RawPage, error) {
	if s.apiKey == "" {
		return nil, &FetchError{Kind: KindBadConfig, Strategy: s.Name(), Err: errors.New("rendering service api key is not set")}
	}

	target := reviewPageURL(s.targetBase, query)
	s.logger.Info("Requesting rendered page via proxy: %s", target)

	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"url":           target,
			"apikey":        s.apiKey,
			"js_render":     "true",
			"premium_proxy": "true",
			"wait_for":      waitForSelector,
			"wait":          strconv.Itoa(renderWaitMs),
		}).
		Get(s.serviceURL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &FetchError{Kind: KindTimeout, Strategy: s.Name(), Err: err}
		}
		return nil, &FetchError{Kind: KindUpstream, Strategy: s.Name(), Err: err}
	}

	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return nil, &FetchError{
			Kind:     KindUpstream,
			Strategy: s.Name(),
			Err:      fmt.Errorf("rendering service returned status %d", res.StatusCode()),
		}
	}

	html := string(res.Body())
	if isBlockPage(html) {
		return nil, &FetchError{Kind: KindBlocked, Strategy: s.Name(), Err: errors.New("rendering service delivered a block page")}
	}

	return &models.RawPage{Kind: models.PageHTML, HTML: html}, nil
}
