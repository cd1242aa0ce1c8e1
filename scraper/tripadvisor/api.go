package tripadvisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
)

const (
	apiTimeout     = 180 * time.Second // harvest + request, end to end
	apiCallTimeout = 30 * time.Second

	graphqlPath = "/data/graphql/ids"
	apiKey      = "trip-service-HAC-2021"
)

// StructuredAPIStrategy replicates the review page's internal data API:
// harvest a browser session first, then replay the dual GraphQL request
// with the harvested cookies and tokens.
type StructuredAPIStrategy struct {
	apiBase   string
	strict    bool
	harvester *SessionHarvester
	http      *resty.Client
	logger    *utils.Logger
}

// NewStructuredAPIStrategy creates the API-replication strategy. apiBase is
// the GraphQL host; harvester supplies per-fetch session contexts. With
// strict set, a synthesized session aborts the fetch instead of gambling
// an API call on fabricated tokens.
func NewStructuredAPIStrategy(apiBase string, harvester *SessionHarvester, strict bool, logger *utils.Logger) (*StructuredAPIStrategy, error) {
	client := resty.New()
	client.SetBaseURL(apiBase)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetTimeout(apiCallTimeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	return &StructuredAPIStrategy{
		apiBase:   apiBase,
		strict:    strict,
		harvester: harvester,
		http:      client,
		logger:    logger,
	}, nil
}

func (s *StructuredAPIStrategy) Name() string { return "api" }

// Fetch performs one full session-then-query cycle and returns the decoded
// JSON response. Session contexts are never reused across fetches.
func (s *StructuredAPIStrategy) Fetch(ctx context.Context, query models.PriceQuery) (*models.RawPage, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	session, err := s.harvester.Harvest(ctx, query)
	if err != nil {
		return nil, err
	}
	if session.Synthesized && s.strict {
		return nil, &FetchError{
			Kind:     KindUpstream,
			Strategy: s.Name(),
			Err:      errors.New("strict session mode: refusing to call the data API with synthesized tokens"),
		}
	}

	cookies := make([]*http.Cookie, len(session.Cookies))
	for i, c := range session.Cookies {
		cookies[i] = &http.Cookie{Name: c.Name, Value: c.Value}
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"X-Tripadvisor-Api-Key": apiKey,
			"Content-Type":          "application/json",
			"User-Agent":            browser.Random(),
			"Origin":                s.apiBase,
			"Referer":               s.apiBase + "/",
			"Accept":                "application/json, text/plain, */*",
			"Accept-Language":       "en-US,en;q=0.9",
			"Accept-Encoding":       "gzip, deflate, br",
			"Sec-Fetch-Dest":        "empty",
			"Sec-Fetch-Mode":        "cors",
			"Sec-Fetch-Site":        "same-origin",
		}).
		SetCookies(cookies).
		SetBody(buildOfferPayload(query, session)).
		Post(graphqlPath)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &FetchError{Kind: KindTimeout, Strategy: s.Name(), Err: err}
		}
		return nil, &FetchError{Kind: KindUpstream, Strategy: s.Name(), Err: err}
	}

	if res.StatusCode() != http.StatusOK {
		return nil, &FetchError{
			Kind:     KindUpstream,
			Strategy: s.Name(),
			Err:      fmt.Errorf("data API returned status %d", res.StatusCode()),
		}
	}

	decoded, err := decodeJSONBody(res.Body(), res.Header().Get("Content-Encoding"))
	if err != nil {
		return nil, &FetchError{Kind: KindUpstream, Strategy: s.Name(), Err: err}
	}

	s.logger.Debug("Data API answered with %d decoded bytes", len(decoded))
	return &models.RawPage{Kind: models.PageJSON, JSON: decoded}, nil
}
