package tripadvisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
)

// ErrorKind classifies why a fetch attempt produced no usable page.
type ErrorKind int

const (
	// KindUpstream covers non-2xx statuses and undecodable response bodies.
	KindUpstream ErrorKind = iota
	// KindBlocked means Tripadvisor's anti-bot defenses intercepted us.
	KindBlocked
	// KindTimeout means a bounded step exceeded its deadline.
	KindTimeout
	// KindBadConfig means the strategy was constructed without something
	// it cannot run without.
	KindBadConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindBlocked:
		return "blocked"
	case KindTimeout:
		return "timeout"
	case KindBadConfig:
		return "bad_config"
	default:
		return "upstream"
	}
}

// FetchError is the single error type strategies return. The orchestrator
// flattens it to absence; the Kind survives only in logs.
type FetchError struct {
	Kind     ErrorKind
	Strategy string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed (%s): %v", e.Strategy, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Kind extracts the classification from any error returned by a strategy.
func Kind(err error) (ErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// FetchStrategy is one interchangeable way of obtaining raw page content
// for a property+date query. Strategies do not retry internally and must
// release every resource they acquire on all exit paths.
type FetchStrategy interface {
	Name() string
	Fetch(ctx context.Context, query models.PriceQuery) (*models.RawPage, error)
}

// blockKeywords are the phrases Tripadvisor's interstitial block pages
// carry. Matching any of them means the session is doomed.
var blockKeywords = []string{
	"unusual activity",
	"bot activity",
	"automated",
	"blocked",
}

func isBlockPage(html string) bool {
	lowered := strings.ToLower(html)
	for _, kw := range blockKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

const dateFormat = "2006-01-02"

// reviewPageURL builds the hotel review page URL with the stay dates as
// query parameters, the same page a real visitor lands on.
func reviewPageURL(base string, q models.PriceQuery) string {
	return fmt.Sprintf(
		"%s/Hotel_Review-%s-%s-Reviews.html?c_in=%s&c_out=%s",
		strings.TrimRight(base, "/"),
		q.LocationID,
		q.PropertyID,
		q.CheckIn.Format(dateFormat),
		q.CheckOut.Format(dateFormat),
	)
}
