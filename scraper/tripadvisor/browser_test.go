package tripadvisor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/require"
)

func validQuery() models.PriceQuery {
	checkIn := time.Date(2026, 9, 26, 0, 0, 0, 0, time.UTC)
	return models.PriceQuery{
		PropertyID: "d186688",
		LocationID: "g155032",
		CheckIn:    checkIn,
		CheckOut:   checkIn.AddDate(0, 0, 2),
		Occupancy:  models.DefaultOccupancy(),
	}
}

func TestBrowserFetchReleasesBrowserOnTimeout(t *testing.T) {
	var closes int32

	s := NewBrowserRenderStrategy("https://www.tripadvisor.ca", utils.NewLogger())
	s.timeout = 50 * time.Millisecond
	s.newContext = func(parent context.Context) (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(parent)
		return ctx, func() {
			atomic.AddInt32(&closes, 1)
			cancel()
		}
	}
	// a navigation that never completes
	s.run = func(ctx context.Context, actions ...chromedp.Action) error {
		<-ctx.Done()
		return ctx.Err()
	}

	_, err := s.Fetch(context.Background(), validQuery())
	require.Error(t, err)

	kind, ok := Kind(err)
	require.True(t, ok)
	require.Equal(t, KindTimeout, kind)
	require.EqualValues(t, 1, atomic.LoadInt32(&closes), "browser must be released exactly once")
}

func TestBrowserFetchDetectsBlockPage(t *testing.T) {
	s := NewBrowserRenderStrategy("https://www.tripadvisor.ca", utils.NewLogger())
	s.capture = func(ctx context.Context, url string) (string, error) {
		return `<html><body>We detected unusual activity from your network.</body></html>`, nil
	}

	_, err := s.Fetch(context.Background(), validQuery())
	require.Error(t, err)

	kind, ok := Kind(err)
	require.True(t, ok)
	require.Equal(t, KindBlocked, kind)
}

func TestBrowserFetchReturnsRenderedMarkup(t *testing.T) {
	const fixture = `<html><body><span data-automation="metaPrice">$529.00</span></body></html>`

	s := NewBrowserRenderStrategy("https://www.tripadvisor.ca", utils.NewLogger())
	s.capture = func(ctx context.Context, url string) (string, error) {
		return fixture, nil
	}

	page, err := s.Fetch(context.Background(), validQuery())
	require.NoError(t, err)
	require.Equal(t, models.PageHTML, page.Kind)
	require.Equal(t, fixture, page.HTML)
}

func TestReviewPageURL(t *testing.T) {
	url := reviewPageURL("https://www.tripadvisor.ca", validQuery())
	require.Equal(t,
		"https://www.tripadvisor.ca/Hotel_Review-g155032-d186688-Reviews.html?c_in=2026-09-26&c_out=2026-09-28",
		url)
}
