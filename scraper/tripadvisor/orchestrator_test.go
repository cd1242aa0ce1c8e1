package tripadvisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	page *models.RawPage
	err  error
}

func (s stubStrategy) Name() string { return "stub" }

func (s stubStrategy) Fetch(ctx context.Context, query models.PriceQuery) (*models.RawPage, error) {
	return s.page, s.err
}

func TestExtractPriceFromRenderedPage(t *testing.T) {
	page := &models.RawPage{
		Kind: models.PageHTML,
		HTML: `<html><body>
			<h1 data-automation="mainH1">Fairmont The Queen Elizabeth</h1>
			<span data-automation="metaPrice">$529.00</span>
		</body></html>`,
	}
	e := NewExtractor(stubStrategy{page: page}, utils.NewLogger(), false)

	price, ok := e.ExtractPrice(context.Background(), validQuery())
	require.True(t, ok)
	require.Equal(t, "529.00", price)

	extraction, ok := e.Extract(context.Background(), validQuery())
	require.True(t, ok)
	require.Equal(t, "Fairmont The Queen Elizabeth", extraction.HotelName)
}

func TestExtractPriceNoSignal(t *testing.T) {
	page := &models.RawPage{
		Kind: models.PageHTML,
		HTML: `<html><body><h1>Fairmont The Queen Elizabeth</h1><p>Great location.</p></body></html>`,
	}
	e := NewExtractor(stubStrategy{page: page}, utils.NewLogger(), false)

	price, ok := e.ExtractPrice(context.Background(), validQuery())
	require.False(t, ok)
	require.Empty(t, price)
}

func TestExtractPriceFlattensFetchFailures(t *testing.T) {
	for _, kind := range []ErrorKind{KindBlocked, KindTimeout, KindUpstream} {
		e := NewExtractor(stubStrategy{err: &FetchError{Kind: kind, Strategy: "stub", Err: errors.New("boom")}}, utils.NewLogger(), false)

		price, ok := e.ExtractPrice(context.Background(), validQuery())
		require.False(t, ok, "kind %s must surface as absence", kind)
		require.Empty(t, price)
	}
}

func TestExtractPriceFromStructuredOffers(t *testing.T) {
	page := &models.RawPage{Kind: models.PageJSON, JSON: []byte(offersResponseFixture)}
	e := NewExtractor(stubStrategy{page: page}, utils.NewLogger(), false)

	extraction, ok := e.Extract(context.Background(), validQuery())
	require.True(t, ok)
	require.Equal(t, "315.00", extraction.Price)
	require.Len(t, extraction.Offers, 3)
}

func TestExtractPriceRejectsInvalidQuery(t *testing.T) {
	e := NewExtractor(stubStrategy{}, utils.NewLogger(), false)

	query := validQuery()
	query.CheckOut = query.CheckIn // not strictly after

	_, ok := e.ExtractPrice(context.Background(), query)
	require.False(t, ok)
}

func TestExtractWritesDebugArtifact(t *testing.T) {
	page := &models.RawPage{
		Kind: models.PageHTML,
		HTML: `<html><body><span data-automation="metaPrice">$529.00</span></body></html>`,
	}
	e := NewExtractor(stubStrategy{page: page}, utils.NewLogger(), true)
	e.debugDir = t.TempDir()

	_, ok := e.ExtractPrice(context.Background(), validQuery())
	require.True(t, ok)

	dumped, err := os.ReadFile(filepath.Join(e.debugDir, "debug.html"))
	require.NoError(t, err)
	require.Equal(t, page.HTML, string(dumped))
}
