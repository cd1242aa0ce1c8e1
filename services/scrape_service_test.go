package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/scraper/tripadvisor"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	extraction *tripadvisor.Extraction
	ok         bool
}

func (s stubExtractor) Extract(ctx context.Context, query models.PriceQuery) (*tripadvisor.Extraction, bool) {
	return s.extraction, s.ok
}

type memoryStore struct {
	records   []*models.PriceRecord
	insertErr error
}

func (m *memoryStore) InsertPrice(record *models.PriceRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	record.ID = int64(len(m.records) + 1)
	record.ScrapedAt = time.Now()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStore) PricesForHotel(hotelName string) ([]*models.PriceRecord, error) {
	var out []*models.PriceRecord
	for _, r := range m.records {
		if r.HotelName == hotelName {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) Close() error { return nil }

func testQuery() models.PriceQuery {
	return models.PriceQuery{
		PropertyID: "d186688",
		LocationID: "g155032",
		CheckIn:    time.Date(2026, 9, 26, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 9, 28, 0, 0, 0, 0, time.UTC),
		Occupancy:  models.DefaultOccupancy(),
	}
}

func TestScrapeAndStorePersistsResult(t *testing.T) {
	store := &memoryStore{}
	svc := NewScrapeService(
		stubExtractor{extraction: &tripadvisor.Extraction{Price: "529.00", HotelName: "Fairmont The Queen Elizabeth"}, ok: true},
		store, nil, utils.NewLogger())

	result, err := svc.ScrapeAndStore(context.Background(), testQuery())
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, "529.00", result.Price)

	require.Len(t, store.records, 1)
	stored := store.records[0]
	require.Equal(t, "Fairmont The Queen Elizabeth", stored.HotelName)
	require.Equal(t, 529.00, stored.Price)
	require.NotNil(t, stored.CheckinDate)
	require.NotNil(t, stored.CheckoutDate)
}

func TestScrapeAndStoreDefaultsHotelNameToPropertyID(t *testing.T) {
	store := &memoryStore{}
	svc := NewScrapeService(
		stubExtractor{extraction: &tripadvisor.Extraction{Price: "310.50"}, ok: true},
		store, nil, utils.NewLogger())

	result, err := svc.ScrapeAndStore(context.Background(), testQuery())
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, "d186688", store.records[0].HotelName)
}

func TestScrapeAndStoreMissingPriceIsNotAnError(t *testing.T) {
	store := &memoryStore{}
	svc := NewScrapeService(stubExtractor{ok: false}, store, nil, utils.NewLogger())

	result, err := svc.ScrapeAndStore(context.Background(), testQuery())
	require.NoError(t, err)
	require.False(t, result.Found)
	require.Empty(t, store.records)
}

func TestScrapeAndStoreSurfacesStoreFailure(t *testing.T) {
	store := &memoryStore{insertErr: errors.New("connection refused")}
	svc := NewScrapeService(
		stubExtractor{extraction: &tripadvisor.Extraction{Price: "529.00"}, ok: true},
		store, nil, utils.NewLogger())

	_, err := svc.ScrapeAndStore(context.Background(), testQuery())
	require.Error(t, err)
}

func TestScrapeAndStoreDiscardsUnparsablePrice(t *testing.T) {
	store := &memoryStore{}
	svc := NewScrapeService(
		stubExtractor{extraction: &tripadvisor.Extraction{Price: "not-a-price"}, ok: true},
		store, nil, utils.NewLogger())

	result, err := svc.ScrapeAndStore(context.Background(), testQuery())
	require.NoError(t, err)
	require.False(t, result.Found)
	require.Empty(t, store.records)
}
