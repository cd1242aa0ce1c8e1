package services

import (
	"context"
	"strconv"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/scraper/tripadvisor"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/storage"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"
)

// Extractor is the pipeline entry point the service drives.
type Extractor interface {
	Extract(ctx context.Context, query models.PriceQuery) (*tripadvisor.Extraction, bool)
}

// ScrapeResult is one scrape run's outcome. Found=false is a normal result
// (price not present), not an error.
type ScrapeResult struct {
	Price  string
	Found  bool
	Record *models.PriceRecord
	Offers []models.OTAOffer
}

// ScrapeService runs the extraction pipeline and persists what it finds.
type ScrapeService struct {
	extractor Extractor
	store     storage.PriceStore
	offers    storage.OfferWriter
	logger    *utils.Logger
}

// NewScrapeService wires the pipeline to its sinks. offers may be nil when
// no diagnostic export is configured.
func NewScrapeService(extractor Extractor, store storage.PriceStore, offers storage.OfferWriter, logger *utils.Logger) *ScrapeService {
	return &ScrapeService{extractor: extractor, store: store, offers: offers, logger: logger}
}

// ScrapeAndStore extracts one price and appends it to the store. A missing
// price returns Found=false and nil error; only persistence failures error.
func (s *ScrapeService) ScrapeAndStore(ctx context.Context, query models.PriceQuery) (*ScrapeResult, error) {
	extraction, ok := s.extractor.Extract(ctx, query)
	if !ok {
		return &ScrapeResult{}, nil
	}

	price, err := strconv.ParseFloat(extraction.Price, 64)
	if err != nil || price <= 0 {
		s.logger.Warn("Discarding unusable extracted price %q for %s", extraction.Price, query.PropertyID)
		return &ScrapeResult{}, nil
	}

	hotelName := extraction.HotelName
	if hotelName == "" {
		hotelName = query.PropertyID
	}

	checkin, checkout := query.CheckIn, query.CheckOut
	record := &models.PriceRecord{
		HotelName:    hotelName,
		Price:        price,
		CheckinDate:  &checkin,
		CheckoutDate: &checkout,
	}
	if err := s.store.InsertPrice(record); err != nil {
		return nil, err
	}

	if s.offers != nil && len(extraction.Offers) > 0 {
		if err := s.offers.SaveOffers(hotelName, extraction.Offers); err != nil {
			s.logger.Warn("Offer export failed for %s: %v", hotelName, err)
		}
	}

	return &ScrapeResult{Price: extraction.Price, Found: true, Record: record, Offers: extraction.Offers}, nil
}

// PricesForHotel exposes the store's read path to the HTTP layer.
func (s *ScrapeService) PricesForHotel(hotelName string) ([]*models.PriceRecord, error) {
	return s.store.PricesForHotel(hotelName)
}
