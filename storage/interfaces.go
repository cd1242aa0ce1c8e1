package storage

import "github.com/Husse1nBerg/TripadvisorPostmanScraper/models"

// PriceStore is the append-only sink for extracted prices.
type PriceStore interface {
	InsertPrice(record *models.PriceRecord) error
	PricesForHotel(hotelName string) ([]*models.PriceRecord, error)
	Close() error
}

// OfferWriter exports harvested OTA offers for offline inspection.
type OfferWriter interface {
	SaveOffers(hotel string, offers []models.OTAOffer) error
	Close() error
}
