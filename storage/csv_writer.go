package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"
)

// CSVWriter appends harvested OTA offers to a CSV file. It is a diagnostic
// sink, not the price store of record.
type CSVWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(filePath string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

// SaveOffers appends one extraction run's offers, writing the header only
// when the file is new.
func (w *CSVWriter) SaveOffers(hotel string, offers []models.OTAOffer) error {
	if len(offers) == 0 {
		return nil
	}

	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	_, statErr := os.Stat(w.filePath)
	fresh := os.IsNotExist(statErr)

	file, err := os.OpenFile(w.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if fresh {
		header := []string{
			"hotel", "provider", "price_per_night", "taxes",
			"total_price", "checkin_date", "checkout_date",
		}
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, o := range offers {
		row := []string{
			hotel,
			o.Provider,
			strconv.FormatFloat(o.PricePerNight, 'f', 2, 64),
			strconv.FormatFloat(o.Taxes, 'f', 2, 64),
			strconv.FormatFloat(o.TotalPrice, 'f', 2, 64),
			o.CheckIn.Format("2006-01-02"),
			o.CheckOut.Format("2006-01-02"),
		}
		if err := writer.Write(row); err != nil {
			w.logger.Error("Failed to write CSV row for '%s': %v", o.Provider, err)
		}
	}

	w.logger.Info("Offers for %s written to: %s (%d rows) at %s",
		hotel, w.filePath, len(offers), time.Now().Format(time.RFC3339))
	return nil
}

// Close is a no-op; the file is opened per write.
func (w *CSVWriter) Close() error { return nil }
