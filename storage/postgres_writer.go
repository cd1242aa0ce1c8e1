package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	_ "github.com/lib/pq"
)

// expectedColumns is the fixed schema contract for the prices table. Any
// divergence is a startup-time configuration error, never a per-insert
// guessing game.
var expectedColumns = []string{"id", "hotel_name", "price", "checkin_date", "checkout_date", "scraped_at"}

// PostgresWriter persists price records in PostgreSQL.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter connects, pings, and verifies the schema contract.
func NewPostgresWriter(connStr string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	w := &PostgresWriter{db: db, logger: logger}
	if err := w.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Connected to PostgreSQL successfully")
	return w, nil
}

// ensureSchema creates the prices table if missing and verifies that an
// existing table matches the expected column set.
func (w *PostgresWriter) ensureSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS prices (
		id            SERIAL PRIMARY KEY,
		hotel_name    TEXT          NOT NULL,
		price         NUMERIC(10,2) NOT NULL CHECK (price > 0),
		checkin_date  DATE,
		checkout_date DATE,
		scraped_at    TIMESTAMP     NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_prices_hotel_name ON prices (hotel_name);
	CREATE INDEX IF NOT EXISTS idx_prices_scraped_at ON prices (scraped_at);
	`
	if _, err := w.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create prices table: %w", err)
	}

	rows, err := w.db.Query(`
		SELECT column_name FROM information_schema.columns
		WHERE table_name = 'prices' ORDER BY ordinal_position
	`)
	if err != nil {
		return fmt.Errorf("failed to inspect prices schema: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to read prices schema: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read prices schema: %w", err)
	}

	if strings.Join(columns, ",") != strings.Join(expectedColumns, ",") {
		return fmt.Errorf("prices table schema mismatch: have [%s], want [%s]",
			strings.Join(columns, ", "), strings.Join(expectedColumns, ", "))
	}

	w.logger.Info("Table 'prices' is ready")
	return nil
}

// InsertPrice appends one record. scraped_at is set by the database.
func (w *PostgresWriter) InsertPrice(record *models.PriceRecord) error {
	if record.Price <= 0 {
		return fmt.Errorf("refusing to store non-positive price %.2f for %q", record.Price, record.HotelName)
	}

	err := w.db.QueryRow(`
		INSERT INTO prices (hotel_name, price, checkin_date, checkout_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, scraped_at
	`, record.HotelName, record.Price, record.CheckinDate, record.CheckoutDate).
		Scan(&record.ID, &record.ScrapedAt)
	if err != nil {
		return fmt.Errorf("failed to insert price for %q: %w", record.HotelName, err)
	}

	w.logger.Info("Stored price %.2f for %s", record.Price, record.HotelName)
	return nil
}

// PricesForHotel returns every stored record for a hotel, newest first.
func (w *PostgresWriter) PricesForHotel(hotelName string) ([]*models.PriceRecord, error) {
	rows, err := w.db.Query(`
		SELECT id, hotel_name, price, checkin_date, checkout_date, scraped_at
		FROM prices
		WHERE hotel_name = $1
		ORDER BY scraped_at DESC
	`, hotelName)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %q: %w", hotelName, err)
	}
	defer rows.Close()

	var records []*models.PriceRecord
	for rows.Next() {
		r := &models.PriceRecord{}
		if err := rows.Scan(&r.ID, &r.HotelName, &r.Price, &r.CheckinDate, &r.CheckoutDate, &r.ScrapedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read price rows: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (w *PostgresWriter) Close() error {
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}
