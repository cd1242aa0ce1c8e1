package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/services"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"
)

const dateFormat = "2006-01-02"

// Server is the HTTP boundary around the scrape service. It validates,
// admits, and renders; all extraction logic lives below it.
type Server struct {
	service   *services.ScrapeService
	admission *services.AdmissionController
	logger    *utils.Logger
	srv       *http.Server
}

// NewServer wires the routes. addr is the listen address, cooldown the
// per-client admission window.
func NewServer(addr string, service *services.ScrapeService, cooldown time.Duration, logger *utils.Logger) *Server {
	s := &Server{
		service:   service,
		admission: services.NewAdmissionController(cooldown),
		logger:    logger,
	}
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // a scrape drives a full browser session
	}
	return s
}

// Handler returns the route table; exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /scrape-price/", s.handleScrapePrice)
	mux.HandleFunc("GET /prices/{hotel_id}", s.handlePrices)
	return mux
}

// ListenAndServe blocks serving requests until the listener fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP service listening on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type scrapeRequest struct {
	GeoID        string `json:"geo_id"`
	HotelID      string `json:"hotel_id"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
}

type scrapeResponse struct {
	HotelID      string  `json:"hotel_id"`
	CheckinDate  string  `json:"checkin_date"`
	CheckoutDate string  `json:"checkout_date"`
	Price        *string `json:"price"`
	Status       string  `json:"status"`
}

type priceResponse struct {
	ID           int64      `json:"id"`
	HotelName    string     `json:"hotel_name"`
	Price        float64    `json:"price"`
	CheckinDate  *time.Time `json:"checkin_date"`
	CheckoutDate *time.Time `json:"checkout_date"`
	ScrapedAt    time.Time  `json:"scraped_at"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleScrapePrice(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON body"})
		return
	}

	query, err := buildQuery(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	if !s.admission.Admit(clientIP(r)) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Detail: "too many requests, slow down"})
		return
	}

	result, err := s.service.ScrapeAndStore(r.Context(), query)
	if err != nil {
		s.logger.Error("Persisting price failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "failed to store price"})
		return
	}

	resp := scrapeResponse{
		HotelID:      req.HotelID,
		CheckinDate:  req.CheckinDate,
		CheckoutDate: req.CheckoutDate,
		Status:       "Failed to find price",
	}
	if result.Found {
		price := result.Price
		resp.Price = &price
		resp.Status = "success"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	hotelID := r.PathValue("hotel_id")

	records, err := s.service.PricesForHotel(hotelID)
	if err != nil {
		s.logger.Error("Reading prices for %s failed: %v", hotelID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "failed to read prices"})
		return
	}

	out := make([]priceResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, priceResponse{
			ID:           rec.ID,
			HotelName:    rec.HotelName,
			Price:        rec.Price,
			CheckinDate:  rec.CheckinDate,
			CheckoutDate: rec.CheckoutDate,
			ScrapedAt:    rec.ScrapedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// buildQuery converts the wire request into a validated PriceQuery.
func buildQuery(req scrapeRequest) (models.PriceQuery, error) {
	checkin, err := time.Parse(dateFormat, req.CheckinDate)
	if err != nil {
		return models.PriceQuery{}, &validationError{"checkin_date must be YYYY-MM-DD"}
	}
	checkout, err := time.Parse(dateFormat, req.CheckoutDate)
	if err != nil {
		return models.PriceQuery{}, &validationError{"checkout_date must be YYYY-MM-DD"}
	}

	query := models.PriceQuery{
		PropertyID: req.HotelID,
		LocationID: req.GeoID,
		CheckIn:    checkin,
		CheckOut:   checkout,
		Occupancy:  models.DefaultOccupancy(),
	}
	if err := query.Validate(); err != nil {
		return models.PriceQuery{}, err
	}
	return query, nil
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

// clientIP keys admission control. Proxy headers win over the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
