package models

import (
	"fmt"
	"regexp"
	"time"
)

var (
	locationIDPattern = regexp.MustCompile(`^g\d+$`)
	propertyIDPattern = regexp.MustCompile(`^d\d+$`)
)

// Occupancy describes who the quoted price is for.
type Occupancy struct {
	Adults    int
	Rooms     int
	ChildAges []int
}

// DefaultOccupancy is what Tripadvisor assumes when no party is specified.
func DefaultOccupancy() Occupancy {
	return Occupancy{Adults: 2, Rooms: 1}
}

// PriceQuery describes a single price lookup: one property, one stay.
type PriceQuery struct {
	PropertyID string // Tripadvisor hotel id, e.g. "d186688"
	LocationID string // Tripadvisor geo id, e.g. "g155032"
	CheckIn    time.Time
	CheckOut   time.Time
	Occupancy  Occupancy
}

// Validate checks id formats, date ordering and occupancy minimums.
func (q PriceQuery) Validate() error {
	if !propertyIDPattern.MatchString(q.PropertyID) {
		return fmt.Errorf("invalid property id %q: must be 'd' followed by digits", q.PropertyID)
	}
	if !locationIDPattern.MatchString(q.LocationID) {
		return fmt.Errorf("invalid location id %q: must be 'g' followed by digits", q.LocationID)
	}
	if q.CheckIn.IsZero() || q.CheckOut.IsZero() {
		return fmt.Errorf("check-in and check-out dates are required")
	}
	if !q.CheckOut.After(q.CheckIn) {
		return fmt.Errorf("check-out date must be after check-in date")
	}
	if q.Occupancy.Adults < 1 {
		return fmt.Errorf("occupancy needs at least one adult")
	}
	if q.Occupancy.Rooms < 1 {
		return fmt.Errorf("occupancy needs at least one room")
	}
	return nil
}

// PageKind discriminates what a fetch strategy handed back.
type PageKind int

const (
	PageHTML PageKind = iota // rendered markup
	PageJSON                 // structured API response body
)

// RawPage is unprocessed content returned by a fetch strategy. It is read
// by the parser and discarded; never mutated.
type RawPage struct {
	Kind PageKind
	HTML string
	JSON []byte
}

// Cookie is a single harvested browser cookie.
type Cookie struct {
	Name  string
	Value string
}

// SessionContext holds cookies and tokens pulled from (or synthesized to
// resemble) a real browser visit to the property page. It is bound to one
// navigation sequence and must not be reused across properties.
type SessionContext struct {
	Cookies     []Cookie
	SessionID   string
	PageLoadUID string
	// Synthesized marks tokens we had to invent because the page did not
	// expose real ones. A synthesized session may still be accepted
	// upstream, but confidence is lower.
	Synthesized bool
}

// PriceRecord is a successfully extracted price ready for storage.
type PriceRecord struct {
	ID           int64
	HotelName    string // falls back to the property id when no display name is known
	Price        float64
	CheckinDate  *time.Time
	CheckoutDate *time.Time
	ScrapedAt    time.Time
}

// OTAOffer is one provider's quote as returned by the structured data API.
type OTAOffer struct {
	Provider      string
	PricePerNight float64
	Taxes         float64
	TotalPrice    float64
	CheckIn       time.Time
	CheckOut      time.Time
}
