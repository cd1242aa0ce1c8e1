package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// priceSelectors is the ranked list of known price-bearing locations on a
// Tripadvisor hotel review page. The data-automation hook is the one the
// site currently renders the headline rate into; the rest are older
// shapes that still show up on some templates.
var priceSelectors = []string{
	"[data-automation='metaPrice']",
	"[data-testid='price']",
	"[data-testid='rate']",
	".price",
	".rate-amount",
	".price-amount",
	".listing-price",
	".hotel-price",
	".booking-price",
	".provider-price",
	"[class*='price']",
	"[class*='rate']",
}

var hotelNameSelectors = []string{
	"h1[data-automation='mainH1']",
	"h1[data-testid='hotel-name']",
	"h1.hotel-name",
	"h1",
}

// minPlausiblePrice filters out incidental small numbers (review counts,
// "top 10" badges) during the free-text scan. A real nightly rate on the
// pages we target is never below this.
const minPlausiblePrice = 50

var (
	currencyMarkers = []string{"C$", "CAD", "US$", "USD", "$", "€", "£"}

	// amount matches "1,234.56", "529.00", "529" with optional currency prefix.
	amountPattern = regexp.MustCompile(`(?:C\$|CAD|US\$|USD|\$|€|£)?\s*(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)

	// currencyAmountPattern requires the currency prefix; used on free text
	// where a bare number means nothing.
	currencyAmountPattern = regexp.MustCompile(`(?:C\$|CAD|US\$|USD|\$|€|£)\s*(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)

	leadingNumber = regexp.MustCompile(`^\d+(?:\.\d{1,2})?`)
)

// Parse extracts a normalized price from rendered page markup. The result
// is a clean decimal string with no currency symbols, separators or
// whitespace. All parse failures, including malformed markup, degrade to
// ("", false) — this function never errors.
func Parse(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	if price, ok := parseBySelector(doc); ok {
		return price, true
	}
	if price, ok := parseFreeText(doc); ok {
		return price, true
	}
	if price, ok := parseStructuredData(doc); ok {
		return price, true
	}
	return "", false
}

// ParseHotelName pulls the property's display name out of the page, when
// the page exposes one.
func ParseHotelName(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	for _, sel := range hotelNameSelectors {
		name := strings.TrimSpace(doc.Find(sel).First().Text())
		if name != "" {
			return name, true
		}
	}
	return "", false
}

// parseBySelector probes the ranked selector list and takes the first match
// whose visible text carries a currency marker.
func parseBySelector(doc *goquery.Document) (string, bool) {
	for _, sel := range priceSelectors {
		var price string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if text == "" || !hasCurrencyMarker(text) {
				return true
			}
			// Prefer the amount attached to the currency marker; fall
			// back to the first bare number in the element.
			m := currencyAmountPattern.FindStringSubmatch(text)
			if m == nil {
				m = amountPattern.FindStringSubmatch(text)
			}
			if m == nil {
				return true
			}
			price = normalize(m[1])
			return false
		})
		if price != "" {
			return price, true
		}
	}
	return "", false
}

// parseFreeText scans all visible text for currency-prefixed amounts and
// returns the first one that clears the plausibility floor.
func parseFreeText(doc *goquery.Document) (string, bool) {
	body := doc.Find("body")
	if body.Length() == 0 {
		return "", false
	}
	for _, m := range currencyAmountPattern.FindAllStringSubmatch(body.Text(), -1) {
		cleaned := normalize(m[1])
		val, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			continue
		}
		if val >= minPlausiblePrice {
			return cleaned, true
		}
	}
	return "", false
}

// parseStructuredData falls back to schema.org offer blocks embedded as
// ld+json. Offers may be a single object or a list; the first entry wins.
func parseStructuredData(doc *goquery.Document) (string, bool) {
	var price string
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var block map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &block); err != nil {
			return true
		}
		offer, ok := firstOffer(block["offers"])
		if !ok {
			return true
		}
		raw, ok := offerPrice(offer)
		if !ok {
			return true
		}
		if p := leadingNumber.FindString(normalize(raw)); p != "" {
			price = p
			return false
		}
		return true
	})
	return price, price != ""
}

func firstOffer(offers any) (map[string]any, bool) {
	switch v := offers.(type) {
	case map[string]any:
		return v, true
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		m, ok := v[0].(map[string]any)
		return m, ok
	}
	return nil, false
}

func offerPrice(offer map[string]any) (string, bool) {
	switch p := offer["price"].(type) {
	case string:
		return p, p != ""
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64), true
	}
	return "", false
}

func hasCurrencyMarker(text string) bool {
	for _, marker := range currencyMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// normalize strips grouping separators and surrounding noise. Decimal
// places are preserved as-is, never rounded.
func normalize(amount string) string {
	return strings.TrimSpace(strings.ReplaceAll(amount, ",", ""))
}
