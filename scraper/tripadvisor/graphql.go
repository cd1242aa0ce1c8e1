package tripadvisor

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
)

// Pre-registered query ids for the two correlated GraphQL requests the
// hotel review page issues: search context first, then the offer request.
const (
	searchContextQueryID = "d9072109f7378ce1"
	webHROffersQueryID   = "1ad9fb68f3f0cdaf"
)

type graphqlRequest struct {
	Variables  any             `json:"variables"`
	Extensions queryExtensions `json:"extensions"`
}

type queryExtensions struct {
	PreRegisteredQueryID string `json:"preRegisteredQueryId"`
}

type hotelTravelInfo struct {
	AdultCount       int    `json:"adultCount"`
	CheckInDate      string `json:"checkInDate"`
	CheckOutDate     string `json:"checkOutDate"`
	ChildrenCount    int    `json:"childrenCount"`
	ChildAgesPerRoom string `json:"childAgesPerRoom"`
	RoomCount        int    `json:"roomCount"`
	UsedDefaultDates bool   `json:"usedDefaultDates"`
}

type searchContextVariables struct {
	LocationID       int             `json:"locationId"`
	TrafficSource    string          `json:"trafficSource"`
	DeviceType       string          `json:"deviceType"`
	ServletName      string          `json:"servletName"`
	HotelTravelInfo  hotelTravelInfo `json:"hotelTravelInfo"`
	WithContactLinks bool            `json:"withContactLinks"`
}

type offerTravelInfo struct {
	Adults           int    `json:"adults"`
	Rooms            int    `json:"rooms"`
	CheckInDate      string `json:"checkInDate"`
	CheckOutDate     string `json:"checkOutDate"`
	ChildAgesPerRoom []int  `json:"childAgesPerRoom"`
	UsedDefaultDates bool   `json:"usedDefaultDates"`
}

type offerRequest struct {
	HotelID             int             `json:"hotelId"`
	TrackingEnabled     bool            `json:"trackingEnabled"`
	RequestCaller       string          `json:"requestCaller"`
	ImpressionPlacement string          `json:"impressionPlacement"`
	PageLoadUID         string          `json:"pageLoadUid"`
	SessionID           string          `json:"sessionId"`
	CurrencyCode        string          `json:"currencyCode"`
	RequestNumber       int             `json:"requestNumber"`
	SpAttributionToken  *string         `json:"spAttributionToken"`
	ShapeStrategy       string          `json:"shapeStrategy"`
	SequenceID          int             `json:"sequenceId"`
	TravelInfo          offerTravelInfo `json:"travelInfo"`
}

type offerRequestVariables struct {
	Request    offerRequest `json:"request"`
	LocationID int          `json:"locationId"`
}

// buildOfferPayload replicates the dual-query body the review page sends:
// one search-context query plus one offer query carrying the harvested
// session tokens.
func buildOfferPayload(query models.PriceQuery, session *models.SessionContext) []graphqlRequest {
	hotelID := numericID(query.PropertyID)
	locationID := numericID(query.LocationID)
	checkIn := query.CheckIn.Format(dateFormat)
	checkOut := query.CheckOut.Format(dateFormat)

	childAges := query.Occupancy.ChildAges
	if childAges == nil {
		childAges = []int{}
	}

	searchContext := graphqlRequest{
		Variables: searchContextVariables{
			LocationID:    locationID,
			TrafficSource: "ba",
			DeviceType:    "DESKTOP",
			ServletName:   "Hotel_Review",
			HotelTravelInfo: hotelTravelInfo{
				AdultCount:    query.Occupancy.Adults,
				CheckInDate:   checkIn,
				CheckOutDate:  checkOut,
				ChildrenCount: len(childAges),
				RoomCount:     query.Occupancy.Rooms,
			},
		},
		Extensions: queryExtensions{PreRegisteredQueryID: searchContextQueryID},
	}

	offers := graphqlRequest{
		Variables: offerRequestVariables{
			Request: offerRequest{
				HotelID:             hotelID,
				TrackingEnabled:     true,
				RequestCaller:       "Hotel_Review",
				ImpressionPlacement: "HR_DirectCommerce",
				PageLoadUID:         session.PageLoadUID,
				SessionID:           session.SessionID,
				CurrencyCode:        "USD",
				ShapeStrategy:       "DEFAULT_DESKTOP_OFFER_SHAPE",
				TravelInfo: offerTravelInfo{
					Adults:           query.Occupancy.Adults,
					Rooms:            query.Occupancy.Rooms,
					CheckInDate:      checkIn,
					CheckOutDate:     checkOut,
					ChildAgesPerRoom: childAges,
				},
			},
			LocationID: locationID,
		},
		Extensions: queryExtensions{PreRegisteredQueryID: webHROffersQueryID},
	}

	return []graphqlRequest{searchContext, offers}
}

// numericID strips the "g"/"d" prefix from a Tripadvisor identifier.
func numericID(id string) int {
	n, _ := strconv.Atoi(strings.TrimLeft(id, "gd"))
	return n
}

// flexFloat tolerates the API's habit of returning prices as numbers,
// numeric strings, or null depending on the provider.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		// Unparseable provider junk is a missing value, not a failure.
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

type offerAtts struct {
	Provider   string    `json:"provider"`
	VendorName string    `json:"vendorName"`
	LocationID flexFloat `json:"locationId"`
	PerNight   flexFloat `json:"perNight"`
	TaxesValue flexFloat `json:"taxesValue"`
	TotalPrice flexFloat `json:"totalPrice"`
}

type offerWrapper struct {
	Data struct {
		DataAtts offerAtts `json:"dataAtts"`
	} `json:"data"`
}

type hpsOffers struct {
	ChevronOffers []offerWrapper `json:"chevronOffers"`
	HiddenOffers  []offerWrapper `json:"hiddenOffers"`
}

type graphqlEnvelope struct {
	Data struct {
		WebHROffers *hpsOffers `json:"HPS_getWebHROffers"`
	} `json:"data"`
}

// ParseOffers extracts per-provider quotes from the structured API
// response body. The body is the JSON array answering the dual-query
// payload; the second element carries the offer data.
func ParseOffers(body []byte, query models.PriceQuery) ([]models.OTAOffer, error) {
	var envelopes []graphqlEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, err
	}
	if len(envelopes) < 2 || envelopes[1].Data.WebHROffers == nil {
		return nil, nil
	}

	hps := envelopes[1].Data.WebHROffers
	var offers []models.OTAOffer
	for _, wrapper := range append(hps.ChevronOffers, hps.HiddenOffers...) {
		atts := wrapper.Data.DataAtts
		provider := atts.Provider
		if provider == "" {
			provider = atts.VendorName
		}
		if provider == "" {
			continue
		}
		total := float64(atts.TotalPrice)
		perNight := float64(atts.PerNight)
		if total <= 0 && perNight <= 0 {
			continue
		}
		if total <= 0 {
			total = perNight + float64(atts.TaxesValue)
		}
		offers = append(offers, models.OTAOffer{
			Provider:      provider,
			PricePerNight: perNight,
			Taxes:         float64(atts.TaxesValue),
			TotalPrice:    total,
			CheckIn:       query.CheckIn,
			CheckOut:      query.CheckOut,
		})
	}
	return offers, nil
}

// BestPrice reduces an offer list to the single price the extraction
// contract promises: the cheapest positive total, formatted as a clean
// decimal string.
func BestPrice(offers []models.OTAOffer) (string, bool) {
	best := 0.0
	for _, o := range offers {
		price := o.TotalPrice
		if price <= 0 {
			price = o.PricePerNight
		}
		if price <= 0 {
			continue
		}
		if best == 0 || price < best {
			best = price
		}
	}
	if best == 0 {
		return "", false
	}
	return strconv.FormatFloat(best, 'f', 2, 64), true
}
