package tripadvisor

import (
	"encoding/json"
	"testing"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"

	"github.com/stretchr/testify/require"
)

func TestBuildOfferPayloadShape(t *testing.T) {
	session := &models.SessionContext{
		SessionID:   "D2855F001712C827E756B613E9303C14",
		PageLoadUID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
	}

	payload := buildOfferPayload(validQuery(), session)
	require.Len(t, payload, 2)
	require.Equal(t, searchContextQueryID, payload[0].Extensions.PreRegisteredQueryID)
	require.Equal(t, webHROffersQueryID, payload[1].Extensions.PreRegisteredQueryID)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	searchVars := decoded[0]["variables"].(map[string]any)
	require.EqualValues(t, 155032, searchVars["locationId"])
	require.Equal(t, "Hotel_Review", searchVars["servletName"])

	travelInfo := searchVars["hotelTravelInfo"].(map[string]any)
	require.EqualValues(t, 2, travelInfo["adultCount"])
	require.Equal(t, "2026-09-26", travelInfo["checkInDate"])
	require.Equal(t, "2026-09-28", travelInfo["checkOutDate"])

	request := decoded[1]["variables"].(map[string]any)["request"].(map[string]any)
	require.Equal(t, session.SessionID, request["sessionId"])
	require.Equal(t, session.PageLoadUID, request["pageLoadUid"])
	require.EqualValues(t, 186688, request["hotelId"])
	require.Equal(t, "USD", request["currencyCode"])
	require.Nil(t, request["spAttributionToken"])

	// childAgesPerRoom must serialize as an empty list, not null
	offerTravel := request["travelInfo"].(map[string]any)
	ages, ok := offerTravel["childAgesPerRoom"].([]any)
	require.True(t, ok)
	require.Empty(t, ages)
}

func TestNumericID(t *testing.T) {
	require.Equal(t, 186688, numericID("d186688"))
	require.Equal(t, 155032, numericID("g155032"))
	require.Zero(t, numericID("bogus"))
}

func TestParseOffers(t *testing.T) {
	offers, err := ParseOffers([]byte(offersResponseFixture), validQuery())
	require.NoError(t, err)
	require.Len(t, offers, 3)

	require.Equal(t, "Booking.com", offers[0].Provider)
	require.InDelta(t, 340.50, offers[0].TotalPrice, 0.001)
	require.InDelta(t, 310.50, offers[0].PricePerNight, 0.001)

	require.Equal(t, "Expedia", offers[1].Provider)
	require.InDelta(t, 529, offers[1].TotalPrice, 0.001)

	// hidden offer with only a per-night rate, named via vendorName
	require.Equal(t, "Priceline", offers[2].Provider)
	require.InDelta(t, 315, offers[2].TotalPrice, 0.001)
}

func TestParseOffersToleratesEmptyResponses(t *testing.T) {
	offers, err := ParseOffers([]byte(`[]`), validQuery())
	require.NoError(t, err)
	require.Empty(t, offers)

	offers, err = ParseOffers([]byte(`[{"data": {}}, {"data": {}}]`), validQuery())
	require.NoError(t, err)
	require.Empty(t, offers)

	_, err = ParseOffers([]byte(`{broken`), validQuery())
	require.Error(t, err)
}

func TestBestPrice(t *testing.T) {
	price, ok := BestPrice([]models.OTAOffer{
		{Provider: "Expedia", TotalPrice: 529},
		{Provider: "Booking.com", TotalPrice: 340.5},
		{Provider: "Priceline", PricePerNight: 315},
	})
	require.True(t, ok)
	require.Equal(t, "315.00", price)

	_, ok = BestPrice(nil)
	require.False(t, ok)
}
