package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
)

// PrintScrapeReport formats and prints one scrape run's outcome to terminal
func PrintScrapeReport(query models.PriceQuery, result *ScrapeResult) {
	border := strings.Repeat("═", 55)
	thin := strings.Repeat("─", 55)

	fmt.Printf("\n╔%s╗\n", border)
	fmt.Printf("║%s║\n", center("HOTEL PRICE SCRAPE ", 55))
	fmt.Printf("╚%s╝\n", border)

	fmt.Printf("\n QUERY\n%s\n", thin)
	fmt.Printf("  Property    : %s (%s)\n", query.PropertyID, query.LocationID)
	fmt.Printf("  Stay        : %s → %s\n",
		query.CheckIn.Format("2006-01-02"), query.CheckOut.Format("2006-01-02"))
	fmt.Printf("  Occupancy   : %d adults, %d room(s)\n",
		query.Occupancy.Adults, query.Occupancy.Rooms)

	fmt.Printf("\n RESULT\n%s\n", thin)
	if !result.Found {
		fmt.Printf("  No price found\n")
		fmt.Printf("\n%s\n\n", border)
		return
	}
	fmt.Printf("  Price       : $%s\n", result.Price)
	if result.Record != nil {
		fmt.Printf("  Hotel       : %s\n", result.Record.HotelName)
	}

	if len(result.Offers) > 0 {
		fmt.Printf("\n OTA OFFERS (%d)\n%s\n", len(result.Offers), thin)
		offers := make([]models.OTAOffer, len(result.Offers))
		copy(offers, result.Offers)
		sort.Slice(offers, func(i, j int) bool {
			return offers[i].TotalPrice < offers[j].TotalPrice
		})
		for _, o := range offers {
			fmt.Printf("  %-25s $%8.2f total  ($%.2f/night)\n",
				truncate(o.Provider, 25)+":", o.TotalPrice, o.PricePerNight)
		}
	}

	fmt.Printf("\n%s\n\n", border)
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
