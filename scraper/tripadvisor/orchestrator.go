package tripadvisor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/scraper/parser"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"
)

// Extraction is everything one successful pipeline run produced. Price is
// always set; HotelName and Offers only when the page exposed them.
type Extraction struct {
	Price     string
	HotelName string
	Offers    []models.OTAOffer
}

// Extractor composes one fetch strategy with the price parser. Every
// failure mode below it (timeout, block, upstream error, missing price)
// surfaces uniformly as absence plus a logged reason; callers never see a
// raised error.
type Extractor struct {
	strategy FetchStrategy
	logger   *utils.Logger
	debug    bool
	debugDir string
}

// NewExtractor builds an orchestrator around the configured strategy. With
// debug set, raw page content is dumped to debug artifacts for operators.
func NewExtractor(strategy FetchStrategy, logger *utils.Logger, debug bool) *Extractor {
	return &Extractor{
		strategy: strategy,
		logger:   logger,
		debug:    debug,
		debugDir: ".",
	}
}

// ExtractPrice is the coarse public contract: a clean decimal price string,
// or absence.
func (e *Extractor) ExtractPrice(ctx context.Context, query models.PriceQuery) (string, bool) {
	extraction, ok := e.Extract(ctx, query)
	if !ok {
		return "", false
	}
	return extraction.Price, true
}

// Extract runs one strategy invocation end to end and parses the result.
func (e *Extractor) Extract(ctx context.Context, query models.PriceQuery) (*Extraction, bool) {
	if err := query.Validate(); err != nil {
		e.logger.Error("Rejecting invalid query: %v", err)
		return nil, false
	}

	page, err := e.strategy.Fetch(ctx, query)
	if err != nil {
		kind, _ := Kind(err)
		e.logger.Error("Fetch failed [strategy=%s kind=%s hotel=%s]: %v",
			e.strategy.Name(), kind, query.PropertyID, err)
		return nil, false
	}

	if e.debug {
		e.dumpDebugArtifact(page)
	}

	switch page.Kind {
	case models.PageJSON:
		return e.extractFromOffers(page, query)
	default:
		return e.extractFromMarkup(page, query)
	}
}

func (e *Extractor) extractFromMarkup(page *models.RawPage, query models.PriceQuery) (*Extraction, bool) {
	price, ok := parser.Parse(page.HTML)
	if !ok {
		e.logger.Warn("No price signal in rendered page [kind=not_found hotel=%s]; the site structure may have changed", query.PropertyID)
		return nil, false
	}

	extraction := &Extraction{Price: price}
	if name, ok := parser.ParseHotelName(page.HTML); ok {
		extraction.HotelName = name
	}
	e.logger.Info("Extracted price %s for %s", price, query.PropertyID)
	return extraction, true
}

func (e *Extractor) extractFromOffers(page *models.RawPage, query models.PriceQuery) (*Extraction, bool) {
	offers, err := ParseOffers(page.JSON, query)
	if err != nil {
		e.logger.Error("Undecodable offer response [kind=upstream hotel=%s]: %v", query.PropertyID, err)
		return nil, false
	}
	price, ok := BestPrice(offers)
	if !ok {
		e.logger.Warn("API answered but carried no offers [kind=not_found hotel=%s]", query.PropertyID)
		return nil, false
	}
	e.logger.Info("Extracted price %s from %d OTA offers for %s", price, len(offers), query.PropertyID)
	return &Extraction{Price: price, Offers: offers}, true
}

// dumpDebugArtifact writes the raw content the strategy returned. A side
// channel for operators; failures here never affect the price contract.
func (e *Extractor) dumpDebugArtifact(page *models.RawPage) {
	name := "debug.html"
	content := []byte(page.HTML)
	if page.Kind == models.PageJSON {
		name = "debug.json"
		content = page.JSON
	}
	path := filepath.Join(e.debugDir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		e.logger.Warn("Could not write debug artifact %s: %v", path, err)
		return
	}
	e.logger.Info("Saved raw page content to %s", path)
}
