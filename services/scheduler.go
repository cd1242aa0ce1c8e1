package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/config"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	"github.com/robfig/cron/v3"
)

// leadDays is how far ahead the scheduled job prices each stay.
const leadDays = 30

// Scheduler prices every configured hotel on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	service *ScrapeService
	hotels  []config.Hotel
	spec    string
	retries int
	logger  *utils.Logger
}

// NewScheduler builds the cron wrapper; Start arms it.
func NewScheduler(service *ScrapeService, hotels []config.Hotel, spec string, retries int, logger *utils.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		service: service,
		hotels:  hotels,
		spec:    spec,
		retries: retries,
		logger:  logger,
	}
}

// Start registers the job and starts the cron loop in the background.
func (s *Scheduler) Start() error {
	if len(s.hotels) == 0 {
		return fmt.Errorf("no hotels configured for the scheduled scrape (set SCRAPE_HOTELS)")
	}
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("Scheduler armed: %d hotels on %q", len(s.hotels), s.spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce prices every configured hotel for a one-night stay leadDays out.
// Hotels are processed sequentially; one failing hotel never aborts the rest.
func (s *Scheduler) RunOnce() {
	checkin := time.Now().AddDate(0, 0, leadDays).Truncate(24 * time.Hour)
	checkout := checkin.AddDate(0, 0, 1)

	for _, hotel := range s.hotels {
		query := models.PriceQuery{
			PropertyID: hotel.PropertyID,
			LocationID: hotel.LocationID,
			CheckIn:    checkin,
			CheckOut:   checkout,
			Occupancy:  models.DefaultOccupancy(),
		}

		err := utils.RetryWithBackoff(s.retries, func() error {
			result, err := s.service.ScrapeAndStore(context.Background(), query)
			if err != nil {
				return err
			}
			if !result.Found {
				return fmt.Errorf("no price found for %s", hotel.PropertyID)
			}
			return nil
		}, s.logger)
		if err != nil {
			s.logger.Error("Scheduled scrape gave up on %s: %v", hotel.PropertyID, err)
		}
	}
}
