package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/api"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/config"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/scraper/tripadvisor"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/services"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/storage"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	"github.com/spf13/cobra"
)

func main() {
	logger := utils.NewLogger()

	root := &cobra.Command{
		Use:          "tripadvisor-scraper",
		Short:        "Tripadvisor hotel price extraction service",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(logger), newScrapeCmd(logger), newScheduleCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// bootstrap loads config, connects storage and wires the scrape service.
// Configuration problems are fatal here, before anything starts serving.
func bootstrap(logger *utils.Logger) (*services.ScrapeService, *config.Config, *storage.PostgresWriter, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	store, err := storage.NewPostgresWriter(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cannot connect to PostgreSQL: %w", err)
	}

	strategy, err := buildStrategy(cfg, logger)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	logger.Info("Fetch strategy: %s", strategy.Name())

	extractor := tripadvisor.NewExtractor(strategy, logger, cfg.Debug)
	offers := storage.NewCSVWriter(cfg.OffersCSVPath, logger)
	svc := services.NewScrapeService(extractor, store, offers, logger)
	return svc, cfg, store, nil
}

// buildStrategy maps the configured strategy name to a fetcher.
func buildStrategy(cfg *config.Config, logger *utils.Logger) (tripadvisor.FetchStrategy, error) {
	switch cfg.FetchStrategy {
	case config.StrategyBrowser:
		return tripadvisor.NewBrowserRenderStrategy(cfg.TripadvisorURL, logger), nil
	case config.StrategyProxy:
		return tripadvisor.NewRenderingProxyStrategy(cfg.RenderProxyURL, cfg.RenderProxyKey, cfg.TripadvisorURL, logger), nil
	case config.StrategyAPI:
		harvester := tripadvisor.NewSessionHarvester(cfg.TripadvisorURL, logger)
		return tripadvisor.NewStructuredAPIStrategy(cfg.APIBaseURL, harvester, cfg.StrictSession, logger)
	default:
		return nil, fmt.Errorf("unknown fetch strategy %q", cfg.FetchStrategy)
	}
}

func newServeCmd(logger *utils.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP price service",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, store, err := bootstrap(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			server := api.NewServer(cfg.ListenAddr, svc,
				time.Duration(cfg.RateLimitCooldown)*time.Second, logger)

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-shutdown
				logger.Info("Shutting down...")
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				_ = server.Shutdown(ctx)
			}()

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

func newScrapeCmd(logger *utils.Logger) *cobra.Command {
	var (
		geoID    string
		hotelID  string
		checkin  string
		checkout string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one extraction and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			checkinDate, err := time.Parse("2006-01-02", checkin)
			if err != nil {
				return fmt.Errorf("invalid --checkin: %w", err)
			}
			checkoutDate, err := time.Parse("2006-01-02", checkout)
			if err != nil {
				return fmt.Errorf("invalid --checkout: %w", err)
			}

			query := models.PriceQuery{
				PropertyID: hotelID,
				LocationID: geoID,
				CheckIn:    checkinDate,
				CheckOut:   checkoutDate,
				Occupancy:  models.DefaultOccupancy(),
			}
			if err := query.Validate(); err != nil {
				return err
			}

			svc, _, store, err := bootstrap(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := svc.ScrapeAndStore(cmd.Context(), query)
			if err != nil {
				return err
			}
			services.PrintScrapeReport(query, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&geoID, "geo", "", "location id, e.g. g155032")
	cmd.Flags().StringVar(&hotelID, "hotel", "", "property id, e.g. d186688")
	cmd.Flags().StringVar(&checkin, "checkin", "", "check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&checkout, "checkout", "", "check-out date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("geo")
	_ = cmd.MarkFlagRequired("hotel")
	_ = cmd.MarkFlagRequired("checkin")
	_ = cmd.MarkFlagRequired("checkout")
	return cmd
}

func newScheduleCmd(logger *utils.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Price the configured hotels on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, store, err := bootstrap(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			scheduler := services.NewScheduler(svc, cfg.Hotels, cfg.ScheduleSpec, cfg.MaxRetries, logger)
			if err := scheduler.Start(); err != nil {
				return err
			}
			defer scheduler.Stop()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
			<-shutdown
			logger.Info("Stopping scheduler...")
			return nil
		},
	}
}
