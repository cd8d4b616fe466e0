package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cx-tal-miterani/flight-storefront/internal/activities"
	"github.com/cx-tal-miterani/flight-storefront/internal/config"
	"github.com/cx-tal-miterani/flight-storefront/internal/database"
	"github.com/cx-tal-miterani/flight-storefront/internal/logging"
	"github.com/cx-tal-miterani/flight-storefront/internal/searchapi"
	"github.com/cx-tal-miterani/flight-storefront/internal/workflows"
	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	CommitSHA = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var migrate bool

	root := &cobra.Command{
		Use:          "storefront-worker",
		Short:        "Temporal worker running the booking workflow",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("migrate") {
				cfg.Migrate = migrate
			}
			return run(cfg)
		},
	}

	root.Flags().BoolVar(&migrate, "migrate", true, "run database migrations on startup")
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("storefront-worker %s (commit=%s)\n", Version, CommitSHA)
		},
	})
	return root
}

func run(cfg *config.Config) error {
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	var store activities.SeatStore
	if cfg.DatabaseURL != "" {
		logger.Info("Connecting to database...")
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.Migrate {
			if err := database.Migrate(ctx, pool, logger); err != nil {
				return err
			}
		}
		store = database.NewRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, seat holds are kept in memory")
		store = activities.NewMemoryInventory()
	}

	provider := searchapi.New(cfg.SearchAPIURL, cfg.SearchAPITimeout,
		searchapi.WithRateLimit(cfg.SearchAPIRPS),
		searchapi.WithLogger(logger))

	// Connect to Temporal
	logger.Info("Connecting to Temporal...", zap.String("host", cfg.TemporalHost))
	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
		Logger:   logging.NewTemporalLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Temporal: %w", err)
	}
	defer c.Close()

	// Create worker
	w := worker.New(c, cfg.TaskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(workflows.BookingWorkflow)

	// Create and register activities
	acts := activities.NewActivities(store, provider)
	w.RegisterActivityWithOptions(acts.HoldSeats, activity.RegisterOptions{Name: models.ActivityHoldSeats})
	w.RegisterActivityWithOptions(acts.BookWithProvider, activity.RegisterOptions{Name: models.ActivityBookWithProvider})
	w.RegisterActivityWithOptions(acts.ConfirmBooking, activity.RegisterOptions{Name: models.ActivityConfirmBooking})
	w.RegisterActivityWithOptions(acts.ReleaseSeats, activity.RegisterOptions{Name: models.ActivityReleaseSeats})

	// Start worker
	logger.Info("Starting Temporal worker...", zap.String("taskQueue", cfg.TaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}
	return nil
}
