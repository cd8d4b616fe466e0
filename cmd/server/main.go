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

	"github.com/cx-tal-miterani/flight-storefront/internal/config"
	"github.com/cx-tal-miterani/flight-storefront/internal/database"
	"github.com/cx-tal-miterani/flight-storefront/internal/handlers"
	"github.com/cx-tal-miterani/flight-storefront/internal/logging"
	"github.com/cx-tal-miterani/flight-storefront/internal/router"
	"github.com/cx-tal-miterani/flight-storefront/internal/searchapi"
	"github.com/cx-tal-miterani/flight-storefront/internal/service"
	"github.com/cx-tal-miterani/flight-storefront/internal/session"
	"github.com/cx-tal-miterani/flight-storefront/internal/websocket"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
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
		Use:          "storefront-server",
		Short:        "Flight storefront API: search, seat map, fare and booking",
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
			fmt.Printf("storefront-server %s (commit=%s)\n", Version, CommitSHA)
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Session store
	var store session.Store
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		rc, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rc.Close()
		store = session.NewRedisStore(rc, cfg.SessionTTL)
		logger.Info("Using Redis session store", zap.String("addr", cfg.RedisAddr))
	default:
		ms := session.NewMemoryStore(cfg.SessionTTL)
		go ms.RunSweeper(ctx, time.Minute)
		store = ms
		logger.Info("Using in-memory session store")
	}

	// Seat occupancy and finished bookings from storage
	var seats service.SeatReader
	var bookings service.BookingReader
	if cfg.DatabaseURL != "" {
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
		repo := database.NewRepository(pool)
		seats = repo
		bookings = repo
	} else {
		logger.Warn("DATABASE_URL not set, seat maps show demo occupancy only")
	}

	// Create Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
		Logger:   logging.NewTemporalLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}
	defer temporalClient.Close()

	searchClient := searchapi.New(cfg.SearchAPIURL, cfg.SearchAPITimeout,
		searchapi.WithRateLimit(cfg.SearchAPIRPS),
		searchapi.WithLogger(logger))

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// Initialize services
	bookingService := service.NewBookingService(service.Deps{
		SearchAPI:      searchClient,
		Seats:          seats,
		Bookings:       bookings,
		Notifier:       hub,
		TemporalClient: temporalClient,
		TaskQueue:      cfg.TaskQueue,
		Logger:         logger,
	})

	sessions := session.NewManager(store, cfg.CookieHashKey, cfg.CookieBlockKey, cfg.SessionTTL, cfg.IsProduction())
	h := handlers.NewHandler(bookingService, sessions, hub, logger)

	r := router.SetupRouter(h, logger, router.Options{
		RequestsPerMinute: cfg.MaxRequestsPerMin,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		TrustProxy:        cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Confirm waits for the booking workflow
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting",
			zap.String("addr", srv.Addr),
			zap.String("temporal", cfg.TemporalHost),
			zap.String("searchApi", cfg.SearchAPIURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
