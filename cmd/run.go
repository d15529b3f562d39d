package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"auctionhouse/api"
	"auctionhouse/config"
	"auctionhouse/database"
	"auctionhouse/events"
	"auctionhouse/repository"
	"auctionhouse/service"
	"auctionhouse/worker"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	setupLogging(cfg.LogLevel, cfg.LogFormat)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting auction house...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(), cfg.DatabaseMaxConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	registerAuditSubscribers(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	authService := service.NewAuthService(uowFactory, cfg)
	userService := service.NewUserService(uowFactory, cfg)
	lotService := service.NewLotService(uowFactory, cfg)
	bidService := service.NewBidService(uowFactory, cfg)
	settlementService := service.NewSettlementService(uowFactory, cfg)

	if !cfg.SellerPayoutEnabled {
		log.Warn("Seller payout disabled: reserved funds of sold lots are not credited to owners")
	}

	// Start background workers
	stopSettlement := worker.NewSettlementWorker(settlementService, cfg.SettlementInterval).Start(ctx)
	defer stopSettlement()
	stopPurge := worker.NewPurgeWorker(settlementService, cfg.PurgeHour).Start(ctx)
	defer stopPurge()

	router := api.SetupRouter(api.Services{
		Auth: authService,
		User: userService,
		Lot:  lotService,
		Bid:  bidService,
	})
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	log.Infof("Auction house is running in %s mode...", cfg.Environment)

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	log.Info("Shutting down auction house...")

	// Give in-flight requests time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down HTTP server: %v", err)
	}

	log.Info("Shutdown completed")
	return nil
}
