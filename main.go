package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"auction-marketplace/internal/accessgate"
	auction "auction-marketplace/internal/auctionService"
	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/database"
	"auction-marketplace/internal/metrics"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/internal/settlement"
	"auction-marketplace/utils"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	utils.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.Fatal("server stopped with error", map[string]any{"error": err.Error()})
	}
	utils.Info("server stopped", nil)
}

func run(ctx context.Context, cfg *config.Config) error {
	repo, ready, err := openLedger(cfg)
	if err != nil {
		return err
	}

	m := metrics.New()
	tokens := accessgate.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	router := server.SetupRouter(server.Dependencies{
		Auth:       accessgate.NewService(repo, tokens),
		Products:   auction.NewAuctionService(repo, nil),
		Bidding:    bidding.NewBiddingService(repo, bidding.WithMetrics(m)),
		Tokens:     tokens,
		Metrics:    m,
		BidLimiter: rate.NewLimiter(rate.Limit(cfg.BidRateLimit), cfg.BidRateBurst),
		Ready:      ready,
	})

	job := settlement.NewJob(repo,
		settlement.WithInterval(cfg.Settlement.Interval),
		settlement.WithBatchSize(cfg.Settlement.BatchSize),
		settlement.WithWorkers(cfg.Settlement.Workers),
		settlement.WithMetrics(m),
	)

	srv := &http.Server{Addr: cfg.Addr(), Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		job.Run(gctx)
		return nil
	})
	g.Go(func() error {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		utils.Info("shutting down", map[string]any{"timeout": cfg.ShutdownTimeout.String()})
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openLedger picks PostgreSQL when DATABASE_URL is set and the in-memory ledger otherwise
func openLedger(cfg *config.Config) (repository.AuctionDB, func() error, error) {
	if !cfg.UsesDatabase() {
		utils.Warn("DATABASE_URL not set, using in-memory ledger", nil)
		return repository.NewMemoryRepo(), nil, nil
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, err
	}
	return repository.NewGormRepo(db), func() error { return database.Ping(db) }, nil
}
