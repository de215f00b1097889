// Package settlement runs the periodic sweep that closes expired auctions.
package settlement

import (
	"context"
	"errors"
	"sync"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/metrics"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval  = time.Minute
	DefaultBatchSize = 500
	DefaultWorkers   = 4
)

// Summary counts what one sweep did
type Summary struct {
	Scanned int
	Won     int
	NoBids  int
	Skipped int
	Failed  int
}

// Job settles products whose auction has ended
type Job struct {
	repo      repository.AuctionDB
	interval  time.Duration
	batchSize int
	workers   int
	now       func() time.Time
	metrics   *metrics.Metrics
}

// Option customizes a Job
type Option func(*Job)

// WithInterval sets the time between sweeps
func WithInterval(d time.Duration) Option {
	return func(j *Job) { j.interval = d }
}

// WithBatchSize caps how many products one sweep evaluates
func WithBatchSize(n int) Option {
	return func(j *Job) { j.batchSize = n }
}

// WithWorkers caps how many products are settled concurrently
func WithWorkers(n int) Option {
	return func(j *Job) { j.workers = n }
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(j *Job) { j.now = now }
}

// WithMetrics records settlement outcomes and sweep duration
func WithMetrics(m *metrics.Metrics) Option {
	return func(j *Job) { j.metrics = m }
}

// NewJob creates a settlement job over the ledger
func NewJob(repo repository.AuctionDB, opts ...Option) *Job {
	j := &Job{
		repo:      repo,
		interval:  DefaultInterval,
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.interval <= 0 {
		j.interval = DefaultInterval
	}
	if j.batchSize <= 0 {
		j.batchSize = DefaultBatchSize
	}
	if j.workers <= 0 {
		j.workers = DefaultWorkers
	}
	return j
}

// Run sweeps once immediately and then on every tick until ctx is cancelled
func (j *Job) Run(ctx context.Context) {
	utils.Info("settlement job started", map[string]any{"interval": j.interval.String()})
	j.RunOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.Info("settlement job stopped", nil)
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce settles every eligible product of one bounded batch.
// A failure on one product is logged and does not stop the others.
func (j *Job) RunOnce(ctx context.Context) Summary {
	start := time.Now()
	now := j.now().UTC()

	products, err := j.repo.ListSettleable(ctx, now, j.batchSize)
	if err != nil {
		utils.Error("settlement: failed to list ended auctions", map[string]any{"error": err.Error()})
		return Summary{}
	}
	if len(products) == 0 {
		utils.Debug("settlement: no ended auctions without winner", nil)
		return Summary{}
	}

	var (
		mu      sync.Mutex
		summary = Summary{Scanned: len(products)}
	)
	record := func(outcome string) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case "won":
			summary.Won++
		case "no_bids":
			summary.NoBids++
		case "skipped":
			summary.Skipped++
		default:
			summary.Failed++
		}
		j.metrics.ObserveSettlement(outcome)
	}

	var g errgroup.Group
	g.SetLimit(j.workers)
	for _, p := range products {
		p := p
		g.Go(func() error {
			record(j.settle(ctx, p, now))
			return nil
		})
	}
	_ = g.Wait()

	if j.metrics != nil {
		j.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}
	utils.Info("settlement: sweep finished", map[string]any{
		"scanned": summary.Scanned,
		"won":     summary.Won,
		"no_bids": summary.NoBids,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	})
	return summary
}

func (j *Job) settle(ctx context.Context, p models.Product, now time.Time) string {
	if err := ctx.Err(); err != nil {
		return "failed"
	}

	settled, err := j.repo.SettleProduct(ctx, p.ID, now)
	switch {
	case errors.Is(err, biddingerrors.ErrAlreadySettled):
		utils.Debug("settlement: product already settled", map[string]any{"product_id": p.ID})
		return "skipped"
	case err != nil:
		utils.Error("settlement: failed to settle product", map[string]any{
			"product_id": p.ID,
			"title":      p.Title,
			"error":      err.Error(),
		})
		return "failed"
	}

	if settled.WinnerID == nil {
		utils.Warn("settlement: auction ended with no bids", map[string]any{
			"product_id": p.ID,
			"title":      p.Title,
		})
		return "no_bids"
	}
	utils.Info("settlement: winner declared", map[string]any{
		"product_id": p.ID,
		"title":      p.Title,
		"winner_id":  *settled.WinnerID,
	})
	return "won"
}
