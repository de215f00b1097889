package bidding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/metrics"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"

	"github.com/shopspring/decimal"
)

const defaultBasePrice = 100

var (
	openingMarkup = decimal.RequireFromString("1.1")
	minBoost      = decimal.RequireFromString("1.10")
	boostSpan     = decimal.RequireFromString("0.10")
)

// RandSource provides the noise for the suggested price boost.
// Float64 returns a value in [0, 1).
type RandSource interface {
	Float64() float64
}

type mathRandSource struct{}

func (mathRandSource) Float64() float64 { return rand.Float64() }

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	repo    repository.AuctionDB
	now     func() time.Time
	rand    RandSource
	metrics *metrics.Metrics
}

// Option customizes a BiddingService
type Option func(*BiddingService)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *BiddingService) { s.now = now }
}

// WithRandSource replaces the boost noise source
func WithRandSource(src RandSource) Option {
	return func(s *BiddingService) { s.rand = src }
}

// WithMetrics records accepted and rejected bids
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BiddingService) { s.metrics = m }
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo: repo,
		now:  time.Now,
		rand: mathRandSource{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceBid validates and records a user's bid for a product.
// Any positive amount is accepted; there is no minimum increment over the current highest bid.
func (s *BiddingService) PlaceBid(ctx context.Context, productID, bidderID string, amount float64) (models.Bid, error) {
	if err := s.validateBid(ctx, productID, bidderID, amount); err != nil {
		s.metrics.ObserveBid(rejectReason(err))
		return models.Bid{}, err
	}

	bid := models.Bid{
		ID:        utils.GenerateID(),
		ProductID: productID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.RecordBidForProduct(ctx, bid); err != nil {
		s.metrics.ObserveBid(rejectReason(err))
		return models.Bid{}, fmt.Errorf("service: failed to record bid for product %s by user %s: %w", productID, bidderID, err)
	}

	s.metrics.ObserveBid("")
	return bid, nil
}

// validateBid checks input validity and business rules for bidding
func (s *BiddingService) validateBid(ctx context.Context, productID, bidderID string, amount float64) error {
	if productID == "" || bidderID == "" {
		return fmt.Errorf("service: %w - missing productID or bidderID", biddingerrors.ErrValidation)
	}
	if !(amount > 0) || math.IsInf(amount, 1) {
		return fmt.Errorf("service: %w - bid amount must be greater than zero", biddingerrors.ErrValidation)
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("service: failed to load product %s: %w", productID, err)
	}
	if product.SellerID == bidderID {
		return fmt.Errorf("service: %w - you cannot bid on your own product", biddingerrors.ErrForbidden)
	}
	if !product.IsOpen(s.now()) {
		return fmt.Errorf("service: %w - ended at %s", biddingerrors.ErrAuctionClosed, product.EndTime.UTC().Format(time.RFC3339))
	}
	return nil
}

// GetBidsForProduct returns all bids for a product, highest first
func (s *BiddingService) GetBidsForProduct(ctx context.Context, productID string) ([]models.Bid, error) {
	if productID == "" {
		return nil, fmt.Errorf("service: %w - empty product ID", biddingerrors.ErrValidation)
	}

	bids, err := s.repo.GetBidsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for product %s: %w", productID, err)
	}
	repository.RankBids(bids)
	return bids, nil
}

// GetHighestBid returns the highest bid for a product; equal amounts go to the earliest bid
func (s *BiddingService) GetHighestBid(ctx context.Context, productID string) (models.Bid, error) {
	if productID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty product ID", biddingerrors.ErrValidation)
	}

	highest, err := s.repo.GetHighestBid(ctx, productID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get highest bid for product %s: %w", productID, err)
	}
	return highest, nil
}

// GetSuggestedPrice is a heuristic: 10% over the listed price before any bid,
// afterwards the mean bid boosted by a random 10-20%.
func (s *BiddingService) GetSuggestedPrice(ctx context.Context, productID string) (float64, error) {
	if productID == "" {
		return 0, fmt.Errorf("service: %w - empty product ID", biddingerrors.ErrValidation)
	}

	base := decimal.NewFromInt(defaultBasePrice)
	product, err := s.repo.GetProduct(ctx, productID)
	switch {
	case err == nil && product.Price > 0:
		base = decimal.NewFromFloat(product.Price)
	case err != nil && !errors.Is(err, biddingerrors.ErrNotFound):
		return 0, fmt.Errorf("service: failed to load product %s: %w", productID, err)
	}

	bids, err := s.repo.GetBidsByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("service: failed to get bids for product %s: %w", productID, err)
	}

	if len(bids) == 0 {
		return base.Mul(openingMarkup).Round(0).InexactFloat64(), nil
	}

	total := decimal.Zero
	for _, b := range bids {
		total = total.Add(decimal.NewFromFloat(b.Amount))
	}
	mean := total.Div(decimal.NewFromInt(int64(len(bids))))
	boost := minBoost.Add(boostSpan.Mul(decimal.NewFromFloat(s.rand.Float64())))

	return mean.Mul(boost).Round(0).InexactFloat64(), nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, biddingerrors.ErrValidation):
		return "validation"
	case errors.Is(err, biddingerrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, biddingerrors.ErrForbidden):
		return "forbidden"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return "closed"
	default:
		return "error"
	}
}
