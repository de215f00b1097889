package auction

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"
)

const (
	statusOpen   = "open"
	statusClosed = "closed"
	endedNotice  = "Auction ended"
)

// CreateProductInput is what a seller submits to list a product
type CreateProductInput struct {
	Title       string
	Description string
	Images      []string
	Price       float64
	EndTime     string // RFC 3339
}

// AuctionService owns the product lifecycle
type AuctionService struct {
	repo repository.AuctionDB
	now  func() time.Time
}

// NewAuctionService creates a new AuctionService; now defaults to time.Now
func NewAuctionService(repo repository.AuctionDB, now func() time.Time) *AuctionService {
	if now == nil {
		now = time.Now
	}
	return &AuctionService{repo: repo, now: now}
}

// CreateProduct lists a new product for auction, open until EndTime
func (s *AuctionService) CreateProduct(ctx context.Context, sellerID string, in CreateProductInput) (models.Product, error) {
	if sellerID == "" {
		return models.Product{}, fmt.Errorf("service: %w - missing seller", biddingerrors.ErrValidation)
	}
	if strings.TrimSpace(in.EndTime) == "" {
		return models.Product{}, fmt.Errorf("service: %w - endTime is required", biddingerrors.ErrValidation)
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Product{}, fmt.Errorf("service: %w - title is required", biddingerrors.ErrValidation)
	}
	if err := validatePrice(in.Price); err != nil {
		return models.Product{}, err
	}
	endTime, err := time.Parse(time.RFC3339, strings.TrimSpace(in.EndTime))
	if err != nil {
		return models.Product{}, fmt.Errorf("service: %w - endTime must be an RFC 3339 timestamp", biddingerrors.ErrValidation)
	}

	now := s.now().UTC()
	product := models.Product{
		ID:          utils.GenerateID(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Images:      append([]string(nil), in.Images...),
		Price:       in.Price,
		SellerID:    sellerID,
		EndTime:     endTime.UTC(),
		Status:      models.StatusActive,
		Settlement:  models.SettlementPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return models.Product{}, fmt.Errorf("service: failed to create product for seller %s: %w", sellerID, err)
	}
	return product, nil
}

// GetProductByID returns a product without resolving its seller
func (s *AuctionService) GetProductByID(ctx context.Context, productID string) (models.Product, error) {
	if productID == "" {
		return models.Product{}, fmt.Errorf("service: %w - empty product ID", biddingerrors.ErrValidation)
	}
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return models.Product{}, fmt.Errorf("service: failed to get product %s: %w", productID, err)
	}
	return p, nil
}

// GetAllProducts lists every product with its seller
func (s *AuctionService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

// GetProductsBySeller lists one seller's products with the seller resolved
func (s *AuctionService) GetProductsBySeller(ctx context.Context, sellerID string) ([]models.Product, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("service: %w - empty seller ID", biddingerrors.ErrValidation)
	}
	products, err := s.repo.ListProducts(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list products for seller %s: %w", sellerID, err)
	}
	return products, nil
}

// UpdateProduct applies the provided fields to a product the seller owns.
// A missing product and a foreign one fail the same way.
func (s *AuctionService) UpdateProduct(ctx context.Context, productID, sellerID string, update models.ProductUpdate) (models.Product, error) {
	if productID == "" || sellerID == "" {
		return models.Product{}, fmt.Errorf("service: update product %q: %w", productID, biddingerrors.ErrNotFoundOrForbidden)
	}
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Product{}, fmt.Errorf("service: %w - title must not be empty", biddingerrors.ErrValidation)
		}
		update.Title = &title
	}
	if update.Price != nil {
		if err := validatePrice(*update.Price); err != nil {
			return models.Product{}, err
		}
	}

	p, err := s.repo.UpdateProductForSeller(ctx, productID, sellerID, update)
	if err != nil {
		return models.Product{}, fmt.Errorf("service: failed to update product %s: %w", productID, err)
	}
	return p, nil
}

// DeleteProduct removes a product the seller owns; its bids are left in the ledger
func (s *AuctionService) DeleteProduct(ctx context.Context, productID, sellerID string) error {
	if productID == "" || sellerID == "" {
		return fmt.Errorf("service: delete product %q: %w", productID, biddingerrors.ErrNotFoundOrForbidden)
	}
	if err := s.repo.DeleteProductForSeller(ctx, productID, sellerID); err != nil {
		return fmt.Errorf("service: failed to delete product %s: %w", productID, err)
	}
	return nil
}

// GetStatus derives open/closed from EndTime at read time; it never writes
func (s *AuctionService) GetStatus(ctx context.Context, productID string) (models.AuctionStatus, error) {
	p, err := s.GetProductByID(ctx, productID)
	if err != nil {
		return models.AuctionStatus{}, err
	}
	return statusAt(p, s.now()), nil
}

func statusAt(p models.Product, now time.Time) models.AuctionStatus {
	if now.After(p.EndTime) {
		return models.AuctionStatus{ProductID: p.ID, Status: statusClosed, TimeLeft: endedNotice}
	}
	minutes := int64(math.Ceil(p.EndTime.Sub(now).Minutes()))
	return models.AuctionStatus{
		ProductID: p.ID,
		Status:    statusOpen,
		TimeLeft:  fmt.Sprintf("%d minutes left", minutes),
	}
}

func validatePrice(price float64) error {
	if !(price > 0) || math.IsInf(price, 1) {
		return fmt.Errorf("service: %w - price must be greater than zero", biddingerrors.ErrValidation)
	}
	return nil
}
