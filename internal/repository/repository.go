package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
)

// AuctionDB defines the ledger interface for users, products and bids
type AuctionDB interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	CreateProduct(ctx context.Context, product model.Product) error
	GetProduct(ctx context.Context, productID string) (model.Product, error)
	// ListProducts returns every product when sellerID is empty, with sellers resolved
	ListProducts(ctx context.Context, sellerID string) ([]model.Product, error)
	UpdateProductForSeller(ctx context.Context, productID, sellerID string, update model.ProductUpdate) (model.Product, error)
	DeleteProductForSeller(ctx context.Context, productID, sellerID string) error

	RecordBidForProduct(ctx context.Context, bid model.Bid) error
	GetBidsByProduct(ctx context.Context, productID string) ([]model.Bid, error)
	GetHighestBid(ctx context.Context, productID string) (model.Bid, error)

	// ListSettleable returns at most limit products whose auction ended before now and
	// which the settlement sweep has not evaluated yet.
	ListSettleable(ctx context.Context, now time.Time, limit int) ([]model.Product, error)
	// SettleProduct closes one auction atomically and returns the settled product.
	SettleProduct(ctx context.Context, productID string, now time.Time) (model.Product, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu       sync.RWMutex
	users    map[string]model.User    // key: userID -> value: user
	emails   map[string]string        // key: email -> value: userID
	products map[string]model.Product // key: productID -> value: product
	bids     map[string][]model.Bid   // key: productID -> value: bids in insertion order
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:    make(map[string]model.User),
		emails:   make(map[string]string),
		products: make(map[string]model.Product),
		bids:     make(map[string][]model.Bid),
	}
}

// CreateUser stores a new user, rejecting duplicate emails
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.emails[user.Email]; taken {
		return fmt.Errorf("create user %s: %w", user.Email, biddingerrors.ErrEmailTaken)
	}
	r.users[user.ID] = user
	r.emails[user.Email] = user.ID
	return nil
}

// GetUserByEmail looks a user up by email
func (r *MemoryRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[email]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", email, biddingerrors.ErrNotFound)
	}
	return r.users[id], nil
}

// CreateProduct stores a new product
func (r *MemoryRepo) CreateProduct(_ context.Context, product model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		return fmt.Errorf("create product: %w - missing id", biddingerrors.ErrValidation)
	}
	r.products[product.ID] = cloneProduct(product)
	return nil
}

// GetProduct returns a single product
func (r *MemoryRepo) GetProduct(_ context.Context, productID string) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, biddingerrors.ErrNotFound)
	}
	return cloneProduct(p), nil
}

// ListProducts returns products newest first, optionally restricted to one seller
func (r *MemoryRepo) ListProducts(_ context.Context, sellerID string) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		if sellerID != "" && p.SellerID != sellerID {
			continue
		}
		p = cloneProduct(p)
		if seller, ok := r.users[p.SellerID]; ok {
			p.Seller = seller.SellerProfile()
		}
		products = append(products, p)
	}

	sort.Slice(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

// UpdateProductForSeller applies a partial update to a product owned by sellerID
func (r *MemoryRepo) UpdateProductForSeller(_ context.Context, productID, sellerID string, update model.ProductUpdate) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok || p.SellerID != sellerID {
		return model.Product{}, fmt.Errorf("update product %s: %w", productID, biddingerrors.ErrNotFoundOrForbidden)
	}

	if update.Title != nil {
		p.Title = *update.Title
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.Images != nil {
		p.Images = append([]string(nil), (*update.Images)...)
	}
	p.UpdatedAt = time.Now().UTC()

	r.products[productID] = p
	return cloneProduct(p), nil
}

// DeleteProductForSeller removes a product owned by sellerID. Bids are kept.
func (r *MemoryRepo) DeleteProductForSeller(_ context.Context, productID, sellerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok || p.SellerID != sellerID {
		return fmt.Errorf("delete product %s: %w", productID, biddingerrors.ErrNotFoundOrForbidden)
	}
	delete(r.products, productID)
	return nil
}

// RecordBidForProduct appends a bid to a product's ledger
func (r *MemoryRepo) RecordBidForProduct(_ context.Context, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[bid.ProductID]
	if !ok {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, biddingerrors.ErrNotFound)
	}
	if p.Status == model.StatusEnded {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, biddingerrors.ErrAuctionClosed)
	}
	bid.Bidder = nil
	r.bids[bid.ProductID] = append(r.bids[bid.ProductID], bid)
	return nil
}

// GetBidsByProduct returns all bids for a product, highest first, with bidders resolved
func (r *MemoryRepo) GetBidsByProduct(_ context.Context, productID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids := append([]model.Bid(nil), r.bids[productID]...)
	for i := range bids {
		if u, ok := r.users[bids[i].BidderID]; ok {
			bids[i].Bidder = u.BidderProfile()
		}
	}
	RankBids(bids)
	if bids == nil {
		bids = []model.Bid{}
	}
	return bids, nil
}

// GetHighestBid returns the highest bid for a product
func (r *MemoryRepo) GetHighestBid(_ context.Context, productID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	highest, ok := HighestBid(r.bids[productID])
	if !ok {
		return model.Bid{}, fmt.Errorf("get highest bid for product %s: %w", productID, biddingerrors.ErrNoBids)
	}
	if u, found := r.users[highest.BidderID]; found {
		highest.Bidder = u.BidderProfile()
	}
	return highest, nil
}

// ListSettleable returns ended, unsettled products ordered by end time
func (r *MemoryRepo) ListSettleable(_ context.Context, now time.Time, limit int) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []model.Product
	for _, p := range r.products {
		if p.Settlement == model.SettlementPending && p.EndTime.Before(now) {
			products = append(products, cloneProduct(p))
		}
	}

	sort.Slice(products, func(i, j int) bool {
		if !products[i].EndTime.Equal(products[j].EndTime) {
			return products[i].EndTime.Before(products[j].EndTime)
		}
		return products[i].ID < products[j].ID
	})
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

// SettleProduct reads the highest bid and writes the outcome under the write lock
func (r *MemoryRepo) SettleProduct(_ context.Context, productID string, now time.Time) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("settle product %s: %w", productID, biddingerrors.ErrNotFound)
	}
	if p.Settlement != model.SettlementPending {
		return cloneProduct(p), fmt.Errorf("settle product %s: %w", productID, biddingerrors.ErrAlreadySettled)
	}
	if !p.EndTime.Before(now) {
		return model.Product{}, fmt.Errorf("settle product %s: %w - auction still open", productID, biddingerrors.ErrValidation)
	}

	applySettlement(&p, r.bids[productID])
	p.UpdatedAt = now
	r.products[productID] = p
	return cloneProduct(p), nil
}

// AddUser stores a user directly. This method is intended for tests and seeding.
func (r *MemoryRepo) AddUser(user model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	r.emails[user.Email] = user.ID
}

// AddProduct stores a product directly. This method is intended for tests and seeding.
func (r *MemoryRepo) AddProduct(product model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = cloneProduct(product)
}

func cloneProduct(p model.Product) model.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	if p.WinnerID != nil {
		id := *p.WinnerID
		p.WinnerID = &id
	}
	p.Seller = nil
	p.Winner = nil
	return p
}
