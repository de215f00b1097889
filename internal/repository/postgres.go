package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepo is the PostgreSQL implementation of AuctionDB.
// IDs are uuid columns, so a malformed id is reported as a missing row.
type GormRepo struct {
	db *gorm.DB
}

// NewGormRepo wraps an open GORM connection
func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{db: db}
}

func sellerColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "role")
}

func bidderColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}

func (r *GormRepo) CreateUser(ctx context.Context, user model.User) error {
	err := r.db.WithContext(ctx).Create(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("create user %s: %w", user.Email, biddingerrors.ErrEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, fmt.Errorf("get user %s: %w", email, biddingerrors.ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", email, err)
	}
	return user, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, product model.Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&product).Error; err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *GormRepo) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	if !utils.IsValidID(productID) {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, biddingerrors.ErrNotFound)
	}

	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", productID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, biddingerrors.ErrNotFound)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, err)
	}
	return p, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, sellerID string) ([]model.Product, error) {
	products := []model.Product{}
	if sellerID != "" && !utils.IsValidID(sellerID) {
		return products, nil
	}

	q := r.db.WithContext(ctx).Preload("Seller", sellerColumns).Order("created_at DESC, id ASC")
	if sellerID != "" {
		q = q.Where("seller_id = ?", sellerID)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *GormRepo) UpdateProductForSeller(ctx context.Context, productID, sellerID string, update model.ProductUpdate) (model.Product, error) {
	if !utils.IsValidID(productID) || !utils.IsValidID(sellerID) {
		return model.Product{}, fmt.Errorf("update product %s: %w", productID, biddingerrors.ErrNotFoundOrForbidden)
	}

	var p model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND seller_id = ?", productID, sellerID).
			Take(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return biddingerrors.ErrNotFoundOrForbidden
		}
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if update.Title != nil {
			updates["title"] = *update.Title
		}
		if update.Description != nil {
			updates["description"] = *update.Description
		}
		if update.Price != nil {
			updates["price"] = *update.Price
		}
		if update.Images != nil {
			updates["images"] = datatypes.NewJSONSlice(*update.Images)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&p).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", productID).Take(&p).Error
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("update product %s: %w", productID, err)
	}
	return p, nil
}

func (r *GormRepo) DeleteProductForSeller(ctx context.Context, productID, sellerID string) error {
	if !utils.IsValidID(productID) || !utils.IsValidID(sellerID) {
		return fmt.Errorf("delete product %s: %w", productID, biddingerrors.ErrNotFoundOrForbidden)
	}

	res := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", productID, sellerID).
		Delete(&model.Product{})
	if res.Error != nil {
		return fmt.Errorf("delete product %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete product %s: %w", productID, biddingerrors.ErrNotFoundOrForbidden)
	}
	return nil
}

// RecordBidForProduct inserts a bid while holding a share lock on the product row,
// so it serializes against a concurrent settlement of the same product.
func (r *GormRepo) RecordBidForProduct(ctx context.Context, bid model.Bid) error {
	if !utils.IsValidID(bid.ProductID) {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, biddingerrors.ErrNotFound)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Product
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id", "status").
			Where("id = ?", bid.ProductID).
			Take(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return biddingerrors.ErrNotFound
		}
		if err != nil {
			return err
		}
		if p.Status == model.StatusEnded {
			return biddingerrors.ErrAuctionClosed
		}

		bid.Bidder = nil
		return tx.Omit(clause.Associations).Create(&bid).Error
	})
	if err != nil {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, err)
	}
	return nil
}

func (r *GormRepo) GetBidsByProduct(ctx context.Context, productID string) ([]model.Bid, error) {
	bids := []model.Bid{}
	if !utils.IsValidID(productID) {
		return bids, nil
	}

	err := r.db.WithContext(ctx).
		Preload("Bidder", bidderColumns).
		Where("product_id = ?", productID).
		Order("amount DESC, created_at ASC, id ASC").
		Find(&bids).Error
	if err != nil {
		return nil, fmt.Errorf("get bids for product %s: %w", productID, err)
	}
	return bids, nil
}

func (r *GormRepo) GetHighestBid(ctx context.Context, productID string) (model.Bid, error) {
	if !utils.IsValidID(productID) {
		return model.Bid{}, fmt.Errorf("get highest bid for product %s: %w", productID, biddingerrors.ErrNoBids)
	}

	bid, err := highestBid(r.db.WithContext(ctx).Preload("Bidder", bidderColumns), productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Bid{}, fmt.Errorf("get highest bid for product %s: %w", productID, biddingerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("get highest bid for product %s: %w", productID, err)
	}
	return bid, nil
}

func highestBid(db *gorm.DB, productID string) (model.Bid, error) {
	var bid model.Bid
	err := db.Where("product_id = ?", productID).
		Order("amount DESC, created_at ASC, id ASC").
		Limit(1).
		Take(&bid).Error
	return bid, err
}

func (r *GormRepo) ListSettleable(ctx context.Context, now time.Time, limit int) ([]model.Product, error) {
	products := []model.Product{}
	q := r.db.WithContext(ctx).
		Where("settlement = ? AND end_time < ?", model.SettlementPending, now).
		Order("end_time ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list settleable products: %w", err)
	}
	return products, nil
}

// SettleProduct locks the product row, re-checks eligibility, reads the highest bid
// and writes the outcome in one transaction.
func (r *GormRepo) SettleProduct(ctx context.Context, productID string, now time.Time) (model.Product, error) {
	if !utils.IsValidID(productID) {
		return model.Product{}, fmt.Errorf("settle product %s: %w", productID, biddingerrors.ErrNotFound)
	}

	var p model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", productID).Take(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return biddingerrors.ErrNotFound
		}
		if err != nil {
			return err
		}
		if p.Settlement != model.SettlementPending {
			return biddingerrors.ErrAlreadySettled
		}
		if !p.EndTime.Before(now) {
			return fmt.Errorf("%w - auction still open", biddingerrors.ErrValidation)
		}

		var bids []model.Bid
		top, err := highestBid(tx, productID)
		switch {
		case err == nil:
			bids = append(bids, top)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		applySettlement(&p, bids)
		p.UpdatedAt = now
		return tx.Model(&model.Product{}).Where("id = ?", productID).Updates(map[string]any{
			"status":     p.Status,
			"winner_id":  p.WinnerID,
			"settlement": p.Settlement,
			"updated_at": p.UpdatedAt,
		}).Error
	})
	if err != nil {
		return p, fmt.Errorf("settle product %s: %w", productID, err)
	}
	return p, nil
}
