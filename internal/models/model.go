package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role is advisory; nothing in the core gates capabilities on it
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// ProductStatus is the persisted auction status
type ProductStatus string

const (
	StatusActive ProductStatus = "active"
	StatusEnded  ProductStatus = "ended"
)

// SettlementState records whether the settlement sweep has evaluated a product,
// independently of whether a winner was found.
type SettlementState string

const (
	SettlementPending    SettlementState = "pending"
	SettlementWithWinner SettlementState = "settled_with_winner"
	SettlementNoBids     SettlementState = "settled_no_bids"
)

// User represents a participant in the marketplace
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      Role      `gorm:"size:20;not null;default:'buyer'" json:"role,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Product represents an auction listing
type Product struct {
	ID          string                      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string                      `gorm:"size:255;not null" json:"title"`
	Description string                      `json:"description,omitempty"`
	Price       float64                     `gorm:"not null" json:"price"`
	Images      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"images,omitempty"`
	SellerID    string                      `gorm:"type:uuid;not null;index" json:"seller_id"`
	Seller      *User                       `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	EndTime     time.Time                   `gorm:"not null;index:idx_products_settle,priority:2" json:"end_time"`
	Status      ProductStatus               `gorm:"size:20;not null;default:'active'" json:"status"`
	WinnerID    *string                     `gorm:"type:uuid" json:"winner_id"`
	Winner      *User                       `gorm:"foreignKey:WinnerID" json:"-"`
	Settlement  SettlementState             `gorm:"size:32;not null;default:'pending';index:idx_products_settle,priority:1" json:"settlement"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// ProductUpdate carries the seller-editable fields; nil means unchanged
type ProductUpdate struct {
	Title       *string
	Description *string
	Price       *float64
	Images      *[]string
}

// Bid represents a user's bid on a product. Bids are append-only.
type Bid struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	ProductID string    `gorm:"type:uuid;not null;index" json:"product_id"`
	BidderID  string    `gorm:"type:uuid;not null;index" json:"bidder_id"`
	Bidder    *User     `gorm:"foreignKey:BidderID" json:"bidder,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// AuctionStatus is the read-time view of a product's bidding window
type AuctionStatus struct {
	ProductID string `json:"product_id"`
	Status    string `json:"status"`
	TimeLeft  string `json:"time_left"`
}

// IsOpen reports whether bids are still accepted at now
func (p Product) IsOpen(now time.Time) bool {
	return now.Before(p.EndTime)
}

// SellerProfile keeps the fields shown next to a listing
func (u User) SellerProfile() *User {
	return &User{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// BidderProfile keeps the fields shown next to a bid
func (u User) BidderProfile() *User {
	return &User{ID: u.ID, Name: u.Name, Email: u.Email}
}
