package helpers

import (
	"time"

	model "auction-marketplace/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	ID        string      `json:"id"`
	ProductID string      `json:"product_id"`
	BidderID  string      `json:"bidder_id"`
	Bidder    *model.User `json:"bidder,omitempty"`
	Amount    float64     `json:"amount"`
	CreatedAt string      `json:"created_at"`
}

type SuggestedPriceResponse struct {
	SuggestedPrice float64 `json:"suggested_price"`
}

type CreateProductRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	EndTime     string   `json:"end_time" binding:"required"`
}

// UpdateProductRequest only carries the fields a seller may change; nil means untouched
type UpdateProductRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price" binding:"omitempty,gt=0"`
	Images      *[]string `json:"images"`
}

func (r UpdateProductRequest) ToUpdate() model.ProductUpdate {
	return model.ProductUpdate{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Images:      r.Images,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=buyer seller"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// NewBidResponse flattens a bid for the wire, timestamps in RFC 3339 UTC
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		ID:        bid.ID,
		ProductID: bid.ProductID,
		BidderID:  bid.BidderID,
		Bidder:    bid.Bidder,
		Amount:    bid.Amount,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidResponse(b))
	}
	return out
}
