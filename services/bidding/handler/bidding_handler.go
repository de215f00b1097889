package handler

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_handler.go -package=handler

import (
	"context"
	"errors"
	"net/http"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/services/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, productID, bidderID string, amount float64) (model.Bid, error)
	GetBidsForProduct(ctx context.Context, productID string) ([]model.Bid, error)
	GetHighestBid(ctx context.Context, productID string) (model.Bid, error)
	GetSuggestedPrice(ctx context.Context, productID string) (float64, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// PlaceBidHandler handles POST /products/:id/bid
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	productID := c.Param("id")
	bidderID, ok := helpers.CurrentUserID(c)
	if !ok {
		helpers.HandleServiceError(c, "PlaceBidHandler", biddingerrors.ErrUnauthenticated, nil)
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), productID, bidderID, req.Amount)
	if err != nil {
		helpers.HandleServiceError(c, "PlaceBidHandler", err, map[string]any{
			"product_id": productID,
			"bidder_id":  bidderID,
			"amount":     req.Amount,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.ID,
		"product_id": bid.ProductID,
		"bidder_id":  bidderID,
		"amount":     bid.Amount,
	})
}

// GetBidsHandler handles GET /products/:id/bids
func (h *BiddingHandler) GetBidsHandler(c *gin.Context) {
	productID := c.Param("id")
	bids, err := h.service.GetBidsForProduct(c.Request.Context(), productID)
	if err != nil && !errors.Is(err, biddingerrors.ErrNoBids) {
		helpers.HandleServiceError(c, "GetBidsHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsHandler", "bids retrieved successfully", map[string]any{
		"product_id": productID,
		"count":      len(bids),
	})
}

// GetHighestBidHandler handles GET /products/:id/bid/highest; no bids yet is a 200 with null data
func (h *BiddingHandler) GetHighestBidHandler(c *gin.Context) {
	productID := c.Param("id")
	bid, err := h.service.GetHighestBid(c.Request.Context(), productID)
	if errors.Is(err, biddingerrors.ErrNoBids) {
		utils.JSONResponse(c, http.StatusOK, nil, "no bids found for product")
		utils.Info("GetHighestBidHandler: no bids yet", map[string]any{"product_id": productID})
		return
	}
	if err != nil {
		helpers.HandleServiceError(c, "GetHighestBidHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "highest bid retrieved successfully")
	helpers.LogSuccess("GetHighestBidHandler", "highest bid retrieved successfully", map[string]any{
		"bid_id":     bid.ID,
		"product_id": productID,
		"amount":     bid.Amount,
	})
}

// SuggestPriceHandler handles GET /products/:id/suggest-price
func (h *BiddingHandler) SuggestPriceHandler(c *gin.Context) {
	productID := c.Param("id")
	price, err := h.service.GetSuggestedPrice(c.Request.Context(), productID)
	if err != nil {
		helpers.HandleServiceError(c, "SuggestPriceHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.SuggestedPriceResponse{SuggestedPrice: price}, "suggested price computed")
	helpers.LogSuccess("SuggestPriceHandler", "suggested price computed", map[string]any{
		"product_id":      productID,
		"suggested_price": price,
	})
}
