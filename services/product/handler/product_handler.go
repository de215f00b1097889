package handler

//go:generate mockgen -source=product_handler.go -destination=mock_product_handler.go -package=handler

import (
	"context"
	"net/http"

	auction "auction-marketplace/internal/auctionService"
	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/services/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, sellerID string, in auction.CreateProductInput) (model.Product, error)
	GetProductByID(ctx context.Context, productID string) (model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductsBySeller(ctx context.Context, sellerID string) ([]model.Product, error)
	UpdateProduct(ctx context.Context, productID, sellerID string, update model.ProductUpdate) (model.Product, error)
	DeleteProduct(ctx context.Context, productID, sellerID string) error
	GetStatus(ctx context.Context, productID string) (model.AuctionStatus, error)
}

type ProductHandler struct {
	service ProductServiceInterface
}

func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// CreateProductHandler handles POST /products
func (h *ProductHandler) CreateProductHandler(c *gin.Context) {
	sellerID, ok := helpers.CurrentUserID(c)
	if !ok {
		helpers.HandleServiceError(c, "CreateProductHandler", biddingerrors.ErrUnauthenticated, nil)
		return
	}

	var req helpers.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateProductHandler", err)
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), sellerID, auction.CreateProductInput{
		Title:       req.Title,
		Description: req.Description,
		Images:      req.Images,
		Price:       req.Price,
		EndTime:     req.EndTime,
	})
	if err != nil {
		helpers.HandleServiceError(c, "CreateProductHandler", err, map[string]any{"seller_id": sellerID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, product, "product created successfully")
	helpers.LogSuccess("CreateProductHandler", "product created successfully", map[string]any{
		"product_id": product.ID,
		"seller_id":  sellerID,
		"end_time":   product.EndTime,
	})
}

// ListProductsHandler handles GET /products
func (h *ProductHandler) ListProductsHandler(c *gin.Context) {
	products, err := h.service.GetAllProducts(c.Request.Context())
	if err != nil {
		helpers.HandleServiceError(c, "ListProductsHandler", err, nil)
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	utils.JSONResponse(c, http.StatusOK, products, "products retrieved successfully")
	helpers.LogSuccess("ListProductsHandler", "products retrieved successfully", map[string]any{"count": len(products)})
}

// MyProductsHandler handles GET /products/mine
func (h *ProductHandler) MyProductsHandler(c *gin.Context) {
	sellerID, ok := helpers.CurrentUserID(c)
	if !ok {
		helpers.HandleServiceError(c, "MyProductsHandler", biddingerrors.ErrUnauthenticated, nil)
		return
	}

	products, err := h.service.GetProductsBySeller(c.Request.Context(), sellerID)
	if err != nil {
		helpers.HandleServiceError(c, "MyProductsHandler", err, map[string]any{"seller_id": sellerID})
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	utils.JSONResponse(c, http.StatusOK, products, "products retrieved successfully")
	helpers.LogSuccess("MyProductsHandler", "products retrieved successfully", map[string]any{
		"seller_id": sellerID,
		"count":     len(products),
	})
}

// GetProductHandler handles GET /products/:id
func (h *ProductHandler) GetProductHandler(c *gin.Context) {
	productID := c.Param("id")
	product, err := h.service.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		helpers.HandleServiceError(c, "GetProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, product, "product retrieved successfully")
}

// UpdateProductHandler handles PUT /products/:id
func (h *ProductHandler) UpdateProductHandler(c *gin.Context) {
	productID := c.Param("id")
	sellerID, ok := helpers.CurrentUserID(c)
	if !ok {
		helpers.HandleServiceError(c, "UpdateProductHandler", biddingerrors.ErrUnauthenticated, nil)
		return
	}

	var req helpers.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateProductHandler", err)
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), productID, sellerID, req.ToUpdate())
	if err != nil {
		helpers.HandleServiceError(c, "UpdateProductHandler", err, map[string]any{
			"product_id": productID,
			"seller_id":  sellerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, product, "product updated successfully")
	helpers.LogSuccess("UpdateProductHandler", "product updated successfully", map[string]any{
		"product_id": productID,
		"seller_id":  sellerID,
	})
}

// DeleteProductHandler handles DELETE /products/:id
func (h *ProductHandler) DeleteProductHandler(c *gin.Context) {
	productID := c.Param("id")
	sellerID, ok := helpers.CurrentUserID(c)
	if !ok {
		helpers.HandleServiceError(c, "DeleteProductHandler", biddingerrors.ErrUnauthenticated, nil)
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), productID, sellerID); err != nil {
		helpers.HandleServiceError(c, "DeleteProductHandler", err, map[string]any{
			"product_id": productID,
			"seller_id":  sellerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "product deleted successfully")
	helpers.LogSuccess("DeleteProductHandler", "product deleted successfully", map[string]any{
		"product_id": productID,
		"seller_id":  sellerID,
	})
}

// StatusHandler handles GET /products/:id/status
func (h *ProductHandler) StatusHandler(c *gin.Context) {
	productID := c.Param("id")
	status, err := h.service.GetStatus(c.Request.Context(), productID)
	if err != nil {
		helpers.HandleServiceError(c, "StatusHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, status, "auction status retrieved successfully")
}
