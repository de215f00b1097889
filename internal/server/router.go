package server

import (
	"net/http"

	"auction-marketplace/internal/metrics"
	authhandler "auction-marketplace/services/auth/handler"
	biddinghandler "auction-marketplace/services/bidding/handler"
	producthandler "auction-marketplace/services/product/handler"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Dependencies are the services the HTTP surface is built on
type Dependencies struct {
	Auth     authhandler.AuthServiceInterface
	Products producthandler.ProductServiceInterface
	Bidding  biddinghandler.BiddingServiceInterface
	Tokens   TokenVerifier
	Metrics  *metrics.Metrics
	// BidLimiter throttles bid placement; nil disables throttling
	BidLimiter *rate.Limiter
	// Ready reports whether the backing store is reachable; nil means always ready
	Ready func() error
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	if deps.Metrics != nil {
		router.Use(MetricsMiddleware(deps.Metrics))
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	router.GET("/health", func(c *gin.Context) {
		if deps.Ready != nil {
			if err := deps.Ready(); err != nil {
				utils.JSONError(c, http.StatusServiceUnavailable, err, "unhealthy")
				return
			}
		}
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
	})

	authHandler := authhandler.NewAuthHandler(deps.Auth)
	productHandler := producthandler.NewProductHandler(deps.Products)
	biddingHandler := biddinghandler.NewBiddingHandler(deps.Bidding)
	requireAuth := AuthMiddleware(deps.Tokens)

	auth := router.Group("/auth")
	{
		auth.POST("/register", authHandler.RegisterHandler)
		auth.POST("/login", authHandler.LoginHandler)
	}

	bidChain := []gin.HandlerFunc{requireAuth}
	if deps.BidLimiter != nil {
		bidChain = append(bidChain, RateLimitMiddleware(deps.BidLimiter))
	}
	bidChain = append(bidChain, biddingHandler.PlaceBidHandler)

	products := router.Group("/products")
	{
		products.GET("", productHandler.ListProductsHandler)
		products.POST("", requireAuth, productHandler.CreateProductHandler)
		products.GET("/mine", requireAuth, productHandler.MyProductsHandler)
		products.GET("/:id", productHandler.GetProductHandler)
		products.PUT("/:id", requireAuth, productHandler.UpdateProductHandler)
		products.DELETE("/:id", requireAuth, productHandler.DeleteProductHandler)
		products.GET("/:id/status", productHandler.StatusHandler)

		products.POST("/:id/bid", bidChain...)
		products.GET("/:id/bids", biddingHandler.GetBidsHandler)
		products.GET("/:id/bid/highest", biddingHandler.GetHighestBidHandler)
		products.GET("/:id/suggest-price", biddingHandler.SuggestPriceHandler)
	}

	return router
}
