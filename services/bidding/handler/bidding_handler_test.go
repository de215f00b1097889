package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/services/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter wires the handler behind a stub that plays the auth middleware
func newTestRouter(h *BiddingHandler, userID string) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(helpers.UserIDKey, userID)
		}
		c.Next()
	})
	router.POST("/products/:id/bid", h.PlaceBidHandler)
	router.GET("/products/:id/bids", h.GetBidsHandler)
	router.GET("/products/:id/bid/highest", h.GetHighestBidHandler)
	router.GET("/products/:id/suggest-price", h.SuggestPriceHandler)
	return router
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPlaceBidHandler(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	productID := uuid.NewString()

	tests := []struct {
		name           string
		userID         string
		requestBody    any
		mockSetup      func(m *MockBiddingServiceInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:        "success_valid_bid",
			userID:      "buyer1",
			requestBody: helpers.PlaceBidRequest{Amount: 100},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceBid(gomock.Any(), productID, "buyer1", 100.0).
					Return(model.Bid{
						ID:        uuid.NewString(),
						ProductID: productID,
						BidderID:  "buyer1",
						Amount:    100,
						CreatedAt: now,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid placed successfully",
			validateData: func(t *testing.T, data map[string]any) {
				_, parseErr := uuid.Parse(data["id"].(string))
				require.NoError(t, parseErr, "bid id should be a valid UUID")
				require.Equal(t, productID, data["product_id"])
				require.Equal(t, "buyer1", data["bidder_id"])
				require.Equal(t, 100.0, data["amount"])
				require.Equal(t, now.Format(time.RFC3339), data["created_at"])
			},
		},
		{
			name:           "unauthenticated",
			requestBody:    helpers.PlaceBidRequest{Amount: 100},
			mockSetup:      func(m *MockBiddingServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "not authorized",
		},
		{
			name:           "invalid_json",
			userID:         "buyer1",
			requestBody:    `{invalid json}`,
			mockSetup:      func(m *MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "invalid_amount_zero",
			userID:         "buyer1",
			requestBody:    helpers.PlaceBidRequest{Amount: 0},
			mockSetup:      func(m *MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "negative_amount",
			userID:         "buyer1",
			requestBody:    helpers.PlaceBidRequest{Amount: -10},
			mockSetup:      func(m *MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "auction_closed",
			userID:      "buyer1",
			requestBody: helpers.PlaceBidRequest{Amount: 50},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceBid(gomock.Any(), productID, "buyer1", 50.0).
					Return(model.Bid{}, fmt.Errorf("service: %w", biddingerrors.ErrAuctionClosed))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction closed",
		},
		{
			name:        "own_product",
			userID:      "seller1",
			requestBody: helpers.PlaceBidRequest{Amount: 50},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceBid(gomock.Any(), productID, "seller1", 50.0).
					Return(model.Bid{}, biddingerrors.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "your own product",
		},
		{
			name:        "product_not_found",
			userID:      "buyer1",
			requestBody: helpers.PlaceBidRequest{Amount: 50},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceBid(gomock.Any(), productID, "buyer1", 50.0).
					Return(model.Bid{}, biddingerrors.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "product not found",
		},
		{
			name:        "service_generic_error",
			userID:      "buyer1",
			requestBody: helpers.PlaceBidRequest{Amount: 100},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceBid(gomock.Any(), productID, "buyer1", 100.0).
					Return(model.Bid{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
		{
			name:        "extremely_large_amount",
			userID:      "buyer1",
			requestBody: helpers.PlaceBidRequest{Amount: 1e18},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceBid(gomock.Any(), productID, "buyer1", 1e18).
					Return(model.Bid{ID: uuid.NewString(), ProductID: productID, BidderID: "buyer1", Amount: 1e18, CreatedAt: now}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid placed successfully",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, 1e18, data["amount"])
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockBiddingServiceInterface(ctrl)
			tc.mockSetup(mockService)
			router := newTestRouter(NewBiddingHandler(mockService), tc.userID)

			var reqBody []byte
			switch v := tc.requestBody.(type) {
			case string:
				reqBody = []byte(v)
			default:
				var err error
				reqBody, err = json.Marshal(v)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/products/"+productID+"/bid", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			resp := decodeEnvelope(t, w)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil {
				tc.validateData(t, resp["data"].(map[string]any))
			}
		})
	}
}

func TestGetBidsHandler(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	tests := []struct {
		name           string
		productID      string
		mockSetup      func(m *MockBiddingServiceInterface)
		expectedStatus int
		expectedMsg    string
		expectedCount  int
	}{
		{
			name:      "success_ranked_bids",
			productID: "p1",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().GetBidsForProduct(gomock.Any(), "p1").Return([]model.Bid{
					{ID: "b2", ProductID: "p1", BidderID: "u2", Amount: 150, CreatedAt: now, Bidder: &model.User{ID: "u2", Name: "Bo", Email: "bo@example.com"}},
					{ID: "b1", ProductID: "p1", BidderID: "u1", Amount: 100, CreatedAt: now},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
			expectedCount:  2,
		},
		{
			name:      "no_bids",
			productID: "p2",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().GetBidsForProduct(gomock.Any(), "p2").Return([]model.Bid{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
		},
		{
			name:      "nil_slice",
			productID: "p3",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().GetBidsForProduct(gomock.Any(), "p3").Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
		},
		{
			name:      "service_generic_error",
			productID: "p4",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().GetBidsForProduct(gomock.Any(), "p4").Return(nil, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
		{
			name:      "extremely_large_number_of_bids",
			productID: "p5",
			mockSetup: func(m *MockBiddingServiceInterface) {
				bids := make([]model.Bid, 1000)
				for i := range bids {
					bids[i] = model.Bid{ID: uuid.NewString(), ProductID: "p5", BidderID: fmt.Sprintf("user%d", i), Amount: float64(1000 - i), CreatedAt: now}
				}
				m.EXPECT().GetBidsForProduct(gomock.Any(), "p5").Return(bids, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
			expectedCount:  1000,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockBiddingServiceInterface(ctrl)
			tc.mockSetup(mockService)
			router := newTestRouter(NewBiddingHandler(mockService), "")

			req := httptest.NewRequest(http.MethodGet, "/products/"+tc.productID+"/bids", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			resp := decodeEnvelope(t, w)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if w.Code == http.StatusOK {
				data, ok := resp["data"].([]any)
				require.True(t, ok, "data must be a JSON array, never null")
				require.Len(t, data, tc.expectedCount)
			}
		})
	}
}

func TestGetBidsHandler_ResolvesBidder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockService := NewMockBiddingServiceInterface(ctrl)
	mockService.EXPECT().GetBidsForProduct(gomock.Any(), "p1").Return([]model.Bid{
		{ID: "b1", ProductID: "p1", BidderID: "u1", Amount: 10, Bidder: &model.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Password: "hash"}},
	}, nil)

	w := httptest.NewRecorder()
	newTestRouter(NewBiddingHandler(mockService), "").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/p1/bids", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "hash")
	bidder := decodeEnvelope(t, w)["data"].([]any)[0].(map[string]any)["bidder"].(map[string]any)
	require.Equal(t, "Ann", bidder["name"])
	require.Equal(t, "ann@example.com", bidder["email"])
}

func TestGetHighestBidHandler(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	tests := []struct {
		name           string
		mockSetup      func(m *MockBiddingServiceInterface)
		expectedStatus int
		expectedMsg    string
		expectNull     bool
	}{
		{
			name: "success",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().GetHighestBid(gomock.Any(), "p1").
					Return(model.Bid{ID: "b1", ProductID: "p1", BidderID: "u1", Amount: 50, CreatedAt: now}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "highest bid retrieved successfully",
		},
		{
			name: "no_bids_is_null",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().GetHighestBid(gomock.Any(), "p1").
					Return(model.Bid{}, fmt.Errorf("service: %w", biddingerrors.ErrNoBids))
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "no bids found",
			expectNull:     true,
		},
		{
			name: "service_generic_error",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().GetHighestBid(gomock.Any(), "p1").Return(model.Bid{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockBiddingServiceInterface(ctrl)
			tc.mockSetup(mockService)
			router := newTestRouter(NewBiddingHandler(mockService), "")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/p1/bid/highest", nil))

			require.Equal(t, tc.expectedStatus, w.Code)
			resp := decodeEnvelope(t, w)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.expectNull {
				require.Contains(t, resp, "data")
				require.Nil(t, resp["data"])
				return
			}
			if w.Code == http.StatusOK {
				data := resp["data"].(map[string]any)
				require.Equal(t, "b1", data["id"])
				require.Equal(t, 50.0, data["amount"])
			}
		})
	}
}

func TestSuggestPriceHandler(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		mockService := NewMockBiddingServiceInterface(ctrl)
		mockService.EXPECT().GetSuggestedPrice(gomock.Any(), "p1").Return(110.0, nil)

		w := httptest.NewRecorder()
		newTestRouter(NewBiddingHandler(mockService), "").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/p1/suggest-price", nil))

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeEnvelope(t, w)["data"].(map[string]any)
		require.Equal(t, 110.0, data["suggested_price"])
	})

	t.Run("service_error", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		mockService := NewMockBiddingServiceInterface(ctrl)
		mockService.EXPECT().GetSuggestedPrice(gomock.Any(), "p1").Return(0.0, errors.New("database failure"))

		w := httptest.NewRecorder()
		newTestRouter(NewBiddingHandler(mockService), "").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/p1/suggest-price", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
