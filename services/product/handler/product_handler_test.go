package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-marketplace/internal/auctionService"
	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/services/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(h *ProductHandler, userID string) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(helpers.UserIDKey, userID)
		}
		c.Next()
	})
	router.POST("/products", h.CreateProductHandler)
	router.GET("/products", h.ListProductsHandler)
	router.GET("/products/mine", h.MyProductsHandler)
	router.GET("/products/:id", h.GetProductHandler)
	router.PUT("/products/:id", h.UpdateProductHandler)
	router.DELETE("/products/:id", h.DeleteProductHandler)
	router.GET("/products/:id/status", h.StatusHandler)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateProductHandler(t *testing.T) {
	t.Parallel()

	endTime := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	tests := []struct {
		name           string
		userID         string
		requestBody    any
		mockSetup      func(m *MockProductServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:   "success",
			userID: "seller1",
			requestBody: helpers.CreateProductRequest{
				Title:   "Lamp",
				Price:   40,
				EndTime: endTime.Format(time.RFC3339),
				Images:  []string{"a.png"},
			},
			mockSetup: func(m *MockProductServiceInterface) {
				m.EXPECT().CreateProduct(gomock.Any(), "seller1", auction.CreateProductInput{
					Title:   "Lamp",
					Price:   40,
					EndTime: endTime.Format(time.RFC3339),
					Images:  []string{"a.png"},
				}).Return(model.Product{ID: "p1", Title: "Lamp", Price: 40, SellerID: "seller1", EndTime: endTime, Status: model.StatusActive}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "product created successfully",
		},
		{
			name:           "unauthenticated",
			requestBody:    helpers.CreateProductRequest{Title: "Lamp", Price: 40, EndTime: endTime.Format(time.RFC3339)},
			mockSetup:      func(m *MockProductServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "not authorized",
		},
		{
			name:           "missing_end_time",
			userID:         "seller1",
			requestBody:    helpers.CreateProductRequest{Title: "Lamp", Price: 40},
			mockSetup:      func(m *MockProductServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "invalid_json",
			userID:         "seller1",
			requestBody:    `{"title":`,
			mockSetup:      func(m *MockProductServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "service_validation_error",
			userID:      "seller1",
			requestBody: helpers.CreateProductRequest{Title: "Lamp", Price: 40, EndTime: "tomorrow"},
			mockSetup: func(m *MockProductServiceInterface) {
				m.EXPECT().CreateProduct(gomock.Any(), "seller1", gomock.Any()).
					Return(model.Product{}, biddingerrors.ErrValidation)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockProductServiceInterface(ctrl)
			tc.mockSetup(mockService)

			w := doJSON(newTestRouter(NewProductHandler(mockService), tc.userID), http.MethodPost, "/products", tc.requestBody)

			require.Equal(t, tc.expectedStatus, w.Code)
			resp := decodeEnvelope(t, w)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if w.Code == http.StatusCreated {
				data := resp["data"].(map[string]any)
				require.Equal(t, "p1", data["id"])
				require.Equal(t, "active", data["status"])
			}
		})
	}
}

func TestListProductsHandlers(t *testing.T) {
	t.Parallel()

	seller := &model.User{ID: "seller1", Name: "Sam", Email: "sam@example.com", Role: model.RoleSeller}

	t.Run("all_products_with_seller", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		mockService := NewMockProductServiceInterface(ctrl)
		mockService.EXPECT().GetAllProducts(gomock.Any()).Return([]model.Product{{ID: "p1", SellerID: "seller1", Seller: seller}}, nil)

		w := doJSON(newTestRouter(NewProductHandler(mockService), ""), http.MethodGet, "/products", nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeEnvelope(t, w)["data"].([]any)
		require.Len(t, data, 1)
		embedded := data[0].(map[string]any)["seller"].(map[string]any)
		require.Equal(t, "Sam", embedded["name"])
		require.Equal(t, "seller", embedded["role"])
	})

	t.Run("empty_list_is_array", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		mockService := NewMockProductServiceInterface(ctrl)
		mockService.EXPECT().GetAllProducts(gomock.Any()).Return(nil, nil)

		w := doJSON(newTestRouter(NewProductHandler(mockService), ""), http.MethodGet, "/products", nil)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, []any{}, decodeEnvelope(t, w)["data"])
	})

	t.Run("mine_requires_auth", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		w := doJSON(newTestRouter(NewProductHandler(NewMockProductServiceInterface(ctrl)), ""), http.MethodGet, "/products/mine", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("mine_uses_caller", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		mockService := NewMockProductServiceInterface(ctrl)
		mockService.EXPECT().GetProductsBySeller(gomock.Any(), "seller1").Return([]model.Product{{ID: "p1"}, {ID: "p2"}}, nil)

		w := doJSON(newTestRouter(NewProductHandler(mockService), "seller1"), http.MethodGet, "/products/mine", nil)

		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, decodeEnvelope(t, w)["data"], 2)
	})

	t.Run("list_failure", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		mockService := NewMockProductServiceInterface(ctrl)
		mockService.EXPECT().GetAllProducts(gomock.Any()).Return(nil, errors.New("database failure"))

		w := doJSON(newTestRouter(NewProductHandler(mockService), ""), http.MethodGet, "/products", nil)
		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGetProductHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "found", expectedStatus: http.StatusOK},
		{name: "not_found", err: biddingerrors.ErrNotFound, expectedStatus: http.StatusNotFound},
		{name: "failure", err: errors.New("database failure"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockProductServiceInterface(ctrl)
			mockService.EXPECT().GetProductByID(gomock.Any(), "p1").Return(model.Product{ID: "p1"}, tc.err)

			w := doJSON(newTestRouter(NewProductHandler(mockService), ""), http.MethodGet, "/products/p1", nil)
			require.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

func TestUpdateProductHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		userID         string
		requestBody    any
		mockSetup      func(m *MockProductServiceInterface)
		expectedStatus int
	}{
		{
			name:        "partial_update",
			userID:      "seller1",
			requestBody: map[string]any{"price": 120},
			mockSetup: func(m *MockProductServiceInterface) {
				m.EXPECT().UpdateProduct(gomock.Any(), "p1", "seller1", gomock.Any()).
					DoAndReturn(func(_ context.Context, _, _ string, update model.ProductUpdate) (model.Product, error) {
						if update.Title != nil || update.Description != nil || update.Images != nil {
							return model.Product{}, errors.New("unexpected field in update")
						}
						return model.Product{ID: "p1", Price: *update.Price}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "foreign_or_missing_product",
			userID:      "seller2",
			requestBody: map[string]any{"title": "Mine now"},
			mockSetup: func(m *MockProductServiceInterface) {
				m.EXPECT().UpdateProduct(gomock.Any(), "p1", "seller2", gomock.Any()).
					Return(model.Product{}, biddingerrors.ErrNotFoundOrForbidden)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "negative_price",
			userID:         "seller1",
			requestBody:    map[string]any{"price": -3},
			mockSetup:      func(m *MockProductServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unauthenticated",
			requestBody:    map[string]any{"price": 3},
			mockSetup:      func(m *MockProductServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockProductServiceInterface(ctrl)
			tc.mockSetup(mockService)

			w := doJSON(newTestRouter(NewProductHandler(mockService), tc.userID), http.MethodPut, "/products/p1", tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

func TestDeleteProductHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		userID         string
		err            error
		callsService   bool
		expectedStatus int
	}{
		{name: "owner", userID: "seller1", callsService: true, expectedStatus: http.StatusOK},
		{name: "non_owner", userID: "seller2", err: biddingerrors.ErrNotFoundOrForbidden, callsService: true, expectedStatus: http.StatusNotFound},
		{name: "unauthenticated", expectedStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockProductServiceInterface(ctrl)
			if tc.callsService {
				mockService.EXPECT().DeleteProduct(gomock.Any(), "p1", tc.userID).Return(tc.err)
			}

			w := doJSON(newTestRouter(NewProductHandler(mockService), tc.userID), http.MethodDelete, "/products/p1", nil)
			require.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

func TestStatusHandler(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockService := NewMockProductServiceInterface(ctrl)
	mockService.EXPECT().GetStatus(gomock.Any(), "p1").
		Return(model.AuctionStatus{ProductID: "p1", Status: "open", TimeLeft: "5 minutes left"}, nil)
	mockService.EXPECT().GetStatus(gomock.Any(), "missing").
		Return(model.AuctionStatus{}, biddingerrors.ErrNotFound)

	router := newTestRouter(NewProductHandler(mockService), "")

	w := doJSON(router, http.MethodGet, "/products/p1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	require.Equal(t, "p1", data["product_id"])
	require.Equal(t, "open", data["status"])
	require.Equal(t, "5 minutes left", data["time_left"])

	w = doJSON(router, http.MethodGet, "/products/missing/status", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
