package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-marketplace/internal/accessgate"
	auction "auction-marketplace/internal/auctionService"
	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/metrics"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/internal/settlement"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fixedRand pins the suggested price boost to its lower bound
type fixedRand struct{}

func (fixedRand) Float64() float64 { return 0 }

// testApp is the full HTTP surface over an in-memory ledger
type testApp struct {
	router  *gin.Engine
	repo    *repository.MemoryRepo
	metrics *metrics.Metrics
}

// SetupTestApp initializes the router with in-memory repository for integration testing.
func SetupTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	m := metrics.New()
	tokens := accessgate.NewTokenIssuer("integration-secret", time.Hour)

	router := server.SetupRouter(server.Dependencies{
		Auth:     accessgate.NewService(repo, tokens),
		Products: auction.NewAuctionService(repo, nil),
		Bidding:  bidding.NewBiddingService(repo, bidding.WithMetrics(m), bidding.WithRandSource(fixedRand{})),
		Tokens:   tokens,
		Metrics:  m,
	})
	return &testApp{router: router, repo: repo, metrics: m}
}

// Settle runs one settlement sweep as if the clock had moved forward by d
func (a *testApp) Settle(t *testing.T, d time.Duration) settlement.Summary {
	t.Helper()
	job := settlement.NewJob(a.repo,
		settlement.WithClock(func() time.Time { return time.Now().Add(d) }),
		settlement.WithMetrics(a.metrics),
	)
	return job.RunOnce(t.Context())
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func (a *testApp) ExecuteRequest(t *testing.T, method, url, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request and returns the envelope's data
func (a *testApp) ExecuteRequestAndParse(t *testing.T, method, url, token string, body any) (any, *httptest.ResponseRecorder) {
	t.Helper()

	w := a.ExecuteRequest(t, method, url, token, body)
	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return resp["data"], w
}

// Register signs a user up and returns the token
func (a *testApp) Register(t *testing.T, name, email, role string) string {
	t.Helper()

	data, w := a.ExecuteRequestAndParse(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data.(map[string]any)["token"].(string)
}

// CreateProduct lists a product ending after d and returns its id
func (a *testApp) CreateProduct(t *testing.T, token, title string, price float64, d time.Duration) string {
	t.Helper()

	data, w := a.ExecuteRequestAndParse(t, http.MethodPost, "/products", token, map[string]any{
		"title":    title,
		"price":    price,
		"end_time": time.Now().Add(d).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data.(map[string]any)["id"].(string)
}
