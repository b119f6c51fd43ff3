package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/service"
	"rotuprinters/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAPI accepts a single valid access token and rotates "refresh-1" into
// "access-2"/"refresh-2".
type fakeAPI struct {
	validToken   string
	refreshOK    bool
	refreshCalls atomic.Int32
	saleCalls    atomic.Int32
	lastIdemKey  atomic.Value
	lastAdjust   atomic.Value
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{validToken: "access-2", refreshOK: true}

	r := gin.New()
	r.POST("/api/auth/login", func(c *gin.Context) {
		var req service.LoginUserRequest
		_ = c.ShouldBindJSON(&req)
		if req.Password != "secret" {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid credentials"))
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, service.TokenResponse{
			Token:        "access-1",
			RefreshToken: "refresh-1",
			User:         service.UserResponse{Username: req.Username},
		}))
	})
	r.POST("/api/auth/refresh", func(c *gin.Context) {
		api.refreshCalls.Add(1)
		var req service.RefreshTokenRequest
		_ = c.ShouldBindJSON(&req)
		if !api.refreshOK || req.RefreshToken != "refresh-1" {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid refresh token"))
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, service.TokenResponse{
			Token:        "access-2",
			RefreshToken: "refresh-2",
		}))
	})

	authed := r.Group("/api", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+api.validToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid or expired token"))
			return
		}
		c.Next()
	})
	authed.GET("/sales/:id", func(c *gin.Context) {
		api.saleCalls.Add(1)
		c.JSON(http.StatusOK, response.Success(http.StatusOK, service.SaleResponse{ID: c.Param("id"), Status: "PENDING"}))
	})
	authed.POST("/sales/:id/complete", func(c *gin.Context) {
		api.saleCalls.Add(1)
		api.lastIdemKey.Store(c.GetHeader(idempotencyHeader))
		c.JSON(http.StatusOK, response.Success(http.StatusOK, service.SaleResponse{ID: c.Param("id"), Status: "COMPLETED", TotalAmount: "105.00"}))
	})
	authed.POST("/inventory/products/:id/adjust_stock", func(c *gin.Context) {
		var req service.AdjustStockRequest
		_ = c.ShouldBindJSON(&req)
		api.lastAdjust.Store(req)
		c.JSON(http.StatusOK, response.Success(http.StatusOK, service.ProductResponse{ID: c.Param("id"), StockStatus: "OUT"}))
	})
	authed.GET("/quotations/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Success(http.StatusOK, service.QuotationResponse{ID: c.Param("id"), TotalAmount: "115.00"}))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return api, srv
}

func TestLogin(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := New(srv.URL)

	s, err := c.Login(context.Background(), "ana", "secret")
	require.NoError(t, err)
	access, refresh := s.Tokens()
	assert.Equal(t, "access-1", access)
	assert.Equal(t, "refresh-1", refresh)
	assert.Equal(t, "ana", s.User().Username)

	_, err = c.Login(context.Background(), "ana", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRefreshesOnceAndRetries(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := New(srv.URL)
	s := NewSession("access-1", "refresh-1")

	sale, err := c.GetSale(context.Background(), s, "sale-1")
	require.NoError(t, err)
	assert.Equal(t, "sale-1", sale.ID)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, int32(1), api.saleCalls.Load())

	access, refresh := s.Tokens()
	assert.Equal(t, "access-2", access)
	assert.Equal(t, "refresh-2", refresh)

	// The refreshed token is used directly on the next call.
	_, err = c.GetSale(context.Background(), s, "sale-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestSecond401SurfacesUnauthorized(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.validToken = "never-issued"
	c := New(srv.URL)
	s := NewSession("access-1", "refresh-1")

	_, err := c.GetSale(context.Background(), s, "sale-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestFailedRefreshSurfacesUnauthorized(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.refreshOK = false
	c := New(srv.URL)
	s := NewSession("access-1", "refresh-1")

	_, err := c.CompleteSale(context.Background(), s, "sale-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, int32(0), api.saleCalls.Load())

	_, err = c.GetSale(context.Background(), nil, "sale-1")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestCompleteSaleSendsIdempotencyKey(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := New(srv.URL)
	s := NewSession("access-2", "refresh-2")

	sale, err := c.CompleteSale(context.Background(), s, "sale-9")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", sale.Status)
	assert.Equal(t, "105.00", sale.TotalAmount)

	key, _ := api.lastIdemKey.Load().(string)
	assert.Len(t, key, 36)
}

func TestAdjustStock(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := New(srv.URL)
	s := NewSession("access-2", "refresh-2")

	product, err := c.AdjustStock(context.Background(), s, "prod-1", -8, "damaged roll")
	require.NoError(t, err)
	assert.Equal(t, "OUT", product.StockStatus)

	req, _ := api.lastAdjust.Load().(service.AdjustStockRequest)
	assert.Equal(t, -8, req.QuantityDelta)
	assert.Equal(t, "damaged roll", req.Notes)

	q, err := c.GetQuotation(context.Background(), s, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "115.00", q.TotalAmount)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   error
	}{
		{"bad request", http.StatusBadRequest, response.CodeValidation, apperr.ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, "", apperr.ErrValidation},
		{"transition", http.StatusConflict, response.CodeInvalidTransition, apperr.ErrInvalidTransition},
		{"duplicate key", http.StatusConflict, response.CodeConflict, apperr.ErrConflict},
		{"not found", http.StatusNotFound, response.CodeNotFound, apperr.ErrNotFound},
		{"forbidden", http.StatusForbidden, response.CodeForbidden, apperr.ErrNetwork},
		{"server error", http.StatusInternalServerError, response.CodeInternal, apperr.ErrNetwork},
		{"bad gateway", http.StatusBadGateway, "", apperr.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(response.Fail(tt.status, tt.code, "boom"))
			}))
			defer srv.Close()

			c := New(srv.URL)
			_, err := c.ApproveQuotation(context.Background(), NewSession("a", "r"), "q-1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "boom")
			assert.Equal(t, int32(1), calls.Load(), "no retries outside 401")

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).RejectQuotation(context.Background(), NewSession("a", "r"), "q-1")
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.Contains(t, err.Error(), http.StatusText(http.StatusServiceUnavailable))
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).CancelSale(context.Background(), NewSession("a", "r"), "sale-1")
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}
