package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rotuprinters/internal/config"
	"rotuprinters/internal/middleware"
	"rotuprinters/internal/testutil"
	"rotuprinters/pkg/response"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		GinMode:         "test",
		JWTSecret:       "app-test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		IdempotencyTTL:  time.Hour,
		CORSOrigins:     []string{"http://localhost:5173"},
		LoginRateLimit:  20,
		AdminUsername:   "admin",
		AdminEmail:      "admin@rotuprinters.test",
		AdminPassword:   "admin-pass",
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a, err := newApp(context.Background(), testConfig(), testutil.NewDB(t), rdb, zap.NewNop())
	require.NoError(t, err)
	return a
}

func call(t *testing.T, a *app, method, path, token string, body any, header map[string]string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var res response.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	}
	return w, res
}

func dataField(t *testing.T, res response.Response, key string) any {
	t.Helper()
	m, ok := res.Data.(map[string]any)
	require.True(t, ok, "data is %T", res.Data)
	return m[key]
}

func TestApp_HealthMetricsAndDocs(t *testing.T) {
	a := newTestApp(t)

	w, _ := call(t, a, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w, _ = call(t, a, http.MethodGet, "/metrics", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rotuprinters_http_requests_total")
	assert.Contains(t, w.Body.String(), "rotuprinters_websocket_clients")

	w, _ = call(t, a, http.MethodGet, "/swagger/doc.json", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/sales/{id}/complete")

	w, _ = call(t, a, http.MethodGet, "/ws", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApp_SeededAdminAndIdempotentCompletion(t *testing.T) {
	a := newTestApp(t)

	w, res := call(t, a, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "admin-pass"}, nil)
	require.Equal(t, http.StatusOK, w.Code, res.Error)
	token := dataField(t, res, "token").(string)

	_, res = call(t, a, http.MethodPost, "/api/clients", token, map[string]any{"name": "Imprenta"}, nil)
	clientID := dataField(t, res, "id").(string)
	_, res = call(t, a, http.MethodPost, "/api/inventory/products", token, map[string]any{"name": "Vinyl", "quantity_available": 4}, nil)
	productID := dataField(t, res, "id").(string)

	w, res = call(t, a, http.MethodPost, "/api/sales", token, map[string]any{
		"client_id": clientID,
		"items":     []map[string]any{{"product_id": productID, "unit_price": "10", "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, res.Error)
	saleID := dataField(t, res, "id").(string)

	key := map[string]string{middleware.IdempotencyHeader: "complete-" + saleID}
	w, res = call(t, a, http.MethodPost, "/api/sales/"+saleID+"/complete", token, nil, key)
	require.Equal(t, http.StatusOK, w.Code, res.Error)

	w, res = call(t, a, http.MethodPost, "/api/sales/"+saleID+"/complete", token, nil, key)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeConflict, res.ErrorCode)

	w, res = call(t, a, http.MethodGet, "/api/inventory/products/"+productID, token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, dataField(t, res, "quantity_available"))

	w, res = call(t, a, http.MethodGet, "/api/audit-logs?action=COMPLETE_SALE", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, res.Error)
	assert.EqualValues(t, 1, dataField(t, res, "total"))
}
