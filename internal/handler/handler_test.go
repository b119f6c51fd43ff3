package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rotuprinters/internal/middleware"
	"rotuprinters/internal/model"
	"rotuprinters/internal/repository"
	"rotuprinters/internal/service"
	"rotuprinters/internal/testutil"
	"rotuprinters/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "s3cret-pass"

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	ErrorCode  string          `json:"error_code"`
}

type testServer struct {
	router *gin.Engine
	users  service.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	ctx := context.Background()

	tx := repository.NewTransactionManager(db)
	audit := repository.NewAuditRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	itemRepo := repository.NewInventoryItemRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	secret := []byte("handler-test-secret")
	users := service.NewUserService(repository.NewUserRepository(db), roleRepo, audit, tx,
		service.TokenConfig{Secret: secret, AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour}, zap.NewNop())
	roles := service.NewRoleService(roleRepo, tx)
	require.NoError(t, roles.SeedDefaultRolesAndPermissions(ctx))
	middleware.InitAuth(secret, roleRepo, middleware.CookieOptions{AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour})

	router := gin.New()
	api := router.Group("/api")
	NewUserHandler(users, nil).RegisterRoutes(api)
	NewRoleHandler(roles).RegisterRoutes(api)
	NewAuditHandler(service.NewAuditService(audit)).RegisterRoutes(api)
	NewClientHandler(service.NewClientService(clientRepo, audit, tx)).RegisterRoutes(api)
	NewInventoryHandler(service.NewInventoryService(productRepo, movementRepo, itemRepo, audit, tx, nil), nil).RegisterRoutes(api)
	NewSimpleInventoryHandler(service.NewSimpleInventoryService(itemRepo, audit, tx, nil), nil).RegisterRoutes(api)
	NewQuotationHandler(service.NewQuotationService(quotationRepo, clientRepo, productRepo, audit, tx), nil).RegisterRoutes(api)
	NewSaleHandler(service.NewSaleService(saleRepo, quotationRepo, clientRepo, productRepo, movementRepo, audit, tx, nil), nil).RegisterRoutes(api)
	NewExpenseHandler(service.NewExpenseService(repository.NewExpenseRepository(db), audit, tx)).RegisterRoutes(api)
	NewReportHandler(service.NewReportService(repository.NewReportRepository(db), clientRepo, productRepo)).RegisterRoutes(api)

	return &testServer{router: router, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

// login creates a user with the role and returns an access token.
func (s *testServer) login(t *testing.T, username, role string) string {
	t.Helper()
	_, err := s.users.CreateUser(context.Background(), "", service.CreateUserRequest{
		Username: username,
		Email:    username + "@rotuprinters.test",
		Password: testPassword,
		Role:     role,
	})
	require.NoError(t, err)

	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var tok service.TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	return tok.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestAuth_LoginSetsCookiesAndRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "maria", model.RoleSeller)

	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "maria", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.CodeUnauthorized, env.ErrorCode)

	w, env = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "maria"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "password is required")

	w, _ = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "maria", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	names := map[string]bool{}
	for _, c := range w.Result().Cookies() {
		names[c.Name] = c.HttpOnly
	}
	assert.True(t, names["access_token"])
	assert.True(t, names["refresh_token"])
}

func TestAuth_MeAndMissingToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dani", model.RoleDesigner)

	w, env := s.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error", env.Status)

	w, env = s.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[service.MeResponse](t, env.Data)
	assert.Equal(t, "dani", me.Username)
	assert.Contains(t, me.Permissions, "quotations.write")
}

func TestPermissions_DesignerCannotSell(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dani", model.RoleDesigner)

	w, env := s.do(t, http.MethodPost, "/api/sales", token, gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.CodeForbidden, env.ErrorCode)

	w, _ = s.do(t, http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClients_ValidationAndPagination(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "maria", model.RoleSeller)

	w, env := s.do(t, http.MethodPost, "/api/clients", token, gin.H{"company": "No name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeValidation, env.ErrorCode)
	assert.Contains(t, env.Error, "name is required")

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		w, env = s.do(t, http.MethodPost, "/api/clients", token, gin.H{"name": name})
		require.Equal(t, http.StatusCreated, w.Code, env.Error)
	}

	w, env = s.do(t, http.MethodGet, "/api/clients?page=2&limit=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Items []service.ClientResponse `json:"items"`
		Total int64                    `json:"total"`
		Page  int                      `json:"page"`
		Limit int                      `json:"limit"`
	}](t, env.Data)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Limit)
	assert.Len(t, page.Items, 1)

	w, env = s.do(t, http.MethodGet, "/api/clients/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, env = s.do(t, http.MethodGet, "/api/clients/6f1c2a0e-8a7b-4c1d-9e2f-1a2b3c4d5e6f", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeNotFound, env.ErrorCode)
}

func TestSales_CompleteTwiceConflicts(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "maria", model.RoleSeller)

	_, env := s.do(t, http.MethodPost, "/api/clients", token, gin.H{"name": "Imprenta"})
	client := decode[service.ClientResponse](t, env.Data)

	w, env := s.do(t, http.MethodPost, "/api/inventory/products", token, gin.H{
		"name": "Vinyl", "quantity_available": 10, "unit_price": "50", "minimum_stock": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	product := decode[service.ProductResponse](t, env.Data)

	w, env = s.do(t, http.MethodPost, "/api/sales", token, gin.H{
		"client_id": client.ID,
		"items":     []gin.H{{"product_id": product.ID, "unit_price": "50", "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	sale := decode[service.SaleResponse](t, env.Data)
	assert.Equal(t, "172.50", sale.TotalAmount)

	w, env = s.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/complete", token, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, model.SaleCompleted, decode[service.SaleResponse](t, env.Data).Status)

	w, env = s.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/complete", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeInvalidTransition, env.ErrorCode)

	w, env = s.do(t, http.MethodGet, "/api/inventory/products/"+product.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, decode[service.ProductResponse](t, env.Data).QuantityAvailable)
}

func TestQuotations_ApproveFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "maria", model.RoleSeller)

	_, env := s.do(t, http.MethodPost, "/api/clients", token, gin.H{"name": "Rotulos"})
	client := decode[service.ClientResponse](t, env.Data)

	w, env := s.do(t, http.MethodPost, "/api/quotations", token, gin.H{
		"client_id": client.ID,
		"apply_tax": true,
		"items": []gin.H{{
			"description": "Banner", "width_inches": "10", "height_inches": 5,
			"price_per_square_inch": "2", "quantity": 1,
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	q := decode[service.QuotationResponse](t, env.Data)
	assert.Equal(t, "115.00", q.TotalAmount)

	w, env = s.do(t, http.MethodPost, "/api/quotations/"+q.ID+"/approve", token, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, model.QuotationApproved, decode[service.QuotationResponse](t, env.Data).Status)

	w, env = s.do(t, http.MethodPost, "/api/quotations/"+q.ID+"/reject", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeInvalidTransition, env.ErrorCode)
}

func TestInventory_AdjustStockZeroDelta(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "maria", model.RoleSeller)

	_, env := s.do(t, http.MethodPost, "/api/inventory/products", token, gin.H{"name": "Vinyl", "quantity_available": 5})
	product := decode[service.ProductResponse](t, env.Data)

	w, env := s.do(t, http.MethodPost, "/api/inventory/products/"+product.ID+"/adjust_stock", token, gin.H{"quantity_delta": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeValidation, env.ErrorCode)

	w, env = s.do(t, http.MethodPost, "/api/inventory/products/"+product.ID+"/adjust_stock", token, gin.H{"quantity_delta": -8})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	got := decode[service.ProductResponse](t, env.Data)
	assert.Equal(t, -3, got.QuantityAvailable)
	assert.Equal(t, model.StockOut, got.StockStatus)
}

func TestExpenses_DeleteIsAdminOnly(t *testing.T) {
	s := newTestServer(t)
	seller := s.login(t, "maria", model.RoleSeller)
	admin := s.login(t, "boss", model.RoleAdmin)

	w, env := s.do(t, http.MethodPost, "/api/expenses", seller, gin.H{"description": "Ink", "date": "2026-03-02", "amount": "40"})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	expense := decode[service.ExpenseResponse](t, env.Data)

	w, _ = s.do(t, http.MethodDelete, "/api/expenses/"+expense.ID, seller, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/expenses?start_date=2026-03-01&end_date=2026-03-31", seller, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Total       int64  `json:"total"`
		TotalAmount string `json:"total_amount"`
	}](t, env.Data)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, "40.00", list.TotalAmount)

	w, _ = s.do(t, http.MethodDelete, "/api/expenses/"+expense.ID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReports_Dashboard(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dani", model.RoleDesigner)

	w, env := s.do(t, http.MethodGet, "/api/reports/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	dash := decode[service.DashboardResponse](t, env.Data)
	assert.Equal(t, "0.00", dash.Sales.TotalAmount)

	w, env = s.do(t, http.MethodGet, "/api/reports/sales?start_date=bad", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
