package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rotuprinters/internal/model"
	"rotuprinters/internal/repository"
	"rotuprinters/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testActor = ""

// recorder captures broadcast events.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) BroadcastEvent(event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

type fixture struct {
	db         *gorm.DB
	events     *recorder
	products   repository.ProductRepository
	movements  repository.StockMovementRepository
	audit      repository.AuditRepository
	clients    ClientService
	inventory  InventoryService
	simple     SimpleInventoryService
	quotations QuotationService
	sales      SaleService
	expenses   ExpenseService
	reports    ReportService
	users      UserService
	roles      RoleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	events := &recorder{}

	tx := repository.NewTransactionManager(db)
	audit := repository.NewAuditRepository(db)
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	itemRepo := repository.NewInventoryItemRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	tokens := TokenConfig{Secret: []byte("test-secret"), AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour}

	return &fixture{
		db:         db,
		events:     events,
		products:   productRepo,
		movements:  movementRepo,
		audit:      audit,
		clients:    NewClientService(clientRepo, audit, tx),
		inventory:  NewInventoryService(productRepo, movementRepo, itemRepo, audit, tx, events),
		simple:     NewSimpleInventoryService(itemRepo, audit, tx, events),
		quotations: NewQuotationService(quotationRepo, clientRepo, productRepo, audit, tx),
		sales:      NewSaleService(saleRepo, quotationRepo, clientRepo, productRepo, movementRepo, audit, tx, events),
		expenses:   NewExpenseService(repository.NewExpenseRepository(db), audit, tx),
		reports:    NewReportService(repository.NewReportRepository(db), clientRepo, productRepo),
		users:      NewUserService(repository.NewUserRepository(db), roleRepo, audit, tx, tokens, zap.NewNop()),
		roles:      NewRoleService(roleRepo, tx),
	}
}

func (f *fixture) client(t *testing.T, name string) ClientResponse {
	t.Helper()
	c, err := f.clients.CreateClient(context.Background(), testActor, CreateClientRequest{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) product(t *testing.T, name string, qty, minimum int) ProductResponse {
	t.Helper()
	p, err := f.inventory.CreateProduct(context.Background(), testActor, CreateProductRequest{
		Name:              name,
		UnitOfMeasure:     model.UnitRoll,
		QuantityAvailable: qty,
		MinimumStock:      minimum,
		UnitCost:          decimal.NewFromInt(20),
		UnitPrice:         decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stockOf(t *testing.T, id string) int {
	t.Helper()
	p, err := f.inventory.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.QuantityAvailable
}

func boolPtr(b bool) *bool { return &b }
