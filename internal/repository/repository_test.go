package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"rotuprinters/internal/model"
	"rotuprinters/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func nd(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func seedClient(t *testing.T, db *gorm.DB, name string) *model.Client {
	t.Helper()
	c := &model.Client{Name: name, Company: name + " S.A.", IsActive: true}
	require.NoError(t, NewClientRepository(db).Create(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, qty, minimum int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:              "Vinyl " + sku,
		SKU:               sku,
		UnitOfMeasure:     model.UnitRoll,
		QuantityAvailable: qty,
		MinimumStock:      minimum,
		UnitCost:          decimal.NewFromInt(4),
		UnitPrice:         decimal.NewFromInt(10),
		IsActive:          true,
	}
	require.NoError(t, NewProductRepository(db).Create(context.Background(), p))
	return p
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	db := testutil.NewDB(t)
	tm := NewTransactionManager(db)
	clients := NewClientRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, clients.Create(txCtx, &model.Client{Name: "Rolled back", IsActive: true}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, total, err := clients.List(ctx, ClientFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	db := testutil.NewDB(t)
	tm := NewTransactionManager(db)
	clients := NewClientRepository(db)
	ctx := context.Background()

	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		return tm.RunInTx(txCtx, func(inner context.Context) error {
			return clients.Create(inner, &model.Client{Name: "Nested", IsActive: true})
		})
	})
	require.NoError(t, err)

	n, err := clients.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClientRepository_ListSearch(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	seedClient(t, db, "Imprenta Lopez")
	seedClient(t, db, "Banco Central")

	clients, total, err := NewClientRepository(db).List(ctx, ClientFilter{Search: "lopez", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, clients, 1)
	assert.Equal(t, "Imprenta Lopez", clients[0].Name)
}

func TestProductRepository_StockListings(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewProductRepository(db)

	seedProduct(t, db, "PRD-OK", 50, 5)
	low := seedProduct(t, db, "PRD-LOW", 3, 5)
	out := seedProduct(t, db, "PRD-NEG", -3, 5)

	lows, err := repo.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, lows, 1)
	assert.Equal(t, low.ID, lows[0].ID)

	outs, err := repo.ListOutOfStock(ctx)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, out.ID, outs[0].ID)
	assert.Equal(t, model.StockOut, outs[0].StockStatus())

	require.NoError(t, repo.UpdateStock(ctx, low.ID, 40))
	got, err := repo.FindByIDForUpdate(ctx, low.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.QuantityAvailable)
}

func TestQuotationRepository_RoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewQuotationRepository(db)
	client := seedClient(t, db, "Cafe Maya")

	q := &model.Quotation{
		QuotationNumber: "COT-000001",
		ClientID:        client.ID,
		ApplyTax:        true,
		Status:          model.QuotationPending,
		Items: []model.QuotationItem{
			{Position: 0, Description: "Banner", WidthInches: nd("10"), HeightInches: nd("5"), PricePerSquareInch: nd("2"), Quantity: nd("1")},
			{Position: 1, Description: "Sketch only"},
		},
	}
	q.Recalculate()
	require.NoError(t, repo.Create(ctx, q))

	got, err := repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Banner", got.Items[0].Description)
	assert.True(t, got.Items[0].Total.Equal(decimal.NewFromInt(100)))
	assert.False(t, got.Items[1].WidthInches.Valid)
	assert.True(t, got.Items[1].Total.IsZero())
	assert.True(t, got.Subtotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.TaxAmount.Equal(decimal.NewFromInt(15)))
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(115)))
	require.NotNil(t, got.Client)
	assert.Equal(t, "Cafe Maya", got.Client.Name)

	last, err := repo.LastNumber(ctx, "COT-")
	require.NoError(t, err)
	assert.Equal(t, "COT-000001", last)

	require.NoError(t, repo.Delete(ctx, q.ID))
	_, err = repo.FindByID(ctx, q.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestExpenseRepository_DateFilterAndSum(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewExpenseRepository(db)

	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }
	for i, amount := range []string{"10.50", "20", "100"} {
		require.NoError(t, repo.Create(ctx, &model.Expense{
			Description: "Ink",
			Date:        day(i*10 + 1),
			Amount:      decimal.RequireFromString(amount),
		}))
	}

	expenses, total, sum, err := repo.List(ctx, ExpenseFilter{StartDate: day(1), EndDate: day(15), Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, expenses, 2)
	assert.True(t, sum.Equal(decimal.RequireFromString("30.5")), sum.String())
}

func TestUserRepository_RefreshTokens(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	user := &model.User{Username: "ana", Email: "ana@rotu.test", Password: "x", Role: model.RoleSeller, IsActive: true}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.CreateRefreshToken(ctx, &model.RefreshToken{UserID: user.ID, Token: "old", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, repo.CreateRefreshToken(ctx, &model.RefreshToken{UserID: user.ID, Token: "live", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, repo.DeleteExpiredRefreshTokens(ctx, time.Now()))
	_, err := repo.GetRefreshToken(ctx, "old")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	rt, err := repo.GetRefreshToken(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, user.ID, rt.UserID)

	require.NoError(t, repo.DeleteRefreshTokensForUser(ctx, user.ID))
	_, err = repo.GetRefreshToken(ctx, "live")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRoleRepository_Permissions(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewRoleRepository(db)

	role := &model.Role{Name: model.RoleDesigner, IsSystem: true}
	require.NoError(t, repo.FindOrCreateRole(ctx, role))

	read := &model.Permission{Code: "clients.read", Name: "Read clients", Group: "clients"}
	write := &model.Permission{Code: "clients.write", Name: "Write clients", Group: "clients"}
	require.NoError(t, repo.FindOrCreatePermission(ctx, read))
	require.NoError(t, repo.FindOrCreatePermission(ctx, write))

	require.NoError(t, repo.ReplacePermissions(ctx, role, []model.Permission{*read, *write}))
	require.NoError(t, repo.ReplacePermissions(ctx, role, []model.Permission{*read}))

	codes, err := repo.GetPermissionsByRoleName(ctx, model.RoleDesigner)
	require.NoError(t, err)
	assert.Equal(t, []string{"clients.read"}, codes)

	again := &model.Permission{Code: "clients.read", Name: "ignored", Group: "clients"}
	require.NoError(t, repo.FindOrCreatePermission(ctx, again))
	assert.Equal(t, read.ID, again.ID)
}

func TestAuditRepository_Filter(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewAuditRepository(db)

	entity := uuid.NewString()
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.ActionCreateSale, EntityID: entity}))
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.ActionCompleteSale, EntityID: entity}))
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.ActionCreateClient, EntityID: uuid.NewString()}))

	logs, total, err := repo.List(ctx, AuditFilter{EntityID: entity, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)
}
