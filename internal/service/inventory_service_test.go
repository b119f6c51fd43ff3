package service

import (
	"context"
	"strings"
	"testing"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	ws "rotuprinters/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustStock_NegativeResultIsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Vinyl", 5, 2)

	got, err := f.inventory.AdjustStock(ctx, testActor, p.ID, AdjustStockRequest{QuantityDelta: -8, Notes: "count correction"})
	require.NoError(t, err)
	assert.Equal(t, -3, got.QuantityAvailable)
	assert.Equal(t, model.StockOut, got.StockStatus)
	assert.Equal(t, 1, f.events.count(ws.EventStockUpdated))

	movements, _, err := f.inventory.ListMovements(ctx, p.ID, 1, 20)
	require.NoError(t, err)
	var found bool
	for _, m := range movements {
		if m.MovementType == model.MovementAdjustment {
			found = true
			assert.Equal(t, -8, m.QuantityChanged)
			assert.Equal(t, -3, m.StockAfter)
		}
	}
	assert.True(t, found)

	out, err := f.inventory.ListOutOfStock(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, p.ID, out[0].ID)
}

func TestAdjustStock_ZeroDeltaRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Vinyl", 5, 2)

	_, err := f.inventory.AdjustStock(context.Background(), testActor, p.ID, AdjustStockRequest{})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 5, f.stockOf(t, p.ID))
}

func TestCreateProduct_GeneratesSKUAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.product(t, "Vinyl", 5, 2)
	assert.True(t, strings.HasPrefix(p.SKU, "PRD-"), p.SKU)
	assert.Len(t, p.SKU, len("PRD-")+8)

	_, err := f.inventory.CreateProduct(ctx, testActor, CreateProductRequest{Name: "Copy", SKU: p.SKU})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestStockListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	low := f.product(t, "Low", 1, 5)
	f.product(t, "Plenty", 50, 5)
	f.product(t, "Empty", 0, 5)

	lows, err := f.inventory.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, lows, 1)
	assert.Equal(t, low.ID, lows[0].ID)
	assert.Equal(t, model.StockLow, lows[0].StockStatus)

	outs, err := f.inventory.ListOutOfStock(ctx)
	require.NoError(t, err)
	assert.Len(t, outs, 1)
}

func TestDeleteProduct_Deactivates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Vinyl", 5, 2)

	require.NoError(t, f.inventory.DeleteProduct(ctx, testActor, p.ID))

	got, err := f.inventory.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active := true
	list, total, err := f.inventory.ListProducts(ctx, ProductQuery{Active: &active, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cat, err := f.inventory.CreateCategory(ctx, testActor, CategoryRequest{Name: "Vinyl"})
	require.NoError(t, err)

	p, err := f.inventory.CreateProduct(ctx, testActor, CreateProductRequest{Name: "Matte vinyl", CategoryID: cat.ID})
	require.NoError(t, err)
	assert.Equal(t, cat.ID, p.CategoryID)

	cats, err := f.inventory.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Vinyl", cats[0].Name)
}

func TestSimpleInventory_AdjustAndValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.simple.CreateItem(ctx, testActor, InventoryItemRequest{Name: "Eyelets", Quantity: 10})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(item.SKU, "INV-"), item.SKU)

	_, err = f.simple.AdjustStock(ctx, testActor, item.ID, AdjustStockRequest{QuantityDelta: 0})
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.simple.AdjustStock(ctx, testActor, item.ID, AdjustStockRequest{QuantityDelta: -4})
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)
	assert.Equal(t, 1, f.events.count(ws.EventInventoryUpdated))

	movements, total, err := f.simple.ListMovements(ctx, item.ID, 1, 20)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(1))
	var exit bool
	for _, m := range movements {
		if m.QuantityDelta == -4 {
			exit = true
			assert.Equal(t, model.MovementExit, m.MovementType)
			assert.Equal(t, 6, m.QuantityAfter)
		}
	}
	assert.True(t, exit)
}
