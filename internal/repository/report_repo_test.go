package repository

import (
	"context"
	"testing"
	"time"

	"rotuprinters/internal/model"
	"rotuprinters/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepository_SalesAggregates(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	sales := NewSaleRepository(db)
	reports := NewReportRepository(db)

	client := seedClient(t, db, "Hotel Plaza")
	vinyl := seedProduct(t, db, "PRD-V", 20, 5)
	paper := seedProduct(t, db, "PRD-P", 20, 5)

	march := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	mk := func(number, status, method string, at time.Time, items ...model.SaleItem) {
		s := &model.Sale{
			InvoiceNumber: number,
			ClientID:      client.ID,
			PaymentMethod: method,
			Status:        status,
			Items:         items,
		}
		s.CreatedAt = at
		s.Recalculate()
		require.NoError(t, sales.Create(ctx, s))
	}
	mk("FAC-000001", model.SaleCompleted, model.PaymentCash, march,
		model.SaleItem{ProductID: vinyl.ID, UnitPrice: decimal.NewFromInt(50), Quantity: 2},
		model.SaleItem{ProductID: paper.ID, UnitPrice: decimal.NewFromInt(10), Quantity: 1, Position: 1})
	mk("FAC-000002", model.SaleCompleted, model.PaymentTransfer, april,
		model.SaleItem{ProductID: vinyl.ID, UnitPrice: decimal.NewFromInt(50), Quantity: 3})
	mk("FAC-000003", model.SalePending, model.PaymentCash, april,
		model.SaleItem{ProductID: paper.ID, UnitPrice: decimal.NewFromInt(10), Quantity: 9})

	completed, err := reports.SalesTotals(ctx, model.SaleCompleted, model.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), completed.Count)
	assert.True(t, completed.Total.Equal(decimal.NewFromInt(260)), completed.Total.String())

	pending, err := reports.SalesTotals(ctx, model.SalePending, model.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)

	periods, err := reports.SalesByPeriod(ctx, model.DateRange{})
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "2026-03", periods[0].Period)
	assert.True(t, periods[0].Total.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, "2026-04", periods[1].Period)

	top, err := reports.TopProducts(ctx, model.DateRange{}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, top)
	assert.Equal(t, vinyl.ID, top[0].ProductID)
	assert.Equal(t, int64(5), top[0].Quantity)

	methods, err := reports.SalesByPaymentMethod(ctx, model.DateRange{})
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, model.PaymentCash, methods[0].Key)

	clients, err := reports.TopClients(ctx, model.DateRange{Start: april}, 20)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, int64(1), clients[0].SalesCount)
	assert.True(t, clients[0].TotalSales.Equal(decimal.NewFromInt(150)))
}

func TestReportRepository_Inventory(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	reports := NewReportRepository(db)

	seedProduct(t, db, "PRD-A", 10, 5)
	seedProduct(t, db, "PRD-B", 2, 5)
	seedProduct(t, db, "PRD-C", 0, 5)

	counts, err := reports.StockCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Total)
	assert.Equal(t, int64(1), counts.Low)
	assert.Equal(t, int64(1), counts.Out)
	assert.True(t, counts.Value.Equal(decimal.NewFromInt(48)), counts.Value.String())

	categories, err := reports.InventoryByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Uncategorized", categories[0].Category)
	assert.Equal(t, int64(3), categories[0].TotalProducts)
}
