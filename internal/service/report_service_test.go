package service

import (
	"context"
	"testing"
	"time"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// One converted quotation and one still pending.
	q, p := approvedQuotation(t, f)
	sale, err := f.sales.CreateFromQuotation(ctx, testActor, FromQuotationRequest{QuotationID: q.ID, PaymentMethod: model.PaymentTransfer})
	require.NoError(t, err)
	_, err = f.sales.CompleteSale(ctx, testActor, sale.ID)
	require.NoError(t, err)
	_, err = f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{ClientID: q.ClientID, Items: []QuotationItemInput{bannerLine()}})
	require.NoError(t, err)
	newPendingSale(t, f, map[string]int{p.ID: 1})
	f.product(t, "Empty", 0, 3)

	dash, err := f.reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "115.00", dash.Sales.TotalAmount)
	assert.Equal(t, int64(1), dash.Sales.TotalCount)
	assert.Equal(t, int64(1), dash.Sales.PendingCount)
	assert.Equal(t, int64(2), dash.Quotations.Total)
	assert.Equal(t, int64(1), dash.Quotations.Active)
	assert.Equal(t, int64(1), dash.Inventory.OutOfStock)
	assert.Equal(t, int64(2), dash.Inventory.TotalProducts)
	assert.Equal(t, int64(2), dash.Clients.Total)

	sales, err := f.reports.Sales(ctx, ReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, "115.00", sales.Summary.TotalSales)
	assert.Equal(t, "115.00", sales.Summary.AverageSale)
	require.Len(t, sales.SalesByPeriod, 1)
	assert.Equal(t, time.Now().Format("2006-01"), sales.SalesByPeriod[0].Period)
	require.Len(t, sales.SalesByPaymentMethod, 1)
	assert.Equal(t, model.PaymentTransfer, sales.SalesByPaymentMethod[0].Key)
	require.Len(t, sales.TopProducts, 1)
	assert.Equal(t, p.ID, sales.TopProducts[0].ProductID)

	quotations, err := f.reports.Quotations(ctx, ReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), quotations.TotalQuotations)
	assert.Equal(t, int64(1), quotations.ConvertedQuotations)
	assert.Equal(t, "50.00", quotations.ConversionRate)

	clients, err := f.reports.Clients(ctx, ReportQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, clients.TopClients)
	assert.Equal(t, "115.00", clients.TopClients[0].TotalSales)

	inventory, err := f.reports.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inventory.OutOfStockCount)
}

func TestReports_DateRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := ReportQuery{StartDate: "2000-01-01", EndDate: "2000-12-31"}
	sales, err := f.reports.Sales(ctx, past)
	require.NoError(t, err)
	assert.Equal(t, "0.00", sales.Summary.TotalSales)
	assert.Empty(t, sales.SalesByPeriod)

	_, err = f.reports.Sales(ctx, ReportQuery{StartDate: "yesterday"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}
