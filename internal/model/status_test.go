package model

import (
	"testing"
	"time"

	"rotuprinters/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotationTransitions(t *testing.T) {
	all := []string{QuotationPending, QuotationApproved, QuotationRejected, QuotationConverted}

	for _, from := range all {
		t.Run("approve from "+from, func(t *testing.T) {
			q := &Quotation{Status: from}
			err := q.Approve()
			if from == QuotationPending {
				require.NoError(t, err)
				assert.Equal(t, QuotationApproved, q.Status)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
			assert.Equal(t, from, q.Status)
		})

		t.Run("reject from "+from, func(t *testing.T) {
			q := &Quotation{Status: from}
			err := q.Reject()
			if from == QuotationPending {
				require.NoError(t, err)
				assert.Equal(t, QuotationRejected, q.Status)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
			assert.Equal(t, from, q.Status)
		})

		t.Run("convert from "+from, func(t *testing.T) {
			q := &Quotation{Status: from}
			err := q.Convert()
			if from == QuotationApproved {
				require.NoError(t, err)
				assert.Equal(t, QuotationConverted, q.Status)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
		})
	}
}

func TestSaleTransitions(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s := &Sale{Status: SalePending}
	require.NoError(t, s.Complete(now))
	assert.Equal(t, SaleCompleted, s.Status)
	require.NotNil(t, s.CompletedAt)
	assert.True(t, now.Equal(*s.CompletedAt))

	assert.ErrorIs(t, s.Complete(now), apperr.ErrInvalidTransition)
	assert.ErrorIs(t, s.Cancel(), apperr.ErrInvalidTransition)

	c := &Sale{Status: SalePending}
	require.NoError(t, c.Cancel())
	assert.Equal(t, SaleCancelled, c.Status)
	assert.Nil(t, c.CompletedAt)
	assert.ErrorIs(t, c.Complete(now), apperr.ErrInvalidTransition)
	assert.ErrorIs(t, c.Cancel(), apperr.ErrInvalidTransition)
}

func TestStockStatus(t *testing.T) {
	tests := []struct {
		qty, min int
		want     string
	}{
		{-3, 5, StockOut},
		{0, 0, StockOut},
		{1, 5, StockLow},
		{4, 5, StockLow},
		{5, 5, StockAvailable},
		{1, 0, StockAvailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StockStatusFor(tt.qty, tt.min), "qty=%d min=%d", tt.qty, tt.min)
	}

	assert.Equal(t, StockLow, InventoryItem{Quantity: 9}.StockStatus())
	assert.Equal(t, StockAvailable, InventoryItem{Quantity: 10}.StockStatus())
	assert.Equal(t, StockOut, Product{QuantityAvailable: -3, MinimumStock: 2}.StockStatus())
}

func TestQuotationRecalculate(t *testing.T) {
	n := func(v string) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.RequireFromString(v)) }
	q := &Quotation{
		ApplyTax:           true,
		DiscountPercentage: decimal.NewFromInt(10),
		Items: []QuotationItem{
			{WidthInches: n("10"), HeightInches: n("5"), PricePerSquareInch: n("2"), Quantity: n("1")},
			{WidthInches: n("10"), HeightInches: decimal.NullDecimal{}, PricePerSquareInch: n("2"), Quantity: n("1")},
		},
	}

	q.Recalculate()

	assert.Equal(t, "50", q.Items[0].SquareInches.String())
	assert.Equal(t, "100", q.Items[0].Total.String())
	assert.True(t, q.Items[1].Total.IsZero())
	assert.Equal(t, "100", q.Subtotal.String())
	assert.Equal(t, "10", q.DiscountAmount.String())
	assert.Equal(t, "15", q.TaxAmount.String())
	assert.Equal(t, "105", q.TotalAmount.String())
}

func TestSaleRecalculate(t *testing.T) {
	s := &Sale{
		ApplyTax:           true,
		DiscountPercentage: decimal.NewFromInt(10),
		Items:              []SaleItem{{UnitPrice: decimal.NewFromInt(50), Quantity: 2}},
	}

	s.Recalculate()

	assert.Equal(t, "100", s.Items[0].Total.String())
	assert.Equal(t, "105", s.TotalAmount.String())
}
