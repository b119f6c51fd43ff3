package service

import (
	"context"
	"testing"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	"rotuprinters/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bannerLine() QuotationItemInput {
	return QuotationItemInput{
		Description:        "Banner 10x5",
		WidthInches:        pricing.Number(10),
		HeightInches:       pricing.Number(5),
		PricePerSquareInch: pricing.Number(2),
		Quantity:           pricing.Number(1),
	}
}

func TestCreateQuotation_TotalsAndReadBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Rotulos Sur")

	created, err := f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{
		ClientID: c.ID,
		ApplyTax: true,
		Items:    []QuotationItemInput{bannerLine()},
	})
	require.NoError(t, err)
	assert.Equal(t, "COT-000001", created.QuotationNumber)
	assert.Equal(t, model.QuotationPending, created.Status)
	assert.Equal(t, "100.00", created.Subtotal)
	assert.Equal(t, "15.00", created.TaxAmount)
	assert.Equal(t, "115.00", created.TotalAmount)
	require.Len(t, created.Items, 1)
	assert.Equal(t, "50.00", created.Items[0].SquareInches)
	assert.Equal(t, "100.00", created.Items[0].Total)

	read, err := f.quotations.GetQuotation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Items, read.Items)
	assert.Equal(t, created.TotalAmount, read.TotalAmount)
	assert.Equal(t, "Rotulos Sur", read.ClientName)

	second, err := f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{
		ClientID: c.ID,
		Items:    []QuotationItemInput{bannerLine()},
	})
	require.NoError(t, err)
	assert.Equal(t, "COT-000002", second.QuotationNumber)
	assert.Equal(t, "100.00", second.TotalAmount)
}

func TestCreateQuotation_IncompleteLineIsZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Rotulos Sur")
	p := f.product(t, "Vinyl", 10, 1)

	line := bannerLine()
	line.ProductID = p.ID
	line.WidthInches = pricing.Input{}
	full := bannerLine()
	full.ProductID = p.ID
	q, err := f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{
		ClientID: c.ID,
		Items:    []QuotationItemInput{full, line},
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", q.Items[1].Total)
	assert.Equal(t, "100.00", q.Subtotal)

	approved, err := f.quotations.ApproveQuotation(ctx, testActor, q.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuotationApproved, approved.Status)
	assert.Equal(t, "100.00", approved.TotalAmount)

	// Selling needs every line fully priced; the quotation stays approved.
	_, err = f.sales.CreateFromQuotation(ctx, testActor, FromQuotationRequest{QuotationID: q.ID})
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.quotations.GetQuotation(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuotationApproved, got.Status)
}

func TestCreateQuotation_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Rotulos Sur")

	_, err := f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{
		ClientID: uuid.NewString(),
		Items:    []QuotationItemInput{bannerLine()},
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{
		ClientID:           c.ID,
		Items:              []QuotationItemInput{bannerLine()},
		DiscountPercentage: decimal.NewFromInt(-1),
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{
		ClientID:   c.ID,
		Items:      []QuotationItemInput{bannerLine()},
		ValidUntil: "31/12/2026",
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	fractional := bannerLine()
	fractional.Quantity = pricing.Number(1.5)
	_, err = f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{
		ClientID: c.ID,
		Items:    []QuotationItemInput{fractional},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "items[0].quantity")

	whole := bannerLine()
	whole.Quantity = pricing.Input{NullDecimal: decimal.NewNullDecimal(decimal.RequireFromString("2.00"))}
	q, err := f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{
		ClientID: c.ID,
		Items:    []QuotationItemInput{whole},
	})
	require.NoError(t, err)
	assert.Equal(t, "200.00", q.TotalAmount)
}

func TestUpdateQuotation_RejectsFractionalQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Rotulos Sur")
	q, err := f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{ClientID: c.ID, Items: []QuotationItemInput{bannerLine()}})
	require.NoError(t, err)

	line := bannerLine()
	line.Quantity = pricing.Number(0.5)
	_, err = f.quotations.UpdateQuotation(ctx, testActor, q.ID, QuotationRequest{ClientID: c.ID, Items: []QuotationItemInput{line}})
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.quotations.GetQuotation(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.TotalAmount)
}

func TestQuotationTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Rotulos Sur")
	req := QuotationRequest{ClientID: c.ID, Items: []QuotationItemInput{bannerLine()}}

	approved, err := f.quotations.CreateQuotation(ctx, testActor, req)
	require.NoError(t, err)
	res, err := f.quotations.ApproveQuotation(ctx, testActor, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuotationApproved, res.Status)

	_, err = f.quotations.ApproveQuotation(ctx, testActor, approved.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = f.quotations.RejectQuotation(ctx, testActor, approved.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = f.quotations.UpdateQuotation(ctx, testActor, approved.ID, req)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	rejected, err := f.quotations.CreateQuotation(ctx, testActor, req)
	require.NoError(t, err)
	res, err = f.quotations.RejectQuotation(ctx, testActor, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuotationRejected, res.Status)
	_, err = f.quotations.ApproveQuotation(ctx, testActor, rejected.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.quotations.ApproveQuotation(ctx, testActor, uuid.NewString())
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.quotations.ApproveQuotation(ctx, testActor, "not-a-uuid")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateQuotation_Recalculates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Rotulos Sur")

	q, err := f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{ClientID: c.ID, Items: []QuotationItemInput{bannerLine()}})
	require.NoError(t, err)

	line := bannerLine()
	line.Quantity = pricing.Number(3)
	updated, err := f.quotations.UpdateQuotation(ctx, testActor, q.ID, QuotationRequest{
		ClientID:           c.ID,
		Items:              []QuotationItemInput{line},
		DiscountPercentage: decimal.NewFromInt(10),
		ApplyTax:           true,
	})
	require.NoError(t, err)
	assert.Equal(t, "300.00", updated.Subtotal)
	assert.Equal(t, "30.00", updated.DiscountAmount)
	assert.Equal(t, "45.00", updated.TaxAmount)
	assert.Equal(t, "315.00", updated.TotalAmount)
	assert.Len(t, updated.Items, 1)
}

func TestQuotationDeleteBulk_SkipsConverted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	converted, _ := approvedQuotation(t, f)
	_, err := f.sales.CreateFromQuotation(ctx, testActor, FromQuotationRequest{QuotationID: converted.ID})
	require.NoError(t, err)

	c := f.client(t, "Otro")
	pending, err := f.quotations.CreateQuotation(ctx, testActor, QuotationRequest{ClientID: c.ID, Items: []QuotationItemInput{bannerLine()}})
	require.NoError(t, err)
	missing := uuid.NewString()

	res, err := f.quotations.DeleteBulk(ctx, testActor, []string{converted.ID, pending.ID, missing, pending.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Contains(t, res.Skipped, converted.ID)
	assert.Contains(t, res.Skipped, missing)

	_, err = f.quotations.GetQuotation(ctx, pending.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.quotations.GetQuotation(ctx, converted.ID)
	require.NoError(t, err)

	err = f.quotations.DeleteQuotation(ctx, testActor, converted.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}
