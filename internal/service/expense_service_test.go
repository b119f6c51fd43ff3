package service

import (
	"context"
	"testing"

	"rotuprinters/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenses_FilterAndTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, req := range []ExpenseRequest{
		{Description: "Ink refill", Date: "2026-03-02", Amount: "120.50"},
		{Description: "Vinyl roll", Date: "2026-03-20", Amount: "300"},
		{Description: "Electricity", Date: "2026-05-01", Amount: "80"},
	} {
		_, err := f.expenses.CreateExpense(ctx, testActor, req)
		require.NoError(t, err)
	}

	march, err := f.expenses.ListExpenses(ctx, ExpenseQuery{StartDate: "2026-03-01", EndDate: "2026-03-31", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), march.Total)
	assert.Equal(t, "420.50", march.TotalAmount)
	require.Len(t, march.Items, 2)
	assert.Equal(t, "Vinyl roll", march.Items[0].Description, "newest first")

	search, err := f.expenses.ListExpenses(ctx, ExpenseQuery{Search: "ink", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), search.Total)

	_, err = f.expenses.ListExpenses(ctx, ExpenseQuery{StartDate: "03/01/2026", Page: 1, Limit: 20})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestExpenses_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.expenses.CreateExpense(ctx, testActor, ExpenseRequest{Description: "Bad", Date: "2026-03-02", Amount: "-5"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.expenses.CreateExpense(ctx, testActor, ExpenseRequest{Description: "Bad", Date: "2026-03-02", Amount: "abc"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestExpenses_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.expenses.CreateExpense(ctx, testActor, ExpenseRequest{Description: "Ink", Date: "2026-03-02", Amount: "10"})
	require.NoError(t, err)

	updated, err := f.expenses.UpdateExpense(ctx, testActor, e.ID, ExpenseRequest{Description: "Ink cyan", Date: "2026-03-03", Amount: "12.25"})
	require.NoError(t, err)
	assert.Equal(t, "Ink cyan", updated.Description)
	assert.Equal(t, "12.25", updated.Amount)

	require.NoError(t, f.expenses.DeleteExpense(ctx, testActor, e.ID))
	_, err = f.expenses.GetExpense(ctx, e.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
