package service

import (
	"context"
	"testing"

	"rotuprinters/internal/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClients_CRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.clients.CreateClient(ctx, testActor, CreateClientRequest{Name: "  Imprenta Norte ", Phone: "9999-0000"})
	require.NoError(t, err)
	assert.Equal(t, "Imprenta Norte", c.Name)
	assert.True(t, c.IsActive)

	company := "Norte S.A."
	updated, err := f.clients.UpdateClient(ctx, testActor, c.ID, UpdateClientRequest{Company: &company})
	require.NoError(t, err)
	assert.Equal(t, company, updated.Company)
	assert.Equal(t, "9999-0000", updated.Phone)

	list, total, err := f.clients.ListClients(ctx, ClientQuery{Search: "norte", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)

	require.NoError(t, f.clients.DeleteClient(ctx, testActor, c.ID))
	got, err := f.clients.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = f.clients.GetClient(ctx, uuid.NewString())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
