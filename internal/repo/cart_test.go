package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCart_GetOrCreateReturnsSameCart(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first, err := r.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	second, err := r.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := r.GetOrCreateCart(ctx, "user-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCart_AddItemIncrementsExistingLine(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	p := seedProduct(t, r, "Card", "10.00")
	cart, err := r.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)

	first, err := r.AddItem(ctx, cart.ID, p.ID, 1, p.Price)
	require.NoError(t, err)
	second, err := r.AddItem(ctx, cart.ID, p.ID, 1, p.Price)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)

	loaded, err := r.LoadCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
	require.NotNil(t, loaded.Items[0].Product)
	assert.Equal(t, "Card", loaded.Items[0].Product.Name)
}

func TestCart_DecrementStopsAtOne(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	p := seedProduct(t, r, "Card", "10.00")
	cart, err := r.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	item, err := r.AddItem(ctx, cart.ID, p.ID, 1, p.Price)
	require.NoError(t, err)

	n, err := r.DecrementQuantity(ctx, cart.ID, item.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = r.IncrementQuantity(ctx, cart.ID, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = r.DecrementQuantity(ctx, cart.ID, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := r.FindItem(ctx, cart.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
}

func TestCart_ItemsAreScopedToTheirCart(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	p := seedProduct(t, r, "Card", "10.00")
	mine, err := r.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	theirs, err := r.GetOrCreateCart(ctx, "user-2")
	require.NoError(t, err)

	item, err := r.AddItem(ctx, mine.ID, p.ID, 1, p.Price)
	require.NoError(t, err)

	_, err = r.FindItem(ctx, theirs.ID, item.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	n, err := r.DeleteItem(ctx, theirs.ID, item.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = r.DeleteItem(ctx, mine.ID, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCart_ClearKeepsCartRow(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := seedProduct(t, r, "A", "10.00")
	b := seedProduct(t, r, "B", "5.00")
	cart, err := r.GetOrCreateCart(ctx, "user-1")
	require.NoError(t, err)
	_, err = r.AddItem(ctx, cart.ID, a.ID, 2, a.Price)
	require.NoError(t, err)
	_, err = r.AddItem(ctx, cart.ID, b.ID, 1, b.Price)
	require.NoError(t, err)

	require.NoError(t, r.ClearCart(ctx, cart.ID))

	loaded, err := r.LoadCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, loaded.ID)
	assert.Empty(t, loaded.Items)
}
