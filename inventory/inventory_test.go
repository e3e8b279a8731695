package inventory

import (
	"context"
	"net/http"
	"testing"

	"homecook/models"
	"homecook/store"
	"homecook/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Accessor, *store.Store) {
	t.Helper()
	s := store.NewMemory().Store()
	require.NoError(t, s.Dishes.Insert(context.Background(), &models.Dish{ID: "soup", Quantity: 2, Price: 4}))
	return New(s.Dishes), s
}

func TestGetMissingDish(t *testing.T) {
	a, _ := setup(t)
	_, err := a.Get(context.Background(), "nope")
	assert.True(t, utils.IsStatus(err, http.StatusBadRequest))
}

func TestDecrementToSoldOut(t *testing.T) {
	a, _ := setup(t)
	d, err := a.Decrement(context.Background(), "soup", 2)
	require.NoError(t, err)
	assert.Zero(t, d.Quantity)
	assert.True(t, d.SoldOut)
}

func TestDecrementMoreThanStockConflicts(t *testing.T) {
	a, s := setup(t)
	_, err := a.Decrement(context.Background(), "soup", 3)
	assert.True(t, utils.IsStatus(err, http.StatusConflict))

	d, err := s.Dishes.Get(context.Background(), "soup")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Quantity)
}

func TestDecrementRejectsNonPositive(t *testing.T) {
	a, _ := setup(t)
	_, err := a.Decrement(context.Background(), "soup", 0)
	assert.True(t, utils.IsStatus(err, http.StatusBadRequest))
}

func TestSetQuantityClearsSoldOut(t *testing.T) {
	a, s := setup(t)
	ctx := context.Background()
	_, err := a.Decrement(ctx, "soup", 2)
	require.NoError(t, err)

	d, err := a.SetQuantity(ctx, "soup", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, d.Quantity)
	assert.False(t, d.SoldOut)

	d, err = s.Dishes.Get(ctx, "soup")
	require.NoError(t, err)
	assert.Equal(t, 7, d.Quantity)
	assert.Equal(t, 4.0, d.Price)

	_, err = a.SetQuantity(ctx, "soup", -1)
	assert.True(t, utils.IsStatus(err, http.StatusBadRequest))
	_, err = a.SetQuantity(ctx, "nope", 1)
	assert.True(t, utils.IsStatus(err, http.StatusBadRequest))
}
