package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressStringSkipsEmptyParts(t *testing.T) {
	a := Address{City: "Izmir", Neighborhood: "Alsancak", StreetAddress: " 12 Kordon "}
	assert.Equal(t, "Izmir, Alsancak, 12 Kordon", a.String())
	assert.Equal(t, "", Address{}.String())
}

func TestCartRemoveLastItemResetsCook(t *testing.T) {
	cook := "cook-1"
	c := &Cart{
		CartItems:      []CartItem{{Dish: "d1", Quantity: 1}},
		CookID:         &cook,
		TotalCartPrice: 10,
	}

	c.RemoveItem("d1")

	assert.True(t, c.Empty())
	assert.Nil(t, c.CookID)
	assert.Zero(t, c.TotalCartPrice)
}

func TestCartItemLookup(t *testing.T) {
	c := &Cart{CartItems: []CartItem{{Dish: "a", Quantity: 2}, {Dish: "b", Quantity: 1}}}
	item := c.Item("b")
	if assert.NotNil(t, item) {
		item.Quantity = 5
	}
	assert.Equal(t, 5, c.CartItems[1].Quantity)
	assert.Nil(t, c.Item("zzz"))
}
