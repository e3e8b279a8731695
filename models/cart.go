package models

import "time"

// CartItem is a single dish line inside a cart.
type CartItem struct {
	Dish     string `json:"dish" bson:"dish"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

// Cart is the single active basket of a customer. All items belong to CookID.
type Cart struct {
	ID             string     `json:"_id" bson:"_id"`
	User           string     `json:"user" bson:"user"`
	CartItems      []CartItem `json:"cartItems" bson:"cartItems"`
	CookID         *string    `json:"cookID" bson:"cookID"`
	TotalCartPrice float64    `json:"totalCartPrice" bson:"totalCartPrice"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Item returns the line for dishID, or nil.
func (c *Cart) Item(dishID string) *CartItem {
	for i := range c.CartItems {
		if c.CartItems[i].Dish == dishID {
			return &c.CartItems[i]
		}
	}
	return nil
}

// RemoveItem drops the line for dishID. It resets the cook pin once the cart is empty.
func (c *Cart) RemoveItem(dishID string) {
	for i := range c.CartItems {
		if c.CartItems[i].Dish == dishID {
			c.CartItems = append(c.CartItems[:i], c.CartItems[i+1:]...)
			break
		}
	}
	if len(c.CartItems) == 0 {
		c.CookID = nil
		c.TotalCartPrice = 0
	}
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.CartItems) == 0
}
