package models

import "time"

const PaymentCash = "cash"

// OrderItem is a snapshot of a cart line taken at checkout.
type OrderItem struct {
	Dish     string  `json:"dish" bson:"dish"`
	Name     string  `json:"name" bson:"name"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Price    float64 `json:"price" bson:"price"` // unit price at checkout
}

type Order struct {
	ID                string      `json:"_id" bson:"_id"`
	User              string      `json:"user" bson:"user"`
	CookID            string      `json:"cookId" bson:"cookId"`
	OrderItems        []OrderItem `json:"orderItems" bson:"orderItems"`
	DeliveryFee       float64     `json:"deliveryFee" bson:"deliveryFee"`
	TotalOrderPrice   float64     `json:"totalOrderPrice" bson:"totalOrderPrice"`
	DeliveryAddress   string      `json:"deliveryAddress" bson:"deliveryAddress"`
	PaymentMethodType string      `json:"paymentMethodType" bson:"paymentMethodType"`
	IsPaid            bool        `json:"isPaid" bson:"isPaid"`
	PaidAt            *time.Time  `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	IsDelivered       bool        `json:"isDelivered" bson:"isDelivered"`
	DeliveredAt       *time.Time  `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CreatedAt         time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// OrderEvent is published on the order event channel.
type OrderEvent struct {
	Type      string    `json:"type"` // "order.created" or "order.status"
	OrderID   string    `json:"orderId"`
	CookID    string    `json:"cookId"`
	UserID    string    `json:"userId"`
	Total     float64   `json:"total"`
	Items     int       `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}
