package models

import "time"

var DishCategories = []string{"breakfast", "lunch", "snack", "dinner", "drink", "dessert"}

type Dish struct {
	ID                string    `json:"_id" bson:"_id"`
	Name              string    `json:"name" bson:"name"`
	Cook              string    `json:"cook" bson:"cook"`
	Description       string    `json:"description" bson:"description"`
	Images            []string  `json:"images" bson:"images"`
	Price             float64   `json:"price" bson:"price"`
	Quantity          int       `json:"quantity" bson:"quantity"`
	Category          string    `json:"category" bson:"category"`
	SpecificAllergies []string  `json:"specificAllergies" bson:"specificAllergies"`
	SoldOut           bool      `json:"soldOut" bson:"soldOut"`
	RatingsAverage    float64   `json:"ratingsAverage" bson:"ratingsAverage"`
	RatingsQuantity   int       `json:"ratingsQuantity" bson:"ratingsQuantity"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}
