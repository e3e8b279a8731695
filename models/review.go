package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer's rating of a dish they received.
type Review struct {
	ID        string    `json:"_id" bson:"_id"`
	Dish      string    `json:"dish" bson:"dish"`
	User      string    `json:"user" bson:"user"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
