package models

import (
	"strings"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleCook     = "cook"
	RoleAdmin    = "admin"
)

type Address struct {
	City          string `json:"city" bson:"city"`
	District      string `json:"district,omitempty" bson:"district,omitempty"`
	Neighborhood  string `json:"neighborhood,omitempty" bson:"neighborhood,omitempty"`
	StreetAddress string `json:"streetAddress,omitempty" bson:"streetAddress,omitempty"`
}

// String renders the address the way it is printed on an order.
func (a Address) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.City, a.District, a.Neighborhood, a.StreetAddress} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type User struct {
	ID           string    `json:"_id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"role" bson:"role"`
	Address      Address   `json:"address" bson:"address"`
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`
	IsActive     bool      `json:"isActive" bson:"isActive"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
