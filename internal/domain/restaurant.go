package domain

import "time"

type Restaurant struct {
	RestaurantID string    `json:"restaurantId"`
	OwnerID      string    `json:"ownerId"`
	Name         string    `json:"name"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
