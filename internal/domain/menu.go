package domain

import "github.com/shopspring/decimal"

// MenuItem is the slice of the catalog the order flow needs: price snapshot
// source and availability flag. Menu management itself lives elsewhere.
type MenuItem struct {
	MenuItemID   string          `json:"menuItemId"`
	RestaurantID string          `json:"restaurantId"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	IsAvailable  bool            `json:"isAvailable"`
}
