package models

import (
	"encoding/json"
	"time"
)

// Car represents a single vehicle in the salvage inventory
type Car struct {
	ID            string          `json:"id" db:"id"`
	VIN           string          `json:"vin" db:"vin"`
	Make          string          `json:"make" db:"make"`
	Model         string          `json:"model" db:"model"`
	Year          int             `json:"year" db:"year"`
	Color         string          `json:"color,omitempty" db:"color"`
	Condition     string          `json:"condition" db:"car_condition"`
	Mileage       int             `json:"mileage,omitempty" db:"mileage"`
	Location      string          `json:"location,omitempty" db:"location"`
	PurchaseDate  *time.Time      `json:"purchaseDate,omitempty" db:"purchase_date"`
	PurchasePrice float64         `json:"purchasePrice,omitempty" db:"purchase_price"`
	CreatedBy     string          `json:"createdBy" db:"created_by"`
	VINData       json.RawMessage `json:"vinData,omitempty" db:"vin_data"`
	IsArchived    bool            `json:"isArchived" db:"is_archived"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// CarConditionCount holds the number of cars in a single condition
type CarConditionCount struct {
	Condition string `json:"condition"`
	Count     int64  `json:"count"`
}

// CarStats holds aggregate statistics over active (non-archived) cars
type CarStats struct {
	Total         int64               `json:"total"`
	ByCondition   []CarConditionCount `json:"byCondition"`
	RecentlyAdded int64               `json:"recentlyAdded"`
}

// CarFilter narrows List queries over active cars
type CarFilter struct {
	Make      string
	Condition string
	Limit     int
	Offset    int
}
