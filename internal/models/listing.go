package models

import "time"

// Listing is a farmer's sellable item.
type Listing struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       float64      `json:"price"`
	Unit        string       `json:"unit,omitempty"`
	Quantity    float64      `json:"quantity"`
	Category    string       `json:"category"`
	ImageURL    string       `json:"image_url,omitempty"`
	FarmerID    string       `json:"farmer_id"`
	Farmer      *Counterpart `json:"farmer,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
