package models

import (
	"math"
	"time"
)

// Review is feedback from a buyer to a farmer.
type Review struct {
	ID        string       `json:"id"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	BuyerID   string       `json:"buyer_id"`
	FarmerID  string       `json:"farmer_id"`
	OrderID   string       `json:"order_id,omitempty"`
	Buyer     *Counterpart `json:"buyer,omitempty"`
	Farmer    *Counterpart `json:"farmer,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// AverageRating returns the mean rating rounded to one decimal place, or 0 for no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}
