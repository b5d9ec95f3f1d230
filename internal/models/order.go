package models

import "time"

// Order statuses stored by the backend.
const (
	OrderPending   = "pending"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// Order links a buyer, a farmer, and an amount.
type Order struct {
	ID        string    `json:"id"`
	BuyerID   string    `json:"buyer_id"`
	FarmerID  string    `json:"farmer_id"`
	ListingID string    `json:"listing_id,omitempty"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SumAmounts totals the amount of every order with the given status.
func SumAmounts(orders []Order, status string) float64 {
	var total float64
	for _, o := range orders {
		if o.Status == status {
			total += o.Amount
		}
	}
	return total
}

// CountStatus counts orders with the given status.
func CountStatus(orders []Order, status string) int {
	n := 0
	for _, o := range orders {
		if o.Status == status {
			n++
		}
	}
	return n
}
