package gate

import "time"

// Badge is the collectible artifact issued once a session is accepted.
// Immutable after creation.
type Badge struct {
	Portrait string    `json:"portrait,omitempty"`
	Tagline  string    `json:"tagline"`
	Score    float64   `json:"score"`
	Paid     bool      `json:"paid"`
	AmountAE float64   `json:"amountAe,omitempty"`
	IssuedAt time.Time `json:"issuedAt"`
}
