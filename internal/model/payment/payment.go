package payment

import "time"

// Proposal is the price-and-payer directive extracted from doorkeeper
// output. Immutable once created; consumed by the verifier.
type Proposal struct {
	AmountAE float64 `json:"amountAe"`
	Payer    string  `json:"payer"`
	Memo     string  `json:"memo"`
}

// VerifiedPayment records a successfully verified spend, keyed by its
// transaction hash. Re-verifying the same hash returns this record instead
// of querying the chain again.
type VerifiedPayment struct {
	TxHash     string    `json:"txHash"`
	Payer      string    `json:"payer"`
	AmountAE   float64   `json:"amountAe"`
	VerifiedAt time.Time `json:"verifiedAt"`
}
