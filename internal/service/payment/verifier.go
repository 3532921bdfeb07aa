package payment

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/aegatekeeper/backend/internal/apperr"
	"github.com/aegatekeeper/backend/internal/model/payment"
)

// Fee bounds in display units, inclusive.
const (
	MinAmountAE = 0.001
	MaxAmountAE = 0.5
)

// VerifyRequest names the payment the caller claims to have made.
type VerifyRequest struct {
	TxHash           string  `json:"txHash"`
	ExpectedAmountAE float64 `json:"expectedAmountAE"`
	Payer            string  `json:"payer"`
}

// VerifyResult reports a successful verification. AlreadyVerified is set
// when the hash had been verified before; the chain is not re-queried in
// that case.
type VerifyResult struct {
	TxHash          string  `json:"txHash"`
	Payer           string  `json:"payer"`
	AmountAE        float64 `json:"amountAE"`
	AlreadyVerified bool    `json:"alreadyVerified,omitempty"`
}

// Verifier checks claimed payments against the chain and records the ones
// that pass. Verification is idempotent per transaction hash.
type Verifier struct {
	chain    ChainClient
	store    Store
	receiver string
}

// NewVerifier wires a verifier to a chain client, a store, and the
// event-receiver address payments must be sent to.
func NewVerifier(chain ChainClient, store Store, receiver string) *Verifier {
	return &Verifier{chain: chain, store: store, receiver: receiver}
}

// Verify runs the validation pipeline, short-circuiting on the first
// failure. Validation errors mean the payment is invalid; chain-query
// errors mean the payment could not be checked.
func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if req.TxHash == "" || req.Payer == "" || req.ExpectedAmountAE == 0 {
		return nil, apperr.Validationf("missing fields: txHash, expectedAmountAE and payer are required")
	}
	if req.ExpectedAmountAE < MinAmountAE || req.ExpectedAmountAE > MaxAmountAE {
		return nil, apperr.Validationf("amount out of range: %g AE is outside [%g, %g]",
			req.ExpectedAmountAE, MinAmountAE, MaxAmountAE)
	}

	if rec, ok, err := v.store.Get(req.TxHash); err != nil {
		return nil, fmt.Errorf("payment store: %w", err)
	} else if ok {
		return &VerifyResult{
			TxHash:          rec.TxHash,
			Payer:           rec.Payer,
			AmountAE:        rec.AmountAE,
			AlreadyVerified: true,
		}, nil
	}

	tx, err := v.chain.TransactionByHash(ctx, req.TxHash)
	if err != nil {
		if errors.Is(err, ErrTxNotFound) {
			return nil, apperr.Upstreamf("chain query", err)
		}
		return nil, err
	}

	if tx.Type != SpendTxType {
		return nil, apperr.Validationf("wrong tx type: expected %s, got %s", SpendTxType, tx.Type)
	}

	expected, err := payment.ToAettos(req.ExpectedAmountAE)
	if err != nil {
		return nil, apperr.Validationf("invalid amount: %v", err)
	}

	if tx.RecipientID != v.receiver {
		return nil, apperr.Validationf("wrong recipient: payment went to %s, not the event address", tx.RecipientID)
	}
	actual := tx.Amount
	if actual == nil {
		actual = new(big.Int)
	}
	if expected.Cmp(actual) != 0 {
		return nil, apperr.Validationf("amount mismatch: expected %s aettos, got %s aettos",
			expected.String(), actual.String())
	}
	if tx.SenderID != req.Payer {
		return nil, apperr.Validationf("sender mismatch: transaction was sent by %s, not %s", tx.SenderID, req.Payer)
	}

	rec, inserted, err := v.store.PutIfAbsent(payment.VerifiedPayment{
		TxHash:     req.TxHash,
		Payer:      req.Payer,
		AmountAE:   req.ExpectedAmountAE,
		VerifiedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("payment store: %w", err)
	}

	// A losing racer on the same hash gets the winning record back.
	return &VerifyResult{
		TxHash:          rec.TxHash,
		Payer:           rec.Payer,
		AmountAE:        rec.AmountAE,
		AlreadyVerified: !inserted,
	}, nil
}
