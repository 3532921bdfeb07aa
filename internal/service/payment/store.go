package payment

import (
	"sync"

	"github.com/aegatekeeper/backend/internal/model/payment"
)

// Store persists verified payments keyed by transaction hash. PutIfAbsent
// must be atomic: when two verifications race on the same hash, exactly one
// insert wins and the loser receives the winner's record.
type Store interface {
	Get(txHash string) (payment.VerifiedPayment, bool, error)
	PutIfAbsent(rec payment.VerifiedPayment) (payment.VerifiedPayment, bool, error)
	Close() error
}

// MemoryStore is the default volatile store; verified payments live for the
// process lifetime only.
type MemoryStore struct {
	mu       sync.Mutex
	payments map[string]payment.VerifiedPayment
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{payments: make(map[string]payment.VerifiedPayment)}
}

// Get looks up a verified payment by hash.
func (s *MemoryStore) Get(txHash string) (payment.VerifiedPayment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.payments[txHash]
	return rec, ok, nil
}

// PutIfAbsent inserts the record unless the hash is already present. The
// check and insert happen under one lock, so concurrent verifications of
// the same hash cannot both win.
func (s *MemoryStore) PutIfAbsent(rec payment.VerifiedPayment) (payment.VerifiedPayment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.payments[rec.TxHash]; ok {
		return existing, false, nil
	}
	s.payments[rec.TxHash] = rec
	return rec, true, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
