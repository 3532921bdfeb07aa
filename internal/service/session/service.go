// Package session owns gate conversation state: sessions, their append-only
// transcripts, and the irreversible acceptance transition.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegatekeeper/backend/internal/model/gate"
	"github.com/aegatekeeper/backend/internal/model/payment"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session already resolved")
	ErrSystemTurnOrder = errors.New("system turn must come first and only once")
)

// Service is the in-memory session store. State is volatile by design;
// a gate conversation does not outlive the process.
type Service struct {
	mu          sync.RWMutex
	sessions    map[string]*gate.Session
	transcripts map[string][]gate.Turn
}

// NewService bootstraps the in-memory store.
func NewService() *Service {
	return &Service{
		sessions:    make(map[string]*gate.Session),
		transcripts: make(map[string][]gate.Turn),
	}
}

// Create provisions a session from guest metadata. ID, timestamps and the
// pending acceptance state are assigned here.
func (s *Service) Create(_ context.Context, sess gate.Session) (gate.Session, error) {
	if sess.PersonaID == "" {
		return gate.Session{}, errors.New("persona id is required")
	}

	sess.ID = uuid.NewString()
	sess.CreatedAt = time.Now().UTC()
	sess.Acceptance = gate.AcceptancePending

	s.mu.Lock()
	s.sessions[sess.ID] = &sess
	s.transcripts[sess.ID] = make([]gate.Turn, 0, 16)
	s.mu.Unlock()

	return sess, nil
}

// AppendTurn adds a turn to the transcript. The transcript is append-only;
// a system turn is legal only as the very first entry.
func (s *Service) AppendTurn(_ context.Context, sessionID string, turn gate.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcript, ok := s.transcripts[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	if turn.Role == gate.RoleSystem && len(transcript) > 0 {
		return ErrSystemTurnOrder
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	s.transcripts[sessionID] = append(transcript, turn)
	return nil
}

// Get retrieves a session snapshot by identifier.
func (s *Service) Get(_ context.Context, sessionID string) (gate.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return gate.Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

// Transcript returns a copy of the stored turns for the session.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]gate.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transcript, ok := s.transcripts[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]gate.Turn, len(transcript))
	copy(copied, transcript)
	return copied, nil
}

// AdvanceTurn increments the turn counter and returns the new count.
func (s *Service) AdvanceTurn(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return 0, ErrSessionNotFound
	}
	if sess.Acceptance.Terminal() {
		return sess.Turns, ErrSessionClosed
	}

	sess.Turns++
	return sess.Turns, nil
}

// MergeScore folds a per-turn score delta into the session score and
// returns the accumulated value.
func (s *Service) MergeScore(_ context.Context, sessionID string, delta gate.Score) (gate.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return gate.Score{}, ErrSessionNotFound
	}

	sess.Score = sess.Score.Merge(delta)
	return sess.Score, nil
}

// SetPendingProposal parks a payment proposal on the session until the
// guest settles it. Terminal sessions reject new proposals.
func (s *Service) SetPendingProposal(_ context.Context, sessionID string, proposal payment.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if sess.Acceptance.Terminal() {
		return ErrSessionClosed
	}

	sess.PendingProposal = &proposal
	return nil
}

// Accept transitions the session to a terminal outcome and attaches the
// badge. The transition is irreversible: a second call fails.
func (s *Service) Accept(_ context.Context, sessionID string, outcome gate.Acceptance, badge gate.Badge) error {
	if !outcome.Terminal() {
		return errors.New("accept requires a terminal outcome")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if sess.Acceptance.Terminal() {
		return ErrSessionClosed
	}

	sess.Acceptance = outcome
	sess.Badge = &badge
	sess.PendingProposal = nil
	return nil
}
