package gate

import (
	"time"

	"github.com/aegatekeeper/backend/internal/model/payment"
)

// Acceptance is the terminal outcome of a gate conversation. A session is
// either still pending or was accepted by exactly one of the two paths;
// the two paths are mutually exclusive by construction.
type Acceptance string

const (
	AcceptancePending Acceptance = "pending"
	AcceptedByScore   Acceptance = "accepted_by_score"
	AcceptedByPayment Acceptance = "accepted_by_payment"
)

// Terminal reports whether the session reached an irreversible outcome.
func (a Acceptance) Terminal() bool {
	return a == AcceptedByScore || a == AcceptedByPayment
}

// Session captures one guest's conversation with the doorkeeper.
type Session struct {
	ID        string `json:"id"`
	PersonaID string `json:"personaId"`

	GuestName  string `json:"guestName"`
	GuestSite  string `json:"guestSite,omitempty"`
	GuestAbout string `json:"guestAbout,omitempty"`

	// PhotoDataURL is kept for the free badge path; it is large and never
	// serialized back to the client.
	PhotoDataURL string `json:"-"`

	// OutfitNote and FullDescription come from the image analyzer and seed
	// the persona context and the paid badge prompt respectively.
	OutfitNote      string `json:"outfitNote,omitempty"`
	FullDescription string `json:"-"`

	Turns           int               `json:"turns"`
	Score           Score             `json:"score"`
	Acceptance      Acceptance        `json:"acceptance"`
	PendingProposal *payment.Proposal `json:"pendingProposal,omitempty"`
	Badge           *Badge            `json:"badge,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
