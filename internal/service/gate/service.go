// Package gate orchestrates a doorkeeper conversation: analyzers feed the
// opening context, the model drives the dialogue, the scorer and the turn
// pacing decide when the door opens, and badges seal the outcome.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aegatekeeper/backend/internal/apperr"
	"github.com/aegatekeeper/backend/internal/fsm"
	"github.com/aegatekeeper/backend/internal/model/gate"
	"github.com/aegatekeeper/backend/internal/model/payment"
	"github.com/aegatekeeper/backend/internal/model/persona"
	"github.com/aegatekeeper/backend/internal/service/analyze"
	"github.com/aegatekeeper/backend/internal/service/badge"
	paysvc "github.com/aegatekeeper/backend/internal/service/payment"
	"github.com/aegatekeeper/backend/internal/service/session"
	"github.com/aegatekeeper/backend/internal/toolcall"
)

var (
	ErrModelUnavailable    = errors.New("chat model is not configured")
	ErrPaymentsUnavailable = errors.New("payment verification is not configured")
	ErrNoPendingProposal   = errors.New("session has no pending payment proposal")
)

const maxTaglineLen = 64

// Replier is the slice of the AI service the orchestrator needs; it is an
// interface so tests can run the full flow against a scripted model.
type Replier interface {
	ReplyTo(ctx context.Context, systemPrompt string, history []gate.Turn, query string) (string, error)
	Generate(ctx context.Context, turns []gate.Turn, temperature *float32, maxTokens *int) (string, error)
}

// Scorer scores one guest utterance in context.
type Scorer interface {
	ScoreTurn(ctx context.Context, doorkeeper *persona.Persona, history []gate.Turn, utterance string) gate.Score
}

// Verifier checks a claimed payment against the chain.
type Verifier interface {
	Verify(ctx context.Context, req paysvc.VerifyRequest) (*paysvc.VerifyResult, error)
}

// Service wires the gate flow together. The model, scorer and verifier are
// optional; operations that need a missing collaborator fail with a typed
// sentinel the handlers map to 503.
type Service struct {
	sessions *session.Service
	personas persona.Store
	replier  Replier
	scorer   Scorer
	website  *analyze.WebsiteAnalyzer
	image    *analyze.ImageAnalyzer
	badges   *badge.Service
	verifier Verifier
}

// NewService builds the orchestrator. replier, scorer and verifier may be
// nil; website and image analyzers and the badge service must be set.
func NewService(
	sessions *session.Service,
	personas persona.Store,
	replier Replier,
	scorer Scorer,
	website *analyze.WebsiteAnalyzer,
	image *analyze.ImageAnalyzer,
	badges *badge.Service,
	verifier Verifier,
) *Service {
	return &Service{
		sessions: sessions,
		personas: personas,
		replier:  replier,
		scorer:   scorer,
		website:  website,
		image:    image,
		badges:   badges,
		verifier: verifier,
	}
}

// StartRequest carries the door form a guest fills in before the
// conversation begins.
type StartRequest struct {
	Name         string `json:"name"`
	Site         string `json:"site,omitempty"`
	About        string `json:"about,omitempty"`
	PhotoDataURL string `json:"photoDataUrl,omitempty"`
	PersonaID    string `json:"personaId,omitempty"`
}

// StartResult is the opening state of a new conversation.
type StartResult struct {
	Session gate.Session `json:"session"`
	Reply   string       `json:"reply"`
	Phase   fsm.Phase    `json:"phase"`
}

// TurnResult is the outcome of one negotiation turn.
type TurnResult struct {
	Reply    string            `json:"reply"`
	Phase    fsm.Phase         `json:"phase"`
	Turns    int               `json:"turns"`
	Outcome  gate.Acceptance   `json:"outcome"`
	Proposal *payment.Proposal `json:"proposal,omitempty"`
	Badge    *gate.Badge       `json:"badge,omitempty"`
}

// StartSession analyzes the guest's site and photo, seeds the transcript and
// runs the doorkeeper's opening line.
func (s *Service) StartSession(ctx context.Context, req StartRequest) (*StartResult, error) {
	if s.replier == nil {
		return nil, ErrModelUnavailable
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validationf("name is required")
	}

	personaID := req.PersonaID
	if personaID == "" {
		personaID = persona.DefaultID
	}
	doorkeeper, ok := s.personas.FindByID(personaID)
	if !ok {
		return nil, apperr.Validationf("unknown persona %q", personaID)
	}

	siteInfo := ""
	if req.Site != "" && s.website != nil {
		report := s.website.Analyze(ctx, req.Site, false)
		if report.Error != "" {
			log.Printf("[gate] website analysis degraded: %s", report.Error)
		} else {
			siteInfo = report.Description
		}
	}

	outfitNote, fullDescription := "", ""
	if req.PhotoDataURL != "" && s.image != nil {
		imageReport := s.image.Analyze(ctx, req.PhotoDataURL)
		outfitNote = imageReport.Description
		fullDescription = imageReport.FullDescription
	}

	sess, err := s.sessions.Create(ctx, gate.Session{
		PersonaID:       doorkeeper.ID,
		GuestName:       req.Name,
		GuestSite:       req.Site,
		GuestAbout:      req.About,
		PhotoDataURL:    req.PhotoDataURL,
		OutfitNote:      outfitNote,
		FullDescription: fullDescription,
	})
	if err != nil {
		return nil, err
	}

	opener := gate.Turn{
		Role:     gate.RoleUser,
		Content:  fmt.Sprintf("Context: %s. Start the conversation.", seedContext(req.Name, req.Site, siteInfo, outfitNote)),
		ImageURL: req.PhotoDataURL,
	}

	if err := s.sessions.AppendTurn(ctx, sess.ID, gate.Turn{Role: gate.RoleSystem, Content: doorkeeper.SystemPrompt}); err != nil {
		return nil, err
	}
	if err := s.sessions.AppendTurn(ctx, sess.ID, opener); err != nil {
		return nil, err
	}

	greeting, err := s.replier.Generate(ctx, []gate.Turn{
		{Role: gate.RoleSystem, Content: doorkeeper.SystemPrompt},
		opener,
	}, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.AppendTurn(ctx, sess.ID, gate.Turn{Role: gate.RoleAssistant, Content: greeting}); err != nil {
		return nil, err
	}

	sess, err = s.sessions.Get(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("[gate] session started: id=%s persona=%s", sess.ID, doorkeeper.ID)
	return &StartResult{
		Session: sess,
		Reply:   greeting,
		Phase:   fsm.NextPhase(sess.Turns),
	}, nil
}

// HandleTurn processes one guest message end to end.
func (s *Service) HandleTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	if s.replier == nil {
		return nil, ErrModelUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validationf("message text is required")
	}

	sess, doorkeeper, history, err := s.prepareTurn(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	reply, err := s.replier.ReplyTo(ctx, doorkeeper.SystemPrompt, history, text)
	if err != nil {
		return nil, err
	}

	return s.CompleteTurn(ctx, sess, doorkeeper, history, text, reply)
}

// prepareTurn loads the session, rejects terminal ones and returns the
// pieces a turn needs.
func (s *Service) prepareTurn(ctx context.Context, sessionID string) (gate.Session, persona.Persona, []gate.Turn, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return gate.Session{}, persona.Persona{}, nil, err
	}
	if sess.Acceptance.Terminal() {
		return gate.Session{}, persona.Persona{}, nil, session.ErrSessionClosed
	}

	doorkeeper, ok := s.personas.FindByID(sess.PersonaID)
	if !ok {
		return gate.Session{}, persona.Persona{}, nil, apperr.Validationf("unknown persona %q", sess.PersonaID)
	}

	history, err := s.sessions.Transcript(ctx, sessionID)
	if err != nil {
		return gate.Session{}, persona.Persona{}, nil, err
	}
	return sess, doorkeeper, history, nil
}

// CompleteTurn records the exchange and applies the turn's consequences:
// directive extraction, scoring and the acceptance check. It is the shared
// tail of HandleTurn and the SSE stream path, which produces the reply
// before calling in.
func (s *Service) CompleteTurn(ctx context.Context, sess gate.Session, doorkeeper persona.Persona, history []gate.Turn, text, reply string) (*TurnResult, error) {
	sessionID := sess.ID

	if err := s.sessions.AppendTurn(ctx, sessionID, gate.Turn{Role: gate.RoleUser, Content: text}); err != nil {
		return nil, err
	}
	if err := s.sessions.AppendTurn(ctx, sessionID, gate.Turn{Role: gate.RoleAssistant, Content: reply}); err != nil {
		return nil, err
	}
	turns, err := s.sessions.AdvanceTurn(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{
		Reply:   reply,
		Phase:   fsm.NextPhase(turns),
		Turns:   turns,
		Outcome: gate.AcceptancePending,
	}

	// A well-formed directive suspends negotiation until payment; a
	// malformed one is treated as persona flavor text.
	proposal, outcome := toolcall.Extract(reply)
	switch outcome {
	case toolcall.Found:
		if err := s.sessions.SetPendingProposal(ctx, sessionID, *proposal); err != nil {
			return nil, err
		}
		result.Proposal = proposal
		log.Printf("[gate] payment proposal: session=%s amount=%g", sessionID, proposal.AmountAE)
		return result, nil
	case toolcall.Malformed:
		log.Printf("[gate] ignoring malformed debit directive: session=%s", sessionID)
	}

	score := s.scoreTurn(ctx, doorkeeper, history, text)
	merged, err := s.sessions.MergeScore(ctx, sessionID, score)
	if err != nil {
		return nil, err
	}

	if turns >= fsm.MinAcceptTurns && fsm.ShouldAccept(merged, turns) {
		freeBadge := s.badges.FreeBadge(sess.PhotoDataURL, tagline(reply))
		if err := s.sessions.Accept(ctx, sessionID, gate.AcceptedByScore, freeBadge); err != nil {
			return nil, err
		}
		result.Outcome = gate.AcceptedByScore
		result.Badge = &freeBadge
		result.Phase = fsm.PhaseAccept
		log.Printf("[gate] accepted by score: session=%s turns=%d score=%.2f", sessionID, turns, merged.Weighted())
	}

	return result, nil
}

func (s *Service) scoreTurn(ctx context.Context, doorkeeper persona.Persona, history []gate.Turn, utterance string) gate.Score {
	if s.scorer == nil {
		return gate.Score{}
	}
	return s.scorer.ScoreTurn(ctx, &doorkeeper, history, utterance)
}

// ConfirmPayment verifies the transaction hash against the session's pending
// proposal and, on success, closes the session with a paid badge.
func (s *Service) ConfirmPayment(ctx context.Context, sessionID, txHash string) (*TurnResult, error) {
	if s.verifier == nil {
		return nil, ErrPaymentsUnavailable
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Acceptance.Terminal() {
		return nil, session.ErrSessionClosed
	}
	if sess.PendingProposal == nil {
		return nil, ErrNoPendingProposal
	}

	verified, err := s.verifier.Verify(ctx, paysvc.VerifyRequest{
		TxHash:           txHash,
		ExpectedAmountAE: sess.PendingProposal.AmountAE,
		Payer:            sess.PendingProposal.Payer,
	})
	if err != nil {
		return nil, err
	}
	// The verifier returns the recorded payment as-is for a hash it has seen
	// before, so the proposal match must be re-checked here: a hash verified
	// under different terms must not settle this proposal.
	if err := matchesProposal(verified, sess.PendingProposal); err != nil {
		return nil, err
	}

	description := sess.FullDescription
	if description == "" {
		description = analyze.FallbackDescription
	}
	paidBadge, err := s.badges.PaidBadge(ctx, description, verified.AmountAE,
		fmt.Sprintf("Paid %g AE at the door", verified.AmountAE))
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Accept(ctx, sessionID, gate.AcceptedByPayment, paidBadge); err != nil {
		return nil, err
	}

	log.Printf("[gate] accepted by payment: session=%s tx=%s amount=%g", sessionID, verified.TxHash, verified.AmountAE)
	return &TurnResult{
		Phase:   fsm.PhaseAccept,
		Outcome: gate.AcceptedByPayment,
		Badge:   &paidBadge,
	}, nil
}

// matchesProposal requires the verified payment to settle exactly the terms
// the doorkeeper proposed: same payer, same minor-unit amount.
func matchesProposal(verified *paysvc.VerifyResult, proposal *payment.Proposal) error {
	if verified.Payer != proposal.Payer {
		return apperr.Validationf("payment mismatch: transaction %s was paid by %s, not %s",
			verified.TxHash, verified.Payer, proposal.Payer)
	}

	paid, err := payment.ToAettos(verified.AmountAE)
	if err != nil {
		return apperr.Validationf("invalid verified amount: %v", err)
	}
	agreed, err := payment.ToAettos(proposal.AmountAE)
	if err != nil {
		return apperr.Validationf("invalid proposed amount: %v", err)
	}
	if paid.Cmp(agreed) != 0 {
		return apperr.Validationf("payment mismatch: transaction %s paid %s aettos, proposal asks %s aettos",
			verified.TxHash, paid.String(), agreed.String())
	}
	return nil
}

// GetSession returns the session with its transcript, system turn excluded.
func (s *Service) GetSession(ctx context.Context, sessionID string) (gate.Session, []gate.Turn, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return gate.Session{}, nil, err
	}
	transcript, err := s.sessions.Transcript(ctx, sessionID)
	if err != nil {
		return gate.Session{}, nil, err
	}

	visible := make([]gate.Turn, 0, len(transcript))
	for _, turn := range transcript {
		if turn.Role == gate.RoleSystem {
			continue
		}
		visible = append(visible, turn)
	}
	return sess, visible, nil
}

// PrepareStreamTurn exposes the per-turn context the SSE handler needs to
// drive the model itself.
func (s *Service) PrepareStreamTurn(ctx context.Context, sessionID string) (gate.Session, persona.Persona, []gate.Turn, error) {
	if s.replier == nil {
		return gate.Session{}, persona.Persona{}, nil, ErrModelUnavailable
	}
	return s.prepareTurn(ctx, sessionID)
}

// seedContext condenses the door form into one line of persona context.
func seedContext(name, site, siteInfo, outfitNote string) string {
	var lines []string
	if name != "" {
		lines = append(lines, fmt.Sprintf("Guest name: %s.", name))
	}
	if site != "" {
		lines = append(lines, fmt.Sprintf("Website: %s.", site))
	}
	if siteInfo != "" {
		lines = append(lines, fmt.Sprintf("Their site says: %s.", siteInfo))
	}
	if outfitNote != "" {
		lines = append(lines, fmt.Sprintf("Outfit cues: %s.", outfitNote))
	}
	return strings.Join(lines, " ")
}

// tagline derives the badge inscription from the first line of the closing
// reply.
func tagline(reply string) string {
	line := reply
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if len(line) > maxTaglineLen {
		line = line[:maxTaglineLen]
	}
	if line == "" {
		line = "Welcome in"
	}
	return line
}
