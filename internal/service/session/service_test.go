package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aegatekeeper/backend/internal/model/gate"
	"github.com/aegatekeeper/backend/internal/model/payment"
	session "github.com/aegatekeeper/backend/internal/service/session"
)

func newSession(t *testing.T, svc *session.Service) gate.Session {
	t.Helper()
	sess, err := svc.Create(context.Background(), gate.Session{
		PersonaID: "aeternity-gatekeeper",
		GuestName: "Sam",
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	return sess
}

func TestCreateAndGet(t *testing.T) {
	svc := session.NewService()
	sess := newSession(t, svc)

	got, err := svc.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.Acceptance != gate.AcceptancePending {
		t.Fatalf("acceptance = %s, want pending", got.Acceptance)
	}
	if got.GuestName != "Sam" {
		t.Fatalf("guest name = %q", got.GuestName)
	}
}

func TestGetMissingSession(t *testing.T) {
	svc := session.NewService()
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestTranscriptAppendOnlyOrder(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess := newSession(t, svc)

	turns := []gate.Turn{
		{Role: gate.RoleSystem, Content: "house rules"},
		{Role: gate.RoleUser, Content: "hello"},
		{Role: gate.RoleAssistant, Content: "name?"},
	}
	for _, turn := range turns {
		if err := svc.AppendTurn(ctx, sess.ID, turn); err != nil {
			t.Fatalf("AppendTurn err: %v", err)
		}
	}

	stored, err := svc.Transcript(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("transcript length = %d", len(stored))
	}
	for i := range turns {
		if stored[i].Role != turns[i].Role || stored[i].Content != turns[i].Content {
			t.Fatalf("turn %d mismatch: %+v", i, stored[i])
		}
	}
	if stored[0].CreatedAt.After(time.Now().UTC()) {
		t.Fatal("timestamp not assigned")
	}
}

func TestSystemTurnOnlyFirst(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess := newSession(t, svc)

	if err := svc.AppendTurn(ctx, sess.ID, gate.Turn{Role: gate.RoleSystem, Content: "a"}); err != nil {
		t.Fatalf("first system turn err: %v", err)
	}
	err := svc.AppendTurn(ctx, sess.ID, gate.Turn{Role: gate.RoleSystem, Content: "b"})
	if !errors.Is(err, session.ErrSystemTurnOrder) {
		t.Fatalf("err = %v, want ErrSystemTurnOrder", err)
	}
}

func TestScoreMergeAccumulates(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess := newSession(t, svc)

	if _, err := svc.MergeScore(ctx, sess.ID, gate.Score{Pitch: 0.5}); err != nil {
		t.Fatalf("MergeScore err: %v", err)
	}
	got, err := svc.MergeScore(ctx, sess.ID, gate.Score{Pitch: 0.25, Wit: 0.4})
	if err != nil {
		t.Fatalf("MergeScore err: %v", err)
	}
	if got.Pitch != 0.5 || got.Wit != 0.4 {
		t.Fatalf("score = %+v", got)
	}
}

func TestAcceptIsIrreversible(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess := newSession(t, svc)

	badge := gate.Badge{Tagline: "Builder of rope-worthy things", Score: 0.8}
	if err := svc.Accept(ctx, sess.ID, gate.AcceptedByScore, badge); err != nil {
		t.Fatalf("Accept err: %v", err)
	}

	err := svc.Accept(ctx, sess.ID, gate.AcceptedByPayment, badge)
	if !errors.Is(err, session.ErrSessionClosed) {
		t.Fatalf("second accept err = %v, want ErrSessionClosed", err)
	}

	if _, err := svc.AdvanceTurn(ctx, sess.ID); !errors.Is(err, session.ErrSessionClosed) {
		t.Fatalf("AdvanceTurn on closed session err = %v", err)
	}

	err = svc.SetPendingProposal(ctx, sess.ID, payment.Proposal{AmountAE: 0.1, Payer: "ak_x"})
	if !errors.Is(err, session.ErrSessionClosed) {
		t.Fatalf("SetPendingProposal on closed session err = %v", err)
	}

	got, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.Acceptance != gate.AcceptedByScore {
		t.Fatalf("acceptance = %s, want accepted_by_score", got.Acceptance)
	}
	if got.Badge == nil || got.Badge.Tagline != badge.Tagline {
		t.Fatalf("badge = %+v", got.Badge)
	}
}

func TestAcceptClearsPendingProposal(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess := newSession(t, svc)

	if err := svc.SetPendingProposal(ctx, sess.ID, payment.Proposal{AmountAE: 0.05, Payer: "ak_p", Memo: "fee"}); err != nil {
		t.Fatalf("SetPendingProposal err: %v", err)
	}
	if err := svc.Accept(ctx, sess.ID, gate.AcceptedByPayment, gate.Badge{Paid: true, AmountAE: 0.05}); err != nil {
		t.Fatalf("Accept err: %v", err)
	}

	got, _ := svc.Get(ctx, sess.ID)
	if got.PendingProposal != nil {
		t.Fatal("pending proposal should be cleared on acceptance")
	}
}
