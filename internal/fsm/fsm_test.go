package fsm_test

import (
	"testing"

	"github.com/aegatekeeper/backend/internal/fsm"
	"github.com/aegatekeeper/backend/internal/model/gate"
)

func TestNextPhaseThresholds(t *testing.T) {
	cases := []struct {
		turn int
		want fsm.Phase
	}{
		{0, fsm.PhaseIntro},
		{1, fsm.PhaseIntro},
		{2, fsm.PhaseChallenge1},
		{4, fsm.PhaseChallenge1},
		{5, fsm.PhaseChallenge2},
		{7, fsm.PhaseChallenge2},
		{8, fsm.PhaseChallenge3},
		{9, fsm.PhaseChallenge3},
		{10, fsm.PhaseWarm},
		{11, fsm.PhaseWarm},
		{12, fsm.PhaseAccept},
		{99, fsm.PhaseAccept},
	}
	for _, tc := range cases {
		if got := fsm.NextPhase(tc.turn); got != tc.want {
			t.Fatalf("NextPhase(%d) = %s, want %s", tc.turn, got, tc.want)
		}
	}
}

func TestNextPhaseTotalAndMonotonic(t *testing.T) {
	order := map[fsm.Phase]int{
		fsm.PhaseIntro:      0,
		fsm.PhaseChallenge1: 1,
		fsm.PhaseChallenge2: 2,
		fsm.PhaseChallenge3: 3,
		fsm.PhaseWarm:       4,
		fsm.PhaseAccept:     5,
	}

	prev := -1
	for turn := 0; turn <= 50; turn++ {
		rank, ok := order[fsm.NextPhase(turn)]
		if !ok {
			t.Fatalf("NextPhase(%d) returned an unknown phase", turn)
		}
		if rank < prev {
			t.Fatalf("phase order regressed at turn %d", turn)
		}
		prev = rank
	}
}

func TestShouldAcceptTurnCeiling(t *testing.T) {
	if !fsm.ShouldAccept(gate.Score{}, 12) {
		t.Fatal("zero score at the turn ceiling must accept")
	}
	if fsm.ShouldAccept(gate.Score{}, 11) {
		t.Fatal("zero score below the ceiling must not accept")
	}
}

func TestShouldAcceptByScore(t *testing.T) {
	full := gate.Score{Pitch: 1, Riddle: 1, Wit: 1, Fit: 1}
	if full.Weighted() != 1.0 {
		t.Fatalf("weighted = %v, want 1.0", full.Weighted())
	}
	if !fsm.ShouldAccept(full, 8) {
		t.Fatal("full score at the turn floor must accept")
	}

	// 0.4 + 0.25 = 0.65: exactly at the threshold.
	boundary := gate.Score{Pitch: 1, Riddle: 1}
	if !fsm.ShouldAccept(boundary, 8) {
		t.Fatal("weighted score equal to the threshold must accept")
	}

	below := gate.Score{Pitch: 1, Riddle: 0.9}
	if fsm.ShouldAccept(below, 8) {
		t.Fatal("weighted score below the threshold must not accept")
	}
}

func TestScoreMergeMonotone(t *testing.T) {
	base := gate.Score{Pitch: 0.5, Wit: 0.8}
	merged := base.Merge(gate.Score{Pitch: 0.7, Wit: 0.2, Fit: 0.3})
	want := gate.Score{Pitch: 0.7, Wit: 0.8, Fit: 0.3}
	if merged != want {
		t.Fatalf("Merge = %+v, want %+v", merged, want)
	}
}
