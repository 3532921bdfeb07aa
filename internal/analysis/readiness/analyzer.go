// Package readiness scores guest turns across the four gate dimensions
// using keyword heuristics. It is the deterministic fallback under the
// LLM-based scorer and needs no model access.
package readiness

import (
	"strings"

	"github.com/aegatekeeper/backend/internal/model/gate"
)

type dimension int

const (
	pitch dimension = iota
	riddle
	wit
	fit
)

var keywordBuckets = map[dimension][]string{
	pitch: {
		"we build", "i build", "we make", "i make", "ship", "shipped", "launched", "launch",
		"users", "customers", "revenue", "product", "protocol", "startup", "founded",
		"mainnet", "testnet", "open source", "my company", "our team", "side project",
	},
	riddle: {
		"stateful", "entrypoint", "on-chain state", "writes", "fewer writes", "state change",
		"aens", "names to addresses", "human-readable names", "gas", "oracle", "contract",
	},
	wit: {
		"haha", "lol", "touché", "touche", "fair enough", "nice try", "good one",
		"you first", "says the", "joke", ";)", ":)",
	},
	fit: {
		"leather", "vintage", "denim", "velvet", "monochrome", "tailored", "thrifted",
		"boots", "jacket", "sneakers", "all black", "black on black", "silver", "chrome",
	},
}

// perHit is the score contribution of one keyword hit; four hits in one
// dimension saturate it.
const perHit = 0.25

// exclamationBoost nudges wit for visible energy, one exclamation only.
const exclamationBoost = 0.1

// Analyze scores a single guest utterance. Each dimension is clamped to
// [0,1]; callers merge deltas into the session score.
func Analyze(utterance string) gate.Score {
	normalized := strings.ToLower(strings.TrimSpace(utterance))
	if normalized == "" {
		return gate.Score{}
	}

	totals := make(map[dimension]float64, 4)
	for dim, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				totals[dim] += perHit
			}
		}
	}

	if strings.Contains(utterance, "!") {
		totals[wit] += exclamationBoost
	}

	return gate.Score{
		Pitch:  clamp01(totals[pitch]),
		Riddle: clamp01(totals[riddle]),
		Wit:    clamp01(totals[wit]),
		Fit:    clamp01(totals[fit]),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
