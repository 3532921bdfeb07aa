package ai

import "testing"

func TestStripReasoningBasic(t *testing.T) {
	if got := StripReasoning("<think>internal</think>Hello there"); got != "Hello there" {
		t.Fatalf("got %q", got)
	}
}

func TestStripReasoningMultiline(t *testing.T) {
	in := "<think>\nline one\nline two\n</think>\nRope stays down. What do you build?"
	want := "Rope stays down. What do you build?"
	if got := StripReasoning(in); got != want {
		t.Fatalf("got %q", got)
	}
}

func TestStripReasoningCaseInsensitive(t *testing.T) {
	if got := StripReasoning("<THINK>x</Think>ok"); got != "ok" {
		t.Fatalf("got %q", got)
	}
}

func TestStripReasoningMultipleBlocks(t *testing.T) {
	in := "a<think>1</think>b<think>2</think>c"
	if got := StripReasoning(in); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestStripReasoningMultibyteCaseFolding(t *testing.T) {
	// U+212A (Kelvin sign) lowercases to a 1-byte "k"; offsets must come
	// from the original bytes, not a lowercased copy.
	in := "Kelvin scale <think>secret</think>Hello there"
	want := "Kelvin scale Hello there"
	if got := StripReasoning(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStripReasoningUnclosedOpener(t *testing.T) {
	if got := StripReasoning("Visible part <think>never closed"); got != "Visible part" {
		t.Fatalf("got %q", got)
	}
}

func TestStripReasoningNoBlock(t *testing.T) {
	if got := StripReasoning("  plain reply  "); got != "plain reply" {
		t.Fatalf("got %q", got)
	}
}
