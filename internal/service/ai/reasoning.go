package ai

import "strings"

// Reasoning-block markers. Some models leak internal deliberation between
// these delimiters; it must be discarded before the reply is stored or shown.
const (
	reasoningStart = "<think>"
	reasoningEnd   = "</think>"
)

// StripReasoning removes every delimited reasoning block from a reply using
// a literal, case-insensitive substring scan that spans newlines. An opener
// with no closer drops the remainder of the string. The result is trimmed.
func StripReasoning(s string) string {
	for {
		start := indexFold(s, reasoningStart)
		if start < 0 {
			break
		}

		rest := start + len(reasoningStart)
		end := indexFold(s[rest:], reasoningEnd)
		if end < 0 {
			s = s[:start]
			break
		}

		s = s[:start] + s[rest+end+len(reasoningEnd):]
	}
	return strings.TrimSpace(s)
}

// indexFold finds an ASCII marker case-insensitively. The scan runs over the
// original bytes so offsets stay valid even when the surrounding text holds
// runes whose case folding changes byte length.
func indexFold(s, marker string) int {
	for i := 0; i+len(marker) <= len(s); i++ {
		if asciiEqualFold(s[i:i+len(marker)], marker) {
			return i
		}
	}
	return -1
}

func asciiEqualFold(a, b string) bool {
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
