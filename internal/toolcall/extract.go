// Package toolcall parses the textual directive a doorkeeper persona embeds
// in its prose to propose a paid shortcut. The grammar is a plain-text
// convention rather than a function-calling API, so parsing is strict and
// centralized here.
package toolcall

import (
	"regexp"
	"strconv"

	"github.com/aegatekeeper/backend/internal/model/payment"
)

// Outcome tags the result of scanning a reply for a directive.
type Outcome int

const (
	// NoDirective: the reply is plain conversation.
	NoDirective Outcome = iota
	// Found: a well-formed directive was parsed.
	Found
	// Malformed: something that looks like a directive failed the grammar.
	// Callers treat this the same as plain conversation, never as an error.
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Malformed:
		return "malformed"
	default:
		return "none"
	}
}

// Grammar: a single-line directive of the exact shape
//
//	{{DEBIT_TOKENS amount_ae: <float>, payer: "ak_<alnum>", memo: "<text>"}}
//
// matched case-insensitively anywhere in the text. Only the first match is
// used.
var (
	directivePattern = regexp.MustCompile(`(?i)\{\{DEBIT_TOKENS\s+amount_ae:\s*([0-9]+(?:\.[0-9]+)?)\s*,\s*payer:\s*"(ak_[A-Za-z0-9]+)"\s*,\s*memo:\s*"([^"\n]*)"\s*\}\}`)
	openerPattern    = regexp.MustCompile(`(?i)\{\{\s*DEBIT_TOKENS`)
)

// Extract scans assistant text for a payment directive. The proposal is
// non-nil only when the outcome is Found.
func Extract(text string) (*payment.Proposal, Outcome) {
	m := directivePattern.FindStringSubmatch(text)
	if m == nil {
		if openerPattern.MatchString(text) {
			return nil, Malformed
		}
		return nil, NoDirective
	}

	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, Malformed
	}

	return &payment.Proposal{
		AmountAE: amount,
		Payer:    m[2],
		Memo:     m[3],
	}, Found
}
