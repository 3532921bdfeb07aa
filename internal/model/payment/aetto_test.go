package payment_test

import (
	"math/big"
	"testing"

	payment "github.com/aegatekeeper/backend/internal/model/payment"
)

func TestToAettosExactScaling(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0.1, "100000000000000000"},
		{0.001, "1000000000000000"},
		{0.5, "500000000000000000"},
		{0.25, "250000000000000000"},
		{0.1000001, "100000100000000000"},
		{0.0009999, "999900000000000"},
		{1, "1000000000000000000"},
		{0, "0"},
	}

	for _, tc := range cases {
		got, err := payment.ToAettos(tc.amount)
		if err != nil {
			t.Fatalf("ToAettos(%v) err: %v", tc.amount, err)
		}
		want, _ := new(big.Int).SetString(tc.want, 10)
		if got.Cmp(want) != 0 {
			t.Fatalf("ToAettos(%v) = %s, want %s", tc.amount, got, tc.want)
		}
	}
}

func TestToAettosDistinguishesDrift(t *testing.T) {
	exact, err := payment.ToAettos(0.1)
	if err != nil {
		t.Fatalf("ToAettos err: %v", err)
	}
	drifted, err := payment.ToAettos(0.1000001)
	if err != nil {
		t.Fatalf("ToAettos err: %v", err)
	}
	if exact.Cmp(drifted) == 0 {
		t.Fatal("0.1 and 0.1000001 must not map to the same aetto amount")
	}
}

func TestParseAettosRounding(t *testing.T) {
	// 19 decimal places: the final digit rounds half away from zero.
	got, err := payment.ParseAettos("0.0000000000000000015")
	if err != nil {
		t.Fatalf("ParseAettos err: %v", err)
	}
	if got.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("ParseAettos rounding = %s, want 2", got)
	}
}

func TestParseAettosRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"abc", "1,5", "0.1e3", ""} {
		if _, err := payment.ParseAettos(raw); err == nil {
			t.Fatalf("ParseAettos(%q) expected error", raw)
		}
	}
}
