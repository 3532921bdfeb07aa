package payment

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// AettosPerAE is the minor-unit scale of the chain's native coin.
var AettosPerAE = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ToAettos converts a display-unit AE amount to aettos for exact integer
// comparison. The amount is rendered to its shortest decimal form first and
// scaled decimally, so 0.1 AE maps to exactly 100000000000000000 aettos
// rather than the nearest binary float. Digits beyond the 18th decimal place
// round half away from zero.
func ToAettos(amountAE float64) (*big.Int, error) {
	return ParseAettos(strconv.FormatFloat(amountAE, 'f', -1, 64))
}

// ParseAettos converts a plain decimal string (no exponent) to aettos.
func ParseAettos(decimal string) (*big.Int, error) {
	s := strings.TrimSpace(decimal)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if s == "" {
		return nil, fmt.Errorf("invalid decimal amount %q", decimal)
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return nil, fmt.Errorf("invalid decimal amount %q", decimal)
	}

	roundUp := false
	if len(fracPart) > 18 {
		roundUp = fracPart[18] >= '5'
		fracPart = fracPart[:18]
	}
	fracPart += strings.Repeat("0", 18-len(fracPart))

	aettos, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", decimal)
	}
	if roundUp {
		aettos.Add(aettos, big.NewInt(1))
	}
	if neg {
		aettos.Neg(aettos)
	}
	return aettos, nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
