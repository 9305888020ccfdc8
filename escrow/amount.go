package escrow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// IsDecimalInteger reports whether raw is an optionally signed base-10
// integer literal, ignoring surrounding whitespace. It says nothing about
// range or sign; ParseAmount enforces those.
func IsDecimalInteger(raw string) bool {
	_, digits := splitSign(strings.TrimSpace(raw))
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

func splitSign(s string) (negative bool, digits string) {
	if s == "" {
		return false, ""
	}
	switch s[0] {
	case '-':
		return true, s[1:]
	case '+':
		return false, s[1:]
	}
	return false, s
}

// ParseAmount parses a base-10 integer amount. Negative values are rejected;
// "-0" is accepted as zero.
func ParseAmount(raw string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	if !IsDecimalInteger(trimmed) {
		return nil, fmt.Errorf("%w: amount %q is not an integer", ErrInvalidAmount, raw)
	}
	negative, digits := splitSign(trimmed)
	value, err := uint256.FromDecimal(digits)
	if err != nil {
		if errors.Is(err, uint256.ErrBig256Range) {
			return nil, fmt.Errorf("%w: amount %q exceeds 256 bits", ErrInvalidAmount, raw)
		}
		return nil, fmt.Errorf("%w: amount %q is not an integer", ErrInvalidAmount, raw)
	}
	if negative && !value.IsZero() {
		return nil, fmt.Errorf("%w: amount must be >= 0", ErrInvalidAmount)
	}
	return value, nil
}

// FormatAmount renders an amount as a decimal string. A nil amount formats as
// zero.
func FormatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
