package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents caps any single amount at 1,000,000.00.
const MaxAmountCents int64 = 100_000_000

var (
	hundred   = decimal.NewFromInt(100)
	maxAmount = decimal.NewFromInt(MaxAmountCents)
)

// ParseCents converts a decimal amount ("12.5", 12.5) to integer minor units.
// More than two fractional digits, negative values and values above
// MaxAmountCents are rejected.
func ParseCents(raw string) (int64, error) {
	const op = "money.parse"
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, Invalid(op, "amount required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, Invalid(op, "invalid amount %q", raw)
	}
	if d.IsNegative() {
		return 0, Invalid(op, "amount must not be negative")
	}
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, Invalid(op, "amount %q has more than two decimal places", raw)
	}
	if cents.GreaterThan(maxAmount) {
		return 0, Invalid(op, "amount %q exceeds %s", raw, FormatCents(MaxAmountCents))
	}
	return cents.IntPart(), nil
}

// FormatCents renders minor units as a two-decimal string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// Amount accepts either a JSON number or a JSON string holding a decimal.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*a = Amount(str)
		return nil
	}
	*a = Amount(s)
	return nil
}

func (a Amount) Cents() (int64, error) {
	return ParseCents(string(a))
}
