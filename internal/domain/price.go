package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a fixed-point decimal amount with two decimal places, stored as
// an integer number of hundredths (5.00 is Price(500)).
type Price int64

// MaxPrice is the largest amount the coffees.price column (NUMERIC(7,2)) holds.
const MaxPrice Price = 9999999

// priceLimit bounds the magnitude ParsePrice converts, well inside int64.
var priceLimit = decimal.New(1, 15)

// errPriceFormat is returned for anything that is not a plain decimal literal.
var errPriceFormat = errors.New("must be a decimal number with at most 2 decimal places")

// ParsePrice parses a plain decimal literal such as "5", "5.5" or "-0.25".
// Exponents and more than two fractional digits are rejected.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "eE") {
		return 0, errPriceFormat
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.Exponent() < -2 {
		return 0, errPriceFormat
	}
	return PriceFromDecimal(d)
}

// PriceFromDecimal converts d to a Price. d must be a whole number of
// hundredths.
func PriceFromDecimal(d decimal.Decimal) (Price, error) {
	cents := d.Shift(2)
	if !cents.IsInteger() || cents.Abs().GreaterThanOrEqual(priceLimit) {
		return 0, errPriceFormat
	}
	return Price(cents.IntPart()), nil
}

// Decimal returns p as an exact decimal.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -2)
}

// String formats the price with exactly two decimals, e.g. "5.00".
func (p Price) String() string {
	return p.Decimal().StringFixed(2)
}

// MarshalJSON renders the price as a JSON string ("5.00") so no precision is
// lost in clients that parse numbers as floats.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts either a JSON number (5.5) or a string ("5.50").
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	v, err := ParsePrice(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
