package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrFractionalAmount is returned when a monetary value observed at a sync
// boundary is not a whole number of minor units. Callers must reject the
// record carrying the value; silently rounding would corrupt financial data.
var ErrFractionalAmount = errors.New("monetary amount is not an integer number of minor units")

// Amount is a monetary value in integer minor units (cents). Monetary fields
// never hold a non-integer value at any boundary: JSON decoding fails with
// [ErrFractionalAmount] instead of truncating.
type Amount int64

// UnmarshalJSON decodes b as an integer number of minor units. A fractional
// literal ("12.34"), exponent notation that would require rounding, a quoted
// string, or any non-numeric token is rejected.
func (a *Amount) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}

	num, ok := v.(json.Number)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrFractionalAmount, v)
	}

	n, err := num.Int64()
	if err != nil {
		return fmt.Errorf("%w: %q", ErrFractionalAmount, num.String())
	}

	*a = Amount(n)
	return nil
}

// MarshalJSON emits the amount as a bare JSON integer.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(a))
}

// Int64 returns the amount as a plain int64 of minor units.
func (a Amount) Int64() int64 {
	return int64(a)
}
