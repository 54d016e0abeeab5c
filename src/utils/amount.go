package utils

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FlexAmount is a JSON money amount that clients may send either as a number
// or as a numeric string ("19.99"). It unmarshals through decimal so "0.1"
// style inputs survive intact; unknown shapes are rejected at the boundary.
type FlexAmount struct {
	Value decimal.Decimal
	Set   bool
}

func (a *FlexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		a.Set = false
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			a.Set = false
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		a.Value = d
		a.Set = true
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	a.Value = d
	a.Set = true
	return nil
}

func (a FlexAmount) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return []byte(a.Value.String()), nil
}

// Float64 returns the amount as a float64, or 0 when unset.
func (a FlexAmount) Float64() float64 {
	if !a.Set {
		return 0
	}
	f, _ := a.Value.Float64()
	return f
}
