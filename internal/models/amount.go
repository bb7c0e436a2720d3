package models

import (
	"math"
	"strconv"
)

// Amount is a non-negative money value stored as integer cents.
type Amount int64

// Float returns the amount in currency units.
func (a Amount) Float() float64 {
	return float64(a) / 100
}

// String formats the amount with two decimal places.
func (a Amount) String() string {
	return strconv.FormatFloat(a.Float(), 'f', 2, 64)
}

// MarshalJSON renders the amount as a JSON number in currency units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number in currency units.
func (a *Amount) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*a = AmountFromFloat(f)
	return nil
}

// AmountFromFloat rounds f to the nearest cent.
func AmountFromFloat(f float64) Amount {
	return Amount(math.Round(f * 100))
}
