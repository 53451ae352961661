// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and the float representation used by the
// aggregation engine.
package core

import (
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a non-negative amount with cent precision.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is allowed, signs are not.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil (rounds up)
//	ParseAmount("12.344") -> 12.34, nil (rounds down)
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.Round(2).InexactFloat64(), nil
}

// ErrInvalidRate reports a commission rate that is negative, not finite or
// not a number.
var ErrInvalidRate = errors.New("invalid commission rate")

// ParseRate converts a percentage string to a rate without rounding it.
// Dot and comma separators are accepted, signs and exponents are not.
func ParseRate(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.Count(s, ".") > 1 {
		return 0, ErrInvalidRate
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return 0, ErrInvalidRate
		}
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return 0, ErrInvalidRate
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidRate
	}
	f := d.InexactFloat64()
	if !ValidRate(f) {
		return 0, ErrInvalidRate
	}
	return f, nil
}

// ValidRate reports whether f is a finite, non-negative percentage.
func ValidRate(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

// Round2 rounds a float to two decimals. Use it once, on presentation,
// never inside running sums.
func Round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// HasCentPrecision reports whether f carries at most two decimals.
func HasCentPrecision(f float64) bool {
	d := decimal.NewFromFloat(f)
	return d.Equal(d.Round(2))
}

// Cents converts an amount to integer cents for storage.
func Cents(f float64) int64 {
	return decimal.NewFromFloat(f).Shift(2).Round(0).IntPart()
}

// FromCents converts stored cents back to an amount.
func FromCents(c int64) float64 {
	return decimal.New(c, -2).InexactFloat64()
}

// FormatAmount renders an amount with two decimals and a comma separator (e.g. "12,34").
func FormatAmount(f float64) string {
	return strings.Replace(decimal.NewFromFloat(f).StringFixed(2), ".", ",", 1)
}
