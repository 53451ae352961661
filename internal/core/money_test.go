package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.0", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{"0.01", 0.01, true},
		{"1.005", 1.01, true}, // half-up rounding
		{" 2.50 ", 2.5, true},
		{"0", 0, true},
		{",5", 0.5, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{".", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestCentsRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 0.01, 0.1, 12.34, 199.99, 1234567.89} {
		if got := FromCents(Cents(f)); got != f {
			t.Fatalf("round trip %v -> %v", f, got)
		}
	}
}

func TestRound2(t *testing.T) {
	sum := 0.0
	for i := 0; i < 10; i++ {
		sum += 0.1
	}
	if sum == 1 {
		t.Skip("float sum happened to be exact")
	}
	if Round2(sum) != 1 {
		t.Fatalf("expected 1, got %v", Round2(sum))
	}
}

func TestHasCentPrecision(t *testing.T) {
	if !HasCentPrecision(12.34) {
		t.Fatalf("12.34 should have cent precision")
	}
	if HasCentPrecision(12.345) {
		t.Fatalf("12.345 should not have cent precision")
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(1234.5); got != "1234,50" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestParseRate(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"7.125", 7.125, true}, // no rounding to cents
		{"7,5", 7.5, true},
		{"0", 0, true},
		{"10.", 10, true},
		{"", 0, false},
		{".", 0, false},
		{"-1", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"1e3", 0, false},
		{"1.2.3", 0, false},
	}
	for _, c := range cases {
		got, err := ParseRate(c.in)
		if c.ok && (err != nil || got != c.out) {
			t.Errorf("ParseRate(%q) = %v, %v; want %v", c.in, got, err, c.out)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseRate(%q) = %v; want error", c.in, got)
		}
	}
}

func TestValidRate(t *testing.T) {
	if !ValidRate(0) || !ValidRate(12.5) {
		t.Fatal("finite non-negative rates are valid")
	}
	for _, f := range []float64{-0.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if ValidRate(f) {
			t.Errorf("ValidRate(%v) = true", f)
		}
	}
}
