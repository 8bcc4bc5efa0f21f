package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"$1.234.567", "1234567"},
		{"1.234,50", "1234.5"},
		{"$ 45.000", "45000"},
		{"-12.990", "12990"},
		{"CLP 8.500", "8500"},
		{"US$ 12,99", "12.99"},
		{"usd 10", "10"},
		{"1 250", "1250"},
		{"15.000 cuota 1/3", "15000"},
		{"", "0"},
		{"   ", "0"},
		{"abc", "0"},
		{"$", "0"},
		{"-", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := NormalizeAmount(tt.raw)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("NormalizeAmount(%q) = %s, want %s", tt.raw, got, tt.want)
			}
			if got.IsNegative() {
				t.Errorf("NormalizeAmount(%q) returned a negative amount", tt.raw)
			}
		})
	}
}

func TestNormalizeAmount_Idempotent(t *testing.T) {
	inputs := []string{"$1.234.567", "45.000", "1.234,50", "12,99", "0"}

	for _, raw := range inputs {
		first := NormalizeAmount(raw)
		second := NormalizeAmount(FormatAmount(first))
		if !first.Equal(second) {
			t.Errorf("round trip of %q: %s != %s", raw, first, second)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.NewFromInt(45000), "45000"},
		{decimal.RequireFromString("1234.5"), "1234,5"},
		{decimal.Zero, "0"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.in); got != tt.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
