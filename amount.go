package ynab

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Milliunits is the API's integer currency representation: 1000 milliunits
// equal one major currency unit ($1.00 = 1000). All monetary arithmetic in
// this library stays on integers; conversions to display values go through
// decimal, never through floats.
type Milliunits int64

// Decimal returns the amount in major currency units.
func (m Milliunits) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -3)
}

// MilliunitsFromDecimal converts an amount in major currency units to
// milliunits, rounding to the nearest milliunit.
func MilliunitsFromDecimal(d decimal.Decimal) Milliunits {
	return Milliunits(d.Shift(3).Round(0).IntPart())
}

func (m Milliunits) String() string {
	return m.Decimal().String()
}

// Format renders the amount for display according to a budget's currency
// format: decimal digits, separators and symbol placement. The minus sign
// goes before the symbol ("-$15.50").
func (m Milliunits) Format(cf CurrencyFormat) string {
	d := m.Decimal()
	negative := d.IsNegative()

	s := d.Abs().StringFixed(int32(cf.DecimalDigits))
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if cf.DisplaySymbol && cf.SymbolFirst {
		b.WriteString(cf.CurrencySymbol)
	}
	b.WriteString(groupDigits(intPart, cf.GroupSeparator))
	if fracPart != "" {
		b.WriteString(cf.DecimalSeparator)
		b.WriteString(fracPart)
	}
	if cf.DisplaySymbol && !cf.SymbolFirst {
		b.WriteString(cf.CurrencySymbol)
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// groupDigits inserts sep between groups of three digits, right to left.
func groupDigits(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
