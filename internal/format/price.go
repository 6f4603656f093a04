// Package format renders prices as display text under a magnitude-adaptive
// policy. Every function here is total: no input, including NaN and the
// infinities, may panic or error — unrenderable values come back as a
// placeholder string.
package format

import (
	"math"
	"strconv"
	"strings"
)

// Mode selects the price formatting policy.
type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeFixed      Mode = "fixed"
	ModeScientific Mode = "scientific"
	ModeSubscript  Mode = "subscript"
)

// Spec is an immutable formatting configuration, supplied at chart
// construction and replaced wholesale on reconfiguration.
type Spec struct {
	Mode      Mode
	Precision int
}

// Placeholder is rendered for non-finite prices.
const Placeholder = "—"

// Subscript numeral glyphs, indexed by decimal digit.
var subscriptDigits = [10]rune{'₀', '₁', '₂', '₃', '₄', '₅', '₆', '₇', '₈', '₉'}

// ParseMode maps a config string to a Mode, defaulting to auto.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeFixed, ModeScientific, ModeSubscript:
		return Mode(s)
	}
	return ModeAuto
}

// Format renders price according to spec.
func Format(price float64, spec Spec) string {
	if price == 0 {
		return "0"
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return Placeholder
	}

	prec := spec.Precision
	if prec <= 0 {
		prec = 8
	}

	switch spec.Mode {
	case ModeFixed:
		return strconv.FormatFloat(price, 'f', prec, 64)
	case ModeSubscript:
		return Subscript(price, prec)
	case ModeScientific:
		if math.Abs(price) < 1e-4 {
			return strconv.FormatFloat(price, 'e', 4, 64)
		}
		return strconv.FormatFloat(price, 'f', prec, 64)
	}

	return formatAuto(price, prec)
}

func formatAuto(price float64, prec int) string {
	abs := math.Abs(price)
	switch {
	case abs < 1e-6:
		return Subscript(price, prec)
	case abs < 1e-4:
		return strconv.FormatFloat(price, 'e', 4, 64)
	case abs < 1:
		return trimZeros(strconv.FormatFloat(price, 'f', prec, 64))
	case abs < 1000:
		p := prec
		if p > 4 {
			p = 4
		}
		return strconv.FormatFloat(price, 'f', p, 64)
	default:
		return grouped(price)
	}
}

// Subscript renders |price| as "0.0" followed by the leading-zero count in
// subscript numerals and up to five significant mantissa digits. Example:
// 1.2345e-11 → "0.0₁₀12345" (ten zeros between the decimal point and the
// first significant digit under this encoding).
func Subscript(price float64, precision int) string {
	if price == 0 {
		return "0"
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return Placeholder
	}

	var sb strings.Builder
	if price < 0 {
		sb.WriteByte('-')
	}

	// Fixed-point with 20 fractional digits exposes the zero run directly.
	fixed := strconv.FormatFloat(math.Abs(price), 'f', 20, 64)
	dot := strings.IndexByte(fixed, '.')
	frac := fixed[dot+1:]

	zeros := 0
	for zeros < len(frac) && frac[zeros] == '0' {
		zeros++
	}

	keep := precision
	if keep <= 0 || keep > 5 {
		keep = 5
	}
	mantissa := frac[zeros:]
	if len(mantissa) > keep {
		mantissa = mantissa[:keep]
	}

	sb.WriteString("0.0")
	for _, d := range strconv.Itoa(zeros) {
		sb.WriteRune(subscriptDigits[d-'0'])
	}
	sb.WriteString(mantissa)
	return sb.String()
}

// DecodeSubscript parses a run of subscript numerals back to an integer.
// Used by tests and by clients validating label round-trips.
func DecodeSubscript(s string) (int, bool) {
	n := 0
	found := false
	for _, r := range s {
		digit := -1
		for d, g := range subscriptDigits {
			if r == g {
				digit = d
				break
			}
		}
		if digit < 0 {
			return 0, false
		}
		n = n*10 + digit
		found = true
	}
	return n, found
}

// trimZeros strips trailing fractional zeros ("0.120000" → "0.12").
func trimZeros(s string) string {
	if !strings.ContainsRune(s, '.') {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// grouped renders a large price as a comma-grouped integer part with two
// fractional digits ("1234567.891" → "1,234,567.89").
func grouped(price float64) string {
	s := strconv.FormatFloat(price, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s[:dot], s[dot:]

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign = "-"
		intPart = intPart[1:]
	}

	var sb strings.Builder
	sb.WriteString(sign)
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
		if len(intPart) > lead {
			sb.WriteByte(',')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		sb.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			sb.WriteByte(',')
		}
	}
	sb.WriteString(fracPart)
	return sb.String()
}
