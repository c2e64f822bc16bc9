// Package asset defines the tradable currency pairs and the numeric rules
// (precision, tick and pip sizes, rate bounds) attached to each of them.
package asset

import (
	"fmt"
	"math"
	"strings"

	"TickData/internal/errs"

	"github.com/shopspring/decimal"
)

// Kind is the asset class of an Asset.
type Kind int

const (
	Forex Kind = iota + 1
)

func (k Kind) String() string {
	switch k {
	case Forex:
		return "Forex"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsValid reports whether k is a declared kind.
func (k Kind) IsValid() bool { return k == Forex }

// ParseKind parses a kind name, ignoring case.
func ParseKind(str string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "forex":
		return Forex, nil
	default:
		return 0, fmt.Errorf("unknown asset kind %q", str)
	}
}

// validPrecision reports whether p decimal digits are allowed for kind k.
// Forex pairs are quoted with 3 (JPY style) or 5 digits.
func (k Kind) validPrecision(p int) bool {
	switch k {
	case Forex:
		return p == 3 || p == 5
	default:
		return p >= 0 && p <= 5
	}
}

// Asset is the static definition of a tradable pair.
//
// Assets are identified by symbol, not by content: two Assets holding the
// same Symbol are the same asset whatever their other fields. Use Equal, never
// a structural comparison.
type Asset struct {
	symbol      Symbol
	kind        Kind
	precision   int
	description string

	oneTick  float64
	onePip   float64
	factor   float64
	maxValue float64
}

// New validates the definition and computes the derived constants.
func New(symbol Symbol, kind Kind, precision int, description string) (*Asset, error) {
	if !symbol.IsValid() {
		return nil, errs.Range("symbol", int(symbol), "not a declared symbol")
	}
	if !kind.IsValid() {
		return nil, errs.Range("kind", int(kind), "not a declared kind")
	}
	if !kind.validPrecision(precision) {
		return nil, errs.Range("precision", precision, fmt.Sprintf("not allowed for %s", kind))
	}
	if strings.TrimSpace(description) == "" {
		return nil, errs.Range("description", description, "must not be blank")
	}

	p := int32(precision)
	oneTick := decimal.New(1, -p)
	onePip := oneTick.Mul(decimal.NewFromInt(10)).RoundBank(int32(max(0, precision-1)))
	factor := decimal.Max(decimal.New(1, p-1), decimal.NewFromInt(1))
	maxValue := decimal.New(1, 6-p).Sub(oneTick).RoundBank(p)

	return &Asset{
		symbol:      symbol,
		kind:        kind,
		precision:   precision,
		description: description,
		oneTick:     oneTick.InexactFloat64(),
		onePip:      onePip.InexactFloat64(),
		factor:      factor.InexactFloat64(),
		maxValue:    maxValue.InexactFloat64(),
	}, nil
}

func (a *Asset) Symbol() Symbol      { return a.symbol }
func (a *Asset) Kind() Kind          { return a.kind }
func (a *Asset) Precision() int      { return a.precision }
func (a *Asset) Description() string { return a.description }

// OneTick is the smallest quotable increment, 10^-precision.
func (a *Asset) OneTick() float64 { return a.oneTick }

// OnePip is ten ticks.
func (a *Asset) OnePip() float64 { return a.onePip }

// Factor converts a rate difference into pips.
func (a *Asset) Factor() float64 { return a.factor }

// MinValue is the lowest valid rate (one tick).
func (a *Asset) MinValue() float64 { return a.oneTick }

// MaxValue is the highest valid rate.
func (a *Asset) MaxValue() float64 { return a.maxValue }

func (a *Asset) String() string { return a.symbol.String() }

// Equal reports whether a and other are the same asset, i.e. share a symbol.
func (a *Asset) Equal(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.symbol == other.symbol
}

// Round rounds rate half-to-even at the asset precision.
// NaN and infinities are returned unchanged.
func (a *Asset) Round(rate float64) float64 {
	return roundTo(rate, a.precision)
}

// Format renders rate with exactly Precision decimals.
func (a *Asset) Format(rate float64) string {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Sprint(rate)
	}
	return decimal.NewFromFloat(rate).StringFixed(int32(a.precision))
}

// IsRate reports whether rate lies within [MinValue, MaxValue] and is already
// exactly representable at the asset precision.
func (a *Asset) IsRate(rate float64) bool {
	return rate >= a.MinValue() && rate <= a.maxValue && a.Round(rate) == rate
}

// IsPips reports whether value is a valid pip distance: 0.1 to 999.9 with at
// most one decimal.
func IsPips(value float64) bool {
	return value >= 0.1 && value <= 999.9 && roundTo(value, 1) == value
}

// PipsToRate converts a pip distance to a rate difference.
func (a *Asset) PipsToRate(pips float64) float64 {
	return a.Round(pips / a.factor)
}

// RateToPips converts a rate difference to pips, rounded to one decimal.
func (a *Asset) RateToPips(rate float64) float64 {
	return roundTo(rate*a.factor, 1)
}

func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).RoundBank(int32(places)).InexactFloat64()
}
