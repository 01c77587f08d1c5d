// Package scale applies a signal's scale/offset in both directions. Integer
// signals use github.com/shopspring/decimal for the conversion so that
// repeated encode/decode round trips don't accumulate binary-float drift;
// float signals use plain float64 arithmetic, matching IEEE-754 semantics
// the frame already carries.
package scale

import (
	"math"

	"github.com/shopspring/decimal"
)

// ToRaw converts a physical value into a raw integer using exact decimal
// arithmetic, truncating toward zero: raw = trunc((physical -
// offset) / scale).
func ToRaw(physical, factor, offset float64) int64 {
	d := decimal.NewFromFloat(physical).
		Sub(decimal.NewFromFloat(offset)).
		Div(decimal.NewFromFloat(factor))
	return d.Truncate(0).IntPart()
}

// FromRaw converts a raw integer back into its physical value using exact
// decimal arithmetic: physical = raw*scale + offset.
func FromRaw(raw int64, factor, offset float64) float64 {
	d := decimal.NewFromInt(raw).
		Mul(decimal.NewFromFloat(factor)).
		Add(decimal.NewFromFloat(offset))
	v, _ := d.Float64()
	return v
}

// ToRawFloat converts a physical value for a float-kind signal: no scaling
// decimal is involved, the frame carries the IEEE-754 value directly once
// scale/offset (almost always 1/0 for float signals, but honored if set)
// are applied with native float64 arithmetic.
func ToRawFloat(physical, factor, offset float64) float64 {
	if factor == 1 && offset == 0 {
		return physical
	}
	return (physical - offset) / factor
}

// FromRawFloat is the float-kind inverse of ToRawFloat.
func FromRawFloat(raw, factor, offset float64) float64 {
	if factor == 1 && offset == 0 {
		return raw
	}
	return raw*factor + offset
}

// InRange reports whether a physical value lies within [min, max]. A
// min==max==0 range (the DBC convention for "unspecified") always passes.
func InRange(physical, min, max float64) bool {
	if min == 0 && max == 0 {
		return true
	}
	return physical >= min && physical <= max && !math.IsNaN(physical)
}
