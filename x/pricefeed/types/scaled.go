package types

import (
	"fmt"
	"strings"

	"cosmossdk.io/math"
)

// MaxAbsExponent bounds the decimal exponent accepted on a price record.
const MaxAbsExponent = 36

// ScaledValue is a fixed-point decimal: Mantissa × 10^Exponent.
// It never round-trips through floating point.
type ScaledValue struct {
	Mantissa math.Int
	Exponent int32
}

// NewScaledValue builds a ScaledValue from a signed mantissa.
func NewScaledValue(mantissa int64, exponent int32) ScaledValue {
	return ScaledValue{Mantissa: math.NewInt(mantissa), Exponent: exponent}
}

// NewScaledValueFromUint64 builds a ScaledValue from an unsigned mantissa.
func NewScaledValueFromUint64(mantissa uint64, exponent int32) ScaledValue {
	return ScaledValue{Mantissa: math.NewIntFromUint64(mantissa), Exponent: exponent}
}

// IsZero reports whether the mantissa is zero or unset.
func (v ScaledValue) IsZero() bool {
	return v.Mantissa.IsNil() || v.Mantissa.IsZero()
}

// Equal compares mantissa and exponent exactly. 1e0 and 10e-1 are not equal.
func (v ScaledValue) Equal(other ScaledValue) bool {
	if v.Exponent != other.Exponent {
		return false
	}
	if v.Mantissa.IsNil() || other.Mantissa.IsNil() {
		return v.Mantissa.IsNil() == other.Mantissa.IsNil()
	}
	return v.Mantissa.Equal(other.Mantissa)
}

// String renders the exact decimal value, e.g. 445713929913e-8 as "4457.13929913".
func (v ScaledValue) String() string {
	if v.Mantissa.IsNil() {
		return "0"
	}

	sign := ""
	if v.Mantissa.IsNegative() {
		sign = "-"
	}
	digits := v.Mantissa.Abs().String()

	if v.Exponent >= 0 {
		if v.Mantissa.IsZero() {
			return "0"
		}
		return sign + digits + strings.Repeat("0", int(v.Exponent))
	}

	scale := int(-int64(v.Exponent))
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	point := len(digits) - scale
	return sign + digits[:point] + "." + digits[point:]
}

// Dec converts to a LegacyDec for presentation and off-chain arithmetic.
// Exponents below -18 cannot be represented without rounding and are rejected.
func (v ScaledValue) Dec() (math.LegacyDec, error) {
	if v.Mantissa.IsNil() {
		return math.LegacyZeroDec(), nil
	}
	switch {
	case v.Exponent < -math.LegacyPrecision:
		return math.LegacyDec{}, fmt.Errorf("exponent %d exceeds decimal precision %d", v.Exponent, math.LegacyPrecision)
	case v.Exponent > MaxAbsExponent:
		return math.LegacyDec{}, fmt.Errorf("exponent %d exceeds maximum %d", v.Exponent, MaxAbsExponent)
	case v.Exponent <= 0:
		return math.LegacyNewDecFromIntWithPrec(v.Mantissa, int64(-v.Exponent)), nil
	default:
		return math.LegacyNewDecFromInt(v.Mantissa.Mul(math.NewIntWithDecimal(1, int(v.Exponent)))), nil
	}
}
