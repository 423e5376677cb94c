package domain

import "math/bits"

// AddAmount returns a+b or ErrArithmeticOverflow
func AddAmount(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

// SubAmount returns a-b or ErrArithmeticUnderflow
func SubAmount(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmeticUnderflow
	}
	return a - b, nil
}

// MulAmount returns a*b or ErrArithmeticOverflow
func MulAmount(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}

// MulDiv returns floor(a*b/d) computed with a 128-bit intermediate.
// A zero divisor or a quotient wider than 64 bits is an overflow.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrArithmeticOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, ErrArithmeticOverflow
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}

// ApplyBps returns floor(amount*bps/10000)
func ApplyBps(amount uint64, bps uint64) (uint64, error) {
	return MulDiv(amount, bps, BasisPoints)
}

// FiatToNative converts a fiat amount in cents to native base units at
// rateCents cents per native unit.
func FiatToNative(feeCents, rateCents uint64) (uint64, error) {
	return MulDiv(feeCents, NativeUnit, rateCents)
}

// NativeToFiat converts native base units to fiat cents at rateCents
func NativeToFiat(amount, rateCents uint64) (uint64, error) {
	return MulDiv(amount, rateCents, NativeUnit)
}
