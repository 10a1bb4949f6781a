package cbor

import "github.com/x448/float16"

// fitsHalf reports whether v round-trips exactly through IEEE-754 binary16,
// the precondition for storing a float item at FloatWidth16 (invariant 6 of
// the data model).
func fitsHalf(v float64) bool {
	h := float16.Fromfloat32(float32(v))
	return float64(h.Float32()) == v
}

// fitsSingle reports whether v round-trips exactly through IEEE-754
// binary32, the precondition for FloatWidth32.
func fitsSingle(v float64) bool {
	return float64(float32(v)) == v
}

// halfBitsFromFloat64 converts v to its binary16 bit pattern, used only
// when the caller has already established v fits exactly (via fitsHalf) or
// is deliberately accepting lossy narrowing on encode of an Unknown-width
// float that was requested at width 16.
func halfBitsFromFloat64(v float64) uint16 {
	return uint16(float16.Fromfloat32(float32(v)).Bits())
}

// float64FromHalfBits widens a binary16 bit pattern to float64 losslessly.
func float64FromHalfBits(bits uint16) float64 {
	return float64(float16.Frombits(bits).Float32())
}
