package eviction

import (
	"fmt"
	"math"
)

// FiniteF32 is a float32 that is statically guaranteed to be finite, so it
// can be used as a sort key without NaN/Inf ever breaking the ordering.
//
// Less compares with float32's <, so -0 and +0 compare equal; NormalizedF32
// additionally normalizes -0 to +0, while NewFiniteF32 keeps the value as
// given.
type FiniteF32 struct {
	v float32
}

// ZeroF32 is the additive identity and the smallest legal value produced by
// NormalizedF32.
var ZeroF32 = FiniteF32{v: 0}

// NewFiniteF32 wraps v, rejecting NaN and +-Inf.
func NewFiniteF32(v float32) (FiniteF32, error) {
	if isFinite(v) {
		return FiniteF32{v: v}, nil
	}
	return FiniteF32{}, fmt.Errorf("eviction: %v is not a finite float32", v)
}

// NormalizedF32 accepts only values in [0, 1], normalizing -0 to 0. Any
// other value, including NaN and Inf, is rejected and returned back to the
// caller unchanged so it can be logged.
func NormalizedF32(v float32) (FiniteF32, error) {
	if v >= 0 && v <= 1 {
		if v == 0 {
			v = 0 // normalize -0.0
		}
		return FiniteF32{v: v}, nil
	}
	return FiniteF32{}, fmt.Errorf("%v not in [0,1]", v)
}

// Float32 returns the wrapped value.
func (f FiniteF32) Float32() float32 { return f.v }

// Less reports whether f sorts before other.
func (f FiniteF32) Less(other FiniteF32) bool { return f.v < other.v }

func (f FiniteF32) String() string { return fmt.Sprintf("%v", f.v) }

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Partition classifies an eviction candidate relative to its tenant's
// min-resident-size reservation. The zero value is Above, and Above must
// sort before Below: layers outside the reservation are evicted first.
type Partition int

const (
	Above Partition = iota
	Below
)

func (p Partition) String() string {
	if p == Above {
		return "Above"
	}
	return "Below"
}
