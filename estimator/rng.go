package estimator

import "math/rand"

// RNG supplies the bounded perturbation applied to predictions. It is an
// injected dependency so tests can pin the jitter.
type RNG interface {
	// Next returns a value in [0, 1).
	Next() float64
}

// MathRNG is the production RNG backed by math/rand.
type MathRNG struct {
	src *rand.Rand
}

// NewMathRNG seeds a MathRNG.
func NewMathRNG(seed int64) *MathRNG {
	return &MathRNG{src: rand.New(rand.NewSource(seed))}
}

func (r *MathRNG) Next() float64 {
	return r.src.Float64()
}

// FixedRNG always returns the same value; used to make predictions
// deterministic.
type FixedRNG float64

func (f FixedRNG) Next() float64 { return float64(f) }
