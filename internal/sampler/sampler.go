package sampler

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// ErrEmptyTable is returned when a weighted table has no usable entries
var ErrEmptyTable = errors.New("empty weight table")

// Weighted is one entry of a discrete probability table
type Weighted struct {
	Label  string
	Weight float64
}

// New returns a random source seeded with seed
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Derive returns a seed for key that depends only on the base seed and the
// key, so per-domain streams do not depend on generation order.
func Derive(seed int64, key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return seed ^ int64(h.Sum64()&math.MaxInt64)
}

// ChooseIndex returns an index with probability proportional to its weight.
// Weights must be non-negative with a positive total.
func ChooseIndex(rng *rand.Rand, weights []float64) (int, error) {
	if len(weights) == 0 {
		return 0, ErrEmptyTable
	}

	total := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, fmt.Errorf("invalid weight %v at index %d", w, i)
		}
		total += w
	}
	if total <= 0 {
		return 0, fmt.Errorf("%w: total weight is zero", ErrEmptyTable)
	}
	if len(weights) == 1 {
		return 0, nil
	}

	target := rng.Float64() * total
	acc := 0.0
	last := 0
	for i, w := range weights {
		if w == 0 {
			continue
		}
		acc += w
		last = i
		if target < acc {
			return i, nil
		}
	}
	// float rounding can leave target == total
	return last, nil
}

// Choose returns a label drawn from table with probability proportional to
// its weight
func Choose(rng *rand.Rand, table []Weighted) (string, error) {
	weights := make([]float64, len(table))
	for i, entry := range table {
		weights[i] = entry.Weight
	}
	idx, err := ChooseIndex(rng, weights)
	if err != nil {
		return "", err
	}
	return table[idx].Label, nil
}

// IntRange returns a uniform integer in [lo, hi]
func IntRange(rng *rand.Rand, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// FloatRange returns a uniform float in [lo, hi]
func FloatRange(rng *rand.Rand, lo, hi float64) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// Chance reports true with probability p
func Chance(rng *rand.Rand, p float64) bool {
	if p >= 1 {
		return true
	}
	if p <= 0 {
		return false
	}
	return rng.Float64() < p
}

// Pick returns a uniformly chosen element of options
func Pick[T any](rng *rand.Rand, options []T) (T, error) {
	var zero T
	if len(options) == 0 {
		return zero, ErrEmptyTable
	}
	return options[rng.Intn(len(options))], nil
}
