package seird

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
	lcgModulus    = 1 << 32
)

// Source is the randomness every engine operation draws from.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// RNG is a 32-bit linear congruential generator. Its sequence is fixed by
// the seed so runs can be reproduced exactly.
type RNG struct {
	state uint32
}

// NewRNG returns a generator seeded with s.
func NewRNG(s uint32) *RNG {
	r := &RNG{}
	r.Seed(s)
	return r
}

// Seed resets the generator. A zero seed is replaced by 1.
func (r *RNG) Seed(s uint32) {
	if s == 0 {
		s = 1
	}
	r.state = s
}

// Next advances the generator and returns the raw 32-bit state.
func (r *RNG) Next() uint32 {
	r.state = r.state*lcgMultiplier + lcgIncrement
	return r.state
}

func (r *RNG) Float64() float64 {
	return float64(r.Next()) / lcgModulus
}

// Intn returns a uniform integer in [0, n) drawn from src.
func Intn(src Source, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Bernoulli reports whether one draw from src falls below p.
func Bernoulli(src Source, p float64) bool {
	return src.Float64() < p
}

// Shuffle permutes idx in place with a Fisher-Yates pass from the end,
// consuming len(idx)-1 draws.
func Shuffle(src Source, idx []int) {
	for i := len(idx) - 1; i > 0; i-- {
		j := Intn(src, i+1)
		idx[i], idx[j] = idx[j], idx[i]
	}
}

// Permutation returns a shuffled slice of 0..n-1.
func Permutation(src Source, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	Shuffle(src, idx)
	return idx
}
