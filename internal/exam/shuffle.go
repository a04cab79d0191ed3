// Package exam holds the pure exam pipeline: the seeded shuffle engine,
// option parsing, view assembly and grading. Nothing here performs I/O.
package exam

const (
	lcgMultiplier = 0x5DEECE66D
	lcgAddend     = 0xB
	lcgMask       = (1 << 48) - 1
)

// Shuffler is a 48-bit linear congruential generator. It produces the same
// stream as java.util.Random so seeds persisted by earlier deployments keep
// reconstructing the same views.
//
// A Shuffler is not safe for concurrent use. Create one per assembly.
type Shuffler struct {
	state int64
}

// NewShuffler returns a generator seeded with seed.
func NewShuffler(seed int64) *Shuffler {
	return &Shuffler{state: (seed ^ lcgMultiplier) & lcgMask}
}

func (s *Shuffler) next(bits uint) int32 {
	s.state = (s.state*lcgMultiplier + lcgAddend) & lcgMask
	return int32(s.state >> (48 - bits))
}

// Int31n returns a value in [0, bound). It panics if bound <= 0.
func (s *Shuffler) Int31n(bound int32) int32 {
	if bound <= 0 {
		panic("exam: bound must be positive")
	}
	r := s.next(31)
	m := bound - 1
	if bound&m == 0 {
		return int32((int64(bound) * int64(r)) >> 31)
	}
	// Reject values from the last partial bucket. The sum overflows int32
	// exactly when u falls in that bucket.
	for u := r; ; u = s.next(31) {
		r = u % bound
		if u-r+m >= 0 {
			return r
		}
	}
}

// Shuffle returns a permutation of items driven by s. The input slice is
// not modified. Slices with fewer than two elements draw nothing from s.
func Shuffle[T any](s *Shuffler, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out); i > 1; i-- {
		j := s.Int31n(int32(i))
		out[i-1], out[j] = out[j], out[i-1]
	}
	return out
}

// ShuffleWithSeed is the one-shot form of Shuffle.
func ShuffleWithSeed[T any](seed int64, items []T) []T {
	return Shuffle(NewShuffler(seed), items)
}
