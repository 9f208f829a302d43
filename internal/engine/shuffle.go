package engine

import "math/rand/v2"

// draw returns n heroes chosen uniformly without replacement. src is not modified.
func draw(rng *rand.Rand, src []Hero, n int) []Hero {
	c := make([]Hero, len(src))
	copy(c, src)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(c)-i)
		c[i], c[j] = c[j], c[i]
	}
	return c[:n]
}

func shuffle(rng *rand.Rand, hs []Hero) {
	rng.Shuffle(len(hs), func(i, j int) { hs[i], hs[j] = hs[j], hs[i] })
}

// NewRand returns a generator seeded from the runtime's entropy source.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
