package engine

// rng is a small xorshift64* generator. The engine owns its random streams
// outright so a run is reproducible from the seed alone, independent of the
// Go runtime's global source.
type rng struct {
	state uint64
}

// newRNG scrambles the seed through splitmix64 so that small or zero seeds
// still produce well-mixed state (xorshift sticks at zero otherwise).
func newRNG(seed uint64) rng {
	z := seed + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		z = 0x9e3779b97f4a7c15
	}
	return rng{state: z}
}

func (r *rng) next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.state = x
	return x * 0x2545f4914f6cdd1d
}

// Float64 returns a uniform value in [0, 1)
func (r *rng) Float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

// Intn returns a uniform value in [0, n). n must be positive.
func (r *rng) Intn(n int) int {
	return int(r.next() % uint64(n))
}
