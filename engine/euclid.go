package engine

// Euclidean distributes hits as evenly as possible across steps and returns
// the result as a bitmask (bit i set = position i is a hit). The classic
// three-over-eight gives the tresillo: x..x..x.
//
// Position i of the unrotated mask is a hit wherever i*hits wraps past a
// multiple of steps, which is the floor-difference rule with position 0
// compared against the wrapped final position. rotation shifts the whole
// mask cyclically: bit i of the result is bit (i+rotation) mod steps of the
// unrotated mask.
//
// hits clamps to 0..steps, steps to 2..32, rotation reduces mod steps.
// Zero hits yields an empty mask, hits == steps a full one.
func Euclidean(hits, steps, rotation int) uint32 {
	steps = clampInt(steps, MinLength, MaxSteps)
	hits = clampInt(hits, 0, steps)
	rotation %= steps
	if rotation < 0 {
		rotation += steps
	}

	var mask uint32
	for i := 0; i < steps; i++ {
		src := (i + rotation) % steps
		if (src*hits)%steps < hits {
			mask |= 1 << i
		}
	}
	return mask
}

// HitAt reads position i of a mask of the given length, wrapping the index
func HitAt(mask uint32, i, steps int) bool {
	if steps <= 0 {
		return false
	}
	i %= steps
	if i < 0 {
		i += steps
	}
	return mask&(1<<i) != 0
}
