package engine

// Pattern limits. Steps beyond Length keep their data so shortening and
// re-lengthening a pattern is lossless.
const (
	MaxSteps      = 32
	MinLength     = 2
	DefaultLength = 16
)

// Pattern is one lane's worth of sequence data: a fixed bank of 32 steps
// with an active window of Length steps. The playhead only ever visits
// steps 0..Length-1.
type Pattern struct {
	Steps  [MaxSteps]Step `json:"steps"`
	Length int            `json:"length"` // 2-32, defaults to 16
}

// NewPattern returns a pattern of neutral steps at the default length
func NewPattern() *Pattern {
	p := &Pattern{Length: DefaultLength}
	for i := range p.Steps {
		p.Steps[i] = DefaultStep()
	}
	return p
}

// sanitized returns a copy with the length and every step clamped into
// range. Used when adopting patterns from outside the engine (replacement
// commands, preset loads).
func (p Pattern) sanitized() Pattern {
	p.Length = clampInt(p.Length, MinLength, MaxSteps)
	for i := range p.Steps {
		p.Steps[i] = p.Steps[i].sanitized()
	}
	return p
}

// ActiveMask returns the Active flags of the window as a bitmask, the same
// shape Euclidean produces
func (p *Pattern) ActiveMask() uint32 {
	var mask uint32
	for i := 0; i < p.Length; i++ {
		if p.Steps[i].Active() {
			mask |= 1 << i
		}
	}
	return mask
}

// applyEuclid regenerates the window's Active flags from an evenly
// distributed hit mask, leaving the other flag bits alone
func (p *Pattern) applyEuclid(hits, rotation int) {
	mask := Euclidean(hits, p.Length, rotation)
	for i := 0; i < p.Length; i++ {
		if HitAt(mask, i, p.Length) {
			p.Steps[i].Flags |= FlagActive
		} else {
			p.Steps[i].Flags &^= FlagActive
		}
	}
}
