package engine

// Lane identifies which per-step field an edit or transform addresses
type Lane uint8

const (
	LaneVelocity Lane = iota
	LaneGate
	LanePitch
	LaneRatchet
	LaneFlags
	LaneCondition

	laneCount
)

// NumLanes is the number of editable lanes
const NumLanes = int(laneCount)

var laneNames = []string{"Velocity", "Gate", "Pitch", "Ratchet", "Flags", "Condition"}

func (l Lane) String() string {
	if int(l) < len(laneNames) {
		return laneNames[l]
	}
	return "?"
}

// Transform is a whole-lane operation applied across the active window
type Transform uint8

const (
	TransformInvert Transform = iota
	TransformShift
	TransformRandomize

	transformCount
)

var transformNames = []string{"Invert", "Shift", "Randomize"}

func (t Transform) String() string {
	if int(t) < len(transformNames) {
		return transformNames[t]
	}
	return "?"
}

// conditionInverse pairs each condition with its musical opposite:
// probability tiers mirror around 50%, k:N loop slots reverse within the
// cycle, Fill and NotFill swap. Always and First have no opposite kind and
// map to themselves. Applying the table twice is the identity.
var conditionInverse = [condCount]Condition{
	CondAlways:   CondAlways,
	CondProb10:   CondProb90,
	CondProb30:   CondProb70,
	CondProb50:   CondProb50,
	CondProb70:   CondProb30,
	CondProb90:   CondProb10,
	CondLoop1Of2: CondLoop2Of2,
	CondLoop2Of2: CondLoop1Of2,
	CondLoop1Of3: CondLoop3Of3,
	CondLoop2Of3: CondLoop2Of3,
	CondLoop3Of3: CondLoop1Of3,
	CondLoop1Of4: CondLoop4Of4,
	CondLoop2Of4: CondLoop3Of4,
	CondLoop3Of4: CondLoop2Of4,
	CondLoop4Of4: CondLoop1Of4,
	CondFirst:    CondFirst,
	CondFill:     CondNotFill,
	CondNotFill:  CondFill,
}

// InvertCondition maps a condition to its opposite (see conditionInverse)
func InvertCondition(c Condition) Condition {
	if c >= condCount {
		c = CondAlways
	}
	return conditionInverse[c]
}

// applyTransform rewrites one lane across steps 0..Length-1. Steps outside
// the window are untouched. Randomize draws from r, the transform-local
// stream, never from the condition evaluator's.
func (p *Pattern) applyTransform(lane Lane, t Transform, r *rng) {
	n := p.Length
	switch t {
	case TransformInvert:
		for i := 0; i < n; i++ {
			s := &p.Steps[i]
			switch lane {
			case LaneVelocity:
				s.Velocity = 1 - clampUnit(s.Velocity, 0)
			case LaneGate:
				// gate's range runs to 2, so its mirror sits at 1, not 0.5
				s.Gate = 2 - clampRange(s.Gate, 0, 2, defaultGate)
			case LanePitch:
				s.Pitch = 1 - clampUnit(s.Pitch, centeredPitch)
			case LaneRatchet:
				s.Ratchets = MaxRatchets + MinRatchets - clampInt(s.Ratchets, MinRatchets, MaxRatchets)
			case LaneFlags:
				s.Flags = ^s.Flags & flagMask
			case LaneCondition:
				s.Condition = InvertCondition(s.Condition)
			}
		}

	case TransformShift:
		if n < 2 {
			return
		}
		// rotate the lane one step later in time
		last := p.Steps[n-1]
		for i := n - 1; i > 0; i-- {
			copyLane(&p.Steps[i], &p.Steps[i-1], lane)
		}
		copyLane(&p.Steps[0], &last, lane)

	case TransformRandomize:
		for i := 0; i < n; i++ {
			s := &p.Steps[i]
			switch lane {
			case LaneVelocity:
				s.Velocity = r.Float64()
			case LaneGate:
				s.Gate = r.Float64()
			case LanePitch:
				// snap to whole semitones so random melodies stay in tune
				semi := r.Intn(pitchRange+1) + MinSemitones
				s.Pitch = centeredPitch + float64(semi)/pitchRange
			case LaneRatchet:
				s.Ratchets = MinRatchets + r.Intn(MaxRatchets)
			case LaneFlags:
				s.Flags = Flags(r.Intn(int(flagMask) + 1))
			case LaneCondition:
				s.Condition = Condition(r.Intn(NumConditions))
			}
		}
	}
}

// copyLane moves a single lane's value between steps
func copyLane(dst, src *Step, lane Lane) {
	switch lane {
	case LaneVelocity:
		dst.Velocity = src.Velocity
	case LaneGate:
		dst.Gate = src.Gate
	case LanePitch:
		dst.Pitch = src.Pitch
	case LaneRatchet:
		dst.Ratchets = src.Ratchets
	case LaneFlags:
		dst.Flags = src.Flags
	case LaneCondition:
		dst.Condition = src.Condition
	}
}
