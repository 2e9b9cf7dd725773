package engine

// Condition selects when an active step actually fires. Probability kinds
// gate on a PRNG draw, loop kinds on the pattern loop counter, and the fill
// kinds on the externally latched fill flag.
type Condition uint8

const (
	CondAlways Condition = iota
	CondProb10
	CondProb30
	CondProb50
	CondProb70
	CondProb90
	CondLoop1Of2 // fires on loop 0, 2, 4, ...
	CondLoop2Of2 // fires on loop 1, 3, 5, ...
	CondLoop1Of3
	CondLoop2Of3
	CondLoop3Of3
	CondLoop1Of4
	CondLoop2Of4
	CondLoop3Of4
	CondLoop4Of4
	CondFirst // only on the very first pass after start
	CondFill
	CondNotFill

	condCount
)

// NumConditions is the size of the condition table
const NumConditions = int(condCount)

var conditionNames = []string{
	"100%", "10%", "30%", "50%", "70%", "90%",
	"1:2", "2:2", "1:3", "2:3", "3:3", "1:4", "2:4", "3:4", "4:4",
	"1st", "Fill", "!Fill",
}

func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return conditionNames[CondAlways]
}

// probTiers maps CondProb10..CondProb90 to their fire probability
var probTiers = [...]float64{0.10, 0.30, 0.50, 0.70, 0.90}

// loopCycles maps CondLoop1Of2..CondLoop4Of4 to (cycle length, slot).
// A k:N condition fires on loops where loop mod N == k-1.
var loopCycles = [...]struct{ n, k int }{
	{2, 1}, {2, 2},
	{3, 1}, {3, 2}, {3, 3},
	{4, 1}, {4, 2}, {4, 3}, {4, 4},
}

// Evaluator owns the condition PRNG stream and the per-step evaluation
// counters. One evaluator per sequencer; only the tick path touches it.
type Evaluator struct {
	rng      rng
	counters [MaxSteps]uint32
}

// NewEvaluator returns an evaluator seeded for a reproducible stream
func NewEvaluator(seed uint64) *Evaluator {
	e := &Evaluator{}
	e.Reset(seed)
	return e
}

// Reset re-seeds the PRNG and zeroes the per-step counters. Called on
// transport start and stop so every run from a given seed is identical.
func (e *Evaluator) Reset(seed uint64) {
	e.rng = newRNG(seed)
	e.counters = [MaxSteps]uint32{}
}

// Evaluate decides whether the step at stepIndex fires. Probability kinds
// draw from the PRNG exactly once per call whether or not they fire, so the
// stream position depends only on how many probability evaluations came
// before. No other kind draws. Out-of-range conditions behave as CondAlways.
func (e *Evaluator) Evaluate(stepIndex int, c Condition, loopCount int, fill bool) bool {
	if stepIndex >= 0 && stepIndex < MaxSteps {
		e.counters[stepIndex]++
	}
	if c >= condCount {
		c = CondAlways
	}

	switch {
	case c == CondAlways:
		return true
	case c >= CondProb10 && c <= CondProb90:
		return e.rng.Float64() < probTiers[c-CondProb10]
	case c >= CondLoop1Of2 && c <= CondLoop4Of4:
		cyc := loopCycles[c-CondLoop1Of2]
		return loopCount%cyc.n == cyc.k-1
	case c == CondFirst:
		return loopCount == 0
	case c == CondFill:
		return fill
	default: // CondNotFill
		return !fill
	}
}

// TimesEvaluated reports how often the step has been evaluated since the
// last Reset. Rests and out-of-window steps never reach Evaluate, so they
// do not count.
func (e *Evaluator) TimesEvaluated(stepIndex int) uint32 {
	if stepIndex < 0 || stepIndex >= MaxSteps {
		return 0
	}
	return e.counters[stepIndex]
}
