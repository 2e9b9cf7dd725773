package engine

// ratchetGap is the fraction of each ratchet sub-slot left silent so that
// consecutive retriggers release before the next one lands
const ratchetGap = 0.1

// SubTrigger is one retrigger slot within a step, in samples relative to
// the step boundary
type SubTrigger struct {
	Offset   int
	Duration int
}

// ExpandRatchets splits a step of stepSamples into count evenly spaced
// sub-triggers, writing them into dst and returning how many were written.
// count clamps to 1..4. A count of one passes the step through untouched:
// single (0, stepSamples), no gap applied. For higher counts each sub-slot
// is stepSamples/count and the audible part is the slot minus the gap, so
// sub-triggers never overlap.
func ExpandRatchets(stepSamples, count int, dst *[MaxRatchets]SubTrigger) int {
	count = clampInt(count, MinRatchets, MaxRatchets)
	if stepSamples < 0 {
		stepSamples = 0
	}
	if count == 1 {
		dst[0] = SubTrigger{Offset: 0, Duration: stepSamples}
		return 1
	}

	slot := stepSamples / count
	dur := int(float64(slot) * (1 - ratchetGap))
	for i := 0; i < count; i++ {
		dst[i] = SubTrigger{Offset: i * slot, Duration: dur}
	}
	return count
}
