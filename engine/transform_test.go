package engine

import (
	"math"
	"testing"
)

// variedPattern builds a short pattern with distinct values in every lane
// so rotations and inversions are observable.
func variedPattern() *Pattern {
	p := NewPattern()
	p.Length = 8
	for i := 0; i < p.Length; i++ {
		p.Steps[i].Velocity = float64(i) / 10
		p.Steps[i].Gate = float64(i) / 4 // spans both halves of the 0-2 range
		p.Steps[i].Pitch = 0.5 + float64(i-4)/48
		p.Steps[i].Ratchets = i%MaxRatchets + 1
		p.Steps[i].Flags = Flags(i) & flagMask
		p.Steps[i].Condition = Condition(i)
	}
	return p
}

func TestInvertIsAnInvolution(t *testing.T) {
	r := newRNG(1)
	for lane := LaneVelocity; lane < laneCount; lane++ {
		p := variedPattern()
		orig := *p
		p.applyTransform(lane, TransformInvert, &r)
		p.applyTransform(lane, TransformInvert, &r)
		for i := 0; i < p.Length; i++ {
			a, b := orig.Steps[i], p.Steps[i]
			if math.Abs(a.Velocity-b.Velocity) > 1e-12 ||
				math.Abs(a.Gate-b.Gate) > 1e-12 ||
				math.Abs(a.Pitch-b.Pitch) > 1e-12 ||
				a.Ratchets != b.Ratchets || a.Flags != b.Flags || a.Condition != b.Condition {
				t.Fatalf("lane %s: double invert changed step %d: %+v -> %+v", lane, i, a, b)
			}
		}
	}
}

func TestInvertValues(t *testing.T) {
	r := newRNG(1)
	p := NewPattern()
	p.Length = 4
	p.Steps[0].Velocity = 0.25
	p.Steps[0].Gate = 1.5
	p.Steps[1].Ratchets = 1
	p.Steps[2].Ratchets = 3
	p.Steps[3].Flags = FlagActive | FlagAccent

	p.applyTransform(LaneVelocity, TransformInvert, &r)
	if p.Steps[0].Velocity != 0.75 {
		t.Fatalf("expected velocity 0.75, got %v", p.Steps[0].Velocity)
	}
	p.applyTransform(LaneGate, TransformInvert, &r)
	if p.Steps[0].Gate != 0.5 {
		t.Fatalf("a gate past a full step should mirror below one, got %v", p.Steps[0].Gate)
	}
	p.applyTransform(LaneGate, TransformInvert, &r)
	if p.Steps[0].Gate != 1.5 {
		t.Fatalf("double invert should restore the overlong gate, got %v", p.Steps[0].Gate)
	}
	p.applyTransform(LaneRatchet, TransformInvert, &r)
	if p.Steps[1].Ratchets != 4 || p.Steps[2].Ratchets != 2 {
		t.Fatalf("ratchet mirror wrong: got %d and %d", p.Steps[1].Ratchets, p.Steps[2].Ratchets)
	}
	p.applyTransform(LaneFlags, TransformInvert, &r)
	if p.Steps[3].Flags != FlagTie|FlagSlide {
		t.Fatalf("flag complement wrong: got %04b", p.Steps[3].Flags)
	}
	if p.Steps[3].Flags&^flagMask != 0 {
		t.Fatalf("flag complement leaked past the low four bits")
	}
}

func TestConditionInverse(t *testing.T) {
	pairs := []struct{ a, b Condition }{
		{CondAlways, CondAlways},
		{CondProb10, CondProb90},
		{CondProb30, CondProb70},
		{CondProb50, CondProb50},
		{CondLoop1Of2, CondLoop2Of2},
		{CondLoop1Of3, CondLoop3Of3},
		{CondLoop2Of3, CondLoop2Of3},
		{CondLoop1Of4, CondLoop4Of4},
		{CondLoop2Of4, CondLoop3Of4},
		{CondFirst, CondFirst},
		{CondFill, CondNotFill},
	}
	for _, pr := range pairs {
		if got := InvertCondition(pr.a); got != pr.b {
			t.Fatalf("invert(%s): expected %s, got %s", pr.a, pr.b, got)
		}
	}
	for c := Condition(0); c < condCount; c++ {
		if InvertCondition(InvertCondition(c)) != c {
			t.Fatalf("invert is not an involution at %s", c)
		}
	}
	if InvertCondition(Condition(250)) != CondAlways {
		t.Fatalf("out of range condition should invert as CondAlways")
	}
}

func TestShiftRotatesWithinWindow(t *testing.T) {
	r := newRNG(1)
	p := variedPattern()
	beyond := p.Steps[p.Length] // first step outside the window
	orig := *p
	p.applyTransform(LaneVelocity, TransformShift, &r)
	for i := 0; i < p.Length; i++ {
		src := (i - 1 + p.Length) % p.Length
		if p.Steps[i].Velocity != orig.Steps[src].Velocity {
			t.Fatalf("step %d: expected velocity from step %d", i, src)
		}
		// other lanes must not move
		if p.Steps[i].Ratchets != orig.Steps[i].Ratchets {
			t.Fatalf("shift of the velocity lane moved the ratchet lane at %d", i)
		}
	}
	if p.Steps[p.Length] != beyond {
		t.Fatalf("shift touched a step beyond the active window")
	}
}

func TestRandomizeStaysInRange(t *testing.T) {
	r := newRNG(7)
	p := variedPattern()
	for lane := LaneVelocity; lane < laneCount; lane++ {
		p.applyTransform(lane, TransformRandomize, &r)
	}
	for i := 0; i < p.Length; i++ {
		s := p.Steps[i]
		if s.Velocity < 0 || s.Velocity >= 1 {
			t.Fatalf("randomized velocity %v out of range", s.Velocity)
		}
		if s.Gate < 0 || s.Gate >= 1 {
			t.Fatalf("randomized gate %v out of range", s.Gate)
		}
		semi := s.PitchSemitones()
		if semi < MinSemitones || semi > MaxSemitones {
			t.Fatalf("randomized pitch decodes to %d semitones", semi)
		}
		// pitch snaps to whole semitones
		if math.Abs(s.Pitch-(centeredPitch+float64(semi)/pitchRange)) > 1e-9 {
			t.Fatalf("randomized pitch %v is not on a semitone grid", s.Pitch)
		}
		if s.Ratchets < MinRatchets || s.Ratchets > MaxRatchets {
			t.Fatalf("randomized ratchets %d out of range", s.Ratchets)
		}
		if s.Flags&^flagMask != 0 {
			t.Fatalf("randomized flags %08b out of range", s.Flags)
		}
		if int(s.Condition) >= NumConditions {
			t.Fatalf("randomized condition %d out of range", s.Condition)
		}
	}
	// window restriction holds for randomize too
	if p.Steps[p.Length] != DefaultStep() {
		t.Fatalf("randomize touched a step beyond the active window")
	}
}
