package engine

import "testing"

func TestSubmitRejectsMalformedCommands(t *testing.T) {
	s := New(1)
	bad := []Command{
		{Kind: CommandKind(200)},
		SetValue(LaneVelocity, MaxSteps, 0.5),
		SetValue(LaneVelocity, -1, 0.5),
		SetValue(LaneRatchet, 0, 0.5),
		SetInt(LaneVelocity, 0, 3),
		SetInt(LaneFlags, 40, 1),
		ApplyTransform(Lane(9), TransformInvert),
		ApplyTransform(LaneGate, Transform(9)),
		Replace(nil),
	}
	for i, c := range bad {
		if err := s.Submit(c); err == nil {
			t.Fatalf("command %d should have been rejected", i)
		}
	}
	if err := s.Submit(SetValue(LaneVelocity, 0, 0.5)); err != nil {
		t.Fatalf("well formed command rejected: %v", err)
	}
}

func TestSubmitReportsFullQueue(t *testing.T) {
	s := New(1)
	var err error
	for i := 0; i < editQueueCap; i++ {
		if err = s.Submit(SetValue(LaneVelocity, 0, 0.5)); err != nil {
			t.Fatalf("submit %d failed early: %v", i, err)
		}
	}
	if err = s.Submit(SetValue(LaneVelocity, 0, 0.5)); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	s.Drain()
	if err = s.Submit(SetValue(LaneVelocity, 0, 0.5)); err != nil {
		t.Fatalf("queue should accept again after drain: %v", err)
	}
}

func TestFieldEditsClampOnApplication(t *testing.T) {
	s := New(1)
	edits := []Command{
		SetValue(LaneVelocity, 0, 7.5),
		SetValue(LaneGate, 1, -3),
		SetValue(LanePitch, 2, 2.0),
		SetInt(LaneRatchet, 3, 99),
		SetInt(LaneFlags, 4, 0xFF),
		SetInt(LaneCondition, 5, 500),
		SetLength(1),
	}
	for _, c := range edits {
		if err := s.Submit(c); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	s.Drain()
	p := s.Snapshot()
	if p.Steps[0].Velocity != 1 {
		t.Fatalf("velocity should clamp to 1, got %v", p.Steps[0].Velocity)
	}
	if p.Steps[1].Gate != 0 {
		t.Fatalf("gate should clamp to 0, got %v", p.Steps[1].Gate)
	}
	if p.Steps[2].Pitch != 1 {
		t.Fatalf("pitch should clamp to 1, got %v", p.Steps[2].Pitch)
	}
	if p.Steps[3].Ratchets != MaxRatchets {
		t.Fatalf("ratchets should clamp to %d, got %d", MaxRatchets, p.Steps[3].Ratchets)
	}
	if p.Steps[4].Flags != flagMask {
		t.Fatalf("flags should mask to %04b, got %04b", flagMask, p.Steps[4].Flags)
	}
	if p.Steps[5].Condition != CondNotFill {
		t.Fatalf("condition should clamp to the last entry, got %v", p.Steps[5].Condition)
	}
	if p.Length != MinLength {
		t.Fatalf("length should clamp to %d, got %d", MinLength, p.Length)
	}
}

func TestEuclidCommandRewritesActiveFlags(t *testing.T) {
	s := New(1)
	if err := s.Submit(SetLength(8)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	// mark a step so we can see non-Active bits survive
	if err := s.Submit(SetInt(LaneFlags, 1, int(FlagActive|FlagAccent))); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := s.Submit(ApplyEuclid(3, 0)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	s.Drain()
	p := s.Snapshot()
	if p.ActiveMask() != Euclidean(3, 8, 0) {
		t.Fatalf("expected tresillo actives, got %032b", p.ActiveMask())
	}
	if p.Steps[1].Flags&FlagAccent == 0 {
		t.Fatalf("euclid rewrite should leave non-Active flags alone")
	}
	if p.Steps[1].Flags&FlagActive != 0 {
		t.Fatalf("step 1 should be a rest in a 3/8 pattern")
	}
}

func TestReplaceSanitizesAdoptedPattern(t *testing.T) {
	s := New(1)
	p := NewPattern()
	p.Length = 99
	p.Steps[0].Velocity = 42
	if err := s.Submit(Replace(p)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	s.Drain()
	got := s.Snapshot()
	if got.Length != MaxSteps {
		t.Fatalf("adopted length should clamp to %d, got %d", MaxSteps, got.Length)
	}
	if got.Steps[0].Velocity != 1 {
		t.Fatalf("adopted velocity should clamp to 1, got %v", got.Steps[0].Velocity)
	}
	// the engine keeps its own copy
	p.Steps[2].Velocity = 0
	if s.Snapshot().Steps[2].Velocity != got.Steps[2].Velocity {
		t.Fatalf("mutating the caller's pattern leaked into the engine")
	}
}
