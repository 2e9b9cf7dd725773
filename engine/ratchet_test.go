package engine

import "testing"

func TestSingleRatchetPassesStepThrough(t *testing.T) {
	var subs [MaxRatchets]SubTrigger
	n := ExpandRatchets(12000, 1, &subs)
	if n != 1 {
		t.Fatalf("expected 1 sub-trigger, got %d", n)
	}
	if subs[0].Offset != 0 || subs[0].Duration != 12000 {
		t.Fatalf("count 1 must not shorten the step: got offset %d duration %d",
			subs[0].Offset, subs[0].Duration)
	}
}

func TestRatchetSpacingAndGap(t *testing.T) {
	var subs [MaxRatchets]SubTrigger
	for count := 2; count <= 4; count++ {
		n := ExpandRatchets(12000, count, &subs)
		if n != count {
			t.Fatalf("expected %d sub-triggers, got %d", count, n)
		}
		slot := 12000 / count
		for i := 0; i < n; i++ {
			if subs[i].Offset != i*slot {
				t.Fatalf("count %d sub %d: expected offset %d, got %d", count, i, i*slot, subs[i].Offset)
			}
			want := int(float64(slot) * (1 - ratchetGap))
			if subs[i].Duration != want {
				t.Fatalf("count %d sub %d: expected duration %d, got %d", count, i, want, subs[i].Duration)
			}
		}
	}
}

func TestRatchetsNeverOverlap(t *testing.T) {
	var subs [MaxRatchets]SubTrigger
	for step := 1; step < 5000; step += 37 {
		for count := 1; count <= 4; count++ {
			n := ExpandRatchets(step, count, &subs)
			for i := 0; i < n-1; i++ {
				if subs[i].Offset+subs[i].Duration > subs[i+1].Offset {
					t.Fatalf("step %d count %d: sub %d ends at %d past next onset %d",
						step, count, i, subs[i].Offset+subs[i].Duration, subs[i+1].Offset)
				}
			}
			last := subs[n-1]
			if last.Offset+last.Duration > step {
				t.Fatalf("step %d count %d: last sub ends at %d past the step",
					step, count, last.Offset+last.Duration)
			}
		}
	}
}

func TestRatchetCountClamps(t *testing.T) {
	var subs [MaxRatchets]SubTrigger
	if n := ExpandRatchets(1000, 0, &subs); n != 1 {
		t.Fatalf("count 0 should clamp to 1, got %d", n)
	}
	if n := ExpandRatchets(1000, 9, &subs); n != MaxRatchets {
		t.Fatalf("count 9 should clamp to %d, got %d", MaxRatchets, n)
	}
	if n := ExpandRatchets(-50, 3, &subs); n != 3 {
		t.Fatalf("negative step duration should still expand, got %d", n)
	}
	for i := 0; i < 3; i++ {
		if subs[i].Duration != 0 {
			t.Fatalf("negative step duration should produce empty sub-triggers")
		}
	}
}
