package midi

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"arpseq/engine"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []gomidi.Message
}

func (c *captureSender) send(msg gomidi.Message) error {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
	return nil
}

func (c *captureSender) snapshot() []gomidi.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]gomidi.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func waitFor(t *testing.T, deadline time.Duration, what string, cond func() bool) {
	t.Helper()
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestOutputSendsOnAndOff(t *testing.T) {
	rec := &captureSender{}
	o := newOutput(rec.send, 2, 60)
	defer o.Close()

	// 100ms note, pitch +3 above the root
	o.Consume(engine.Tick{SampleOffset: 0, StepSamples: 9600}, []engine.Trigger{
		{Offset: 0, Duration: 4800, Velocity: 0.8, Pitch: 3},
	}, 48000)

	waitFor(t, 2*time.Second, "note on and off", func() bool { return rec.count() == 2 })

	msgs := rec.snapshot()
	var ch, key, vel uint8
	if !msgs[0].GetNoteOn(&ch, &key, &vel) {
		t.Fatalf("first message should be a note on, got %v", msgs[0])
	}
	if ch != 2 || key != 63 || vel != 102 {
		t.Fatalf("expected ch=2 key=63 vel=102, got ch=%d key=%d vel=%d", ch, key, vel)
	}
	if !bytes.Equal(msgs[1], gomidi.NoteOff(2, 63)) {
		t.Fatalf("second message should be the matching note off, got %v", msgs[1])
	}
}

func TestOutputTieExtensionNeverRetriggers(t *testing.T) {
	rec := &captureSender{}
	o := newOutput(rec.send, 0, 60)
	defer o.Close()

	tick := engine.Tick{SampleOffset: 0, StepSamples: 48000}
	o.Consume(tick, []engine.Trigger{
		{Offset: 0, Duration: 9600, Velocity: 0.5},
	}, 48000)
	// The next boundary carries only the extension
	o.Consume(engine.Tick{SampleOffset: 48000, StepSamples: 48000}, []engine.Trigger{
		{Offset: 48000, Duration: 4800, Velocity: 0.5, Legato: true, Extend: true},
	}, 48000)

	waitFor(t, 2*time.Second, "single on/off pair", func() bool { return rec.count() == 2 })
	time.Sleep(100 * time.Millisecond)

	msgs := rec.snapshot()
	if len(msgs) != 2 {
		t.Fatalf("a tie must not add messages, got %d", len(msgs))
	}
	var ch, key, vel uint8
	if !msgs[0].GetNoteOn(&ch, &key, &vel) {
		t.Fatalf("expected exactly one note on")
	}
	if msgs[1].GetNoteOn(&ch, &key, &vel) {
		t.Fatalf("a tie extension must never send a second note on")
	}
}

func TestOutputExtensionWithNothingHeldIsSilent(t *testing.T) {
	rec := &captureSender{}
	o := newOutput(rec.send, 0, 60)
	defer o.Close()

	o.Consume(engine.Tick{SampleOffset: 0, StepSamples: 4800}, []engine.Trigger{
		{Offset: 0, Duration: 4800, Velocity: 0.5, Legato: true, Extend: true},
	}, 48000)

	time.Sleep(50 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Fatalf("extension with no held note should send nothing, got %d messages", n)
	}
}

func TestOutputSameNoteRetriggerReleasesFirst(t *testing.T) {
	rec := &captureSender{}
	o := newOutput(rec.send, 0, 60)
	defer o.Close()

	// Overlong gate on the first onset would swallow the second without
	// the off being pulled forward
	o.Consume(engine.Tick{SampleOffset: 0, StepSamples: 9600}, []engine.Trigger{
		{Offset: 0, Duration: 96000, Velocity: 0.5},
		{Offset: 4800, Duration: 2400, Velocity: 0.5},
	}, 48000)

	waitFor(t, 2*time.Second, "two complete notes", func() bool { return rec.count() == 4 })

	msgs := rec.snapshot()
	var ch, key, vel uint8
	wantOn := []bool{true, false, true, false}
	for i, m := range msgs {
		if got := m.GetNoteOn(&ch, &key, &vel); got != wantOn[i] {
			t.Fatalf("message %d: expected on=%v, got %v", i, wantOn[i], m)
		}
	}
}

func TestOutputSlideHoldsThroughBoundary(t *testing.T) {
	rec := &captureSender{}
	o := newOutput(rec.send, 0, 60)
	defer o.Close()

	// 100ms step; the slide's own duration is far shorter but the off
	// must land past the boundary
	o.Consume(engine.Tick{SampleOffset: 0, StepSamples: 4800}, []engine.Trigger{
		{Offset: 0, Duration: 100, Velocity: 0.5, Legato: true},
	}, 48000)

	time.Sleep(50 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Fatalf("slide should still be sounding mid-step, got %d messages", n)
	}
	waitFor(t, 2*time.Second, "slide release", func() bool { return rec.count() == 2 })
}

func TestOutputCloseReleasesPendingNotes(t *testing.T) {
	rec := &captureSender{}
	o := newOutput(rec.send, 0, 60)

	o.Consume(engine.Tick{SampleOffset: 0, StepSamples: 48000}, []engine.Trigger{
		{Offset: 0, Duration: 480000, Velocity: 0.5},
	}, 48000)

	waitFor(t, 2*time.Second, "onset", func() bool { return rec.count() >= 1 })
	o.Close()
	waitFor(t, 2*time.Second, "release on close", func() bool { return rec.count() == 2 })

	msgs := rec.snapshot()
	if !bytes.Equal(msgs[1], gomidi.NoteOff(0, 60)) {
		t.Fatalf("close should release the held note, got %v", msgs[1])
	}
}

func TestVelocityByteMapping(t *testing.T) {
	cases := []struct {
		in   float64
		want uint8
	}{
		{0, 1},
		{0.8, 102},
		{1, 127},
		{2, 127},
		{-1, 1},
	}
	for _, c := range cases {
		if got := velocityByte(c.in); got != c.want {
			t.Fatalf("velocityByte(%v): expected %d, got %d", c.in, c.want, got)
		}
	}
	if clampNote(-5) != 0 || clampNote(130) != 127 || clampNote(60) != 60 {
		t.Fatalf("clampNote should pin to 0..127")
	}
}
