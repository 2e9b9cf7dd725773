package engine

import (
	"math"
	"sync/atomic"
)

// Tick is what the transport clock supplies at each step boundary
type Tick struct {
	SampleOffset int // absolute sample position of this boundary
	StepSamples  int // duration of the step starting here
}

// Trigger is one note decision emitted by the tick path. Offsets are
// absolute sample positions; a batch is ordered by Offset.
type Trigger struct {
	Offset   int     // onset sample position
	Duration int     // audible length in samples
	Velocity float64 // 0-1, accent already applied
	Pitch    int     // semitone offset, -24..+24
	Legato   bool    // no fresh attack: a tie extension, or a slide into the next step
	Extend   bool    // prolongs the held note instead of starting one (tie)
}

const editQueueCap = 64

// Sequencer turns transport ticks against an editable pattern into triggers.
// One instance per voice; state is an explicit handle, never package-level.
//
// Ownership is split two ways: the transport goroutine calls Start, Stop and
// Tick and owns the playhead; everything else talks to the engine through
// Submit, SetFill and the telemetry accessors. Tick never locks, blocks or
// allocates in steady state - applying a queued edit copies the pattern once,
// and old patterns are left to the garbage collector after the swap.
type Sequencer struct {
	seed  uint64
	edits chan Command

	// published pattern, replaced wholesale at step boundaries
	pat atomic.Pointer[Pattern]

	// playhead, owned by the Tick caller. step sits at -1 while armed so
	// the first boundary after Start lands on step 0 of loop 0.
	step     int
	loops    int
	tieHeld  bool
	skipMask uint32
	eval     *Evaluator
	trng     rng // randomize-transform stream, separate from the evaluator's
	subs     [MaxRatchets]SubTrigger
	out      [MaxRatchets]Trigger

	// telemetry mirrors, readable from any goroutine
	running   atomic.Bool
	fill      atomic.Bool
	curStep   atomic.Int32
	loopCount atomic.Int64
	skipped   atomic.Uint32
}

// New creates a stopped sequencer with a default pattern. The seed fixes
// both random streams, so a run is reproducible end to end.
func New(seed uint64) *Sequencer {
	s := &Sequencer{
		seed:  seed,
		edits: make(chan Command, editQueueCap),
		eval:  NewEvaluator(seed),
		step:  -1,
	}
	s.trng = newRNG(seed + 1)
	s.pat.Store(NewPattern())
	return s
}

// Start arms the playhead: the next Tick plays step 0 with a fresh loop
// counter, tie chain and random streams
func (s *Sequencer) Start() {
	s.reset()
	s.running.Store(true)
}

// Stop halts output and performs the same reset as Start, synchronously.
// The fill latch clears too; fill is a performance gesture, not state that
// should survive the transport.
func (s *Sequencer) Stop() {
	s.running.Store(false)
	s.reset()
	s.fill.Store(false)
}

func (s *Sequencer) reset() {
	s.step = -1
	s.loops = 0
	s.tieHeld = false
	s.skipMask = 0
	s.eval.Reset(s.seed)
	s.trng = newRNG(s.seed + 1)
	s.curStep.Store(0)
	s.loopCount.Store(0)
	s.skipped.Store(0)
}

// Tick advances one step and returns the triggers it produced, if any.
// The returned slice aliases an internal buffer and is valid until the
// next call. Stopped sequencers produce nothing.
//
// Per call: drain at most one queued edit, advance the playhead (wrapping
// bumps the loop counter), then decide. Rests emit nothing and break the
// tie chain; a failed condition emits nothing but leaves the chain alone;
// a tie extends the held note; everything else expands its ratchets.
func (s *Sequencer) Tick(t Tick) []Trigger {
	if !s.running.Load() {
		return nil
	}
	if t.StepSamples < 0 {
		t.StepSamples = 0
	}

	select {
	case c := <-s.edits:
		s.applyCommand(c)
	default:
	}

	pat := s.pat.Load()
	s.step++
	if s.step >= pat.Length {
		s.step = 0
		s.loops++
	}
	s.curStep.Store(int32(s.step))
	s.loopCount.Store(int64(s.loops))

	st := pat.Steps[s.step].sanitized()

	if !st.Active() {
		s.tieHeld = false
		s.markSkip(s.step, false) // a rest is silence by intent, not a skip
		return nil
	}

	if !s.eval.Evaluate(s.step, st.Condition, s.loops, s.fill.Load()) {
		s.markSkip(s.step, true)
		return nil
	}
	s.markSkip(s.step, false)

	vel := st.Velocity
	if st.Flags&FlagAccent != 0 {
		vel = math.Min(1, vel*accentBoost)
	}
	pitch := st.PitchSemitones()

	if st.Flags&FlagTie != 0 {
		if !s.tieHeld {
			return nil // nothing sounding to extend
		}
		s.out[0] = Trigger{
			Offset:   t.SampleOffset,
			Duration: int(float64(t.StepSamples) * st.Gate),
			Velocity: vel,
			Pitch:    pitch,
			Legato:   true,
			Extend:   true,
		}
		return s.out[:1]
	}

	n := ExpandRatchets(t.StepSamples, st.Ratchets, &s.subs)
	for i := 0; i < n; i++ {
		s.out[i] = Trigger{
			Offset:   t.SampleOffset + s.subs[i].Offset,
			Duration: int(float64(s.subs[i].Duration) * st.Gate),
			Velocity: vel,
			Pitch:    pitch,
		}
	}
	if st.Flags&FlagSlide != 0 {
		s.out[n-1].Legato = true
	}
	s.tieHeld = true
	return s.out[:n]
}

// markSkip maintains the per-step skip telemetry. The tick path is the only
// writer, so a plain store of the local mask is enough.
func (s *Sequencer) markSkip(i int, skip bool) {
	if skip {
		s.skipMask |= 1 << i
	} else {
		s.skipMask &^= 1 << i
	}
	s.skipped.Store(s.skipMask)
}

// applyCommand lands one queued edit. Mutations go into a fresh copy that
// is published with a single pointer swap, so the pattern visible to the
// tick path is never half edited and a whole-lane transform is atomic.
func (s *Sequencer) applyCommand(c Command) {
	if c.Kind == CmdReplace {
		p := c.Pattern.sanitized()
		s.pat.Store(&p)
		return
	}
	next := *s.pat.Load()
	c.apply(&next, &s.trng)
	s.pat.Store(&next)
}

// Submit validates an edit and queues it for the next step boundary. It
// never blocks: malformed commands and a full queue are reported to the
// caller immediately.
func (s *Sequencer) Submit(c Command) error {
	if err := c.validate(); err != nil {
		return err
	}
	select {
	case s.edits <- c:
		return nil
	default:
		return ErrQueueFull
	}
}

// Drain applies every queued edit now. While running, edits land one per
// tick at step boundaries; while stopped there are no boundaries, so the
// goroutine that owns the playhead calls Drain to keep edits flowing.
func (s *Sequencer) Drain() {
	for {
		select {
		case c := <-s.edits:
			s.applyCommand(c)
		default:
			return
		}
	}
}

// Snapshot returns a copy of the pattern as of the last step boundary.
// Published patterns are immutable, so the copy is always coherent.
func (s *Sequencer) Snapshot() Pattern {
	return *s.pat.Load()
}

// SetFill latches the fill flag. The tick path only reads it; ownership
// stays with the caller (a UI key hold, a footswitch CC).
func (s *Sequencer) SetFill(on bool) { s.fill.Store(on) }

// Telemetry accessors, safe from any goroutine.

func (s *Sequencer) Running() bool       { return s.running.Load() }
func (s *Sequencer) FillActive() bool    { return s.fill.Load() }
func (s *Sequencer) CurrentStep() int    { return int(s.curStep.Load()) }
func (s *Sequencer) LoopCount() int      { return int(s.loopCount.Load()) }
func (s *Sequencer) SkippedMask() uint32 { return s.skipped.Load() }
func (s *Sequencer) Length() int         { return s.pat.Load().Length }
func (s *Sequencer) Seed() uint64        { return s.seed }
