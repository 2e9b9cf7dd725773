// Package transport drives the engine from a wall-clock BPM grid. It owns
// the goroutine that calls Start, Stop and Tick, which keeps the engine's
// single-owner rule intact: the UI never touches the playhead directly, it
// sends transport commands here.
package transport

import (
	"runtime"
	"sync"
	"time"

	"arpseq/debug"
	"arpseq/engine"
)

// Sink consumes trigger batches as they are emitted. The tick carries the
// boundary the batch belongs to, so sinks can place trigger offsets in time.
// Consume is called on the driver goroutine; implementations that can block
// should hand off.
type Sink interface {
	Consume(t engine.Tick, batch []engine.Trigger, sampleRate int)
}

const (
	MinBPM = 20
	MaxBPM = 300
)

type ctlKind uint8

const (
	ctlPlay ctlKind = iota
	ctlStop
	ctlToggle
	ctlRetime // tempo or division changed, reset the ticker
)

// Driver schedules step boundaries and fans triggers out to sinks.
// UpdateChan pulses on every boundary and at a steady UI rate; the TUI
// drains it to redraw.
type Driver struct {
	seq   *engine.Sequencer
	sinks []Sink

	mu       sync.Mutex
	bpm      int
	division int // steps per beat
	rate     int // sample rate

	samplePos int // owned by the run loop

	ctl        chan ctlKind
	stopChan   chan struct{}
	closeOnce  sync.Once
	UpdateChan chan struct{}
}

// New creates a driver for the sequencer. Add sinks before Run.
func New(seq *engine.Sequencer, bpm, division, sampleRate int) *Driver {
	return &Driver{
		seq:        seq,
		bpm:        clampBPM(bpm),
		division:   clampDivision(division),
		rate:       sampleRate,
		ctl:        make(chan ctlKind, 8),
		stopChan:   make(chan struct{}),
		UpdateChan: make(chan struct{}, 1),
	}
}

// AddSink registers a trigger consumer. Not safe after Run.
func (d *Driver) AddSink(s Sink) {
	d.sinks = append(d.sinks, s)
}

// Run starts the clock goroutine
func (d *Driver) Run() {
	go d.run()
}

// Close stops the clock goroutine. Safe to call more than once.
func (d *Driver) Close() {
	d.closeOnce.Do(func() { close(d.stopChan) })
}

// Play starts the transport from the top of the pattern
func (d *Driver) Play() { d.send(ctlPlay) }

// Stop halts the transport and resets the playhead
func (d *Driver) Stop() { d.send(ctlStop) }

// Toggle flips between playing and stopped
func (d *Driver) Toggle() { d.send(ctlToggle) }

func (d *Driver) send(k ctlKind) {
	select {
	case d.ctl <- k:
	case <-d.stopChan:
	}
}

// SetTempo clamps and applies a new BPM. Takes effect on the next boundary.
func (d *Driver) SetTempo(bpm int) {
	d.mu.Lock()
	d.bpm = clampBPM(bpm)
	d.mu.Unlock()
	d.send(ctlRetime)
}

// Tempo returns the current BPM
func (d *Driver) Tempo() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bpm
}

// SetDivision sets steps per beat (4 = sixteenth notes)
func (d *Driver) SetDivision(div int) {
	d.mu.Lock()
	d.division = clampDivision(div)
	d.mu.Unlock()
	d.send(ctlRetime)
}

// Division returns the current steps per beat
func (d *Driver) Division() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.division
}

// StepSamples returns the length of one step at the current settings
func (d *Driver) StepSamples() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stepSamples(d.rate, d.bpm, d.division)
}

// stepSamples converts the BPM grid to samples per step
func stepSamples(rate, bpm, division int) int {
	return rate * 60 / (bpm * division)
}

// stepInterval converts the BPM grid to the wall-clock step period
func stepInterval(bpm, division int) time.Duration {
	return time.Minute / time.Duration(bpm*division)
}

func clampBPM(bpm int) int {
	if bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

func clampDivision(div int) int {
	if div < 1 {
		return 1
	}
	if div > 8 {
		return 8
	}
	return div
}

// run is the clock loop. It is the only goroutine that touches the
// engine's playhead.
func (d *Driver) run() {
	// MIDI backends behave better when sends come from one OS thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	d.mu.Lock()
	ticker := time.NewTicker(stepInterval(d.bpm, d.division))
	d.mu.Unlock()
	defer ticker.Stop()

	ui := time.NewTicker(time.Second / 30)
	defer ui.Stop()

	for {
		select {
		case <-d.stopChan:
			d.seq.Stop()
			return

		case k := <-d.ctl:
			switch k {
			case ctlPlay:
				d.play(ticker)
			case ctlStop:
				d.seq.Stop()
				debug.Log("transport", "stop")
			case ctlToggle:
				if d.seq.Running() {
					d.seq.Stop()
					debug.Log("transport", "stop")
				} else {
					d.play(ticker)
				}
			case ctlRetime:
				d.mu.Lock()
				ticker.Reset(stepInterval(d.bpm, d.division))
				debug.Log("transport", "retime bpm=%d div=%d", d.bpm, d.division)
				d.mu.Unlock()
			}
			d.notify()

		case <-ticker.C:
			if !d.seq.Running() {
				// no boundaries while stopped, but edits keep flowing
				d.seq.Drain()
				continue
			}
			d.boundary()
			d.notify()

		case <-ui.C:
			if !d.seq.Running() {
				d.seq.Drain()
			}
			d.notify()
		}
	}
}

// boundary runs one step: tick the engine and fan the batch out
func (d *Driver) boundary() {
	d.mu.Lock()
	step := stepSamples(d.rate, d.bpm, d.division)
	d.mu.Unlock()

	tick := engine.Tick{SampleOffset: d.samplePos, StepSamples: step}
	batch := d.seq.Tick(tick)
	d.samplePos += step
	if len(batch) > 0 {
		for _, s := range d.sinks {
			s.Consume(tick, batch, d.rate)
		}
	}
	debug.LogEvery(16, "transport", "tick step=%d loop=%d", d.seq.CurrentStep(), d.seq.LoopCount())
}

// play restarts the grid and sounds step 0 right away rather than a full
// interval later
func (d *Driver) play(ticker *time.Ticker) {
	d.samplePos = 0
	d.seq.Start()
	d.mu.Lock()
	ticker.Reset(stepInterval(d.bpm, d.division))
	debug.Log("transport", "play bpm=%d div=%d", d.bpm, d.division)
	d.mu.Unlock()
	d.boundary()
}

// notify pulses UpdateChan without blocking
func (d *Driver) notify() {
	select {
	case d.UpdateChan <- struct{}{}:
	default:
	}
}
