// Package midi adapts trigger batches to MIDI: a live output port, a
// control listener for fill and transport, and an SMF renderer.
package midi

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"arpseq/debug"
	"arpseq/engine"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// scheduled is one pending wire message. Offs sort before ons at the same
// instant so a retrigger of the held note releases before it re-attacks.
type scheduled struct {
	at   time.Time
	on   bool
	note uint8
	vel  uint8
}

// Output turns trigger batches into note on/off pairs on one MIDI port.
// It implements the transport sink interface; Consume only schedules, a
// dedicated goroutine does the timed sends.
type Output struct {
	send    func(msg gomidi.Message) error
	port    string
	channel uint8
	root    uint8 // MIDI note for pitch offset 0

	mu        sync.Mutex
	queue     []scheduled // sorted by at
	held      int         // note whose off a tie extension may move, -1 when none
	wake      chan struct{}
	stop      chan struct{}
	closeOnce sync.Once
}

// NewOutput opens the first output port whose name contains portName
// (case insensitive). An empty portName takes the first port.
func NewOutput(portName string, channel, root uint8) (*Output, error) {
	port, err := findOutPort(portName)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", port.String(), err)
	}
	o := newOutput(send, channel, root)
	o.port = port.String()
	debug.Log("midi", "output open: %s ch=%d root=%d", o.port, channel, root)
	return o, nil
}

// newOutput wires the scheduler to any sender, which keeps it testable
// without a device.
func newOutput(send func(msg gomidi.Message) error, channel, root uint8) *Output {
	o := &Output{
		send:    send,
		channel: channel & 0x0F,
		root:    root & 0x7F,
		held:    -1,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	go o.run()
	return o
}

// Port returns the resolved port name, empty for injected senders
func (o *Output) Port() string { return o.port }

// Consume schedules the batch relative to now. Sample offsets inside the
// tick become delays from the boundary; the boundary itself is taken to be
// the moment Consume is called, which is what the transport clock arranges.
func (o *Output) Consume(t engine.Tick, batch []engine.Trigger, sampleRate int) {
	if sampleRate <= 0 || len(batch) == 0 {
		return
	}
	now := time.Now()

	o.mu.Lock()
	for _, tr := range batch {
		due := now.Add(samplesToDuration(tr.Offset-t.SampleOffset, sampleRate))
		dur := samplesToDuration(tr.Duration, sampleRate)

		if tr.Extend {
			// A tie moves the held note's release out. If the note
			// already released (a short gate before the tie), there is
			// nothing a wire protocol can reopen, so the tie is dropped.
			if o.held >= 0 {
				o.moveOffLocked(uint8(o.held), due.Add(dur))
			}
			continue
		}

		note := clampNote(int(o.root) + tr.Pitch)
		off := due.Add(dur)
		if tr.Legato {
			// A slide holds through the next boundary so an overlapping
			// onset lands while this note still sounds and a mono voice
			// glides instead of re-attacking.
			off = now.Add(samplesToDuration(t.StepSamples+t.StepSamples/16, sampleRate))
		}

		// Never let a stale off cut the new onset short
		o.cutOffLocked(note, due)
		o.insertLocked(scheduled{at: due, on: true, note: note, vel: velocityByte(tr.Velocity)})
		o.insertLocked(scheduled{at: off, on: false, note: note})
		o.held = int(note)
	}
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Close stops the scheduler and releases anything still sounding
func (o *Output) Close() error {
	o.closeOnce.Do(func() { close(o.stop) })
	return nil
}

// run drains the queue in time order, sleeping until the next message is
// due and waking early when Consume adds work.
func (o *Output) run() {
	// MIDI backends behave better when sends come from one OS thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		o.mu.Lock()
		wait := time.Hour
		if len(o.queue) > 0 {
			wait = time.Until(o.queue[0].at)
		}
		o.mu.Unlock()

		if wait > 0 {
			select {
			case <-o.stop:
				o.flush()
				return
			case <-o.wake:
			case <-time.After(wait):
			}
			continue
		}

		o.fireDue()
	}
}

// fireDue sends every message whose time has come
func (o *Output) fireDue() {
	now := time.Now()

	o.mu.Lock()
	n := 0
	for n < len(o.queue) && !o.queue[n].at.After(now) {
		n++
	}
	due := make([]scheduled, n)
	copy(due, o.queue[:n])
	o.queue = o.queue[:copy(o.queue, o.queue[n:])]
	o.mu.Unlock()

	for _, ev := range due {
		var err error
		if ev.on {
			err = o.send(gomidi.NoteOn(o.channel, ev.note, ev.vel))
		} else {
			err = o.send(gomidi.NoteOff(o.channel, ev.note))
		}
		if err != nil {
			debug.Log("midi", "send: %v", err)
		}
	}
}

// flush releases every pending note immediately. Pending ons are dropped;
// their offs still go out in case the on already fired.
func (o *Output) flush() {
	o.mu.Lock()
	pending := o.queue
	o.queue = nil
	o.held = -1
	o.mu.Unlock()

	for _, ev := range pending {
		if !ev.on {
			o.send(gomidi.NoteOff(o.channel, ev.note))
		}
	}
}

// insertLocked keeps the queue sorted by time, offs before ons when equal
func (o *Output) insertLocked(ev scheduled) {
	i := len(o.queue)
	for i > 0 {
		prev := o.queue[i-1]
		if prev.at.Before(ev.at) || (prev.at.Equal(ev.at) && !(prev.on && !ev.on)) {
			break
		}
		i--
	}
	o.queue = append(o.queue, scheduled{})
	copy(o.queue[i+1:], o.queue[i:])
	o.queue[i] = ev
}

// moveOffLocked reschedules the pending off for a note, if one exists
func (o *Output) moveOffLocked(note uint8, at time.Time) {
	for i := range o.queue {
		if !o.queue[i].on && o.queue[i].note == note {
			ev := o.queue[i]
			ev.at = at
			o.queue = append(o.queue[:i], o.queue[i+1:]...)
			o.insertLocked(ev)
			return
		}
	}
}

// cutOffLocked pulls a pending off for the note to no later than at, so a
// long gate on the previous step cannot swallow a retrigger of the same note
func (o *Output) cutOffLocked(note uint8, at time.Time) {
	for i := range o.queue {
		if !o.queue[i].on && o.queue[i].note == note && o.queue[i].at.After(at) {
			ev := o.queue[i]
			ev.at = at
			o.queue = append(o.queue[:i], o.queue[i+1:]...)
			o.insertLocked(ev)
			return
		}
	}
}

func samplesToDuration(samples, rate int) time.Duration {
	if samples <= 0 {
		return 0
	}
	return time.Duration(int64(samples) * int64(time.Second) / int64(rate))
}

// velocityByte maps a 0-1 velocity onto 1-127. Zero stays a sounding note
// at the floor; velocity 0 on the wire would mean note off.
func velocityByte(v float64) uint8 {
	b := int(math.Round(v * 127))
	if b < 1 {
		b = 1
	}
	if b > 127 {
		b = 127
	}
	return uint8(b)
}

func clampNote(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}

func findOutPort(name string) (drivers.Out, error) {
	ports := gomidi.GetOutPorts()
	if len(ports) == 0 {
		return nil, errors.New("no MIDI output ports")
	}
	if name == "" {
		return ports[0], nil
	}
	want := strings.ToLower(name)
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), want) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no MIDI output matching %q", name)
}

func findInPort(name string) (drivers.In, error) {
	ports := gomidi.GetInPorts()
	if len(ports) == 0 {
		return nil, errors.New("no MIDI input ports")
	}
	if name == "" {
		return ports[0], nil
	}
	want := strings.ToLower(name)
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), want) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input matching %q", name)
}
