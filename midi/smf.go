package midi

import (
	"fmt"
	"io"
	"math"
	"sort"

	"arpseq/engine"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const fileTicksPerQuarter = 960

// fileEvent is one note message at an absolute file tick
type fileEvent struct {
	tick uint32
	on   bool
	note uint8
	vel  uint8
}

// RenderSMF writes a captured trigger stream as a type 1 standard MIDI
// file: a tempo track plus one note track. Trigger offsets are absolute
// sample positions, the way the engine emits them, so a capture across
// many ticks renders in one call.
//
// Ties fold into longer notes and slides overlap the following onset,
// which a live port cannot always honor but a file can.
func RenderSMF(w io.Writer, bpm float64, sampleRate int, channel, root uint8, triggers []engine.Trigger) error {
	if bpm <= 0 {
		return fmt.Errorf("render: bpm %v out of range", bpm)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("render: sample rate %d out of range", sampleRate)
	}

	events := scheduleFileEvents(bpm, sampleRate, root, triggers)

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(fileTicksPerQuarter)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(bpm))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return fmt.Errorf("tempo track: %w", err)
	}

	var notes smf.Track
	ch := channel & 0x0F
	var prev uint32
	for _, ev := range events {
		delta := ev.tick - prev
		prev = ev.tick
		if ev.on {
			notes.Add(delta, gomidi.NoteOn(ch, ev.note, ev.vel))
		} else {
			notes.Add(delta, gomidi.NoteOff(ch, ev.note))
		}
	}
	notes.Close(0)
	if err := sm.Add(notes); err != nil {
		return fmt.Errorf("note track: %w", err)
	}

	_, err := sm.WriteTo(w)
	return err
}

// scheduleFileEvents converts triggers to tick-ordered note events.
// Extensions move the held note's off instead of adding a pair; legato
// onsets stretch past the next onset so the overlap survives in the file.
func scheduleFileEvents(bpm float64, rate int, root uint8, triggers []engine.Trigger) []fileEvent {
	toTick := func(samples int) uint32 {
		return uint32(math.Round(float64(samples) / float64(rate) * bpm / 60 * fileTicksPerQuarter))
	}

	var events []fileEvent
	heldOff := -1 // index of the held note's off event
	for i, tr := range triggers {
		if tr.Extend {
			if heldOff >= 0 {
				events[heldOff].tick = toTick(tr.Offset + tr.Duration)
			}
			continue
		}

		onTick := toTick(tr.Offset)
		offTick := toTick(tr.Offset + tr.Duration)
		if tr.Legato {
			if next := nextOnsetOffset(triggers[i+1:]); next >= 0 {
				offTick = toTick(next) + fileTicksPerQuarter/16
			}
		}

		note := clampNote(int(root) + tr.Pitch)
		events = append(events,
			fileEvent{tick: onTick, on: true, note: note, vel: velocityByte(tr.Velocity)},
			fileEvent{tick: offTick, on: false, note: note})
		heldOff = len(events) - 1
	}

	// Deltas need nondecreasing ticks; offs first at a shared tick so a
	// repeated note releases before it re-attacks
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})
	return events
}

// nextOnsetOffset finds the sample offset of the next fresh onset, -1 if
// the stream ends first
func nextOnsetOffset(triggers []engine.Trigger) int {
	for _, tr := range triggers {
		if !tr.Extend {
			return tr.Offset
		}
	}
	return -1
}
