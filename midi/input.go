package midi

import (
	"fmt"

	"arpseq/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// EventKind identifies a control event from the input port
type EventKind int

const (
	EventStart  EventKind = iota // realtime start
	EventStop                    // realtime stop
	EventToggle                  // transport toggle note struck
	EventFill                    // fill latch moved
)

// Event is one control gesture decoded from incoming MIDI
type Event struct {
	Kind EventKind
	On   bool // EventFill: latch state
}

// Listener decodes transport and fill control from a MIDI input port.
// Realtime start/stop drive the clock, the configured CC works the fill
// latch (on at 64 and above, the way a sustain pedal does), and an
// optional note toggles the transport from a pad.
type Listener struct {
	fillCC     uint8
	toggleNote uint8 // 0 disables the toggle mapping
	fillOn     bool  // last latch state, repeated CC values are dropped
	events     chan Event
	stopFunc   func()
}

// Listen opens the first input port matching portName and starts decoding.
// An empty portName takes the first port.
func Listen(portName string, fillCC, toggleNote uint8) (*Listener, error) {
	port, err := findInPort(portName)
	if err != nil {
		return nil, err
	}

	l := &Listener{
		fillCC:     fillCC & 0x7F,
		toggleNote: toggleNote & 0x7F,
		events:     make(chan Event, 32),
	}

	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		l.handle(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", port.String(), err)
	}
	l.stopFunc = stop

	debug.Log("midi", "input open: %s fillcc=%d toggle=%d", port.String(), l.fillCC, l.toggleNote)
	return l, nil
}

// Events returns the decoded control stream
func (l *Listener) Events() <-chan Event {
	return l.events
}

func (l *Listener) handle(msg gomidi.Message) {
	var channel, cc, value uint8

	if msg.GetControlChange(&channel, &cc, &value) {
		if cc != l.fillCC {
			return
		}
		on := value >= 64
		if on == l.fillOn {
			return
		}
		l.fillOn = on
		l.push(Event{Kind: EventFill, On: on})
		return
	}

	var key, vel uint8
	if msg.GetNoteOn(&channel, &key, &vel) {
		// velocity 0 is a running-status note-off, not a strike
		if l.toggleNote != 0 && key == l.toggleNote && vel > 0 {
			l.push(Event{Kind: EventToggle})
		}
		return
	}

	switch {
	case msg.Is(gomidi.StartMsg):
		l.push(Event{Kind: EventStart})
	case msg.Is(gomidi.StopMsg):
		l.push(Event{Kind: EventStop})
	}
}

func (l *Listener) push(ev Event) {
	select {
	case l.events <- ev:
	default:
	}
}

func (l *Listener) Close() error {
	if l.stopFunc != nil {
		l.stopFunc()
	}
	close(l.events)
	return nil
}
