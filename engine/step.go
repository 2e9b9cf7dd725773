// Package engine implements a 32-step sequencing core: an editable pattern of
// per-step velocity, gate, pitch, ratchet, modifier-flag and condition lanes,
// evaluated into sample-accurate trigger decisions by a transport-driven tick.
//
// The tick path is built for a real-time caller: no locks, no blocking, no
// logging, and no steady-state allocation. Everything else (edits, telemetry,
// snapshots) happens on the control side through the command queue and atomic
// accessors.
package engine

import "math"

// Flags is the per-step modifier bitmask (low 4 bits used)
type Flags uint8

const (
	FlagActive Flags = 1 << iota // step produces output at all
	FlagTie                      // extend the held note instead of retriggering
	FlagSlide                    // glide into the next step (legato boundary)
	FlagAccent                   // velocity boost, clamped at full scale

	flagMask = FlagActive | FlagTie | FlagSlide | FlagAccent
)

// Pitch lane range in semitones, mapped onto the normalized 0-1 field
const (
	pitchRange    = 48 // -24..+24
	MinSemitones  = -pitchRange / 2
	MaxSemitones  = pitchRange / 2
	MinRatchets   = 1
	MaxRatchets   = 4
	accentBoost   = 1.25
	defaultVel    = 0.8
	defaultGate   = 1.0
	centeredPitch = 0.5
)

// Step holds every lane's value for one pattern position. Lanes share the
// step index and timeline; lane-specific meaning lives purely in which field
// a consumer reads.
type Step struct {
	Velocity  float64   `json:"velocity"`  // 0-1
	Gate      float64   `json:"gate"`      // 0-2, fraction of step duration
	Pitch     float64   `json:"pitch"`     // normalized, 0.5 = no offset
	Ratchets  int       `json:"ratchets"`  // 1-4 retriggers within the step
	Flags     Flags     `json:"flags"`     // Active/Tie/Slide/Accent
	Condition Condition `json:"condition"` // 0-17, see condition.go
}

// DefaultStep returns the neutral step: active, audible, no offset
func DefaultStep() Step {
	return Step{
		Velocity:  defaultVel,
		Gate:      defaultGate,
		Pitch:     centeredPitch,
		Ratchets:  MinRatchets,
		Flags:     FlagActive,
		Condition: CondAlways,
	}
}

// PitchSemitones decodes the normalized pitch field to a semitone offset.
// 0.5 maps to 0, the extremes to -24 and +24.
func (s Step) PitchSemitones() int {
	return int(math.Round((clampUnit(s.Pitch, centeredPitch) - centeredPitch) * pitchRange))
}

// Active reports whether the step produces output (clear = rest)
func (s Step) Active() bool { return s.Flags&FlagActive != 0 }

// sanitized clamps every field into its legal range. Malformed values never
// propagate past the point of use: NaN velocity goes silent, NaN gate falls
// back to a full step, NaN pitch recenters, and out-of-range ints clamp.
func (s Step) sanitized() Step {
	s.Velocity = clampUnit(s.Velocity, 0)
	s.Gate = clampRange(s.Gate, 0, 2, defaultGate)
	s.Pitch = clampUnit(s.Pitch, centeredPitch)
	s.Ratchets = clampInt(s.Ratchets, MinRatchets, MaxRatchets)
	s.Flags &= flagMask
	if s.Condition >= condCount {
		s.Condition = CondAlways
	}
	return s
}

func clampUnit(v, def float64) float64 { return clampRange(v, 0, 1, def) }

func clampRange(v, lo, hi, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
