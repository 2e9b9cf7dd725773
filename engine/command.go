package engine

import (
	"errors"
	"fmt"
)

// CommandKind discriminates edit commands
type CommandKind uint8

const (
	CmdSetValue  CommandKind = iota // continuous lanes, Value
	CmdSetInt                       // ratchet/flags/condition lanes, IValue
	CmdSetLength                    // active window length, IValue
	CmdTransform                    // whole-lane transform, IValue is the Transform
	CmdEuclid                       // regenerate Active flags, IValue hits, Step rotation
	CmdReplace                      // wholesale pattern swap, Pattern

	cmdCount
)

// Command is one queued edit. Commands are validated when submitted and
// applied by the tick path at the next step boundary, so a command sent
// mid-step never changes output already emitted for the current step.
type Command struct {
	Kind    CommandKind
	Lane    Lane
	Step    int
	Value   float64
	IValue  int
	Pattern *Pattern // CmdReplace only; copied when applied
}

// ErrQueueFull is returned when the edit queue has no room; the submitter
// should retry after the next step boundary rather than block
var ErrQueueFull = errors.New("engine: edit queue full")

// Submission helpers for the common edits

func SetValue(lane Lane, step int, v float64) Command {
	return Command{Kind: CmdSetValue, Lane: lane, Step: step, Value: v}
}

func SetInt(lane Lane, step, v int) Command {
	return Command{Kind: CmdSetInt, Lane: lane, Step: step, IValue: v}
}

func SetLength(n int) Command {
	return Command{Kind: CmdSetLength, IValue: n}
}

func ApplyTransform(lane Lane, t Transform) Command {
	return Command{Kind: CmdTransform, Lane: lane, IValue: int(t)}
}

func ApplyEuclid(hits, rotation int) Command {
	return Command{Kind: CmdEuclid, IValue: hits, Step: rotation}
}

func Replace(p *Pattern) Command {
	return Command{Kind: CmdReplace, Pattern: p}
}

// validate rejects commands that are malformed regardless of engine state.
// Range clamping of values happens at application time; validation is about
// commands that cannot mean anything (bad index, unknown lane or kind).
func (c Command) validate() error {
	if c.Kind >= cmdCount {
		return fmt.Errorf("engine: unknown command kind %d", c.Kind)
	}
	switch c.Kind {
	case CmdSetValue:
		if c.Lane != LaneVelocity && c.Lane != LaneGate && c.Lane != LanePitch {
			return fmt.Errorf("engine: lane %s does not take a continuous value", c.Lane)
		}
		if c.Step < 0 || c.Step >= MaxSteps {
			return fmt.Errorf("engine: step %d out of range", c.Step)
		}
	case CmdSetInt:
		if c.Lane != LaneRatchet && c.Lane != LaneFlags && c.Lane != LaneCondition {
			return fmt.Errorf("engine: lane %s does not take an integer value", c.Lane)
		}
		if c.Step < 0 || c.Step >= MaxSteps {
			return fmt.Errorf("engine: step %d out of range", c.Step)
		}
	case CmdTransform:
		if c.Lane >= laneCount {
			return fmt.Errorf("engine: unknown lane %d", uint8(c.Lane))
		}
		if Transform(c.IValue) >= transformCount {
			return fmt.Errorf("engine: unknown transform %d", c.IValue)
		}
	case CmdReplace:
		if c.Pattern == nil {
			return errors.New("engine: replacement pattern is nil")
		}
	}
	return nil
}

// apply mutates a pattern copy on the tick path. All field writes sanitize
// here, at the point of use.
func (c Command) apply(p *Pattern, r *rng) {
	switch c.Kind {
	case CmdSetValue:
		s := &p.Steps[c.Step]
		switch c.Lane {
		case LaneVelocity:
			s.Velocity = clampUnit(c.Value, 0)
		case LaneGate:
			s.Gate = clampRange(c.Value, 0, 2, defaultGate)
		case LanePitch:
			s.Pitch = clampUnit(c.Value, centeredPitch)
		}
	case CmdSetInt:
		s := &p.Steps[c.Step]
		switch c.Lane {
		case LaneRatchet:
			s.Ratchets = clampInt(c.IValue, MinRatchets, MaxRatchets)
		case LaneFlags:
			s.Flags = Flags(c.IValue) & flagMask
		case LaneCondition:
			cond := Condition(clampInt(c.IValue, 0, NumConditions-1))
			s.Condition = cond
		}
	case CmdSetLength:
		p.Length = clampInt(c.IValue, MinLength, MaxSteps)
	case CmdTransform:
		p.applyTransform(c.Lane, Transform(c.IValue), r)
	case CmdEuclid:
		p.applyEuclid(c.IValue, c.Step)
	}
}
