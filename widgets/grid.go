// Package widgets holds the pure render helpers the TUI composes: the
// step grid, the glyph legend and the key help. Everything here takes
// plain data and returns a string; no widget touches the engine.
package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"arpseq/engine"
	"arpseq/theme"
)

// gateLevels maps a 0-2 gate onto an eight-step bar
var gateLevels = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// GridState is everything the grid needs for one frame
type GridState struct {
	Pattern    engine.Pattern
	CursorLane engine.Lane
	CursorStep int
	PlayStep   int
	Playing    bool
	Skipped    uint32
	Theme      *theme.Theme
}

const labelWidth = 10

// RenderGrid draws the header, the playhead marker row and the six value
// lanes as two-column cells
func RenderGrid(st GridState) string {
	var b strings.Builder

	b.WriteString(renderHeader(st))
	b.WriteByte('\n')
	b.WriteString(renderMarkers(st))
	b.WriteByte('\n')

	for lane := engine.Lane(0); int(lane) < engine.NumLanes; lane++ {
		b.WriteString(renderLane(st, lane))
		if int(lane) < engine.NumLanes-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// renderHeader numbers every fourth step
func renderHeader(st GridState) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelWidth))
	for i := 0; i < st.Pattern.Length; i++ {
		if i%4 == 0 {
			b.WriteString(st.Theme.Header.Render(fmt.Sprintf("%-2d", i+1)))
		} else {
			b.WriteString("  ")
		}
	}
	return b.String()
}

// renderMarkers draws the playhead and the per-step condition skips
func renderMarkers(st GridState) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelWidth))
	for i := 0; i < st.Pattern.Length; i++ {
		switch {
		case st.Playing && i == st.PlayStep:
			b.WriteString(st.Theme.Playhead.Render(string(theme.GlyphPlayhead)))
		case st.Skipped&(1<<i) != 0:
			b.WriteString(st.Theme.Skip.Render(string(theme.GlyphSkip)))
		default:
			b.WriteByte(' ')
		}
		b.WriteByte(' ')
	}
	return b.String()
}

func renderLane(st GridState, lane engine.Lane) string {
	var b strings.Builder
	b.WriteString(st.Theme.Label.Render(fmt.Sprintf("%-*s", labelWidth, lane.String())))
	for i := 0; i < st.Pattern.Length; i++ {
		cell, style := laneCell(st, lane, st.Pattern.Steps[i])
		if lane == st.CursorLane && i == st.CursorStep {
			style = st.Theme.Cursor
		}
		b.WriteString(style.Render(string(cell)))
		b.WriteByte(' ')
	}
	return b.String()
}

// laneCell picks the glyph and style for one step in one lane
func laneCell(st GridState, lane engine.Lane, s engine.Step) (rune, lipgloss.Style) {
	th := st.Theme
	if !s.Active() && lane != engine.LaneFlags {
		return theme.GlyphRest, th.Muted
	}

	switch lane {
	case engine.LaneVelocity:
		return '█', th.Heat(s.Velocity)
	case engine.LaneGate:
		idx := int(s.Gate / 2 * float64(len(gateLevels)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(gateLevels) {
			idx = len(gateLevels) - 1
		}
		return gateLevels[idx], th.Heat(s.Gate / 2)
	case engine.LanePitch:
		n := s.PitchSemitones()
		switch {
		case n > 0:
			return '+', th.Heat(0.5 + float64(n)/48)
		case n < 0:
			return '-', th.Heat(0.5 + float64(n)/48)
		default:
			return theme.GlyphRest, th.Muted
		}
	case engine.LaneRatchet:
		if s.Ratchets <= 1 {
			return '1', th.Muted
		}
		return rune('0' + s.Ratchets), th.Status
	case engine.LaneFlags:
		return flagGlyph(s), flagStyle(th, s)
	case engine.LaneCondition:
		return condGlyph(s.Condition), condStyle(th, s.Condition)
	}
	return theme.GlyphRest, th.Muted
}

// flagGlyph collapses the flag bits to one character: rest, then the most
// salient modifier, then a plain hit
func flagGlyph(s engine.Step) rune {
	switch {
	case !s.Active():
		return theme.GlyphRest
	case s.Flags&engine.FlagTie != 0:
		return theme.GlyphTie
	case s.Flags&engine.FlagSlide != 0:
		return theme.GlyphSlide
	case s.Flags&engine.FlagAccent != 0:
		return theme.GlyphAccent
	default:
		return theme.GlyphHit
	}
}

func flagStyle(th *theme.Theme, s engine.Step) lipgloss.Style {
	switch {
	case !s.Active():
		return th.Muted
	case s.Flags&engine.FlagAccent != 0:
		return th.Playhead
	default:
		return th.Status
	}
}

// condGlyph is the single-character condition column code
func condGlyph(c engine.Condition) rune {
	label := c.String()
	switch {
	case c == engine.CondAlways:
		return theme.GlyphRest
	case strings.HasSuffix(label, "%"):
		return '%'
	case strings.Contains(label, ":"):
		return ':'
	case label == "1st":
		return '1'
	case label == "Fill":
		return 'F'
	case label == "!Fill":
		return '!'
	}
	return '?'
}

func condStyle(th *theme.Theme, c engine.Condition) lipgloss.Style {
	if c == engine.CondAlways {
		return th.Muted
	}
	return th.Fill
}
