// Package theme provides the color ramps and glyphs for the step grid.
// Palettes are built in; a normalized lookup with interpolation maps
// continuous lane values (velocity, gate) onto a heat ramp.
package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type RGB [3]uint8

// Palette is an ordered color ramp sampled by normalized position
type Palette struct {
	Name   string
	Colors []RGB
}

var palettes = map[string]*Palette{
	"ember": {
		Name: "ember",
		Colors: []RGB{
			{26, 18, 23}, {64, 30, 33}, {122, 41, 40}, {173, 62, 43},
			{219, 104, 44}, {240, 152, 55}, {250, 201, 76}, {255, 240, 128},
		},
	},
	"glacier": {
		Name: "glacier",
		Colors: []RGB{
			{16, 22, 34}, {28, 43, 66}, {38, 68, 104}, {46, 98, 140},
			{58, 132, 173}, {92, 169, 201}, {146, 205, 223}, {214, 240, 244},
		},
	},
}

// ByName returns a named palette, falling back to ember
func ByName(name string) *Palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes["ember"]
}

// Names lists the built-in palettes
func Names() []string {
	return []string{"ember", "glacier"}
}

// Lookup returns the interpolated color at a normalized position 0-1
func (p *Palette) Lookup(norm float64) RGB {
	if norm <= 0 || norm != norm {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[len(p.Colors)-1]
	}
	pos := norm * float64(len(p.Colors)-1)
	i := int(pos)
	frac := pos - float64(i)
	c0, c1 := p.Colors[i], p.Colors[i+1]
	return RGB{
		lerp(c0[0], c1[0], frac),
		lerp(c0[1], c1[1], frac),
		lerp(c0[2], c1[2], frac),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}

// Index returns the color at an index, clamped to the ramp
func (p *Palette) Index(i int) RGB {
	if i < 0 {
		return p.Colors[0]
	}
	if i >= len(p.Colors) {
		return p.Colors[len(p.Colors)-1]
	}
	return p.Colors[i]
}

// Hex formats a color for lipgloss
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Grid glyphs. One cell per step; modifiers stack into the value rows.
const (
	GlyphRest     = '·'
	GlyphHit      = '●'
	GlyphTie      = '~'
	GlyphSlide    = '/'
	GlyphAccent   = '!'
	GlyphPlayhead = '▶'
	GlyphSkip     = 'x'
	GlyphCursor   = '◆'
	GlyphBeyond   = ' '
)

// Theme binds a palette to the styles the TUI renders with
type Theme struct {
	Palette *Palette

	Header   lipgloss.Style
	Label    lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Cursor   lipgloss.Style
	Playhead lipgloss.Style
	Skip     lipgloss.Style
	Fill     lipgloss.Style
}

// New builds a theme from a palette name
func New(name string) *Theme {
	p := ByName(name)
	fg := lipgloss.Color(p.Index(6).Hex())
	hot := lipgloss.Color(p.Index(7).Hex())
	mid := lipgloss.Color(p.Index(4).Hex())
	dim := lipgloss.Color(p.Index(2).Hex())

	return &Theme{
		Palette:  p,
		Header:   lipgloss.NewStyle().Bold(true).Foreground(hot),
		Label:    lipgloss.NewStyle().Foreground(mid),
		Status:   lipgloss.NewStyle().Foreground(fg),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e05252")),
		Muted:    lipgloss.NewStyle().Foreground(dim),
		Cursor:   lipgloss.NewStyle().Bold(true).Reverse(true),
		Playhead: lipgloss.NewStyle().Bold(true).Foreground(hot),
		Skip:     lipgloss.NewStyle().Foreground(dim),
		Fill:     lipgloss.NewStyle().Bold(true).Foreground(mid),
	}
}

// Heat styles a continuous lane value by palette position, so a velocity
// row reads as a brightness ramp
func (t *Theme) Heat(norm float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Palette.Lookup(norm).Hex()))
}
