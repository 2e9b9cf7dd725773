package widgets

import (
	"fmt"
	"strings"

	"arpseq/theme"
)

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderLegend explains the grid glyphs in one line
func RenderLegend(th *theme.Theme) string {
	items := []struct {
		glyph rune
		desc  string
	}{
		{theme.GlyphHit, "hit"},
		{theme.GlyphRest, "rest"},
		{theme.GlyphTie, "tie"},
		{theme.GlyphSlide, "slide"},
		{theme.GlyphAccent, "accent"},
		{theme.GlyphSkip, "skipped"},
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s %s", th.Status.Render(string(it.glyph)), it.desc)
	}
	return th.Muted.Render(strings.Join(parts, "  "))
}
