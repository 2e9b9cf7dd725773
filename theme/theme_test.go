package theme

import (
	"math"
	"testing"
)

func TestLookupEndpoints(t *testing.T) {
	p := ByName("ember")
	if p.Lookup(0) != p.Colors[0] {
		t.Fatalf("lookup 0 should return the first color")
	}
	if p.Lookup(1) != p.Colors[len(p.Colors)-1] {
		t.Fatalf("lookup 1 should return the last color")
	}
	if p.Lookup(-3) != p.Colors[0] || p.Lookup(7) != p.Colors[len(p.Colors)-1] {
		t.Fatalf("lookup should clamp out-of-range positions")
	}
	if p.Lookup(math.NaN()) != p.Colors[0] {
		t.Fatalf("lookup should tolerate NaN")
	}
}

func TestLookupInterpolates(t *testing.T) {
	p := &Palette{Name: "test", Colors: []RGB{{0, 0, 0}, {100, 200, 50}}}
	got := p.Lookup(0.5)
	if got != (RGB{50, 100, 25}) {
		t.Fatalf("expected midpoint {50 100 25}, got %v", got)
	}
}

func TestByNameFallsBack(t *testing.T) {
	if ByName("no-such-palette").Name != "ember" {
		t.Fatalf("unknown palettes should fall back to ember")
	}
	for _, n := range Names() {
		if ByName(n).Name != n {
			t.Fatalf("ByName(%q) returned %q", n, ByName(n).Name)
		}
	}
}

func TestHexFormat(t *testing.T) {
	if got := (RGB{255, 16, 0}).Hex(); got != "#ff1000" {
		t.Fatalf("expected #ff1000, got %s", got)
	}
}
