// Package tui is the terminal front end: a six-lane step grid with a
// cursor, value nudging, transforms and preset prompts. All edits flow
// through the engine's command queue; the model never touches pattern
// state directly.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"arpseq/config"
	"arpseq/engine"
	"arpseq/theme"
	"arpseq/transport"
	"arpseq/widgets"
)

// promptKind identifies what kind of prompt is open
type promptKind int

const (
	promptEuclid promptKind = iota
	promptSave
	promptLoad
)

// promptState holds the state of an open prompt
type promptState struct {
	kind     promptKind
	title    string
	input    string   // text prompts
	options  []string // list prompts
	selected int
}

type Model struct {
	Seq    *engine.Sequencer
	Driver *transport.Driver
	Theme  *theme.Theme

	cursorLane engine.Lane
	cursorStep int
	prompt     *promptState
	status     string
	statusErr  bool
	showHelp   bool
	quitting   bool
}

type UpdateMsg struct{}

func NewModel(seq *engine.Sequencer, drv *transport.Driver, th *theme.Theme) Model {
	return Model{
		Seq:    seq,
		Driver: drv,
		Theme:  th,
	}
}

// ListenForUpdates re-arms on every transport pulse so the playhead and
// telemetry redraw without polling
func ListenForUpdates(drv *transport.Driver) tea.Cmd {
	return func() tea.Msg {
		<-drv.UpdateChan
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Driver)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompt != nil {
			return m.updatePrompt(msg)
		}
		return m.updateGrid(msg)

	case UpdateMsg:
		return m, ListenForUpdates(m.Driver)
	}
	return m, nil
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.Seq.Snapshot()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.Driver.Stop()
		return m, tea.Quit

	case " ":
		m.Driver.Toggle()

	case "h", "left":
		if m.cursorStep > 0 {
			m.cursorStep--
		}
	case "l", "right":
		if m.cursorStep < snap.Length-1 {
			m.cursorStep++
		}
	case "j", "down":
		if int(m.cursorLane) < engine.NumLanes-1 {
			m.cursorLane++
		}
	case "k", "up":
		if m.cursorLane > 0 {
			m.cursorLane--
		}

	case "+", "=":
		m = m.nudge(snap, +1)
	case "-", "_":
		m = m.nudge(snap, -1)

	case "x":
		m = m.toggleFlag(snap, engine.FlagActive)
	case "t":
		m = m.toggleFlag(snap, engine.FlagTie)
	case "s":
		m = m.toggleFlag(snap, engine.FlagSlide)
	case "a":
		m = m.toggleFlag(snap, engine.FlagAccent)

	case "r":
		m = m.submit(engine.SetInt(engine.LaneRatchet, m.cursorStep, snap.Steps[m.cursorStep].Ratchets-1))
	case "R":
		m = m.submit(engine.SetInt(engine.LaneRatchet, m.cursorStep, snap.Steps[m.cursorStep].Ratchets+1))

	case "c":
		m = m.cycleCondition(snap, -1)
	case "C":
		m = m.cycleCondition(snap, +1)

	case "[":
		n := snap.Length - 1
		m = m.submit(engine.SetLength(n))
		if n >= engine.MinLength && m.cursorStep >= n {
			m.cursorStep = n - 1
		}
	case "]":
		m = m.submit(engine.SetLength(snap.Length + 1))

	case "I":
		m = m.submit(engine.ApplyTransform(m.cursorLane, engine.TransformInvert))
	case "S":
		m = m.submit(engine.ApplyTransform(m.cursorLane, engine.TransformShift))
	case "Z":
		m = m.submit(engine.ApplyTransform(m.cursorLane, engine.TransformRandomize))

	case "e":
		m.prompt = &promptState{kind: promptEuclid, title: "Euclid hits [rotation]"}
	case "w":
		m.prompt = &promptState{kind: promptSave, title: "Save pattern as"}
	case "o":
		names, err := config.ListPatterns()
		if err != nil {
			return m.oops(err), nil
		}
		if len(names) == 0 {
			return m.say("no saved patterns"), nil
		}
		m.prompt = &promptState{kind: promptLoad, title: "Load pattern", options: names}

	case "f":
		m.Seq.SetFill(!m.Seq.FillActive())

	case ",":
		m.Driver.SetTempo(m.Driver.Tempo() - 5)
	case ".":
		m.Driver.SetTempo(m.Driver.Tempo() + 5)
	case "d":
		m.Driver.SetDivision(m.Driver.Division() - 1)
	case "D":
		m.Driver.SetDivision(m.Driver.Division() + 1)

	case "g":
		m.showHelp = !m.showHelp
	}

	return m, nil
}

// nudge adjusts the value under the cursor by one increment
func (m Model) nudge(snap engine.Pattern, dir int) Model {
	st := snap.Steps[m.cursorStep]
	lane, step := m.cursorLane, m.cursorStep

	switch lane {
	case engine.LaneVelocity:
		return m.submit(engine.SetValue(lane, step, st.Velocity+0.05*float64(dir)))
	case engine.LaneGate:
		return m.submit(engine.SetValue(lane, step, st.Gate+0.1*float64(dir)))
	case engine.LanePitch:
		semis := st.PitchSemitones() + dir
		return m.submit(engine.SetValue(lane, step, 0.5+float64(semis)/48))
	case engine.LaneRatchet:
		return m.submit(engine.SetInt(lane, step, st.Ratchets+dir))
	case engine.LaneFlags:
		return m.toggleFlag(snap, engine.FlagActive)
	case engine.LaneCondition:
		return m.cycleCondition(snap, dir)
	}
	return m
}

func (m Model) toggleFlag(snap engine.Pattern, f engine.Flags) Model {
	flags := snap.Steps[m.cursorStep].Flags ^ f
	return m.submit(engine.SetInt(engine.LaneFlags, m.cursorStep, int(flags)))
}

func (m Model) cycleCondition(snap engine.Pattern, dir int) Model {
	n := engine.NumConditions
	c := (int(snap.Steps[m.cursorStep].Condition) + dir + n) % n
	return m.submit(engine.SetInt(engine.LaneCondition, m.cursorStep, c))
}

// submit queues an edit, surfacing rejections in the status line
func (m Model) submit(c engine.Command) Model {
	if err := m.Seq.Submit(c); err != nil {
		return m.oops(err)
	}
	m.status = ""
	m.statusErr = false
	return m
}

func (m Model) say(format string, args ...any) Model {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
	return m
}

func (m Model) oops(err error) Model {
	m.status = err.Error()
	m.statusErr = true
	return m
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompt

	switch msg.String() {
	case "esc":
		m.prompt = nil
		return m, nil

	case "enter":
		m.prompt = nil
		return m.confirmPrompt(p), nil
	}

	// List prompts navigate; text prompts treat every key as typing, so
	// j and k stay usable in preset names
	if p.kind == promptLoad {
		switch msg.String() {
		case "j", "down":
			if p.selected < len(p.options)-1 {
				p.selected++
			}
		case "k", "up":
			if p.selected > 0 {
				p.selected--
			}
		}
		return m, nil
	}

	if msg.String() == "backspace" {
		if len(p.input) > 0 {
			p.input = p.input[:len(p.input)-1]
		}
		return m, nil
	}
	if key := msg.String(); len(key) == 1 && promptAllows(p.kind, key[0]) {
		p.input += key
	}
	return m, nil
}

// promptAllows filters typed characters per prompt kind
func promptAllows(kind promptKind, ch byte) bool {
	switch kind {
	case promptEuclid:
		return ch >= '0' && ch <= '9' || ch == ' ' || ch == '-'
	case promptSave:
		return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' ||
			ch >= '0' && ch <= '9' || ch == '-' || ch == '_'
	}
	return false
}

func (m Model) confirmPrompt(p *promptState) Model {
	switch p.kind {
	case promptEuclid:
		fields := strings.Fields(p.input)
		if len(fields) == 0 {
			return m.say("euclid: nothing entered")
		}
		hits, err := strconv.Atoi(fields[0])
		if err != nil {
			return m.say("euclid: bad hit count %q", fields[0])
		}
		rotation := 0
		if len(fields) > 1 {
			if rotation, err = strconv.Atoi(fields[1]); err != nil {
				return m.say("euclid: bad rotation %q", fields[1])
			}
		}
		m = m.submit(engine.ApplyEuclid(hits, rotation))
		if !m.statusErr {
			m = m.say("euclid %d hits, rotation %d", hits, rotation)
		}
		return m

	case promptSave:
		if err := config.SavePattern(p.input, m.Seq.Snapshot()); err != nil {
			return m.oops(err)
		}
		return m.say("saved %q", p.input)

	case promptLoad:
		if len(p.options) == 0 {
			return m
		}
		name := p.options[p.selected]
		pat, err := config.LoadPattern(name)
		if err != nil {
			return m.oops(err)
		}
		m = m.submit(engine.Replace(pat))
		if !m.statusErr {
			if m.cursorStep >= pat.Length {
				m.cursorStep = pat.Length - 1
			}
			m = m.say("loaded %q", name)
		}
		return m
	}
	return m
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Seq.Snapshot()
	th := m.Theme
	var out strings.Builder

	state := "STOP"
	if m.Seq.Running() {
		state = "PLAY"
	}
	fill := ""
	if m.Seq.FillActive() {
		fill = "  " + th.Fill.Render("FILL")
	}
	out.WriteString("\n")
	out.WriteString(th.Header.Render(fmt.Sprintf("arpseq  %s  %3dbpm  1/%d  step:%02d  loop:%d  seed:%d",
		state, m.Driver.Tempo(), m.Driver.Division()*4, m.Seq.CurrentStep()+1, m.Seq.LoopCount(), m.Seq.Seed())))
	out.WriteString(fill)
	out.WriteString("\n\n")

	out.WriteString(widgets.RenderGrid(widgets.GridState{
		Pattern:    snap,
		CursorLane: m.cursorLane,
		CursorStep: m.cursorStep,
		PlayStep:   m.Seq.CurrentStep(),
		Playing:    m.Seq.Running(),
		Skipped:    m.Seq.SkippedMask(),
		Theme:      th,
	}))
	out.WriteString("\n\n")

	st := snap.Steps[m.cursorStep]
	out.WriteString(th.Status.Render(fmt.Sprintf("step %02d  vel %.2f  gate %.2f  pitch %+d  ratchet %d  %s  cond %s",
		m.cursorStep+1, st.Velocity, st.Gate, st.PitchSemitones(), st.Ratchets,
		flagSummary(st), st.Condition)))
	out.WriteString("\n")

	if m.status != "" {
		style := th.Status
		if m.statusErr {
			style = th.Error
		}
		out.WriteString(style.Render(m.status))
		out.WriteString("\n")
	}

	if m.prompt != nil {
		out.WriteString("\n")
		out.WriteString(m.renderPrompt())
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(widgets.RenderLegend(th))
	out.WriteString("\n\n")

	if m.showHelp {
		out.WriteString(widgets.RenderKeyHelp(helpSections()))
	} else {
		out.WriteString(th.Muted.Render("h/l:step  j/k:lane  +/-:edit  space:play  g:help  q:quit"))
	}

	return out.String()
}

// flagSummary shows the cursor step's modifiers as grid glyphs
func flagSummary(st engine.Step) string {
	if !st.Active() {
		return "rest"
	}
	var b strings.Builder
	b.WriteRune(theme.GlyphHit)
	if st.Flags&engine.FlagTie != 0 {
		b.WriteRune(theme.GlyphTie)
	}
	if st.Flags&engine.FlagSlide != 0 {
		b.WriteRune(theme.GlyphSlide)
	}
	if st.Flags&engine.FlagAccent != 0 {
		b.WriteRune(theme.GlyphAccent)
	}
	return b.String()
}

func (m Model) renderPrompt() string {
	p := m.prompt
	width := 26

	var body []string
	switch p.kind {
	case promptLoad:
		for i, opt := range p.options {
			prefix := "  "
			if i == p.selected {
				prefix = "> "
			}
			body = append(body, prefix+opt)
		}
	default:
		body = append(body, "> "+p.input+"_")
	}

	title := p.title
	if len(title) > width {
		title = title[:width]
	}

	var out strings.Builder
	out.WriteString("┌" + strings.Repeat("─", width) + "┐\n")
	pad := (width - len(title)) / 2
	out.WriteString("│" + strings.Repeat(" ", pad) + title + strings.Repeat(" ", width-pad-len(title)) + "│\n")
	out.WriteString("├" + strings.Repeat("─", width) + "┤\n")
	for _, line := range body {
		if len(line) > width {
			line = line[:width]
		}
		out.WriteString("│" + line + strings.Repeat(" ", width-len(line)) + "│\n")
	}
	out.WriteString("└" + strings.Repeat("─", width) + "┘")
	return out.String()
}

func helpSections() []widgets.KeySection {
	return []widgets.KeySection{
		{Title: "Transport", Keys: []widgets.KeyBinding{
			{Key: "space", Desc: "play / stop"},
			{Key: ", / .", Desc: "tempo -/+ 5 bpm"},
			{Key: "d / D", Desc: "division -/+"},
			{Key: "f", Desc: "fill latch"},
		}},
		{Title: "Cursor", Keys: []widgets.KeyBinding{
			{Key: "h / l", Desc: "step left / right"},
			{Key: "j / k", Desc: "lane down / up"},
		}},
		{Title: "Edit", Keys: []widgets.KeyBinding{
			{Key: "+ / -", Desc: "nudge value"},
			{Key: "x", Desc: "toggle rest"},
			{Key: "t / s / a", Desc: "tie / slide / accent"},
			{Key: "r / R", Desc: "ratchets -/+"},
			{Key: "c / C", Desc: "condition prev / next"},
			{Key: "[ / ]", Desc: "length -/+"},
		}},
		{Title: "Pattern", Keys: []widgets.KeyBinding{
			{Key: "e", Desc: "euclidean fill"},
			{Key: "I / S / Z", Desc: "invert / shift / randomize lane"},
			{Key: "w / o", Desc: "save / load preset"},
		}},
		{Title: "", Keys: []widgets.KeyBinding{
			{Key: "g", Desc: "toggle this help"},
			{Key: "q", Desc: "quit"},
		}},
	}
}
