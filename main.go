package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"arpseq/config"
	"arpseq/debug"
	"arpseq/engine"
	"arpseq/midi"
	"arpseq/theme"
	"arpseq/transport"
	"arpseq/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Printf("debug log unavailable: %v\n", err)
		}
		defer debug.Disable()
	}

	// Engine and clock
	seq := engine.New(cfg.Seed)
	drv := transport.New(seq, cfg.BPM, cfg.Division, cfg.SampleRate)

	// MIDI output; without a port the sequencer still runs, just silent
	out, err := midi.NewOutput(cfg.OutPort, cfg.Channel, cfg.RootNote)
	if err != nil {
		fmt.Printf("midi out: %v (running silent)\n", err)
	} else {
		drv.AddSink(out)
		defer out.Close()
	}

	// Optional control input: external start/stop and the fill controller
	if in, err := midi.Listen(cfg.InPort, cfg.FillCC, cfg.ToggleNote); err != nil {
		debug.Log("midi", "no input: %v", err)
	} else {
		defer in.Close()
		go func() {
			for ev := range in.Events() {
				switch ev.Kind {
				case midi.EventStart:
					drv.Play()
				case midi.EventStop:
					drv.Stop()
				case midi.EventToggle:
					drv.Toggle()
				case midi.EventFill:
					seq.SetFill(ev.On)
				}
			}
		}()
	}

	drv.Run()
	defer drv.Close()

	m := tui.NewModel(seq, drv, theme.New(cfg.Theme))
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
