// Command arpsmf is the offline companion to arpseq: it lists the MIDI
// ports the live app can bind to and renders patterns to standard MIDI
// files without touching a port.
package main

import (
	"flag"
	"fmt"
	"os"

	gomidi "gitlab.com/gomidi/midi/v2"

	"arpseq/config"
	"arpseq/engine"
	"arpseq/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "render":
		if err := render(os.Args[2:]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
	}
}

func usage() {
	fmt.Println("arpsmf - offline tools for arpseq")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list    - list MIDI ports")
	fmt.Println("  render  - render a pattern to a .mid file")
	fmt.Println("")
	fmt.Println("Run 'arpsmf render -h' for render options")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range gomidi.GetInPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("")
	fmt.Println("=== MIDI Output Ports ===")
	for i, p := range gomidi.GetOutPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

// render drives the engine through a fixed number of pattern passes and
// writes what it played. Flags stand alone instead of reading the config
// file, so a render is reproducible on any machine.
func render(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var (
		out      = fs.String("out", "arpseq.mid", "output file")
		preset   = fs.String("preset", "", "saved pattern name (default pattern when empty)")
		seed     = fs.Uint64("seed", 1, "seed for condition and spread randomness")
		bpm      = fs.Int("bpm", 120, "tempo")
		division = fs.Int("division", 4, "steps per beat, 4 = 16ths")
		rate     = fs.Int("rate", 48000, "sample rate for scheduling math")
		loops    = fs.Int("loops", 4, "pattern passes to render")
		channel  = fs.Uint("channel", 0, "MIDI channel 0-15")
		root     = fs.Uint("root", 60, "MIDI note for pitch offset 0")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	switch {
	case *bpm < 20 || *bpm > 300:
		return fmt.Errorf("bpm %d out of range 20-300", *bpm)
	case *division < 1 || *division > 8:
		return fmt.Errorf("division %d out of range 1-8", *division)
	case *rate < 8000 || *rate > 192000:
		return fmt.Errorf("sample rate %d out of range 8000-192000", *rate)
	case *loops < 1:
		return fmt.Errorf("need at least one loop, got %d", *loops)
	case *channel > 15:
		return fmt.Errorf("channel %d out of range 0-15", *channel)
	case *root > 127:
		return fmt.Errorf("root note %d out of range 0-127", *root)
	}

	seq := engine.New(*seed)
	if *preset != "" {
		pat, err := config.LoadPattern(*preset)
		if err != nil {
			return err
		}
		if err := seq.Submit(engine.Replace(pat)); err != nil {
			return err
		}
		seq.Drain()
	}

	step := *rate * 60 / (*bpm * *division)
	steps := *loops * seq.Snapshot().Length

	seq.Start()
	var triggers []engine.Trigger
	for i := 0; i < steps; i++ {
		t := engine.Tick{SampleOffset: i * step, StepSamples: step}
		triggers = append(triggers, seq.Tick(t)...)
	}
	seq.Stop()

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := midi.RenderSMF(f, float64(*bpm), *rate, uint8(*channel), uint8(*root), triggers); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("rendered %d steps (%d triggers) to %s\n", steps, len(triggers), *out)
	return nil
}
