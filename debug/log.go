// Package debug is a file logger for the control-side paths. The engine's
// tick path never logs; transport, midi and tui use this to trace timing
// and edit flow without fighting the TUI for the terminal.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	file    *os.File
	enabled bool
	every   = make(map[string]int)
)

// Enable starts logging to ~/.config/arpseq/debug.log, truncating any
// previous run
func Enable() error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, ".config", "arpseq")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	file = f
	enabled = true
	write("debug", "=== log started ===")
	return nil
}

// Disable stops logging and closes the file
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
}

// Log writes one line tagged with a category
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// LogEvery writes only every nth call with the same category and format.
// For per-tick events that would otherwise swamp the file.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled || n <= 0 {
		return
	}
	key := category + format
	every[key]++
	if every[key]%n != 0 {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// write assumes mu is held. Sync immediately so a crash still leaves the
// tail on disk.
func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(file, "[%s] %-9s %s\n", ts, category, msg)
	file.Sync()
}
