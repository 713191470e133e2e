// Package terminal detects what the attached terminal can do, so output
// can decide between plain text and color, spinners, and the full-screen
// preview panel.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Info describes the capabilities detected for stdout. ForceFlag is set
// when the user passed --no-color and wins over everything detected.
type Info struct {
	IsTTY     bool
	NoColor   bool
	Width     int
	Height    int
	ForceFlag bool
}

// Detect inspects stdout and the environment. NO_COLOR (https://no-color.org/)
// and TERM=dumb both disable color; dimensions fall back to 80x24 when the
// size query fails or stdout is not a TTY.
func Detect() *Info {
	stdoutFD := int(os.Stdout.Fd())
	isTTY := term.IsTerminal(stdoutFD)

	width, height := 80, 24

	if isTTY {
		if w, h, err := term.GetSize(stdoutFD); err == nil {
			width, height = w, h
		}
	}

	_, noColor := os.LookupEnv("NO_COLOR")
	if os.Getenv("TERM") == "dumb" {
		noColor = true
	}

	return &Info{
		IsTTY:   isTTY,
		NoColor: noColor,
		Width:   width,
		Height:  height,
	}
}

// ColorEnabled reports whether output should carry ANSI color.
func (t *Info) ColorEnabled() bool {
	if t.ForceFlag {
		return false
	}

	return t.IsTTY && !t.NoColor
}

// SpinnersEnabled reports whether progress spinners should animate.
// Spinners follow the color rules: a NO_COLOR terminal gets static text.
func (t *Info) SpinnersEnabled() bool {
	return t.IsTTY && !t.NoColor
}
