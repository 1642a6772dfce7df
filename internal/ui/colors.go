// Package ui holds terminal presentation helpers: colors, the progress bar,
// and the event log.
package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// NoColor disables styling; set when stdout is not a terminal or NO_COLOR
// is present.
var NoColor = os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd())

func style(code, s string) string {
	if NoColor {
		return s
	}
	return code + s + ColorReset
}

func Bold(s string) string {
	return style(ColorBold, s)
}

func Success(s string) string {
	return style(ColorGreen, s)
}

func Info(s string) string {
	return style(ColorDim+ColorYellow, s)
}

func Warn(s string) string {
	return style(ColorYellow, s)
}

func Error(s string) string {
	return style(ColorRed, s)
}

func Heading(s string) string {
	return style(ColorBold+ColorCyan, s)
}
