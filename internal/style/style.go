// Package style provides consistent terminal styling for lkcalc output
// using Lipgloss. Colors adapt to light and dark backgrounds; plain
// output is selected automatically when stdout is not a terminal.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	colorResult = lipgloss.AdaptiveColor{
		Light: "#86b300", // bright green
		Dark:  "#c2d94c",
	}
	colorError = lipgloss.AdaptiveColor{
		Light: "#f07171", // bright red
		Dark:  "#f07178",
	}
	colorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // bright blue
		Dark:  "#59c2ff",
	}
	colorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
)

var (
	// Result style for computed formula values (green)
	Result = lipgloss.NewStyle().
		Foreground(colorResult).
		Bold(true)

	// Error style for failures and error labels (red)
	Error = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	// Info style for headers and prompts (blue)
	Info = lipgloss.NewStyle().
		Foreground(colorAccent)

	// Dim style for secondary output: token dumps, history, hints (gray)
	Dim = lipgloss.NewStyle().
		Foreground(colorMuted)

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().
		Bold(true)
)

func init() {
	if ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.ColorProfile())
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Disable turns off all styling for the rest of the process. Used by
// --no-color and by commands writing to pipes.
func Disable() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
