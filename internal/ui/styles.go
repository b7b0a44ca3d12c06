// Package ui provides terminal styling for sc CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Semantic status colors (Ayu theme, adaptive light/dark).
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
)

// Status styles, consistent across commands.
var (
	PassStyle  = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle  = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)

// Status icons.
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
)

// Pass renders a success line.
func Pass(format string, args ...any) string {
	return PassStyle.Render(IconPass+" ") + fmt.Sprintf(format, args...)
}

// Warn renders a warning line.
func Warn(format string, args ...any) string {
	return WarnStyle.Render(IconWarn+" ") + fmt.Sprintf(format, args...)
}

// Detail renders a muted detail line, indented under its parent.
func Detail(format string, args ...any) string {
	return MutedStyle.Render("  " + fmt.Sprintf(format, args...))
}
