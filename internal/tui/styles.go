// Package tui provides terminal user interface components.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oktotech/okto-go/internal/okto"
)

// Styles holds the styled components for interactive output.
type Styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles creates styles from the default wallet theme.
func NewStyles() *Styles {
	return NewStylesWithTheme(okto.DefaultTheme())
}

// NewStylesWithTheme creates styles from a wallet theme, so the terminal
// matches the hosted pages.
func NewStylesWithTheme(t okto.Theme) *Styles {
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(Color(t.TextPrimaryColor)),
		Muted:   lipgloss.NewStyle().Foreground(Color(t.TextTertiaryColor)),
		Accent:  lipgloss.NewStyle().Foreground(Color(t.Accent1Color)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#4CB782")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E25C5C")).Bold(true),
	}
}

// Color converts a 0xAARRGGBB theme color to a lipgloss color. Alpha is
// dropped; malformed values yield the terminal default.
func Color(argb string) lipgloss.TerminalColor {
	hex := strings.TrimPrefix(strings.TrimPrefix(argb, "0x"), "0X")
	switch len(hex) {
	case 8:
		hex = hex[2:]
	case 6:
	default:
		return lipgloss.NoColor{}
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return lipgloss.NoColor{}
		}
	}
	return lipgloss.Color("#" + strings.ToUpper(hex))
}
