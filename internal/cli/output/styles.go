package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles groups the lipgloss styles used by the renderer.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Key     lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles builds styles bound to w. Without a terminal every style is
// plain so piped output stays free of escape codes.
func NewStyles(w io.Writer, colored bool) *Styles {
	lr := lipgloss.NewRenderer(w)
	if !colored {
		plain := lr.NewStyle()
		return &Styles{
			Header: plain, Bold: plain, Key: plain, Success: plain,
			Warning: plain, Error: plain, Info: plain, Muted: plain,
		}
	}
	return &Styles{
		Header:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Bold:    lr.NewStyle().Bold(true),
		Key:     lr.NewStyle().Foreground(lipgloss.Color("14")),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lr.NewStyle().Foreground(lipgloss.Color("9")),
		Info:    lr.NewStyle().Foreground(lipgloss.Color("12")),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
