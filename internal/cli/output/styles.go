package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header1  lipgloss.Style
	Header2  lipgloss.Style
	Entity   lipgloss.Style
	Muted    lipgloss.Style
	ErrorMsg lipgloss.Style
}

// DefaultStyles returns the standard style set.
func DefaultStyles() Styles {
	return Styles{
		Header1:  lipgloss.NewStyle().Bold(true).Underline(true),
		Header2:  lipgloss.NewStyle().Bold(true),
		Entity:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		ErrorMsg: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}
