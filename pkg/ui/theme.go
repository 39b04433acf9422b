// Package ui implements the pv terminal interface: the pedigree tree view,
// the horse and owner lists, the create form and toast notifications.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

// Theme holds the colors and styles shared by every view. Styles are built
// from Renderer so tests can use a renderer without a terminal.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Female    lipgloss.AdaptiveColor
	Male      lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Base      lipgloss.Style
	Selected  lipgloss.Style
	MutedText lipgloss.Style
	Header    lipgloss.Style
}

// DefaultTheme returns the standard pv palette.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#5A3E9B", Dark: "#B39DDB"},
		Secondary: lipgloss.AdaptiveColor{Light: "#8D6E00", Dark: "#FFD54F"},
		Highlight: lipgloss.AdaptiveColor{Light: "#00796B", Dark: "#4DB6AC"},
		Muted:     lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9E9E9E"},
		Female:    lipgloss.AdaptiveColor{Light: "#C2185B", Dark: "#F48FB1"},
		Male:      lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#90CAF9"},
		Success:   lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"},
		Danger:    lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"},
	}
	t.Base = r.NewStyle()
	t.Selected = r.NewStyle().Bold(true).Foreground(t.Primary)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.Header = r.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1)
	return t
}

// SexColor returns the icon color for a sex.
func (t Theme) SexColor(s model.Sex) lipgloss.AdaptiveColor {
	if s == model.SexFemale {
		return t.Female
	}
	return t.Male
}
