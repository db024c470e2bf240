package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hyperengineering/fastline/internal/fasting"
)

// Theme defines colors for the timer view.
type Theme struct {
	Name string

	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string

	// Progress bar gradient endpoints.
	BarFrom string
	BarTo   string

	// MilestoneColors maps a milestone to its chip color.
	MilestoneColors map[fasting.Milestone]string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Title       lipgloss.Style
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	Clock       lipgloss.Style
	Banner      lipgloss.Style
	Help        lipgloss.Style

	milestones map[fasting.Milestone]string
	muted      string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),

		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		Clock: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)).
			Bold(true),

		Banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Success)).
			Padding(0, 2).
			Bold(true),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		milestones: t.MilestoneColors,
		muted:      t.Muted,
	}
}

// Milestone renders a milestone chip. MilestoneNone renders as empty.
func (s Styles) Milestone(m fasting.Milestone) string {
	label := m.Label()
	if label == "" {
		return ""
	}
	color, ok := s.milestones[m]
	if !ok {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Bold(true).
		Render("● " + label)
}

var themeOrder = []string{"default", "night"}

var themes = map[string]Theme{
	"default": defaultTheme(),
	"night":   nightTheme(),
}

// GetTheme returns the named theme, or the default theme for unknown names.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return defaultTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func defaultTheme() Theme {
	return Theme{
		Name:    "default",
		Text:    "#e5e7eb",
		Muted:   "#94a3b8",
		Accent:  "#a855f7",
		Success: "#22c55e",
		Warning: "#f59e0b",
		Danger:  "#ef4444",
		BarFrom: "#c084fc",
		BarTo:   "#7e22ce",
		MilestoneColors: map[fasting.Milestone]string{
			fasting.MilestoneFatBurn:   "#f97316",
			fasting.MilestoneHalfway:   "#eab308",
			fasting.MilestoneAutophagy: "#38bdf8",
			fasting.MilestoneComplete:  "#22c55e",
		},
	}
}

func nightTheme() Theme {
	return Theme{
		Name:    "night",
		Text:    "#cdcecf",
		Muted:   "#71839b",
		Accent:  "#9d79d6",
		Success: "#81b29a",
		Warning: "#dbc074",
		Danger:  "#c94f6d",
		BarFrom: "#86abdc",
		BarTo:   "#9d79d6",
		MilestoneColors: map[fasting.Milestone]string{
			fasting.MilestoneFatBurn:   "#f4a261",
			fasting.MilestoneHalfway:   "#dbc074",
			fasting.MilestoneAutophagy: "#63cdcf",
			fasting.MilestoneComplete:  "#81b29a",
		},
	}
}
