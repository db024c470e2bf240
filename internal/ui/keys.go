package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the timer key bindings.
type keyMap struct {
	Quit       key.Binding
	Start      key.Binding
	End        key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
	Dismiss    key.Binding
	Preset     key.Binding
	CycleTheme key.Binding
	Mood       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start fast"),
		),
		End: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "end fast"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "cancel"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("enter", "esc"),
			key.WithHelp("enter", "done"),
		),
		Preset: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "cycle preset"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "cycle theme"),
		),
		Mood: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "mood"),
		),
	}
}
