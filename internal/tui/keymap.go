// Package tui provides the interactive review of stored spending entries.
package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the review shortcuts.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Pick   key.Binding
	Edit   key.Binding
	Skip   key.Binding
	Save   key.Binding
	Cancel key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Pick: key.NewBinding(
			key.WithKeys("1", "2", "3"),
			key.WithHelp("1-3", "use suggestion"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit merchant"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s", "tab"),
			key.WithHelp("s", "skip"),
		),
		Save: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pick, k.Edit, k.Skip, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Skip},
		{k.Pick, k.Edit, k.Save, k.Cancel},
		{k.Help, k.Quit},
	}
}
