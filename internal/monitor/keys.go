package monitor

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the monitor's keyboard bindings.
type KeyMap struct {
	Stop    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop counting"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
