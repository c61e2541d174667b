package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	NextPanel   key.Binding
	PrevPanel   key.Binding
	Toggle      key.Binding
	Next        key.Binding
	Prev        key.Binding
	SeekBack    key.Binding
	SeekForward key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	Shuffle     key.Binding
	Repeat      key.Binding
	Like        key.Binding
	Open        key.Binding
	Refresh     key.Binding
	Dismiss     key.Binding
	Up          key.Binding
	Down        key.Binding
	Select      key.Binding
	Remove      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		NextPanel:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
		PrevPanel:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous panel")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Next:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Prev:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		SeekBack:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "seek -10s")),
		SeekForward: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "seek +10s")),
		VolumeUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		VolumeDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		Shuffle:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		Repeat:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		Like:        key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "like")),
		Open:        key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "play URI")),
		Refresh:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Dismiss:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss error")),
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Select:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play/transfer")),
		Remove:      key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove from queue")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.Prev, k.VolumeUp, k.VolumeDown, k.NextPanel, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Next, k.Prev, k.SeekBack, k.SeekForward},
		{k.VolumeUp, k.VolumeDown, k.Shuffle, k.Repeat, k.Like},
		{k.Up, k.Down, k.Select, k.Remove, k.Open},
		{k.NextPanel, k.PrevPanel, k.Refresh, k.Dismiss, k.Help, k.Quit},
	}
}
