package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"pairing-gallery/internal/gallery"
)

type keyMap struct {
	Enter     key.Binding
	Prev      key.Binding
	Next      key.Binding
	Up        key.Binding
	Down      key.Binding
	Back      key.Binding
	OpenImage key.Binding
	OpenInfo  key.Binding
	CopyPoem  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Prev:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
		Next:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		OpenImage: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open image")),
		OpenInfo:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "painting info")),
		CopyPoem:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy poem")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// viewKeys adapts keyMap to help.KeyMap for the bindings that apply in one view.
type viewKeys struct {
	km   keyMap
	view gallery.View
}

func (v viewKeys) ShortHelp() []key.Binding {
	km := v.km
	switch v.view {
	case gallery.ViewStart:
		return []key.Binding{km.Enter, km.Quit}
	case gallery.ViewGallery:
		return []key.Binding{km.Prev, km.Next, km.Enter, km.OpenImage, km.Help, km.Quit}
	case gallery.ViewPaintingDetail:
		return []key.Binding{km.Up, km.Down, km.Enter, km.Back, km.Help, km.Quit}
	case gallery.ViewPairingDetail:
		return []key.Binding{km.Up, km.Down, km.CopyPoem, km.Back, km.Help, km.Quit}
	}
	return []key.Binding{km.Quit}
}

func (v viewKeys) FullHelp() [][]key.Binding {
	km := v.km
	switch v.view {
	case gallery.ViewGallery:
		return [][]key.Binding{{km.Prev, km.Next, km.Enter}, {km.OpenImage, km.Help, km.Quit}}
	case gallery.ViewPaintingDetail:
		return [][]key.Binding{{km.Up, km.Down, km.Enter, km.Back}, {km.OpenImage, km.OpenInfo, km.Help, km.Quit}}
	case gallery.ViewPairingDetail:
		return [][]key.Binding{{km.Up, km.Down, km.Back}, {km.CopyPoem, km.OpenImage, km.OpenInfo}, {km.Help, km.Quit}}
	}
	return [][]key.Binding{v.ShortHelp()}
}
