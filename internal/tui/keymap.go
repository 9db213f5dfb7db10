package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	toggleHelp key.Binding
	nextField  key.Binding
	prevField  key.Binding
	submit     key.Binding
	increase   key.Binding
	decrease   key.Binding
	scrollUp   key.Binding
	scrollDown key.Binding
	copySum    key.Binding
	restart    key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		nextField:  key.NewBinding(key.WithKeys("tab", "down", "j"), key.WithHelp("tab/↓", "next field")),
		prevField:  key.NewBinding(key.WithKeys("shift+tab", "up", "k"), key.WithHelp("shift+tab/↑", "prev field")),
		submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "check / continue")),
		increase:   key.NewBinding(key.WithKeys("+", "=", "right", "l"), key.WithHelp("+/→", "increase")),
		decrease:   key.NewBinding(key.WithKeys("-", "_", "left", "h"), key.WithHelp("-/←", "decrease")),
		scrollUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll up")),
		scrollDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll down")),
		copySum:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy summary")),
		restart:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "play again")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.nextField, k.increase, k.submit, k.scrollDown, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.submit, k.nextField, k.prevField, k.increase, k.decrease},
		{k.scrollUp, k.scrollDown, k.copySum, k.restart, k.toggleHelp, k.quit},
	}
}

// textEntryKeys narrows bindings while a text field owns the keyboard.
// Letters typed into a field must not trigger navigation or quit.
func (k keyMap) textEntryKeys() keyMap {
	out := k
	out.quit = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	out.nextField = key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab/↓", "next field"))
	out.prevField = key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab/↑", "prev field"))
	out.increase.SetEnabled(false)
	out.decrease.SetEnabled(false)
	out.copySum.SetEnabled(false)
	out.restart.SetEnabled(false)
	out.toggleHelp = key.NewBinding(key.WithKeys("ctrl+h"), key.WithHelp("ctrl+h", "toggle help"))
	return out
}
