package ui

import "github.com/charmbracelet/bubbles/key"

// treeKeyMap binds the pedigree tree keys.
type treeKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Collapse    key.Binding
	Expand      key.Binding
	Toggle      key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Delete      key.Binding
	Detail      key.Binding
	Copy        key.Binding
	Close       key.Binding
}

func defaultTreeKeys() treeKeyMap {
	return treeKeyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Collapse:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "collapse")),
		Expand:      key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "expand")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Detail:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Close:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// viewKeyMap binds keys handled by the tree view around the renderer.
type viewKeyMap struct {
	More   key.Binding
	Fewer  key.Binding
	Reload key.Binding
	Back   key.Binding
}

func defaultViewKeys() viewKeyMap {
	return viewKeyMap{
		More:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more generations")),
		Fewer:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "fewer generations")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Back:   key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back to list")),
	}
}

// ShortHelp implements help.KeyMap for the tree view footer.
func (k viewKeyMap) ShortHelp() []key.Binding {
	t := defaultTreeKeys()
	return []key.Binding{t.Toggle, t.Detail, t.Delete, t.Copy, k.More, k.Fewer, k.Back}
}

// FullHelp implements help.KeyMap.
func (k viewKeyMap) FullHelp() [][]key.Binding {
	t := defaultTreeKeys()
	return [][]key.Binding{
		{t.Up, t.Down, t.Top, t.Bottom},
		{t.Collapse, t.Expand, t.Toggle, t.ExpandAll, t.CollapseAll},
		{t.Detail, t.Delete, t.Copy},
		{k.More, k.Fewer, k.Reload, k.Back},
	}
}

// listKeyMap binds the horse and owner list keys.
type listKeyMap struct {
	Search key.Binding
	Open   key.Binding
	Delete key.Binding
	New    key.Binding
	Owners key.Binding
	Reload key.Binding
	Blur   key.Binding
}

func defaultListKeys() listKeyMap {
	return listKeyMap{
		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "pedigree")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new horse")),
		Owners: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "owners")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Blur:   key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "done")),
	}
}

// ShortHelp implements help.KeyMap for the list footer.
func (k listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Open, k.Delete, k.New, k.Owners}
}

// FullHelp implements help.KeyMap.
func (k listKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Search, k.Open, k.Delete}, {k.New, k.Owners, k.Reload}}
}
