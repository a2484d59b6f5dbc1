package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Open          key.Binding
	Back          key.Binding
	Check         key.Binding
	CheckMarked   key.Binding
	Add           key.Binding
	Edit          key.Binding
	Delete        key.Binding
	DeleteMarked  key.Binding
	Mark          key.Binding
	MarkAll       key.Binding
	Search        key.Binding
	Sort          key.Binding
	Copy          key.Binding
	ExportSites   key.Binding
	ExportChanges key.Binding
	Reload        key.Binding
	Dismiss       key.Binding
	DismissAll    key.Binding
	Quit          key.Binding
}

var keys = keyMap{
	Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
	Back:          key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Check:         key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check")),
	CheckMarked:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "check marked")),
	Add:           key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:          key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	DeleteMarked:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete marked")),
	Mark:          key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "mark")),
	MarkAll:       key.NewBinding(key.WithKeys("*"), key.WithHelp("*", "mark all")),
	Search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Sort:          key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort")),
	Copy:          key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy url")),
	ExportSites:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
	ExportChanges: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "export changes")),
	Reload:        key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "reload")),
	Dismiss:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "dismiss")),
	DismissAll:    key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "dismiss all")),
	Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
