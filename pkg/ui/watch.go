package ui

import tea "github.com/charmbracelet/bubbletea"

// DataChangedMsg reports that the backing store changed outside this
// process.
type DataChangedMsg struct{}

// WaitForChange blocks until changes fires. It returns nil once the channel
// is closed so the program stops listening.
func WaitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return DataChangedMsg{}
	}
}
