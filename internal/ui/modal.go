package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Modal is a dialog drawn over the list. Update reports whether the modal
// should close; a modal that has a result to hand back does so through the
// returned command.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}
