package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const logoText = "scribe"

// renderHeader renders the status line: load phase, counts and the most
// recent write failure.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	snap := m.snapshot

	parts := []string{styles.Logo.Render(logoText)}

	switch {
	case snap.Loading():
		parts = append(parts, bg.Render("Loading...", styles.InfoText))
	case snap.Failed():
		parts = append(parts, bg.Render("Failed to load notes", styles.DangerText))
	default:
		parts = append(parts, bg.Render(plural(len(snap.Notes), "note"), styles.Text))
	}

	if pending := snap.Pending(); pending > 0 {
		parts = append(parts, bg.Render(plural(pending, "pending write"), styles.WarningText))
	}
	if snap.FailedWrites > 0 {
		parts = append(parts, bg.Render(plural(snap.FailedWrites, "failed write"), styles.DangerText))
	}

	switch {
	case m.flash != "":
		parts = append(parts, bg.Render(truncate(m.flash, 60), styles.DangerText))
	case snap.LastWriteErr != nil:
		parts = append(parts, bg.Render(truncate(snap.LastWriteErr.Error(), 60), styles.MutedText))
	}

	line := bg.Join(parts, "  ")
	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Width(max(m.width, 1)).
		Padding(0, 1).
		Render(line)
}

// renderCommandBar shows the short key help.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning))

	var items []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		items = append(items, keyStyle.Render("<"+h.Key+">")+" "+styles.MutedText.Render(h.Desc))
	}
	if m.currentView == ViewLogs {
		items = append(items, keyStyle.Render("<esc>")+" "+styles.MutedText.Render("Back"))
	}
	return " " + strings.Join(items, "  ")
}
