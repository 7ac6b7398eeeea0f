package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/scribe/internal/notes"
)

// visibleNotes applies the hide-completed filter to the current snapshot.
func (m Model) visibleNotes() []notes.Note {
	if !m.hideCompleted {
		return m.snapshot.Notes
	}
	out := make([]notes.Note, 0, len(m.snapshot.Notes))
	for _, n := range m.snapshot.Notes {
		if !n.Completed {
			out = append(out, n)
		}
	}
	return out
}

func (m *Model) clampSelection() {
	count := len(m.visibleNotes())
	if m.selected >= count {
		m.selected = count - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// listHeight is the number of rows left for the list body.
func (m Model) listHeight() int {
	// header, command bar, box borders and title
	return max(m.height-5, 1)
}

func (m Model) renderList() string {
	styles := m.theme.Styles()
	visible := m.visibleNotes()
	width := max(m.width, 20)
	inner := width - 4

	var rows []string
	switch {
	case len(visible) == 0 && m.hideCompleted && len(m.snapshot.Notes) > 0:
		rows = append(rows, styles.MutedText.Render("All notes are completed. Press H to show them."))
	case len(visible) == 0:
		rows = append(rows, styles.MutedText.Render("No notes yet. Press n to write one."))
	default:
		start, end := window(len(visible), m.selected, m.listHeight())
		for i := start; i < end; i++ {
			rows = append(rows, m.renderRow(visible[i], i == m.selected, inner))
		}
	}

	title := "Notes"
	if m.hideCompleted {
		title += " (hiding completed)"
	}
	return m.renderTitledBox(title, strings.Join(rows, "\n"), width)
}

func (m Model) renderRow(n notes.Note, selected bool, width int) string {
	styles := m.theme.Styles()
	bg := m.theme.Background
	if selected {
		bg = m.theme.SelectionBg
		styles = styles.WithBackground(bg)
	}
	painter := NewBgStyle(bg)

	check := "[ ]"
	if n.Completed {
		check = "[x]"
	}
	marker := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.SyncColor(n.Status))).
		Background(lipgloss.Color(bg)).
		Render(syncGlyph(n.Status))

	nameStyle := styles.Text.Bold(true)
	if n.Completed {
		nameStyle = styles.MutedText.Strikethrough(true)
	}

	nameWidth := min(max(width/3, 12), 40)
	name := padRight(truncate(n.Name, nameWidth), nameWidth)
	descWidth := max(width-nameWidth-8, 0)
	desc := truncate(n.Description, descWidth)

	line := marker +
		painter.Space() +
		painter.Render(check, styles.AccentText) +
		painter.Space() +
		nameStyle.Render(name) +
		painter.Spaces(2) +
		painter.Render(desc, styles.FaintText)

	return lipgloss.NewStyle().
		Background(lipgloss.Color(bg)).
		Width(width).
		Render(line)
}

func syncGlyph(s notes.SyncStatus) string {
	switch s {
	case notes.SyncPending:
		return "~"
	case notes.SyncFailed:
		return "!"
	default:
		return "*"
	}
}

// window returns the slice bounds of a scroll window of size height that
// keeps selected visible.
func window(total, selected, height int) (int, int) {
	if total <= height {
		return 0, total
	}
	start := selected - height/2
	start = max(start, 0)
	start = min(start, total-height)
	return start, start + height
}

// renderTitledBox draws a rounded border with the title embedded in the top
// edge.
func (m Model) renderTitledBox(title, body string, width int) string {
	border := lipgloss.RoundedBorder()
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.BorderFocus))
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(true)

	inner := max(width-2, 0)
	label := " " + title + " "
	fill := max(inner-lipgloss.Width(label)-1, 0)
	top := borderStyle.Render(border.TopLeft+border.Top) +
		titleStyle.Render(label) +
		borderStyle.Render(strings.Repeat(border.Top, fill)+border.TopRight)

	content := lipgloss.NewStyle().
		Border(border, false, true, true, true).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(0, 1).
		Width(inner).
		Render(body)

	return top + "\n" + content
}
