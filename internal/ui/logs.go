package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/scribe/internal/logtail"
)

const (
	logTailLines   = 500
	logRefreshTick = time.Second
)

type logTailMsg struct {
	lines []string
	err   error
}

type logTickMsg struct{}

func logTickCmd() tea.Cmd {
	return tea.Tick(logRefreshTick, func(time.Time) tea.Msg { return logTickMsg{} })
}

func (m Model) readLogs() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		if path == "" {
			return logTailMsg{}
		}
		lines, err := logtail.Read(path, logTailLines)
		return logTailMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogTail(msg logTailMsg) {
	atBottom := m.logViewport.AtBottom() || len(m.logLines) == 0
	m.logLines = msg.lines
	m.logErr = msg.err
	m.resizeLogViewport()
	m.logViewport.SetContent(m.formatLogs())
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) resizeLogViewport() {
	width := max(m.width-4, 1)
	height := m.listHeight()
	if m.logViewport.Width == 0 && m.logViewport.Height == 0 {
		m.logViewport = viewport.New(width, height)
		return
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
}

func (m Model) formatLogs() string {
	styles := m.theme.Styles()
	if m.logErr != nil {
		return styles.DangerText.Render("read log: " + m.logErr.Error())
	}
	if len(m.logLines) == 0 {
		if m.logPath == "" {
			return styles.MutedText.Render("Logging to a file is disabled.")
		}
		return styles.MutedText.Render("No log lines yet.")
	}

	var b strings.Builder
	for i, line := range m.logLines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.formatLogLine(line))
	}
	return b.String()
}

func (m Model) formatLogLine(line string) string {
	styles := m.theme.Styles()
	e := logtail.ParseLine(line)
	if e.Level == "" {
		return styles.Text.Render(e.Msg)
	}

	levelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.LevelColor(e.Level))).Bold(true)
	parts := []string{}
	if e.Time != "" {
		parts = append(parts, styles.FaintText.Render(shortTime(e.Time)))
	}
	parts = append(parts, levelStyle.Render(padRight(strings.ToUpper(e.Level), 7)), styles.Text.Render(e.Msg))
	for _, kv := range e.Fields {
		parts = append(parts, styles.MutedText.Render(kv[0]+"=")+styles.InfoText.Render(kv[1]))
	}
	return strings.Join(parts, " ")
}

// shortTime trims an RFC 3339 timestamp to its clock part.
func shortTime(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func (m Model) renderLogs() string {
	return m.renderTitledBox("Logs", m.logViewport.View(), max(m.width, 20))
}
