package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/five82/scribe/internal/notes"
	"github.com/five82/scribe/internal/prefs"
	"github.com/five82/scribe/internal/state"
)

// NoteCore is the part of the sync core the view drives.
type NoteCore interface {
	Snapshot() state.Snapshot
	Subscribe() (<-chan struct{}, func())
	RequestCreate(name, description string) (notes.Note, error)
	RequestDelete(id string) error
	RequestToggle(id string) error
}

// View represents the active screen.
type View int

const (
	ViewNotes View = iota
	ViewLogs
)

// Options configures the UI.
type Options struct {
	Core      NoteCore
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
	Logger    log.FieldLogger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	core        NoteCore
	changes     <-chan struct{}
	unsubscribe func()
	prefsPath   string
	logPath     string
	log         log.FieldLogger
	keys        keyMap

	theme         Theme
	hideCompleted bool
	currentView   View
	width         int
	height        int
	ready         bool
	showHelp      bool
	modal         Modal

	snapshot state.Snapshot
	selected int
	flash    string

	logViewport viewport.Model
	logLines    []string
	logErr      error
}

// New creates the model and subscribes it to core changes.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	m := Model{
		core:          opts.Core,
		prefsPath:     opts.PrefsPath,
		logPath:       opts.LogPath,
		log:           logger,
		keys:          DefaultKeyMap(),
		theme:         GetTheme(opts.Prefs.Theme),
		hideCompleted: opts.Prefs.HideCompleted,
		currentView:   ViewNotes,
	}
	if m.core != nil {
		m.changes, m.unsubscribe = m.core.Subscribe()
		m.snapshot = m.core.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeLogViewport()
		return m, nil

	case changeMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case draftMsg:
		m.create(notes.Draft(msg))
		return m, nil

	case logTailMsg:
		m.handleLogTail(msg)
		return m, nil

	case logTickMsg:
		if m.currentView != ViewLogs {
			return m, nil
		}
		return m, tea.Batch(m.readLogs(), logTickCmd())
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if kmsg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(kmsg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting scribe..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderList())
	}
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		if m.currentView == ViewLogs {
			m.currentView = ViewNotes
			return m, nil
		}
		m.currentView = ViewLogs
		return m, tea.Batch(m.readLogs(), logTickCmd())
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewNotes
		m.flash = ""
		return m, nil
	}

	if m.currentView == ViewLogs {
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visibleNotes()

	switch {
	case key.Matches(msg, m.keys.New):
		m.modal = newCreateForm()
		return m, nil
	case key.Matches(msg, m.keys.HideComplete):
		m.hideCompleted = !m.hideCompleted
		m.savePrefs()
		m.clampSelection()
		return m, nil
	}

	if len(visible) == 0 {
		return m, nil
	}
	current := visible[m.selected]

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(visible)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = len(visible) - 1
	case key.Matches(msg, m.keys.Toggle):
		m.report(m.core.RequestToggle(current.ID), "toggle")
		m.refresh()
	case key.Matches(msg, m.keys.Delete):
		m.report(m.core.RequestDelete(current.ID), "delete")
		m.refresh()
	}
	return m, nil
}

func (m *Model) create(d notes.Draft) {
	if m.core == nil {
		return
	}
	note, err := m.core.RequestCreate(d.Name, d.Description)
	m.report(err, "create")
	m.refresh()
	if err == nil {
		if idx := notes.IndexOf(m.visibleNotes(), note.ID); idx >= 0 {
			m.selected = idx
		}
	}
}

func (m *Model) report(err error, action string) {
	if err == nil {
		m.flash = ""
		return
	}
	m.log.WithError(err).WithField("action", action).Warn("intent rejected")
	m.flash = action + " failed: " + err.Error()
}

func (m *Model) refresh() {
	if m.core == nil {
		return
	}
	m.snapshot = m.core.Snapshot()
	m.clampSelection()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, HideCompleted: m.hideCompleted}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.WithError(err).Warn("save prefs")
	}
}

// Close releases the core change subscription. Safe to call more than once.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

type changeMsg struct{}

// waitForChange blocks on the core's change channel. It is re-armed after
// every changeMsg.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changeMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// ends.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
