package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/scribe/internal/notes"
)

const (
	fieldName = iota
	fieldDescription
	fieldCount
)

const (
	nameCharLimit        = 120
	descriptionCharLimit = 500
	formWidth            = 60
)

// draftMsg carries a validated draft from the form to the model.
type draftMsg notes.Draft

// createForm collects the name and description of a new note.
type createForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	errors []string
}

func newCreateForm() *createForm {
	name := textinput.New()
	name.Placeholder = "Name"
	name.CharLimit = nameCharLimit
	name.Prompt = "Name        "

	desc := textinput.New()
	desc.Placeholder = "Description"
	desc.CharLimit = descriptionCharLimit
	desc.Prompt = "Description "

	f := &createForm{inputs: [fieldCount]textinput.Model{name, desc}}
	f.inputs[fieldName].Focus()
	return f
}

func (f *createForm) draft() notes.Draft {
	return notes.Draft{
		Name:        strings.TrimSpace(f.inputs[fieldName].Value()),
		Description: strings.TrimSpace(f.inputs[fieldDescription].Value()),
	}
}

func (f *createForm) setFocus(idx int) {
	f.focus = (idx + fieldCount) % fieldCount
	for i := range f.inputs {
		if i == f.focus {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

// Update implements Modal.
func (f *createForm) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case kmsg.String() == "ctrl+c":
			return f, tea.Quit, true
		case key.Matches(kmsg, keys.Escape):
			return f, nil, true
		case key.Matches(kmsg, keys.NextField):
			f.setFocus(f.focus + 1)
			return f, nil, false
		case key.Matches(kmsg, keys.PrevField):
			f.setFocus(f.focus - 1)
			return f, nil, false
		case key.Matches(kmsg, keys.Submit):
			d := f.draft()
			if err := d.Validate(); err != nil {
				f.errors = strings.Split(err.Error(), "\n")
				return f, nil, false
			}
			return f, func() tea.Msg { return draftMsg(d) }, true
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

// View implements Modal.
func (f *createForm) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("New note"))
	b.WriteString("\n\n")
	for i := range f.inputs {
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	if len(f.errors) > 0 {
		b.WriteString("\n")
		for _, e := range f.errors {
			b.WriteString(styles.DangerText.Render("! " + e))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter save · tab switch field · esc cancel"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(min(formWidth, max(width-4, 20))).
		Render(b.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
