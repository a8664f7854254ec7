package components

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studiora/studiora/internal/ui/theme"
)

// DateInput wraps bubbles/textinput for entering a YYYY-MM-DD date.
type DateInput struct {
	Model textinput.Model
	loc   *time.Location
	err   string
}

// NewDateInput creates a focused date input. Parsed dates are midnight in loc.
func NewDateInput(placeholder string, loc *time.Location) DateInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = len(time.DateOnly)
	ti.Prompt = "Go to date: "
	ti.Focus()
	if loc == nil {
		loc = time.Local
	}
	return DateInput{Model: ti, loc: loc}
}

// Init returns the initial command.
func (d DateInput) Init() tea.Cmd {
	return d.Model.Focus()
}

// Update handles messages. Only digits and dashes are accepted.
func (d DateInput) Update(msg tea.Msg) (DateInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		key := kmsg.String()
		if len(key) == 1 && (key[0] < '0' || key[0] > '9') && key[0] != '-' {
			return d, nil
		}
	}
	d.err = ""

	var cmd tea.Cmd
	d.Model, cmd = d.Model.Update(msg)
	return d, cmd
}

// View renders the input and the last validation error.
func (d DateInput) View() string {
	view := d.Model.View()
	if d.err != "" {
		view += " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗ "+d.err)
	}
	return view
}

// Date parses the current value. On failure the error is shown by View.
func (d *DateInput) Date() (time.Time, bool) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(d.Model.Value()), d.loc)
	if err != nil {
		d.err = "use YYYY-MM-DD"
		return time.Time{}, false
	}
	return t, true
}
