// Package app hosts the terminal week view.
package app

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/studiora/studiora/internal/router"
	"github.com/studiora/studiora/internal/screens/week"
	"github.com/studiora/studiora/internal/store"
	"github.com/studiora/studiora/internal/ui/layout"
)

// Model is the root Bubble Tea model.
type Model struct {
	router *router.Router
	width  int
	height int
}

// New creates the root model showing the current week.
func New(st *store.Store, loc *time.Location, now func() time.Time) Model {
	repos := week.Repos{
		Schedule:    st.ScheduleRepo(),
		Assignments: st.AssignmentRepo(),
		Events:      st.EventRepo(),
	}
	return NewWithScreen(week.New(repos, loc, now))
}

// NewWithScreen creates the root model around an initial screen.
func NewWithScreen(initial router.Screen) Model {
	return Model{router: router.New(initial)}
}

func (m Model) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.router.Depth() == 1 && !m.prompting() {
				return m, tea.Quit
			}
		case "esc":
			if m.router.Depth() > 1 {
				return m, router.Pop
			}
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m Model) prompting() bool {
	p, ok := m.router.Active().(interface{ Prompting() bool })
	return ok && p.Prompting()
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

func (m Model) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	var status string
	if sp, ok := active.(router.StatusProvider); ok {
		status = sp.Status()
	}
	header := layout.RenderHeader(active.Title(), status, m.width)

	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if hp, ok := active.(router.KeyHintProvider); ok {
		hints = hp.KeyHints()
	}
	footer := layout.RenderFooter(hints, m.width)

	content := m.router.View(m.width, layout.ContentHeight(header, footer, m.height))
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run week view: %w", err)
	}
	return nil
}
