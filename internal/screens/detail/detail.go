// Package detail shows a single study block.
package detail

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/studiora/studiora/internal/router"
	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
	"github.com/studiora/studiora/internal/ui/layout"
	"github.com/studiora/studiora/internal/ui/theme"
)

// Screen describes a block and the assignment it serves.
type Screen struct {
	block      scheduler.Block
	assignment *store.Assignment
}

var _ router.Screen = (*Screen)(nil)
var _ router.KeyHintProvider = (*Screen)(nil)

// New creates the screen. assignment may be nil when it is not due in the
// week being viewed.
func New(b scheduler.Block, assignment *store.Assignment) *Screen {
	return &Screen{block: b, assignment: assignment}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return s.block.Title }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

func (s *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok {
		switch k.String() {
		case "esc", "backspace", "q":
			return s, router.Pop
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	b := s.block
	rows := [][2]string{
		{"When", fmt.Sprintf("%s, %s–%s", b.Start.Format("Monday Jan 02"), b.Start.Format("15:04"), b.End.Format("15:04"))},
		{"Hours", fmt.Sprintf("%.1f", b.Hours)},
		{"Kind", string(b.Kind)},
		{"Assignment", b.AssignmentTitle},
		{"Type", string(b.AssignmentType)},
		{"Priority", string(b.Priority)},
		{"Energy", string(b.Energy)},
	}
	if b.Suboptimal {
		rows = append(rows, [2]string{"Note", "high-energy work on a low-energy day"})
	}
	if a := s.assignment; a != nil {
		due := a.Due.Format(time.DateOnly)
		if a.DueTime != "" {
			due += " " + a.DueTime
		}
		rows = append(rows, [2]string{"Due", due})
		if a.Description != "" {
			rows = append(rows, [2]string{"Notes", a.Description})
		}
	}

	var out strings.Builder
	out.WriteString(lipgloss.NewStyle().Foreground(theme.KindColor(b.Kind)).Bold(true).Render(b.Title))
	out.WriteString("\n\n")
	label := theme.Subtitle.Width(12)
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		out.WriteString(label.Render(r[0]) + theme.Body.Render(r[1]) + "\n")
	}

	card := theme.Card.Width(min(width-4, 72)).Render(out.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
