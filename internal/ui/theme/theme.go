package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/studiora/studiora/internal/scheduler"
)

// Color palette
var (
	Primary   = lipgloss.Color("#2563EB") // Blue
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Review    = lipgloss.Color("#7C3AED") // Violet, matches exported review blocks
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E")
	Error     = lipgloss.Color("#F43F5E")
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	Today = Card.
		BorderForeground(Accent)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Reverse(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Done = lipgloss.NewStyle().
		Foreground(Success).
		Strikethrough(true)
)

// Tables
var (
	TableHeader = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Padding(0, 1)

	TableCell = lipgloss.NewStyle().
			Foreground(Text).
			Padding(0, 1)

	TableDim = TableCell.
			Foreground(TextDim)
)

// KindColor is the color blocks of kind k are drawn in.
func KindColor(k scheduler.BlockKind) color.Color {
	if k == scheduler.KindReview {
		return Review
	}
	return Secondary
}

// PriorityColor highlights urgent and high priority work.
func PriorityColor(p scheduler.Priority) color.Color {
	switch p {
	case scheduler.PriorityUrgent:
		return Error
	case scheduler.PriorityHigh:
		return Accent
	case scheduler.PriorityLow:
		return TextDim
	default:
		return Text
	}
}

// Block renders a one-line label for a study block.
func Block(b scheduler.Block) string {
	label := b.Start.Format("15:04") + " " + b.Title
	style := lipgloss.NewStyle().Foreground(KindColor(b.Kind))
	if b.Suboptimal {
		style = style.Italic(true)
		label += " ⚠"
	}
	return style.Render(label)
}
