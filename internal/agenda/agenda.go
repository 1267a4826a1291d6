// Package agenda renders a laid-out day as styled terminal lines.
package agenda

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"kplanning/internal/category"
	"kplanning/internal/layout"
	"kplanning/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).MarginBottom(1)
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(16)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	nowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb")).Bold(true)
)

// Render prints day as one line per event, in start order. The event
// running at now is marked with an arrow; lanes are shown when events
// overlap.
func Render(day layout.Day, now time.Time) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(day.Date.Format("Monday 02 January 2006")))
	b.WriteString("\n")

	if len(day.Events) == 0 {
		b.WriteString(mutedStyle.Render("  nothing planned"))
		b.WriteString("\n")
		return b.String()
	}

	for _, p := range day.Events {
		b.WriteString(line(p, now))
		b.WriteString("\n")
	}
	return b.String()
}

func line(p layout.Placed, now time.Time) string {
	ev := p.Event

	prefix := "  "
	title := titleStyle
	if !ev.Start.After(now) && !ev.End.Before(now) {
		prefix = nowStyle.Render("▸ ")
		title = title.Bold(true)
	}

	accent := ev.Color
	if accent == "" {
		accent = category.Accent(ev.Category)
	}
	dot := "●"
	if hex, err := category.Hex(accent); err == nil {
		dot = lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(dot)
	}

	span := fmt.Sprintf("%s - %s", ev.Start.Format("15:04"), ev.End.Format("15:04"))
	out := prefix + timeStyle.Render(span) + dot + " " + title.Render(ev.Title)
	out += mutedStyle.Render(fmt.Sprintf(" [%s, %s]", category.Label(ev.Category), model.FormatDuration(ev.Start, ev.End)))
	if p.Slot.Columns > 1 {
		out += mutedStyle.Render(fmt.Sprintf(" lane %d/%d", p.Slot.Column+1, p.Slot.Columns))
	}
	return out
}
