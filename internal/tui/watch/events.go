package watch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/blockeval/internal/events"
)

// eventLogContent formats the event log (newest first) for the
// scrollable viewport.
func eventLogContent(eventLog []events.Event, theme Theme) string {
	var lines []string
	for _, e := range eventLog {
		lines = append(lines, formatEvent(e, theme))
	}
	return strings.Join(lines, "\n")
}

func renderEventStream(vp viewport.Model, logged int, theme Theme, width int) string {
	innerWidth := width - 4

	if logged == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for events..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	eventsText := lipgloss.NewStyle().Padding(0, 1).Render(vp.View())
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		eventsText,
	)

	return theme.Border.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Format("15:04:05"))

	var typeStyle lipgloss.Style
	switch e.Type {
	case events.TypeCompleted:
		typeStyle = theme.StatusOK
	case events.TypeSkipped:
		typeStyle = theme.StatusFailed
	case events.TypeSuppressed:
		typeStyle = theme.StatusSuppressed
	case events.TypeDispatched:
		typeStyle = theme.StatusRunning
	default:
		typeStyle = theme.Dim
	}

	typeName := typeStyle.Render(fmt.Sprintf("%-16s", e.Type))
	desc := extractEventDesc(e)

	return fmt.Sprintf("%s %s %s", ts, typeName, desc)
}

func extractEventDesc(e events.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string

	if id, ok := data["request_id"].(string); ok {
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, fmt.Sprintf("[%s]", id))
	}

	if doc, ok := data["doc"].(string); ok && doc != "" {
		parts = append(parts, doc)
	}

	if sess, ok := data["session"].(string); ok && sess != "" {
		parts = append(parts, sess)
	}

	if reason, ok := data["reason"].(string); ok && reason != "" {
		parts = append(parts, reason)
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}

	return strings.Join(parts, " ")
}
