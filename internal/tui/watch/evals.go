package watch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/blockeval/internal/events"
)

// EvalState tracks one request's lifecycle as seen on the event stream.
type EvalState struct {
	RequestID string
	Doc       string
	Session   string
	Mode      string
	Status    string // queued, running, completed, skipped, suppressed
	Reason    string
	UpdatedAt time.Time
}

type evalEventData struct {
	RequestID string `json:"request_id"`
	Doc       string `json:"doc"`
	Session   string `json:"session"`
	Mode      string `json:"mode"`
	Reason    string `json:"reason"`
}

// updateEvalState folds one lifecycle event into the request table.
func updateEvalState(evals map[string]*EvalState, e events.Event) {
	var data evalEventData
	if err := json.Unmarshal(e.Data, &data); err != nil || data.RequestID == "" {
		return
	}

	st, ok := evals[data.RequestID]
	if !ok {
		st = &EvalState{RequestID: data.RequestID}
		evals[data.RequestID] = st
	}
	if data.Doc != "" {
		st.Doc = data.Doc
	}
	if data.Session != "" {
		st.Session = data.Session
	}
	if data.Mode != "" {
		st.Mode = data.Mode
	}
	if data.Reason != "" {
		st.Reason = data.Reason
	}
	st.UpdatedAt = e.At

	switch e.Type {
	case events.TypeSubmitted:
		st.Status = "queued"
	case events.TypeDispatched:
		st.Status = "running"
	case events.TypeCompleted:
		st.Status = "completed"
	case events.TypeSkipped:
		st.Status = "skipped"
	case events.TypeSuppressed:
		st.Status = "suppressed"
	}
}

// recentEvals returns requests newest-first, capped at n.
func recentEvals(evals map[string]*EvalState, n int) []*EvalState {
	out := make([]*EvalState, 0, len(evals))
	for _, st := range evals {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func renderEvals(evals map[string]*EvalState, theme Theme, width int) string {
	innerWidth := width - 4

	if len(evals) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVALUATIONS"),
			theme.Dim.Render("  No evaluations yet..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for _, st := range recentEvals(evals, 10) {
		lines = append(lines, renderEvalRow(st, theme))
	}

	table := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVALUATIONS"),
		table,
	)
	return theme.Border.Width(innerWidth).Render(content)
}

func renderEvalRow(st *EvalState, theme Theme) string {
	id := st.RequestID
	if len(id) > 8 {
		id = id[:8]
	}

	status := statusStyle(st.Status, theme).Render(fmt.Sprintf("%-10s", st.Status))
	target := fmt.Sprintf("%s/%s", st.Doc, st.Session)
	ago := theme.Dim.Render(formatAgo(time.Since(st.UpdatedAt)))

	row := fmt.Sprintf("[%s] %s %-28s %-6s %s", id, status, target, st.Mode, ago)
	if st.Reason != "" {
		row += " " + theme.Dim.Render("("+st.Reason+")")
	}
	return row
}

func statusStyle(status string, theme Theme) lipgloss.Style {
	switch status {
	case "completed":
		return theme.StatusOK
	case "running":
		return theme.StatusRunning
	case "suppressed":
		return theme.StatusSuppressed
	case "skipped":
		return theme.StatusFailed
	default:
		return theme.StatusQueued
	}
}

func formatAgo(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}
