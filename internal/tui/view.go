// File: internal/tui/view.go
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adelmore/scour-cli/api/schemas"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	actionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	previewLimitC = 6
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.mode {
	case modeLoading:
		return fmt.Sprintf("\n  %s Working...\n", m.spin.View())
	case modeLogs:
		return m.viewLogs()
	case modeDone:
		return m.viewDone()
	case modeEditParam:
		return m.viewReview() + "\n" + panelStyle.Render("Edit parameter: "+m.input.View()) +
			"\n" + faintStyle.Render("Enter = confirm • Esc = cancel")
	default:
		return m.viewReview()
	}
}

func (m Model) viewReview() string {
	if m.view == nil {
		if m.err != nil {
			return errorStyle.Render("Error: " + m.err.Error())
		}
		return ""
	}

	var b strings.Builder
	header := fmt.Sprintf("Stage %d/%d: %s", m.view.Index+1, m.view.Total, m.view.Stage)
	b.WriteString(titleStyle.Render(header) + "\n")
	b.WriteString(faintStyle.Render(m.view.Reason) + "\n\n")

	b.WriteString(m.viewPreview())

	if len(m.view.Suggestions) == 0 {
		b.WriteString(faintStyle.Render("Nothing to review for this stage.") + "\n")
	}
	for i, s := range m.view.Suggestions {
		choice := m.view.Choices[s.Entity]
		prefix := "  "
		line := fmt.Sprintf("%-24s %s", entityLabel(s), actionStyle.Render(string(choice.Action)))
		if p := paramValue(choice); p != "" {
			line += faintStyle.Render("  [" + truncate(p, 40) + "]")
		}
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
			line += "\n    " + faintStyle.Render(truncate(s.Reason, 100))
		}
		b.WriteString(prefix + line + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + faintStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + faintStyle.Render(
		"↑/↓ select • ←/→ change action • e edit param • a apply & next • p previous • l log • q quit"))
	return b.String()
}

func (m Model) viewPreview() string {
	head := m.ctrl.Preview()
	if len(head) < 2 {
		return ""
	}
	cols := len(head[0])
	if cols > previewLimitC {
		cols = previewLimitC
	}

	var rows []string
	for _, row := range head {
		cells := make([]string, cols)
		for i := 0; i < cols; i++ {
			cells[i] = fmt.Sprintf("%-14s", truncate(row[i], 13))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	rows[0] = titleStyle.Render(rows[0])
	return panelStyle.Render(strings.Join(rows, "\n")) + "\n\n"
}

func (m Model) viewLogs() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Cleaning log") + "\n\n")
	logs := m.ctrl.Logs()
	if len(logs) == 0 {
		b.WriteString(faintStyle.Render("No stages applied yet.") + "\n")
	}
	for _, log := range logs {
		b.WriteString(titleStyle.Render(string(log.Stage)) + "\n")
		for _, e := range log.Entries {
			status := string(e.Status)
			switch e.Status {
			case schemas.StatusSuccess:
				status = successStyle.Render(status)
			case schemas.StatusError:
				status = errorStyle.Render(status)
			default:
				status = faintStyle.Render(status)
			}
			b.WriteString(fmt.Sprintf("  %-24s %-18s %s\n", e.Entity, status, faintStyle.Render(e.Code)))
			if e.Error != "" {
				b.WriteString("    " + errorStyle.Render(e.Error) + "\n")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(faintStyle.Render("l/esc back"))
	return b.String()
}

func (m Model) viewDone() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("All stages complete") + "\n\n")
	b.WriteString(m.viewPreview())

	f := m.ctrl.Frame()
	if f != nil {
		b.WriteString(fmt.Sprintf("Final shape: %d rows × %d columns\n", f.NumRows(), f.NumCols()))
	}
	if m.status != "" {
		b.WriteString("\n" + successStyle.Render(m.status) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + faintStyle.Render("s save • l full log • p back to last stage • q quit"))
	return b.String()
}

func entityLabel(s schemas.Suggestion) string {
	if s.Dtype != "" {
		return fmt.Sprintf("%s (%s)", s.Entity, s.Dtype)
	}
	return s.Entity
}

func truncate(v string, n int) string {
	if len(v) <= n {
		return v
	}
	if n <= 1 {
		return v[:n]
	}
	return v[:n-1] + "…"
}
