package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/Joseda-hg/todolist/internal/config"
	"github.com/Joseda-hg/todolist/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	glyphCompleted = "✓ "
	glyphPending   = "○ "
	rowForeground  = "#1f1f1f"
)

// row is one rendered line of the task list.
type row struct {
	ID        string
	Label     string
	Completed bool
}

func newRow(task model.Task) row {
	return row{ID: task.ID, Label: formatTaskLabel(task), Completed: task.Completed}
}

func formatTaskLabel(task model.Task) string {
	if task.Completed {
		return glyphCompleted + task.Text
	}
	return glyphPending + task.Text
}

type rowStyles struct {
	completed lipgloss.Style
	pending   lipgloss.Style
	selection lipgloss.Style
}

// newRowStyles pins the colour profile to 256 colours, which is what the gui
// is opened with, instead of sniffing the terminal.
func newRowStyles(colors config.Colors) rowStyles {
	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(termenv.ANSI256)

	fg := lipgloss.Color(rowForeground)
	return rowStyles{
		completed: renderer.NewStyle().Background(lipgloss.Color(colors.Completed)).Foreground(fg),
		pending:   renderer.NewStyle().Background(lipgloss.Color(colors.Pending)).Foreground(fg),
		selection: renderer.NewStyle().Reverse(true),
	}
}

// render pads the label to width so the background fills the whole line.
func (s rowStyles) render(r row, width int) string {
	style := s.pending
	if r.Completed {
		style = s.completed
	}
	label := r.Label
	if pad := width - lipgloss.Width(label); pad > 0 {
		label += strings.Repeat(" ", pad)
	}
	return style.Render(label)
}

func formatStats(stats model.Stats) string {
	return strings.Join([]string{
		"📊 Task Statistics:",
		"",
		fmt.Sprintf("Total Tasks: %d", stats.Total),
		fmt.Sprintf("Completed: %d", stats.Completed),
		fmt.Sprintf("Pending: %d", stats.Pending),
		fmt.Sprintf("Completion: %.1f%%", stats.PercentComplete),
	}, "\n")
}

func helpLine() string {
	return "enter add | tab switch | j/k move | space toggle | x complete | e edit | d delete | s stats | w save | q quit"
}
