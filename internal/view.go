package internal

import (
	"fmt"
	"strings"
	"time"

	"timetracker/internal/timer"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Align(lipgloss.Center)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	taskItemSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	timerDisplayStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("69")).
				Bold(true)

	timerRunningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 0)

	logHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	logTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)
)

const recentIntervals = 5

// FormatDuration renders d as H:MM:SS, hours unpadded.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total / 60) % 60
	seconds := total % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

func (m *Model) emptyStateView() string {
	body := titleStyle.Render("Time Tracker") + "\n\n" +
		inactiveStyle.Render("No tasks yet. Press 'n' to add one.")
	if err := m.statusErr(); err != nil {
		body += "\n\n" + errorStyle.Render(err.Error())
	}
	return lipgloss.Place(
		80, 24,
		lipgloss.Center, lipgloss.Center,
		body,
	)
}

func (m *Model) mainView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Width(80).Render("Time Tracker"))
	sb.WriteString("\n\n")

	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.taskListView(),
		"  ",
		m.taskDetailView(),
	)
	sb.WriteString(boxes)
	sb.WriteString("\n")
	if err := m.statusErr(); err != nil {
		sb.WriteString(errorStyle.Render(err.Error()))
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))

	return sb.String()
}

func (m *Model) taskListView() string {
	var sb strings.Builder

	sb.WriteString("Tasks\n\n")

	for i, r := range m.table.rows {
		running := ""
		if r.task.Running() {
			running = " ●"
		}

		line := fmt.Sprintf("%-18s %s%s", truncate(r.task.Name, 18), r.elapsed, running)

		if i == m.SelectedIndex {
			sb.WriteString(taskItemSelectedStyle.Render(line))
		} else {
			sb.WriteString(taskItemStyle.Render(inactiveStyle.Render(line)))
		}
		sb.WriteString("\n")
	}

	return boxStyle.Width(34).Height(15).Render(sb.String())
}

func (m *Model) taskDetailView() string {
	r := m.selectedRow()
	if r == nil {
		return boxStyle.Width(40).Height(15).Render("Select a task")
	}
	t := r.task

	var timerStr string
	if t.Running() {
		timerStr = timerRunningStyle.Render(r.elapsed)
	} else {
		timerStr = timerDisplayStyle.Render(r.elapsed)
	}

	status := "Paused"
	statusStyle := inactiveStyle
	if t.Running() {
		status = "Running"
		statusStyle = runningStyle
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Task #%d: %s\n\n", t.ID, t.Name))
	sb.WriteString(timerStr)
	sb.WriteString(fmt.Sprintf("\n\n%s\n", statusStyle.Render(status)))

	if len(t.Intervals) > 0 {
		sb.WriteString("\n")
		sb.WriteString(logHeaderStyle.Render(fmt.Sprintf("Intervals (%d)", len(t.Intervals))))
		sb.WriteString("\n")
		start := len(t.Intervals) - recentIntervals
		if start < 0 {
			start = 0
		}
		clock := t.Clock()
		for i := len(t.Intervals) - 1; i >= start; i-- {
			sb.WriteString(formatInterval(t.Intervals[i], clock))
			sb.WriteString("\n")
		}
	}

	return boxStyle.Width(40).Height(15).Render(sb.String())
}

func formatInterval(iv timer.Interval, clock timer.Clock) string {
	started := logTimeStyle.Render(humanize.RelTime(iv.StartTime(), clock.Now(), "ago", "from now"))
	dur := FormatDuration(iv.Elapsed(clock))
	if iv.Open() {
		return fmt.Sprintf("  %s  %s %s", started, runningStyle.Render(dur), "running")
	}
	return fmt.Sprintf("  %s  %s", started, dur)
}

func (m *Model) formView(title string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(46).Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.Input.View())
	sb.WriteString("\n\n")
	sb.WriteString(inactiveStyle.Render("Enter: Save | Esc: Cancel"))

	return lipgloss.Place(
		80, 24,
		lipgloss.Center, lipgloss.Center,
		boxStyle.Width(50).Render(sb.String()),
	)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
