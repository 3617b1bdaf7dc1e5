package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/octabyte/taskdesk/dashboard"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/notify"
	"github.com/octabyte/taskdesk/utils"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Width(3).Align(lipgloss.Center)
	focusStyle   = boxStyle.BorderForeground(lipgloss.Color("63"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)

	priorityStyles = map[enums.TaskPriority]lipgloss.Style{
		enums.TaskPriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		enums.TaskPriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		enums.TaskPriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

func renderNotifications(active []notify.Notification) string {
	lines := make([]string, 0, len(active))
	for _, n := range active {
		switch n.Kind {
		case enums.NotificationSuccess:
			lines = append(lines, successStyle.Render("✓ "+n.Message))
		case enums.NotificationError:
			lines = append(lines, errorStyle.Render("✗ "+n.Message))
		default:
			lines = append(lines, mutedStyle.Render("• "+n.Message))
		}
	}
	return strings.Join(lines, "\n")
}

func renderStats(st models.Stats) string {
	card := func(label string, n int) string {
		return cardStyle.Render(fmt.Sprintf("%s\n%d", mutedStyle.Render(label), n))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total", st.Total),
		card("Completed", st.Completed),
		card("In progress", st.InProgress),
		card("Pending", st.Pending),
		card("High priority", st.HighPriority),
	)
	progress := fmt.Sprintf("%d%% complete", dashboard.Percent(st.Completed, st.Total))
	return row + "\n" + mutedStyle.Render(progress)
}

func renderTasks(tasks []models.Task, today time.Time) string {
	if len(tasks) == 0 {
		return mutedStyle.Render("No tasks found")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headerStyle.Render(fmt.Sprintf("%-4s %-32s %-12s %-8s %-11s %s", "ID", "Title", "Status", "Priority", "Due", "")))
	for _, t := range tasks {
		title := t.Title
		if t.Category != nil {
			title += mutedStyle.Render(" [" + t.Category.Name + "]")
		}
		due := dashboard.DaysLeft(t, today)
		if t.IsOverdue {
			due = errorStyle.Render(due)
		}
		fmt.Fprintf(&b, "%-4d %-32s %-12s %s %-11s %s\n",
			t.ID, title, t.Status, priorityStyles[t.Priority].Render(fmt.Sprintf("%-8s", t.Priority)), t.DueDate, due)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSidebar(tasks []models.Task, today time.Time) string {
	list := func(title string, items []models.Task) string {
		lines := []string{titleStyle.Render(title)}
		if len(items) == 0 {
			lines = append(lines, mutedStyle.Render("nothing here"))
		}
		for _, t := range items {
			lines = append(lines, fmt.Sprintf("%s %s", t.Title, mutedStyle.Render("("+dashboard.DaysLeft(t, today)+")")))
		}
		return cardStyle.Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		list("High priority", dashboard.HighPriorityOpen(tasks, dashboard.SidebarLimit)),
		list("Upcoming", dashboard.Upcoming(tasks, dashboard.SidebarLimit)),
	)
}

// renderCalendar draws the month grid; each day shows its high, medium and low task counts.
func renderCalendar(year int, month time.Month, tasks []models.Task, today time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %d", month, year)) + "\n")
	b.WriteString(mutedStyle.Render(" Su   Mo   Tu   We   Th   Fr   Sa") + "\n")

	grid := dashboard.MonthGrid(year, month, tasks)
	for i, cell := range grid {
		if cell.Blank {
			b.WriteString("     ")
		} else {
			day := fmt.Sprintf("%3d", cell.Date.Day())
			if utils.SameDay(cell.Date.Time, today) {
				day = titleStyle.Render(day)
			}
			var marks string
			switch {
			case cell.High > 0:
				marks = priorityStyles[enums.TaskPriorityHigh].Render(strconv.Itoa(cell.Total()))
			case cell.Medium > 0:
				marks = priorityStyles[enums.TaskPriorityMedium].Render(strconv.Itoa(cell.Total()))
			case cell.Low > 0:
				marks = priorityStyles[enums.TaskPriorityLow].Render(strconv.Itoa(cell.Total()))
			default:
				marks = " "
			}
			b.WriteString(day + marks + " ")
		}
		if i%7 == 6 {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderUser(u models.User) string {
	return fmt.Sprintf("%s %s", titleStyle.Render(u.FullName), mutedStyle.Render("<"+u.Email+">"))
}
