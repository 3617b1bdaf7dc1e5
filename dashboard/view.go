package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/utils"
)

// SidebarLimit is how many tasks the high priority and upcoming panels show.
const SidebarLimit = 3

// Visible applies the state's filter and sort to its tasks.
func Visible(s TasksState) []models.Task {
	out := make([]models.Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if Matches(t, s.Filter) {
			out = append(out, t)
		}
	}
	SortTasks(out, s.SortBy)
	return out
}

// Matches reports whether t passes filter. Unknown filters match everything.
func Matches(t models.Task, filter enums.TaskFilter) bool {
	switch filter {
	case enums.TaskFilterAll, "":
		return true
	case enums.TaskFilterPending:
		return t.Status == enums.TaskStatusPending
	case enums.TaskFilterInProgress:
		return t.Status == enums.TaskStatusInProgress
	case enums.TaskFilterCompleted:
		return t.Status == enums.TaskStatusCompleted
	case enums.TaskFilterHighPriority:
		return t.Priority == enums.TaskPriorityHigh
	}
	if day, ok := filter.Date(); ok {
		return t.DueDate.String() == day
	}
	return true
}

// SortTasks orders tasks in place. Ties keep their current order.
func SortTasks(tasks []models.Task, by enums.TaskSort) {
	var less func(a, b models.Task) bool
	switch by {
	case enums.TaskSortDueDate:
		less = func(a, b models.Task) bool { return a.DueDate.Before(b.DueDate.Time) }
	case enums.TaskSortPriority:
		less = func(a, b models.Task) bool { return a.Priority.Weight() > b.Priority.Weight() }
	case enums.TaskSortTitle:
		less = func(a, b models.Task) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case enums.TaskSortStatus:
		less = func(a, b models.Task) bool { return a.Status.Rank() < b.Status.Rank() }
	default:
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
}

// HighPriorityOpen returns up to limit unfinished high priority tasks.
func HighPriorityOpen(tasks []models.Task, limit int) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if t.Priority == enums.TaskPriorityHigh && t.Status != enums.TaskStatusCompleted {
			out = append(out, t)
		}
	}
	return truncate(out, limit)
}

// Upcoming returns up to limit unfinished tasks, soonest due first.
func Upcoming(tasks []models.Task, limit int) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if t.Status != enums.TaskStatusCompleted {
			out = append(out, t)
		}
	}
	SortTasks(out, enums.TaskSortDueDate)
	return truncate(out, limit)
}

func truncate(tasks []models.Task, limit int) []models.Task {
	if limit > 0 && len(tasks) > limit {
		return tasks[:limit]
	}
	return tasks
}

// DaysLeft describes how far t's due date is from today.
func DaysLeft(t models.Task, today time.Time) string {
	y, m, d := utils.StartOfDay(today).Date()
	start := models.NewDate(y, m, d)
	days := int(math.Ceil(t.DueDate.Sub(start.Time).Hours() / 24))
	switch {
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	case days == 0:
		return "Due today"
	case days == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

// Percent is part of total as a rounded percentage, 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

type CalendarDay struct {
	// Blank cells pad the first week up to the month's first weekday.
	Blank  bool
	Date   models.Date
	Tasks  []models.Task
	High   int
	Medium int
	Low    int
}

func (d CalendarDay) Total() int {
	return len(d.Tasks)
}

// MonthGrid lays out month as calendar cells starting on Sunday, with the
// tasks due on each day.
func MonthGrid(year int, month time.Month, tasks []models.Task) []CalendarDay {
	first := models.NewDate(year, month, 1)
	days := utils.DaysInMonth(year, month)

	grid := make([]CalendarDay, int(first.Weekday()), int(first.Weekday())+days)
	for i := range grid {
		grid[i].Blank = true
	}

	byDay := map[string][]models.Task{}
	for _, t := range tasks {
		key := t.DueDate.String()
		byDay[key] = append(byDay[key], t)
	}

	for day := 1; day <= days; day++ {
		cell := CalendarDay{Date: models.NewDate(year, month, day)}
		cell.Tasks = byDay[cell.Date.String()]
		for _, t := range cell.Tasks {
			switch t.Priority {
			case enums.TaskPriorityHigh:
				cell.High++
			case enums.TaskPriorityMedium:
				cell.Medium++
			case enums.TaskPriorityLow:
				cell.Low++
			}
		}
		grid = append(grid, cell)
	}
	return grid
}
