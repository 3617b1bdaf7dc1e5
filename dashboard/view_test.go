package dashboard_test

import (
	"testing"
	"time"

	"github.com/octabyte/taskdesk/dashboard"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(tasks []models.Task) []int {
	out := []int{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func sample() []models.Task {
	a := task(1, enums.TaskStatusCompleted, enums.TaskPriorityHigh, "2026-03-05")
	a.Title = "write report"
	b := task(2, enums.TaskStatusPending, enums.TaskPriorityLow, "2026-03-01")
	b.Title = "Buy milk"
	c := task(3, enums.TaskStatusInProgress, enums.TaskPriorityHigh, "2026-03-03")
	c.Title = "call bank"
	d := task(4, enums.TaskStatusPending, enums.TaskPriorityMedium, "2026-03-03")
	d.Title = "Answer mail"
	return []models.Task{a, b, c, d}
}

func TestVisibleFilters(t *testing.T) {
	tests := []struct {
		filter enums.TaskFilter
		want   []int
	}{
		{enums.TaskFilterAll, []int{2, 3, 4, 1}},
		{enums.TaskFilterPending, []int{2, 4}},
		{enums.TaskFilterInProgress, []int{3}},
		{enums.TaskFilterCompleted, []int{1}},
		{enums.TaskFilterHighPriority, []int{3, 1}},
		{enums.DateFilter("2026-03-03"), []int{3, 4}},
		{enums.DateFilter("2026-04-01"), []int{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := dashboard.Visible(dashboard.TasksState{Tasks: sample(), Filter: tt.filter, SortBy: enums.TaskSortDueDate})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSortTasks(t *testing.T) {
	tests := []struct {
		by   enums.TaskSort
		want []int
	}{
		{enums.TaskSortDueDate, []int{2, 3, 4, 1}},
		{enums.TaskSortPriority, []int{1, 3, 4, 2}},
		{enums.TaskSortTitle, []int{4, 2, 3, 1}},
		{enums.TaskSortStatus, []int{2, 4, 3, 1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.by), func(t *testing.T) {
			tasks := sample()
			dashboard.SortTasks(tasks, tt.by)
			assert.Equal(t, tt.want, ids(tasks))
		})
	}
}

func TestSidebarLists(t *testing.T) {
	tasks := sample()
	extra := task(5, enums.TaskStatusPending, enums.TaskPriorityHigh, "2026-02-27")
	tasks = append(tasks, extra)

	assert.Equal(t, []int{3, 5}, ids(dashboard.HighPriorityOpen(tasks, dashboard.SidebarLimit)))
	assert.Equal(t, []int{5, 2, 3}, ids(dashboard.Upcoming(tasks, dashboard.SidebarLimit)))
	assert.Len(t, dashboard.Upcoming(tasks, 0), 4)
}

func TestDaysLeft(t *testing.T) {
	today := time.Date(2026, 3, 3, 15, 30, 0, 0, time.UTC)
	tests := map[string]string{
		"2026-03-01": "2 days overdue",
		"2026-03-03": "Due today",
		"2026-03-04": "1 day left",
		"2026-03-13": "10 days left",
	}
	for due, want := range tests {
		assert.Equal(t, want, dashboard.DaysLeft(task(1, enums.TaskStatusPending, enums.TaskPriorityLow, due), today), due)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, dashboard.Percent(3, 0))
	assert.Equal(t, 33, dashboard.Percent(1, 3))
	assert.Equal(t, 67, dashboard.Percent(2, 3))
	assert.Equal(t, 100, dashboard.Percent(4, 4))
}

func TestMonthGrid(t *testing.T) {
	grid := dashboard.MonthGrid(2026, time.March, sample())

	// March 2026 starts on a Sunday.
	require.Len(t, grid, 31)
	assert.False(t, grid[0].Blank)
	assert.Equal(t, "2026-03-01", grid[0].Date.String())

	third := grid[2]
	assert.Equal(t, 2, third.Total())
	assert.Equal(t, 1, third.High)
	assert.Equal(t, 1, third.Medium)
	assert.Equal(t, 0, third.Low)

	feb := dashboard.MonthGrid(2026, time.February, nil)
	// February 2026 starts on a Sunday too; April starts on a Wednesday.
	assert.Len(t, feb, 28)

	april := dashboard.MonthGrid(2026, time.April, nil)
	require.Len(t, april, 3+30)
	for _, cell := range april[:3] {
		assert.True(t, cell.Blank)
	}
	assert.Equal(t, "2026-04-01", april[3].Date.String())
	assert.Equal(t, time.Wednesday, april[3].Date.Weekday())
}
