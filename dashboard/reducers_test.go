package dashboard_test

import (
	"testing"

	"github.com/octabyte/taskdesk/dashboard"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(id int, status enums.TaskStatus, priority enums.TaskPriority, due string) models.Task {
	d, err := models.ParseDate(due)
	if err != nil {
		panic(err)
	}
	return models.Task{ID: id, Title: "task", Status: status, Priority: priority, DueDate: d}
}

func seeded() dashboard.State {
	s := dashboard.InitialState()
	s = dashboard.Reduce(s, dashboard.SetTasks{Tasks: []models.Task{
		task(1, enums.TaskStatusPending, enums.TaskPriorityHigh, "2026-03-01"),
		task(2, enums.TaskStatusCompleted, enums.TaskPriorityLow, "2026-03-02"),
	}})
	return dashboard.Reduce(s, dashboard.SetStats{Stats: models.Stats{Total: 2, Pending: 1, Completed: 1, HighPriority: 1}})
}

func TestInitialState(t *testing.T) {
	s := dashboard.InitialState()
	assert.Equal(t, enums.TaskFilterAll, s.Tasks.Filter)
	assert.Equal(t, enums.TaskSortDueDate, s.Tasks.SortBy)
	assert.Equal(t, enums.LoadStatusIdle, s.Tasks.Status)
	assert.Equal(t, enums.ThemeSystem, s.Theme)
	assert.Empty(t, s.Tasks.Tasks)
	assert.Empty(t, s.Categories.Categories)
}

func TestTaskReducers(t *testing.T) {
	tests := []struct {
		name      string
		action    dashboard.Action
		wantIDs   []int
		wantStats models.Stats
	}{
		{
			name:      "add counts the new task",
			action:    dashboard.AddTask{Task: task(3, enums.TaskStatusInProgress, enums.TaskPriorityHigh, "2026-03-03")},
			wantIDs:   []int{1, 2, 3},
			wantStats: models.Stats{Total: 3, Pending: 1, Completed: 1, InProgress: 1, HighPriority: 2},
		},
		{
			name:      "update moves status and priority counts",
			action:    dashboard.UpdateTask{Task: task(1, enums.TaskStatusInProgress, enums.TaskPriorityMedium, "2026-03-01")},
			wantIDs:   []int{1, 2},
			wantStats: models.Stats{Total: 2, InProgress: 1, Completed: 1},
		},
		{
			name:      "update of an unknown task is ignored",
			action:    dashboard.UpdateTask{Task: task(9, enums.TaskStatusInProgress, enums.TaskPriorityMedium, "2026-03-01")},
			wantIDs:   []int{1, 2},
			wantStats: models.Stats{Total: 2, Pending: 1, Completed: 1, HighPriority: 1},
		},
		{
			name:      "delete uncounts the task",
			action:    dashboard.DeleteTask{ID: 1},
			wantIDs:   []int{2},
			wantStats: models.Stats{Total: 1, Completed: 1},
		},
		{
			name:      "toggle completes a pending task",
			action:    dashboard.ToggleTaskStatus{ID: 1},
			wantIDs:   []int{1, 2},
			wantStats: models.Stats{Total: 2, Completed: 2, HighPriority: 1},
		},
		{
			name:      "toggle reopens a completed task",
			action:    dashboard.ToggleTaskStatus{ID: 2},
			wantIDs:   []int{1, 2},
			wantStats: models.Stats{Total: 2, Pending: 2, HighPriority: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := seeded()
			after := dashboard.Reduce(before, tt.action)

			var ids []int
			for _, tk := range after.Tasks.Tasks {
				ids = append(ids, tk.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantStats, after.Tasks.Stats)

			assert.Equal(t, seeded(), before, "input state must not change")
		})
	}
}

func TestLoadingAndError(t *testing.T) {
	s := dashboard.Reduce(dashboard.InitialState(), dashboard.SetLoading{})
	assert.Equal(t, enums.LoadStatusLoading, s.Tasks.Status)

	s = dashboard.Reduce(s, dashboard.SetError{Message: "Failed to fetch tasks"})
	assert.Equal(t, enums.LoadStatusFailed, s.Tasks.Status)
	assert.Equal(t, "Failed to fetch tasks", s.Tasks.Error)

	s = dashboard.Reduce(s, dashboard.SetTasks{Tasks: nil})
	assert.Equal(t, enums.LoadStatusSucceeded, s.Tasks.Status)
}

func TestFilterSortAndTheme(t *testing.T) {
	s := dashboard.InitialState()
	s = dashboard.Reduce(s, dashboard.SetFilter{Filter: enums.DateFilter("2026-03-01")})
	s = dashboard.Reduce(s, dashboard.SetSortBy{SortBy: enums.TaskSortTitle})
	s = dashboard.Reduce(s, dashboard.SetTheme{Theme: enums.ThemeDark})

	assert.Equal(t, enums.TaskFilter("date-2026-03-01"), s.Tasks.Filter)
	assert.Equal(t, enums.TaskSortTitle, s.Tasks.SortBy)
	assert.Equal(t, enums.ThemeDark, s.Theme)
}

func TestCategoryReducers(t *testing.T) {
	s := dashboard.InitialState()
	s = dashboard.Reduce(s, dashboard.SetCategoryLoading{})
	assert.Equal(t, enums.LoadStatusLoading, s.Categories.Status)

	s = dashboard.Reduce(s, dashboard.SetCategories{Categories: []models.Category{{ID: 1, Name: "Work"}}})
	s = dashboard.Reduce(s, dashboard.AddCategory{Category: models.Category{ID: 2, Name: "Home"}})
	s = dashboard.Reduce(s, dashboard.UpdateCategory{Category: models.Category{ID: 1, Name: "Office"}})
	require.Len(t, s.Categories.Categories, 2)
	assert.Equal(t, "Office", s.Categories.Categories[0].Name)

	s = dashboard.Reduce(s, dashboard.DeleteCategory{ID: 1})
	assert.Equal(t, []models.Category{{ID: 2, Name: "Home"}}, s.Categories.Categories)

	s = dashboard.Reduce(s, dashboard.SetCategoryError{Message: "Failed to fetch categories"})
	assert.Equal(t, enums.LoadStatusFailed, s.Categories.Status)
	assert.Equal(t, "Failed to fetch categories", s.Categories.Error)
}

func TestUserReducer(t *testing.T) {
	s := dashboard.Reduce(dashboard.InitialState(), dashboard.SetUser{User: models.User{FullName: "Ada", Email: "ada@example.com"}})
	assert.Equal(t, dashboard.UserState{FullName: "Ada", Email: "ada@example.com"}, s.User)

	s = dashboard.Reduce(s, dashboard.ClearUser{})
	assert.Equal(t, dashboard.UserState{}, s.User)
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	store := dashboard.NewStore(dashboard.InitialState())

	var seen []enums.Theme
	unsubscribe := store.Subscribe(func(s dashboard.State) { seen = append(seen, s.Theme) })

	store.Dispatch(dashboard.SetTheme{Theme: enums.ThemeDark})
	unsubscribe()
	store.Dispatch(dashboard.SetTheme{Theme: enums.ThemeLight})

	assert.Equal(t, []enums.Theme{enums.ThemeDark}, seen)
	assert.Equal(t, enums.ThemeLight, store.State().Theme)
}
