// Package dashboard holds the task dashboard's application state. State only
// changes through Dispatch, and every reducer is a pure function of
// (state, action).
package dashboard

import (
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
)

type TasksState struct {
	Tasks  []models.Task
	Status enums.LoadStatus
	Error  string
	Filter enums.TaskFilter
	SortBy enums.TaskSort
	Stats  models.Stats
}

type CategoriesState struct {
	Categories []models.Category
	Status     enums.LoadStatus
	Error      string
}

type UserState struct {
	FullName string
	Email    string
}

type State struct {
	Tasks      TasksState
	Categories CategoriesState
	User       UserState
	Theme      enums.Theme
}

func InitialState() State {
	return State{
		Tasks: TasksState{
			Tasks:  []models.Task{},
			Status: enums.LoadStatusIdle,
			Filter: enums.TaskFilterAll,
			SortBy: enums.TaskSortDueDate,
		},
		Categories: CategoriesState{
			Categories: []models.Category{},
			Status:     enums.LoadStatusIdle,
		},
		Theme: enums.ThemeSystem,
	}
}

// Action is anything the reducers understand.
type Action interface {
	action()
}

type (
	SetTasks         struct{ Tasks []models.Task }
	AddTask          struct{ Task models.Task }
	UpdateTask       struct{ Task models.Task }
	DeleteTask       struct{ ID int }
	ToggleTaskStatus struct{ ID int }
	SetFilter        struct{ Filter enums.TaskFilter }
	SetSortBy        struct{ SortBy enums.TaskSort }
	SetStats         struct{ Stats models.Stats }
	SetLoading       struct{}
	SetError         struct{ Message string }

	SetCategories      struct{ Categories []models.Category }
	AddCategory        struct{ Category models.Category }
	UpdateCategory     struct{ Category models.Category }
	DeleteCategory     struct{ ID int }
	SetCategoryLoading struct{}
	SetCategoryError   struct{ Message string }

	SetUser   struct{ User models.User }
	ClearUser struct{}

	SetTheme struct{ Theme enums.Theme }
)

func (SetTasks) action()         {}
func (AddTask) action()          {}
func (UpdateTask) action()       {}
func (DeleteTask) action()       {}
func (ToggleTaskStatus) action() {}
func (SetFilter) action()        {}
func (SetSortBy) action()        {}
func (SetStats) action()         {}
func (SetLoading) action()       {}
func (SetError) action()         {}

func (SetCategories) action()      {}
func (AddCategory) action()        {}
func (UpdateCategory) action()     {}
func (DeleteCategory) action()     {}
func (SetCategoryLoading) action() {}
func (SetCategoryError) action()   {}

func (SetUser) action()   {}
func (ClearUser) action() {}
func (SetTheme) action()  {}
