package dashboard

import (
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
)

// Reduce returns the state after a. The input state is never modified.
func Reduce(s State, a Action) State {
	s.Tasks = reduceTasks(s.Tasks, a)
	s.Categories = reduceCategories(s.Categories, a)
	s.User = reduceUser(s.User, a)
	s.Theme = reduceTheme(s.Theme, a)
	return s
}

func reduceTasks(s TasksState, a Action) TasksState {
	switch a := a.(type) {
	case SetTasks:
		s.Tasks = cloneTasks(a.Tasks)
		s.Status = enums.LoadStatusSucceeded
	case AddTask:
		s.Tasks = append(cloneTasks(s.Tasks), a.Task)
		s.Stats = countTask(s.Stats, a.Task, 1)
	case UpdateTask:
		i := indexOfTask(s.Tasks, a.Task.ID)
		if i < 0 {
			return s
		}
		old := s.Tasks[i]
		s.Tasks = cloneTasks(s.Tasks)
		s.Tasks[i] = a.Task
		if old.Status != a.Task.Status {
			s.Stats = countStatus(s.Stats, old.Status, -1)
			s.Stats = countStatus(s.Stats, a.Task.Status, 1)
		}
		if old.Priority != a.Task.Priority {
			s.Stats = countPriority(s.Stats, old.Priority, -1)
			s.Stats = countPriority(s.Stats, a.Task.Priority, 1)
		}
	case DeleteTask:
		i := indexOfTask(s.Tasks, a.ID)
		if i < 0 {
			return s
		}
		removed := s.Tasks[i]
		tasks := make([]models.Task, 0, len(s.Tasks)-1)
		tasks = append(tasks, s.Tasks[:i]...)
		s.Tasks = append(tasks, s.Tasks[i+1:]...)
		s.Stats = countTask(s.Stats, removed, -1)
	case ToggleTaskStatus:
		i := indexOfTask(s.Tasks, a.ID)
		if i < 0 {
			return s
		}
		old := s.Tasks[i].Status
		next := ToggledStatus(old)
		s.Tasks = cloneTasks(s.Tasks)
		s.Tasks[i].Status = next
		s.Stats = countStatus(s.Stats, old, -1)
		s.Stats = countStatus(s.Stats, next, 1)
	case SetFilter:
		s.Filter = a.Filter
	case SetSortBy:
		s.SortBy = a.SortBy
	case SetStats:
		s.Stats = a.Stats
	case SetLoading:
		s.Status = enums.LoadStatusLoading
	case SetError:
		s.Status = enums.LoadStatusFailed
		s.Error = a.Message
	}
	return s
}

func reduceCategories(s CategoriesState, a Action) CategoriesState {
	switch a := a.(type) {
	case SetCategories:
		s.Categories = append([]models.Category{}, a.Categories...)
		s.Status = enums.LoadStatusSucceeded
	case AddCategory:
		s.Categories = append(append([]models.Category{}, s.Categories...), a.Category)
	case UpdateCategory:
		for i, c := range s.Categories {
			if c.ID == a.Category.ID {
				s.Categories = append([]models.Category{}, s.Categories...)
				s.Categories[i] = a.Category
				break
			}
		}
	case DeleteCategory:
		kept := make([]models.Category, 0, len(s.Categories))
		for _, c := range s.Categories {
			if c.ID != a.ID {
				kept = append(kept, c)
			}
		}
		s.Categories = kept
	case SetCategoryLoading:
		s.Status = enums.LoadStatusLoading
	case SetCategoryError:
		s.Status = enums.LoadStatusFailed
		s.Error = a.Message
	}
	return s
}

func reduceUser(s UserState, a Action) UserState {
	switch a := a.(type) {
	case SetUser:
		return UserState{FullName: a.User.FullName, Email: a.User.Email}
	case ClearUser:
		return UserState{}
	}
	return s
}

func reduceTheme(t enums.Theme, a Action) enums.Theme {
	if a, ok := a.(SetTheme); ok {
		return a.Theme
	}
	return t
}

// ToggledStatus flips completed to pending and anything else to completed.
func ToggledStatus(s enums.TaskStatus) enums.TaskStatus {
	if s == enums.TaskStatusCompleted {
		return enums.TaskStatusPending
	}
	return enums.TaskStatusCompleted
}

func cloneTasks(tasks []models.Task) []models.Task {
	return append(make([]models.Task, 0, len(tasks)+1), tasks...)
}

func indexOfTask(tasks []models.Task, id int) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func countTask(st models.Stats, t models.Task, delta int) models.Stats {
	st.Total += delta
	st = countStatus(st, t.Status, delta)
	return countPriority(st, t.Priority, delta)
}

func countStatus(st models.Stats, s enums.TaskStatus, delta int) models.Stats {
	switch s {
	case enums.TaskStatusCompleted:
		st.Completed += delta
	case enums.TaskStatusInProgress:
		st.InProgress += delta
	case enums.TaskStatusPending:
		st.Pending += delta
	}
	return st
}

func countPriority(st models.Stats, p enums.TaskPriority, delta int) models.Stats {
	if p == enums.TaskPriorityHigh {
		st.HighPriority += delta
	}
	return st
}
