package enums

import "strings"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Rank orders statuses for sorting: pending < in-progress < completed.
func (s TaskStatus) Rank() int {
	switch s {
	case TaskStatusPending:
		return 1
	case TaskStatusInProgress:
		return 2
	case TaskStatusCompleted:
		return 3
	default:
		return 0
	}
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Weight() int {
	switch p {
	case TaskPriorityHigh:
		return 3
	case TaskPriorityMedium:
		return 2
	case TaskPriorityLow:
		return 1
	default:
		return 0
	}
}

type TaskFilter string

const (
	TaskFilterAll          TaskFilter = "all"
	TaskFilterPending      TaskFilter = "pending"
	TaskFilterInProgress   TaskFilter = "in-progress"
	TaskFilterCompleted    TaskFilter = "completed"
	TaskFilterHighPriority TaskFilter = "high-priority"

	dateFilterPrefix = "date-"
)

// DateFilter builds the filter selecting tasks due on day (YYYY-MM-DD).
func DateFilter(day string) TaskFilter {
	return TaskFilter(dateFilterPrefix + day)
}

// Date returns the day carried by a date filter.
func (f TaskFilter) Date() (string, bool) {
	if !strings.HasPrefix(string(f), dateFilterPrefix) {
		return "", false
	}
	return strings.TrimPrefix(string(f), dateFilterPrefix), true
}

type TaskSort string

const (
	TaskSortDueDate  TaskSort = "dueDate"
	TaskSortPriority TaskSort = "priority"
	TaskSortTitle    TaskSort = "title"
	TaskSortStatus   TaskSort = "status"
)

type LoadStatus string

const (
	LoadStatusIdle      LoadStatus = "idle"
	LoadStatusLoading   LoadStatus = "loading"
	LoadStatusSucceeded LoadStatus = "succeeded"
	LoadStatusFailed    LoadStatus = "failed"
)
