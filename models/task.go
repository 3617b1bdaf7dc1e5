package models

import (
	"time"

	"github.com/octabyte/taskdesk/enums"
)

type Category struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty"`
}

type Task struct {
	ID          int                `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Status      enums.TaskStatus   `json:"status"`
	Priority    enums.TaskPriority `json:"priority"`
	DueDate     Date               `json:"due_date"`
	Category    *Category          `json:"category,omitempty"`
	OwnerEmail  string             `json:"owner_email,omitempty"`
	IsOverdue   bool               `json:"is_overdue"`
	CreatedAt   *time.Time         `json:"created_at,omitempty"`
	UpdatedAt   *time.Time         `json:"updated_at,omitempty"`
}

// TaskInput is the write shape for create (POST) and full update (PUT).
type TaskInput struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Description string             `json:"description"`
	Status      enums.TaskStatus   `json:"status" validate:"required,oneof=pending in-progress completed"`
	Priority    enums.TaskPriority `json:"priority" validate:"required,oneof=low medium high"`
	DueDate     Date               `json:"due_date" validate:"required"`
	CategoryID  *int               `json:"category_id"`
}

// TaskPatch carries a partial update; nil fields are omitted from the request.
type TaskPatch struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Status      *enums.TaskStatus   `json:"status,omitempty"`
	Priority    *enums.TaskPriority `json:"priority,omitempty"`
	DueDate     *Date               `json:"due_date,omitempty"`
	CategoryID  *int                `json:"category_id,omitempty"`
}

// InputFrom returns the write shape of an existing task, used to prefill edits.
func InputFrom(t Task) TaskInput {
	in := TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
	}
	if t.Category != nil {
		id := t.Category.ID
		in.CategoryID = &id
	}
	return in
}

type Stats struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	InProgress   int `json:"in_progress"`
	Pending      int `json:"pending"`
	HighPriority int `json:"high_priority"`
}
