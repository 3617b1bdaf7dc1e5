package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/validation"
)

const (
	PathTasks      = "/tasks/tasks/"
	PathTaskStats  = "/tasks/tasks/stats/"
	PathCategories = "/tasks/categories/"
)

func taskPath(id int) string {
	return fmt.Sprintf("%s%d/", PathTasks, id)
}

func categoryPath(id int) string {
	return fmt.Sprintf("%s%d/", PathCategories, id)
}

func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	if err := c.do(ctx, call{operation: "tasks_list", method: http.MethodGet, path: PathTasks, result: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTask(ctx context.Context, id int) (*models.Task, error) {
	var out models.Task
	if err := c.do(ctx, call{operation: "tasks_get", method: http.MethodGet, path: taskPath(id), result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTask validates in locally before sending it.
func (c *Client) CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out models.Task
	err := c.do(ctx, call{operation: "tasks_create", method: http.MethodPost, path: PathTasks, body: in, result: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask replaces every writable field of the task.
func (c *Client) UpdateTask(ctx context.Context, id int, in models.TaskInput) (*models.Task, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out models.Task
	err := c.do(ctx, call{operation: "tasks_update", method: http.MethodPut, path: taskPath(id), body: in, result: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PatchTask(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error) {
	var out models.Task
	err := c.do(ctx, call{operation: "tasks_patch", method: http.MethodPatch, path: taskPath(id), body: patch, result: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, call{operation: "tasks_delete", method: http.MethodDelete, path: taskPath(id)})
}

func (c *Client) TaskStats(ctx context.Context) (*models.Stats, error) {
	var out models.Stats
	if err := c.do(ctx, call{operation: "tasks_stats", method: http.MethodGet, path: PathTaskStats, result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.do(ctx, call{operation: "categories_list", method: http.MethodGet, path: PathCategories, result: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out models.Category
	err := c.do(ctx, call{operation: "categories_create", method: http.MethodPost, path: PathCategories, body: in, result: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int, in models.CategoryInput) (*models.Category, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out models.Category
	err := c.do(ctx, call{operation: "categories_update", method: http.MethodPut, path: categoryPath(id), body: in, result: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	return c.do(ctx, call{operation: "categories_delete", method: http.MethodDelete, path: categoryPath(id)})
}
