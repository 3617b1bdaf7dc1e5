package fakeapi

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
)

const msgDueDatePast = "Due date cannot be in the past."

type storedTask struct {
	task       models.Task
	categoryID *int
}

type storedCategory struct {
	category models.Category
	owner    string
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	return id, nil
}

// viewLocked renders a stored task with its category and overdue flag resolved.
func (s *Server) viewLocked(st *storedTask) models.Task {
	t := st.task
	t.Category = nil
	if st.categoryID != nil {
		if cat, ok := s.categories[*st.categoryID]; ok {
			category := cat.category
			t.Category = &category
		}
	}
	t.IsOverdue = t.Status != enums.TaskStatusCompleted && !t.DueDate.IsZero() && t.DueDate.Before(s.today())
	return t
}

func (s *Server) ownedTaskLocked(c echo.Context) (*storedTask, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	st, ok := s.tasks[id]
	if !ok || st.task.OwnerEmail != currentEmail(c) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "No Task matches the given query.")
	}
	return st, nil
}

// checkCategoryLocked answers the field error for a category the caller does not own.
func (s *Server) checkCategoryLocked(c echo.Context, id *int) (bool, error) {
	if id == nil {
		return true, nil
	}
	if _, ok := s.categories[*id]; !ok {
		return false, c.JSON(http.StatusBadRequest, fieldError("category_id", "Invalid pk \""+strconv.Itoa(*id)+"\" - object does not exist."))
	}
	return true, nil
}

// today is the server's current calendar day at UTC midnight, comparable with models.Date.
func (s *Server) today() time.Time {
	y, m, d := s.clock.Now().Date()
	return models.NewDate(y, m, d).Time
}

func (s *Server) dueDateInPast(d models.Date) bool {
	return d.Before(s.today())
}

func (s *Server) listTasks(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := currentEmail(c)
	out := []models.Task{}
	for _, st := range s.tasks {
		if st.task.OwnerEmail == email {
			out = append(out, s.viewLocked(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.ownedTaskLocked(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.viewLocked(st))
}

func (s *Server) createTask(c echo.Context) error {
	var in models.TaskInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dueDateInPast(in.DueDate) {
		return c.JSON(http.StatusBadRequest, fieldError("due_date", msgDueDatePast))
	}
	if ok, err := s.checkCategoryLocked(c, in.CategoryID); !ok {
		return err
	}

	now := s.clock.Now()
	st := &storedTask{
		task: models.Task{
			ID:          s.nextTaskID,
			Title:       in.Title,
			Description: in.Description,
			Status:      in.Status,
			Priority:    in.Priority,
			DueDate:     in.DueDate,
			OwnerEmail:  currentEmail(c),
			CreatedAt:   &now,
			UpdatedAt:   &now,
		},
		categoryID: in.CategoryID,
	}
	s.tasks[st.task.ID] = st
	s.nextTaskID++
	return c.JSON(http.StatusCreated, s.viewLocked(st))
}

func (s *Server) updateTask(c echo.Context) error {
	var in models.TaskInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.ownedTaskLocked(c)
	if err != nil {
		return err
	}
	if !in.DueDate.Equal(st.task.DueDate.Time) && s.dueDateInPast(in.DueDate) {
		return c.JSON(http.StatusBadRequest, fieldError("due_date", msgDueDatePast))
	}
	if ok, err := s.checkCategoryLocked(c, in.CategoryID); !ok {
		return err
	}

	now := s.clock.Now()
	st.task.Title = in.Title
	st.task.Description = in.Description
	st.task.Status = in.Status
	st.task.Priority = in.Priority
	st.task.DueDate = in.DueDate
	st.task.UpdatedAt = &now
	st.categoryID = in.CategoryID
	return c.JSON(http.StatusOK, s.viewLocked(st))
}

func (s *Server) patchTask(c echo.Context) error {
	var patch models.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.ownedTaskLocked(c)
	if err != nil {
		return err
	}
	if patch.Status != nil && patch.Status.Rank() == 0 {
		return c.JSON(http.StatusBadRequest, fieldError("status", "\""+string(*patch.Status)+"\" is not a valid choice."))
	}
	if patch.Priority != nil && patch.Priority.Weight() == 0 {
		return c.JSON(http.StatusBadRequest, fieldError("priority", "\""+string(*patch.Priority)+"\" is not a valid choice."))
	}
	if patch.DueDate != nil && s.dueDateInPast(*patch.DueDate) {
		return c.JSON(http.StatusBadRequest, fieldError("due_date", msgDueDatePast))
	}
	if ok, err := s.checkCategoryLocked(c, patch.CategoryID); !ok {
		return err
	}

	if patch.Title != nil {
		st.task.Title = *patch.Title
	}
	if patch.Description != nil {
		st.task.Description = *patch.Description
	}
	if patch.Status != nil {
		st.task.Status = *patch.Status
	}
	if patch.Priority != nil {
		st.task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		st.task.DueDate = *patch.DueDate
	}
	if patch.CategoryID != nil {
		st.categoryID = patch.CategoryID
	}
	now := s.clock.Now()
	st.task.UpdatedAt = &now
	return c.JSON(http.StatusOK, s.viewLocked(st))
}

func (s *Server) deleteTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.ownedTaskLocked(c)
	if err != nil {
		return err
	}
	delete(s.tasks, st.task.ID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) taskStats(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := currentEmail(c)
	var stats models.Stats
	for _, st := range s.tasks {
		if st.task.OwnerEmail != email {
			continue
		}
		stats.Total++
		switch st.task.Status {
		case enums.TaskStatusCompleted:
			stats.Completed++
		case enums.TaskStatusInProgress:
			stats.InProgress++
		case enums.TaskStatusPending:
			stats.Pending++
		}
		if st.task.Priority == enums.TaskPriorityHigh {
			stats.HighPriority++
		}
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) ownedCategoryLocked(c echo.Context) (*storedCategory, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	sc, ok := s.categories[id]
	if !ok || sc.owner != currentEmail(c) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "No Category matches the given query.")
	}
	return sc, nil
}

func (s *Server) listCategories(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := currentEmail(c)
	out := []models.Category{}
	for _, sc := range s.categories {
		if sc.owner == email {
			out = append(out, sc.category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createCategory(c echo.Context) error {
	var in models.CategoryInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	sc := &storedCategory{
		category: models.Category{ID: s.nextCatID, Name: in.Name, Description: in.Description, CreatedAt: &now, UpdatedAt: &now},
		owner:    currentEmail(c),
	}
	s.categories[sc.category.ID] = sc
	s.nextCatID++
	return c.JSON(http.StatusCreated, sc.category)
}

func (s *Server) updateCategory(c echo.Context) error {
	var in models.CategoryInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sc, err := s.ownedCategoryLocked(c)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	sc.category.Name = in.Name
	sc.category.Description = in.Description
	sc.category.UpdatedAt = &now
	return c.JSON(http.StatusOK, sc.category)
}

// deleteCategory detaches the category from its tasks instead of deleting them.
func (s *Server) deleteCategory(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, err := s.ownedCategoryLocked(c)
	if err != nil {
		return err
	}
	for _, st := range s.tasks {
		if st.categoryID != nil && *st.categoryID == sc.category.ID {
			st.categoryID = nil
		}
	}
	delete(s.categories, sc.category.ID)
	return c.NoContent(http.StatusNoContent)
}
