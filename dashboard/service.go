package dashboard

import (
	"context"

	"github.com/octabyte/taskdesk/api"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	otellogger "github.com/octabyte/taskdesk/otel/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MsgFetchTasksFailed      = "Failed to fetch tasks"
	MsgFetchStatsFailed      = "Failed to fetch stats"
	MsgFetchCategoriesFailed = "Failed to fetch categories"
	MsgSaveTaskFailed        = "Failed to save task"
	MsgDeleteTaskFailed      = "Failed to delete task"
	MsgToggleStatusFailed    = "Failed to toggle status"
	MsgSaveCategoryFailed    = "Failed to save category"
	MsgDeleteCategoryFailed  = "Failed to delete category"
)

type TaskClient interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int) (*models.Task, error)
	TaskStats(ctx context.Context) (*models.Stats, error)
	CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id int, in models.TaskInput) (*models.Task, error)
	PatchTask(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id int) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int, in models.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

// Service runs dashboard operations against the backend and records their
// outcome in a Store. Failures land in the tasks or categories error field.
type Service struct {
	client TaskClient
	store  *Store
}

func NewService(client TaskClient, store *Store) *Service {
	return &Service{client: client, store: store}
}

func (s *Service) Store() *Store {
	return s.store
}

// Load fetches tasks, stats and categories concurrently. Each result is
// dispatched as it arrives; the first failure is returned.
func (s *Service) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.FetchTasks(ctx) })
	g.Go(func() error { return s.FetchStats(ctx) })
	g.Go(func() error { return s.FetchCategories(ctx) })
	return g.Wait()
}

func (s *Service) FetchTasks(ctx context.Context) error {
	s.store.Dispatch(SetLoading{})
	tasks, err := s.client.ListTasks(ctx)
	if err != nil {
		return s.fail(ctx, err, MsgFetchTasksFailed)
	}
	s.store.Dispatch(SetTasks{Tasks: tasks})
	return nil
}

func (s *Service) FetchStats(ctx context.Context) error {
	stats, err := s.client.TaskStats(ctx)
	if err != nil {
		return s.fail(ctx, err, MsgFetchStatsFailed)
	}
	s.store.Dispatch(SetStats{Stats: *stats})
	return nil
}

func (s *Service) FetchCategories(ctx context.Context) error {
	s.store.Dispatch(SetCategoryLoading{})
	categories, err := s.client.ListCategories(ctx)
	if err != nil {
		otellogger.WarnCtx(ctx, "dashboard request failed", zap.String("fallback", MsgFetchCategoriesFailed), zap.Error(err))
		s.store.Dispatch(SetCategoryError{Message: api.UserMessage(err, MsgFetchCategoriesFailed)})
		return err
	}
	s.store.Dispatch(SetCategories{Categories: categories})
	return nil
}

// SaveTask creates the task when id is 0 and replaces task id otherwise.
func (s *Service) SaveTask(ctx context.Context, id int, in models.TaskInput) (*models.Task, error) {
	var (
		task *models.Task
		err  error
	)
	if id == 0 {
		task, err = s.client.CreateTask(ctx, in)
	} else {
		task, err = s.client.UpdateTask(ctx, id, in)
	}
	if err != nil {
		return nil, s.fail(ctx, err, MsgSaveTaskFailed)
	}

	if id == 0 {
		s.store.Dispatch(AddTask{Task: *task})
	} else {
		s.store.Dispatch(UpdateTask{Task: *task})
	}
	return task, s.refreshStats(ctx, MsgSaveTaskFailed)
}

func (s *Service) DeleteTask(ctx context.Context, id int) error {
	if err := s.client.DeleteTask(ctx, id); err != nil {
		return s.fail(ctx, err, MsgDeleteTaskFailed)
	}
	s.store.Dispatch(DeleteTask{ID: id})
	return s.refreshStats(ctx, MsgDeleteTaskFailed)
}

// ToggleStatus marks task id completed, or pending again when it already is.
func (s *Service) ToggleStatus(ctx context.Context, id int) error {
	current, loaded := s.localTask(id)
	if !loaded {
		remote, err := s.client.GetTask(ctx, id)
		if err != nil {
			return s.fail(ctx, err, MsgToggleStatusFailed)
		}
		current = *remote
	}
	next := ToggledStatus(current.Status)

	task, err := s.client.PatchTask(ctx, id, models.TaskPatch{Status: &next})
	if err != nil {
		return s.fail(ctx, err, MsgToggleStatusFailed)
	}
	if loaded {
		s.store.Dispatch(ToggleTaskStatus{ID: id})
	} else {
		s.store.Dispatch(AddTask{Task: *task})
	}
	return s.refreshStats(ctx, MsgToggleStatusFailed)
}

func (s *Service) localTask(id int) (models.Task, bool) {
	for _, t := range s.store.State().Tasks.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func (s *Service) SetFilter(filter enums.TaskFilter) {
	s.store.Dispatch(SetFilter{Filter: filter})
}

func (s *Service) SetSortBy(by enums.TaskSort) {
	s.store.Dispatch(SetSortBy{SortBy: by})
}

func (s *Service) SetTheme(theme enums.Theme) {
	s.store.Dispatch(SetTheme{Theme: theme})
}

// SaveCategory creates the category when id is 0 and replaces category id otherwise.
func (s *Service) SaveCategory(ctx context.Context, id int, in models.CategoryInput) (*models.Category, error) {
	var (
		category *models.Category
		err      error
	)
	if id == 0 {
		category, err = s.client.CreateCategory(ctx, in)
	} else {
		category, err = s.client.UpdateCategory(ctx, id, in)
	}
	if err != nil {
		otellogger.WarnCtx(ctx, "category save failed", zap.Int("id", id), zap.Error(err))
		s.store.Dispatch(SetCategoryError{Message: api.UserMessage(err, MsgSaveCategoryFailed)})
		return nil, err
	}

	if id == 0 {
		s.store.Dispatch(AddCategory{Category: *category})
	} else {
		s.store.Dispatch(UpdateCategory{Category: *category})
	}
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int) error {
	if err := s.client.DeleteCategory(ctx, id); err != nil {
		otellogger.WarnCtx(ctx, "category delete failed", zap.Int("id", id), zap.Error(err))
		s.store.Dispatch(SetCategoryError{Message: api.UserMessage(err, MsgDeleteCategoryFailed)})
		return err
	}
	s.store.Dispatch(DeleteCategory{ID: id})
	return nil
}

// refreshStats replaces the locally tracked counts with the server's.
func (s *Service) refreshStats(ctx context.Context, fallback string) error {
	stats, err := s.client.TaskStats(ctx)
	if err != nil {
		return s.fail(ctx, err, fallback)
	}
	s.store.Dispatch(SetStats{Stats: *stats})
	return nil
}

func (s *Service) fail(ctx context.Context, err error, fallback string) error {
	otellogger.WarnCtx(ctx, "dashboard request failed", zap.String("fallback", fallback), zap.Error(err))
	s.store.Dispatch(SetError{Message: api.UserMessage(err, fallback)})
	return err
}
