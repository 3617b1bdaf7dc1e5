package dashboard

import (
	"sync"

	"github.com/octabyte/taskdesk/utils/logger"
	"go.uber.org/zap"
)

// Store owns a State and serializes every change through Reduce.
type Store struct {
	mu     sync.Mutex
	state  State
	nextID int
	subs   map[int]func(State)
}

func NewStore(initial State) *Store {
	return &Store{state: initial, subs: map[int]func(State){}}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and hands the new state to every subscriber.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	state := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	logger.LogDebug("dashboard dispatch", zap.String("action", actionName(a)))
	for _, fn := range subs {
		fn(state)
	}
	return state
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func actionName(a Action) string {
	switch a.(type) {
	case SetTasks:
		return "tasks/setTasks"
	case AddTask:
		return "tasks/addTask"
	case UpdateTask:
		return "tasks/updateTask"
	case DeleteTask:
		return "tasks/deleteTask"
	case ToggleTaskStatus:
		return "tasks/toggleTaskStatus"
	case SetFilter:
		return "tasks/setFilter"
	case SetSortBy:
		return "tasks/setSortBy"
	case SetStats:
		return "tasks/setStats"
	case SetLoading:
		return "tasks/setLoading"
	case SetError:
		return "tasks/setError"
	case SetCategories:
		return "categories/setCategories"
	case AddCategory:
		return "categories/addCategory"
	case UpdateCategory:
		return "categories/updateCategory"
	case DeleteCategory:
		return "categories/deleteCategory"
	case SetCategoryLoading:
		return "categories/setCategoryLoading"
	case SetCategoryError:
		return "categories/setCategoryError"
	case SetUser:
		return "user/setUser"
	case ClearUser:
		return "user/clearUser"
	case SetTheme:
		return "theme/setTheme"
	default:
		return "unknown"
	}
}
