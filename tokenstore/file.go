package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/utils"
	"github.com/octabyte/taskdesk/utils/logger"
	"go.uber.org/zap"
)

const (
	DefaultFileName = "session.json"

	dirPerm  = 0o700
	filePerm = 0o600
)

// FileStore persists the session as a JSON document readable only by the owner.
// Other processes sharing the file observe writes through Watch.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "taskdesk", DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	return &FileStore{path: filepath.Clean(path)}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context) (models.Tokens, error) {
	session, err := s.read()
	if err != nil {
		return models.Tokens{}, err
	}
	return session.Tokens, nil
}

func (s *FileStore) Set(_ context.Context, tokens models.Tokens) error {
	return s.update(func(session models.Session) models.Session {
		return merge(session, tokens)
	})
}

func (s *FileStore) SetUser(_ context.Context, user models.User) error {
	return s.update(func(session models.Session) models.Session {
		session.User = &user
		return session
	})
}

func (s *FileStore) User(_ context.Context) (*models.User, error) {
	session, err := s.read()
	if err != nil {
		return nil, err
	}
	return session.User, nil
}

func (s *FileStore) MarkTabScoped(_ context.Context) error {
	return s.update(func(session models.Session) models.Session {
		session.TabScoped = true
		return session
	})
}

func (s *FileStore) Session(_ context.Context) (models.Session, error) {
	return s.read()
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) HasAccess(ctx context.Context) bool {
	return Load(ctx, s).Access != ""
}

// Watch reports changes made by any process to the session file.
func (s *FileStore) Watch(ctx context.Context) (<-chan Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}

	last, _ := s.read()
	out := make(chan Change, watchBuffer)

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path {
					continue
				}
				current, err := s.read()
				if err != nil {
					// Half-written or corrupt file; the next event carries the final state.
					continue
				}
				for _, change := range diff(last, current) {
					select {
					case out <- change:
					case <-ctx.Done():
						return
					}
				}
				last = current
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.LogWarn("session file watcher error", zap.Error(err))
			}
		}
	}()

	return out, nil
}

func (s *FileStore) read() (models.Session, error) {
	var session models.Session

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return session, nil
	}
	if err != nil {
		return session, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return session, nil
	}
	if err := utils.BytesToStruct(data, &session); err != nil {
		return models.Session{}, fmt.Errorf("failed to decode session file: %w", err)
	}
	return session, nil
}

func (s *FileStore) update(fn func(models.Session) models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		logger.LogWarn("discarding unreadable session file", zap.String("path", s.path), zap.Error(err))
		current = models.Session{}
	}
	return s.write(fn(current))
}

// write replaces the file atomically so readers never see a partial document.
func (s *FileStore) write(session models.Session) error {
	data, err := utils.StructToBytes(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
