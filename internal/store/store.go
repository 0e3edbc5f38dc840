package store

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/Joseda-hg/todolist/internal/model"
	"github.com/charmbracelet/log"
	goerrors "github.com/go-errors/errors"
	"github.com/oklog/ulid/v2"
)

// Backend reads and writes the persisted document.
type Backend interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
}

// Store owns the ordered task list. Every mutation is written back through
// the backend before it returns.
type Store struct {
	backend Backend
	logger  *log.Logger
	tasks   []model.Task
	entropy io.Reader
	now     func() time.Time
	savedAt time.Time
}

func New(backend Backend, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{
		backend: backend,
		logger:  logger,
		tasks:   []model.Task{},
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Load replaces the in-memory list with the persisted one. A missing or
// unreadable document leaves the store empty.
func (s *Store) Load(ctx context.Context) []model.Task {
	tasks, err := s.backend.Load(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("no saved tasks, starting empty")
		tasks = nil
	case err != nil:
		s.logger.Warn("saved tasks unreadable, starting empty", "err", err)
		tasks = nil
	}

	s.tasks = make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		task.ID = s.newID()
		s.tasks = append(s.tasks, task)
	}
	s.logger.Debug("tasks loaded", "count", len(s.tasks))
	return s.Tasks()
}

func (s *Store) Tasks() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Len() int {
	return len(s.tasks)
}

func (s *Store) At(index int) (model.Task, bool) {
	if !s.inRange(index) {
		return model.Task{}, false
	}
	return s.tasks[index], true
}

// IndexOf returns the current position of the task with the given ID, or -1.
func (s *Store) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, task := range s.tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Add(ctx context.Context, text string) (bool, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, nil
	}
	task := model.Task{ID: s.newID(), Text: trimmed}
	s.tasks = append(s.tasks, task)
	s.logger.Debug("task added", "id", task.ID, "index", len(s.tasks)-1)
	return true, s.Save(ctx)
}

func (s *Store) ToggleAt(ctx context.Context, index int) (bool, error) {
	if !s.inRange(index) {
		return false, nil
	}
	s.tasks[index].Completed = !s.tasks[index].Completed
	s.logger.Debug("task toggled", "index", index, "completed", s.tasks[index].Completed)
	return true, s.Save(ctx)
}

func (s *Store) CompleteAt(ctx context.Context, index int) (bool, error) {
	if !s.inRange(index) {
		return false, nil
	}
	s.tasks[index].Completed = true
	s.logger.Debug("task completed", "index", index)
	return true, s.Save(ctx)
}

func (s *Store) EditAt(ctx context.Context, index int, text string) (bool, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !s.inRange(index) {
		return false, nil
	}
	s.tasks[index].Text = trimmed
	s.logger.Debug("task edited", "index", index)
	return true, s.Save(ctx)
}

func (s *Store) DeleteAt(ctx context.Context, index int) (bool, error) {
	if !s.inRange(index) {
		return false, nil
	}
	removed := s.tasks[index]
	s.tasks = append(s.tasks[:index], s.tasks[index+1:]...)
	s.logger.Debug("task deleted", "id", removed.ID, "index", index)
	return true, s.Save(ctx)
}

func (s *Store) Stats() model.Stats {
	stats := model.Stats{Total: len(s.tasks)}
	for _, task := range s.tasks {
		if task.Completed {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		percent := float64(stats.Completed) / float64(stats.Total) * 100
		stats.PercentComplete = math.Round(percent*10) / 10
	}
	return stats
}

// Save overwrites the persisted document with the current list.
func (s *Store) Save(ctx context.Context) error {
	if err := s.backend.Save(ctx, s.Tasks()); err != nil {
		wrapped := goerrors.WrapPrefix(err, "save tasks", 0)
		s.logger.Error("save failed", "err", err)
		s.logger.Debug("save failure stack", "stack", wrapped.ErrorStack())
		return wrapped
	}
	s.savedAt = s.now()
	return nil
}

// SavedAt reports when the last successful save finished. It is zero until
// the first save.
func (s *Store) SavedAt() time.Time {
	return s.savedAt
}

func (s *Store) inRange(index int) bool {
	return index >= 0 && index < len(s.tasks)
}

func (s *Store) newID() string {
	id, err := ulid.New(ulid.Timestamp(s.now()), s.entropy)
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}
