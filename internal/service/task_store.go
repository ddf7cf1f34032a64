package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"taskboard/internal/model"
)

var (
	// ErrDuplicateTask is returned by Add when the title (ignoring case) already exists in the category.
	ErrDuplicateTask = errors.New("task already exists in this category")
	// ErrInvalidTask is returned by Add when a required field is blank.
	ErrInvalidTask = errors.New("title, category and priority are required")
	// ErrIDExhausted is returned by Add when the id generator keeps producing ids already in use.
	ErrIDExhausted = errors.New("could not allocate a fresh task id")
)

const (
	maxIDAttempts = 8
	saveTimeout   = 5 * time.Second
)

// Persister is the durable side channel of the store. Save receives the full
// ordered list after every mutation.
type Persister interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
}

// Clock returns the creation time for new tasks.
type Clock func() time.Time

// Counts summarises the list per filter mode.
type Counts struct {
	All       int
	Pending   int
	Completed int
}

// TaskStore is the in-memory authority for the task list.
type TaskStore struct {
	mu        sync.Mutex
	tasks     []model.Task
	persister Persister
	newID     IDGenerator
	now       Clock
	log       logrus.FieldLogger
}

// Option customises a TaskStore.
type Option func(*TaskStore)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *TaskStore) { s.newID = gen }
}

// WithClock sets the source of creation timestamps.
func WithClock(clock Clock) Option {
	return func(s *TaskStore) { s.now = clock }
}

// WithLogger sets the logger used for load and save failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *TaskStore) { s.log = log }
}

// NewTaskStore builds a store and loads the persisted list. A failed load
// leaves the store empty.
func NewTaskStore(ctx context.Context, persister Persister, opts ...Option) *TaskStore {
	s := &TaskStore{
		persister: persister,
		newID:     NewUUID,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if persister != nil {
		tasks, err := persister.Load(ctx)
		if err != nil {
			s.log.WithError(err).Warn("stored tasks unreadable, starting with an empty list")
			tasks = nil
		}
		s.tasks = tasks
	}
	s.log.WithField("tasks", len(s.tasks)).Info("task store loaded")
	return s
}

// Add appends a new pending task.
func (s *TaskStore) Add(ctx context.Context, title, category string, priority model.Priority) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(category) == "" || strings.TrimSpace(string(priority)) == "" {
		return model.Task{}, ErrInvalidTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		if t.SameKey(title, category) {
			return model.Task{}, ErrDuplicateTask
		}
	}

	id, err := s.freshID()
	if err != nil {
		return model.Task{}, err
	}

	task := model.Task{
		ID:        id,
		Title:     title,
		Category:  category,
		Priority:  priority,
		CreatedAt: s.now(),
	}
	s.tasks = append(s.tasks, task)
	s.save(ctx)

	s.log.WithFields(logrus.Fields{"task": task.ID, "category": category}).Debug("task added")
	return task, nil
}

// Delete removes the task with the given id and reports whether it existed.
func (s *TaskStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.save(ctx)

	s.log.WithField("task", id).Debug("task deleted")
	return true
}

// Toggle flips completion of the task with the given id and returns its new state.
func (s *TaskStore) Toggle(ctx context.Context, id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, false
	}
	s.tasks[i].Toggle()
	task := s.tasks[i]
	s.save(ctx)

	s.log.WithFields(logrus.Fields{"task": id, "completed": task.IsCompleted}).Debug("task toggled")
	return task, true
}

// Get returns the task with the given id.
func (s *TaskStore) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i], true
}

// Filter returns a copy of the tasks selected by mode, in insertion order.
func (s *TaskStore) Filter(mode model.Filter) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if mode.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Counts returns the number of tasks in each filter mode.
func (s *TaskStore) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Counts{All: len(s.tasks)}
	for _, t := range s.tasks {
		if t.IsCompleted {
			c.Completed++
		} else {
			c.Pending++
		}
	}
	return c
}

// freshID asks the generator for an id not used by any current task.
func (s *TaskStore) freshID() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

func (s *TaskStore) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// save must be called with mu held. Failures keep the in-memory list as is.
// The write ignores the caller's cancellation but not its values.
func (s *TaskStore) save(ctx context.Context) {
	if s.persister == nil {
		return
	}
	snapshot := make([]model.Task, len(s.tasks))
	copy(snapshot, s.tasks)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, snapshot); err != nil {
		s.log.WithError(err).WithField("tasks", len(snapshot)).Error("failed to persist tasks")
	}
}
