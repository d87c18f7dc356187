package board

import (
	"context"
	"sync"

	"github.com/dori/swimlane/internal/model"
	"github.com/sirupsen/logrus"
)

// TaskClient is the persistence collaborator the board depends on
type TaskClient interface {
	// UpdateTaskStatus persists a status change. A refusal by the store must
	// come back as an error wrapping model.ErrRejected.
	UpdateTaskStatus(ctx context.Context, taskID string, status model.Status) error

	// ListTasksForProject returns every task of the project in store order
	ListTasksForProject(ctx context.Context, projectID string) ([]model.Task, error)
}

// State is the lifecycle state of a Store
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent read of the store
type Snapshot struct {
	ProjectID string
	Tasks     []model.Task
	State     State
	Err       error

	// Version increases every time the task collection is replaced
	Version uint64
}

// Store owns the task collection of the board's project. The collection is
// only ever replaced whole by Load or Refresh.
//
// Fetches run outside the lock. Each fetch takes a generation number and its
// result is applied only if no newer fetch has been issued since, so
// overlapping refreshes resolve to the last one requested.
type Store struct {
	client TaskClient
	log    logrus.FieldLogger

	mu        sync.Mutex
	projectID string
	tasks     []model.Task
	state     State
	lastErr   error
	version   uint64
	issued    uint64
}

// NewStore creates an empty store reading from client
func NewStore(client TaskClient, log logrus.FieldLogger) *Store {
	if log == nil {
		log = discardLogger()
	}
	return &Store{client: client, log: log}
}

// Load switches the store to projectID and fetches its tasks. A failed first
// load leaves the store Failed with no tasks.
func (s *Store) Load(ctx context.Context, projectID string) error {
	s.mu.Lock()
	if s.projectID != projectID {
		s.projectID = projectID
		s.tasks = nil
		s.version++
	}
	gen := s.begin()
	s.mu.Unlock()

	return s.fetch(ctx, projectID, gen)
}

// Refresh refetches the current project's tasks
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.projectID == "" {
		s.mu.Unlock()
		return ErrNoProject
	}
	projectID := s.projectID
	gen := s.begin()
	s.mu.Unlock()

	return s.fetch(ctx, projectID, gen)
}

// begin must be called with mu held
func (s *Store) begin() uint64 {
	s.issued++
	s.state = StateLoading
	return s.issued
}

func (s *Store) fetch(ctx context.Context, projectID string, gen uint64) error {
	log := s.log.WithFields(logrus.Fields{"project_id": projectID, "generation": gen})
	log.Debug("fetching tasks")

	tasks, err := s.client.ListTasksForProject(ctx, projectID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.issued {
		log.WithField("latest", s.issued).Debug("discarding superseded fetch")
		return nil
	}

	if err != nil {
		s.state = StateFailed
		s.lastErr = err
		log.WithError(err).Warn("task fetch failed, keeping previous snapshot")
		return err
	}

	s.tasks = tasks
	s.state = StateLoaded
	s.lastErr = nil
	s.version++
	log.WithField("tasks", len(tasks)).Debug("snapshot replaced")
	return nil
}

// Current returns a copy of the task collection
func (s *Store) Current() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyTasks()
}

// LastError returns the error of the most recent applied fetch, or nil
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// State returns the lifecycle state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ProjectID returns the project the store is scoped to
func (s *Store) ProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

// Snapshot returns project, tasks, state and error read under one lock
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ProjectID: s.projectID,
		Tasks:     s.copyTasks(),
		State:     s.state,
		Err:       s.lastErr,
		Version:   s.version,
	}
}

// Task looks up a task in the current snapshot by id
func (s *Store) Task(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (s *Store) copyTasks() []model.Task {
	if s.tasks == nil {
		return nil
	}
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}
