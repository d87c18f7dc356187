package board

import (
	"context"
	"errors"
	"sync"

	"github.com/dori/swimlane/internal/model"
)

type stubClient struct {
	updateFn func(ctx context.Context, taskID string, status model.Status) error
	listFn   func(ctx context.Context, projectID string) ([]model.Task, error)

	mu    sync.Mutex
	calls []string
}

func (s *stubClient) UpdateTaskStatus(ctx context.Context, taskID string, status model.Status) error {
	s.record("update:" + taskID + ":" + string(status))
	if s.updateFn == nil {
		return errors.New("unexpected UpdateTaskStatus call")
	}
	return s.updateFn(ctx, taskID, status)
}

func (s *stubClient) ListTasksForProject(ctx context.Context, projectID string) ([]model.Task, error) {
	s.record("list:" + projectID)
	if s.listFn == nil {
		return nil, errors.New("unexpected ListTasksForProject call")
	}
	return s.listFn(ctx, projectID)
}

func (s *stubClient) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *stubClient) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// memoryStore is a tiny in-memory task store that applies status updates, so
// tests can check that the board shows what the store holds after a move.
type memoryStore struct {
	mu        sync.Mutex
	tasks     []model.Task
	updateErr error
	listErr   error
}

func (m *memoryStore) client() *stubClient {
	return &stubClient{
		updateFn: func(_ context.Context, taskID string, status model.Status) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.updateErr != nil {
				return m.updateErr
			}
			for i := range m.tasks {
				if m.tasks[i].ID == taskID {
					m.tasks[i].Status = status
					return nil
				}
			}
			return model.ErrRejected
		},
		listFn: func(_ context.Context, _ string) ([]model.Task, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.listErr != nil {
				return nil, m.listErr
			}
			out := make([]model.Task, len(m.tasks))
			copy(out, m.tasks)
			return out, nil
		},
	}
}

func task(id string, status model.Status) model.Task {
	return model.Task{ID: id, Title: "Task " + id, Status: status, ProjectID: "p1"}
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
