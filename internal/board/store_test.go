package board

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dori/swimlane/internal/model"
)

func TestStoreLoad(t *testing.T) {
	mem := &memoryStore{tasks: []model.Task{task("1", model.StatusTodo), task("2", model.StatusDone)}}
	s := NewStore(mem.client(), nil)

	if s.State() != StateEmpty {
		t.Fatalf("expected empty state, got %s", s.State())
	}

	if err := s.Load(context.Background(), "p1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := s.Snapshot()
	if snap.State != StateLoaded || snap.ProjectID != "p1" || snap.Err != nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !equalIDs(ids(snap.Tasks), []string{"1", "2"}) {
		t.Fatalf("unexpected tasks %v", ids(snap.Tasks))
	}

	tk, ok := s.Task("2")
	if !ok || tk.Status != model.StatusDone {
		t.Fatalf("task lookup failed: %+v %v", tk, ok)
	}
	if _, ok := s.Task("nope"); ok {
		t.Fatal("found a task that does not exist")
	}
}

func TestStoreRefreshWithoutProject(t *testing.T) {
	s := NewStore(&stubClient{}, nil)
	if err := s.Refresh(context.Background()); !errors.Is(err, ErrNoProject) {
		t.Fatalf("expected ErrNoProject, got %v", err)
	}
}

func TestStoreFailedRefreshKeepsSnapshot(t *testing.T) {
	mem := &memoryStore{tasks: []model.Task{task("1", model.StatusTodo)}}
	s := NewStore(mem.client(), nil)
	if err := s.Load(context.Background(), "p1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := s.Snapshot()

	mem.listErr = errors.New("connection refused")
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	after := s.Snapshot()
	if after.State != StateFailed {
		t.Fatalf("expected failed state, got %s", after.State)
	}
	if after.Err == nil || s.LastError() == nil {
		t.Fatal("expected last error to be set")
	}
	if !equalIDs(ids(after.Tasks), ids(before.Tasks)) {
		t.Fatalf("snapshot changed on failure: %v -> %v", ids(before.Tasks), ids(after.Tasks))
	}
	if after.Version != before.Version {
		t.Fatalf("version changed on failure: %d -> %d", before.Version, after.Version)
	}

	mem.listErr = nil
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if s.LastError() != nil || s.State() != StateLoaded {
		t.Fatalf("error not cleared after good refresh: %v %s", s.LastError(), s.State())
	}
}

func TestStoreSwitchProjectClearsTasks(t *testing.T) {
	client := &stubClient{
		listFn: func(_ context.Context, projectID string) ([]model.Task, error) {
			if projectID == "p2" {
				return nil, errors.New("boom")
			}
			return []model.Task{task("1", model.StatusTodo)}, nil
		},
	}
	s := NewStore(client, nil)
	if err := s.Load(context.Background(), "p1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Load(context.Background(), "p2"); err == nil {
		t.Fatal("expected load error")
	}
	if len(s.Current()) != 0 {
		t.Fatalf("tasks from p1 leaked into p2: %v", ids(s.Current()))
	}
	if s.ProjectID() != "p2" {
		t.Fatalf("expected project p2, got %s", s.ProjectID())
	}
}

func TestStoreSupersededFetchIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var n int32

	client := &stubClient{
		listFn: func(_ context.Context, _ string) ([]model.Task, error) {
			if atomic.AddInt32(&n, 1) == 1 {
				close(entered)
				<-release
				return []model.Task{task("stale", model.StatusTodo)}, nil
			}
			return []model.Task{task("fresh", model.StatusDone)}, nil
		},
	}
	s := NewStore(client, nil)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), "p1") }()
	<-entered

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("superseded load returned %v", err)
	}

	if got := ids(s.Current()); !equalIDs(got, []string{"fresh"}) {
		t.Fatalf("expected the later fetch to win, got %v", got)
	}
	if s.State() != StateLoaded {
		t.Fatalf("expected loaded, got %s", s.State())
	}
}

func TestStoreCurrentIsACopy(t *testing.T) {
	mem := &memoryStore{tasks: []model.Task{task("1", model.StatusTodo)}}
	s := NewStore(mem.client(), nil)
	_ = s.Load(context.Background(), "p1")

	got := s.Current()
	got[0].Status = model.StatusDone

	if tk, _ := s.Task("1"); tk.Status != model.StatusTodo {
		t.Fatal("mutating Current changed the store")
	}
}
