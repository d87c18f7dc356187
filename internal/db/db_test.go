package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dori/swimlane/internal/board"
	"github.com/dori/swimlane/internal/model"
)

var _ board.TaskClient = (*DB)(nil)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenSeedsInbox(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.GetProject(ctx, model.InboxProjectID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if !p.IsInbox() || p.Name != "Inbox" {
		t.Fatalf("unexpected inbox project: %+v", p)
	}

	projects, err := db.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected only the inbox, got %d projects", len(projects))
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if _, err := db.CreateTask(context.Background(), model.InboxProjectID, model.NewTask{Title: "persist me"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	tasks, err := db.ListTasksForProject(context.Background(), model.InboxProjectID)
	if err != nil {
		t.Fatalf("ListTasksForProject failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "persist me" {
		t.Fatalf("unexpected tasks after reopen: %+v", tasks)
	}
}

func TestCreateTaskKeepsOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	proj, err := db.CreateProject(ctx, "Website", "#88c0d0")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if proj.Position != 1 {
		t.Fatalf("expected position 1 after inbox, got %d", proj.Position)
	}

	titles := []string{"first", "second", "third"}
	statuses := []model.Status{model.StatusTodo, model.StatusReview, ""}
	for i, title := range titles {
		if _, err := db.CreateTask(ctx, proj.ID, model.NewTask{Title: title, Status: statuses[i]}); err != nil {
			t.Fatalf("CreateTask(%s) failed: %v", title, err)
		}
	}

	tasks, err := db.ListTasksForProject(ctx, proj.ID)
	if err != nil {
		t.Fatalf("ListTasksForProject failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	for i, task := range tasks {
		if task.Title != titles[i] {
			t.Fatalf("task %d: expected %s, got %s", i, titles[i], task.Title)
		}
		if task.ProjectID != proj.ID {
			t.Fatalf("task %d: wrong project %s", i, task.ProjectID)
		}
	}
	if tasks[2].Status != model.StatusTodo {
		t.Fatalf("empty status should default to todo, got %s", tasks[2].Status)
	}

	projects, _ := db.ListProjects(ctx)
	for _, p := range projects {
		if p.ID == proj.ID && p.TaskCount != 3 {
			t.Fatalf("expected task count 3, got %d", p.TaskCount)
		}
	}
}

func TestCreateTaskOptionalFields(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	due := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	assignee := "u-42"
	created, err := db.CreateTask(ctx, model.InboxProjectID, model.NewTask{
		Title:       "Write docs",
		Description: "the README",
		Status:      model.StatusInProgress,
		Priority:    model.PriorityHigh,
		AssigneeID:  &assignee,
		DueDate:     &due,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	got, err := db.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Description != "the README" || got.Priority != model.PriorityHigh {
		t.Fatalf("unexpected task: %+v", got)
	}
	if got.AssigneeID == nil || *got.AssigneeID != assignee {
		t.Fatalf("assignee not stored: %v", got.AssigneeID)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("due date not stored: %v", got.DueDate)
	}
}

func TestCreateTaskRejects(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		projectID string
		task      model.NewTask
	}{
		{"empty title", model.InboxProjectID, model.NewTask{Title: "  "}},
		{"unknown status", model.InboxProjectID, model.NewTask{Title: "x", Status: "archived"}},
		{"unknown priority", model.InboxProjectID, model.NewTask{Title: "x", Priority: "urgent"}},
		{"unknown project", "nope", model.NewTask{Title: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateTask(ctx, tt.projectID, tt.task)
			if !errors.Is(err, model.ErrRejected) {
				t.Fatalf("expected ErrRejected, got %v", err)
			}
		})
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := db.Exec(`INSERT INTO tasks (id, title, status, project_id, created_at, updated_at)
		VALUES ('t1', 'Task 1', 'todo', 'inbox', ?, ?)`, old, old)
	if err != nil {
		t.Fatalf("Failed to insert task: %v", err)
	}

	if err := db.UpdateTaskStatus(ctx, "t1", model.StatusReview); err != nil {
		t.Fatalf("UpdateTaskStatus failed: %v", err)
	}
	got, err := db.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Status != model.StatusReview {
		t.Fatalf("expected review, got %s", got.Status)
	}
	if !got.UpdatedAt.After(old) {
		t.Fatalf("updated_at not bumped: %v", got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(old) {
		t.Fatalf("created_at changed: %v", got.CreatedAt)
	}

	err = db.UpdateTaskStatus(ctx, "missing", model.StatusDone)
	if !errors.Is(err, model.ErrRejected) || !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected rejected not-found error, got %v", err)
	}

	err = db.UpdateTaskStatus(ctx, "t1", "archived")
	if !errors.Is(err, model.ErrRejected) || !errors.Is(err, model.ErrInvalidStatus) {
		t.Fatalf("expected rejected invalid-status error, got %v", err)
	}
}

func TestListIncludesUnknownStatus(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	_, err := db.Exec(`INSERT INTO tasks (id, title, status, project_id, position, created_at, updated_at)
		VALUES ('a', 'A', 'todo', 'inbox', 0, ?, ?), ('b', 'B', 'archived', 'inbox', 1, ?, ?)`,
		now, now, now, now)
	if err != nil {
		t.Fatalf("Failed to insert tasks: %v", err)
	}

	tasks, err := db.ListTasksForProject(ctx, model.InboxProjectID)
	if err != nil {
		t.Fatalf("ListTasksForProject failed: %v", err)
	}
	if len(tasks) != 2 || tasks[1].Status != "archived" {
		t.Fatalf("expected the unknown-status row to be listed, got %+v", tasks)
	}

	p := board.Project(tasks, board.DefaultColumns())
	if p.AnomalyCount() != 1 {
		t.Fatalf("expected 1 anomaly, got %d", p.AnomalyCount())
	}
}

func TestDeleteTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	created, err := db.CreateTask(ctx, model.InboxProjectID, model.NewTask{Title: "bye"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := db.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if _, err := db.GetTask(ctx, created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.DeleteTask(ctx, created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

// Listing projects and then each project's tasks must not hold the single
// connection across queries.
func TestSequentialQueriesNoDeadlock(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := db.CreateProject(ctx, "Project", "")
		if err != nil {
			t.Fatalf("CreateProject failed: %v", err)
		}
		if _, err := db.CreateTask(ctx, p.ID, model.NewTask{Title: "task"}); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		projects, err := db.ListProjects(ctx)
		if err != nil {
			done <- err
			return
		}
		for _, p := range projects {
			if _, err := db.ListTasksForProject(ctx, p.ID); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("DEADLOCK: queries did not complete within 5 seconds")
	}
}

func TestListTasksUnknownProject(t *testing.T) {
	db := openTestDB(t)

	_, err := db.ListTasksForProject(context.Background(), "no-such-project")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
