package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dori/swimlane/internal/board"
	"github.com/dori/swimlane/internal/model"
)

var _ board.TaskClient = (*Client)(nil)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Token: "secret", Timeout: 2 * time.Second}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestListTasksForProject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/projects/p1/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		io.WriteString(w, `{"success":true,"data":[
			{"id":"1","title":"A","status":"todo","project_id":"p1"},
			{"id":"2","title":"B","status":"archived","project_id":"p1","assigned_to":"u1"}
		]}`)
	})

	tasks, err := c.ListTasksForProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ListTasksForProject: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "1" || tasks[1].Status != "archived" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
	if tasks[1].AssigneeID == nil || *tasks[1].AssigneeID != "u1" {
		t.Fatalf("assignee not decoded: %v", tasks[1].AssigneeID)
	}
}

func TestListTasksEmptyData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":null}`)
	})
	tasks, err := c.ListTasksForProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ListTasksForProject: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestUpdateTaskStatusSendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/tasks/t1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"status":"in_progress"`) {
			t.Errorf("unexpected body %s", body)
		}
		io.WriteString(w, `{"success":true,"data":{"id":"t1","title":"A","status":"in_progress"}}`)
	})

	if err := c.UpdateTaskStatus(context.Background(), "t1", model.StatusInProgress); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		rejected   bool
		notFound   bool
		serverErr  bool
		wantInText string
	}{
		{"not found", http.StatusNotFound, `{"success":false,"message":"Task not found"}`, true, true, false, "Task not found"},
		{"invalid status", http.StatusUnprocessableEntity, `{"success":false,"message":"invalid status"}`, true, false, false, "invalid status"},
		{"unauthorized", http.StatusUnauthorized, ``, true, false, false, "401"},
		{"server error", http.StatusInternalServerError, `oops`, false, false, true, "500"},
		{"success false on 200", http.StatusOK, `{"success":false,"message":"locked"}`, true, false, false, "locked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			err := c.UpdateTaskStatus(context.Background(), "t1", model.StatusDone)
			if err == nil {
				t.Fatal("expected an error")
			}
			if errors.Is(err, model.ErrRejected) != tt.rejected {
				t.Fatalf("rejected = %v, want %v (%v)", !tt.rejected, tt.rejected, err)
			}
			if errors.Is(err, model.ErrNotFound) != tt.notFound {
				t.Fatalf("not found = %v, want %v (%v)", !tt.notFound, tt.notFound, err)
			}
			if errors.Is(err, ErrServer) != tt.serverErr {
				t.Fatalf("server error = %v, want %v (%v)", !tt.serverErr, tt.serverErr, err)
			}
			if !strings.Contains(err.Error(), tt.wantInText) {
				t.Fatalf("expected %q in %q", tt.wantInText, err.Error())
			}
		})
	}
}

func TestTransportErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = c.UpdateTaskStatus(context.Background(), "t1", model.StatusDone)
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, model.ErrRejected) {
		t.Fatalf("transport error classified as rejection: %v", err)
	}
}

func TestCreateTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/projects/p1/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"status":"review"`) {
			t.Errorf("status not sent: %s", body)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"success":true,"data":{"id":"n1","title":"New","status":"review","project_id":"p1"}}`)
	})

	task, err := c.CreateTask(context.Background(), "p1", model.NewTask{Title: "New", Status: model.StatusReview})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID != "n1" || task.Status != model.StatusReview {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestListProjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":[{"id":"inbox","name":"Inbox","archived":false,"position":0}]}`)
	})
	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || !projects[0].IsInbox() {
		t.Fatalf("unexpected projects %+v", projects)
	}
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, base := range []string{"", "ftp://example.com", "://bad"} {
		if _, err := New(Config{BaseURL: base}, nil); err == nil {
			t.Fatalf("expected error for base url %q", base)
		}
	}
}

func TestBoardAgainstRemote(t *testing.T) {
	status := model.StatusTodo
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"success":false,"message":"Task not found"}`)
		default:
			io.WriteString(w, `{"success":true,"data":[{"id":"1","title":"A","status":"`+string(status)+`","project_id":"p1"}]}`)
		}
	})

	b := board.New(c)
	if err := b.Load(context.Background(), "p1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_ = b.StartDrag("1")
	m, _ := b.Drop(model.StatusDone)

	err := b.Commit(context.Background(), m)
	var moveErr *board.MoveError
	if !errors.As(err, &moveErr) || moveErr.Kind != board.KindRejected {
		t.Fatalf("expected rejected move, got %v", err)
	}
	col, _ := b.Columns().Column(model.StatusTodo)
	if len(col.Tasks) != 1 {
		t.Fatalf("task should be back in todo after the refetch, got %+v", b.Columns())
	}
}
