// Package remote talks to a swimlane REST server. Client implements
// board.TaskClient so the board can run against a shared store.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dori/swimlane/internal/model"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 4 << 20

// Config holds connection settings
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a REST client for the task API
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
	log   logrus.FieldLogger
}

// envelope is the response wrapper every endpoint uses
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// New creates a client. log may be nil.
func New(cfg Config, log logrus.FieldLogger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("remote: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote: unsupported scheme %q", base.Scheme)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Client{
		base:  base,
		token: cfg.Token,
		http:  &http.Client{Timeout: cfg.Timeout},
		log:   log,
	}, nil
}

// ListProjects returns the projects visible to the caller
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	out, err := call[[]model.Project](ctx, c, http.MethodGet, "/api/projects", nil)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Project{}
	}
	return out, nil
}

// ListTasksForProject returns every task of the project in server order
func (c *Client) ListTasksForProject(ctx context.Context, projectID string) ([]model.Task, error) {
	path := "/api/projects/" + url.PathEscape(projectID) + "/tasks"
	out, err := call[[]model.Task](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Task{}
	}
	return out, nil
}

// CreateTask creates a task in the project
func (c *Client) CreateTask(ctx context.Context, projectID string, t model.NewTask) (*model.Task, error) {
	path := "/api/projects/" + url.PathEscape(projectID) + "/tasks"
	out, err := call[model.Task](ctx, c, http.MethodPost, path, t)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type statusUpdate struct {
	Status model.Status `json:"status"`
}

// UpdateTaskStatus changes a task's status
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID string, status model.Status) error {
	path := "/api/tasks/" + url.PathEscape(taskID)
	_, err := call[*model.Task](ctx, c, http.MethodPut, path, statusUpdate{Status: status})
	return err
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		buf, err := sonic.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("%s %s: encode: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	u := *c.base
	u.Path = c.base.Path + path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"method": method, "path": path}).Debug("request failed")
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return zero, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("api request")

	if resp.StatusCode >= 300 {
		return zero, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    messageOf(raw, resp.Status),
		}
	}

	var env envelope[T]
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	if !env.Success {
		// a 2xx with success:false is still a refusal
		return zero, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    env.Message,
		}
	}
	return env.Data, nil
}

func messageOf(raw []byte, fallback string) string {
	var env envelope[any]
	if err := sonic.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return fallback
}
