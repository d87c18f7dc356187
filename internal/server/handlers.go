package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dori/swimlane/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// response is the envelope every endpoint answers with
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

// Register wires up all API routes on the provided Echo instance. auth may be
// nil to serve without authentication.
func Register(e *echo.Echo, backend Backend, auth *Auth) {
	e.GET("/healthz", healthz())

	api := e.Group("/api", requireAuth(auth))
	api.GET("/projects", listProjects(backend))
	api.GET("/projects/:id/tasks", listTasks(backend))
	api.POST("/projects/:id/tasks", createTask(backend))
	api.PUT("/tasks/:id", updateTaskStatus(backend))
	api.DELETE("/tasks/:id", deleteTask(backend))
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func listProjects(backend Backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		projects, err := backend.ListProjects(c.Request().Context())
		if err != nil {
			return backendError(err, "Project not found")
		}
		return c.JSON(http.StatusOK, response{Success: true, Data: projects})
	}
}

func listTasks(backend Backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks, err := backend.ListTasksForProject(c.Request().Context(), c.Param("id"))
		if err != nil {
			return backendError(err, "Project not found")
		}
		return c.JSON(http.StatusOK, response{Success: true, Data: tasks})
	}
}

func createTask(backend Backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req model.NewTask
		if err := c.Bind(&req); err != nil {
			return err
		}
		if req.Status != "" && !req.Status.Known() {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("invalid status %q", req.Status))
		}

		task, err := backend.CreateTask(c.Request().Context(), c.Param("id"), req)
		if err != nil {
			return backendError(err, "Project not found")
		}
		return c.JSON(http.StatusCreated, response{Success: true, Data: task, Message: "Task created"})
	}
}

func updateTaskStatus(backend Backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req statusRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		if !req.Status.Known() {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("invalid status %q", req.Status))
		}

		ctx := c.Request().Context()
		id := c.Param("id")
		if err := backend.UpdateTaskStatus(ctx, id, req.Status); err != nil {
			return backendError(err, "Task not found")
		}
		task, err := backend.GetTask(ctx, id)
		if err != nil {
			return backendError(err, "Task not found")
		}
		return c.JSON(http.StatusOK, response{Success: true, Data: task, Message: "Task updated"})
	}
}

func deleteTask(backend Backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := backend.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
			return backendError(err, "Task not found")
		}
		return c.JSON(http.StatusOK, response{Success: true, Message: "Task deleted"})
	}
}

// backendError maps store errors onto HTTP statuses
func backendError(err error, notFound string) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound).SetInternal(err)
	case errors.Is(err, model.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid status").SetInternal(err)
	case errors.Is(err, model.ErrRejected), errors.Is(err, model.ErrInvalidTask):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}

func errorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		}
		if code >= http.StatusInternalServerError {
			log.WithError(err).WithField("path", c.Path()).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, response{Success: false, Message: msg})
	}
}
