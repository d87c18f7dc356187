// Package server exposes a task store over the REST API that remote.Client
// speaks, so several boards can share one store.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dori/swimlane/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Backend is the store the server exposes
type Backend interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListTasksForProject(ctx context.Context, projectID string) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, projectID string, t model.NewTask) (*model.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status model.Status) error
	DeleteTask(ctx context.Context, id string) error
}

// Config holds server settings
type Config struct {
	Addr            string
	AuthSecret      string
	ShutdownTimeout time.Duration
}

// Server is the HTTP API server
type Server struct {
	echo     *echo.Echo
	addr     string
	shutdown time.Duration
	log      logrus.FieldLogger
}

// New builds the server and registers its routes
func New(cfg Config, backend Backend, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.Recover())
	e.Use(requestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	Register(e, backend, NewAuth(cfg.AuthSecret))

	return &Server{echo: e, addr: cfg.Addr, shutdown: cfg.ShutdownTimeout, log: log}
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithField("addr", s.addr).Info("api server listening")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		s.log.Info("api server shutting down")
		return s.echo.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// sonicSerializer makes echo encode and decode JSON with sonic
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body").SetInternal(err)
	}
	return nil
}
