package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dori/swimlane/internal/model"
)

// ErrServer marks a 5xx response
var ErrServer = errors.New("server error")

// APIError is a non-success response from the API. 4xx responses and
// success:false bodies unwrap to model.ErrRejected, 404 also to
// model.ErrNotFound, and 5xx to ErrServer.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

func (e *APIError) Unwrap() []error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return []error{model.ErrRejected, model.ErrNotFound}
	case e.StatusCode >= 500:
		return []error{ErrServer}
	case e.StatusCode >= 400, e.StatusCode < 300:
		return []error{model.ErrRejected}
	}
	return nil
}
