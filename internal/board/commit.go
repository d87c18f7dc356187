package board

import (
	"context"
	"errors"

	"github.com/dori/swimlane/internal/model"
	"github.com/sirupsen/logrus"
)

// Notifier surfaces a failed move to the user
type Notifier interface {
	MoveFailed(err *MoveError)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(err *MoveError)

func (f NotifierFunc) MoveFailed(err *MoveError) { f(err) }

// Committer persists moves and resynchronizes the store afterwards
type Committer struct {
	client   TaskClient
	store    *Store
	notifier Notifier
	log      logrus.FieldLogger
}

// NewCommitter creates a committer. notifier may be nil.
func NewCommitter(client TaskClient, store *Store, notifier Notifier, log logrus.FieldLogger) *Committer {
	if log == nil {
		log = discardLogger()
	}
	return &Committer{client: client, store: store, notifier: notifier, log: log}
}

// Commit writes the new status, then refetches the whole collection whether
// or not the write succeeded. The store is never patched with the requested
// status; what the board shows afterwards is what the store returned.
//
// A failed write is returned as *MoveError after the refresh has run. A
// successful write followed by a failed refresh returns nil; the refresh
// failure is left on the store's LastError.
func (c *Committer) Commit(ctx context.Context, taskID string, to model.Status) error {
	log := c.log.WithFields(logrus.Fields{"task_id": taskID, "status": to})

	updateErr := c.client.UpdateTaskStatus(ctx, taskID, to)

	var moveErr *MoveError
	if updateErr != nil {
		moveErr = &MoveError{TaskID: taskID, To: to, Kind: classify(updateErr), Err: updateErr}
		log.WithError(updateErr).WithField("kind", moveErr.Kind).Warn("move failed")
		if c.notifier != nil {
			c.notifier.MoveFailed(moveErr)
		}
	} else {
		log.Info("move committed")
	}

	if err := c.store.Refresh(ctx); err != nil {
		if !errors.Is(err, ErrNoProject) {
			log.WithError(err).Warn("resync after move failed")
		}
	}

	if moveErr != nil {
		return moveErr
	}
	return nil
}
