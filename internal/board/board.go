// Package board keeps a client-side Kanban board in step with a remote task
// store.
//
// A Board combines four pieces: a Store holding the project's task snapshot,
// the Project function that turns that snapshot into columns, a Session
// tracking the one drag in progress, and a Committer that writes a dropped
// move and then refetches the whole snapshot. Moves are never applied to the
// snapshot locally; the board shows what the store returns after the write,
// whether the write succeeded or not.
package board

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dori/swimlane/internal/model"
	"github.com/sirupsen/logrus"
)

// Board is the synchronization engine for one board view. Drag methods are
// meant to be called from the UI loop; Load, Refresh and Commit block on I/O
// and should run off that loop.
type Board struct {
	defs      []ColumnDef
	store     *Store
	committer *Committer
	session   Session
	log       logrus.FieldLogger

	mu             sync.Mutex
	anomalyVersion uint64
	anomalyLogged  bool
}

// Option configures a Board
type Option func(*options)

type options struct {
	defs     []ColumnDef
	notifier Notifier
	log      logrus.FieldLogger
}

// WithColumns replaces the default column definitions
func WithColumns(defs []ColumnDef) Option {
	return func(o *options) { o.defs = defs }
}

// WithNotifier sets who is told about failed moves
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// New creates a board over client
func New(client TaskClient, opts ...Option) *Board {
	o := options{defs: DefaultColumns()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = discardLogger()
	}

	store := NewStore(client, o.log)
	return &Board{
		defs:      o.defs,
		store:     store,
		committer: NewCommitter(client, store, o.notifier, o.log),
		log:       o.log,
	}
}

// Store returns the board's task store
func (b *Board) Store() *Store {
	return b.store
}

// ColumnDefs returns the column definitions in board order
func (b *Board) ColumnDefs() []ColumnDef {
	out := make([]ColumnDef, len(b.defs))
	copy(out, b.defs)
	return out
}

// Load fetches projectID's tasks into the store
func (b *Board) Load(ctx context.Context, projectID string) error {
	return b.store.Load(ctx, projectID)
}

// Refresh refetches the current project
func (b *Board) Refresh(ctx context.Context) error {
	return b.store.Refresh(ctx)
}

// Columns projects the current snapshot. Anomalies are logged once per
// snapshot version.
func (b *Board) Columns() Projection {
	snap := b.store.Snapshot()
	p := Project(snap.Tasks, b.defs)

	b.mu.Lock()
	logIt := p.AnomalyCount() > 0 && (!b.anomalyLogged || b.anomalyVersion != snap.Version)
	if logIt {
		b.anomalyLogged = true
		b.anomalyVersion = snap.Version
	}
	b.mu.Unlock()

	if logIt {
		for _, t := range p.Anomalies {
			b.log.WithFields(logrus.Fields{
				"project_id": snap.ProjectID,
				"task_id":    t.ID,
				"status":     t.Status,
			}).Warn("task has unrecognized status, left out of every column")
		}
	}
	return p
}

// StartDrag picks up the task with taskID. Its status is read from the
// store once, here.
func (b *Board) StartDrag(taskID string) error {
	if b.session.Active() {
		return ErrDragActive
	}
	task, ok := b.store.Task(taskID)
	if !ok {
		return fmt.Errorf("start drag: task %s: %w", taskID, model.ErrNotFound)
	}
	return b.session.Start(task)
}

// Hover marks status as the drop target
func (b *Board) Hover(status model.Status) {
	b.session.Hover(status)
}

// Leave clears the drop target
func (b *Board) Leave() {
	b.session.Leave()
}

// Drop ends the drag on status
func (b *Board) Drop(status model.Status) (Move, error) {
	return b.session.Drop(status)
}

// DropOnHover ends the drag on the hovered column, cancelling if none
func (b *Board) DropOnHover() (Move, error) {
	return b.session.DropOnHover()
}

// Cancel discards the drag
func (b *Board) Cancel() {
	b.session.Cancel()
}

// Drag returns a copy of the drag session for rendering
func (b *Board) Drag() Session {
	return b.session
}

// Commit persists a dropped move. Cancelled moves return nil without
// touching the client.
func (b *Board) Commit(ctx context.Context, m Move) error {
	if !m.Dropped() {
		return nil
	}
	return b.committer.Commit(ctx, m.TaskID, m.To)
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
