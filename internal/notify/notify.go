package notify

import (
	"os/exec"
	"strconv"
	"time"

	"github.com/dori/swimlane/internal/board"
	"github.com/sirupsen/logrus"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Notifier sends desktop notifications through notify-send
type Notifier struct {
	enabled bool
	log     logrus.FieldLogger
	run     func(name string, args ...string) error
}

var _ board.Notifier = (*Notifier)(nil)

// NewNotifier creates a notifier. A disabled notifier drops everything.
func NewNotifier(enabled bool, log logrus.FieldLogger) *Notifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{
		enabled: enabled,
		log:     log,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// Send sends a desktop notification
func (n *Notifier) Send(notification Notification) error {
	if !n.enabled {
		return nil
	}
	return n.run("notify-send", buildArgs(notification)...)
}

func buildArgs(notification Notification) []string {
	args := []string{}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}
	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "swimlane")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return args
}

// MoveFailed tells the user a drag could not be saved. Rejections are
// critical because retrying the same move will not help.
func (n *Notifier) MoveFailed(err *board.MoveError) {
	urgency := UrgencyNormal
	title := "Move not saved"
	if err.Kind == board.KindRejected {
		urgency = UrgencyCritical
		title = "Move rejected"
	}

	sendErr := n.Send(Notification{
		Title:   title,
		Body:    err.Error(),
		Urgency: urgency,
		Timeout: 8 * time.Second,
		Icon:    "dialog-warning-symbolic",
	})
	if sendErr != nil {
		n.log.WithError(sendErr).Debug("desktop notification failed")
	}
}
