package notify

// NotificationType selects the icon a notification is shown with
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyError
)

// Notification is the message shown when a separation finishes
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	RunID   string // Correlates with the run's log lines
}

// Notifier delivers a Notification. Send may block; callers run it off the UI path.
type Notifier interface {
	Send(n Notification) error
}

// NoopNotifier drops every notification. Headless runs use it unless --notify is set.
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }
