package notify

import (
	"os/exec"
	"runtime"
	"strings"
)

// DesktopNotifier sends desktop notifications
type DesktopNotifier struct {
	enabled bool
	command func(name string, args ...string) *exec.Cmd
}

// NewDesktopNotifier creates a new desktop notifier
func NewDesktopNotifier(enabled bool) *DesktopNotifier {
	return &DesktopNotifier{enabled: enabled, command: exec.Command}
}

// Send sends a desktop notification
func (d *DesktopNotifier) Send(n Notification) error {
	if !d.enabled {
		return nil
	}

	cmd := d.buildCommand(runtime.GOOS, n)
	if cmd == nil {
		return nil // Unsupported
	}
	return cmd.Run()
}

func (d *DesktopNotifier) buildCommand(goos string, n Notification) *exec.Cmd {
	switch goos {
	case "darwin":
		script := `display notification "` + escapeAppleScript(n.Message) +
			`" with title "` + escapeAppleScript(n.Title) + `"`
		return d.command("osascript", "-e", script)
	case "linux":
		return d.command("notify-send", "--icon", IconForType(n.Type), n.Title, n.Message)
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// IconForType returns an icon name for the notification type
func IconForType(t NotificationType) string {
	switch t {
	case NotifySuccess:
		return "dialog-positive"
	case NotifyError:
		return "dialog-error"
	default:
		return "dialog-information"
	}
}
