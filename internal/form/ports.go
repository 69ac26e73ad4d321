// Package form adapts the trigger editor and the SSO settings to an
// interactive form: field error visibility, readonly mode, clipboard copies
// and the toasts that confirm them.
package form

import "time"

// Clipboard writes text to the user's clipboard.
type Clipboard interface {
	WriteText(text string) error
}

// Icon names an icon shown next to a notification.
type Icon string

const IconCopy Icon = "IconCopy"

// Notification is a toast. A zero Duration means the notifier's default.
type Notification struct {
	Message  string
	Icon     Icon
	Duration time.Duration
}

// Notifier shows toasts.
type Notifier interface {
	Success(n Notification)
}
