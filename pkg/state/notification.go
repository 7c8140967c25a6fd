package state

import "time"

// NotificationPermission is a user's decision about OS-level notifications.
type NotificationPermission string

const (
	PermissionDefault     NotificationPermission = "default"
	PermissionGranted     NotificationPermission = "granted"
	PermissionDenied      NotificationPermission = "denied"
	PermissionUnsupported NotificationPermission = "unsupported"
)

// Toast is an in-app notification kept for the client to display.
type Toast struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
