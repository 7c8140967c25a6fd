package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/recoverykit/journey-engine/pkg/service"
	"github.com/recoverykit/journey-engine/pkg/state"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnsupported is returned when no push gateway is configured.
	ErrUnsupported = errors.New("os notifications unsupported")
	// ErrInvalidPermission is returned for permission values a user cannot choose.
	ErrInvalidPermission = errors.New("invalid notification permission")
)

// WebhookPayload is the body posted to the push gateway.
type WebhookPayload struct {
	UserID string    `json:"userId"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sentAt"`
}

// Webhook is the OS-level channel. It posts JSON to a push gateway for users
// who granted permission.
type Webhook struct {
	url         string
	client      *http.Client
	permissions service.PermissionStore
}

// NewWebhook creates the channel. An empty url makes the channel unsupported.
func NewWebhook(url string, timeout time.Duration, permissions service.PermissionStore) *Webhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Webhook{
		url:         url,
		client:      &http.Client{Timeout: timeout},
		permissions: permissions,
	}
}

// Supported reports whether a push gateway is configured.
func (w *Webhook) Supported() bool {
	return w.url != ""
}

// Show posts the notification if the user granted permission. Users without
// permission are skipped silently.
func (w *Webhook) Show(ctx context.Context, userID, title, body string) error {
	if !w.Supported() {
		return nil
	}

	permission, err := w.permissions.GetPermission(ctx, userID)
	if err != nil {
		return err
	}
	if permission != state.PermissionGranted {
		logrus.WithField("userId", userID).Debugf("skipping os notification: permission %s", permission)
		return nil
	}

	data, err := json.Marshal(WebhookPayload{
		UserID: userID,
		Title:  title,
		Body:   body,
		SentAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(msg))
}

// RequestPermission resolves the user's permission for OS notifications.
// Without a gateway the answer is unsupported. A prior denial stands;
// otherwise the request is granted and recorded.
func (w *Webhook) RequestPermission(ctx context.Context, userID string) (state.NotificationPermission, error) {
	if !w.Supported() {
		return state.PermissionUnsupported, nil
	}

	current, err := w.permissions.GetPermission(ctx, userID)
	if err != nil {
		return state.PermissionDefault, err
	}
	if current == state.PermissionDenied || current == state.PermissionGranted {
		return current, nil
	}

	if err := w.permissions.SetPermission(ctx, userID, state.PermissionGranted); err != nil {
		return state.PermissionDefault, err
	}
	logrus.WithField("userId", userID).Info("os notification permission granted")
	return state.PermissionGranted, nil
}

// SetPermission records an explicit user decision.
func (w *Webhook) SetPermission(ctx context.Context, userID string, permission state.NotificationPermission) error {
	switch permission {
	case state.PermissionGranted, state.PermissionDenied, state.PermissionDefault:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPermission, permission)
	}
	if !w.Supported() {
		return ErrUnsupported
	}
	return w.permissions.SetPermission(ctx, userID, permission)
}
