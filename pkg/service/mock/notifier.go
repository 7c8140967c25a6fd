package mock

import (
	"context"
	"sync"
)

// Notifier is a mock notification channel for testing
type Notifier struct {
	mu sync.Mutex

	// ShowFunc is called when Show is invoked
	ShowFunc func(ctx context.Context, userID, title, body string) error

	// DefaultError is returned when ShowFunc is nil
	DefaultError error

	// Call tracking
	ShowCalls []ShowCall
}

// ShowCall tracks parameters for Show calls
type ShowCall struct {
	UserID string
	Title  string
	Body   string
}

// NewNotifier creates a new mock Notifier that accepts every notification
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Show records the call and delegates to ShowFunc if set
func (n *Notifier) Show(ctx context.Context, userID, title, body string) error {
	n.mu.Lock()
	n.ShowCalls = append(n.ShowCalls, ShowCall{UserID: userID, Title: title, Body: body})
	n.mu.Unlock()

	if n.ShowFunc != nil {
		return n.ShowFunc(ctx, userID, title, body)
	}
	return n.DefaultError
}

// Calls returns a snapshot of recorded calls
func (n *Notifier) Calls() []ShowCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ShowCall(nil), n.ShowCalls...)
}
