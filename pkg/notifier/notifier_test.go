package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/service"
	"github.com/recoverykit/journey-engine/pkg/service/mock"
	"github.com/recoverykit/journey-engine/pkg/state"
)

func TestInApp_Show(t *testing.T) {
	store := service.NewMemoryToastStore()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	inApp := NewInApp(store, clock.NewFixed(now))
	ctx := context.Background()

	if err := inApp.Show(ctx, "user-1", "Hello", "World"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	toasts, err := inApp.Recent(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(toasts) != 1 {
		t.Fatalf("len(Recent()) = %d, expected 1", len(toasts))
	}
	if toasts[0].Title != "Hello" || toasts[0].Body != "World" || !toasts[0].CreatedAt.Equal(now) || toasts[0].ID == "" {
		t.Errorf("toast = %+v", toasts[0])
	}
}

func TestDispatcher_ChannelsIndependent(t *testing.T) {
	failing := mock.NewNotifier()
	failing.DefaultError = errors.New("boom")
	ok := mock.NewNotifier()

	d := NewDispatcher(WithChannel("first", failing), WithChannel("second", ok))
	if err := d.Show(context.Background(), "user-1", "t", "b"); err != nil {
		t.Fatalf("Show() error = %v, expected failures to be swallowed", err)
	}

	if len(failing.Calls()) != 1 {
		t.Errorf("failing channel calls = %d, expected 1", len(failing.Calls()))
	}
	calls := ok.Calls()
	if len(calls) != 1 || calls[0].UserID != "user-1" || calls[0].Title != "t" {
		t.Errorf("second channel calls = %+v", calls)
	}
}

func TestDispatcher_NilChannelIgnored(t *testing.T) {
	d := NewDispatcher(WithChannel("none", nil))
	if len(d.channels) != 0 {
		t.Errorf("nil channel should not be registered")
	}
}

func TestWebhook_Show(t *testing.T) {
	var hits int32
	var got WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %s", r.Header.Get("Content-Type"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	permissions := service.NewMemoryPermissionStore()
	hook := NewWebhook(srv.URL, time.Second, permissions)
	ctx := context.Background()

	// no permission yet: skipped
	if err := hook.Show(ctx, "user-1", "title", "body"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatal("gateway must not be called without permission")
	}

	permissions.SetPermission(ctx, "user-1", state.PermissionGranted)
	if err := hook.Show(ctx, "user-1", "title", "body"); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("gateway hits = %d, expected 1", hits)
	}
	if got.UserID != "user-1" || got.Title != "title" || got.Body != "body" {
		t.Errorf("payload = %+v", got)
	}
}

func TestWebhook_ShowGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	permissions := service.NewMemoryPermissionStore()
	permissions.SetPermission(context.Background(), "user-1", state.PermissionGranted)
	hook := NewWebhook(srv.URL, time.Second, permissions)

	if err := hook.Show(context.Background(), "user-1", "t", "b"); err == nil {
		t.Error("Show() expected error for non-2xx response")
	}
}

func TestWebhook_RequestPermission(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported without gateway", func(t *testing.T) {
		hook := NewWebhook("", 0, service.NewMemoryPermissionStore())
		p, err := hook.RequestPermission(ctx, "user-1")
		if err != nil || p != state.PermissionUnsupported {
			t.Errorf("RequestPermission() = %s, %v, expected unsupported", p, err)
		}
		if err := hook.SetPermission(ctx, "user-1", state.PermissionGranted); !errors.Is(err, ErrUnsupported) {
			t.Errorf("SetPermission() error = %v, expected ErrUnsupported", err)
		}
	})

	t.Run("grants on first request", func(t *testing.T) {
		store := service.NewMemoryPermissionStore()
		hook := NewWebhook("http://gateway.invalid", 0, store)
		p, err := hook.RequestPermission(ctx, "user-1")
		if err != nil || p != state.PermissionGranted {
			t.Errorf("RequestPermission() = %s, %v, expected granted", p, err)
		}
		stored, _ := store.GetPermission(ctx, "user-1")
		if stored != state.PermissionGranted {
			t.Errorf("stored permission = %s, expected granted", stored)
		}
	})

	t.Run("prior denial stands", func(t *testing.T) {
		store := service.NewMemoryPermissionStore()
		hook := NewWebhook("http://gateway.invalid", 0, store)
		if err := hook.SetPermission(ctx, "user-1", state.PermissionDenied); err != nil {
			t.Fatalf("SetPermission() error = %v", err)
		}
		p, _ := hook.RequestPermission(ctx, "user-1")
		if p != state.PermissionDenied {
			t.Errorf("RequestPermission() = %s, expected denied", p)
		}
	})

	t.Run("rejects unsupported value", func(t *testing.T) {
		hook := NewWebhook("http://gateway.invalid", 0, service.NewMemoryPermissionStore())
		if err := hook.SetPermission(ctx, "user-1", state.PermissionUnsupported); !errors.Is(err, ErrInvalidPermission) {
			t.Errorf("SetPermission() error = %v, expected ErrInvalidPermission", err)
		}
	})
}
