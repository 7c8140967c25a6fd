package signal

import (
	"testing"
	"time"

	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/state"
)

func TestBaseSignal(t *testing.T) {
	timestamp := time.Now()
	metadata := map[string]interface{}{
		"test_key": "test_value",
	}
	userCtx := &UserContext{UserID: "user123"}

	signal := NewBaseSignal("test_type", "user123", timestamp, metadata, userCtx)

	if signal.Type() != "test_type" {
		t.Errorf("Expected type 'test_type', got '%s'", signal.Type())
	}
	if signal.UserID() != "user123" {
		t.Errorf("Expected userID 'user123', got '%s'", signal.UserID())
	}
	if !signal.Timestamp().Equal(timestamp) {
		t.Errorf("Expected timestamp %v, got %v", timestamp, signal.Timestamp())
	}
	if signal.Metadata()["test_key"] != "test_value" {
		t.Errorf("Expected metadata test_key='test_value', got '%v'", signal.Metadata()["test_key"])
	}
	if signal.Context() != userCtx {
		t.Errorf("Expected context to match")
	}
}

func TestBaseSignal_NilMetadata(t *testing.T) {
	signal := NewBaseSignal("test_type", "user123", time.Now(), nil, nil)
	if signal.Metadata() == nil {
		t.Fatal("Expected empty metadata map, got nil")
	}
}

func TestActivitySignal(t *testing.T) {
	in := engagement.ActivityInput{Action: "breathing", Type: state.ActivityJourney, DayNumber: 4}
	outcome := &engagement.ActivityOutcome{
		Stats:  state.DailyStats{RecoveryStrength: 40},
		Streak: state.StreakData{CurrentStreak: 3},
	}

	sig := NewActivitySignal("user123", time.Now(), in, outcome, nil)

	if sig.Type() != TypeActivity {
		t.Errorf("Expected type '%s', got '%s'", TypeActivity, sig.Type())
	}
	if sig.Metadata()["day_number"] != 4 {
		t.Errorf("Expected day_number=4, got %v", sig.Metadata()["day_number"])
	}
	if sig.Metadata()["streak"] != 3 || sig.Metadata()["strength"] != 40 {
		t.Errorf("Unexpected metadata: %v", sig.Metadata())
	}
	if AsActivity(sig) != sig {
		t.Error("Expected AsActivity to return the signal itself")
	}
}

func TestActivitySignal_WithType(t *testing.T) {
	sig := NewActivitySignal("user123", time.Now(), engagement.ActivityInput{Action: "a", Type: state.ActivityTool}, nil, nil)

	renamed := sig.WithType("custom")
	renamed.Metadata()["extra"] = true

	if renamed.Type() != "custom" {
		t.Errorf("Expected type 'custom', got '%s'", renamed.Type())
	}
	if sig.Type() != TypeActivity {
		t.Error("WithType must not modify the original signal")
	}
	if _, ok := sig.Metadata()["extra"]; ok {
		t.Error("WithType must copy metadata")
	}
}

func TestAsActivity_OtherSignal(t *testing.T) {
	base := NewBaseSignal("other", "user123", time.Now(), nil, nil)
	if AsActivity(&base) != nil {
		t.Error("Expected nil for a signal not built from an activity")
	}
}
