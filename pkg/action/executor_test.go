package action

import (
	"context"
	"errors"
	"testing"

	"github.com/recoverykit/journey-engine/pkg/rule"
)

func dayTrigger(ruleID string, day int) *rule.Trigger {
	return &rule.Trigger{RuleID: ruleID, UserID: "user-1", Day: day, Metadata: map[string]interface{}{}}
}

func newExecutor(t *testing.T, actions ...Action) *Executor {
	t.Helper()
	registry := NewRegistry()
	for _, a := range actions {
		if err := registry.Register(a); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	return NewExecutor(registry)
}

func statuses(results []*ActionResult) []Status {
	out := make([]Status, len(results))
	for i, r := range results {
		out[i] = r.Status
	}
	return out
}

func equalStatuses(a, b []Status) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestExecutor_Run_CompletesDayThenClearsReminders(t *testing.T) {
	complete := newStep("complete-day", true)
	complete.effect = func(day int) Effect { return Effect{CompletedDay: day} }
	clear := newStep("clear-reminders", false)
	clear.effect = func(day int) Effect { return Effect{ClearedDay: day} }

	executor := newExecutor(t, complete, clear)
	results := executor.Run(context.Background(),
		[]*rule.Trigger{dayTrigger("day-completed", 3)},
		Plan{"day-completed": {"complete-day", "clear-reminders"}},
		nil)

	if want := []Status{StatusSucceeded, StatusSucceeded}; !equalStatuses(statuses(results), want) {
		t.Fatalf("Expected %v, got %v", want, statuses(results))
	}
	if results[0].Effect.CompletedDay != 3 || results[1].Effect.ClearedDay != 3 {
		t.Errorf("Unexpected effects: %+v, %+v", results[0].Effect, results[1].Effect)
	}
	if results[0].Day != 3 || results[0].RuleID != "day-completed" {
		t.Errorf("Expected result stamped with rule and day, got %+v", results[0])
	}
}

func TestExecutor_Run_RequiredFailureKeepsReminders(t *testing.T) {
	storeDown := errors.New("state store unavailable")

	tests := []struct {
		name      string
		required  bool
		want      []Status
		clearRuns int
	}{
		{
			name:      "required completion fails",
			required:  true,
			want:      []Status{StatusFailed, StatusSkipped, StatusSkipped},
			clearRuns: 0,
		},
		{
			name:      "optional completion fails",
			required:  false,
			want:      []Status{StatusFailed, StatusSucceeded, StatusSucceeded},
			clearRuns: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			complete := newStep("complete-day", tt.required)
			complete.err = storeDown
			clear := newStep("clear-reminders", false)
			notify := newStep("notify-day-done", false)

			executor := newExecutor(t, complete, clear, notify)
			results := executor.Run(context.Background(),
				[]*rule.Trigger{dayTrigger("day-completed", 2)},
				Plan{"day-completed": {"complete-day", "clear-reminders", "notify-day-done"}},
				nil)

			if !equalStatuses(statuses(results), tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, statuses(results))
			}
			if !errors.Is(results[0].Err, storeDown) {
				t.Errorf("Expected failure to carry the store error, got %v", results[0].Err)
			}
			if len(clear.ran) != tt.clearRuns {
				t.Errorf("Expected clear-reminders to run %d times, ran %v", tt.clearRuns, clear.ran)
			}
			if tt.required && results[1].Reason == "" {
				t.Error("Expected a reason on skipped results")
			}
		})
	}
}

func TestExecutor_Run_RequiredGatesOnlyItsTrigger(t *testing.T) {
	complete := newStep("complete-day", true)
	complete.err = errors.New("boom")
	notify := newStep("notify-streak", false)

	executor := newExecutor(t, complete, notify)
	results := executor.Run(context.Background(),
		[]*rule.Trigger{dayTrigger("day-completed", 4), dayTrigger("streak-milestone", 4)},
		Plan{
			"day-completed":    {"complete-day"},
			"streak-milestone": {"notify-streak"},
		},
		nil)

	if want := []Status{StatusFailed, StatusSucceeded}; !equalStatuses(statuses(results), want) {
		t.Fatalf("Expected %v, got %v", want, statuses(results))
	}
}

func TestExecutor_Run_SharedActionRunsOncePerDay(t *testing.T) {
	clear := newStep("clear-reminders", false)
	executor := newExecutor(t, clear)
	plan := Plan{
		"day-completed": {"clear-reminders"},
		"daily-goal":    {"clear-reminders"},
	}

	results := executor.Run(context.Background(),
		[]*rule.Trigger{dayTrigger("day-completed", 5), dayTrigger("daily-goal", 5), dayTrigger("daily-goal", 6)},
		plan, nil)

	if want := []Status{StatusSucceeded, StatusSkipped, StatusSucceeded}; !equalStatuses(statuses(results), want) {
		t.Fatalf("Expected %v, got %v", want, statuses(results))
	}
	if len(clear.ran) != 2 || clear.ran[0] != 5 || clear.ran[1] != 6 {
		t.Errorf("Expected clear-reminders for days 5 and 6, ran %v", clear.ran)
	}
	if results[1].Reason != "already ran for day 5" {
		t.Errorf("Unexpected skip reason %q", results[1].Reason)
	}
}

func TestExecutor_Run_FailedActionCanRetryForNextTrigger(t *testing.T) {
	notify := newStep("notify", false)
	notify.err = errors.New("gateway down")
	executor := newExecutor(t, notify)

	results := executor.Run(context.Background(),
		[]*rule.Trigger{dayTrigger("a", 1), dayTrigger("b", 1)},
		Plan{"a": {"notify"}, "b": {"notify"}},
		nil)

	if want := []Status{StatusFailed, StatusFailed}; !equalStatuses(statuses(results), want) {
		t.Fatalf("Expected %v, got %v", want, statuses(results))
	}
}

func TestExecutor_Run_DisabledAndUnknownActions(t *testing.T) {
	RegisterActionType("test_step", func(cfg ActionConfig) (Action, error) {
		return &stepAction{config: cfg}, nil
	})
	registry, err := Build([]ActionConfig{
		{ID: "complete-day", Type: "test_step", Enabled: true},
		{ID: "celebrate", Type: "test_step", Enabled: false},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	results := NewExecutor(registry).Run(context.Background(),
		[]*rule.Trigger{dayTrigger("day-completed", 1)},
		Plan{"day-completed": {"celebrate", "missing", "complete-day"}},
		nil)

	// An unknown action is treated as required: the rule is misconfigured
	if want := []Status{StatusSkipped, StatusFailed, StatusSkipped}; !equalStatuses(statuses(results), want) {
		t.Fatalf("Expected %v, got %v", want, statuses(results))
	}
	if !errors.Is(results[1].Err, ErrActionNotFound) {
		t.Errorf("Expected ErrActionNotFound, got %v", results[1].Err)
	}
}

func TestExecutor_Run_TriggerWithoutPlan(t *testing.T) {
	executor := newExecutor(t, newStep("complete-day", true))
	results := executor.Run(context.Background(),
		[]*rule.Trigger{dayTrigger("unwired", 1)}, Plan{}, nil)
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestExecutor_Run_CancelledContext(t *testing.T) {
	complete := newStep("complete-day", true)
	executor := newExecutor(t, complete)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := executor.Run(ctx,
		[]*rule.Trigger{dayTrigger("day-completed", 1)},
		Plan{"day-completed": {"complete-day"}},
		nil)

	if len(results) != 1 || results[0].Status != StatusSkipped {
		t.Fatalf("Expected one skipped result, got %+v", results)
	}
	if len(complete.ran) != 0 {
		t.Error("Expected no action to run after cancellation")
	}
}
