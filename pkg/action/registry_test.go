package action

import (
	"context"
	"errors"
	"testing"

	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/signal"
)

// stepAction records the days it ran for and returns a fixed outcome.
type stepAction struct {
	config ActionConfig
	effect func(day int) Effect
	err    error
	ran    []int
}

func newStep(id string, required bool) *stepAction {
	return &stepAction{config: ActionConfig{ID: id, Type: "step", Enabled: true, Required: required}}
}

func (a *stepAction) ID() string           { return a.config.ID }
func (a *stepAction) Name() string         { return a.config.ID }
func (a *stepAction) Config() ActionConfig { return a.config }

func (a *stepAction) Execute(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) (Effect, error) {
	a.ran = append(a.ran, trigger.Day)
	if a.err != nil {
		return Effect{}, a.err
	}
	if a.effect != nil {
		return a.effect(trigger.Day), nil
	}
	return Effect{}, nil
}

func TestBuild(t *testing.T) {
	RegisterActionType("test_complete", func(cfg ActionConfig) (Action, error) {
		return &stepAction{config: cfg}, nil
	})
	RegisterActionType("test_broken", func(cfg ActionConfig) (Action, error) {
		return nil, ErrInvalidConfig
	})

	tests := []struct {
		name    string
		configs []ActionConfig
		wantLen int
		wantErr error
	}{
		{
			name: "enabled and disabled",
			configs: []ActionConfig{
				{ID: "complete-day", Type: "test_complete", Enabled: true, Required: true},
				{ID: "celebrate", Type: "test_complete", Enabled: false},
			},
			wantLen: 1,
		},
		{
			name:    "unknown type",
			configs: []ActionConfig{{ID: "complete-day", Type: "complete_jouney_day", Enabled: true}},
			wantErr: ErrUnknownActionType,
		},
		{
			name:    "disabled entry with unknown type is ignored",
			configs: []ActionConfig{{ID: "old", Type: "removed_type", Enabled: false}},
			wantLen: 0,
		},
		{
			name:    "factory error",
			configs: []ActionConfig{{ID: "celebrate", Type: "test_broken", Enabled: true}},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "duplicate id",
			configs: []ActionConfig{
				{ID: "complete-day", Type: "test_complete", Enabled: true},
				{ID: "complete-day", Type: "test_complete", Enabled: true},
			},
			wantErr: ErrDuplicateAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := Build(tt.configs)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if registry.Len() != tt.wantLen {
				t.Errorf("Expected %d actions, got %d", tt.wantLen, registry.Len())
			}
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	RegisterActionType("test_complete", func(cfg ActionConfig) (Action, error) {
		return &stepAction{config: cfg}, nil
	})
	registry, err := Build([]ActionConfig{
		{ID: "complete-day", Type: "test_complete", Enabled: true, Required: true},
		{ID: "celebrate-streak", Type: "test_complete", Enabled: false},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	a, err := registry.Lookup("complete-day")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !a.Config().Required {
		t.Error("Expected required flag to survive the build")
	}

	if _, err := registry.Lookup("celebrate-streak"); !errors.Is(err, ErrActionDisabled) {
		t.Errorf("Expected ErrActionDisabled, got %v", err)
	}
	if _, err := registry.Lookup("celebrate-strek"); !errors.Is(err, ErrActionNotFound) {
		t.Errorf("Expected ErrActionNotFound, got %v", err)
	}
	if registry.Get("celebrate-streak") != nil {
		t.Error("Expected Get to return nil for a disabled action")
	}
}

func TestRegistry_RegisterEnablesDisabledID(t *testing.T) {
	registry, err := Build([]ActionConfig{{ID: "clear-reminders", Type: "clear_day_reminders", Enabled: false}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := registry.Register(newStep("clear-reminders", false)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := registry.Lookup("clear-reminders"); err != nil {
		t.Errorf("Expected registered action to be found, got %v", err)
	}
	if err := registry.Register(newStep("clear-reminders", false)); !errors.Is(err, ErrDuplicateAction) {
		t.Errorf("Expected ErrDuplicateAction, got %v", err)
	}
}
