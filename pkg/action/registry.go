package action

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Factory builds an action from its configuration.
type Factory func(config ActionConfig) (Action, error)

var (
	typesMu sync.RWMutex
	types   = make(map[string]Factory)
)

// RegisterActionType makes actionType available to Build. Registering a type
// again replaces its factory, so each engine binds its own collaborators.
func RegisterActionType(actionType string, factory Factory) {
	typesMu.Lock()
	defer typesMu.Unlock()
	types[actionType] = factory
	logrus.Debugf("registered action type: %s", actionType)
}

func factoryFor(actionType string) (Factory, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	f, ok := types[actionType]
	return f, ok
}

// Registry holds the built actions of one pipeline. Disabled entries are
// remembered so a rule that still lists one can be told apart from a typo.
type Registry struct {
	mu       sync.RWMutex
	actions  map[string]Action
	disabled map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		actions:  make(map[string]Action),
		disabled: make(map[string]bool),
	}
}

// Build creates every enabled action in configs. An unknown type or a
// failing factory fails the whole build.
func Build(configs []ActionConfig) (*Registry, error) {
	registry := NewRegistry()
	for _, cfg := range configs {
		if !cfg.Enabled {
			logrus.Infof("skipping disabled action: %s", cfg.ID)
			registry.disabled[cfg.ID] = true
			continue
		}

		factory, ok := factoryFor(cfg.Type)
		if !ok {
			return nil, fmt.Errorf("action %s: %w: %s", cfg.ID, ErrUnknownActionType, cfg.Type)
		}
		a, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create action %s: %w", cfg.ID, err)
		}
		if err := registry.Register(a); err != nil {
			return nil, err
		}
		logrus.Infof("created action: id=%s, type=%s, required=%v", cfg.ID, cfg.Type, cfg.Required)
	}
	return registry, nil
}

func (r *Registry) Register(a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[a.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, a.ID())
	}
	r.actions[a.ID()] = a
	delete(r.disabled, a.ID())
	return nil
}

// Lookup returns the action with the given ID, ErrActionDisabled when the
// pipeline turned it off, or ErrActionNotFound.
func (r *Registry) Lookup(actionID string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.actions[actionID]; ok {
		return a, nil
	}
	if r.disabled[actionID] {
		return nil, fmt.Errorf("%w: %s", ErrActionDisabled, actionID)
	}
	return nil, fmt.Errorf("%w: %s", ErrActionNotFound, actionID)
}

// Get returns the action with the given ID, or nil.
func (r *Registry) Get(actionID string) Action {
	a, _ := r.Lookup(actionID)
	return a
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}
