package rule

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownRuleType = errors.New("unknown rule type")
	ErrDuplicateRule   = errors.New("rule already registered")
)

// Factory builds a rule from its configuration.
type Factory func(config RuleConfig) (Rule, error)

var (
	typesMu sync.RWMutex
	types   = make(map[string]Factory)
)

// RegisterRuleType makes ruleType available to Build. Registering a type
// again replaces its factory, which lets tests rebind dependencies.
func RegisterRuleType(ruleType string, factory Factory) {
	typesMu.Lock()
	defer typesMu.Unlock()
	types[ruleType] = factory
	logrus.Debugf("registered rule type: %s", ruleType)
}

func factoryFor(ruleType string) (Factory, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	f, ok := types[ruleType]
	return f, ok
}

// Registry holds the rules of one pipeline. Rules are indexed by the signal
// type they listen to and kept in evaluation order: higher priority first,
// then by ID so equal priorities evaluate the same way on every run.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]Rule
	bySignal map[string][]Rule
	anySig   []Rule
}

func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[string]Rule),
		bySignal: make(map[string][]Rule),
	}
}

// Build creates and registers every enabled rule in configs. An unknown type
// or a failing factory fails the whole build.
func Build(configs []RuleConfig) (*Registry, error) {
	registry := NewRegistry()
	for _, cfg := range configs {
		if !cfg.Enabled {
			logrus.Infof("skipping disabled rule: %s", cfg.ID)
			continue
		}

		factory, ok := factoryFor(cfg.Type)
		if !ok {
			return nil, fmt.Errorf("rule %s: %w: %s", cfg.ID, ErrUnknownRuleType, cfg.Type)
		}
		r, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create rule %s: %w", cfg.ID, err)
		}
		if err := registry.Register(r); err != nil {
			return nil, err
		}
		logrus.Infof("created rule: id=%s, type=%s, priority=%d", cfg.ID, cfg.Type, cfg.Priority)
	}
	return registry, nil
}

// Register adds r in evaluation order.
func (r *Registry) Register(rl Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rl.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rl.ID())
	}
	r.byID[rl.ID()] = rl

	signalTypes := rl.SignalTypes()
	if len(signalTypes) == 0 {
		r.anySig = insertOrdered(r.anySig, rl)
		return nil
	}
	for _, st := range signalTypes {
		r.bySignal[st] = insertOrdered(r.bySignal[st], rl)
	}
	return nil
}

// Get returns the rule with the given ID, or nil.
func (r *Registry) Get(ruleID string) Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[ruleID]
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// For returns the rules a signal of signalType is evaluated against, in
// evaluation order. The slice is a copy.
func (r *Registry) For(signalType string) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typed := r.bySignal[signalType]
	out := make([]Rule, 0, len(typed)+len(r.anySig))
	out = append(out, typed...)
	out = append(out, r.anySig...)
	sort.SliceStable(out, func(i, j int) bool {
		return before(out[i], out[j])
	})
	return out
}

func before(a, b Rule) bool {
	pa, pb := a.Config().Priority, b.Config().Priority
	if pa != pb {
		return pa > pb
	}
	return a.ID() < b.ID()
}

func insertOrdered(rules []Rule, rl Rule) []Rule {
	i := sort.Search(len(rules), func(i int) bool {
		return before(rl, rules[i])
	})
	rules = append(rules, nil)
	copy(rules[i+1:], rules[i:])
	rules[i] = rl
	return rules
}
