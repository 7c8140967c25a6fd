package signal

import (
	"sync"

	"github.com/recoverykit/journey-engine/pkg/state"
)

// SignalMapper maps activities of one type to a more specific domain signal.
// This allows extending the signal processor with custom activity-to-signal mappings.
type SignalMapper interface {
	// ActivityType returns the activity type this mapper handles (e.g., "journey").
	ActivityType() state.ActivityType

	// MapToSignal converts a generic activity signal into a domain signal.
	// Returning the input unchanged is allowed.
	MapToSignal(sig *ActivitySignal) Signal
}

// MapperRegistry manages registered signal mappers.
// It provides thread-safe registration and lookup of mappers.
type MapperRegistry struct {
	mappers map[state.ActivityType]SignalMapper
	mu      sync.RWMutex
}

// NewMapperRegistry creates a new empty mapper registry.
func NewMapperRegistry() *MapperRegistry {
	return &MapperRegistry{
		mappers: make(map[state.ActivityType]SignalMapper),
	}
}

// Register adds a mapper to the registry.
// If a mapper for the same activity type already exists, it will be replaced.
func (r *MapperRegistry) Register(mapper SignalMapper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappers[mapper.ActivityType()] = mapper
}

// Get returns a mapper for the given activity type.
// Returns nil if no mapper is registered for that type.
func (r *MapperRegistry) Get(activityType state.ActivityType) SignalMapper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mappers[activityType]
}

// Count returns the number of registered mappers.
func (r *MapperRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mappers)
}
