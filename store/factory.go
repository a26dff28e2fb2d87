package store

import (
	"sync"

	"github.com/forensix/aff4/errors"
)

// Constructor builds an uninitialized object bound to a resolver.
// FactoryOpen assigns the URN and calls LoadFromURN afterwards.
type Constructor func(resolver DataStore) Object

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// RegisterType registers a constructor under a canonical type name (the
// value of the aff4:type attribute), the way database/sql drivers
// register themselves: object packages call this from init(), and
// importing the package makes the type resolvable.
func RegisterType(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(errors.AssertionFailedf("type %q registered twice", name))
	}
	registry[name] = ctor
}

// RegisterScheme registers a constructor as the fallback handler for a
// URN scheme, used when a URN carries no aff4:type triple. Schemes and
// type names share one namespace.
func RegisterScheme(scheme string, ctor Constructor) {
	RegisterType(scheme, ctor)
}

// CreateInstance constructs a new object for a type name or URN scheme.
// Returns ErrUnregisteredType if no constructor is known for the name.
func CreateInstance(name string, resolver DataStore) (Object, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnregisteredType, "no handler for %q", name)
	}
	return ctor(resolver), nil
}

// RegisteredTypes lists the known type names, for diagnostics.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
