// Package capability is a tiny registry of optional providers.
//
// Code that wants to offer a capability (for example the Hadoop integration)
// calls Register from an init function; the binary only gains the capability
// when that package is linked in. Consumers call Probe, which never panics and
// never returns a bare error: the outcome is a Result that is either a value or
// a classified reason for its absence.
package capability

import (
	"errors"
	"fmt"
	"sync"
)

// Well-known capability names.
const (
	HadoopCurrentUser = "hadoop.security.current-user"
	HadoopVersion     = "hadoop.util.version"
)

var (
	// ErrNotFound means no provider is registered under the requested name.
	ErrNotFound = errors.New("capability: no provider registered")

	// ErrIncompatible means a provider is registered but does not have the
	// requested shape.
	ErrIncompatible = errors.New("capability: provider has incompatible type")
)

// Provider supplies a capability value on demand.
type Provider[T any] func() (T, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]any)
)

// Register installs p under name, replacing any previous provider.
func Register[T any](name string, p Provider[T]) {
	if p == nil {
		panic("capability: Register provider is nil for " + name)
	}
	mu.Lock()
	defer mu.Unlock()
	providers[name] = p
}

// Unregister removes the provider for name. It reports whether one existed.
func Unregister(name string) bool {
	mu.Lock()
	defer mu.Unlock()
	_, ok := providers[name]
	delete(providers, name)
	return ok
}

// Registered reports whether a provider exists for name.
func Registered(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := providers[name]
	return ok
}

// Result is the outcome of a Probe.
type Result[T any] struct {
	value T
	ok    bool
	err   error
}

// Get returns the value and whether the probe succeeded.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.ok
}

// Err returns why the probe did not succeed, or nil. Use errors.Is with
// ErrNotFound and ErrIncompatible to classify it.
func (r Result[T]) Err() error {
	return r.err
}

// Probe looks up name and invokes its provider. A panicking provider is
// recovered and reported through Result.Err.
func Probe[T any](name string) (res Result[T]) {
	mu.RLock()
	raw, found := providers[name]
	mu.RUnlock()

	if !found {
		return Result[T]{err: fmt.Errorf("%w: %s", ErrNotFound, name)}
	}
	p, ok := raw.(Provider[T])
	if !ok {
		var want T
		return Result[T]{err: fmt.Errorf("%w: %s is %T, want Provider[%T]", ErrIncompatible, name, raw, want)}
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{err: fmt.Errorf("capability %s panicked: %v", name, r)}
		}
	}()

	v, err := p()
	if err != nil {
		return Result[T]{err: fmt.Errorf("capability %s: %w", name, err)}
	}
	return Result[T]{value: v, ok: true}
}
