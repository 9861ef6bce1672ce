package buildmeta

import (
	"log/slog"
	"sync"
)

// Lazy resolves build metadata on first use and caches the outcome, error
// included, for the lifetime of the value. Concurrent first calls block until
// the single resolution finishes and then all observe the same result.
type Lazy struct {
	get func() (*Info, error)
}

// NewLazy wraps r so that it is resolved at most once.
func NewLazy(r *Resolver) *Lazy {
	return &Lazy{get: sync.OnceValues(r.Resolve)}
}

// Get returns the resolved metadata, resolving it if this is the first call.
func (l *Lazy) Get() (*Info, error) {
	return l.get()
}

// process is the lazily created process-wide instance backed by the embedded
// resource. It captures slog.Default() at first use.
var process = sync.OnceValue(func() *Lazy {
	return NewLazy(NewEmbeddedResolver(slog.Default()))
})

// Process returns the process-wide instance backed by the embedded resource.
func Process() *Lazy {
	return process()
}
