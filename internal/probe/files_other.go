//go:build !unix

package probe

// fileLimitAccessor is unavailable on this platform.
var fileLimitAccessor func() (uint64, error)
