//go:build unix

package probe

import "golang.org/x/sys/unix"

// fileLimitAccessor reads the soft RLIMIT_NOFILE limit.
var fileLimitAccessor = func() (uint64, error) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, err
	}
	return uint64(rl.Cur), nil
}
