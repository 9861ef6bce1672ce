package probe

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"enginehost/internal/types"
)

// OpenFileHandlesLimit returns the maximum number of open file descriptors
// the process may hold, or -1 if the limit cannot be determined. An unlimited
// descriptor table is reported as math.MaxInt64. On Windows no lookup is
// attempted.
func OpenFileHandlesLimit() int64 {
	return openFileHandlesLimit(runtime.GOOS, fileLimitAccessor, slog.Default())
}

func openFileHandlesLimit(goos string, accessor func() (uint64, error), logger *slog.Logger) (limit int64) {
	if goos == "windows" {
		return -1
	}
	if accessor == nil {
		return -1
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Unexpected error when accessing file handle limit",
				"code", types.ErrCodeProbeFailed, "error", fmt.Sprint(r))
			limit = -1
		}
	}()

	n, err := accessor()
	if err != nil {
		logger.Warn("Unexpected error when accessing file handle limit",
			"code", types.ErrCodeProbeFailed, "error", err)
		return -1
	}
	if n > math.MaxInt64 {
		// RLIM_INFINITY
		return math.MaxInt64
	}
	return int64(n)
}
