package probe

import (
	"errors"
	"log/slog"

	"enginehost/internal/capability"
	"enginehost/internal/types"
)

// NoHadoopDependency is reported as the Hadoop user when no Hadoop provider
// is linked into the binary or no Hadoop installation was found.
const NoHadoopDependency = "<no hadoop dependency found>"

// HadoopUser returns the short user name of the current Hadoop security
// principal.
func HadoopUser() string {
	return hadoopUser(slog.Default())
}

func hadoopUser(logger *slog.Logger) string {
	res := capability.Probe[string](capability.HadoopCurrentUser)
	if name, ok := res.Get(); ok {
		return name
	}

	err := res.Err()
	switch {
	case errors.Is(err, capability.ErrNotFound):
		return NoHadoopDependency
	case errors.Is(err, capability.ErrIncompatible):
		logger.Debug("Cannot determine user/group information using Hadoop utils. "+
			"Hadoop provider not loaded or compatible",
			"code", types.ErrCodeCapabilityUnavailable, "error", err)
	default:
		logger.Warn("Error while accessing user/group information via Hadoop utils.",
			"code", types.ErrCodeCapabilityUnavailable, "error", err)
	}
	return Unknown
}

// HadoopVersion returns the version of the Hadoop installation, if a Hadoop
// provider is linked in and finds one.
func HadoopVersion() (string, bool) {
	return hadoopVersion(slog.Default())
}

func hadoopVersion(logger *slog.Logger) (string, bool) {
	res := capability.Probe[string](capability.HadoopVersion)
	if v, ok := res.Get(); ok {
		return v, true
	}

	err := res.Err()
	if !errors.Is(err, capability.ErrNotFound) && !errors.Is(err, capability.ErrIncompatible) {
		logger.Error("Cannot obtain the Hadoop version.", "error", err)
	}
	return "", false
}
