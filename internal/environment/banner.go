package environment

import (
	"context"
	"log/slog"
	"strconv"

	"enginehost/internal/buildmeta"
	"enginehost/internal/config"
	"enginehost/internal/types"
)

// Delimiter frames the banner.
const Delimiter = "--------------------------------------------------------------------------------"

const (
	argIndent         = "    "
	sensitiveArgument = " (sensitive information)"
	notSet            = "(not set)"
	none              = "(none)"
)

// BannerLines renders the banner for the given program arguments. Arguments
// that look like credentials are replaced by a redaction placeholder.
func (s *Snapshot) BannerLines(args []string) []string {
	var lines []string
	if s.InheritedLogs != nil {
		lines = append(lines, Delimiter, " Preconfiguration: ", *s.InheritedLogs)
	}

	home := s.EngineHome
	if home == "" {
		home = notSet
	}

	lines = append(lines,
		Delimiter,
		" Starting "+s.Component+
			" (Version: "+s.Version+
			", Toolchain: "+s.ToolchainVersion+
			", Rev:"+s.Revision.CommitID+
			", Date:"+s.Revision.CommitDate+")",
		" OS current user: "+s.OSUser,
		" Current Hadoop/Kerberos user: "+s.HadoopUser,
		" Runtime: "+s.RuntimeVersion,
		" Maximum heap size: "+strconv.FormatInt(s.MaxHeapBytes>>20, 10)+" MiBytes",
		" ENGINE_HOME: "+home,
	)

	if s.HadoopVersion != "" {
		lines = append(lines, " Hadoop version: "+s.HadoopVersion)
	} else {
		lines = append(lines, " No Hadoop Dependency available")
	}

	if len(s.RuntimeOptions) == 0 {
		lines = append(lines, " Runtime Options: "+none)
	} else {
		lines = append(lines, " Runtime Options:")
		for _, opt := range s.RuntimeOptions {
			lines = append(lines, argIndent+opt)
		}
	}

	if len(args) == 0 {
		lines = append(lines, " Program Arguments: "+none)
	} else {
		lines = append(lines, " Program Arguments:")
		for _, arg := range args {
			if config.IsSensitive(arg, s.sensitiveKeys...) {
				lines = append(lines, argIndent+types.SecretString(arg).String()+sensitiveArgument)
			} else {
				lines = append(lines, argIndent+arg)
			}
		}
	}

	return append(lines,
		" Library path: "+s.LibraryPath,
		" Executable: "+s.Executable,
		Delimiter,
	)
}

// LogEnvironmentInfo logs the startup banner for component, one record per
// line, when logger has info enabled. component overrides the configured
// component name when non-empty.
//
// An error is returned only when the maximum heap size cannot be determined;
// callers should abort startup.
func LogEnvironmentInfo(ctx context.Context, logger *slog.Logger, cfg *config.Config, info *buildmeta.Info, component string, args []string) error {
	if !logger.Enabled(ctx, slog.LevelInfo) {
		return nil
	}

	snap, err := Collect(ctx, cfg, info)
	if err != nil {
		return err
	}
	if component != "" {
		snap.Component = component
	}

	log := logger.With("instance_id", snap.InstanceID)
	for _, line := range snap.BannerLines(args) {
		log.InfoContext(ctx, line)
	}
	return nil
}
