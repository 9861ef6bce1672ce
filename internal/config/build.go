package config

import (
	"log/slog"

	"enginehost/internal/buildmeta"
)

// BuildMetadata returns the build metadata source selected by the
// configuration: the file named by ENGINE_VERSION_PROPERTIES when set,
// otherwise the process-wide embedded resource. Either way the metadata is
// resolved at most once per returned value.
func (c *Config) BuildMetadata(logger *slog.Logger) *buildmeta.Lazy {
	if c.Engine.VersionProperties == "" {
		return buildmeta.Process()
	}
	return buildmeta.NewLazy(buildmeta.NewFileResolver(c.Engine.VersionProperties, logger))
}
