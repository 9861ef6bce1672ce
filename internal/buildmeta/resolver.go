package buildmeta

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/magiconair/properties"

	"enginehost/internal/types"
)

//go:generate go run ../../cmd/ops/genversion -o generated/.enginehost.version.properties

//go:embed all:generated
var embedded embed.FS

// embeddedName is the resource path inside the embedded FS.
var embeddedName = path.Join("generated", PropertiesFile)

// failMessage is logged and returned when the resource exists but is corrupt.
var failMessage = fmt.Sprintf(
	"The file %s has not been generated correctly. You MUST run 'go generate ./internal/buildmeta'.",
	PropertiesFile,
)

// Resolver reads build metadata from a properties resource.
type Resolver struct {
	fsys   fs.FS
	name   string
	logger *slog.Logger
}

// NewResolver creates a Resolver reading name from fsys.
func NewResolver(fsys fs.FS, name string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		fsys:   fsys,
		name:   name,
		logger: logger,
	}
}

// NewEmbeddedResolver creates a Resolver reading the resource compiled into
// the binary.
func NewEmbeddedResolver(logger *slog.Logger) *Resolver {
	return NewResolver(embedded, embeddedName, logger)
}

// NewFileResolver creates a Resolver reading the resource from a file on disk
// instead of the embedded copy.
func NewFileResolver(file string, logger *slog.Logger) *Resolver {
	return NewResolver(os.DirFS(filepath.Dir(file)), filepath.Base(file), logger)
}

// Resolve reads and parses the resource.
//
// A missing or unreadable resource yields Defaults() and no error. A resource
// whose commit or build time cannot be parsed yields a fatal
// types.ErrCodeBuildMetadataCorrupt error and no Info.
func (r *Resolver) Resolve() (*Info, error) {
	raw, err := fs.ReadFile(r.fsys, r.name)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		r.logger.Info("Cannot determine code revision: Unable to read version property file.",
			"file", r.name,
			"code", types.ErrCodeResourceUnreadable,
			"error", err,
		)
		return Defaults(), nil
	}

	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadBytes(raw)
	if err != nil {
		r.logger.Info("Cannot determine code revision: Unable to read version property file.",
			"file", r.name,
			"code", types.ErrCodeResourceUnreadable,
			"error", err,
		)
		return Defaults(), nil
	}

	info := &Info{
		projectVersion:   property(props, KeyProjectVersion, Unknown),
		toolchainVersion: property(props, KeyToolchainVersion, Unknown),
		commitID:         property(props, KeyCommitID, UnknownCommitID),
		commitIDAbbrev:   property(props, KeyCommitIDAbbrev, UnknownCommitIDAbbrev),
	}

	commitTime, err := parseTimestamp(property(props, KeyCommitTime, DefaultTimeString))
	if err != nil {
		return nil, r.corrupt(KeyCommitTime, err)
	}
	buildTime, err := parseTimestamp(property(props, KeyBuildTime, DefaultTimeString))
	if err != nil {
		return nil, r.corrupt(KeyBuildTime, err)
	}

	info.commitTime = commitTime
	info.commitTimeStr = formatDisplay(commitTime)
	info.buildTime = buildTime
	info.buildTimeStr = formatDisplay(buildTime)
	return info, nil
}

// corrupt logs a malformed timestamp and builds the fatal error for it.
func (r *Resolver) corrupt(key string, cause error) error {
	r.logger.Error(failMessage, "key", key, "error", cause)
	return types.NewAppError(types.ErrCodeBuildMetadataCorrupt, failMessage, cause).
		WithDetails(map[string]any{"key": key, "file": r.name})
}

// property returns the value for key, or def when the key is missing, empty,
// or still holds an unexpanded build placeholder.
func property(props *properties.Properties, key, def string) string {
	value, ok := props.Get(key)
	if !ok || value == "" || value[0] == placeholderMarker {
		return def
	}
	return value
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	// time.Parse accepts fractional seconds the layout does not name.
	if t.Format(TimestampLayout) != value {
		return time.Time{}, &time.ParseError{
			Layout:  TimestampLayout,
			Value:   value,
			Message: ": extra text in timestamp",
		}
	}
	return t.UTC(), nil
}
