// Package buildmeta exposes the build provenance of the running binary:
// project version, toolchain version, source-control revision and the commit
// and build timestamps.
//
// The values come from a properties resource generated at build time
// (see cmd/ops/genversion) and embedded into the binary. The resource is read
// at most once per process; the result is an immutable *Info that callers
// pass around explicitly.
//
// Failure semantics are asymmetric:
//
//   - resource absent or unreadable: every field keeps its documented default
//   - resource present but a timestamp is malformed: resolution fails with a
//     fatal *types.AppError and startup is expected to abort
package buildmeta

import (
	"time"
	_ "time/tzdata" // display zone must not depend on the host's zoneinfo
)

// Sentinel values returned when the build metadata is not available.
const (
	Unknown               = "<unknown>"
	UnknownCommitID       = "DecafC0ffeeD0d0F00d"
	UnknownCommitIDAbbrev = "DeadD0d0"
)

// DefaultTimeString is the display string used for both timestamps when the
// resource is absent.
const DefaultTimeString = "1970-01-01T00:00:00+0000"

// PropertiesFile is the name of the generated resource.
const PropertiesFile = ".enginehost.version.properties"

// Resource keys.
const (
	KeyProjectVersion   = "project.version"
	KeyToolchainVersion = "toolchain.version"
	KeyCommitID         = "git.commit.id"
	KeyCommitIDAbbrev   = "git.commit.id.abbrev"
	KeyCommitTime       = "git.commit.time"
	KeyBuildTime        = "git.build.time"
)

// placeholderMarker starts every substitution token the build left unexpanded.
const placeholderMarker = '$'

// TimestampLayout is the git-commit-id style "yyyy-MM-dd'T'HH:mm:ssZ" pattern.
const TimestampLayout = "2006-01-02T15:04:05-0700"

// DisplayZone is the timezone all display strings are rendered in, regardless
// of the host's local timezone.
const DisplayZone = "Europe/Berlin"

var displayLocation = mustLoadLocation(DisplayZone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("buildmeta: loading display zone " + name + ": " + err.Error())
	}
	return loc
}

// Info is the resolved build metadata. It is immutable; the zero value is not
// meaningful, use Defaults or a Resolver.
type Info struct {
	projectVersion   string
	toolchainVersion string
	buildTime        time.Time
	buildTimeStr     string
	commitID         string
	commitIDAbbrev   string
	commitTime       time.Time
	commitTimeStr    string
}

// Defaults returns the Info reported when no resource is available.
func Defaults() *Info {
	return &Info{
		projectVersion:   Unknown,
		toolchainVersion: Unknown,
		buildTime:        time.Unix(0, 0).UTC(),
		buildTimeStr:     DefaultTimeString,
		commitID:         UnknownCommitID,
		commitIDAbbrev:   UnknownCommitIDAbbrev,
		commitTime:       time.Unix(0, 0).UTC(),
		commitTimeStr:    DefaultTimeString,
	}
}

// Version returns the project version.
func (i *Info) Version() string { return i.projectVersion }

// ToolchainVersion returns the version of the toolchain the binary was built with.
func (i *Info) ToolchainVersion() string { return i.toolchainVersion }

// BuildTime returns the instant the binary was built.
func (i *Info) BuildTime() time.Time { return i.buildTime }

// BuildTimeString returns the build instant rendered in DisplayZone.
func (i *Info) BuildTimeString() string { return i.buildTimeStr }

// CommitID returns the last known commit id.
func (i *Info) CommitID() string { return i.commitID }

// CommitIDAbbrev returns the last known abbreviated commit id.
func (i *Info) CommitIDAbbrev() string { return i.commitIDAbbrev }

// CommitTime returns the instant of the last commit.
func (i *Info) CommitTime() time.Time { return i.commitTime }

// CommitTimeString returns the commit instant rendered in DisplayZone.
func (i *Info) CommitTimeString() string { return i.commitTimeStr }

// Revision returns the code revision (abbreviated commit and commit date).
// A new value is built on every call.
func (i *Info) Revision() RevisionInformation {
	return RevisionInformation{
		CommitID:   i.commitIDAbbrev,
		CommitDate: i.commitTimeStr,
	}
}

// RevisionInformation describes the source revision a binary was built from.
type RevisionInformation struct {
	// CommitID is the abbreviated commit hash.
	CommitID string `json:"commit_id"`
	// CommitDate is the commit instant rendered in DisplayZone.
	CommitDate string `json:"commit_date"`
}

// formatDisplay renders t the way every display string is rendered.
func formatDisplay(t time.Time) string {
	return t.In(displayLocation).Format(time.RFC3339)
}
