package buildmeta

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enginehost/internal/types"
)

const testFile = "version.properties"

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func resourceFS(content string) fstest.MapFS {
	return fstest.MapFS{testFile: &fstest.MapFile{Data: []byte(content)}}
}

// countingFS counts how often the resource is opened.
type countingFS struct {
	fs.FS
	opens atomic.Int32
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens.Add(1)
	return c.FS.Open(name)
}

// brokenFS fails every open with an error that is not "not exist".
type brokenFS struct{}

func (brokenFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: errors.New("input/output error")}
}

const fullResource = `
project.version=1.19.0
toolchain.version=go1.25.5
git.commit.id=4b1c0e5d6a7f8e9d0c1b2a3f4e5d6c7b8a9f0e1d
git.commit.id.abbrev=4b1c0e5
git.commit.time=2020-01-01T00:00:00+0000
git.build.time=2020-07-01T12:30:45+0200
`

func assertDefaults(t *testing.T, info *Info) {
	t.Helper()
	assert.Equal(t, Unknown, info.Version())
	assert.Equal(t, Unknown, info.ToolchainVersion())
	assert.Equal(t, UnknownCommitID, info.CommitID())
	assert.Equal(t, UnknownCommitIDAbbrev, info.CommitIDAbbrev())
	assert.True(t, info.CommitTime().Equal(time.Unix(0, 0)))
	assert.True(t, info.BuildTime().Equal(time.Unix(0, 0)))
	assert.Equal(t, DefaultTimeString, info.CommitTimeString())
	assert.Equal(t, DefaultTimeString, info.BuildTimeString())
}

func TestResolveAbsentResourceReturnsDefaults(t *testing.T) {
	var buf bytes.Buffer
	r := NewResolver(fstest.MapFS{}, testFile, newTestLogger(&buf))

	first, err := r.Resolve()
	require.NoError(t, err)
	assertDefaults(t, first)

	second, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, first, second, "resolution must be idempotent")

	assert.Empty(t, buf.String(), "an absent resource is not worth logging")
}

func TestResolveUnreadableResourceReturnsDefaults(t *testing.T) {
	var buf bytes.Buffer
	r := NewResolver(brokenFS{}, testFile, newTestLogger(&buf))

	info, err := r.Resolve()
	require.NoError(t, err)
	assertDefaults(t, info)

	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), "Unable to read version property file")
	assert.Contains(t, buf.String(), "input/output error")
}

func TestResolveMalformedPropertiesSyntaxReturnsDefaults(t *testing.T) {
	var buf bytes.Buffer
	r := NewResolver(resourceFS("project.version=\\uZZZZ\n"), testFile, newTestLogger(&buf))

	info, err := r.Resolve()
	require.NoError(t, err)
	assertDefaults(t, info)
	assert.Contains(t, buf.String(), "level=INFO")
}

func TestResolveFullResource(t *testing.T) {
	original := time.Local
	time.Local = time.FixedZone("Host", -11*3600)
	t.Cleanup(func() { time.Local = original })

	r := NewResolver(resourceFS(fullResource), testFile, newTestLogger(&bytes.Buffer{}))
	info, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, "1.19.0", info.Version())
	assert.Equal(t, "go1.25.5", info.ToolchainVersion())
	assert.Equal(t, "4b1c0e5d6a7f8e9d0c1b2a3f4e5d6c7b8a9f0e1d", info.CommitID())
	assert.Equal(t, "4b1c0e5", info.CommitIDAbbrev())

	assert.True(t, info.CommitTime().Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2020-01-01T01:00:00+01:00", info.CommitTimeString())

	assert.True(t, info.BuildTime().Equal(time.Date(2020, 7, 1, 10, 30, 45, 0, time.UTC)))
	assert.Equal(t, "2020-07-01T12:30:45+02:00", info.BuildTimeString())
}

func TestResolvePlaceholdersFallBackToDefaults(t *testing.T) {
	r := NewResolver(resourceFS(`
project.version=${project.version}
toolchain.version=
git.commit.id=$git.commit.id
git.commit.time=${git.commit.time}
`), testFile, newTestLogger(&bytes.Buffer{}))

	info, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, Unknown, info.Version())
	assert.Equal(t, Unknown, info.ToolchainVersion())
	assert.Equal(t, UnknownCommitID, info.CommitID())
	assert.Equal(t, UnknownCommitIDAbbrev, info.CommitIDAbbrev())

	// The resource exists, so the default time string is parsed and rendered
	// in the display zone like any real value.
	assert.True(t, info.CommitTime().Equal(time.Unix(0, 0)))
	assert.Equal(t, "1970-01-01T01:00:00+01:00", info.CommitTimeString())
	assert.Equal(t, "1970-01-01T01:00:00+01:00", info.BuildTimeString())
}

func TestResolveMalformedTimestampIsFatal(t *testing.T) {
	tests := []struct {
		name string
		key  string
		body string
	}{
		{"date only commit time", KeyCommitTime, "git.commit.time=2020-01-01\n"},
		{"garbage commit time", KeyCommitTime, "git.commit.time=yesterday\n"},
		{"zulu suffix", KeyCommitTime, "git.commit.time=2020-01-01T00:00:00Z\n"},
		{"month out of range", KeyCommitTime, "git.commit.time=2020-13-01T00:00:00+0000\n"},
		{"hour out of range", KeyCommitTime, "git.commit.time=2020-01-01T24:00:00+0000\n"},
		{"fractional seconds with dot", KeyCommitTime, "git.commit.time=2020-01-01T00:00:00.123+0000\n"},
		{"fractional seconds with comma", KeyCommitTime, "git.commit.time=2020-01-01T00:00:00,5+0000\n"},
		{"bad build time", KeyBuildTime, "git.commit.time=2020-01-01T00:00:00+0000\ngit.build.time=01/02/2020\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewResolver(resourceFS(tt.body), testFile, newTestLogger(&buf))

			info, err := r.Resolve()
			require.Error(t, err)
			assert.Nil(t, info, "no partially resolved metadata may escape")

			var appErr *types.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, types.ErrCodeBuildMetadataCorrupt, appErr.Code)
			assert.Equal(t, tt.key, appErr.Details["key"])
			assert.True(t, types.IsFatal(err))

			var parseErr *time.ParseError
			assert.ErrorAs(t, err, &parseErr)

			assert.Contains(t, buf.String(), "level=ERROR")
			assert.Contains(t, buf.String(), "has not been generated correctly")
		})
	}
}

func TestEmbeddedResourceResolves(t *testing.T) {
	info, err := NewEmbeddedResolver(newTestLogger(&bytes.Buffer{})).Resolve()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.NotEmpty(t, info.Version())
	assert.NotEmpty(t, info.CommitTimeString())
}

func TestRevisionIsBuiltPerCall(t *testing.T) {
	r := NewResolver(resourceFS(fullResource), testFile, newTestLogger(&bytes.Buffer{}))
	info, err := r.Resolve()
	require.NoError(t, err)

	rev := info.Revision()
	assert.Equal(t, RevisionInformation{CommitID: "4b1c0e5", CommitDate: "2020-01-01T01:00:00+01:00"}, rev)

	rev.CommitID = "changed"
	assert.Equal(t, "4b1c0e5", info.Revision().CommitID)
}

func TestLazyResolvesOnceUnderConcurrency(t *testing.T) {
	fsys := &countingFS{FS: resourceFS(fullResource)}
	lazy := NewLazy(NewResolver(fsys, testFile, newTestLogger(&bytes.Buffer{})))

	const workers = 32
	results := make([]*Info, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			info, err := lazy.Get()
			assert.NoError(t, err)
			results[i] = info
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), fsys.opens.Load())
	for _, info := range results {
		assert.Same(t, results[0], info)
	}
}

func TestLazyCachesFatalError(t *testing.T) {
	var buf bytes.Buffer
	fsys := &countingFS{FS: resourceFS("git.commit.time=broken\n")}
	lazy := NewLazy(NewResolver(fsys, testFile, newTestLogger(&buf)))

	_, first := lazy.Get()
	_, second := lazy.Get()

	require.Error(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), fsys.opens.Load())
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("level=ERROR")))
}

func TestNewFileResolverReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/" + PropertiesFile
	require.NoError(t, os.WriteFile(path, []byte(fullResource), 0o644))

	info, err := NewFileResolver(path, newTestLogger(&bytes.Buffer{})).Resolve()
	require.NoError(t, err)
	assert.Equal(t, "1.19.0", info.Version())
}

func TestNewFileResolverMissingFileReturnsDefaults(t *testing.T) {
	info, err := NewFileResolver(t.TempDir()+"/nope.properties", nil).Resolve()
	require.NoError(t, err)
	assertDefaults(t, info)
}
