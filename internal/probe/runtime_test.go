package probe

import (
	"errors"
	"os/user"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRuntimeVersion(t *testing.T) {
	got := formatRuntimeVersion("gc", "linux", "amd64", "go1.25.5")
	assert.Equal(t, "Go runtime (gc, linux/amd64) - The Go Authors - go1.25/go1.25.5", got)

	assert.Equal(t, Unknown, formatRuntimeVersion("gc", "linux", "amd64", ""))
}

func TestLanguageVersion(t *testing.T) {
	tests := map[string]string{
		"go1.25.5":                      "go1.25",
		"go1.25":                        "go1.25",
		"go1.26rc1":                     "go1.26",
		"go1":                           "go1",
		"devel go1.26-abcdef Tue Jan 1": "devel go1.26-abcdef Tue Jan 1",
	}
	for in, want := range tests {
		assert.Equal(t, want, languageVersion(in), in)
	}
}

func TestRuntimeVersionOfThisProcess(t *testing.T) {
	got := RuntimeVersion()
	assert.Contains(t, got, runtime.Version())
	assert.Contains(t, got, runtime.GOOS+"/"+runtime.GOARCH)
	assert.Equal(t, 3, strings.Count(got, " - ")+1, "name - vendor - language/version")
}

func TestStartupOptionsOrderAndFormat(t *testing.T) {
	env := map[string]string{
		"GODEBUG":    "madvdontneed=1",
		"GOGC":       "200",
		"GOMEMLIMIT": "4GiB",
		"HOME":       "/root",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	got := startupOptions(lookup)
	assert.Equal(t, []string{"GOGC=200", "GOMEMLIMIT=4GiB", "GODEBUG=madvdontneed=1"}, got)
}

func TestStartupOptionsEmpty(t *testing.T) {
	got := startupOptions(func(string) (string, bool) { return "", false })
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStartupOptionsRecoversPanic(t *testing.T) {
	got := startupOptions(func(string) (string, bool) { panic("environ unavailable") })
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStartupOptionsJoined(t *testing.T) {
	for _, k := range runtimeKnobs {
		t.Setenv(k, "")
	}
	t.Setenv("GOGC", "50")
	t.Setenv("GOMAXPROCS", "4")

	assert.Contains(t, StartupOptions(), "GOGC=50 ")
	assert.Contains(t, StartupOptions(), "GOMAXPROCS=4 ")
	assert.True(t, strings.HasSuffix(StartupOptions(), " "))
}

func TestTemporaryFileDirectory(t *testing.T) {
	t.Setenv("TMPDIR", "/var/engine-tmp")
	if runtime.GOOS == "windows" || runtime.GOOS == "plan9" {
		t.Skip("TMPDIR is not consulted on this platform")
	}
	assert.Equal(t, "/var/engine-tmp", TemporaryFileDirectory())
}

func TestCurrentUser(t *testing.T) {
	fromOS := func() (*user.User, error) { return &user.User{Username: "flink"}, nil }
	failing := func() (*user.User, error) { return nil, errors.New("no passwd entry") }
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}

	assert.Equal(t, "flink", currentUser(fromOS, env(nil)))
	assert.Equal(t, "svc", currentUser(failing, env(map[string]string{"USER": "svc"})))
	assert.Equal(t, "win", currentUser(failing, env(map[string]string{"USERNAME": "win"})))
	assert.Equal(t, Unknown, currentUser(failing, env(nil)))
}
