package probe

import (
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strings"
)

// runtimeVendor is reported as the runtime's vendor in RuntimeVersion.
const runtimeVendor = "The Go Authors"

// runtimeKnobs are the environment settings the Go runtime reads at start-up,
// in the order they are reported.
var runtimeKnobs = []string{
	"GOGC",
	"GOMEMLIMIT",
	"GOMAXPROCS",
	"GODEBUG",
	"GOTRACEBACK",
	"GORACE",
}

// RuntimeVersion returns the runtime identity in the form
// "Name - Vendor - Language/Version", for example
// "Go runtime (gc, linux/amd64) - The Go Authors - go1.25/go1.25.5".
func RuntimeVersion() (v string) {
	defer func() {
		if recover() != nil {
			v = Unknown
		}
	}()
	return formatRuntimeVersion(runtime.Compiler, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func formatRuntimeVersion(compiler, goos, goarch, version string) string {
	if version == "" {
		return Unknown
	}
	return fmt.Sprintf("Go runtime (%s, %s/%s) - %s - %s/%s",
		compiler, goos, goarch, runtimeVendor, languageVersion(version), version)
}

// languageVersion reduces a toolchain version such as "go1.25.5" to the
// language version "go1.25". Development builds are returned unchanged.
func languageVersion(version string) string {
	if !strings.HasPrefix(version, "go") {
		return version
	}
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	// Release candidates look like "go1.26rc1".
	minor := parts[1]
	if i := strings.IndexFunc(minor, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		minor = minor[:i]
	}
	return parts[0] + "." + minor
}

// StartupOptions returns the runtime options the process was launched with,
// each followed by a single space. It returns "" if they cannot be read.
func StartupOptions() string {
	var b strings.Builder
	for _, opt := range StartupOptionsList() {
		b.WriteString(opt)
		b.WriteByte(' ')
	}
	return b.String()
}

// StartupOptionsList returns the runtime options the process was launched
// with as KEY=VALUE pairs. It returns an empty slice if they cannot be read.
func StartupOptionsList() []string {
	return startupOptions(os.LookupEnv)
}

func startupOptions(lookupEnv func(string) (string, bool)) (opts []string) {
	defer func() {
		if recover() != nil {
			opts = []string{}
		}
	}()

	opts = []string{}
	for _, key := range runtimeKnobs {
		if val, ok := lookupEnv(key); ok {
			opts = append(opts, key+"="+val)
		}
	}
	return opts
}

// TemporaryFileDirectory returns the directory used for temporary files.
func TemporaryFileDirectory() string {
	return os.TempDir()
}

// CurrentUser returns the login name of the user running the process.
func CurrentUser() string {
	return currentUser(user.Current, os.Getenv)
}

func currentUser(lookup func() (*user.User, error), getenv func(string) string) string {
	if u, err := lookup(); err == nil && u.Username != "" {
		return u.Username
	}
	for _, key := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v := getenv(key); v != "" {
			return v
		}
	}
	return Unknown
}
