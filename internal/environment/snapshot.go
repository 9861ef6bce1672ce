// Package environment gathers build and runtime facts about the engine host
// process and renders them as the startup banner.
package environment

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"enginehost/internal/buildmeta"
	"enginehost/internal/config"
	"enginehost/internal/probe"
)

// Snapshot is one reading of every fact the banner reports.
type Snapshot struct {
	// InstanceID is a random id that correlates the banner with later log
	// lines of the same process.
	InstanceID  string    `json:"instance_id"`
	CollectedAt time.Time `json:"collected_at"`
	Component   string    `json:"component"`

	Version          string                        `json:"version"`
	ToolchainVersion string                        `json:"toolchain_version"`
	BuildTime        string                        `json:"build_time"`
	Revision         buildmeta.RevisionInformation `json:"revision"`

	OSUser         string   `json:"os_user"`
	HadoopUser     string   `json:"hadoop_user"`
	HadoopVersion  string   `json:"hadoop_version,omitempty"`
	RuntimeVersion string   `json:"runtime_version"`
	MaxHeapBytes   int64    `json:"max_heap_bytes"`
	RuntimeOptions []string `json:"runtime_options"`
	OpenFileLimit  int64    `json:"open_file_limit"`
	TempDir        string   `json:"temp_dir"`
	EngineHome     string   `json:"engine_home,omitempty"`
	LibraryPath    string   `json:"library_path"`
	Executable     string   `json:"executable"`

	// InheritedLogs is replayed verbatim at the top of the banner.
	InheritedLogs *string `json:"-"`

	sensitiveKeys []string
}

// probes are the readings Collect takes. Tests swap individual entries.
type probes struct {
	maxHeap        func() (int64, error)
	osUser         func() string
	hadoopUser     func() string
	hadoopVersion  func() (string, bool)
	runtimeVersion func() string
	runtimeOptions func() []string
	openFileLimit  func() int64
	tempDir        func() string
	libraryPath    func() string
	executable     func() string
	newID          func() string
	now            func() time.Time
}

func defaultProbes() probes {
	return probes{
		maxHeap:        probe.MaxHeapMemory,
		osUser:         probe.CurrentUser,
		hadoopUser:     probe.HadoopUser,
		hadoopVersion:  probe.HadoopVersion,
		runtimeVersion: probe.RuntimeVersion,
		runtimeOptions: probe.StartupOptionsList,
		openFileLimit:  probe.OpenFileHandlesLimit,
		tempDir:        probe.TemporaryFileDirectory,
		libraryPath:    libraryPath,
		executable:     executable,
		newID:          uuid.NewString,
		now:            time.Now,
	}
}

// Collect reads every probe concurrently and combines the readings with the
// build metadata and configuration. A nil info is treated as the defaults.
//
// The only error is the fatal one from probe.MaxHeapMemory, or the context
// error if ctx is done before all probes have started.
func Collect(ctx context.Context, cfg *config.Config, info *buildmeta.Info) (*Snapshot, error) {
	return collect(ctx, cfg, info, defaultProbes())
}

func collect(ctx context.Context, cfg *config.Config, info *buildmeta.Info, p probes) (*Snapshot, error) {
	if info == nil {
		info = buildmeta.Defaults()
	}
	snap := &Snapshot{
		InstanceID:       p.newID(),
		CollectedAt:      p.now(),
		Version:          info.Version(),
		ToolchainVersion: info.ToolchainVersion(),
		BuildTime:        info.BuildTimeString(),
		Revision:         info.Revision(),
	}
	if cfg != nil {
		snap.Component = cfg.Engine.Component
		snap.EngineHome = cfg.Engine.Home
		snap.InheritedLogs = cfg.Engine.InheritedLogs
		snap.sensitiveKeys = cfg.Engine.SensitiveKeys
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)

	// run starts one probe unless the collection was already abandoned.
	run := func(read func() error) {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return read()
		})
	}

	run(func() error {
		maxHeap, err := p.maxHeap()
		if err != nil {
			return err
		}
		mu.Lock()
		snap.MaxHeapBytes = maxHeap
		mu.Unlock()
		return nil
	})
	run(func() error {
		user, hadoopUser := p.osUser(), p.hadoopUser()
		hadoopVersion, _ := p.hadoopVersion()
		mu.Lock()
		snap.OSUser, snap.HadoopUser, snap.HadoopVersion = user, hadoopUser, hadoopVersion
		mu.Unlock()
		return nil
	})
	run(func() error {
		version, opts := p.runtimeVersion(), p.runtimeOptions()
		mu.Lock()
		snap.RuntimeVersion, snap.RuntimeOptions = version, opts
		mu.Unlock()
		return nil
	})
	run(func() error {
		limit, tmp := p.openFileLimit(), p.tempDir()
		libs, exe := p.libraryPath(), p.executable()
		mu.Lock()
		snap.OpenFileLimit, snap.TempDir = limit, tmp
		snap.LibraryPath, snap.Executable = libs, exe
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// libraryPathVars is the dynamic loader search path variable per GOOS.
var libraryPathVars = map[string]string{
	"darwin":  "DYLD_LIBRARY_PATH",
	"windows": "PATH",
}

func libraryPath() string {
	key, ok := libraryPathVars[runtime.GOOS]
	if !ok {
		key = "LD_LIBRARY_PATH"
	}
	return os.Getenv(key)
}

func executable() string {
	exe, err := os.Executable()
	if err != nil {
		return probe.Unknown
	}
	return exe
}
