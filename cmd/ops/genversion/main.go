// Package main implements genversion, which writes the build metadata
// resource embedded by internal/buildmeta.
//
// Usage:
//
//	go run ./cmd/ops/genversion -o internal/buildmeta/generated/.enginehost.version.properties
//	go run ./cmd/ops/genversion -o version.properties -version=1.19.0
//
// Values come from git and the Go toolchain running the generator. A value
// that cannot be determined is left out of the file, so the binary reports
// the documented default for it. SOURCE_DATE_EPOCH, when set, fixes the build
// time for reproducible builds.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/magiconair/properties"

	"enginehost/internal/buildmeta"
	"enginehost/internal/config"
)

// gitRunner runs git with the given arguments and returns its trimmed stdout.
type gitRunner func(ctx context.Context, args ...string) (string, error)

func execGit(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// options are the resolved command-line flags.
type options struct {
	output  string
	version string
}

func main() {
	outputFlag := flag.String("o", buildmeta.PropertiesFile, "Output file")
	versionFlag := flag.String("version", "", "Project version (default: nearest git tag)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "genversion writes the build metadata properties resource.\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  genversion [-o FILE] [-version VERSION]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Outside local mode GENVERSION_PROJECT_VERSION may be kept in SSM and
	// referenced through GENVERSION_PROJECT_VERSION_SSM_PARAM.
	if err := config.ResolveSecrets(config.NewSSMProviderFromEnv()); err != nil {
		logger.Error("resolving environment", "error", err)
		os.Exit(1)
	}

	opts := options{output: *outputFlag, version: *versionFlag}
	if opts.version == "" {
		opts.version = os.Getenv("GENVERSION_PROJECT_VERSION")
	}

	if err := run(ctx, opts, execGit, buildTime(os.Getenv("SOURCE_DATE_EPOCH")), logger); err != nil {
		logger.Error("genversion failed", "error", err)
		os.Exit(1)
	}
}

// buildTime returns the build timestamp: SOURCE_DATE_EPOCH when it is a valid
// Unix time, otherwise now.
func buildTime(epoch string) time.Time {
	if epoch != "" {
		if sec, err := strconv.ParseInt(epoch, 10, 64); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	}
	return time.Now().UTC()
}

func run(ctx context.Context, opts options, git gitRunner, built time.Time, logger *slog.Logger) error {
	props := collect(ctx, opts, git, built, logger)

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", opts.output, err)
	}
	if err := write(f, props); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", opts.output, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", opts.output, err)
	}

	logger.Info("build metadata written", "file", opts.output, "keys", props.Len())
	return nil
}

// collect gathers every value that can be determined, in resource order.
func collect(ctx context.Context, opts options, git gitRunner, built time.Time, logger *slog.Logger) *properties.Properties {
	props := properties.NewProperties()
	set := func(key, value string) {
		if value == "" {
			return
		}
		// Set only fails on circular references, which expansion-free
		// literal values cannot form.
		_, _, _ = props.Set(key, value)
	}
	fromGit := func(key string, args ...string) {
		v, err := git(ctx, args...)
		if err != nil {
			logger.Warn("value left at its default", "key", key, "error", err)
			return
		}
		set(key, v)
	}

	version := strings.TrimPrefix(opts.version, "v")
	if version == "" {
		if tag, err := git(ctx, "describe", "--tags", "--abbrev=0"); err == nil {
			version = strings.TrimPrefix(tag, "v")
		} else {
			logger.Warn("value left at its default", "key", buildmeta.KeyProjectVersion, "error", err)
		}
	}
	set(buildmeta.KeyProjectVersion, version)
	set(buildmeta.KeyToolchainVersion, runtime.Version())
	fromGit(buildmeta.KeyCommitID, "rev-parse", "HEAD")
	fromGit(buildmeta.KeyCommitIDAbbrev, "rev-parse", "--short=7", "HEAD")
	fromGit(buildmeta.KeyCommitTime, "show", "-s", "--format=%cd", "--date=format:%Y-%m-%dT%H:%M:%S%z", "HEAD")
	set(buildmeta.KeyBuildTime, built.Format(buildmeta.TimestampLayout))
	return props
}

func write(w io.Writer, props *properties.Properties) error {
	if _, err := fmt.Fprintln(w, "# Generated by cmd/ops/genversion. DO NOT EDIT."); err != nil {
		return err
	}
	_, err := props.Write(w, properties.UTF8)
	return err
}
