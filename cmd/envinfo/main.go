// Package main is the envinfo command. It logs the engine host startup banner
// and reports the build metadata of the binary.
//
// A corrupt build metadata resource or an undeterminable heap ceiling is
// fatal: the command exits with status 1, as the engine process would abort
// its startup. Usage and configuration errors exit with status 2.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"enginehost/internal/config"
	"enginehost/internal/logging"
	"enginehost/internal/types"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(report(os.Stderr, err))
	}
}

// report prints err and returns the exit status for it.
func report(w io.Writer, err error) int {
	if types.IsFatal(err) {
		fmt.Fprintf(w, "fatal: %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 2
}

// app carries what the subcommands share once the root command has loaded
// the configuration.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	secrets string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "envinfo",
		Short: "Report build and runtime information of the engine host",
		Long: `envinfo resolves the build metadata embedded in the binary and probes the
host it runs on: memory ceiling, runtime options, descriptor limits and the
invoking user.

Examples:
  envinfo banner --component TaskExecutor -- --parallelism 4
  envinfo version --json`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.secrets, "secrets", "ssm", "Provider for _SSM_PARAM indirections outside local mode (ssm or env)")

	root.AddCommand(newBannerCmd(a), newVersionCmd(a))
	return root
}

// setup loads the configuration and installs the process logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	provider, err := secretProvider(a.secrets)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(provider)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.LogLevel, cfg.LogFormat, a.stdout)
	slog.SetDefault(a.logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

// secretProvider selects the SecretProvider used outside local mode.
func secretProvider(kind string) (config.SecretProvider, error) {
	switch kind {
	case "ssm":
		return config.NewSSMProviderFromEnv(), nil
	case "env":
		return config.NewEnvVarProvider(), nil
	default:
		return nil, fmt.Errorf("unknown secret provider %q (want ssm or env)", kind)
	}
}
