package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"enginehost/internal/buildmeta"
	"enginehost/internal/environment"
	"enginehost/internal/logging"
)

// buildReport is the JSON form of the build metadata.
type buildReport struct {
	Version          string `json:"version"`
	ToolchainVersion string `json:"toolchain_version"`
	CommitID         string `json:"commit_id"`
	CommitIDAbbrev   string `json:"commit_id_abbrev"`
	CommitTime       string `json:"commit_time"`
	BuildTime        string `json:"build_time"`
}

type versionReport struct {
	Build       buildReport           `json:"build"`
	Environment *environment.Snapshot `json:"environment"`
}

func newBuildReport(info *buildmeta.Info) buildReport {
	return buildReport{
		Version:          info.Version(),
		ToolchainVersion: info.ToolchainVersion(),
		CommitID:         info.CommitID(),
		CommitIDAbbrev:   info.CommitIDAbbrev(),
		CommitTime:       info.CommitTimeString(),
		BuildTime:        info.BuildTimeString(),
	}
}

func newVersionCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			info, err := a.cfg.BuildMetadata(logging.FromContext(ctx)).Get()
			if err != nil {
				return err
			}

			if !asJSON {
				rev := info.Revision()
				_, err := fmt.Fprintf(a.stdout, "Version: %s, Toolchain: %s, Rev:%s, Date:%s\nBuilt: %s\n",
					info.Version(), info.ToolchainVersion(), rev.CommitID, rev.CommitDate, info.BuildTimeString())
				return err
			}

			snap, err := environment.Collect(ctx, a.cfg, info)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(versionReport{Build: newBuildReport(info), Environment: snap})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build metadata and an environment snapshot as JSON")
	return cmd
}
