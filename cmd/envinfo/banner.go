package main

import (
	"github.com/spf13/cobra"

	"enginehost/internal/environment"
	"enginehost/internal/logging"
)

func newBannerCmd(a *app) *cobra.Command {
	var component string

	cmd := &cobra.Command{
		Use:   "banner [-- program arguments...]",
		Short: "Log the startup banner",
		Long: `Log the startup banner of the engine host, one record per line. Arguments
after "--" are reported as the program arguments; those that look like
credentials are redacted.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)

			info, err := a.cfg.BuildMetadata(logger).Get()
			if err != nil {
				return err
			}
			return environment.LogEnvironmentInfo(ctx, logger, a.cfg, info, component, args)
		},
	}
	cmd.Flags().StringVar(&component, "component", "", "Component name for the banner (default ENGINE_COMPONENT)")
	return cmd
}
