package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steelcutops/usergate/usergate/configuration"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [config]",
		Short: "Load and validate a users and groups configuration",
		Long:  "Reads the configuration file and checks it for errors without contacting any host.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configPath(args)
			if err != nil {
				return err
			}

			cfg, err := configuration.Load(path)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Configuration is valid: %d users, %d groups.\n", len(cfg.Users), len(cfg.Groups))
			return nil
		},
	}
}
