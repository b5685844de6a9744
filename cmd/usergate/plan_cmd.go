package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/steelcutops/usergate/usergate/configuration"
	"github.com/steelcutops/usergate/usergate/host"
	"github.com/steelcutops/usergate/usergate/hostgroup"
	"github.com/steelcutops/usergate/usergate/planmanager"
)

func newPlanCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan [config]",
		Short: "Show the commands required to match the configuration",
		Long:  "Reads the user and group databases of every host, compares them with the configuration and prints the adjustments. Exits with status 2 when there are changes.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("unknown output format %q", output)
			}

			cfg, hostGroup, err := a.loadAndConnect(args)
			if err != nil {
				return err
			}

			var mu sync.Mutex
			var plans []*planmanager.Plan
			err = hostGroup.Process(cmd.Context(), a.settings.Concurrency, func(ctx context.Context, h *host.Host) error {
				pm := planmanager.NewPlanManager(h, nil, a.reconcileOptions()...)
				plan, err := pm.Plan(ctx, cfg)
				if err != nil {
					return err
				}
				mu.Lock()
				plans = append(plans, plan)
				mu.Unlock()
				return nil
			})

			sort.Slice(plans, func(i, j int) bool { return plans[i].Host < plans[j].Host })
			if werr := writePlans(a, output, plans); werr != nil {
				return werr
			}
			if err != nil {
				return err
			}

			for _, plan := range plans {
				if plan.HasChanges() {
					return errChanges
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	return cmd
}

func writePlans(a *app, output string, plans []*planmanager.Plan) error {
	if output == "json" {
		if plans == nil {
			plans = []*planmanager.Plan{}
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plans)
	}

	for _, plan := range plans {
		if err := plan.FormatText(a.stdout); err != nil {
			return err
		}
	}
	return nil
}

// loadAndConnect loads the configuration and builds the host group.
func (a *app) loadAndConnect(args []string) (configuration.Configuration, *hostgroup.HostGroup, error) {
	path, err := a.configPath(args)
	if err != nil {
		return configuration.Configuration{}, nil, err
	}

	cfg, err := configuration.Load(path)
	if err != nil {
		return configuration.Configuration{}, nil, err
	}

	options, err := a.buildHostOptions()
	if err != nil {
		return cfg, nil, err
	}

	hostGroup, err := a.initializeHosts(options)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, hostGroup, nil
}
