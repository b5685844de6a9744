package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/steelcutops/usergate/logger"
	"github.com/steelcutops/usergate/usergate/executor"
	"github.com/steelcutops/usergate/usergate/host"
	"github.com/steelcutops/usergate/usergate/journalmanager"
	"github.com/steelcutops/usergate/usergate/planmanager"
)

type applied struct {
	plan   *planmanager.Plan
	output bytes.Buffer
}

func newApplyCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply [config]",
		Short: "Create, rename and renumber users and groups to match the configuration",
		Long:  "Plans every host and runs the resulting commands in order, stopping a host at its first failed command.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, hostGroup, err := a.loadAndConnect(args)
			if err != nil {
				return err
			}

			journal, err := a.journal()
			if err != nil {
				return err
			}

			mode := planmanager.ModeApply
			if dryRun {
				mode = planmanager.ModeDryRun
			}

			var mu sync.Mutex
			var results []*applied
			err = hostGroup.Process(cmd.Context(), a.settings.Concurrency, func(ctx context.Context, h *host.Host) error {
				r := &applied{}
				var exec *executor.Executor
				if dryRun {
					exec = executor.NewDryRun(&r.output)
				} else {
					exec = executor.NewSystem(h.CommandManager, a.settings.Sudo)
				}
				exec.Logger = logger.New().With("host", h.Hostname)

				pm := planmanager.NewPlanManager(h, journal, a.reconcileOptions()...)
				plan, err := pm.Apply(ctx, cfg, exec, mode)
				r.plan = plan

				mu.Lock()
				results = append(results, r)
				mu.Unlock()
				return err
			})

			sort.Slice(results, func(i, j int) bool { return results[i].plan.Host < results[j].plan.Host })
			for _, r := range results {
				if dryRun {
					fmt.Fprintf(a.stdout, "# %s (run %s)\n", r.plan.Host, r.plan.ID)
					_, _ = r.output.WriteTo(a.stdout)
					continue
				}
				fmt.Fprintf(a.stdout, "%s: %d adjustments (run %s)\n", r.plan.Host, len(r.plan.Adjustments), r.plan.ID)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the commands instead of running them")
	return cmd
}

// journal returns the run journal configured in the settings, or nil when
// no journal directory is set.
func (a *app) journal() (journalmanager.JournalManager, error) {
	if a.settings.JournalDir == "" {
		return nil, nil
	}

	journal, err := journalmanager.NewFileJournalManager(a.settings.JournalDir)
	if err != nil {
		return nil, err
	}
	journal.Git = a.settings.JournalGit
	return journal, nil
}
