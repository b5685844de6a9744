// Package planmanager snapshots a host, reconciles it against the desired
// configuration and applies the result.
package planmanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/steelcutops/usergate/logger"
	"github.com/steelcutops/usergate/usergate/configuration"
	"github.com/steelcutops/usergate/usergate/executor"
	"github.com/steelcutops/usergate/usergate/failure"
	"github.com/steelcutops/usergate/usergate/host"
	"github.com/steelcutops/usergate/usergate/journalmanager"
	"github.com/steelcutops/usergate/usergate/reconcile"
	"github.com/steelcutops/usergate/usergate/usermanager"
)

const (
	ModeApply  = "apply"
	ModeDryRun = "dry-run"
)

type PlanManager struct {
	Hostname    string
	UserManager usermanager.UserManager
	// Journal is optional.
	Journal          journalmanager.JournalManager
	Logger           logger.Logger
	ReconcileOptions []reconcile.Option
}

// NewPlanManager returns a PlanManager for h.
func NewPlanManager(h *host.Host, journal journalmanager.JournalManager, opts ...reconcile.Option) *PlanManager {
	return &PlanManager{
		Hostname:         h.Hostname,
		UserManager:      h.UserManager,
		Journal:          journal,
		Logger:           logger.New().With("host", h.Hostname),
		ReconcileOptions: opts,
	}
}

// Plan snapshots the host's user and group databases and reconciles them
// against cfg.
func (pm *PlanManager) Plan(ctx context.Context, cfg configuration.Configuration) (*Plan, error) {
	plan := &Plan{ID: uuid.NewString(), Host: pm.Hostname}
	log := pm.log().With("run", plan.ID)

	users, err := pm.UserManager.ListUsers(ctx)
	if err != nil {
		return plan, fmt.Errorf("read user database: %w", err)
	}
	groups, err := pm.UserManager.ListGroups(ctx)
	if err != nil {
		return plan, fmt.Errorf("read group database: %w", err)
	}
	log.Debug("Took snapshot", "users", len(users.Entries), "groups", len(groups.Entries))

	adjustments, err := reconcile.Reconcile(users, groups, cfg, pm.ReconcileOptions...)
	if err != nil {
		log.Warn("Reconciliation failed", "error", err)
		return plan, err
	}

	plan.Adjustments = adjustments
	log.Info("Computed plan", "adjustments", len(adjustments))
	return plan, nil
}

// Apply plans and then executes the plan with exec. The outcome is recorded
// in the journal when one is configured; mode names the run in the journal.
func (pm *PlanManager) Apply(ctx context.Context, cfg configuration.Configuration, exec *executor.Executor, mode string) (*Plan, error) {
	plan, err := pm.Plan(ctx, cfg)
	if err != nil {
		status := journalmanager.StatusFailed
		var ferr *failure.Error
		if errors.As(err, &ferr) && (ferr.Code == failure.CodeUserConflict || ferr.Code == failure.CodeGroupConflict) {
			status = journalmanager.StatusConflict
		}
		pm.record(ctx, plan, mode, status, err)
		return plan, err
	}

	if !plan.HasChanges() {
		pm.record(ctx, plan, mode, journalmanager.StatusUnchanged, nil)
		return plan, nil
	}

	if err := exec.Execute(ctx, plan.Adjustments); err != nil {
		pm.record(ctx, plan, mode, journalmanager.StatusFailed, err)
		return plan, err
	}

	pm.log().Info("Applied plan", "run", plan.ID, "mode", mode, "adjustments", len(plan.Adjustments))
	pm.record(ctx, plan, mode, journalmanager.StatusApplied, nil)
	return plan, nil
}

func (pm *PlanManager) record(ctx context.Context, plan *Plan, mode string, status journalmanager.Status, runErr error) {
	if pm.Journal == nil {
		return
	}

	commands, err := plan.Commands()
	if err != nil {
		pm.log().Warn("Failed to render commands for journal", "run", plan.ID, "error", err)
	}

	entry := journalmanager.Entry{
		ID:       plan.ID,
		Host:     plan.Host,
		Mode:     mode,
		Commands: commands,
		Status:   status,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}

	if _, err := pm.Journal.Save(ctx, entry); err != nil {
		pm.log().Error("Failed to save journal entry", "run", plan.ID, "error", err)
	}
}

func (pm *PlanManager) log() logger.Logger {
	if pm.Logger == nil {
		pm.Logger = logger.New().With("host", pm.Hostname)
	}
	return pm.Logger
}
