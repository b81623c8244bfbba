// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/internal/workflows/notify"
	"github.com/hashgraph/regsync/internal/workflows/steps"
)

const (
	GenerateMigrationWorkflowId = "generate-migration"
	SyncMigrationsWorkflowId    = "sync-migrations"
	InitMigrationsWorkflowId    = "init-migrations"
	RestoreRegistryWorkflowId   = "restore-registry"
	CleanBackupWorkflowId       = "clean-backup"
)

// GenerateOptions controls how GenerateMigrationWorkflow stamps the new identifier.
type GenerateOptions struct {
	Name   string
	Clock  registry.Clock
	UTC    bool
	Dedupe bool
}

// GenerateMigrationWorkflow creates a unit for opts.Name and registers it. The registry is loaded and located
// before anything is written so that a broken registry leaves no orphan unit behind.
func GenerateMigrationWorkflow(run *steps.MigrationRun, opts GenerateOptions) *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().WithId(GenerateMigrationWorkflowId).Steps(
		steps.LockRegistry(run),
		steps.LoadRegistry(run),
		steps.LocateAnchors(run),
		steps.ResolveImportPath(run),
		steps.DiscoverUnits(run),
		steps.NewIdentifier(run, opts.Name, opts.Clock, opts.UTC, opts.Dedupe),
		steps.WriteScaffolds(run),
		steps.RewriteRegistry(run),
		steps.PersistRegistry(run),
	).
		WithExecutionMode(automa.StopOnError).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Generating migration %s", opts.Name)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to generate migration %s", opts.Name)
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Migration %s generated", opts.Name)
		})
}

// SyncMigrationsWorkflow registers every unit directory missing from the registry and regenerates the enumeration.
// Without missing units it re-formats the registry, which leaves a canonical file unchanged.
func SyncMigrationsWorkflow(run *steps.MigrationRun) *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().WithId(SyncMigrationsWorkflowId).Steps(
		steps.LockRegistry(run),
		steps.LoadRegistry(run),
		steps.LocateAnchors(run),
		steps.ResolveImportPath(run),
		steps.DiscoverUnits(run),
		steps.PlanMissingUnits(run),
		steps.RewriteRegistry(run),
		steps.PersistRegistry(run),
	).
		WithExecutionMode(automa.StopOnError).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to sync migrations in %s", run.Dir)
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Migrations in %s synced", run.Dir)
		})
}

// InitOptions controls InitMigrationsWorkflow.
type InitOptions struct {
	// ModulePath is written to a new go.mod when the directory is not inside a module yet.
	ModulePath string
	GoVersion  string
	Force      bool
}

// InitMigrationsWorkflow creates the registry file, the first unit and the README in run.Dir. The written registry is
// loaded and located at the end so that a configuration the template cannot satisfy fails right away.
func InitMigrationsWorkflow(run *steps.MigrationRun, opts InitOptions) *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().WithId(InitMigrationsWorkflowId).Steps(
		steps.ResolveModule(run, opts.ModulePath, opts.GoVersion),
		steps.ResolveImportPath(run),
		steps.WriteRegistryFile(run, opts.Force),
		steps.WriteScaffolds(run),
		steps.WriteReadme(run),
		steps.LoadRegistry(run),
		steps.LocateAnchors(run),
	).
		WithExecutionMode(automa.StopOnError).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Initializing migrations in %s", run.Dir)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to initialize migrations in %s", run.Dir)
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Migrations initialized in %s", run.Dir)
		})
}

// RestoreRegistryWorkflow puts the backup back in place under the registry lock.
func RestoreRegistryWorkflow(run *steps.MigrationRun) *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().WithId(RestoreRegistryWorkflowId).Steps(
		steps.LockRegistry(run),
		steps.RestoreBackup(run),
	).
		WithExecutionMode(automa.StopOnError)
}

// CleanBackupWorkflow deletes the backup under the registry lock.
func CleanBackupWorkflow(run *steps.MigrationRun) *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().WithId(CleanBackupWorkflowId).Steps(
		steps.LockRegistry(run),
		steps.RemoveBackup(run),
	).
		WithExecutionMode(automa.StopOnError)
}
