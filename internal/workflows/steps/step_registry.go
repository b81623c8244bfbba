// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"strconv"
	"strings"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/internal/workflows/notify"
	"github.com/hashgraph/regsync/pkg/fsx"
	"github.com/joomcode/errorx"
)

const (
	ResolveImportPathStepId = "resolve-import-path"
	DiscoverUnitsStepId     = "discover-units"
	NewIdentifierStepId     = "new-identifier"
	PlanMissingUnitsStepId  = "plan-missing-units"
)

// LockRegistry takes the registry lock for the rest of the run. The lock is released by MigrationRun.Release.
func LockRegistry(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(registry.StageLock).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			lock, err := registry.AcquireLock(ctx, run.RegistryPath, run.Opts.LockTimeout)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			run.Lock = lock

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"lock": lock.Path(),
			}))
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to lock registry %s", run.RegistryPath)
		})
}

// LoadRegistry reads and parses the registry file.
func LoadRegistry(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(registry.StageLoad).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			doc, err := registry.Load(run.RegistryPath)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			run.Doc = doc

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"path": doc.Path,
				"size": strconv.Itoa(len(doc.Src)),
			}))
		}).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			notify.As().StepStart(ctx, stp, "Loading registry %s", run.RegistryPath)
			return ctx, nil
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to load registry %s", run.RegistryPath)
		})
}

// LocateAnchors finds the declared migrations and the enumeration method of the loaded registry.
func LocateAnchors(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(registry.StageLocate).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if run.Doc == nil {
				return automa.FailureReport(stp, automa.WithError(errorx.IllegalState.New("registry is not loaded")))
			}

			anchors, err := registry.Locate(run.Doc, run.Opts)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			run.Anchors = anchors

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"declared": strconv.Itoa(len(anchors.Migrations)),
				"method":   anchors.Lookup.Func.Name.Name,
			}))
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to locate the enumeration in %s", run.RegistryPath)
		})
}

// ResolveImportPath determines the import path of the units directory.
func ResolveImportPath(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(ResolveImportPathStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			var declared []registry.Declared
			if run.Anchors != nil {
				declared = run.Anchors.Migrations
			}

			importPath, err := registry.ImportPathOf(run.UnitsDir(), declared)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			run.ImportPath = importPath

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"importPath": importPath,
			}))
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to resolve the import path of %s", run.UnitsDir())
		})
}

// DiscoverUnits lists the unit directories present on disk.
func DiscoverUnits(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(DiscoverUnitsStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			ids, err := registry.Discover(run.Dir)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			run.Discovered = ids

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"discovered": strconv.Itoa(len(ids)),
			}))
		})
}

// NewIdentifier stamps name with the time read from clock and adds the unit to the run. With dedupe set, an
// identifier that is already declared or present on disk gets a numeric suffix.
func NewIdentifier(run *MigrationRun, name string, clock registry.Clock, utc bool, dedupe bool) automa.Builder {
	return automa.NewStepBuilder().WithId(NewIdentifierStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if clock == nil {
				clock = registry.SystemClock{}
			}

			id := registry.Generate(name, utc, clock.Now())
			if dedupe {
				var declared []registry.Declared
				if run.Anchors != nil {
					declared = run.Anchors.Migrations
				}
				id = registry.Unique(id, registry.Taken(declared, run.Discovered))
			}

			run.Units = append(run.Units, registry.Unit{
				Identifier: id,
				ImportPath: unitImportPath(run.ImportPath, id),
			})

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"identifier": id.String(),
			}))
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Migration identifier generated")
		})
}

// PlanMissingUnits adds every discovered unit the registry does not declare yet, in chronological order.
func PlanMissingUnits(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(PlanMissingUnitsStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if run.Anchors == nil {
				return automa.FailureReport(stp, automa.WithError(errorx.IllegalState.New("registry anchors are not located")))
			}

			missing := registry.Missing(run.Discovered, run.Anchors.Migrations)
			for _, id := range missing {
				run.Units = append(run.Units, registry.Unit{
					Identifier: id,
					ImportPath: unitImportPath(run.ImportPath, id),
				})
			}

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"missing": joinIdentifiers(missing),
			}))
		})
}

// WriteScaffolds writes the unit file of every unit of the run. Rolling back removes the unit directories this step
// created. Nothing is written in a dry run.
func WriteScaffolds(run *MigrationRun) automa.Builder {
	var created []string

	return automa.NewStepBuilder().WithId(registry.StageScaffold).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if run.DryRun {
				return automa.SkippedReport(stp, automa.WithDetail("dry run, no unit files written"))
			}

			for _, u := range run.Units {
				dir := registry.UnitDir(run.Dir, u.Identifier)
				existed := fsx.IsDirectory(dir)

				p, err := registry.WriteUnit(u.Identifier, run.Dir)
				if err != nil {
					return automa.FailureReport(stp, automa.WithError(err))
				}
				run.Scaffolds = append(run.Scaffolds, p)
				if !existed {
					created = append(created, dir)
				}
			}

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"files": strings.Join(run.Scaffolds, ", "),
			}))
		}).
		WithRollback(func(ctx context.Context, stp automa.Step) *automa.Report {
			if len(created) == 0 {
				return automa.SkippedReport(stp, automa.WithDetail("no unit directory was created by this step"))
			}

			for _, dir := range created {
				if err := removeAll(dir); err != nil {
					return automa.FailureReport(stp, automa.WithError(err))
				}
			}

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"removed": strings.Join(created, ", "),
			}))
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to write migration units")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Migration units written")
		})
}

// RewriteRegistry declares the units of the run and regenerates the enumeration in memory.
func RewriteRegistry(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(registry.StageRewrite).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if run.Doc == nil {
				return automa.FailureReport(stp, automa.WithError(errorx.IllegalState.New("registry is not loaded")))
			}

			res, err := registry.Rewrite(run.Doc, run.Anchors, run.Opts, run.Units...)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			run.Rewrite = res

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"added":      joinIdentifiers(res.Added),
				"skipped":    joinIdentifiers(res.Skipped),
				"enumerated": strconv.Itoa(len(res.Migrations)),
			}))
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to rewrite registry %s", run.RegistryPath)
		})
}

// PersistRegistry backs up the registry and replaces it with the rewritten document. A dry run only renders it.
func PersistRegistry(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(registry.StageWrite).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if run.Doc == nil {
				return automa.FailureReport(stp, automa.WithError(errorx.IllegalState.New("registry is not loaded")))
			}

			if run.DryRun {
				out, err := registry.Render(run.Doc, run.Opts)
				if err != nil {
					return automa.FailureReport(stp, automa.WithError(err))
				}
				run.Rendered = out

				return automa.SkippedReport(stp,
					automa.WithDetail("dry run, registry not written"),
					automa.WithMetadata(map[string]string{"size": strconv.Itoa(len(out))}))
			}

			res, err := registry.Persist(run.Doc, run.Opts)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			run.Result = res

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"path":    res.Path,
				"backup":  res.BackupPath,
				"changed": strconv.FormatBool(res.Changed),
			}))
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to write registry %s", run.RegistryPath)
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Registry %s updated", run.RegistryPath)
		})
}

func unitImportPath(base string, id registry.Identifier) string {
	if base == "" {
		return id.String()
	}
	return base + "/" + id.String()
}

func joinIdentifiers(ids []registry.Identifier) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ", ")
}
