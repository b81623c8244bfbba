// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/internal/templates"
	"github.com/hashgraph/regsync/internal/workflows/notify"
	"github.com/hashgraph/regsync/pkg/fsx"
	"github.com/joomcode/errorx"
)

const (
	ResolveModuleStepId     = "resolve-module"
	WriteRegistryFileStepId = "write-registry-file"
	WriteReadmeStepId       = "write-readme"

	ReadmeFileName = "README.md"

	fallbackPackageName = "migrator"
)

// ResolveModule makes sure the migrations directory belongs to a Go module. When no go.mod is found above it and
// modulePath is set, a go.mod declaring modulePath is written into the directory. Rolling back removes that file.
func ResolveModule(run *MigrationRun, modulePath string, goVersion string) automa.Builder {
	var written string

	return automa.NewStepBuilder().WithId(ResolveModuleStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			abs, err := filepath.Abs(run.Dir)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(errorx.IllegalArgument.Wrap(err, "invalid migration directory %s", run.Dir)))
			}
			if err = os.MkdirAll(abs, fsx.DefaultDirPerm); err != nil {
				return automa.FailureReport(stp, automa.WithError(fsx.NewFileSystemError(err, "failed to create migration directory", abs)))
			}

			modDir, modName, err := registry.FindModule(abs)
			if err == nil {
				return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
					"module": modName,
					"goMod":  filepath.Join(modDir, "go.mod"),
				}))
			}
			if !errorx.IsOfType(err, errorx.DataUnavailable) {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			if modulePath == "" {
				return automa.FailureReport(stp, automa.WithError(
					errorx.IllegalArgument.New("no go.mod found above %s, pass --module to create one", abs).
						WithProperty(errorx.PropertyPayload(), "--module")))
			}

			data, err := registry.NewModFile(modulePath, goVersion)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			p := filepath.Join(abs, "go.mod")
			if err = fsx.WriteFileAtomic(p, data, fsx.DefaultFilePerm); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}
			written = p

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"module": modulePath,
				"goMod":  p,
			}))
		}).
		WithRollback(func(ctx context.Context, stp automa.Step) *automa.Report {
			if written == "" {
				return automa.SkippedReport(stp, automa.WithDetail("go.mod was not written by this step"))
			}
			if err := os.Remove(written); err != nil && !os.IsNotExist(err) {
				return automa.FailureReport(stp, automa.WithError(fsx.NewFileSystemError(err, "failed to remove go.mod", written)))
			}
			return automa.SuccessReport(stp)
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to resolve the Go module of %s", run.Dir)
		})
}

// WriteRegistryFile renders the registry template declaring the initial unit and schedules that unit for
// WriteScaffolds. An existing registry is only replaced when force is set.
func WriteRegistryFile(run *MigrationRun, force bool) automa.Builder {
	return automa.NewStepBuilder().WithId(WriteRegistryFileStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			p := run.initialRegistryPath()
			if fsx.IsRegularFile(p) && !force {
				return automa.FailureReport(stp, automa.WithError(
					errorx.Decorate(fsx.NewFileAlreadyExistsError(nil, p), "migrations are already initialized, use --force to overwrite")))
			}

			data := registryData(run, p)
			if err := templates.RenderTemplateFile(templates.RegistryTemplate, p, data); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			run.RegistryPath = p
			run.Units = append(run.Units, registry.Unit{
				Identifier: registry.InitialUnit,
				ImportPath: unitImportPath(run.ImportPath, registry.InitialUnit),
			})

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"path":    p,
				"package": data.Package,
			}))
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to write the registry file")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Registry file written")
		})
}

// WriteReadme writes the usage notes next to the registry file.
func WriteReadme(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(WriteReadmeStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			p := filepath.Join(run.UnitsDir(), ReadmeFileName)
			if err := templates.RenderTemplateFile(templates.ReadmeTemplate, p, registryData(run, run.RegistryPath)); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{"path": p}))
		})
}

func registryData(run *MigrationRun, registryPath string) templates.RegistryData {
	receiver := run.Opts.Receiver
	if receiver == "" {
		receiver = registry.DefaultReceiver
	}

	return templates.RegistryData{
		Package:      packageName(run.UnitsDir()),
		ImportPath:   run.ImportPath,
		Receiver:     receiver,
		Method:       run.Opts.Method,
		HandleType:   run.Opts.HandleType,
		FirstUnit:    registry.InitialUnit.String(),
		RegistryFile: filepath.Base(registryPath),
	}
}

// packageName derives the package clause of the registry from its directory, e.g. "db-migrations" gives
// "db_migrations".
func packageName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fallbackPackageName
	}

	name := strings.Map(func(r rune) rune {
		switch {
		case r == '-' || r == '.':
			return '_'
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			return unicode.ToLower(r)
		}
		return -1
	}, filepath.Base(abs))

	if name == "src" || !token.IsIdentifier(name) || registry.IsIdentifier(name) {
		return fallbackPackageName
	}
	return name
}
