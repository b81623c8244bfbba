// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"os"
	"strconv"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/internal/workflows/notify"
	"github.com/hashgraph/regsync/pkg/fsx"
)

const (
	RestoreBackupStepId = "restore-backup"
	RemoveBackupStepId  = "remove-backup"
)

// RestoreBackup replaces the registry with its backup. The backup must still parse; it is kept afterwards.
func RestoreBackup(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(RestoreBackupStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			backup := run.BackupPath()
			if !fsx.IsRegularFile(backup) {
				return automa.FailureReport(stp, automa.WithError(
					registry.IoError.New("no backup found at %s", backup).
						WithProperty(registry.PathProperty, backup).
						WithProperty(registry.StageProperty, RestoreBackupStepId)))
			}

			data, err := fsx.ReadFile(backup, 0)
			if err != nil {
				return automa.FailureReport(stp, automa.WithError(
					registry.IoError.Wrap(err, "failed to read backup %s", backup).
						WithProperty(registry.PathProperty, backup).
						WithProperty(registry.StageProperty, RestoreBackupStepId)))
			}

			if _, err = registry.Parse(backup, data); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			mode := fsx.DefaultFilePerm
			if fi, err := os.Stat(run.RegistryPath); err == nil {
				mode = fi.Mode().Perm()
			}

			if err = fsx.WriteFileAtomic(run.RegistryPath, data, mode); err != nil {
				return automa.FailureReport(stp, automa.WithError(
					registry.IoError.Wrap(err, "failed to restore registry %s", run.RegistryPath).
						WithProperty(registry.PathProperty, run.RegistryPath).
						WithProperty(registry.StageProperty, RestoreBackupStepId)))
			}

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"path":   run.RegistryPath,
				"backup": backup,
				"size":   strconv.Itoa(len(data)),
			}))
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepFailure(ctx, stp, rpt, "Failed to restore registry %s", run.RegistryPath)
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Registry restored from backup")
		})
}

// RemoveBackup deletes the registry backup. A missing backup is skipped.
func RemoveBackup(run *MigrationRun) automa.Builder {
	return automa.NewStepBuilder().WithId(RemoveBackupStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			backup := run.BackupPath()
			if !fsx.IsRegularFile(backup) {
				return automa.SkippedReport(stp, automa.WithDetail("no backup to remove"))
			}

			if err := os.Remove(backup); err != nil {
				return automa.FailureReport(stp, automa.WithError(
					registry.IoError.Wrap(err, "failed to remove backup %s", backup).
						WithProperty(registry.PathProperty, backup).
						WithProperty(registry.StageProperty, RemoveBackupStepId)))
			}

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{"removed": backup}))
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			notify.As().StepCompletion(ctx, stp, rpt, "Registry backup cleaned")
		})
}
