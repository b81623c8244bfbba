// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/stretchr/testify/require"
)

func TestPackageName(t *testing.T) {
	base := t.TempDir()
	tests := []struct {
		dir  string
		want string
	}{
		{dir: "migration", want: "migration"},
		{dir: "db-migrations", want: "db_migrations"},
		{dir: "Schema.V2", want: "schema_v2"},
		{dir: "src", want: fallbackPackageName},
		{dir: "2024", want: fallbackPackageName},
		{dir: "m20220101_000001_create_table", want: fallbackPackageName},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			require.Equal(t, tt.want, packageName(filepath.Join(base, tt.dir)))
		})
	}
}

func failingStep() automa.Builder {
	return automa.NewStepBuilder().WithId("fail").
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			return automa.FailureReport(stp, automa.WithError(errors.New("boom")))
		})
}

func TestWriteScaffolds_RollbackRemovesCreatedUnits(t *testing.T) {
	dir := t.TempDir()
	kept, err := registry.WriteUnit("m20220101_000001_kept", dir)
	require.NoError(t, err)

	run := NewMigrationRun(dir, registry.NewOptions())
	run.Units = []registry.Unit{
		{Identifier: "m20220101_000001_kept"},
		{Identifier: "m20220101_000002_new"},
	}

	wf, err := automa.NewWorkflowBuilder().WithId("scaffold-rollback").
		Steps(WriteScaffolds(run), failingStep()).
		WithExecutionMode(automa.RollbackOnError).
		Build()
	require.NoError(t, err)

	report := wf.Execute(context.Background())
	require.True(t, report.HasError())

	// the pre-existing unit directory survives, the one this run created does not
	require.FileExists(t, kept)
	_, err = os.Stat(registry.UnitDir(dir, "m20220101_000002_new"))
	require.True(t, os.IsNotExist(err))
}

func TestWriteScaffolds_DryRunSkips(t *testing.T) {
	dir := t.TempDir()
	run := NewMigrationRun(dir, registry.NewOptions())
	run.DryRun = true
	run.Units = []registry.Unit{{Identifier: "m20220101_000002_new"}}

	wf, err := automa.NewWorkflowBuilder().WithId("scaffold-dry-run").Steps(WriteScaffolds(run)).Build()
	require.NoError(t, err)

	report := wf.Execute(context.Background())
	require.False(t, report.HasError())
	require.Empty(t, run.Scaffolds)
	_, err = os.Stat(registry.UnitDir(dir, "m20220101_000002_new"))
	require.True(t, os.IsNotExist(err))
}

func TestMigrationRun_InitialRegistryPath(t *testing.T) {
	dir := t.TempDir()
	run := NewMigrationRun(dir, registry.NewOptions())
	require.Equal(t, filepath.Join(dir, "migrator.go"), run.initialRegistryPath())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "registry.go"), []byte("package x\n"), 0o644))
	require.Equal(t, filepath.Join(dir, "registry.go"), run.initialRegistryPath())
}

func TestMigrationRun_ReleaseWithoutLock(t *testing.T) {
	run := NewMigrationRun(t.TempDir(), registry.NewOptions())
	require.NoError(t, run.Release())
}
