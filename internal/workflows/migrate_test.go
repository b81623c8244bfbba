// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/automa-saga/automa"
	"github.com/golang/mock/gomock"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/internal/workflows/steps"
	"github.com/hashgraph/regsync/pkg/fsx"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModule = "example.com/app"

func initDir(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "migration")
	run := steps.NewMigrationRun(dir, registry.NewOptions())
	_, err := RunMigrationWorkflow(context.Background(), run, InitMigrationsWorkflow(run, InitOptions{ModulePath: testModule}))
	require.NoError(t, err)

	return dir
}

func declared(t *testing.T, dir string) []registry.Identifier {
	t.Helper()

	opts := registry.NewOptions()
	doc, err := registry.Load(registry.RegistryPath(dir, opts.RegistryFiles))
	require.NoError(t, err)
	anchors, err := registry.Locate(doc, opts)
	require.NoError(t, err)

	enumerated, ok := registry.Enumerated(anchors.Lookup.Func, opts.HandleType)
	require.True(t, ok)
	require.Equal(t, anchors.Identifiers(), enumerated)

	return enumerated
}

func fixedClock(t *testing.T, times ...time.Time) registry.Clock {
	ctrl := gomock.NewController(t)
	clock := registry.NewMockClock(ctrl)

	calls := make([]*gomock.Call, 0, len(times))
	for _, ts := range times {
		calls = append(calls, clock.EXPECT().Now().Return(ts))
	}
	gomock.InOrder(calls...)

	return clock
}

func generate(t *testing.T, dir string, name string, clock registry.Clock) (*steps.MigrationRun, error) {
	t.Helper()

	run := steps.NewMigrationRun(dir, registry.NewOptions())
	_, err := RunMigrationWorkflow(context.Background(), run, GenerateMigrationWorkflow(run, GenerateOptions{
		Name:   name,
		Clock:  clock,
		UTC:    true,
		Dedupe: true,
	}))
	return run, err
}

func TestInitMigrationsWorkflow(t *testing.T) {
	dir := initDir(t)

	require.FileExists(t, filepath.Join(dir, "go.mod"))
	require.FileExists(t, filepath.Join(dir, "migrator.go"))
	require.FileExists(t, filepath.Join(dir, steps.ReadmeFileName))
	require.FileExists(t, registry.UnitPath(dir, registry.InitialUnit))

	src, err := os.ReadFile(filepath.Join(dir, "migrator.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package migration\n")
	assert.Contains(t, string(src), `m20220101_000001_create_table "example.com/app/m20220101_000001_create_table"`)

	readme, err := os.ReadFile(filepath.Join(dir, steps.ReadmeFileName))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "`migrator.go`")

	assert.Equal(t, []registry.Identifier{registry.InitialUnit}, declared(t, dir))
}

func TestInitMigrationsWorkflow_RefusesToOverwrite(t *testing.T) {
	dir := initDir(t)

	run := steps.NewMigrationRun(dir, registry.NewOptions())
	_, err := RunMigrationWorkflow(context.Background(), run, InitMigrationsWorkflow(run, InitOptions{}))
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, fsx.FileAlreadyExists))

	run = steps.NewMigrationRun(dir, registry.NewOptions())
	_, err = RunMigrationWorkflow(context.Background(), run, InitMigrationsWorkflow(run, InitOptions{Force: true}))
	require.NoError(t, err)
}

func TestGenerateMigrationWorkflow(t *testing.T) {
	dir := initDir(t)
	clock := fixedClock(t, time.Date(2022, 1, 1, 0, 0, 2, 0, time.UTC))

	run, err := generate(t, dir, "test_name", clock)
	require.NoError(t, err)

	id := registry.Identifier("m20220101_000002_test_name")
	require.Equal(t, []registry.Identifier{id}, run.Identifiers())
	require.FileExists(t, registry.UnitPath(dir, id))
	require.FileExists(t, run.BackupPath())
	require.NotNil(t, run.Result)
	assert.True(t, run.Result.Changed)
	assert.Nil(t, run.Lock)

	assert.Equal(t, []registry.Identifier{registry.InitialUnit, id}, declared(t, dir))

	src, err := os.ReadFile(run.RegistryPath)
	require.NoError(t, err)
	assert.Contains(t, string(src), `m20220101_000002_test_name "example.com/app/m20220101_000002_test_name"`)
	assert.Contains(t, string(src), "\t\t&m20220101_000002_test_name.Migration{},\n")
}

func TestGenerateMigrationWorkflow_DedupesSameSecond(t *testing.T) {
	dir := initDir(t)
	now := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	clock := fixedClock(t, now, now)

	_, err := generate(t, dir, "add_user", clock)
	require.NoError(t, err)
	_, err = generate(t, dir, "add_user", clock)
	require.NoError(t, err)

	assert.Equal(t, []registry.Identifier{
		registry.InitialUnit,
		"m20230506_070809_add_user",
		"m20230506_070809_add_user_2",
	}, declared(t, dir))
}

func TestGenerateMigrationWorkflow_DryRun(t *testing.T) {
	dir := initDir(t)
	before, err := os.ReadFile(filepath.Join(dir, "migrator.go"))
	require.NoError(t, err)

	run := steps.NewMigrationRun(dir, registry.NewOptions())
	run.DryRun = true
	report, err := RunMigrationWorkflow(context.Background(), run, GenerateMigrationWorkflow(run, GenerateOptions{
		Name:  "preview",
		Clock: fixedClock(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)),
		UTC:   true,
	}))
	require.NoError(t, err)
	require.NotNil(t, report)

	id := registry.Identifier("m20240203_040506_preview")
	assert.Contains(t, string(run.Rendered), id.String())
	assert.NoDirExists(t, registry.UnitDir(dir, id))
	assert.NoFileExists(t, run.BackupPath())

	after, err := os.ReadFile(filepath.Join(dir, "migrator.go"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestGenerateMigrationWorkflow_BrokenRegistryWritesNothing(t *testing.T) {
	dir := initDir(t)
	registryPath := filepath.Join(dir, "migrator.go")
	require.NoError(t, os.WriteFile(registryPath, []byte("package migration\n\nfunc (Migrator) Migrations( {\n"), 0o644))

	run, err := generate(t, dir, "orphan", registry.SystemClock{})
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, registry.ParseError))
	assert.Empty(t, run.Units)

	ids, err := registry.Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []registry.Identifier{registry.InitialUnit}, ids)
	assert.NoFileExists(t, run.BackupPath())
}

func TestGenerateMigrationWorkflow_MissingEnumeration(t *testing.T) {
	dir := initDir(t)
	registryPath := filepath.Join(dir, "migrator.go")
	require.NoError(t, os.WriteFile(registryPath, []byte("package migration\n\ntype Migrator struct{}\n"), 0o644))

	_, err := generate(t, dir, "orphan", registry.SystemClock{})
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, registry.StructureError))
}

func TestSyncMigrationsWorkflow(t *testing.T) {
	dir := initDir(t)

	manual := registry.Identifier("m20221231_235959_by_hand")
	_, err := registry.WriteUnit(manual, dir)
	require.NoError(t, err)

	run := steps.NewMigrationRun(dir, registry.NewOptions())
	_, err = RunMigrationWorkflow(context.Background(), run, SyncMigrationsWorkflow(run))
	require.NoError(t, err)
	assert.Equal(t, []registry.Identifier{manual}, run.Rewrite.Added)
	assert.Equal(t, []registry.Identifier{registry.InitialUnit, manual}, declared(t, dir))

	// a synced registry is left as is
	run = steps.NewMigrationRun(dir, registry.NewOptions())
	_, err = RunMigrationWorkflow(context.Background(), run, SyncMigrationsWorkflow(run))
	require.NoError(t, err)
	assert.Empty(t, run.Rewrite.Added)
	assert.False(t, run.Result.Changed)
}

func TestRestoreAndCleanBackupWorkflows(t *testing.T) {
	dir := initDir(t)
	registryPath := filepath.Join(dir, "migrator.go")
	before, err := os.ReadFile(registryPath)
	require.NoError(t, err)

	_, err = generate(t, dir, "to_undo", fixedClock(t, time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)))
	require.NoError(t, err)

	run := steps.NewMigrationRun(dir, registry.NewOptions())
	_, err = RunMigrationWorkflow(context.Background(), run, RestoreRegistryWorkflow(run))
	require.NoError(t, err)

	restored, err := os.ReadFile(registryPath)
	require.NoError(t, err)
	assert.Equal(t, before, restored)

	run = steps.NewMigrationRun(dir, registry.NewOptions())
	_, err = RunMigrationWorkflow(context.Background(), run, CleanBackupWorkflow(run))
	require.NoError(t, err)
	assert.NoFileExists(t, run.BackupPath())

	// nothing left to clean
	run = steps.NewMigrationRun(dir, registry.NewOptions())
	report, err := RunMigrationWorkflow(context.Background(), run, CleanBackupWorkflow(run))
	require.NoError(t, err)
	assert.NotEqual(t, automa.StatusFailed, report.Status)

	// nothing left to restore
	run = steps.NewMigrationRun(dir, registry.NewOptions())
	_, err = RunMigrationWorkflow(context.Background(), run, RestoreRegistryWorkflow(run))
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, registry.IoError))
}

func TestRunMigrationWorkflow_RequiresArguments(t *testing.T) {
	_, err := RunMigrationWorkflow(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, errorx.IllegalArgument))
}
