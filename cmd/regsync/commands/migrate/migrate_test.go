// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/internal/testutil"
	"github.com/stretchr/testify/require"
)

// setup returns a migrations directory inside a fresh module and resets the command state after the test.
func setup(t *testing.T) string {
	t.Helper()

	t.Cleanup(func() {
		testutil.ResetFlags(migrateCmd)
		config.Reset()
		clock = registry.SystemClock{}
	})

	return filepath.Join(testutil.ModuleDir(t, "example.com/app"), "db")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := testutil.PrepareSubCmdForTest(migrateCmd)
	root.PersistentFlags().StringP("output", "o", "", "output format")
	out, err := testutil.ExecuteCmd(t, root, append([]string{"migrate"}, args...)...)
	testutil.ResetFlags(migrateCmd)
	return out, err
}

func fixClock(t *testing.T, now time.Time) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mc := registry.NewMockClock(ctrl)
	mc.EXPECT().Now().Return(now).AnyTimes()
	clock = mc
}

func TestInitGenerateList(t *testing.T) {
	dir := setup(t)

	out, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "m20220101_000001_create_table")
	testutil.AssertFileContains(t, filepath.Join(dir, "migrator.go"),
		`m20220101_000001_create_table "example.com/app/db/m20220101_000001_create_table"`)

	fixClock(t, time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC))
	out, err = execute(t, "generate", "create_users", "--dir", dir, "--universal-time")
	require.NoError(t, err)
	require.Contains(t, out, "m20220102_030405_create_users")
	require.FileExists(t, filepath.Join(dir, "m20220102_030405_create_users", registry.UnitFileName))
	require.FileExists(t, filepath.Join(dir, "migrator.go.bak"))

	out, err = execute(t, "list", "--dir", dir, "-o", "json")
	require.NoError(t, err)
	var units []registry.UnitStatus
	require.NoError(t, json.Unmarshal([]byte(out), &units))
	require.Len(t, units, 2)
	for _, u := range units {
		require.True(t, u.Registered(), "%s is not registered", u.Identifier)
	}

	out, err = execute(t, "list", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "MIGRATION")
	require.Contains(t, out, "m20220102_030405_create_users")
}

func TestGenerate_DryRunWritesNothing(t *testing.T) {
	dir := setup(t)
	_, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	before := testutil.ReadFile(t, filepath.Join(dir, "migrator.go"))

	fixClock(t, time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC))
	out, err := execute(t, "generate", "add_index", "--dir", dir, "--dry-run", "-u")
	require.NoError(t, err)
	require.Contains(t, out, "&m20220102_030405_add_index.Migration{}")

	require.Equal(t, before, testutil.ReadFile(t, filepath.Join(dir, "migrator.go")))
	testutil.AssertNoFile(t, filepath.Join(dir, "m20220102_030405_add_index"))
	testutil.AssertNoFile(t, filepath.Join(dir, "migrator.go.bak"))
}

func TestGenerate_RejectsBadInput(t *testing.T) {
	dir := setup(t)

	_, err := execute(t, "generate", "bad-name", "--dir", dir)
	require.Error(t, err)

	_, err = execute(t, "generate", "ok", "--dir", dir, "--universal-time", "--local-time")
	require.Error(t, err)

	_, err = execute(t, "generate", "--dir", dir)
	require.Error(t, err)
}

func TestSyncRestoreClean(t *testing.T) {
	dir := setup(t)
	_, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)

	_, err = execute(t, "sync", "--dir", dir)
	require.NoError(t, err)
	out, err := execute(t, "sync", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "is up to date")

	_, err = registry.WriteUnit("m20220105_000000_manual", dir)
	require.NoError(t, err)
	original := testutil.ReadFile(t, filepath.Join(dir, "migrator.go"))

	out, err = execute(t, "sync", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Registered m20220105_000000_manual")
	testutil.AssertFileContains(t, filepath.Join(dir, "migrator.go"), "&m20220105_000000_manual.Migration{}")

	out, err = execute(t, "restore", "--dir", dir, "--yes")
	require.NoError(t, err)
	require.Contains(t, out, "Restored")
	require.Equal(t, original, testutil.ReadFile(t, filepath.Join(dir, "migrator.go")))

	_, err = execute(t, "clean", "--dir", dir)
	require.NoError(t, err)
	testutil.AssertNoFile(t, filepath.Join(dir, "migrator.go.bak"))
}

func TestRestore_Cancelled(t *testing.T) {
	dir := setup(t)
	_, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)

	confirmed := false
	prev := confirm
	confirm = func(string) (bool, error) { return confirmed, nil }
	t.Cleanup(func() { confirm = prev })

	out, err := execute(t, "restore", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Restore cancelled")
}

func TestRunnerCommands(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	cfg := config.Get()
	cfg.Runner.Command = "echo"
	require.NoError(t, config.Set(&cfg))

	out, err := execute(t, "up", "--dir", dir, "-n", "2", "--verbose")
	require.NoError(t, err)
	require.Equal(t, "run ./cmd up -n 2 -v\n", out)

	out, err = execute(t, "status", "--dir", dir)
	require.NoError(t, err)
	require.Equal(t, "run ./cmd status\n", out)

	// -n is only registered on up and down
	_, err = execute(t, "fresh", "--dir", dir, "-n", "1")
	require.Error(t, err)
}

func TestMigrate_InvalidOverride(t *testing.T) {
	dir := setup(t)

	_, err := execute(t, "list", "--dir", dir, "--method", "not-an-ident")
	require.Error(t, err)
}
