// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testImportPath = "example.com/app/migrator"

const initialRegistry = `// Package migrator lists the migrations of this module in the order they are applied.
package migrator

import (
	"context"
	"database/sql"

	m20220101_000001_create_table "example.com/app/migrator/m20220101_000001_create_table"
)

// Migration is implemented by every migration unit.
type Migration interface {
	Up(ctx context.Context, tx *sql.Tx) error
	Down(ctx context.Context, tx *sql.Tx) error
}

// Migrator enumerates the registered migrations.
type Migrator struct{}

func (Migrator) Migrations() []Migration {
	return []Migration{
		&m20220101_000001_create_table.Migration{},
	}
}
`

const syncedRegistry = `// Package migrator lists the migrations of this module in the order they are applied.
package migrator

import (
	"context"
	"database/sql"

	m20220101_000001_create_table "example.com/app/migrator/m20220101_000001_create_table"
	m20220101_000002_test_name "example.com/app/migrator/m20220101_000002_test_name"
)

// Migration is implemented by every migration unit.
type Migration interface {
	Up(ctx context.Context, tx *sql.Tx) error
	Down(ctx context.Context, tx *sql.Tx) error
}

// Migrator enumerates the registered migrations.
type Migrator struct{}

func (Migrator) Migrations() []Migration {
	return []Migration{
		&m20220101_000001_create_table.Migration{},
		&m20220101_000002_test_name.Migration{},
	}
}
`

const bareRegistry = `package migrator

type Migration interface{}

type Migrator struct{}

func (Migrator) Migrations() []Migration {
	return nil
}
`

// writeRegistry creates dir/migrator.go with src and returns dir and the file path.
func writeRegistry(t *testing.T, src string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "migrator.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return dir, path
}

func unit(id string) Unit {
	return Unit{Identifier: Identifier(id), ImportPath: testImportPath + "/" + id}
}

// syncFile runs the load, locate, rewrite and persist steps on path.
func syncFile(t *testing.T, path string, opts Options, units ...Unit) (*PersistResult, *RewriteResult) {
	t.Helper()
	doc, err := Load(path)
	require.NoError(t, err)
	anchors, err := Locate(doc, opts)
	require.NoError(t, err)
	rr, err := Rewrite(doc, anchors, opts, units...)
	require.NoError(t, err)
	pr, err := Persist(doc, opts)
	require.NoError(t, err)
	return pr, rr
}
