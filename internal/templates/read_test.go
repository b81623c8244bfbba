// SPDX-License-Identifier: Apache-2.0

package templates

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRead_ValidFile(t *testing.T) {
	data, err := Read(UnitTemplate)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestRead_EmptyName(t *testing.T) {
	_, err := Read("")
	require.ErrorContains(t, err, "file name cannot be empty")
}

func TestRead_NonExistentFile(t *testing.T) {
	_, err := Read("files/does_not_exist.txt")
	require.ErrorContains(t, err, "failed to read embedded file")
}

func TestReadAsString_UnitIsValidGo(t *testing.T) {
	src, err := ReadAsString(UnitTemplate)
	require.NoError(t, err)
	require.NotContains(t, src, "{{")

	f, err := parser.ParseFile(token.NewFileSet(), "migration.go", src, parser.AllErrors)
	require.NoError(t, err)
	require.Equal(t, "migration", f.Name.Name)
}

func TestReadDir(t *testing.T) {
	files, err := ReadDir("files/migration")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{UnitTemplate, RegistryTemplate, ReadmeTemplate}, files)

	_, err = ReadDir(" ")
	require.ErrorContains(t, err, "directory name cannot be empty")
}

func TestRender_Registry(t *testing.T) {
	out, err := Render(RegistryTemplate, RegistryData{
		Package:    "migrator",
		ImportPath: "example.com/app/migrator",
		Receiver:   "Migrator",
		Method:     "Migrations",
		HandleType: "Migration",
		FirstUnit:  "m20220101_000001_create_table",
	})
	require.NoError(t, err)
	require.Contains(t, out, `m20220101_000001_create_table "example.com/app/migrator/m20220101_000001_create_table"`)
	require.Contains(t, out, "func (Migrator) Migrations() []Migration {")

	_, err = parser.ParseFile(token.NewFileSet(), "migrator.go", out, parser.AllErrors)
	require.NoError(t, err)
}

func TestRender_MissingField(t *testing.T) {
	_, err := Render(RegistryTemplate, map[string]string{"Package": "x"})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "failed to execute template"))
}
