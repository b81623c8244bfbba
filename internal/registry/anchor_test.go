// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse("migrator.go", []byte(src))
	require.NoError(t, err)
	return doc
}

func TestLocate_Found(t *testing.T) {
	doc := parse(t, initialRegistry)

	a, err := Locate(doc, NewOptions())
	require.NoError(t, err)
	require.Equal(t, Found, a.Lookup.Status)
	require.Equal(t, 1, a.Lookup.Count)
	require.NotNil(t, a.ImportDecl)
	require.NotNil(t, a.ResultType)
	require.Equal(t, []Identifier{"m20220101_000001_create_table"}, a.Identifiers())
	require.Equal(t, testImportPath+"/m20220101_000001_create_table", a.Migrations[0].ImportPath)

	ids, ok := Enumerated(a.Lookup.Func, DefaultHandleType)
	require.True(t, ok)
	require.Equal(t, []Identifier{"m20220101_000001_create_table"}, ids)
}

func TestLocate_PointerReceiverAndQualifiedResult(t *testing.T) {
	doc := parse(t, `package migrator

import (
	sea "example.com/sea"

	m20220101_000001_a "example.com/app/m/m20220101_000001_a"
)

type Migrator struct{}

func (m *Migrator) Migrations() []sea.Migration {
	return nil
}
`)

	a, err := Locate(doc, NewOptions())
	require.NoError(t, err)
	require.Equal(t, Found, a.Lookup.Status)
	require.Equal(t, []Identifier{"m20220101_000001_a"}, a.Identifiers())

	// the body is not in the generated shape
	_, ok := Enumerated(a.Lookup.Func, DefaultHandleType)
	require.False(t, ok)
}

func TestLocate_IgnoresLookalikes(t *testing.T) {
	doc := parse(t, `package migrator

import (
	"fmt"
	migration "example.com/app/m/m20220101_000003_unaliased_base"

	m20220101_000001_a "example.com/app/m/m20220101_000001_a"
)

// m20220101_000002_commented "example.com/app/m/m20220101_000002_commented"
var lookalike = "m20220101_000004_string \"example.com/x\""

type Migrator struct{}

func (Migrator) Migrations() []Migration {
	// func (Migrator) Migrations() []Migration
	fmt.Println(lookalike)
	return nil
}

func Migrations() []Migration { return nil }

func (Other) Migrations() []Migration { return nil }
`)

	a, err := Locate(doc, NewOptions())
	require.NoError(t, err)
	require.Equal(t, Found, a.Lookup.Status)
	require.Equal(t, []Identifier{"m20220101_000001_a"}, a.Identifiers())
}

func TestLocate_NotFound(t *testing.T) {
	doc := parse(t, `package migrator

type Migrator struct{}

func (Migrator) List() []Migration { return nil }
`)

	a, err := Locate(doc, NewOptions())
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, StructureError))
	require.Equal(t, NotFound, a.Lookup.Status)
}

func TestLocate_Ambiguous(t *testing.T) {
	src := `package migrator

type Migrator struct{}
type Other struct{}

func (Migrator) Migrations() []Migration { return nil }

func (Other) Migrations() []Migration { return nil }
`
	doc := parse(t, src)

	// a named receiver disambiguates
	a, err := Locate(doc, NewOptions())
	require.NoError(t, err)
	require.Equal(t, Found, a.Lookup.Status)

	// any receiver matches both
	a, err = Locate(doc, NewOptions(WithReceiver("")))
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, StructureError))
	require.Equal(t, Ambiguous, a.Lookup.Status)
	require.Equal(t, 2, a.Lookup.Count)
}

func TestLocate_UnsupportedResult(t *testing.T) {
	for name, src := range map[string]string{
		"map":        "package m\ntype Migrator struct{}\nfunc (Migrator) Migrations() map[string]Migration { return nil }\n",
		"array":      "package m\ntype Migrator struct{}\nfunc (Migrator) Migrations() [2]Migration { return [2]Migration{} }\n",
		"two values": "package m\ntype Migrator struct{}\nfunc (Migrator) Migrations() ([]Migration, error) { return nil, nil }\n",
		"no result":  "package m\ntype Migrator struct{}\nfunc (Migrator) Migrations() {}\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Locate(parse(t, src), NewOptions())
			require.Error(t, err)
			assert.True(t, errorx.IsOfType(err, StructureError))
		})
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "not-found", NotFound.String())
	assert.Equal(t, "ambiguous", Ambiguous.String())
}
