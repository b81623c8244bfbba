// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []Identifier{"m20220101_000002_b", "m20220101_000001_a"} {
		_, err := WriteUnit(id, dir)
		require.NoError(t, err)
	}
	// not units: no unit file, bad name, plain file
	require.NoError(t, os.Mkdir(filepath.Join(dir, "m20220101_000003_empty"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "helpers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m20220101_000004_file"), nil, 0o644))

	ids, err := Discover(dir)
	require.NoError(t, err)
	require.Equal(t, []Identifier{"m20220101_000001_a", "m20220101_000002_b"}, ids)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestMissingAndTaken(t *testing.T) {
	declared := []Declared{{Identifier: "m20220101_000001_a"}}
	discovered := []Identifier{"m20220101_000001_a", "m20220101_000002_b"}

	require.Equal(t, []Identifier{"m20220101_000002_b"}, Missing(discovered, declared))
	require.Empty(t, Missing(discovered[:1], declared))

	taken := Taken(declared, discovered)
	require.Len(t, taken, 2)
	require.Equal(t, Identifier("m20220101_000002_b_2"), Unique("m20220101_000002_b", taken))
}
