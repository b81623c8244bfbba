// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ModuleDir creates a temporary Go module with the given module path and returns its root.
func ModuleDir(t *testing.T, modulePath string) string {
	t.Helper()

	dir := t.TempDir()
	gomod := "module " + modulePath + "\n\ngo 1.22\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(gomod), 0o644))
	return dir
}

// ReadFile returns the content of path and fails the test when it cannot be read.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	b, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read %s", path)
	return string(b)
}

// AssertFileContains asserts that the file at path contains every one of parts.
func AssertFileContains(t *testing.T, path string, parts ...string) {
	t.Helper()

	content := ReadFile(t, path)
	for _, p := range parts {
		require.Contains(t, content, p, "%s does not contain %q", path, p)
	}
}

// AssertNoFile asserts that nothing exists at path.
func AssertNoFile(t *testing.T, path string) {
	t.Helper()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "expected %s to not exist", path)
}
