// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path/filepath"
)

const (
	// SourceDirName is the conventional nested directory holding the units when it exists.
	SourceDirName = "src"
	// UnitFileName is the file written inside every unit directory.
	UnitFileName = "migration.go"
)

// ResolveDir returns dir/src when it is a directory and dir otherwise. Every path into the migrations tree is
// computed from the result so that units and the registry always live in the same source root.
func ResolveDir(dir string) string {
	withSrc := filepath.Join(dir, SourceDirName)
	if fi, err := os.Stat(withSrc); err == nil && fi.IsDir() {
		return withSrc
	}

	return dir
}

// RegistryPath returns the first candidate file that exists in the resolved dir. When none exists the last candidate
// is returned so that loading reports a missing file against a predictable path.
func RegistryPath(dir string, candidates []string) string {
	root := ResolveDir(dir)
	if len(candidates) == 0 {
		candidates = DefaultRegistryFiles
	}

	for _, name := range candidates {
		p := filepath.Join(root, name)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p
		}
	}

	return filepath.Join(root, candidates[len(candidates)-1])
}

// UnitDir returns the package directory of a unit.
func UnitDir(dir string, id Identifier) string {
	return filepath.Join(ResolveDir(dir), id.String())
}

// UnitPath returns the source file of a unit.
func UnitPath(dir string, id Identifier) string {
	return filepath.Join(UnitDir(dir, id), UnitFileName)
}

// BackupPath appends suffix to the registry path.
func BackupPath(registryPath string, suffix string) string {
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	return registryPath + suffix
}

// LockPath is the hidden sidecar file used to serialize runs against one registry.
func LockPath(registryPath string) string {
	return filepath.Join(filepath.Dir(registryPath), "."+filepath.Base(registryPath)+".lock")
}
