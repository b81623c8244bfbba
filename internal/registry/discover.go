// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path/filepath"
	"slices"
)

// Discover lists the unit directories under the resolved dir: directories named like an identifier that contain the
// unit file. The result is sorted, which is chronological order.
func Discover(dir string) ([]Identifier, error) {
	root := ResolveDir(dir)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, ioErr(err, StageLoad, root, "failed to list migration directory %s", root)
	}

	var ids []Identifier
	for _, e := range entries {
		if !e.IsDir() || !IsIdentifier(e.Name()) {
			continue
		}
		if fi, err := os.Stat(filepath.Join(root, e.Name(), UnitFileName)); err != nil || !fi.Mode().IsRegular() {
			continue
		}
		ids = append(ids, Identifier(e.Name()))
	}

	slices.Sort(ids)
	return ids, nil
}

// Missing returns the discovered identifiers that are not declared, keeping the order of discovered.
func Missing(discovered []Identifier, declared []Declared) []Identifier {
	known := make(map[Identifier]bool, len(declared))
	for _, d := range declared {
		known[d.Identifier] = true
	}

	var out []Identifier
	for _, id := range discovered {
		if !known[id] {
			out = append(out, id)
		}
	}
	return out
}

// Taken merges declared and discovered identifiers into the set Unique checks against.
func Taken(declared []Declared, discovered []Identifier) map[Identifier]bool {
	taken := make(map[Identifier]bool, len(declared)+len(discovered))
	for _, d := range declared {
		taken[d.Identifier] = true
	}
	for _, id := range discovered {
		taken[id] = true
	}
	return taken
}
