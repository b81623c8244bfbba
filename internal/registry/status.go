// SPDX-License-Identifier: Apache-2.0

package registry

import "slices"

// UnitStatus tells where an identifier shows up: as an import of the registry, in the enumeration body, and as a
// unit directory on disk. A fully registered unit is all three.
type UnitStatus struct {
	Identifier Identifier `json:"identifier" yaml:"identifier" toml:"identifier"`
	Declared   bool       `json:"declared" yaml:"declared" toml:"declared"`
	Enumerated bool       `json:"enumerated" yaml:"enumerated" toml:"enumerated"`
	OnDisk     bool       `json:"onDisk" yaml:"onDisk" toml:"onDisk"`
}

// Registered reports whether the unit is declared, enumerated and present on disk.
func (s UnitStatus) Registered() bool {
	return s.Declared && s.Enumerated && s.OnDisk
}

// Inspect compares the registry file of dir with its unit directories. It reads only and takes no lock.
// An enumeration body without the generated shape counts every unit as not enumerated.
func Inspect(dir string, opts Options) ([]UnitStatus, error) {
	doc, err := Load(RegistryPath(dir, opts.RegistryFiles))
	if err != nil {
		return nil, err
	}

	onDisk, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	var enumerated []Identifier
	if lookup := FindEnumeration(doc.File, opts.Receiver, opts.Method); lookup.Status == Found {
		enumerated, _ = Enumerated(lookup.Func, opts.HandleType)
	}

	byID := map[Identifier]*UnitStatus{}
	get := func(id Identifier) *UnitStatus {
		s, ok := byID[id]
		if !ok {
			s = &UnitStatus{Identifier: id}
			byID[id] = s
		}
		return s
	}

	for _, d := range ScanMigrations(doc.File) {
		get(d.Identifier).Declared = true
	}
	for _, id := range enumerated {
		get(id).Enumerated = true
	}
	for _, id := range onDisk {
		get(id).OnDisk = true
	}

	out := make([]UnitStatus, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b UnitStatus) int {
		switch {
		case a.Identifier < b.Identifier:
			return -1
		case a.Identifier > b.Identifier:
			return 1
		}
		return 0
	})

	return out, nil
}
