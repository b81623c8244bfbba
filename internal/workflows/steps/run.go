// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"path/filepath"

	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/pkg/fsx"
)

// MigrationRun is the state the steps of one registry workflow share. Each step fills in the fields the next ones
// read; a workflow is executed once per run.
type MigrationRun struct {
	Dir    string
	Opts   registry.Options
	DryRun bool

	RegistryPath string
	ImportPath   string

	Lock       *registry.Lock
	Doc        *registry.Document
	Anchors    *registry.Anchors
	Discovered []registry.Identifier

	// Units are the migrations this run declares.
	Units []registry.Unit
	// Scaffolds are the unit files written by this run.
	Scaffolds []string

	Rewrite  *registry.RewriteResult
	Result   *registry.PersistResult
	Rendered []byte
}

// NewMigrationRun prepares a run against the registry of dir.
func NewMigrationRun(dir string, opts registry.Options) *MigrationRun {
	return &MigrationRun{
		Dir:          dir,
		Opts:         opts,
		RegistryPath: registry.RegistryPath(dir, opts.RegistryFiles),
	}
}

// UnitsDir is the directory holding the unit packages and the registry file.
func (r *MigrationRun) UnitsDir() string {
	return registry.ResolveDir(r.Dir)
}

// BackupPath is where Persist copies the registry before replacing it.
func (r *MigrationRun) BackupPath() string {
	return registry.BackupPath(r.RegistryPath, r.Opts.BackupSuffix)
}

// Declared returns the identifiers currently declared in the registry, nil before the anchors are located.
func (r *MigrationRun) Declared() []registry.Identifier {
	if r.Anchors == nil {
		return nil
	}
	return r.Anchors.Identifiers()
}

// Identifiers returns the identifiers of the units this run declares.
func (r *MigrationRun) Identifiers() []registry.Identifier {
	ids := make([]registry.Identifier, 0, len(r.Units))
	for _, u := range r.Units {
		ids = append(ids, u.Identifier)
	}
	return ids
}

// Release drops the registry lock if this run holds it.
func (r *MigrationRun) Release() error {
	if r.Lock == nil {
		return nil
	}

	err := r.Lock.Release()
	r.Lock = nil
	return err
}

// initialRegistryPath is the registry file init creates: the existing one when there is one, otherwise the first
// candidate name.
func (r *MigrationRun) initialRegistryPath() string {
	for _, name := range r.Opts.RegistryFiles {
		p := filepath.Join(r.UnitsDir(), name)
		if fsx.IsRegularFile(p) {
			return p
		}
	}

	names := r.Opts.RegistryFiles
	if len(names) == 0 {
		names = registry.DefaultRegistryFiles
	}
	return filepath.Join(r.UnitsDir(), names[0])
}
