// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path"
	"path/filepath"

	"github.com/joomcode/errorx"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

const goModFile = "go.mod"

// ImportPathOf returns the import path of the package directory dir. Declared migrations take precedence: their
// import paths already name the units directory. Otherwise the path is derived from the nearest go.mod above dir.
func ImportPathOf(dir string, declared []Declared) (string, error) {
	for _, d := range declared {
		if path.Base(d.ImportPath) == d.Identifier.String() {
			return path.Dir(d.ImportPath), nil
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errorx.IllegalArgument.Wrap(err, "invalid migration directory %s", dir)
	}

	modDir, modPath, err := FindModule(abs)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(modDir, abs)
	if err != nil {
		return "", errorx.IllegalState.Wrap(err, "failed to relate %s to module root %s", abs, modDir)
	}
	if rel == "." {
		return modPath, nil
	}

	return path.Join(modPath, filepath.ToSlash(rel)), nil
}

// FindModule walks up from dir to the first directory holding a go.mod and returns that directory and the module
// path it declares.
func FindModule(dir string) (string, string, error) {
	for cur := dir; ; {
		gomod := filepath.Join(cur, goModFile)
		data, err := os.ReadFile(gomod)
		if err == nil {
			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return "", "", errorx.IllegalFormat.New("%s has no module directive", gomod)
			}
			return cur, modPath, nil
		}
		if !os.IsNotExist(err) {
			return "", "", ioErr(err, StageLoad, gomod, "failed to read %s", gomod)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", "", errorx.DataUnavailable.New("no %s found above %s", goModFile, dir)
		}
		cur = parent
	}
}

// NewModFile returns the content of a go.mod declaring modulePath.
func NewModFile(modulePath string, goVersion string) ([]byte, error) {
	if err := module.CheckPath(modulePath); err != nil {
		return nil, errorx.IllegalArgument.Wrap(err, "invalid module path %q", modulePath)
	}

	f := &modfile.File{}
	if err := f.AddModuleStmt(modulePath); err != nil {
		return nil, errorx.IllegalArgument.Wrap(err, "invalid module path %q", modulePath)
	}
	if goVersion != "" {
		if err := f.AddGoStmt(goVersion); err != nil {
			return nil, errorx.IllegalArgument.Wrap(err, "invalid go version %q", goVersion)
		}
	}

	data, err := f.Format()
	if err != nil {
		return nil, errorx.IllegalState.Wrap(err, "failed to format go.mod for %s", modulePath)
	}

	return data, nil
}
