// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"

	"github.com/hashgraph/regsync/pkg/fsx"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// maxRegistrySize bounds how much of a registry file is read into memory.
const maxRegistrySize = 16 << 20

// Document is a parsed registry file. File is edited in place by Rewrite; Src keeps the bytes it was parsed from.
type Document struct {
	Path string
	Mode os.FileMode
	Src  []byte
	Fset *token.FileSet
	File *ast.File
}

// Load reads and parses the registry file at path. Nothing is written, not even a backup.
func Load(path string) (*Document, error) {
	fi, exists, err := fsx.PathExists(path)
	if err != nil {
		return nil, ioErr(err, StageLoad, path, "failed to stat registry file %s", path)
	}
	if !exists {
		return nil, ioErr(os.ErrNotExist, StageLoad, path, "registry file %s does not exist", path)
	}

	src, err := fsx.ReadFile(path, maxRegistrySize)
	if err != nil {
		return nil, ioErr(err, StageLoad, path, "failed to read registry file %s", path)
	}

	doc, err := Parse(path, src)
	if err != nil {
		return nil, err
	}
	doc.Mode = fi.Mode().Perm()

	return doc, nil
}

// Parse parses src as the registry file named path.
func Parse(path string, src []byte) (*Document, error) {
	if _, _, err := transform.Bytes(encoding.UTF8Validator, src); err != nil {
		return nil, ParseError.Wrap(err, "registry file %s is not valid UTF-8", path).
			WithProperty(PathProperty, path).
			WithProperty(StageProperty, StageLoad)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, ParseError.Wrap(err, "failed to parse registry file %s", path).
			WithProperty(PathProperty, path).
			WithProperty(StageProperty, StageLoad)
	}

	return &Document{
		Path: path,
		Mode: fsx.DefaultFilePerm,
		Src:  src,
		Fset: fset,
		File: file,
	}, nil
}
