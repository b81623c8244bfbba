// SPDX-License-Identifier: Apache-2.0

package templates

import (
	"os"
	"path/filepath"

	"github.com/hashgraph/regsync/pkg/fsx"
)

// CopyTemplateFile writes the embedded file src to dst verbatim, creating the parent directory when needed.
// An existing dst is replaced.
func CopyTemplateFile(src string, dst string) error {
	content, err := Read(src)
	if err != nil {
		return fsx.NewFileSystemError(err, "failed to read template file", src)
	}

	return writeFile(dst, content)
}

// RenderTemplateFile renders the embedded template src with data and writes the result to dst.
func RenderTemplateFile(src string, dst string, data any) error {
	content, err := Render(src, data)
	if err != nil {
		return err
	}

	return writeFile(dst, []byte(content))
}

func writeFile(dst string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), fsx.DefaultDirPerm); err != nil {
		return fsx.NewFileSystemError(err, "failed to create directory", filepath.Dir(dst))
	}

	return fsx.WriteFileAtomic(dst, content, fsx.DefaultFilePerm)
}
