// SPDX-License-Identifier: Apache-2.0

package fsx

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

const (
	Directory   = "directory"
	RegularFile = "regular file"

	DefaultDirPerm  os.FileMode = 0o755
	DefaultFilePerm os.FileMode = 0o644
)

// PathExists returns the file info of path and whether it exists. A missing path is not an error.
func PathExists(path string) (os.FileInfo, bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, NewFileSystemError(err, "failed to stat path", path)
	}

	return fi, true, nil
}

// IsDirectory reports whether path exists and is a directory.
func IsDirectory(path string) bool {
	fi, exists, err := PathExists(path)
	return err == nil && exists && fi.IsDir()
}

// IsRegularFile reports whether path exists and is a regular file.
func IsRegularFile(path string) bool {
	fi, exists, err := PathExists(path)
	return err == nil && exists && fi.Mode().IsRegular()
}

// ReadFile reads the whole file. A positive maxFileSize rejects larger files.
func ReadFile(path string, maxFileSize int64) ([]byte, error) {
	fi, exists, err := PathExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, NewFileNotFoundError(nil, path)
	}
	if !fi.Mode().IsRegular() {
		return nil, NewFileTypeError(nil, RegularFile, path)
	}
	if maxFileSize > 0 && fi.Size() > maxFileSize {
		return nil, NewFileSystemError(nil, "file is larger than the allowed size", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewFileSystemError(err, "failed to read file", path)
	}

	return data, nil
}

// CopyFile copies src to dst, overwriting dst, and gives dst the permission bits of src.
func CopyFile(src string, dst string) error {
	sfi, exists, err := PathExists(src)
	if err != nil {
		return err
	}
	if !exists {
		return NewFileNotFoundError(nil, src)
	}
	if !sfi.Mode().IsRegular() {
		return NewFileTypeError(nil, RegularFile, src)
	}

	dfi, exists, err := PathExists(dst)
	if err != nil {
		return err
	}
	if exists {
		if os.SameFile(sfi, dfi) {
			return nil
		}
		if dfi.IsDir() {
			return NewFileTypeError(nil, RegularFile, dst)
		}
	}

	if !IsDirectory(filepath.Dir(dst)) {
		return NewFileNotFoundError(nil, filepath.Dir(dst))
	}

	return copyFileContents(src, dst, sfi.Mode().Perm())
}

func copyFileContents(src, dst string, perm os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return NewFileSystemError(err, "failed to open the source file", src)
	}
	defer Close(srcFile)

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return NewFileSystemError(err, "failed to create the destination file", dst)
	}
	defer Close(dstFile)

	if _, err = io.Copy(dstFile, srcFile); err != nil {
		return NewFileSystemError(err, "failed to copy the file contents", src)
	}

	// O_CREATE only applies perm to new files
	if err = dstFile.Chmod(perm); err != nil {
		return NewFileSystemError(err, "failed to set permissions on the destination file", dst)
	}

	if err = dstFile.Sync(); err != nil {
		return NewFileSystemError(err, "failed to sync the destination file", dst)
	}

	return nil
}

// WriteFileAtomic replaces path with data. The bytes go to a temporary file in the same directory which is synced
// and renamed over path, so readers observe either the old or the new content. The parent directory is synced after
// the rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if !IsDirectory(dir) {
		return NewFileNotFoundError(nil, dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return NewFileSystemError(err, "failed to create temporary file", dir)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		Close(tmp)
		if !committed {
			Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return NewFileSystemError(err, "failed to write temporary file", tmpName)
	}
	if err = tmp.Chmod(perm); err != nil {
		return NewFileSystemError(err, "failed to set permissions on temporary file", tmpName)
	}
	if err = tmp.Sync(); err != nil {
		return NewFileSystemError(err, "failed to sync temporary file", tmpName)
	}
	if err = tmp.Close(); err != nil {
		return NewFileSystemError(err, "failed to close temporary file", tmpName)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return NewFileSystemError(err, "failed to replace file", path)
	}
	committed = true

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return NewFileSystemError(err, "failed to open directory", dir)
	}
	defer Close(d)

	if err = d.Sync(); err != nil {
		return NewFileSystemError(err, "failed to sync directory", dir)
	}

	return nil
}
