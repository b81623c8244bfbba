// SPDX-License-Identifier: Apache-2.0

package fsx

import (
	"github.com/joomcode/errorx"
)

var (
	ErrorsNamespace   = errorx.NewNamespace("fsx")
	FileAlreadyExists = ErrorsNamespace.NewType("file_already_exists")
	FileNotFound      = ErrorsNamespace.NewType("file_not_found")
	FileSystemError   = ErrorsNamespace.NewType("filesystem_error")
	FileTypeError     = ErrorsNamespace.NewType("file_type_error")

	pathProperty = errorx.RegisterPrintableProperty("path")
)

const (
	fileNotFoundErrorMsg      string = "file not found [ path = '%s' ]"
	fileAlreadyExistsErrorMsg        = "file already exists [ path = '%s' ]"
	fileTypeErrorMsg                 = "unexpected file type [ path = '%s', expected = '%s' ]"
)

func NewFileNotFoundError(cause error, path string) *errorx.Error {
	err := FileNotFound.New(fileNotFoundErrorMsg, path).WithProperty(pathProperty, path)
	if cause != nil {
		return err.WithUnderlyingErrors(cause)
	}

	return err
}

func NewFileAlreadyExistsError(cause error, path string) *errorx.Error {
	err := FileAlreadyExists.New(fileAlreadyExistsErrorMsg, path).WithProperty(pathProperty, path)
	if cause != nil {
		return err.WithUnderlyingErrors(cause)
	}

	return err
}

func NewFileTypeError(cause error, expected string, path string) *errorx.Error {
	err := FileTypeError.New(fileTypeErrorMsg, path, expected).WithProperty(pathProperty, path)
	if cause != nil {
		return err.WithUnderlyingErrors(cause)
	}

	return err
}

// NewFileSystemError wraps an OS level failure on path.
func NewFileSystemError(cause error, msg string, path string) *errorx.Error {
	return FileSystemError.Wrap(cause, "%s [ path = '%s' ]", msg, path).WithProperty(pathProperty, path)
}

// PathOf returns the path attached to an fsx error, if any.
func PathOf(err error) (string, bool) {
	ex := errorx.Cast(err)
	if ex == nil {
		return "", false
	}

	v, ok := ex.Property(pathProperty)
	if !ok {
		return "", false
	}

	p, ok := v.(string)
	return p, ok
}
