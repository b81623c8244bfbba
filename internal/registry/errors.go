// SPDX-License-Identifier: Apache-2.0

package registry

import "github.com/joomcode/errorx"

var (
	ErrNamespace = errorx.NewNamespace("registry")

	// IoError is returned for any file system failure: missing file, permission denied, failed backup or write.
	IoError = ErrNamespace.NewType("io_error")
	// ParseError is returned when the registry file is not valid Go source. Nothing has been modified yet.
	ParseError = ErrNamespace.NewType("parse_error")
	// StructureError is returned when the registry parses but the enumeration method is missing or ambiguous.
	StructureError = ErrNamespace.NewType("structure_error")
	// FormatError is returned when the rewritten registry fails to re-parse or breaks the declaration invariant.
	FormatError = ErrNamespace.NewType("format_error")

	PathProperty  = errorx.RegisterPrintableProperty("path")
	StageProperty = errorx.RegisterPrintableProperty("stage")
)

// Pipeline stage names, attached to errors and used as workflow step ids.
const (
	StageLoad     = "load-registry"
	StageLocate   = "locate-anchors"
	StageRewrite  = "rewrite-registry"
	StageBackup   = "backup-registry"
	StageFormat   = "format-registry"
	StageWrite    = "write-registry"
	StageScaffold = "write-scaffold"
	StageLock     = "lock-registry"
)

func ioErr(err error, stage, path, format string, args ...any) *errorx.Error {
	return IoError.Wrap(err, format, args...).
		WithProperty(PathProperty, path).
		WithProperty(StageProperty, stage)
}
