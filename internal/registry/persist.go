// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"bytes"
	"go/format"
	"go/printer"
	"go/token"
	"slices"

	"github.com/hashgraph/regsync/pkg/fsx"
)

// PersistResult describes a registry file written by Persist.
type PersistResult struct {
	Path       string
	BackupPath string
	// Changed is false when the written bytes equal the bytes the document was loaded from.
	Changed    bool
	Size       int
	Migrations []Identifier
}

var printerConfig = printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}

// Persist backs up the registry file on disk, renders doc and atomically replaces the file with the result.
// Nothing is written when the backup fails. The backup is left in place.
func Persist(doc *Document, opts Options) (*PersistResult, error) {
	backup := BackupPath(doc.Path, opts.BackupSuffix)
	if err := fsx.CopyFile(doc.Path, backup); err != nil {
		return nil, ioErr(err, StageBackup, doc.Path, "failed to back up registry file %s to %s", doc.Path, backup)
	}

	out, ids, err := render(doc, opts)
	if err != nil {
		return nil, err
	}

	if err = fsx.WriteFileAtomic(doc.Path, out, doc.Mode); err != nil {
		return nil, ioErr(err, StageWrite, doc.Path, "failed to write registry file %s", doc.Path)
	}

	res := &PersistResult{
		Path:       doc.Path,
		BackupPath: backup,
		Changed:    !bytes.Equal(out, doc.Src),
		Size:       len(out),
		Migrations: ids,
	}

	opts.logger().Info().
		Str("path", res.Path).
		Str("backup", res.BackupPath).
		Bool("changed", res.Changed).
		Int("migrations", len(res.Migrations)).
		Msg("Registry file written")

	return res, nil
}

// Render returns the bytes Persist would write for doc.
func Render(doc *Document, opts Options) ([]byte, error) {
	out, _, err := render(doc, opts)
	return out, err
}

func render(doc *Document, opts Options) ([]byte, []Identifier, error) {
	var buf bytes.Buffer
	if err := printerConfig.Fprint(&buf, doc.Fset, doc.File); err != nil {
		return nil, nil, formatErr(err, doc.Path, "failed to print registry file %s", doc.Path)
	}

	expanded, err := expandEnumeration(doc.Path, buf.Bytes(), opts)
	if err != nil {
		return nil, nil, err
	}

	out, err := format.Source(expanded)
	if err != nil {
		return nil, nil, formatErr(err, doc.Path, "failed to format registry file %s", doc.Path)
	}

	ids, err := verify(doc.Path, out, opts)
	if err != nil {
		return nil, nil, err
	}

	return out, ids, nil
}

// expandEnumeration rewrites the enumeration body of src so that every element sits on its own line.
func expandEnumeration(path string, src []byte, opts Options) ([]byte, error) {
	doc, err := Parse(path, src)
	if err != nil {
		return nil, formatErr(err, path, "printed registry file %s does not parse", path)
	}

	lookup := FindEnumeration(doc.File, opts.Receiver, opts.Method)
	if lookup.Status != Found || lookup.Func.Body == nil {
		return nil, formatErr(nil, path, "printed registry file %s lost its enumeration method", path)
	}

	fn := lookup.Func
	ids, ok := Enumerated(fn, opts.HandleType)
	if !ok {
		return nil, formatErr(nil, path, "enumeration in %s is not a list of %s values", path, opts.HandleType)
	}

	rt, ok := sliceResult(fn)
	if !ok {
		return nil, formatErr(nil, path, "enumeration in %s does not return a slice", path)
	}

	tf := doc.Fset.File(doc.File.Pos())
	offset := func(p token.Pos) int { return tf.Offset(p) }
	typeText := src[offset(rt.Pos()):offset(rt.End())]

	var body bytes.Buffer
	body.WriteString("{\n\treturn ")
	body.Write(typeText)
	if len(ids) == 0 {
		body.WriteString("{}\n}")
	} else {
		body.WriteString("{\n")
		for _, id := range ids {
			body.WriteString("\t\t&" + id.String() + "." + opts.HandleType + "{},\n")
		}
		body.WriteString("\t}\n}")
	}

	var out bytes.Buffer
	out.Write(src[:offset(fn.Body.Lbrace)])
	out.Write(body.Bytes())
	out.Write(src[offset(fn.Body.Rbrace)+1:])

	return out.Bytes(), nil
}

// verify re-parses the formatted output and checks that the enumeration lists exactly the declared migrations in
// declaration order.
func verify(path string, out []byte, opts Options) ([]Identifier, error) {
	doc, err := Parse(path, out)
	if err != nil {
		return nil, formatErr(err, path, "formatted registry file %s does not parse", path)
	}

	declared := make([]Identifier, 0)
	for _, m := range ScanMigrations(doc.File) {
		declared = append(declared, m.Identifier)
	}

	lookup := FindEnumeration(doc.File, opts.Receiver, opts.Method)
	enumerated, ok := Enumerated(lookup.Func, opts.HandleType)
	if lookup.Status != Found || !ok {
		return nil, formatErr(nil, path, "formatted registry file %s has no generated enumeration", path)
	}

	if !slices.Equal(declared, enumerated) {
		return nil, formatErr(nil, path, "formatted registry file %s declares %v but enumerates %v", path, declared, enumerated)
	}

	return declared, nil
}

func formatErr(err error, path string, format string, args ...any) error {
	if err == nil {
		return FormatError.New(format, args...).
			WithProperty(PathProperty, path).
			WithProperty(StageProperty, StageFormat)
	}

	return FormatError.Wrap(err, format, args...).
		WithProperty(PathProperty, path).
		WithProperty(StageProperty, StageFormat)
}
