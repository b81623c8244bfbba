// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"go/ast"
	"go/token"
	"strconv"
)

// Unit is a migration to declare in the registry.
type Unit struct {
	Identifier Identifier
	ImportPath string
}

// RewriteResult describes the edits Rewrite made.
type RewriteResult struct {
	Added   []Identifier
	Skipped []Identifier
	// Migrations is the enumeration written into the method body, in file order.
	Migrations []Identifier
}

// Rewrite declares every unit that is not declared yet and regenerates the enumeration body from the declared
// migrations. Imports are sorted the way gofmt sorts them before the migrations are re-scanned, so the enumeration
// follows the order the file is persisted in. Rewrite edits doc.File in place and performs no I/O.
func Rewrite(doc *Document, anchors *Anchors, opts Options, units ...Unit) (*RewriteResult, error) {
	if anchors == nil || anchors.Lookup.Status != Found || anchors.ResultType == nil {
		return nil, StructureError.New("registry %s has no enumeration to rewrite", doc.Path).
			WithProperty(PathProperty, doc.Path).
			WithProperty(StageProperty, StageRewrite)
	}

	res := &RewriteResult{}
	decl := migrationDecl(doc.File, anchors)
	for _, u := range units {
		if anchors.Has(u.Identifier) || declaresName(decl, u.Identifier) {
			res.Skipped = append(res.Skipped, u.Identifier)
			continue
		}

		decl = addNamedImport(doc.Fset, doc.File, decl, u.Identifier.String(), u.ImportPath)
		res.Added = append(res.Added, u.Identifier)
	}

	ast.SortImports(doc.Fset, doc.File)

	anchors.ImportDecl = decl
	anchors.Migrations = ScanMigrations(doc.File)
	res.Migrations = anchors.Identifiers()

	fn := anchors.Lookup.Func
	dropComments(doc.File, fn.Body)
	fn.Body = enumerationBody(fn.Body, anchors.ResultType, opts.HandleType, res.Migrations)

	opts.logger().Debug().
		Str("path", doc.Path).
		Int("added", len(res.Added)).
		Int("skipped", len(res.Skipped)).
		Int("enumerated", len(res.Migrations)).
		Msg("Rewrote registry")

	return res, nil
}

// migrationDecl is the import declaration new units are added to: the one holding the last declared migration, or
// the last import declaration when there is none.
func migrationDecl(f *ast.File, anchors *Anchors) *ast.GenDecl {
	if n := len(anchors.Migrations); n > 0 {
		last := anchors.Migrations[n-1].Spec
		for _, d := range f.Decls {
			gd, ok := d.(*ast.GenDecl)
			if !ok || gd.Tok != token.IMPORT {
				continue
			}
			for _, s := range gd.Specs {
				if s == last {
					return gd
				}
			}
		}
	}
	return anchors.ImportDecl
}

func declaresName(decl *ast.GenDecl, id Identifier) bool {
	if decl == nil {
		return false
	}
	for _, s := range decl.Specs {
		spec := s.(*ast.ImportSpec)
		if spec.Name != nil && spec.Name.Name == id.String() {
			return true
		}
	}
	return false
}

// addNamedImport appends `name "path"` after the last spec of decl, or creates the first import declaration of f
// when decl is nil. It returns the declaration that received the spec.
func addNamedImport(fset *token.FileSet, f *ast.File, decl *ast.GenDecl, name, path string) *ast.GenDecl {
	spec := &ast.ImportSpec{
		Name: &ast.Ident{Name: name},
		Path: &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(path)},
	}

	if decl == nil {
		decl = &ast.GenDecl{Tok: token.IMPORT, TokPos: importDeclPos(fset, f)}
		f.Decls = append([]ast.Decl{decl}, f.Decls...)
	}

	// the new spec sits on the line of the previous one so that sorting keeps both in the same group, past any
	// trailing comment so that the comment stays with the previous spec
	pos := decl.TokPos
	if n := len(decl.Specs); n > 0 {
		pos = lineEnd(fset, f, decl.Specs[n-1].End())
	}
	spec.Name.NamePos = pos
	spec.Path.ValuePos = pos
	spec.EndPos = pos

	decl.Specs = append(decl.Specs, spec)
	if len(decl.Specs) > 1 && !decl.Lparen.IsValid() {
		decl.Lparen = decl.Pos()
	}

	f.Imports = append(f.Imports, spec)
	return decl
}

// importDeclPos is the position of a first import declaration: right after the package clause. A trailing comment on
// the package line takes the line break after it, so the declaration is then placed two lines further down for the
// printer to keep a blank line, but never past the first comment or declaration that follows.
func importDeclPos(fset *token.FileSet, f *ast.File) token.Pos {
	tf := fset.File(f.Package)
	if tf == nil {
		return f.Package
	}

	pkgLine := tf.Line(f.Package)
	trailing := token.NoPos
	next := token.NoPos
	for _, c := range f.Comments {
		if c.Pos() < f.Package {
			continue
		}
		if tf.Line(c.Pos()) > pkgLine {
			next = c.Pos()
			break
		}
		trailing = c.End()
	}
	if !trailing.IsValid() {
		return f.Package
	}

	if len(f.Decls) > 0 && (!next.IsValid() || f.Decls[0].Pos() < next) {
		next = f.Decls[0].Pos()
	}

	pos := trailing
	if pkgLine+2 <= tf.LineCount() {
		pos = tf.LineStart(pkgLine + 2)
	}
	if next.IsValid() && next < pos {
		pos = next
	}
	return pos
}

// lineEnd returns the end of the last comment on the line of pos that starts after pos, or pos itself.
func lineEnd(fset *token.FileSet, f *ast.File, pos token.Pos) token.Pos {
	tf := fset.File(pos)
	if tf == nil {
		return pos
	}

	line := tf.Line(pos)
	end := pos
	for _, c := range f.Comments {
		if c.Pos() <= pos {
			continue
		}
		if tf.Line(c.Pos()) != line {
			break
		}
		end = c.End()
	}
	return end
}

// dropComments removes the comment groups inside body so they are not printed into the regenerated body.
func dropComments(f *ast.File, body *ast.BlockStmt) {
	kept := f.Comments[:0]
	for _, c := range f.Comments {
		if c.Pos() > body.Lbrace && c.End() <= body.Rbrace {
			continue
		}
		kept = append(kept, c)
	}
	f.Comments = kept
}

func enumerationBody(old *ast.BlockStmt, result *ast.ArrayType, handle string, ids []Identifier) *ast.BlockStmt {
	elts := make([]ast.Expr, 0, len(ids))
	for _, id := range ids {
		elts = append(elts, &ast.UnaryExpr{
			Op: token.AND,
			X: &ast.CompositeLit{
				Type: &ast.SelectorExpr{X: ast.NewIdent(id.String()), Sel: ast.NewIdent(handle)},
			},
		})
	}

	return &ast.BlockStmt{
		Lbrace: old.Lbrace,
		List: []ast.Stmt{
			&ast.ReturnStmt{
				Results: []ast.Expr{&ast.CompositeLit{Type: cloneType(result), Elts: elts}},
			},
		},
		Rbrace: old.Rbrace,
	}
}

// cloneType copies the slice result type without positions.
func cloneType(e ast.Expr) ast.Expr {
	switch t := e.(type) {
	case *ast.ArrayType:
		return &ast.ArrayType{Elt: cloneType(t.Elt)}
	case *ast.StarExpr:
		return &ast.StarExpr{X: cloneType(t.X)}
	case *ast.SelectorExpr:
		return &ast.SelectorExpr{X: cloneType(t.X), Sel: ast.NewIdent(t.Sel.Name)}
	case *ast.Ident:
		return ast.NewIdent(t.Name)
	}
	return e
}
