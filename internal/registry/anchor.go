// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"go/ast"
	"go/token"
	"strconv"
)

// Status is the outcome of looking up the enumeration method.
type Status int

const (
	NotFound Status = iota
	Found
	Ambiguous
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not-found"
	}
}

// Lookup holds the enumeration method when exactly one declaration matched.
type Lookup struct {
	Status Status
	Func   *ast.FuncDecl
	Count  int
}

// Declared is a migration import of the registry file.
type Declared struct {
	Identifier Identifier
	ImportPath string
	Spec       *ast.ImportSpec
}

// Anchors are the places in a registry file the rewriter edits.
type Anchors struct {
	// ImportDecl is the last import declaration, nil when the file has none. New units go after its last spec.
	ImportDecl *ast.GenDecl
	// Migrations lists the declared units in file order.
	Migrations []Declared
	Lookup     Lookup
	// ResultType is the declared result type of the enumeration method, always a slice type.
	ResultType *ast.ArrayType
}

// Identifiers returns the declared identifiers in file order.
func (a *Anchors) Identifiers() []Identifier {
	ids := make([]Identifier, 0, len(a.Migrations))
	for _, m := range a.Migrations {
		ids = append(ids, m.Identifier)
	}
	return ids
}

// Has reports whether id is declared.
func (a *Anchors) Has(id Identifier) bool {
	for _, m := range a.Migrations {
		if m.Identifier == id {
			return true
		}
	}
	return false
}

// Locate finds the insertion point, the declared migrations and the enumeration method of doc.
func Locate(doc *Document, opts Options) (*Anchors, error) {
	a := &Anchors{
		ImportDecl: lastImportDecl(doc.File),
		Migrations: ScanMigrations(doc.File),
		Lookup:     FindEnumeration(doc.File, opts.Receiver, opts.Method),
	}

	switch a.Lookup.Status {
	case NotFound:
		return a, structureErr(doc, "no method %s found on %s in %s", opts.Method, receiverLabel(opts.Receiver), doc.Path)
	case Ambiguous:
		return a, structureErr(doc, "%d declarations of method %s on %s in %s", a.Lookup.Count, opts.Method, receiverLabel(opts.Receiver), doc.Path)
	}

	fn := a.Lookup.Func
	if fn.Body == nil {
		return a, structureErr(doc, "method %s in %s has no body", opts.Method, doc.Path)
	}

	rt, ok := sliceResult(fn)
	if !ok {
		return a, structureErr(doc, "method %s in %s must return a single slice of a named or pointer type", opts.Method, doc.Path)
	}
	a.ResultType = rt

	opts.logger().Debug().
		Str("path", doc.Path).
		Int("declared", len(a.Migrations)).
		Bool("hasImports", a.ImportDecl != nil).
		Msg("Located registry anchors")

	return a, nil
}

func structureErr(doc *Document, format string, args ...any) error {
	return StructureError.New(format, args...).
		WithProperty(PathProperty, doc.Path).
		WithProperty(StageProperty, StageLocate)
}

func receiverLabel(receiver string) string {
	if receiver == "" {
		return "any receiver"
	}
	return receiver
}

func lastImportDecl(f *ast.File) *ast.GenDecl {
	var last *ast.GenDecl
	for _, d := range f.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			continue
		}
		last = gd
	}
	return last
}

// ScanMigrations returns the named imports whose local name is a migration identifier, in file order. A repeated
// identifier is reported once, at its first position.
func ScanMigrations(f *ast.File) []Declared {
	var out []Declared
	seen := map[Identifier]bool{}
	for _, d := range f.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			continue
		}

		for _, s := range gd.Specs {
			spec := s.(*ast.ImportSpec)
			if spec.Name == nil || !IsIdentifier(spec.Name.Name) {
				continue
			}

			id := Identifier(spec.Name.Name)
			if seen[id] {
				continue
			}
			seen[id] = true

			p, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				p = spec.Path.Value
			}
			out = append(out, Declared{Identifier: id, ImportPath: p, Spec: spec})
		}
	}
	return out
}

// enumerationFinder collects the method declarations named method on receiver.
type enumerationFinder struct {
	receiver string
	method   string
	matches  []*ast.FuncDecl
}

func (v *enumerationFinder) Visit(n ast.Node) ast.Visitor {
	switch node := n.(type) {
	case *ast.File:
		return v
	case *ast.FuncDecl:
		if node.Recv != nil && node.Name.Name == v.method {
			if v.receiver == "" || receiverTypeName(node) == v.receiver {
				v.matches = append(v.matches, node)
			}
		}
	}
	return nil
}

// FindEnumeration looks up the method on receiver among the top level declarations of f. An empty receiver
// matches any receiver type.
func FindEnumeration(f *ast.File, receiver, method string) Lookup {
	v := &enumerationFinder{receiver: receiver, method: method}
	ast.Walk(v, f)

	switch len(v.matches) {
	case 0:
		return Lookup{Status: NotFound}
	case 1:
		return Lookup{Status: Found, Func: v.matches[0], Count: 1}
	default:
		return Lookup{Status: Ambiguous, Count: len(v.matches)}
	}
}

func receiverTypeName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}

	expr := fn.Recv.List[0].Type
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.ParenExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return ""
		}
	}
}

func sliceResult(fn *ast.FuncDecl) (*ast.ArrayType, bool) {
	res := fn.Type.Results
	if res == nil || len(res.List) != 1 || len(res.List[0].Names) > 1 {
		return nil, false
	}

	at, ok := res.List[0].Type.(*ast.ArrayType)
	if !ok || at.Len != nil || !supportedElem(at.Elt) {
		return nil, false
	}

	return at, true
}

func supportedElem(e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		_, ok := t.X.(*ast.Ident)
		return ok
	case *ast.StarExpr:
		switch x := t.X.(type) {
		case *ast.Ident:
			return true
		case *ast.SelectorExpr:
			_, ok := x.X.(*ast.Ident)
			return ok
		}
	}
	return false
}

// Enumerated returns the identifiers listed by the body of fn when it has the generated shape
// `return []T{&id.Handle{}, ...}`. ok is false for any other body.
func Enumerated(fn *ast.FuncDecl, handle string) (ids []Identifier, ok bool) {
	if fn == nil || fn.Body == nil || len(fn.Body.List) != 1 {
		return nil, false
	}

	ret, isRet := fn.Body.List[0].(*ast.ReturnStmt)
	if !isRet || len(ret.Results) != 1 {
		return nil, false
	}

	lit, isLit := ret.Results[0].(*ast.CompositeLit)
	if !isLit {
		return nil, false
	}

	ids = make([]Identifier, 0, len(lit.Elts))
	for _, elt := range lit.Elts {
		id, isUnit := unitOf(elt, handle)
		if !isUnit {
			return nil, false
		}
		ids = append(ids, id)
	}

	return ids, true
}

func unitOf(e ast.Expr, handle string) (Identifier, bool) {
	u, ok := e.(*ast.UnaryExpr)
	if !ok || u.Op != token.AND {
		return "", false
	}

	lit, ok := u.X.(*ast.CompositeLit)
	if !ok || len(lit.Elts) != 0 {
		return "", false
	}

	sel, ok := lit.Type.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != handle {
		return "", false
	}

	pkg, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", false
	}

	return Identifier(pkg.Name), true
}
