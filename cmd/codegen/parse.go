package main

import (
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"github.com/delaneyj/stitch/cmd/codegen/templates"
)

const defaultMarker = "stitch:reactive"

var (
	errNoStructs = errors.New("no reactive structs found")
	errNoFields  = errors.New("struct does not embed signals.Fields")
)

// accessors parses src and renders the accessor file for every struct
// whose doc comment carries marker. Unexported fields become reactive in
// declaration order; a `stitch:"-"` tag opts a field out.
func accessors(name string, src []byte, marker string) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, name, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	file := &templates.File{Source: name, Package: f.Name.Name}
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			st, ok := ts.Type.(*ast.StructType)
			if !ok || !marked(marker, gen.Doc, ts.Doc) {
				continue
			}
			s, err := reactiveStruct(ts.Name.Name, st)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", ts.Name.Name, err)
			}
			file.Structs = append(file.Structs, s)
		}
	}
	if len(file.Structs) == 0 {
		return nil, errNoStructs
	}

	out, err := format.Source([]byte(templates.AccessorsGen(file)))
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return out, nil
}

func marked(marker string, docs ...*ast.CommentGroup) bool {
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, c := range doc.List {
			if strings.Contains(c.Text, marker) {
				return true
			}
		}
	}
	return false
}

func reactiveStruct(name string, st *ast.StructType) (templates.Struct, error) {
	s := templates.Struct{Name: name}
	embeds := false
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			if types.ExprString(field.Type) == "signals.Fields" {
				embeds = true
			}
			continue
		}
		if field.Tag != nil {
			raw, _ := strconv.Unquote(field.Tag.Value)
			if reflect.StructTag(raw).Get("stitch") == "-" {
				continue
			}
		}
		for _, ident := range field.Names {
			if ident.IsExported() || ident.Name == "_" {
				continue
			}
			s.Fields = append(s.Fields, templates.Field{
				Name:  ident.Name,
				Type:  types.ExprString(field.Type),
				Index: len(s.Fields),
			})
		}
	}
	if !embeds {
		return s, errNoFields
	}
	return s, nil
}
