package markup

import (
	"strings"

	"github.com/delaneyj/stitch/expr"
)

// Node is one of *Element, *Text, *Expr or *Interp.
type Node interface {
	node()
}

type Attr struct {
	Name  string
	Value string
}

type Element struct {
	Tag        string
	Attrs      []Attr
	Directives []*Directive
	Children   []Node
	Line       int
	Column     int
}

// Directive returns the first directive of kind, or nil.
func (e *Element) Directive(kind DirectiveKind) *Directive {
	for _, d := range e.Directives {
		if d.Kind == kind {
			return d
		}
	}
	return nil
}

// Conditional returns the element's if/else-if/else directive, or nil.
func (e *Element) Conditional() *Directive {
	for _, d := range e.Directives {
		switch d.Kind {
		case DirectiveIf, DirectiveElseIf, DirectiveElse:
			return d
		}
	}
	return nil
}

func (e *Element) removeDirective(d *Directive) {
	for i, x := range e.Directives {
		if x == d {
			e.Directives = append(e.Directives[:i], e.Directives[i+1:]...)
			return
		}
	}
}

// Text is literal character data.
type Text struct {
	Value string
}

// Expr is text made of a single interpolation.
type Expr struct {
	X *expr.Expr
}

// Part is one segment of an interpolation plan; exactly one of Literal or X
// is meaningful.
type Part struct {
	Literal string
	X       *expr.Expr
}

// Interp is text mixing literals and interpolations.
type Interp struct {
	Parts []Part
}

func (*Element) node() {}
func (*Text) node()    {}
func (*Expr) node()    {}
func (*Interp) node()  {}

// Template is a parsed template with one or more roots.
type Template struct {
	Roots []Node
}

// Walk visits nodes depth first. Returning false from fn skips the node's
// children.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		if el, ok := n.(*Element); ok {
			Walk(el.Children, fn)
		}
	}
}

// String renders the template back to markup, mostly for debugging.
func (t *Template) String() string {
	var sb strings.Builder
	for _, n := range t.Roots {
		writeNode(&sb, n)
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Text:
		sb.WriteString(n.Value)
	case *Expr:
		sb.WriteString("{{ " + n.X.String() + " }}")
	case *Interp:
		for _, p := range n.Parts {
			if p.X != nil {
				sb.WriteString("{{ " + p.X.String() + " }}")
				continue
			}
			sb.WriteString(p.Literal)
		}
	case *Element:
		sb.WriteString("<" + n.Tag)
		for _, d := range n.Directives {
			sb.WriteString(" " + d.Name + `="` + d.Source + `"`)
		}
		for _, a := range n.Attrs {
			sb.WriteString(" " + a.Name + `="` + a.Value + `"`)
		}
		if IsVoid(n.Tag) {
			sb.WriteString(">")
			return
		}
		sb.WriteString(">")
		for _, c := range n.Children {
			writeNode(sb, c)
		}
		sb.WriteString("</" + n.Tag + ">")
	}
}
