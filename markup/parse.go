// Package markup parses template source into an AST of elements, text and
// interpolations with their directives already compiled.
package markup

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/delaneyj/stitch/expr"
)

var ErrNoRoot = errors.New("markup: template has no root node")

// ParseError locates a parse failure in the original source.
type ParseError struct {
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("markup: %d:%d: %s", e.Line, e.Column, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// IsVoid reports whether tag never has children or a closing tag.
func IsVoid(tag string) bool {
	return voidElements[tag]
}

// Parse turns template source into a Template. On failure no partial AST is
// returned.
func Parse(src string) (*Template, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	roots, err := p.parse()
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, &ParseError{Line: 1, Column: 1, Msg: "no root node", Err: ErrNoRoot}
	}
	return &Template{Roots: roots}, nil
}

func MustParse(src string) *Template {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src    string
	masked string
	// masked offsets where one character was expanded into an entity
	shifts []int

	roots []Node
	stack []*Element

	pending      strings.Builder
	pendingStart int
}

func newParser(src string) (*parser, error) {
	p := &parser{src: src}
	masked, err := p.mask(src)
	if err != nil {
		return nil, err
	}
	p.masked = masked
	return p, nil
}

// mask escapes angle brackets inside {{ }} so the tokenizer keeps
// interpolations as text. The tokenizer unescapes them again.
func (p *parser) mask(src string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(src))
	for i := 0; i < len(src); {
		open := strings.Index(src[i:], "{{")
		if open < 0 {
			sb.WriteString(src[i:])
			break
		}
		open += i
		sb.WriteString(src[i:open])
		end := strings.Index(src[open+2:], "}}")
		if end < 0 {
			line, col := position(src, open)
			return "", &ParseError{Line: line, Column: col, Msg: "unterminated {{"}
		}
		end += open + 2
		for j := open; j < end; j++ {
			switch src[j] {
			case '<':
				p.shifts = append(p.shifts, sb.Len())
				sb.WriteString("&lt;")
			case '>':
				p.shifts = append(p.shifts, sb.Len())
				sb.WriteString("&gt;")
			case '&':
				p.shifts = append(p.shifts, sb.Len())
				sb.WriteString("&amp;")
			default:
				sb.WriteByte(src[j])
			}
		}
		i = end
	}
	return sb.String(), nil
}

// position converts a byte offset in s to a 1-based line and column.
func position(s string, offset int) (line, col int) {
	before := s[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - strings.LastIndexByte(before, '\n')
	return line, col
}

func (p *parser) unmask(offset int) int {
	n := sort.SearchInts(p.shifts, offset)
	orig := offset
	for _, s := range p.shifts[:n] {
		switch p.masked[s+1] {
		case 'l', 'g':
			orig -= 3
		default:
			orig -= 4
		}
	}
	return orig
}

func (p *parser) errorAt(offset int, err error, format string, args ...any) error {
	line, col := position(p.src, p.unmask(offset))
	return &ParseError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (p *parser) parse() ([]Node, error) {
	z := html.NewTokenizer(strings.NewReader(p.masked))
	offset := 0

	for {
		tt := z.Next()
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, p.errorAt(start, err, "tokenizer: %v", err)
			}
			if err := p.flushText(); err != nil {
				return nil, err
			}
			if len(p.stack) > 0 {
				top := p.stack[len(p.stack)-1]
				return nil, &ParseError{Line: top.Line, Column: top.Column, Msg: fmt.Sprintf("unclosed <%s>", top.Tag)}
			}
			linkChains(p.roots)
			return trimRoots(p.roots), nil

		case html.TextToken:
			if p.pending.Len() == 0 {
				p.pendingStart = start
			}
			p.pending.Write(z.Text())

		case html.StartTagToken, html.SelfClosingTagToken:
			if err := p.flushText(); err != nil {
				return nil, err
			}
			el, err := p.element(z, start)
			if err != nil {
				return nil, err
			}
			p.appendNode(el)
			if tt == html.StartTagToken && !IsVoid(el.Tag) {
				p.stack = append(p.stack, el)
			}

		case html.EndTagToken:
			if err := p.flushText(); err != nil {
				return nil, err
			}
			name, _ := z.TagName()
			tag := string(name)
			if IsVoid(tag) {
				continue
			}
			if len(p.stack) == 0 {
				return nil, p.errorAt(start, nil, "unexpected </%s>", tag)
			}
			top := p.stack[len(p.stack)-1]
			if top.Tag != tag {
				return nil, p.errorAt(start, nil, "expected </%s>, found </%s>", top.Tag, tag)
			}
			p.stack = p.stack[:len(p.stack)-1]
			linkChains(top.Children)

		case html.CommentToken, html.DoctypeToken:
			if err := p.flushText(); err != nil {
				return nil, err
			}
		}
	}
}

func (p *parser) appendNode(n Node) {
	if len(p.stack) == 0 {
		p.roots = append(p.roots, n)
		return
	}
	top := p.stack[len(p.stack)-1]
	top.Children = append(top.Children, n)
}

func (p *parser) element(z *html.Tokenizer, start int) (*Element, error) {
	name, hasAttr := z.TagName()
	line, col := position(p.src, p.unmask(start))
	el := &Element{Tag: string(name), Line: line, Column: col}

	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		attrName, attrValue := string(key), string(val)

		d, err := parseDirective(attrName, attrValue)
		if err != nil {
			return nil, &ParseError{
				Line:   line,
				Column: col,
				Msg:    fmt.Sprintf("<%s %s>: %v", el.Tag, attrName, err),
				Err:    err,
			}
		}
		if d == nil {
			el.Attrs = append(el.Attrs, Attr{Name: attrName, Value: attrValue})
			continue
		}
		el.Directives = append(el.Directives, d)
	}

	// one conditional per element
	var seen bool
	for _, d := range append([]*Directive(nil), el.Directives...) {
		switch d.Kind {
		case DirectiveIf, DirectiveElseIf, DirectiveElse:
			if seen {
				el.degrade(d)
			}
			seen = true
		}
	}
	return el, nil
}

// degrade turns a directive back into the plain attribute it was written as.
func (e *Element) degrade(d *Directive) {
	e.removeDirective(d)
	e.Attrs = append(e.Attrs, Attr{Name: d.Name, Value: d.Source})
}

func (p *parser) flushText() error {
	if p.pending.Len() == 0 {
		return nil
	}
	text := p.pending.String()
	p.pending.Reset()

	n, err := p.textNode(text)
	if err != nil {
		return err
	}
	if n != nil {
		p.appendNode(n)
	}
	return nil
}

func (p *parser) textNode(text string) (Node, error) {
	if strings.TrimSpace(text) == "" {
		if strings.Contains(text, "\n") {
			return nil, nil
		}
		return &Text{Value: " "}, nil
	}

	var parts []Part
	exprs := 0
	for rest := text; rest != ""; {
		open := strings.Index(rest, "{{")
		if open < 0 {
			parts = append(parts, Part{Literal: rest})
			break
		}
		if open > 0 {
			parts = append(parts, Part{Literal: rest[:open]})
		}
		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			return nil, p.errorAt(p.pendingStart, nil, "unterminated {{")
		}
		src := rest[open+2 : open+2+end]
		x, err := expr.Compile(src)
		if err != nil {
			return nil, p.errorAt(p.pendingStart, err, "interpolation {{%s}}: %v", src, err)
		}
		parts = append(parts, Part{X: x})
		exprs++
		rest = rest[open+2+end+2:]
	}

	switch {
	case exprs == 0:
		return &Text{Value: text}, nil
	case exprs == 1:
		var x *expr.Expr
		for _, part := range parts {
			if part.X != nil {
				x = part.X
			} else if strings.TrimSpace(part.Literal) != "" {
				return &Interp{Parts: parts}, nil
			}
		}
		return &Expr{X: x}, nil
	default:
		return &Interp{Parts: parts}, nil
	}
}

// linkChains validates v-else-if / v-else placement among siblings and drops
// whitespace text between members of a conditional chain. Misplaced branches
// degrade to plain attributes.
func linkChains(nodes []Node) {
	var prev *Element
	for i, n := range nodes {
		switch n := n.(type) {
		case *Element:
			d := n.Conditional()
			if d != nil && d.Kind != DirectiveIf {
				if prev == nil || n.Directive(DirectiveFor) != nil {
					n.degrade(d)
					d = nil
				} else {
					for j := i - 1; j >= 0; j-- {
						if t, ok := nodes[j].(*Text); ok && strings.TrimSpace(t.Value) == "" {
							nodes[j] = nil
							continue
						}
						break
					}
				}
			}
			prev = nil
			if d != nil && d.Kind != DirectiveElse && n.Directive(DirectiveFor) == nil {
				prev = n
			}
		case *Text:
			if strings.TrimSpace(n.Value) == "" {
				continue
			}
			prev = nil
		default:
			prev = nil
		}
	}
}

func trimRoots(nodes []Node) []Node {
	out := compact(nodes)
	var walk func([]Node)
	walk = func(ns []Node) {
		for _, n := range ns {
			if el, ok := n.(*Element); ok {
				el.Children = compact(el.Children)
				walk(el.Children)
			}
		}
	}
	walk(out)
	return out
}

func compact(nodes []Node) []Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
