// Package dom is an in-memory host tree. It backs the tests and the CLI and
// can serialise itself to HTML.
package dom

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/delaneyj/stitch/host"
)

type NodeType uint8

const (
	ElementNode NodeType = iota + 1
	TextNode
	PlaceholderNode
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case PlaceholderNode:
		return "placeholder"
	default:
		return fmt.Sprintf("NodeType(%d)", uint8(t))
	}
}

type Node struct {
	Type NodeType
	Tag  string

	text      string
	value     string
	attrs     []html.Attribute
	parent    *Node
	children  []*Node
	listeners map[string][]*listener

	// dirty is set once the live value is written directly; from then on the
	// value attribute no longer seeds it, as with form controls
	dirty bool
}

type listener struct {
	fn      host.Listener
	removed bool
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	return n.children
}

// Text returns the data of a text node.
func (n *Node) Text() string {
	return n.text
}

// Value returns the live value of a form control.
func (n *Node) Value() string {
	return n.value
}

func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (n *Node) Attrs() []html.Attribute {
	return slices.Clone(n.attrs)
}

// TextContent concatenates every descendant text node.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.text
	}
	var sb strings.Builder
	for _, c := range n.children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

func (n *Node) indexOf(child *Node) int {
	return slices.Index(n.children, child)
}

func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := p.indexOf(n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

// Counters tallies mutations applied through the host interface.
type Counters struct {
	Creates     int
	Inserts     int
	Removes     int
	Replaces    int
	TextWrites  int
	AttrWrites  int
	ValueWrites int
}

// Document implements host.Tree over *Node values.
type Document struct {
	counters  Counters
	listeners int
}

var _ host.Tree = (*Document)(nil)

func New() *Document {
	return &Document{}
}

func (d *Document) Counters() Counters {
	return d.counters
}

func (d *Document) ResetCounters() {
	d.counters = Counters{}
}

// ListenerCount is the number of registered listeners not yet removed.
func (d *Document) ListenerCount() int {
	return d.listeners
}

func node(n host.Node) *Node {
	if n == nil {
		return nil
	}
	dn, ok := n.(*Node)
	if !ok {
		panic(fmt.Sprintf("dom: foreign node %T", n))
	}
	return dn
}

func (d *Document) CreateElement(tag string) host.Node {
	d.counters.Creates++
	return &Node{Type: ElementNode, Tag: tag}
}

func (d *Document) CreateText(text string) host.Node {
	d.counters.Creates++
	return &Node{Type: TextNode, text: text}
}

func (d *Document) CreatePlaceholder() host.Node {
	d.counters.Creates++
	return &Node{Type: PlaceholderNode}
}

// SetText replaces a text node's data, or an element's whole content.
func (d *Document) SetText(n host.Node, text string) {
	dn := node(n)
	d.counters.TextWrites++
	if dn.Type != ElementNode {
		dn.text = text
		return
	}
	for _, c := range dn.children {
		c.parent = nil
	}
	dn.children = nil
	if text != "" {
		t := &Node{Type: TextNode, text: text, parent: dn}
		dn.children = append(dn.children, t)
	}
}

func (d *Document) SetAttribute(n host.Node, name, value string) {
	dn := node(n)
	d.counters.AttrWrites++
	if name == "value" && !dn.dirty {
		dn.value = value
	}
	for i := range dn.attrs {
		if dn.attrs[i].Key == name {
			dn.attrs[i].Val = value
			return
		}
	}
	dn.attrs = append(dn.attrs, html.Attribute{Key: name, Val: value})
}

func (d *Document) RemoveAttribute(n host.Node, name string) {
	dn := node(n)
	d.counters.AttrWrites++
	if name == "value" && !dn.dirty {
		dn.value = ""
	}
	dn.attrs = slices.DeleteFunc(dn.attrs, func(a html.Attribute) bool {
		return a.Key == name
	})
}

func (d *Document) Value(n host.Node) string {
	return node(n).value
}

func (d *Document) SetValue(n host.Node, value string) {
	d.counters.ValueWrites++
	dn := node(n)
	dn.value = value
	dn.dirty = true
}

func (d *Document) AppendChild(parent, child host.Node) {
	d.InsertBefore(parent, child, nil)
}

func (d *Document) InsertBefore(parent, child, ref host.Node) {
	p, c, r := node(parent), node(child), node(ref)
	if c == r {
		return
	}
	d.counters.Inserts++
	c.detach()
	c.parent = p
	if r == nil {
		p.children = append(p.children, c)
		return
	}
	i := p.indexOf(r)
	if i < 0 {
		panic("dom: reference node is not a child of parent")
	}
	p.children = slices.Insert(p.children, i, c)
}

func (d *Document) ReplaceChild(parent, newChild, oldChild host.Node) {
	p, nc, oc := node(parent), node(newChild), node(oldChild)
	if nc == oc {
		return
	}
	i := p.indexOf(oc)
	if i < 0 {
		panic("dom: replaced node is not a child of parent")
	}
	d.counters.Replaces++
	nc.detach()
	// detaching may have shifted oc
	i = p.indexOf(oc)
	p.children[i] = nc
	nc.parent = p
	oc.parent = nil
}

func (d *Document) RemoveChild(parent, child host.Node) {
	p, c := node(parent), node(child)
	if c.parent != p {
		return
	}
	d.counters.Removes++
	c.detach()
}

func (d *Document) Parent(n host.Node) host.Node {
	if p := node(n).parent; p != nil {
		return p
	}
	return nil
}

func (d *Document) Children(n host.Node) []host.Node {
	dn := node(n)
	out := make([]host.Node, len(dn.children))
	for i, c := range dn.children {
		out[i] = c
	}
	return out
}

func (d *Document) NextSibling(n host.Node) host.Node {
	dn := node(n)
	if dn.parent == nil {
		return nil
	}
	siblings := dn.parent.children
	if i := slices.Index(siblings, dn); i >= 0 && i+1 < len(siblings) {
		return siblings[i+1]
	}
	return nil
}

func (d *Document) AddEventListener(n host.Node, eventType string, fn host.Listener) func() {
	dn := node(n)
	if dn.listeners == nil {
		dn.listeners = map[string][]*listener{}
	}
	l := &listener{fn: fn}
	dn.listeners[eventType] = append(dn.listeners[eventType], l)
	d.listeners++

	return func() {
		if l.removed {
			return
		}
		l.removed = true
		d.listeners--
		dn.listeners[eventType] = slices.DeleteFunc(dn.listeners[eventType], func(x *listener) bool {
			return x == l
		})
	}
}
