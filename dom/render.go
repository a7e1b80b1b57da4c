package dom

import (
	"strings"

	"golang.org/x/net/html"
)

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// HTML serialises n and its descendants. Placeholders render as empty
// comments so positions stay visible.
func HTML(n *Node) string {
	var sb strings.Builder
	write(&sb, n)
	return sb.String()
}

// InnerHTML serialises only n's children.
func InnerHTML(n *Node) string {
	var sb strings.Builder
	for _, c := range n.children {
		write(&sb, c)
	}
	return sb.String()
}

func write(sb *strings.Builder, n *Node) {
	switch n.Type {
	case TextNode:
		sb.WriteString(html.EscapeString(n.text))
	case PlaceholderNode:
		sb.WriteString("<!---->")
	case ElementNode:
		sb.WriteByte('<')
		sb.WriteString(n.Tag)
		for _, a := range n.attrs {
			sb.WriteByte(' ')
			sb.WriteString(a.Key)
			if a.Val != "" {
				sb.WriteString(`="`)
				sb.WriteString(html.EscapeString(a.Val))
				sb.WriteByte('"')
			}
		}
		sb.WriteByte('>')
		if voidTags[n.Tag] {
			return
		}
		for _, c := range n.children {
			write(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(n.Tag)
		sb.WriteByte('>')
	}
}

// FindAll returns every element under root (root included) with tag, in
// document order.
func FindAll(root *Node, tag string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if n.Type == ElementNode && n.Tag == tag {
			out = append(out, n)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
	return out
}

// Find returns the first element with tag, or nil.
func Find(root *Node, tag string) *Node {
	if all := FindAll(root, tag); len(all) > 0 {
		return all[0]
	}
	return nil
}

// Elements returns root's element children, skipping text and placeholders.
func Elements(root *Node) []*Node {
	var out []*Node
	for _, c := range root.children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}
