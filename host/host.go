// Package host declares the tree capability the view layer renders into.
// Implementations own node identity; the view layer only holds the opaque
// Node values they hand out.
package host

// Node is an opaque handle to a node of the host tree.
type Node any

// Listener receives dispatched events.
type Listener func(ev *Event)

// Event is what a listener observes. Value carries the target's current
// value for input and change events.
type Event struct {
	Type          string
	Target        Node
	CurrentTarget Node
	Value         string
	Detail        any

	defaultPrevented bool
	stopped          bool
}

func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

func (e *Event) StopPropagation() {
	e.stopped = true
}

func (e *Event) PropagationStopped() bool {
	return e.stopped
}

// Tree is the capability a host must provide.
type Tree interface {
	CreateElement(tag string) Node
	CreateText(text string) Node
	// CreatePlaceholder returns an invisible node that only marks a position.
	CreatePlaceholder() Node

	SetText(n Node, text string)
	SetAttribute(n Node, name, value string)
	RemoveAttribute(n Node, name string)

	// Value and SetValue access the live value of form controls.
	Value(n Node) string
	SetValue(n Node, value string)

	AppendChild(parent, child Node)
	// InsertBefore inserts child before ref; a nil ref appends.
	InsertBefore(parent, child, ref Node)
	ReplaceChild(parent, newChild, oldChild Node)
	RemoveChild(parent, child Node)
	Parent(n Node) Node
	Children(n Node) []Node
	NextSibling(n Node) Node

	// AddEventListener registers fn and returns a function removing it.
	AddEventListener(n Node, eventType string, fn Listener) (remove func())
}
