package dom

import (
	"github.com/delaneyj/stitch/host"
)

// Dispatch delivers ev to target and then bubbles it through the ancestors
// until a listener stops propagation. It reports whether the default action
// should still happen.
func (d *Document) Dispatch(target *Node, ev *host.Event) bool {
	ev.Target = target
	if ev.Value == "" {
		ev.Value = target.value
	}
	for n := target; n != nil; n = n.parent {
		ls := n.listeners[ev.Type]
		if len(ls) == 0 {
			continue
		}
		ev.CurrentTarget = n
		for _, l := range append([]*listener(nil), ls...) {
			if l.removed {
				continue
			}
			l.fn(ev)
		}
		if ev.PropagationStopped() {
			break
		}
	}
	return !ev.DefaultPrevented()
}

func (d *Document) Click(target *Node) bool {
	return d.Dispatch(target, &host.Event{Type: "click"})
}

// Input sets the control's value the way typing would and fires "input".
func (d *Document) Input(target *Node, value string) bool {
	target.value, target.dirty = value, true
	return d.Dispatch(target, &host.Event{Type: "input", Value: value})
}

// Change sets the control's value and fires "change".
func (d *Document) Change(target *Node, value string) bool {
	target.value, target.dirty = value, true
	return d.Dispatch(target, &host.Event{Type: "change", Value: value})
}
