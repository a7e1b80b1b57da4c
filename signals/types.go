package signals

import mapset "github.com/deckarep/golang-set/v2"

// Handle addresses a node in a ReactiveSystem arena. The zero Handle is never
// allocated and means "no node".
type Handle uint32

type nodeKind uint8

const (
	kindSource nodeKind = iota
	kindComputed
	kindEffect
	kindScope
)

func (k nodeKind) String() string {
	switch k {
	case kindSource:
		return "source"
	case kindComputed:
		return "computed"
	case kindEffect:
		return "effect"
	case kindScope:
		return "scope"
	default:
		return "unknown"
	}
}

type nodeFlags uint8

const (
	fStale nodeFlags = 1 << iota
	fQueued
	fRunning
	fInitialized
)

// node is one arena slot. Sources only use subs, effects only use deps,
// computeds use both.
type node struct {
	kind    nodeKind
	flags   nodeFlags
	live    bool
	gen     uint32
	seq     uint64
	depth   int
	version uint64

	owner Handle
	owned []Handle

	// subs is the index set of nodes that read this one.
	subs mapset.Set[Handle]
	// deps maps every node this one read during its last run to the version
	// it saw.
	deps map[Handle]uint64

	cleanups []func()

	run     func() error
	compute func() bool
}
