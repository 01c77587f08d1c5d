// Package muxtree builds the multiplexer tree of a message's signals: the
// root holds every signal with no multiplexer parent; each multiplexer
// signal found at a node fans out into one child per selector value, using
// the union of the multiplexer's own choice keys and every child signal's
// declared ids (so a value with only a named choice and no signal still
// gets a branch).
package muxtree

// Descriptor is the minimal view of a signal the tree builder needs. The
// dbc package's Signal type implements this.
type Descriptor interface {
	SignalName() string
	MuxParent() string           // name of the selecting multiplexer signal, "" at the root
	IsMux() bool                 // true if this signal itself selects children
	MuxIDs() map[int]struct{}    // selector values this signal is present under (ignored at the root)
	MuxChoices() map[int]string  // this signal's own choice table, consulted only when IsMux()
}

// Node is one level of the multiplexer tree: the signals present
// unconditionally at this level (Signals, which includes the selector
// itself when one is present), and — if Multiplexer is non-nil — one
// Children entry per selector value.
type Node[T Descriptor] struct {
	Signals     []T
	Multiplexer *T
	Children    map[int]*Node[T]
}

// Build constructs the root of the multiplexer tree from a message's flat
// signal list.
func Build[T Descriptor](signals []T) *Node[T] {
	return buildLevel(signals, "", 0, false)
}

func buildLevel[T Descriptor](all []T, parentMux string, parentID int, hasParent bool) *Node[T] {
	var level []T
	for _, s := range all {
		if s.MuxParent() != parentMux {
			continue
		}
		if hasParent {
			if _, ok := s.MuxIDs()[parentID]; !ok {
				continue
			}
		}
		level = append(level, s)
	}

	node := &Node[T]{Signals: level}

	var selector *T
	for i := range level {
		if level[i].IsMux() {
			sel := level[i]
			selector = &sel
			break
		}
	}
	if selector == nil {
		return node
	}
	node.Multiplexer = selector

	ids := map[int]struct{}{}
	selName := (*selector).SignalName()
	for _, s := range all {
		if s.MuxParent() != selName {
			continue
		}
		for id := range s.MuxIDs() {
			ids[id] = struct{}{}
		}
	}
	for id := range (*selector).MuxChoices() {
		ids[id] = struct{}{}
	}

	node.Children = make(map[int]*Node[T], len(ids))
	for id := range ids {
		node.Children[id] = buildLevel(all, (*selector).SignalName(), id, true)
	}
	return node
}

// Walk invokes fn for every node in the tree, depth first, root first.
func Walk[T Descriptor](n *Node[T], fn func(*Node[T])) {
	if n == nil {
		return
	}
	fn(n)
	for _, child := range n.Children {
		Walk(child, fn)
	}
}

// AllSignals returns every signal reachable in the tree (each signal
// appears once per branch it is valid in, matching the original's
// per-branch duplication for overlap checking).
func AllSignals[T Descriptor](n *Node[T]) []T {
	var out []T
	Walk(n, func(node *Node[T]) {
		out = append(out, node.Signals...)
	})
	return out
}
