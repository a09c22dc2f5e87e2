package tree

import (
	"errors"
	"fmt"
)

// KillPolicy selects how Close tears down the windows it encounters,
// mirroring spec.md §4.1's close(node, kill_policy, dont_kill_parent?).
type KillPolicy int

const (
	KillNone KillPolicy = iota
	KillWindow
	KillClient
)

// Unmapper lets Store ask an external collaborator (C7, the X11 reactor)
// to unmap and optionally kill a window's X client, without Store itself
// depending on the X11 transport. Store only ever calls this from Close.
type Unmapper interface {
	// Unmap requests the window be unmapped; selfCaused lets the caller
	// bump its ignore table (spec.md §4.7).
	Unmap(w *Window, selfCaused bool)
	// Kill sends WM_DELETE_WINDOW (policy==KillWindow) or force-kills the
	// X client (policy==KillClient).
	Kill(w *Window, policy KillPolicy)
}

// Store owns every Container in the process and provides the structural
// primitives of C1. It is not safe for concurrent use: all mutation runs
// on the single event-loop thread (spec.md §5).
type Store struct {
	all *Container
	Root *Container
}

// New creates a Store with a fresh ROOT container.
func New() *Store {
	s := &Store{all: newSentinel()}
	s.Root = s.newContainer(Root)
	return s
}

// newContainer allocates a container and registers it in the store's
// all-containers ring (creation order), mirroring taowm's registration of
// every window into the dummyWindow ring as it is created.
func (s *Store) newContainer(kind Kind) *Container {
	c := newContainer(kind)
	ringPushBack(s.all, c, ringAll)
	return c
}

// NewContainer allocates a detached container of the given kind (spec.md
// §4.1 new_container). It is not attached to the tree until Attach is
// called.
func (s *Store) NewContainer(kind Kind) *Container {
	return s.newContainer(kind)
}

// All iterates every container the store owns, in creation order.
func (s *Store) All() []*Container { return ringSlice(s.all, ringAll) }

// Find locates a container by id.
func (s *Store) Find(id ID) *Container {
	var found *Container
	ringForEach(s.all, ringAll, func(c *Container) {
		if found == nil && c.ID == id {
			found = c
		}
	})
	return found
}

// Attach inserts child into parent's children (spec.md §4.1). It fails if
// the kind discipline of spec.md §3 would be violated.
func (s *Store) Attach(child, parent *Container, atHead bool) error {
	if !allowedChild(parent.Kind, child.Kind) {
		return fmt.Errorf("tree: cannot attach %s under %s", child.Kind, parent.Kind)
	}
	if child.Parent != nil {
		return errors.New("tree: child already attached")
	}

	if child.Kind == FloatingWrapper {
		if atHead {
			ringPushFront(parent.FloatingHead, child, ringFloating)
		} else {
			ringPushBack(parent.FloatingHead, child, ringFloating)
		}
		child.Parent = parent
		// Floating wrappers are not part of the tiling percent pool; they
		// join the back of parent's focus stack, and Focus (C2) moves one
		// to the head when the caller focuses it.
		ringPushBack(parent.FocusHead, child, ringFocus)
		return nil
	}

	siblings := parent.Children()
	if atHead {
		ringPushFront(parent.ChildrenHead, child, ringChildren)
	} else {
		ringPushBack(parent.ChildrenHead, child, ringChildren)
	}
	child.Parent = parent
	rebalanceOnAttach(siblings, child)

	// "pushes child to the back of parent.focus_stack" (spec.md §4.1).
	ringPushBack(parent.FocusHead, child, ringFocus)
	return nil
}

// Detach removes child from its parent's children and focus stack,
// fair-sharing the freed percentage across remaining siblings. It does not
// destroy child (spec.md §4.1).
func (s *Store) Detach(child *Container) error {
	parent := child.Parent
	if parent == nil {
		return errors.New("tree: container has no parent")
	}

	if child.Kind == FloatingWrapper {
		ringRemove(child, ringFloating)
		ringRemove(child, ringFocus)
		child.Parent = nil
		return nil
	}

	detachedPercent := child.Percent
	ringRemove(child, ringChildren)
	ringRemove(child, ringFocus)
	child.Parent = nil
	child.Percent = 0

	rebalanceOnDetach(parent.Children(), detachedPercent)
	return nil
}

// Replace splices newC into old's position, preserving percent and focus
// stack slot (spec.md §4.1 replace).
func (s *Store) Replace(old, newC *Container) error {
	parent := old.Parent
	if parent == nil {
		return errors.New("tree: container has no parent")
	}
	if !allowedChild(parent.Kind, newC.Kind) {
		return fmt.Errorf("tree: cannot replace with %s under %s", newC.Kind, parent.Kind)
	}

	ringInsertBefore(old, newC, ringChildren)
	newC.Parent = parent
	newC.Percent = old.Percent

	// Splice newC into the exact focus-stack slot old occupied.
	ringInsertBefore(old, newC, ringFocus)

	ringRemove(old, ringChildren)
	ringRemove(old, ringFocus)
	old.Parent = nil
	old.Percent = 0
	return nil
}

// DescendFocused follows focus-stack heads from root until reaching a Leaf
// or an empty container (spec.md §4.1 descend_focused).
func DescendFocused(root *Container) *Container {
	c := root
	for {
		if c.Kind == Leaf {
			return c
		}
		head := ringFirst(c.FocusHead, ringFocus)
		if head == nil {
			return c
		}
		c = head
	}
}

// AncestorOfKind walks parents looking for the given kind (spec.md §4.1).
func AncestorOfKind(node *Container, kind Kind) *Container {
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

// reduceSingleChildSplit implements spec.md §4.1's reduction rule: after a
// detach, a non-workspace Split left with exactly one child is replaced by
// that child, preserving percent and focus slot. Workspaces (which are
// also SPLIT/LEAF roots per spec.md §3) are never eliminated this way.
func (s *Store) reduceSingleChildSplit(split *Container) (*Container, bool) {
	if split.Kind != Split || split.Parent == nil {
		return split, false
	}
	if split.NumChildren() != 1 {
		return split, false
	}
	only := split.FirstChild()

	parent := split.Parent
	percent := split.Percent

	if err := s.Detach(only); err != nil {
		return split, false
	}
	only.Percent = percent
	ringInsertBefore(split, only, ringChildren)
	only.Parent = parent
	ringInsertBefore(split, only, ringFocus)

	// split is spliced out directly (not via Detach) because only has
	// already taken over its percent share; rebalancing the remaining
	// siblings again here would double-count that share.
	ringRemove(split, ringChildren)
	ringRemove(split, ringFocus)
	split.Parent = nil

	return only, true
}

// SettleSplits walks the whole tree once, eliminating every non-workspace
// Split reduced to a single child, as required at the end of a settle step
// (spec.md §4.6, invariant 3).
func (s *Store) SettleSplits() {
	var splits []*Container
	ringForEach(s.all, ringAll, func(c *Container) {
		if c.Kind == Split {
			splits = append(splits, c)
		}
	})
	for _, sp := range splits {
		if sp.Parent == nil {
			continue // already reduced away earlier in this pass
		}
		if sp.NumChildren() == 1 {
			s.reduceSingleChildSplit(sp)
		}
	}
}

// Close recursively tears a subtree down (spec.md §4.1 close). For each
// leaf encountered it asks u to unmap (and optionally kill) the window and
// clears its mark and sticky group. For each Split left empty or
// single-child it is eliminated. If the close leaves the enclosing
// Workspace with no tiling or floating children (and dontKillParent is
// false), that Workspace is reported in emptiedWorkspaces whether or not
// it is visible or user-named; C4 decides whether to prune it.
func (s *Store) Close(node *Container, policy KillPolicy, dontKillParent bool, u Unmapper) (emptiedWorkspaces []*Container, err error) {
	var leaves []*Container
	collectLeaves(node, &leaves)

	for _, leaf := range leaves {
		leaf.Mark = ""
		leaf.StickyGroup = ""
		if leaf.Window != nil {
			u.Unmap(leaf.Window, true)
			if policy != KillNone {
				u.Kill(leaf.Window, policy)
			}
		}
	}

	parent := node.Parent
	ws := AncestorOfKind(node, Workspace)
	if node.Kind == Workspace {
		ws = node
	}

	if parent != nil {
		switch node.Kind {
		case FloatingWrapper:
			if err := s.Detach(node); err != nil {
				return nil, err
			}
		default:
			if err := s.Detach(node); err != nil {
				return nil, err
			}
			if parent.Kind == Split {
				switch parent.NumChildren() {
				case 0:
					if parent.Parent != nil {
						if _, e := s.Close(parent, KillNone, true, u); e != nil {
							return nil, e
						}
					}
				case 1:
					s.reduceSingleChildSplit(parent)
				}
			}
		}
	}

	if ws != nil && !dontKillParent {
		if ws.NumChildren() == 0 && len(ws.FloatingChildren()) == 0 {
			emptiedWorkspaces = append(emptiedWorkspaces, ws)
		}
	}
	_ = node
	return emptiedWorkspaces, nil
}

func collectLeaves(node *Container, out *[]*Container) {
	if node.Kind == Leaf {
		*out = append(*out, node)
		return
	}
	for _, c := range node.Children() {
		collectLeaves(c, out)
	}
	for _, fc := range node.FloatingChildren() {
		collectLeaves(fc, out)
	}
}
