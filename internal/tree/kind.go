// Package tree implements the container tree store (C1): the single
// recursive node type every window, split, workspace and output is made
// of, and the structural primitives that attach, detach, replace and tear
// containers down while preserving the kind discipline.
//
// The sentinel-anchored doubly-linked list used for children, the focus
// stack and the floating children is adapted from taowm's dummyWorkspace /
// dummyWindow pattern (taowm/geom.go): a list is anchored on a dummy
// element of the same type, and next/prev links form a ring through it, so
// "is the list empty" and "append/remove" never need nil checks at the
// ends.
package tree

// Kind is the closed set a Container's node type is drawn from.
type Kind int

const (
	Root Kind = iota
	Output
	Content
	Dockarea
	Workspace
	Split
	Leaf
	FloatingWrapper
)

func (k Kind) String() string {
	switch k {
	case Root:
		return "root"
	case Output:
		return "output"
	case Content:
		return "content"
	case Dockarea:
		return "dockarea"
	case Workspace:
		return "workspace"
	case Split:
		return "split"
	case Leaf:
		return "con"
	case FloatingWrapper:
		return "floating_con"
	}
	return "unknown"
}

// Orientation is meaningful for Split and Workspace containers.
type Orientation int

const (
	NoOrientation Orientation = iota
	Horizontal
	Vertical
)

// Layout selects how a container presents its children.
type Layout int

const (
	LayoutSplit Layout = iota
	LayoutStacked
	LayoutTabbed
	LayoutDockarea
	LayoutOutput
)

func (l Layout) String() string {
	switch l {
	case LayoutSplit:
		return "splith"
	case LayoutStacked:
		return "stacked"
	case LayoutTabbed:
		return "tabbed"
	case LayoutDockarea:
		return "dockarea"
	case LayoutOutput:
		return "output"
	}
	return "unknown"
}

// FullscreenMode is none, output (the i3-style per-output fullscreen) or
// global (exclusive across the whole tree; see DESIGN.md's open-question
// decision).
type FullscreenMode int

const (
	FullscreenNone FullscreenMode = iota
	FullscreenOutput
	FullscreenGlobal
)

// FloatingState; values >= FloatingAutoOn mean "detached from tiling".
type FloatingState int

const (
	FloatingAutoOff FloatingState = iota
	FloatingUserOff
	FloatingAutoOn
	FloatingUserOn
)

func (s FloatingState) Floating() bool { return s >= FloatingAutoOn }

// DockPosition selects which of an OUTPUT's two DOCKAREA children a dock
// window belongs in.
type DockPosition int

const (
	DockTop DockPosition = iota
	DockBottom
)

// allowedChild reports whether child may be attached under parent without
// violating the kind discipline of spec.md §3.
func allowedChild(parent, child Kind) bool {
	switch parent {
	case Root:
		return child == Output
	case Output:
		return child == Dockarea || child == Content
	case Content:
		return child == Workspace
	case Workspace:
		return child == Split || child == Leaf || child == FloatingWrapper
	case Dockarea:
		return child == Leaf
	case Split:
		return child == Split || child == Leaf
	case FloatingWrapper:
		return child == Split || child == Leaf
	case Leaf:
		return false
	}
	return false
}
