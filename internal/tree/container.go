package tree

import "github.com/google/uuid"

// ID stably identifies a Container across its lifetime. Using a uuid
// instead of bare pointer identity follows Design Notes §9's "index-keyed
// vectors with stable ids" option, and lets the IPC dump (internal/ipc) and
// command criteria (internal/command) reference containers without
// exposing pointers.
type ID = uuid.UUID

// Rect is a rectangle in root coordinates; width/height are never negative.
type Rect struct {
	X, Y int32
	W, H uint32
}

func (r Rect) Contains(x, y int32) bool {
	return r.X <= x && x < r.X+int32(r.W) && r.Y <= y && y < r.Y+int32(r.H)
}

// Struts is the reserved-space declaration a dock window makes via
// _NET_WM_STRUT_PARTIAL.
type Struts struct {
	Left, Right, Top, Bottom uint32
}

// Window is the X11 window descriptor attached to a Leaf container.
type Window struct {
	XWin            uint32
	Leader          uint32
	TransientFor    uint32
	Class, Instance string
	TitleUCS2       []uint16
	TitleUTF8       string
	Dock            bool
	DockPosition    DockPosition
	NeedsTakeFocus  bool
	GloballyActive  bool
	WMDeleteWindow  bool
	Struts          Struts
	RanAssignments  map[string]bool

	// Mapped and LastAppliedRect record what C7 last actually told the X
	// server, so its post-settle geometry pass can diff against the tree's
	// computed WindowRect/visibility and only issue ConfigureWindow/
	// MapWindow/UnmapWindow when something changed.
	Mapped          bool
	LastAppliedRect Rect
}

// Container is the single recursive node type described in spec.md §3.
// Parent is a weak (non-owning) back-reference: the tree is owned
// top-down by Store, and Parent exists purely for upward navigation.
type Container struct {
	ID          ID
	Kind        Kind
	Orientation Orientation
	Layout      Layout

	Rect       Rect
	WindowRect Rect
	DecoRect   Rect

	Percent float64

	FullscreenMode FullscreenMode
	FloatingState  FloatingState
	Urgent         bool
	StickyGroup    string
	Mark           string
	Num            int

	IgnoreUnmapCount int

	Window *Window

	// Name is the workspace/output display name; empty for kinds that
	// have none.
	Name string

	Parent *Container

	// ChildrenHead/FocusHead/FloatingHead are the sentinel anchors for
	// this container's own rings (taowm/geom.go's dummyWindow pattern,
	// one anchor per container instead of one per process since every
	// container can have children of its own).
	ChildrenHead *Container
	FocusHead    *Container
	FloatingHead *Container

	// childrenLink/focusLink/floatingLink/allLink are this container's
	// position within its *parent's* (or Store's, for allLink) rings.
	childrenLink link
	focusLink    link
	floatingLink link
	allLink      link
}

func newContainer(kind Kind) *Container {
	c := &Container{
		ID:           uuid.New(),
		Kind:         kind,
		Num:          -1,
		ChildrenHead: newSentinel(),
		FocusHead:    newSentinel(),
		FloatingHead: newSentinel(),
	}
	return c
}

// Children returns the tiling children in spatial order.
func (c *Container) Children() []*Container { return ringSlice(c.ChildrenHead, ringChildren) }

func (c *Container) NumChildren() int { return ringLen(c.ChildrenHead, ringChildren) }

func (c *Container) FirstChild() *Container { return ringFirst(c.ChildrenHead, ringChildren) }
func (c *Container) LastChild() *Container  { return ringLast(c.ChildrenHead, ringChildren) }

func (c *Container) NextSibling() *Container {
	if c.Parent == nil {
		return nil
	}
	return ringNext(c.Parent.ChildrenHead, c, ringChildren)
}

func (c *Container) PrevSibling() *Container {
	if c.Parent == nil {
		return nil
	}
	return ringPrev(c.Parent.ChildrenHead, c, ringChildren)
}

// FocusStack returns the direct children of c in most-recently-focused
// order, head first.
func (c *Container) FocusStack() []*Container { return ringSlice(c.FocusHead, ringFocus) }

func (c *Container) FloatingChildren() []*Container {
	return ringSlice(c.FloatingHead, ringFloating)
}

// IsLeaf reports whether c is a window-holding Leaf.
func (c *Container) IsLeaf() bool { return c.Kind == Leaf }

// Floating reports whether the floating state detaches c from tiling
// geometry (spec.md §3 "values >= auto_on mean detached from tiling").
func (c *Container) Floating() bool { return c.FloatingState.Floating() }

// SwapSiblingPositions exchanges the spatial order of two adjacent
// siblings under the same parent, leaving their percent shares and focus
// stack order untouched. It is a no-op if a and b do not share a parent.
func SwapSiblingPositions(a, b *Container) {
	if a.Parent == nil || a.Parent != b.Parent {
		return
	}
	aNext := ringNext(a.Parent.ChildrenHead, a, ringChildren)
	ringRemove(a, ringChildren)
	if aNext == b {
		ringInsertAfter(b, a, ringChildren)
	} else {
		ringInsertBefore(b, a, ringChildren)
	}
}

// MoveChildToFocusFront moves child to the head of parent's focus stack,
// the primitive C2's Focus uses to implement "for each ancestor from leaf
// to root, move the relevant child to the head of that ancestor's focus
// stack" (spec.md §4.2).
func MoveChildToFocusFront(parent, child *Container) {
	moveToFront(parent.FocusHead, child, ringFocus)
}
