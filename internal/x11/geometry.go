package x11

import (
	xp "github.com/BurntSushi/xgb/xproto"

	"github.com/axewm/axewm/internal/tree"
)

// ApplyGeometry walks the tree after a settle step and makes the X server
// match what geom.Solve computed: ConfigureWindow any LEAF whose
// WindowRect changed, and MapWindow/UnmapWindow any LEAF whose visibility
// changed. geom.Solve itself only computes rects for every container,
// tiling and hidden alike; this is the piece that decides which of those
// rects are actually shown — the currently visible WORKSPACE per OUTPUT,
// and within it the focus-stack head of any stacked/tabbed container.
func (r *Reactor) ApplyGeometry(root *tree.Container) {
	for _, output := range root.Children() {
		for _, c := range output.Children() {
			switch c.Kind {
			case tree.Dockarea:
				r.applyVisible(c, true)
			case tree.Content:
				for _, ws := range c.Children() {
					r.applyVisible(ws, ws.FullscreenMode == tree.FullscreenOutput)
				}
			}
		}
	}
}

// applyVisible recurses through c's tiling children (the focus-stack head
// only, if c is laid out stacked or tabbed) and floating children,
// applying visible to every LEAF it reaches.
func (r *Reactor) applyVisible(c *tree.Container, visible bool) {
	if c.Kind == tree.Leaf {
		r.applyLeaf(c, visible)
		return
	}

	if !visible {
		for _, child := range c.Children() {
			r.applyVisible(child, false)
		}
		for _, fw := range c.FloatingChildren() {
			r.applyVisible(fw, false)
		}
		return
	}

	switch c.Layout {
	case tree.LayoutStacked, tree.LayoutTabbed:
		head := activeChild(c)
		for _, child := range c.Children() {
			r.applyVisible(child, child == head)
		}
	default:
		for _, child := range c.Children() {
			r.applyVisible(child, true)
		}
	}
	for _, fw := range c.FloatingChildren() {
		r.applyVisible(fw, true)
	}
}

// activeChild is the tiling child a stacked/tabbed container currently
// shows: the head of its focus stack, skipping past any floating wrapper
// (only a WORKSPACE's focus stack mixes the two).
func activeChild(c *tree.Container) *tree.Container {
	for _, f := range c.FocusStack() {
		if f.Kind != tree.FloatingWrapper {
			return f
		}
	}
	return c.FirstChild()
}

// applyLeaf reconfigures and/or maps or unmaps leaf's window to match
// visible and leaf.WindowRect, diffing against what was last applied so a
// no-op settle issues no X requests.
func (r *Reactor) applyLeaf(leaf *tree.Container, visible bool) {
	if leaf.Window == nil || leaf.Window.XWin == 0 {
		return
	}
	xwin := xp.Window(leaf.Window.XWin)

	if visible && leaf.WindowRect != leaf.Window.LastAppliedRect {
		r.check(xp.ConfigureWindowChecked(r.conn, xwin,
			xp.ConfigWindowX|xp.ConfigWindowY|xp.ConfigWindowWidth|xp.ConfigWindowHeight,
			[]uint32{
				uint32(leaf.WindowRect.X), uint32(leaf.WindowRect.Y),
				uint32(leaf.WindowRect.W), uint32(leaf.WindowRect.H),
			}))
		leaf.Window.LastAppliedRect = leaf.WindowRect
	}

	if visible == leaf.Window.Mapped {
		return
	}
	if visible {
		r.check(xp.MapWindowChecked(r.conn, xwin))
	} else {
		leaf.IgnoreUnmapCount++
		cookie := xp.UnmapWindowChecked(r.conn, xwin)
		r.recordIgnore(cookie.Sequence, "UnmapNotify")
		r.check(cookie)
	}
	leaf.Window.Mapped = visible
}
