// Package geom implements the geometry solver (C3): computing each
// container's rect from its parent's rect, orientation, layout and
// per-child percentages, generalizing taowm's frame.layout (taowm/geom.go)
// from a fixed two-orientation split to split/stacked/tabbed/dockarea
// layouts plus floating geometry.
package geom

import "github.com/axewm/axewm/internal/tree"

// Config is the subset of ambient configuration the solver needs: pixel
// gaps/borders and header-strip heights for stacked/tabbed layouts
// (SPEC_FULL.md "C3 additions").
type Config struct {
	GapPx            uint32
	BorderPx         uint32
	HeaderHeightPx   uint32
	FloatingMinW     int32 // -1 = unlimited
	FloatingMinH     int32
	FloatingMaxW     int32 // -1 = unlimited
	FloatingMaxH     int32
}

// DefaultConfig matches taowm's border-only, no-gap, fixed-font-height
// aesthetic (taowm/config.go's fontHeight), scaled to a more modern
// decoration strip height.
var DefaultConfig = Config{
	GapPx:          0,
	BorderPx:       2,
	HeaderHeightPx: 18,
	FloatingMinW:   -1,
	FloatingMinH:   -1,
	FloatingMaxW:   -1,
	FloatingMaxH:   -1,
}

// Solve recomputes rect/windowRect/decoRect for c and every tiling
// descendant, given c's own rect is already set (spec.md §4.3).
func Solve(cfg Config, c *tree.Container) {
	switch c.Kind {
	case tree.Leaf:
		solveLeaf(cfg, c)
		return
	case tree.Dockarea:
		solveDockarea(cfg, c)
		return
	}

	switch c.Layout {
	case tree.LayoutStacked:
		solveStacked(cfg, c, false)
	case tree.LayoutTabbed:
		solveStacked(cfg, c, true)
	default:
		solveSplit(cfg, c)
	}
}

func solveLeaf(cfg Config, c *tree.Container) {
	b := int32(cfg.BorderPx)
	c.WindowRect = tree.Rect{
		X: c.Rect.X + b,
		Y: c.Rect.Y + b,
		W: subClampU(c.Rect.W, uint32(2*b)),
		H: subClampU(c.Rect.H, uint32(2*b)),
	}
	c.DecoRect = tree.Rect{X: c.Rect.X, Y: c.Rect.Y, W: c.Rect.W, H: 0}
}

// solveSplit partitions the primary axis by percent, per spec.md §4.3
// "split/h or split/v": child rectangles partition the primary axis by
// percent, minus per-gap pixels; cross axis = parent's.
func solveSplit(cfg Config, c *tree.Container) {
	children := c.Children()
	if len(children) == 0 {
		return
	}
	gap := int32(cfg.GapPx)
	n := len(children)

	switch c.Orientation {
	case tree.Vertical:
		y := c.Rect.Y
		for i, child := range children {
			h := int32(float64(c.Rect.H) * child.Percent)
			if i == n-1 {
				h = c.Rect.Y + int32(c.Rect.H) - y
			}
			childGap := gap
			if i == n-1 {
				childGap = 0
			}
			child.Rect = tree.Rect{X: c.Rect.X, Y: y, W: c.Rect.W, H: subClampU(uint32(maxI(h, 0)), uint32(childGap))}
			y += h
			Solve(cfg, child)
		}
	default: // Horizontal, or NoOrientation treated as horizontal default.
		x := c.Rect.X
		for i, child := range children {
			w := int32(float64(c.Rect.W) * child.Percent)
			if i == n-1 {
				w = c.Rect.X + int32(c.Rect.W) - x
			}
			childGap := gap
			if i == n-1 {
				childGap = 0
			}
			child.Rect = tree.Rect{X: x, Y: c.Rect.Y, W: subClampU(uint32(maxI(w, 0)), uint32(childGap)), H: c.Rect.H}
			x += w
			Solve(cfg, child)
		}
	}
}

// solveStacked implements spec.md §4.3 "stacked"/"tabbed": each child
// occupies the full rectangle; header strips are stacked (tabbed: placed
// side by side); only the focused child's body is visible. Since rect
// visibility is a client concern (C7 maps/unmaps accordingly), Solve
// always computes every child's would-be rect; the reactor decides what to
// actually map based on the focus stack head.
func solveStacked(cfg Config, c *tree.Container, tabbed bool) {
	children := c.Children()
	n := len(children)
	if n == 0 {
		return
	}
	headerH := int32(cfg.HeaderHeightPx)
	bodyY := c.Rect.Y + headerH
	bodyH := subClampU(c.Rect.H, uint32(headerH))

	for i, child := range children {
		child.Rect = tree.Rect{X: c.Rect.X, Y: bodyY, W: c.Rect.W, H: bodyH}
		if tabbed {
			tabW := c.Rect.W / uint32(n)
			child.DecoRect = tree.Rect{X: c.Rect.X + int32(tabW)*int32(i), Y: c.Rect.Y, W: tabW, H: uint32(headerH)}
		} else {
			child.DecoRect = tree.Rect{X: c.Rect.X, Y: c.Rect.Y + headerH*int32(i), W: c.Rect.W, H: uint32(headerH)}
		}
		Solve(cfg, child)
	}
}

// solveDockarea stacks children vertically by their reserved struts
// (spec.md §4.3 "dockarea").
func solveDockarea(cfg Config, c *tree.Container) {
	y := c.Rect.Y
	for _, child := range c.Children() {
		h := uint32(cfg.HeaderHeightPx)
		if child.Window != nil {
			if s := child.Window.Struts.Top + child.Window.Struts.Bottom; s > 0 {
				h = s
			}
		}
		child.Rect = tree.Rect{X: c.Rect.X, Y: y, W: c.Rect.W, H: h}
		y += int32(h)
		Solve(cfg, child)
	}
}

func subClampU(a, b uint32) uint32 {
	if b >= a {
		return 0
	}
	return a - b
}

func maxI(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
