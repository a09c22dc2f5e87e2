// Package focus implements the focus discipline (C2): each container's
// focus_stack, the global focused leaf, and directional/kind-toggle
// navigation, grounded on taowm's workspace.focusFrame and frame.traverse
// (taowm/geom.go) generalized from taowm's single frame-tree-per-screen
// model to the full ROOT/OUTPUT/CONTENT/WORKSPACE/SPLIT/LEAF hierarchy.
package focus

import "github.com/axewm/axewm/internal/tree"

// TakeFocuser lets Manager delegate the X11-visible part of focusing a
// window (SetInputFocus vs. the ICCCM WM_TAKE_FOCUS client message) to C7
// without importing it, mirroring taowm/actions.go's focus() function.
type TakeFocuser interface {
	// SetInputFocus is called when leaf does not need WM_TAKE_FOCUS (or is
	// nil, meaning "focus the desktop").
	SetInputFocus(leaf *tree.Container)
	// SendTakeFocus is called instead of SetInputFocus when leaf's window
	// has NeedsTakeFocus set and is not globally-active.
	SendTakeFocus(leaf *tree.Container)
}

// Manager tracks the one piece of focus state that isn't already captured
// by the tree's per-container focus stacks: which leaf was focused before
// the current one, for back-navigation, and the remembered "other side"
// leaves for focus_kind_toggle.
type Manager struct {
	x TakeFocuser

	previousLeaf *tree.Container

	// rememberedTiling/rememberedFloating are keyed by workspace id, and
	// hold the last leaf focused on that side of the kind toggle (spec.md
	// §4.2 focus_kind_toggle; SPEC_FULL.md's per-workspace remembered-leaf
	// supplement).
	rememberedTiling  map[tree.ID]*tree.Container
	rememberedFloating map[tree.ID]*tree.Container
}

func New(x TakeFocuser) *Manager {
	return &Manager{
		x:                  x,
		rememberedTiling:   make(map[tree.ID]*tree.Container),
		rememberedFloating: make(map[tree.ID]*tree.Container),
	}
}

// Focus moves leaf to the head of every ancestor's focus stack, from leaf
// up to root, and asks C7 to update X11 input focus (spec.md §4.2).
func (m *Manager) Focus(root, leaf *tree.Container) {
	if leaf == nil {
		return
	}

	prior := tree.DescendFocused(root)
	if prior != leaf {
		m.previousLeaf = prior
	}

	for c := leaf; c.Parent != nil; c = c.Parent {
		tree.MoveChildToFocusFront(c.Parent, c)
	}

	ws := tree.AncestorOfKind(leaf, tree.Workspace)
	if ws != nil {
		if leaf.Floating() || tree.AncestorOfKind(leaf, tree.FloatingWrapper) != nil {
			m.rememberedFloating[ws.ID] = leaf
		} else {
			m.rememberedTiling[ws.ID] = leaf
		}
	}

	if leaf.Kind == tree.Leaf && leaf.Window != nil && leaf.Window.NeedsTakeFocus && !leaf.Window.GloballyActive {
		m.x.SendTakeFocus(leaf)
		return
	}
	m.x.SetInputFocus(leaf)
}

// FocusedLeaf is descend_focused(root) (spec.md §4.2).
func (m *Manager) FocusedLeaf(root *tree.Container) *tree.Container {
	return tree.DescendFocused(root)
}

// PreviousLeaf returns the leaf focused immediately before the current
// one, for back-and-forth-style navigation at the leaf level.
func (m *Manager) PreviousLeaf() *tree.Container { return m.previousLeaf }

// Direction is one of the four directional focus targets.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

func (d Direction) axis() tree.Orientation {
	if d == Left || d == Right {
		return tree.Horizontal
	}
	return tree.Vertical
}

func (d Direction) forward() bool { return d == Right || d == Down }

// FocusDirection interprets d against the tiling tree: it walks up from
// the focused leaf until it finds an ancestor whose orientation aligns
// with d, picks the sibling in that direction, then descends by
// focus-stack head (spec.md §4.2).
func (m *Manager) FocusDirection(root *tree.Container, d Direction) *tree.Container {
	leaf := tree.DescendFocused(root)
	c := leaf
	for c.Parent != nil {
		parent := c.Parent
		if parent.Orientation == d.axis() {
			var sibling *tree.Container
			if d.forward() {
				sibling = c.NextSibling()
			} else {
				sibling = c.PrevSibling()
			}
			if sibling != nil {
				target := tree.DescendFocused(sibling)
				m.Focus(root, target)
				return target
			}
		}
		c = parent
	}
	return leaf
}

// FocusKindToggle swaps between floating and tiling leaves within the
// current workspace, remembering the other side (spec.md §4.2).
func (m *Manager) FocusKindToggle(root *tree.Container) *tree.Container {
	leaf := tree.DescendFocused(root)
	ws := tree.AncestorOfKind(leaf, tree.Workspace)
	if ws == nil {
		return leaf
	}
	onFloatingSide := leaf.Floating() || tree.AncestorOfKind(leaf, tree.FloatingWrapper) != nil

	var target *tree.Container
	if onFloatingSide {
		target = m.rememberedTiling[ws.ID]
		if target == nil {
			if root0 := ws.FirstChild(); root0 != nil {
				target = tree.DescendFocused(root0)
			}
		}
	} else {
		target = m.rememberedFloating[ws.ID]
		if target == nil {
			if fw := firstFloating(ws); fw != nil {
				target = tree.DescendFocused(fw)
			}
		}
	}
	if target == nil {
		return leaf
	}
	m.Focus(root, target)
	return target
}

func firstFloating(ws *tree.Container) *tree.Container {
	fc := ws.FloatingChildren()
	if len(fc) == 0 {
		return nil
	}
	return fc[0]
}
