package command

import (
	"fmt"

	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/geom"
	"github.com/axewm/axewm/internal/tree"
)

func (e *Executor) doFocus(root *tree.Container, sel []*tree.Container, op Operation) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: focus has no matching container"))
	}
	target := sel[0]

	switch op.FocusTarget {
	case "parent":
		if target.Parent != nil && target.Parent.Kind != tree.Workspace {
			target = target.Parent
		}
	case "child":
		if head := target.FirstChild(); head != nil {
			target = head
		}
	case "floating":
		target = e.Focus.FocusKindToggle(root)
		if !target.Floating() {
			return fail(fmt.Errorf("command: no floating container to focus"))
		}
		return ok()
	case "tiling":
		target = e.Focus.FocusKindToggle(root)
		if target.Floating() {
			return fail(fmt.Errorf("command: no tiling container to focus"))
		}
		return ok()
	case "mode_toggle":
		e.Focus.FocusKindToggle(root)
		return ok()
	case "":
		leaf := e.Focus.FocusDirection(root, op.Direction)
		if leaf == nil {
			return fail(fmt.Errorf("command: no container in that direction"))
		}
		return ok()
	}

	e.Focus.Focus(root, tree.DescendFocused(target))
	return ok()
}

// doMove implements the subset of spec.md §4.6's `move` grammar that does
// not require an external parser to disambiguate: directional sibling
// repositioning, and the `to workspace`/`to output` target forms. `move
// workspace next/prev` retarget the selection to the adjacent workspace by
// the same traversal C4 uses for `workspace next/prev`.
func (e *Executor) doMove(root *tree.Container, sel []*tree.Container, op Operation) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: move has no matching container"))
	}

	switch {
	case op.MoveToWorkspace != "":
		ws, _ := e.Workspace.Get(root, op.MoveToWorkspace)
		return e.moveLeavesTo(sel, ws)
	case op.MoveToOutput != "":
		return e.doMoveToOutput(sel, op.MoveToOutput)
	case op.WorkspaceTarget != WorkspaceByName:
		return e.doMoveWorkspaceTraversal(sel, op.WorkspaceTarget)
	default:
		return e.doMoveDirection(sel, op.Direction)
	}
}

func (e *Executor) doMoveToOutput(sel []*tree.Container, outputName string) Result {
	for _, c := range e.Store.All() {
		if c.Kind == tree.Output && c.Name == outputName {
			ws := e.Workspace.Visible(c)
			if ws == nil {
				return fail(fmt.Errorf("command: output %q has no visible workspace", outputName))
			}
			return e.moveLeavesTo(sel, ws)
		}
	}
	return fail(fmt.Errorf("command: no output named %q", outputName))
}

func (e *Executor) doMoveWorkspaceTraversal(sel []*tree.Container, target WorkspaceTarget) Result {
	ws := tree.AncestorOfKind(sel[0], tree.Workspace)
	if ws == nil {
		return fail(fmt.Errorf("command: container is not on a workspace"))
	}
	var dest *tree.Container
	switch target {
	case WorkspaceNext:
		dest = e.Workspace.Next(ws)
	case WorkspacePrev:
		dest = e.Workspace.Prev(ws)
	case WorkspaceNextOnOutput:
		dest = e.Workspace.NextOnOutput(ws)
	case WorkspacePrevOnOutput:
		dest = e.Workspace.PrevOnOutput(ws)
	case WorkspaceCurrent:
		dest = ws
	default:
		return fail(fmt.Errorf("command: unsupported move workspace target"))
	}
	return e.moveLeavesTo(sel, dest)
}

// moveLeavesTo detaches each leaf (or its enclosing FLOATING_WRAPPER, if
// floating) from its current parent and reattaches it under ws, preserving
// its floating/tiling state.
func (e *Executor) moveLeavesTo(sel []*tree.Container, ws *tree.Container) Result {
	if ws == nil {
		return fail(fmt.Errorf("command: no destination workspace"))
	}
	for _, leaf := range sel {
		node := leaf
		if fw := tree.AncestorOfKind(leaf, tree.FloatingWrapper); fw != nil {
			node = fw
		}
		if node.Parent == ws {
			continue
		}
		if err := e.Store.Detach(node); err != nil {
			return fail(err)
		}
		if err := e.Store.Attach(node, ws, false); err != nil {
			return fail(err)
		}
	}
	return ok()
}

// doMoveDirection swaps a leaf's position with its sibling in the given
// direction, a deliberately simplified model of i3's tree-restructuring
// `move <direction>` (moving into a cousin subtree is out of scope here;
// see DESIGN.md).
func (e *Executor) doMoveDirection(sel []*tree.Container, dir focus.Direction) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: move has no matching container"))
	}
	target := sel[0]
	if target.Parent == nil {
		return fail(fmt.Errorf("command: container has no parent"))
	}

	forward := dir == focus.Right || dir == focus.Down
	var sibling *tree.Container
	if forward {
		sibling = target.NextSibling()
	} else {
		sibling = target.PrevSibling()
	}
	if sibling == nil {
		return fail(fmt.Errorf("command: no sibling in that direction"))
	}
	tree.SwapSiblingPositions(target, sibling)
	return ok()
}

func (e *Executor) doResize(sel []*tree.Container, op Operation) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: resize has no matching container"))
	}
	target := sel[0]
	parent := target.Parent
	if parent == nil {
		return fail(fmt.Errorf("command: container has no parent to resize against"))
	}

	forward := op.ResizeDir == focus.Right || op.ResizeDir == focus.Down
	var adjacent *tree.Container
	if forward {
		adjacent = target.NextSibling()
	} else {
		adjacent = target.PrevSibling()
	}
	if adjacent == nil {
		adjacent = target.NextSibling()
		if adjacent == nil {
			adjacent = target.PrevSibling()
		}
	}
	if adjacent == nil {
		return fail(fmt.Errorf("command: no adjacent sibling to resize against"))
	}

	grown, shrunk := target, adjacent
	if !op.ResizeGrow {
		grown, shrunk = adjacent, target
	}
	geom.ResizeAdjacent(parent, grown, shrunk, op.ResizeAmount)
	return ok()
}

func (e *Executor) doSplit(sel []*tree.Container, op Operation) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: split has no matching container"))
	}
	target := sel[0]
	if target.Parent == nil {
		return fail(fmt.Errorf("command: container has no parent to split"))
	}

	split := e.Store.NewContainer(tree.Split)
	split.Orientation = op.SplitOrientation
	if err := e.Store.Replace(target, split); err != nil {
		return fail(err)
	}
	if err := e.Store.Attach(target, split, false); err != nil {
		return fail(err)
	}
	return ok()
}

func (e *Executor) doLayout(sel []*tree.Container, op Operation) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: layout has no matching container"))
	}
	target := sel[0]
	container := target
	if container.Kind == tree.Leaf && container.Parent != nil {
		container = container.Parent
	}
	if op.LayoutToggle {
		container.Layout = nextLayout(container.Layout)
	} else {
		container.Layout = op.Layout
	}
	return ok()
}

// nextLayout cycles `layout toggle` through split -> stacked -> tabbed ->
// split (spec.md §4.6 `layout ... toggle`).
func nextLayout(l tree.Layout) tree.Layout {
	switch l {
	case tree.LayoutSplit:
		return tree.LayoutStacked
	case tree.LayoutStacked:
		return tree.LayoutTabbed
	default:
		return tree.LayoutSplit
	}
}

func (e *Executor) doFloating(root *tree.Container, sel []*tree.Container, op Operation) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: floating has no matching container"))
	}
	for _, leaf := range sel {
		want := resolveToggle(op.Toggle, leaf.Floating())
		if want == leaf.Floating() {
			continue
		}
		if want {
			if err := wrapFloating(e.Store, leaf); err != nil {
				return fail(err)
			}
		} else {
			if err := unwrapFloating(e.Store, leaf); err != nil {
				return fail(err)
			}
		}
	}
	return ok()
}

func resolveToggle(t Toggle, current bool) bool {
	switch t {
	case Enable:
		return true
	case Disable:
		return false
	default:
		return !current
	}
}

func wrapFloating(s *tree.Store, leaf *tree.Container) error {
	ws := tree.AncestorOfKind(leaf, tree.Workspace)
	if ws == nil {
		return fmt.Errorf("command: container is not on a workspace")
	}
	if err := s.Detach(leaf); err != nil {
		return err
	}
	fw := s.NewContainer(tree.FloatingWrapper)
	if err := s.Attach(fw, ws, false); err != nil {
		return err
	}
	if err := s.Attach(leaf, fw, false); err != nil {
		return err
	}
	leaf.FloatingState = tree.FloatingUserOn
	return nil
}

func unwrapFloating(s *tree.Store, leaf *tree.Container) error {
	fw := tree.AncestorOfKind(leaf, tree.FloatingWrapper)
	if fw == nil {
		return fmt.Errorf("command: container is not floating")
	}
	ws := fw.Parent
	if err := s.Detach(leaf); err != nil {
		return err
	}
	if err := s.Detach(fw); err != nil {
		return err
	}
	leaf.FloatingState = tree.FloatingUserOff
	return s.Attach(leaf, ws, false)
}

func (e *Executor) doFullscreen(sel []*tree.Container, op Operation) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: fullscreen has no matching container"))
	}
	target := sel[0]
	want := tree.FullscreenOutput
	if op.FullscreenGlobal {
		want = tree.FullscreenGlobal
	}

	switch resolveToggle(op.Toggle, target.FullscreenMode != tree.FullscreenNone) {
	case true:
		if want == tree.FullscreenGlobal {
			// Only LEAF/SPLIT containers can be showing a fullscreen
			// window; a WORKSPACE's FullscreenOutput is its visibility
			// marker (workspace.Manager.Visible reads it), not a
			// fullscreen state to clear here.
			for _, c := range e.Store.All() {
				if c.Kind == tree.Workspace {
					continue
				}
				c.FullscreenMode = tree.FullscreenNone
			}
		} else {
			// A global fullscreen container is exclusive: it is cleared
			// before any output-mode fullscreen is enabled.
			for _, c := range e.Store.All() {
				if c.FullscreenMode == tree.FullscreenGlobal {
					c.FullscreenMode = tree.FullscreenNone
				}
			}
			ws := tree.AncestorOfKind(target, tree.Workspace)
			if ws != nil {
				clearFullscreenIn(ws)
			}
		}
		target.FullscreenMode = want
	case false:
		target.FullscreenMode = tree.FullscreenNone
	}
	return ok()
}

func clearFullscreenIn(ws *tree.Container) {
	for _, c := range ws.Children() {
		if c.FullscreenMode != tree.FullscreenNone {
			c.FullscreenMode = tree.FullscreenNone
		}
		clearFullscreenIn(c)
	}
}

func (e *Executor) doKill(sel []*tree.Container, op Operation) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: kill has no matching container"))
	}
	for _, leaf := range sel {
		// Close's own emptiedWorkspaces return is not needed here: settle's
		// pruning sweep below covers every workspace this (or any other)
		// operation in the record might have emptied, not just this one.
		if _, err := e.Store.Close(leaf, op.KillPolicy, false, e.Unmapper); err != nil {
			return fail(err)
		}
	}
	return ok()
}

func (e *Executor) doMark(sel []*tree.Container, op Operation) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: mark has no matching container"))
	}
	sel[0].Mark = op.Mark
	return ok()
}

func (e *Executor) doUnmark(sel []*tree.Container) Result {
	for _, leaf := range sel {
		leaf.Mark = ""
	}
	return ok()
}

func (e *Executor) doWorkspace(root *tree.Container, op Operation) Result {
	var ws *tree.Container
	switch op.WorkspaceTarget {
	case WorkspaceBackAndForth:
		e.Workspace.BackAndForth(root)
		return ok()
	case WorkspaceNext:
		ws = e.Workspace.Next(e.currentWorkspace(root))
	case WorkspacePrev:
		ws = e.Workspace.Prev(e.currentWorkspace(root))
	case WorkspaceNextOnOutput:
		ws = e.Workspace.NextOnOutput(e.currentWorkspace(root))
	case WorkspacePrevOnOutput:
		ws = e.Workspace.PrevOnOutput(e.currentWorkspace(root))
	default:
		var created bool
		ws, created = e.Workspace.Get(root, op.MoveToWorkspace)
		_ = created
	}
	if ws == nil {
		return fail(fmt.Errorf("command: no such workspace"))
	}
	e.Workspace.Show(root, ws)
	return ok()
}

func (e *Executor) currentWorkspace(root *tree.Container) *tree.Container {
	return e.Workspace.Current(root)
}

const scratchpadWorkspaceName = "__i3_scratch"

// doScratchpadMove implements the SUPPLEMENTED FEATURES scratchpad
// extension: wraps the selection in a floating wrapper (if not already
// floating) and moves it to the internal scratchpad workspace.
func (e *Executor) doScratchpadMove(sel []*tree.Container) Result {
	if len(sel) == 0 {
		return fail(fmt.Errorf("command: scratchpad has no matching container"))
	}
	scratch := e.scratchpadWorkspace(sel[0])
	for _, leaf := range sel {
		if !leaf.Floating() {
			if err := wrapFloating(e.Store, leaf); err != nil {
				return fail(err)
			}
		}
		fw := tree.AncestorOfKind(leaf, tree.FloatingWrapper)
		if fw == nil || fw.Parent == scratch {
			continue
		}
		if err := e.Store.Detach(fw); err != nil {
			return fail(err)
		}
		if err := e.Store.Attach(fw, scratch, false); err != nil {
			return fail(err)
		}
	}
	return ok()
}

// doScratchpadShow cycles through the scratchpad's floating children,
// showing the next one on the currently focused workspace (original_source/
// src/scratchpad.c's round-robin summon behavior).
func (e *Executor) doScratchpadShow(root *tree.Container) Result {
	scratch := e.scratchpadWorkspace(root)
	children := scratch.FloatingChildren()
	if len(children) == 0 {
		return fail(fmt.Errorf("command: scratchpad is empty"))
	}
	fw := children[0]
	target := e.currentWorkspace(root)

	if err := e.Store.Detach(fw); err != nil {
		return fail(err)
	}
	if err := e.Store.Attach(fw, target, true); err != nil {
		return fail(err)
	}
	e.Focus.Focus(root, tree.DescendFocused(fw))
	return ok()
}

// scratchpadWorkspace finds or lazily creates the internal scratchpad
// workspace, anchored to the output of whichever container is passed
// (conventionally the currently focused one).
func (e *Executor) scratchpadWorkspace(near *tree.Container) *tree.Container {
	if e.scratchpad != nil && e.scratchpad.Parent != nil {
		return e.scratchpad
	}
	for _, c := range e.Store.All() {
		if c.Kind == tree.Workspace && c.Name == scratchpadWorkspaceName {
			e.scratchpad = c
			return c
		}
	}
	output := tree.AncestorOfKind(near, tree.Output)
	if output == nil {
		output = e.Store.Root.FirstChild()
	}
	e.scratchpad = e.Workspace.CreateOnOutput(output, scratchpadWorkspaceName)
	return e.scratchpad
}

// settle runs spec.md §4.6's post-sequence settle step: reduce
// single-child splits, fix percentages, recompute urgency, prune empty
// invisible workspaces, recompute geometry. Redraw is C7's job once the
// settle step returns control to the reactor.
func (e *Executor) settle(root *tree.Container) {
	e.Store.SettleSplits()
	for _, c := range e.Store.All() {
		if c.Kind != tree.Workspace {
			continue
		}
		e.Workspace.UpdateUrgentFlag(c)
		e.Workspace.PruneIfEmpty(c)
	}
	recomputeGeometry(e.GeomCfg, root)
}

// dockareaHeight sums the header/strut height solveDockarea would give each
// child, to size the CONTENT strip between an OUTPUT's two DOCKAREAs
// (spec.md §4.3 dockarea, §4.5 point 5 struts).
func dockareaHeight(cfg geom.Config, dockarea *tree.Container) uint32 {
	var h uint32
	for _, child := range dockarea.Children() {
		childH := cfg.HeaderHeightPx
		if child.Window != nil {
			if s := child.Window.Struts.Top + child.Window.Struts.Bottom; s > 0 {
				childH = s
			}
		}
		h += childH
	}
	return h
}

// recomputeGeometry lays out every OUTPUT's DOCKAREAs and visible WORKSPACE
// from the OUTPUT's own rect, which C7 maintains from RandR (spec.md §4.3,
// §4.6 settle step "recompute geometry").
func recomputeGeometry(cfg geom.Config, root *tree.Container) {
	for _, output := range root.Children() {
		var top, bottom, content *tree.Container
		for _, c := range output.Children() {
			switch {
			case c.Kind == tree.Content:
				content = c
			case c.Kind == tree.Dockarea && c.Name == "top":
				top = c
			case c.Kind == tree.Dockarea && c.Name == "bottom":
				bottom = c
			}
		}
		if content == nil {
			continue
		}

		var topH, bottomH uint32
		if top != nil {
			topH = dockareaHeight(cfg, top)
			top.Rect = tree.Rect{X: output.Rect.X, Y: output.Rect.Y, W: output.Rect.W, H: topH}
			geom.Solve(cfg, top)
		}
		if bottom != nil {
			bottomH = dockareaHeight(cfg, bottom)
			bottom.Rect = tree.Rect{X: output.Rect.X, Y: output.Rect.Y + int32(output.Rect.H) - int32(bottomH), W: output.Rect.W, H: bottomH}
			geom.Solve(cfg, bottom)
		}

		content.Rect = tree.Rect{
			X: output.Rect.X,
			Y: output.Rect.Y + int32(topH),
			W: output.Rect.W,
			H: output.Rect.H - topH - bottomH,
		}

		for _, ws := range content.Children() {
			if ws.FullscreenMode != tree.FullscreenOutput {
				continue
			}
			ws.Rect = content.Rect
			geom.Solve(cfg, ws)
			geom.SolveFloating(cfg, ws)
		}
	}
}
