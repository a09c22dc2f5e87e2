// Package workspace implements the workspace manager (C4): creating
// workspaces on demand, assigning them to outputs, switching which one is
// visible, back-and-forth, and numbered/named traversal, generalizing
// taowm's single flat list of workspaces per screen (taowm/main.go's
// workspace type) to the CONTENT/WORKSPACE subtree of the container store.
package workspace

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/axewm/axewm/internal/config"
	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/tree"
)

var errNoOutput = errors.New("workspace: container has no output ancestor")

// Manager owns the one piece of workspace state that isn't already part of
// the container tree: the name remembered for back_and_forth.
type Manager struct {
	store *tree.Store
	focus *focus.Manager
	cfg   config.Config

	previous string

	// OnUrgentChange, when set, is invoked after UpdateUrgentFlag observes
	// a change, so C7/IPC can fire the workspace "urgent" event (spec.md
	// §4.4 update_urgent_flag; spec.md §6 workspace events).
	OnUrgentChange func(ws *tree.Container)
}

func New(store *tree.Store, f *focus.Manager, cfg config.Config) *Manager {
	return &Manager{store: store, focus: f, cfg: cfg}
}

func parseNum(name string) int {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 {
		return -1
	}
	n, err := strconv.Atoi(name[:i])
	if err != nil {
		return -1
	}
	return n
}

func allWorkspaces(s *tree.Store) []*tree.Container {
	var out []*tree.Container
	for _, c := range s.All() {
		if c.Kind == tree.Workspace {
			out = append(out, c)
		}
	}
	return out
}

func findOutputByName(s *tree.Store, name string) *tree.Container {
	for _, c := range s.All() {
		if c.Kind == tree.Output && c.Name == name {
			return c
		}
	}
	return nil
}

// ContentOf returns output's CONTENT child, the parent every workspace on
// that output is attached under.
func ContentOf(output *tree.Container) *tree.Container { return contentOf(output) }

// DockareaOf returns output's top or bottom DOCKAREA child, for C5 dock
// window placement (spec.md §4.5 point 5).
func DockareaOf(output *tree.Container, pos tree.DockPosition) *tree.Container {
	want := "top"
	if pos == tree.DockBottom {
		want = "bottom"
	}
	for _, c := range output.Children() {
		if c.Kind == tree.Dockarea && c.Name == want {
			return c
		}
	}
	return nil
}

// NewOutput creates an OUTPUT with its standard skeleton: a top DOCKAREA, a
// CONTENT, and a bottom DOCKAREA (spec.md §3's kind-discipline diagram),
// attached under root. C7 calls this when RandR reports a new active CRTC.
func (m *Manager) NewOutput(root *tree.Container, name string) *tree.Container {
	output := m.store.NewContainer(tree.Output)
	output.Name = name
	m.store.Attach(output, root, false)

	top := m.store.NewContainer(tree.Dockarea)
	top.Name = "top"
	m.store.Attach(top, output, false)

	content := m.store.NewContainer(tree.Content)
	m.store.Attach(content, output, false)

	bottom := m.store.NewContainer(tree.Dockarea)
	bottom.Name = "bottom"
	m.store.Attach(bottom, output, false)

	return output
}

func contentOf(output *tree.Container) *tree.Container {
	for _, c := range output.Children() {
		if c.Kind == tree.Content {
			return c
		}
	}
	return nil
}

// focusedOutput returns the OUTPUT ancestor of the currently focused leaf,
// falling back to root's first OUTPUT child.
func (m *Manager) focusedOutput(root *tree.Container) *tree.Container {
	leaf := m.focus.FocusedLeaf(root)
	if out := tree.AncestorOfKind(leaf, tree.Output); out != nil {
		return out
	}
	return root.FirstChild()
}

// Current returns the workspace currently visible on the focused output, the
// default placement target for a newly adopted window (spec.md §4.5 step 3).
func (m *Manager) Current(root *tree.Container) *tree.Container {
	output := m.focusedOutput(root)
	if ws := m.Visible(output); ws != nil {
		return ws
	}
	return m.CreateOnOutput(output, "")
}

// AssignOutput resolves the target output for a workspace name per spec.md
// §4.4 workspace_get: the configured workspace→output assignment, else the
// currently focused output.
func (m *Manager) AssignOutput(root *tree.Container, name string) *tree.Container {
	if outName, ok := m.cfg.WorkspaceOutputs[name]; ok {
		if out := findOutputByName(m.store, outName); out != nil {
			return out
		}
	}
	return m.focusedOutput(root)
}

// Get returns the workspace of that name, creating it if absent (spec.md
// §4.4 workspace_get).
func (m *Manager) Get(root *tree.Container, name string) (ws *tree.Container, created bool) {
	for _, w := range allWorkspaces(m.store) {
		if w.Name == name {
			return w, false
		}
	}
	output := m.AssignOutput(root, name)
	return m.CreateOnOutput(output, name), true
}

// usedNames reports every workspace name currently in the tree, anywhere.
func usedNames(s *tree.Store) map[string]bool {
	used := make(map[string]bool)
	for _, w := range allWorkspaces(s) {
		used[w.Name] = true
	}
	return used
}

// synthesizeName picks a fresh workspace name per create_on_output: prefer
// an unused name from the configured keybinding pool, in binding order,
// else the lowest positive integer not in use anywhere (spec.md §4.4).
func (m *Manager) synthesizeName() string {
	used := usedNames(m.store)
	for _, candidate := range m.cfg.WorkspaceNamePool {
		if !used[candidate] {
			return candidate
		}
	}
	n := 1
	for {
		s := strconv.Itoa(n)
		if !used[s] {
			return s
		}
		n++
	}
}

// CreateOnOutput synthesizes a fresh workspace on output, or creates one
// with the given explicit name (spec.md §4.4 create_on_output).
func (m *Manager) CreateOnOutput(output *tree.Container, name string) *tree.Container {
	if name == "" {
		name = m.synthesizeName()
	}
	content := contentOf(output)
	ws := m.store.NewContainer(tree.Workspace)
	ws.Name = name
	ws.Num = parseNum(name)
	m.store.Attach(ws, content, false)
	return ws
}

// Visible returns the workspace currently shown on output, or nil if none
// has been shown yet.
func (m *Manager) Visible(output *tree.Container) *tree.Container {
	content := contentOf(output)
	if content == nil {
		return nil
	}
	for _, ws := range content.Children() {
		if ws.FullscreenMode == tree.FullscreenOutput {
			return ws
		}
	}
	return nil
}

func isInternal(ws *tree.Container) bool { return strings.HasPrefix(ws.Name, "__") }

// isPrunable reports whether an empty, invisible ws may be destroyed:
// internal (`__`-prefixed) and user-named (never numerically derived, i.e.
// num == -1) workspaces are kept forever even when empty (spec.md §3
// invariant 7's exception; spec.md §4.4 show's "is not named-user").
func isPrunable(ws *tree.Container) bool {
	if isInternal(ws) {
		return false
	}
	return ws.Num >= 0
}

func isEmpty(ws *tree.Container) bool {
	return ws.NumChildren() == 0 && len(ws.FloatingChildren()) == 0
}

// destroy detaches ws from its CONTENT parent. An empty workspace has no
// windows to unmap, so Store.Close is unnecessary; a plain Detach suffices.
func (m *Manager) destroy(ws *tree.Container) {
	m.store.Detach(ws)
}

// reassignStickyGroups moves the actual attached window of any sticky
// group whose displaying member is not on the now-visible ws to the
// leftmost other member that is on ws, per DESIGN.md's open-question
// decision (grounded on original_source/src/floating.c's
// output_push_sticky_windows left-to-right scan).
func (m *Manager) reassignStickyGroups(ws *tree.Container) {
	groups := make(map[string][]*tree.Container)
	for _, c := range m.store.All() {
		if c.Kind == tree.Leaf && c.StickyGroup != "" {
			groups[c.StickyGroup] = append(groups[c.StickyGroup], c)
		}
	}

	for _, members := range groups {
		var displaying *tree.Container
		for _, mem := range members {
			if mem.Window != nil {
				displaying = mem
				break
			}
		}
		if displaying == nil || tree.AncestorOfKind(displaying, tree.Workspace) == ws {
			continue
		}

		var target *tree.Container
		for _, mem := range members {
			if mem == displaying {
				continue
			}
			if tree.AncestorOfKind(mem, tree.Workspace) == ws {
				target = mem
				break
			}
		}
		if target == nil {
			continue
		}
		target.Window, displaying.Window = displaying.Window, nil
	}
}

// Show marks all sibling workspaces on the same output non-fullscreen and
// ws fullscreen, remembers the previously shown workspace for
// back_and_forth, reassigns sticky-group windows, focuses descend_focused,
// and prunes the previously visible workspace if it is now empty,
// invisible and not named-user (spec.md §4.4 show).
func (m *Manager) Show(root, ws *tree.Container) {
	output := tree.AncestorOfKind(ws, tree.Output)
	content := contentOf(output)
	if content == nil {
		return
	}

	prev := m.Visible(output)

	for _, sib := range content.Children() {
		sib.FullscreenMode = tree.FullscreenNone
	}
	ws.FullscreenMode = tree.FullscreenOutput

	if prev != nil && prev != ws {
		m.previous = prev.Name
	}

	m.reassignStickyGroups(ws)
	m.focus.Focus(root, tree.DescendFocused(ws))

	if prev != nil && prev != ws {
		m.PruneIfEmpty(prev)
	}
}

// PruneIfEmpty destroys ws if it is empty, not currently visible on its
// output, and prunable (not internal, not user-named) — the same check
// Show runs on the workspace it switches away from, exposed here for any
// other path that can empty a workspace without going through Show (a
// kill command or a DestroyNotify the window manager did not initiate).
func (m *Manager) PruneIfEmpty(ws *tree.Container) {
	if ws == nil || ws.Parent == nil {
		return
	}
	output := tree.AncestorOfKind(ws, tree.Output)
	if output != nil && m.Visible(output) == ws {
		return
	}
	if isEmpty(ws) && isPrunable(ws) {
		m.destroy(ws)
	}
}

// ordered returns every workspace (optionally restricted to one output) in
// create_on_output/next/prev's traversal order: numbered workspaces by num
// ascending, then named (num == -1) workspaces in tree (creation) order
// (spec.md §4.4).
func ordered(ws []*tree.Container) []*tree.Container {
	var numbered, named []*tree.Container
	for _, w := range ws {
		if w.Num >= 0 {
			numbered = append(numbered, w)
		} else {
			named = append(named, w)
		}
	}
	sort.SliceStable(numbered, func(i, j int) bool { return numbered[i].Num < numbered[j].Num })
	return append(numbered, named...)
}

func onOutput(ws []*tree.Container, output *tree.Container) []*tree.Container {
	var out []*tree.Container
	for _, w := range ws {
		if tree.AncestorOfKind(w, tree.Output) == output {
			out = append(out, w)
		}
	}
	return out
}

func step(all []*tree.Container, current *tree.Container, forward bool) *tree.Container {
	if len(all) == 0 {
		return current
	}
	idx := -1
	for i, w := range all {
		if w == current {
			idx = i
			break
		}
	}
	if idx == -1 {
		return all[0]
	}
	if forward {
		return all[(idx+1)%len(all)]
	}
	return all[(idx-1+len(all))%len(all)]
}

// All returns every workspace in the whole tree in traversal order
// (numbered ascending, then named in creation order), the ordering
// _NET_CURRENT_DESKTOP's integer index addresses (spec.md §6).
func (m *Manager) All() []*tree.Container {
	return ordered(allWorkspaces(m.store))
}

// Next/Prev traverse every workspace in the whole tree; *_on_output variants
// restrict traversal to current's own output (spec.md §4.4).
func (m *Manager) Next(current *tree.Container) *tree.Container {
	return step(ordered(allWorkspaces(m.store)), current, true)
}

func (m *Manager) Prev(current *tree.Container) *tree.Container {
	return step(ordered(allWorkspaces(m.store)), current, false)
}

func (m *Manager) NextOnOutput(current *tree.Container) *tree.Container {
	output := tree.AncestorOfKind(current, tree.Output)
	return step(ordered(onOutput(allWorkspaces(m.store), output)), current, true)
}

func (m *Manager) PrevOnOutput(current *tree.Container) *tree.Container {
	output := tree.AncestorOfKind(current, tree.Output)
	return step(ordered(onOutput(allWorkspaces(m.store), output)), current, false)
}

// BackAndForth shows the workspace remembered by the previous Show call, if
// any still exists (spec.md §4.4 back_and_forth).
func (m *Manager) BackAndForth(root *tree.Container) {
	if m.previous == "" {
		return
	}
	ws, _ := m.Get(root, m.previous)
	m.Show(root, ws)
}

// MoveWorkspaceToOutput relocates ws's content and floating wrappers to
// dstOutput. If ws was the only workspace on its source output, a
// replacement workspace is created there first so the source output is
// never left without one (spec.md §4.4 move_workspace_to_output). Floating
// rectangles are translated by the caller via geom.TranslateFloatingOnOutputMove
// for each of ws's FloatingChildren, using the returned old/new output
// rects, since workspace.Manager does not depend on package geom.
func (m *Manager) MoveWorkspaceToOutput(root, ws, dstOutput *tree.Container) (oldOutputRect, newOutputRect tree.Rect, err error) {
	srcOutput := tree.AncestorOfKind(ws, tree.Output)
	if srcOutput == nil {
		return tree.Rect{}, tree.Rect{}, errNoOutput
	}
	srcContent := contentOf(srcOutput)

	wasOnlyWorkspace := len(srcContent.Children()) == 1
	wasVisible := ws.FullscreenMode == tree.FullscreenOutput

	if err := m.store.Detach(ws); err != nil {
		return tree.Rect{}, tree.Rect{}, err
	}

	if wasOnlyWorkspace {
		m.CreateOnOutput(srcOutput, "")
	}

	dstContent := contentOf(dstOutput)
	if err := m.store.Attach(ws, dstContent, false); err != nil {
		return tree.Rect{}, tree.Rect{}, err
	}

	if wasVisible {
		m.Show(root, ws)
	}

	return srcOutput.Rect, dstOutput.Rect, nil
}

// recomputeUrgent recursively derives urgency: a LEAF's urgency is set
// directly from its window's hints by C5/C7; every other container's
// urgency is the OR of its children's (spec.md §3 urgent).
func recomputeUrgent(c *tree.Container) bool {
	if c.Kind == tree.Leaf {
		return c.Urgent
	}
	urgent := false
	for _, child := range c.Children() {
		if recomputeUrgent(child) {
			urgent = true
		}
	}
	for _, fc := range c.FloatingChildren() {
		if recomputeUrgent(fc) {
			urgent = true
		}
	}
	c.Urgent = urgent
	return urgent
}

// UpdateUrgentFlag recomputes ws's urgency by recursion; on change it calls
// OnUrgentChange so the caller can emit a workspace IPC event and request a
// redraw (spec.md §4.4 update_urgent_flag).
func (m *Manager) UpdateUrgentFlag(ws *tree.Container) {
	before := ws.Urgent
	recomputeUrgent(ws)
	if before != ws.Urgent && m.OnUrgentChange != nil {
		m.OnUrgentChange(ws)
	}
}
