package command_test

import (
	"regexp"
	"testing"

	"github.com/axewm/axewm/internal/command"
	"github.com/axewm/axewm/internal/config"
	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/geom"
	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
)

type stubTakeFocuser struct{}

func (stubTakeFocuser) SetInputFocus(leaf *tree.Container) {}
func (stubTakeFocuser) SendTakeFocus(leaf *tree.Container)  {}

type recordingUnmapper struct {
	unmapped []*tree.Window
	killed   []*tree.Window
}

func (r *recordingUnmapper) Unmap(w *tree.Window, selfCaused bool) {
	r.unmapped = append(r.unmapped, w)
}

func (r *recordingUnmapper) Kill(w *tree.Window, policy tree.KillPolicy) {
	r.killed = append(r.killed, w)
}

type recordingLauncher struct {
	cmdlines []string
}

func (r *recordingLauncher) Launch(cmdline string) error {
	r.cmdlines = append(r.cmdlines, cmdline)
	return nil
}

func newLeaf(s *tree.Store, class string) *tree.Container {
	leaf := s.NewContainer(tree.Leaf)
	leaf.Window = &tree.Window{Class: class, RanAssignments: make(map[string]bool)}
	return leaf
}

// criteriaFor selects the one leaf with an exact class match.
func criteriaFor(t *testing.T, class string) []command.Criterion {
	t.Helper()
	return []command.Criterion{{ClassRe: regexp.MustCompile("^" + regexp.QuoteMeta(class) + "$")}}
}

// env sets up one output (with a rect, so settle's geometry recompute has
// something to do), a "1" workspace holding two side-by-side leaves, shown
// and focused on the first, and a ready Executor.
type env struct {
	e      *command.Executor
	s      *tree.Store
	root   *tree.Container
	output *tree.Container
	ws     *tree.Container
	focus  *focus.Manager
	wsmgr  *workspace.Manager
	a, b   *tree.Container
}

func setup(t *testing.T) *env {
	t.Helper()
	s := tree.New()
	f := focus.New(stubTakeFocuser{})
	w := workspace.New(s, f, config.Default())
	output := w.NewOutput(s.Root, "eDP-1")
	output.Rect = tree.Rect{X: 0, Y: 0, W: 1920, H: 1080}

	ws, _ := w.Get(s.Root, "1")
	ws.Orientation = tree.Horizontal

	a := newLeaf(s, "Alpha")
	if err := s.Attach(a, ws, false); err != nil {
		t.Fatal(err)
	}
	b := newLeaf(s, "Beta")
	if err := s.Attach(b, ws, false); err != nil {
		t.Fatal(err)
	}

	w.Show(s.Root, ws)
	f.Focus(s.Root, a)

	e := command.New(s, f, w, geom.DefaultConfig)
	return &env{e: e, s: s, root: s.Root, output: output, ws: ws, focus: f, wsmgr: w, a: a, b: b}
}

func (env *env) run(op command.Operation) command.Result {
	results := env.e.Execute(env.root, []command.Record{{Operations: []command.Operation{op}}})
	return results[len(results)-1]
}

func (env *env) runFor(criteria []command.Criterion, op command.Operation) command.Result {
	results := env.e.Execute(env.root, []command.Record{{Criteria: criteria, Operations: []command.Operation{op}}})
	return results[len(results)-1]
}

func TestFocusDirectionMovesBetweenSplitSiblings(t *testing.T) {
	env := setup(t)
	res := env.run(command.Operation{Op: command.OpFocus, Direction: focus.Right})
	if !res.Success {
		t.Fatalf("focus right failed: %s", res.Error)
	}
	if env.focus.FocusedLeaf(env.root) != env.b {
		t.Fatal("focus right should have landed on the second sibling")
	}
}

func TestFocusParentSelectsEnclosingSplit(t *testing.T) {
	env := setup(t)
	split := env.s.NewContainer(tree.Split)
	if err := env.s.Replace(env.a, split); err != nil {
		t.Fatal(err)
	}
	if err := env.s.Attach(env.a, split, false); err != nil {
		t.Fatal(err)
	}
	env.focus.Focus(env.root, env.a)

	res := env.run(command.Operation{Op: command.OpFocus, FocusTarget: "parent"})
	if !res.Success {
		t.Fatalf("focus parent failed: %s", res.Error)
	}
	if env.focus.FocusedLeaf(env.root) != env.a {
		t.Fatal("descend_focused from the split should still reach a")
	}
}

func TestMoveToWorkspaceRelocatesLeaf(t *testing.T) {
	env := setup(t)
	env.wsmgr.Get(env.root, "2")

	res := env.runFor(criteriaFor(t, "Beta"), command.Operation{Op: command.OpMove, MoveToWorkspace: "2"})
	if !res.Success {
		t.Fatalf("move to workspace failed: %s", res.Error)
	}
	ws := tree.AncestorOfKind(env.b, tree.Workspace)
	if ws == nil || ws.Name != "2" {
		t.Fatalf("b's workspace = %+v, want 2", ws)
	}
}

func TestMoveDirectionSwapsSiblingOrder(t *testing.T) {
	env := setup(t)
	env.focus.Focus(env.root, env.a)

	res := env.run(command.Operation{Op: command.OpMove, Direction: focus.Right})
	if !res.Success {
		t.Fatalf("move right failed: %s", res.Error)
	}
	children := env.ws.Children()
	if len(children) != 2 || children[0] != env.b || children[1] != env.a {
		t.Fatalf("children = %v, want [b, a]", children)
	}
}

func TestResizeGrowShrinksAdjacentSibling(t *testing.T) {
	env := setup(t)
	beforeA, beforeB := env.a.Percent, env.b.Percent

	res := env.runFor(criteriaFor(t, "Alpha"), command.Operation{
		Op:           command.OpResize,
		ResizeGrow:   true,
		ResizeDir:    focus.Right,
		ResizeAmount: geom.ResizeAmount{HasPpt: true, Ppt: 0.1},
	})
	if !res.Success {
		t.Fatalf("resize failed: %s", res.Error)
	}
	if env.a.Percent <= beforeA {
		t.Fatalf("a.Percent = %v, want > %v", env.a.Percent, beforeA)
	}
	if env.b.Percent >= beforeB {
		t.Fatalf("b.Percent = %v, want < %v", env.b.Percent, beforeB)
	}
}

func TestSplitWrapsTargetInNewSplitContainer(t *testing.T) {
	env := setup(t)
	res := env.runFor(criteriaFor(t, "Alpha"), command.Operation{Op: command.OpSplit, SplitOrientation: tree.Vertical})
	if !res.Success {
		t.Fatalf("split failed: %s", res.Error)
	}
	if env.a.Parent == nil || env.a.Parent.Kind != tree.Split {
		t.Fatalf("a.Parent = %v, want a split container", env.a.Parent)
	}
	if env.a.Parent.Orientation != tree.Vertical {
		t.Fatal("new split should carry the requested orientation")
	}
	if env.a.Parent.Parent != env.ws {
		t.Fatal("new split should be attached where a used to be")
	}
}

func TestLayoutToggleCyclesSplitStackedTabbed(t *testing.T) {
	env := setup(t)
	if env.ws.Layout != tree.LayoutSplit {
		t.Fatalf("starting layout = %v, want split", env.ws.Layout)
	}

	env.runFor(criteriaFor(t, "Alpha"), command.Operation{Op: command.OpLayout, LayoutToggle: true})
	if env.ws.Layout != tree.LayoutStacked {
		t.Fatalf("layout after 1 toggle = %v, want stacked", env.ws.Layout)
	}

	env.runFor(criteriaFor(t, "Alpha"), command.Operation{Op: command.OpLayout, LayoutToggle: true})
	if env.ws.Layout != tree.LayoutTabbed {
		t.Fatalf("layout after 2 toggles = %v, want tabbed", env.ws.Layout)
	}

	env.runFor(criteriaFor(t, "Alpha"), command.Operation{Op: command.OpLayout, LayoutToggle: true})
	if env.ws.Layout != tree.LayoutSplit {
		t.Fatalf("layout after 3 toggles = %v, want split again", env.ws.Layout)
	}
}

func TestFloatingEnableWrapsLeafInFloatingWrapper(t *testing.T) {
	env := setup(t)
	res := env.runFor(criteriaFor(t, "Beta"), command.Operation{Op: command.OpFloating, Toggle: command.Enable})
	if !res.Success {
		t.Fatalf("floating enable failed: %s", res.Error)
	}
	if env.b.Parent == nil || env.b.Parent.Kind != tree.FloatingWrapper {
		t.Fatalf("b.Parent = %v, want a floating wrapper", env.b.Parent)
	}
	if !env.b.Floating() {
		t.Fatal("b should report itself as floating")
	}
}

func TestFloatingDisableUnwrapsLeaf(t *testing.T) {
	env := setup(t)
	env.runFor(criteriaFor(t, "Beta"), command.Operation{Op: command.OpFloating, Toggle: command.Enable})
	res := env.runFor(criteriaFor(t, "Beta"), command.Operation{Op: command.OpFloating, Toggle: command.Disable})
	if !res.Success {
		t.Fatalf("floating disable failed: %s", res.Error)
	}
	if env.b.Floating() {
		t.Fatal("b should no longer be floating")
	}
	if env.b.Parent != env.ws {
		t.Fatalf("b.Parent = %v, want workspace directly", env.b.Parent)
	}
}

func TestFullscreenToggleClearsOtherFullscreenInWorkspace(t *testing.T) {
	env := setup(t)
	env.runFor(criteriaFor(t, "Alpha"), command.Operation{Op: command.OpFullscreen, Toggle: command.Enable})
	if env.a.FullscreenMode != tree.FullscreenOutput {
		t.Fatalf("a.FullscreenMode = %v, want output", env.a.FullscreenMode)
	}

	env.runFor(criteriaFor(t, "Beta"), command.Operation{Op: command.OpFullscreen, Toggle: command.Enable})
	if env.a.FullscreenMode != tree.FullscreenNone {
		t.Fatal("a should have been cleared when b went fullscreen")
	}
	if env.b.FullscreenMode != tree.FullscreenOutput {
		t.Fatal("b should now be fullscreen")
	}
}

func TestKillUnmapsAndDetachesLeaf(t *testing.T) {
	env := setup(t)
	ru := &recordingUnmapper{}
	env.e.Unmapper = ru

	res := env.runFor(criteriaFor(t, "Beta"), command.Operation{Op: command.OpKill, KillPolicy: tree.KillWindow})
	if !res.Success {
		t.Fatalf("kill failed: %s", res.Error)
	}
	if len(ru.unmapped) != 1 || ru.unmapped[0] != env.b.Window {
		t.Fatal("expected b's window to be unmapped")
	}
	if len(ru.killed) != 1 {
		t.Fatal("expected b's window to be killed under KillWindow policy")
	}
	if env.b.Parent != nil {
		t.Fatal("b should have been detached from the tree")
	}
}

func TestMarkAndUnmark(t *testing.T) {
	env := setup(t)
	env.focus.Focus(env.root, env.a)

	res := env.run(command.Operation{Op: command.OpMark, Mark: "term"})
	if !res.Success || env.a.Mark != "term" {
		t.Fatalf("mark failed: success=%v a.Mark=%q", res.Success, env.a.Mark)
	}

	res = env.runFor([]command.Criterion{{Mark: "term"}}, command.Operation{Op: command.OpUnmark})
	if !res.Success {
		t.Fatalf("unmark failed: %s", res.Error)
	}
	if env.a.Mark != "" {
		t.Fatalf("a.Mark = %q, want empty after unmark", env.a.Mark)
	}
}

func TestWorkspaceSwitchShowsTargetWorkspace(t *testing.T) {
	env := setup(t)
	ws2, _ := env.wsmgr.Get(env.root, "2")
	leaf := newLeaf(env.s, "Gamma")
	env.s.Attach(leaf, ws2, false)

	res := env.run(command.Operation{Op: command.OpWorkspace, MoveToWorkspace: "2"})
	if !res.Success {
		t.Fatalf("workspace switch failed: %s", res.Error)
	}
	if env.wsmgr.Visible(env.output) != ws2 {
		t.Fatal("workspace 2 should now be visible")
	}
}

func TestExecLaunchesViaLauncher(t *testing.T) {
	env := setup(t)
	rl := &recordingLauncher{}
	env.e.Launcher = rl

	res := env.run(command.Operation{Op: command.OpExec, ExecCommand: "echo hi"})
	if !res.Success {
		t.Fatalf("exec failed: %s", res.Error)
	}
	if len(rl.cmdlines) != 1 || rl.cmdlines[0] != "echo hi" {
		t.Fatalf("launcher recorded %v, want [echo hi]", rl.cmdlines)
	}
}

func TestScratchpadMoveThenShowRoundTrips(t *testing.T) {
	env := setup(t)
	res := env.runFor(criteriaFor(t, "Beta"), command.Operation{Op: command.OpScratchpadMove})
	if !res.Success {
		t.Fatalf("scratchpad move failed: %s", res.Error)
	}
	if tree.AncestorOfKind(env.b, tree.Workspace) == env.ws {
		t.Fatal("b should have left the visible workspace")
	}

	env.focus.Focus(env.root, env.a)
	res = env.run(command.Operation{Op: command.OpScratchpadShow})
	if !res.Success {
		t.Fatalf("scratchpad show failed: %s", res.Error)
	}
	if tree.AncestorOfKind(env.b, tree.Workspace) != env.ws {
		t.Fatal("scratchpad show should bring b back to the current workspace")
	}
	if !env.b.Floating() {
		t.Fatal("b should still be floating after scratchpad show")
	}
}

func TestSettleRecomputesGeometryAfterSplit(t *testing.T) {
	env := setup(t)
	res := env.runFor(criteriaFor(t, "Alpha"), command.Operation{Op: command.OpSplit, SplitOrientation: tree.Vertical})
	if !res.Success {
		t.Fatalf("split failed: %s", res.Error)
	}
	if env.ws.Rect.W == 0 || env.ws.Rect.H == 0 {
		t.Fatal("settle should have recomputed the workspace rect from the output")
	}
	if env.a.WindowRect.W == 0 {
		t.Fatal("settle should have recomputed a's window rect")
	}
}

func TestSettleReducesSingleChildSplitLeftByKill(t *testing.T) {
	env := setup(t)
	split := env.s.NewContainer(tree.Split)
	split.Orientation = tree.Vertical
	if err := env.s.Replace(env.a, split); err != nil {
		t.Fatal(err)
	}
	if err := env.s.Attach(env.a, split, false); err != nil {
		t.Fatal(err)
	}
	second := newLeaf(env.s, "Gamma")
	if err := env.s.Attach(second, split, false); err != nil {
		t.Fatal(err)
	}

	ru := &recordingUnmapper{}
	env.e.Unmapper = ru
	res := env.runFor(criteriaFor(t, "Gamma"), command.Operation{Op: command.OpKill, KillPolicy: tree.KillNone})
	if !res.Success {
		t.Fatalf("kill failed: %s", res.Error)
	}
	if env.a.Parent != env.ws {
		t.Fatalf("a.Parent = %v, want workspace directly after the split was reduced", env.a.Parent)
	}
}
