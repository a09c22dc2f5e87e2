package workspace_test

import (
	"testing"

	"github.com/axewm/axewm/internal/config"
	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
)

type stubTakeFocuser struct{}

func (stubTakeFocuser) SetInputFocus(leaf *tree.Container) {}
func (stubTakeFocuser) SendTakeFocus(leaf *tree.Container)  {}

func newOutput(s *tree.Store, root *tree.Container, name string) *tree.Container {
	output := s.NewContainer(tree.Output)
	output.Name = name
	s.Attach(output, root, false)
	content := s.NewContainer(tree.Content)
	s.Attach(content, output, false)
	return output
}

func setup() (*tree.Store, *focus.Manager, *workspace.Manager, *tree.Container) {
	s := tree.New()
	output := newOutput(s, s.Root, "eDP-1")
	f := focus.New(stubTakeFocuser{})
	w := workspace.New(s, f, config.Default())
	return s, f, w, output
}

func TestGetCreatesWorkspaceOnFocusedOutput(t *testing.T) {
	s, _, w, output := setup()
	ws, created := w.Get(s.Root, "1")
	if !created {
		t.Fatal("expected a new workspace to be created")
	}
	if tree.AncestorOfKind(ws, tree.Output) != output {
		t.Fatal("workspace was not created under the focused output")
	}
	if ws.Num != 1 {
		t.Fatalf("ws.Num = %d, want 1", ws.Num)
	}

	again, created2 := w.Get(s.Root, "1")
	if created2 {
		t.Fatal("expected the second Get to find the existing workspace")
	}
	if again != ws {
		t.Fatal("Get returned a different container for the same name")
	}
}

func TestCreateOnOutputSynthesizesLowestFreeNumber(t *testing.T) {
	s, _, w, output := setup()
	w.Get(s.Root, "1")
	w.Get(s.Root, "2")
	ws := w.CreateOnOutput(output, "")
	if ws.Name != "3" {
		t.Fatalf("synthesized name = %q, want 3", ws.Name)
	}
}

func TestCreateOnOutputPrefersNamePool(t *testing.T) {
	s := tree.New()
	output := newOutput(s, s.Root, "eDP-1")
	f := focus.New(stubTakeFocuser{})
	cfg := config.Default()
	cfg.WorkspaceNamePool = []string{"web", "mail"}
	w := workspace.New(s, f, cfg)

	ws := w.CreateOnOutput(output, "")
	if ws.Name != "web" {
		t.Fatalf("synthesized name = %q, want web (from the pool)", ws.Name)
	}
}

func TestShowMarksExactlyOneFullscreenPerOutput(t *testing.T) {
	s, _, w, output := setup()
	a, _ := w.Get(s.Root, "1")
	b, _ := w.Get(s.Root, "2")

	w.Show(s.Root, a)
	if a.FullscreenMode != tree.FullscreenOutput {
		t.Fatal("a should be the visible workspace")
	}

	w.Show(s.Root, b)
	if a.FullscreenMode != tree.FullscreenNone {
		t.Fatal("a should no longer be fullscreen after showing b")
	}
	if b.FullscreenMode != tree.FullscreenOutput {
		t.Fatal("b should be the visible workspace")
	}
	if w.Visible(output) != b {
		t.Fatal("Visible should report b")
	}
}

func TestShowPrunesEmptyNumberedPreviousWorkspace(t *testing.T) {
	s, _, w, _ := setup()
	a, _ := w.Get(s.Root, "1")
	b, _ := w.Get(s.Root, "2")

	w.Show(s.Root, a)
	w.Show(s.Root, b)

	if a.Parent != nil {
		t.Fatal("empty numbered workspace a should have been pruned")
	}
}

func TestShowKeepsEmptyNamedWorkspace(t *testing.T) {
	s, _, w, _ := setup()
	a, _ := w.Get(s.Root, "scratch")
	b, _ := w.Get(s.Root, "2")

	w.Show(s.Root, a)
	w.Show(s.Root, b)

	if a.Parent == nil {
		t.Fatal("empty but named workspace should survive (invariant 7's exception)")
	}
}

func TestBackAndForthReturnsToPreviousWorkspace(t *testing.T) {
	s, _, w, _ := setup()
	a, _ := w.Get(s.Root, "1")
	b, _ := w.Get(s.Root, "2")
	leafA := s.NewContainer(tree.Leaf)
	s.Attach(leafA, a, false)
	leafB := s.NewContainer(tree.Leaf)
	s.Attach(leafB, b, false)

	w.Show(s.Root, a)
	w.Show(s.Root, b)
	w.BackAndForth(s.Root)

	if w.Visible(tree.AncestorOfKind(a, tree.Output)) != a {
		t.Fatal("back_and_forth should have re-shown a")
	}
}

func TestNextOrdersNumberedBeforeNamed(t *testing.T) {
	s, _, w, _ := setup()
	w.Get(s.Root, "2")
	one, _ := w.Get(s.Root, "1")
	w.Get(s.Root, "web")

	got := w.Next(one)
	if got.Name != "2" {
		t.Fatalf("Next(1) = %q, want 2", got.Name)
	}
}

func TestMoveWorkspaceToOutputCreatesReplacement(t *testing.T) {
	s, _, w, srcOutput := setup()
	dstOutput := newOutput(s, s.Root, "HDMI-1")

	ws, _ := w.Get(s.Root, "1")
	w.Show(s.Root, ws)

	if _, _, err := w.MoveWorkspaceToOutput(s.Root, ws, dstOutput); err != nil {
		t.Fatal(err)
	}
	if tree.AncestorOfKind(ws, tree.Output) != dstOutput {
		t.Fatal("workspace did not move to the destination output")
	}

	var remainsOnSrc bool
	for _, c := range s.All() {
		if c.Kind == tree.Workspace && tree.AncestorOfKind(c, tree.Output) == srcOutput {
			remainsOnSrc = true
		}
	}
	if !remainsOnSrc {
		t.Fatal("source output should have a replacement workspace")
	}
}

func TestUpdateUrgentFlagPropagatesFromLeaf(t *testing.T) {
	s, _, w, _ := setup()
	ws, _ := w.Get(s.Root, "1")
	leaf := s.NewContainer(tree.Leaf)
	s.Attach(leaf, ws, false)
	leaf.Urgent = true

	var fired bool
	w.OnUrgentChange = func(*tree.Container) { fired = true }
	w.UpdateUrgentFlag(ws)

	if !ws.Urgent {
		t.Fatal("workspace urgency should follow its urgent leaf")
	}
	if !fired {
		t.Fatal("OnUrgentChange should fire on a change")
	}
}
