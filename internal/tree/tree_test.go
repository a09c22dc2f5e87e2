package tree_test

import (
	"testing"

	"github.com/axewm/axewm/internal/tree"
)

type noopUnmapper struct{ unmapped, killed int }

func (n *noopUnmapper) Unmap(w *tree.Window, selfCaused bool) { n.unmapped++ }
func (n *noopUnmapper) Kill(w *tree.Window, policy tree.KillPolicy) { n.killed++ }

func newWorkspace(s *tree.Store) *tree.Container {
	root := s.Root
	output := s.NewContainer(tree.Output)
	s.Attach(output, root, false)
	content := s.NewContainer(tree.Content)
	s.Attach(content, output, false)
	ws := s.NewContainer(tree.Workspace)
	s.Attach(ws, content, false)
	return ws
}

func TestAttachRebalancesPercent(t *testing.T) {
	s := tree.New()
	ws := newWorkspace(s)

	a := s.NewContainer(tree.Leaf)
	if err := s.Attach(a, ws, false); err != nil {
		t.Fatal(err)
	}
	if a.Percent != 1 {
		t.Fatalf("a.Percent = %v, want 1", a.Percent)
	}

	b := s.NewContainer(tree.Leaf)
	if err := s.Attach(b, ws, false); err != nil {
		t.Fatal(err)
	}
	if !tree.PercentSumOK(ws) {
		t.Fatalf("percents do not sum to 1: a=%v b=%v", a.Percent, b.Percent)
	}
	if a.Percent != 0.5 || b.Percent != 0.5 {
		t.Fatalf("a=%v b=%v, want 0.5/0.5", a.Percent, b.Percent)
	}

	c := s.NewContainer(tree.Leaf)
	if err := s.Attach(c, ws, false); err != nil {
		t.Fatal(err)
	}
	if !tree.PercentSumOK(ws) {
		t.Fatalf("percents do not sum to 1 after third attach")
	}
}

func TestDetachRebalancesPercent(t *testing.T) {
	s := tree.New()
	ws := newWorkspace(s)
	a := s.NewContainer(tree.Leaf)
	b := s.NewContainer(tree.Leaf)
	c := s.NewContainer(tree.Leaf)
	s.Attach(a, ws, false)
	s.Attach(b, ws, false)
	s.Attach(c, ws, false)

	if err := s.Detach(b); err != nil {
		t.Fatal(err)
	}
	if !tree.PercentSumOK(ws) {
		t.Fatalf("percents do not sum to 1 after detach: a=%v c=%v", a.Percent, c.Percent)
	}
}

func TestAttachRejectsInvalidKind(t *testing.T) {
	s := tree.New()
	ws := newWorkspace(s)
	if err := s.Attach(ws, ws, false); err == nil {
		t.Fatal("expected error attaching workspace under workspace")
	}
}

func TestDescendFocusedReachesLeaf(t *testing.T) {
	s := tree.New()
	ws := newWorkspace(s)
	a := s.NewContainer(tree.Leaf)
	s.Attach(a, ws, false)

	got := tree.DescendFocused(s.Root)
	if got != a {
		t.Fatalf("descend_focused = %v, want leaf a", got.Kind)
	}
}

func TestSingleChildSplitIsReducedOnDetach(t *testing.T) {
	s := tree.New()
	ws := newWorkspace(s)

	split := s.NewContainer(tree.Split)
	s.Attach(split, ws, false)
	a := s.NewContainer(tree.Leaf)
	b := s.NewContainer(tree.Leaf)
	s.Attach(a, split, false)
	s.Attach(b, split, false)

	if err := s.Detach(b); err != nil {
		t.Fatal(err)
	}
	s.SettleSplits()

	if a.Parent != ws {
		t.Fatalf("single-child split was not eliminated: a.Parent.Kind = %v", a.Parent.Kind)
	}
}

func TestCloseUnmapsLeavesAndReportsEmptyWorkspace(t *testing.T) {
	s := tree.New()
	ws := newWorkspace(s)
	a := s.NewContainer(tree.Leaf)
	a.Window = &tree.Window{XWin: 42}
	s.Attach(a, ws, false)

	u := &noopUnmapper{}
	emptied, err := s.Close(a, tree.KillNone, false, u)
	if err != nil {
		t.Fatal(err)
	}
	if u.unmapped != 1 {
		t.Fatalf("unmapped = %d, want 1", u.unmapped)
	}
	if len(emptied) != 1 || emptied[0] != ws {
		t.Fatalf("expected ws reported empty, got %v", emptied)
	}
}

func TestCloseSplitCascadesWhenEmptied(t *testing.T) {
	s := tree.New()
	ws := newWorkspace(s)
	split := s.NewContainer(tree.Split)
	s.Attach(split, ws, false)
	a := s.NewContainer(tree.Leaf)
	a.Window = &tree.Window{XWin: 1}
	s.Attach(a, split, false)

	u := &noopUnmapper{}
	if _, err := s.Close(a, tree.KillNone, false, u); err != nil {
		t.Fatal(err)
	}
	if split.Parent != nil {
		t.Fatalf("expected the now-empty split to be detached from its parent")
	}
}
