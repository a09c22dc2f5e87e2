package adopt_test

import (
	"testing"

	"github.com/axewm/axewm/internal/adopt"
	"github.com/axewm/axewm/internal/config"
	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
)

type stubTakeFocuser struct{}

func (stubTakeFocuser) SetInputFocus(leaf *tree.Container) {}
func (stubTakeFocuser) SendTakeFocus(leaf *tree.Container)  {}

func setup(cfg config.Config) (*tree.Store, *workspace.Manager, *tree.Container) {
	s := tree.New()
	f := focus.New(stubTakeFocuser{})
	w := workspace.New(s, f, cfg)
	output := w.NewOutput(s.Root, "eDP-1")
	return s, w, output
}

func TestAdoptPlacesPlainWindowOnCurrentWorkspace(t *testing.T) {
	s, w, _ := setup(config.Default())
	a := adopt.New(s, w, config.Default())

	leaf, err := a.Adopt(s.Root, adopt.Properties{XWin: 1, Class: "xterm"})
	if err != nil {
		t.Fatal(err)
	}
	if leaf.Kind != tree.Leaf {
		t.Fatalf("got kind %v, want leaf", leaf.Kind)
	}
	if tree.AncestorOfKind(leaf, tree.Workspace) == nil {
		t.Fatal("leaf was not placed under any workspace")
	}
	if leaf.Window == nil || leaf.Window.Class != "xterm" {
		t.Fatal("window descriptor not populated")
	}
}

func TestAdoptAssignsByClassRegex(t *testing.T) {
	cfg := config.Default()
	cfg.Assignments = []config.WindowAssignment{
		{MatchClass: "^Firefox$", Workspace: "web"},
	}
	s, w, _ := setup(cfg)
	a := adopt.New(s, w, cfg)

	leaf, err := a.Adopt(s.Root, adopt.Properties{XWin: 2, Class: "Firefox"})
	if err != nil {
		t.Fatal(err)
	}
	ws := tree.AncestorOfKind(leaf, tree.Workspace)
	if ws == nil || ws.Name != "web" {
		t.Fatalf("got workspace %+v, want web", ws)
	}
}

func TestAdoptNonMatchingClassStaysOnCurrentWorkspace(t *testing.T) {
	cfg := config.Default()
	cfg.Assignments = []config.WindowAssignment{
		{MatchClass: "^Firefox$", Workspace: "web"},
	}
	s, w, _ := setup(cfg)
	a := adopt.New(s, w, cfg)

	leaf, err := a.Adopt(s.Root, adopt.Properties{XWin: 3, Class: "xterm"})
	if err != nil {
		t.Fatal(err)
	}
	ws := tree.AncestorOfKind(leaf, tree.Workspace)
	if ws == nil || ws.Name == "web" {
		t.Fatalf("xterm should not have matched the Firefox assignment, got %+v", ws)
	}
}

func TestAdoptWrapsFloatingHintInWrapper(t *testing.T) {
	s, w, _ := setup(config.Default())
	a := adopt.New(s, w, config.Default())

	leaf, err := a.Adopt(s.Root, adopt.Properties{XWin: 4, Class: "Xmessage", WantsFloating: true})
	if err != nil {
		t.Fatal(err)
	}
	if leaf.Parent == nil || leaf.Parent.Kind != tree.FloatingWrapper {
		t.Fatalf("expected leaf's parent to be a floating wrapper, got %v", leaf.Parent)
	}
	if !leaf.Floating() {
		t.Fatal("expected leaf's floating_state to mark it detached from tiling")
	}
}

func TestAdoptPlacesDockWindowInDockarea(t *testing.T) {
	s, w, output := setup(config.Default())
	a := adopt.New(s, w, config.Default())

	leaf, err := a.Adopt(s.Root, adopt.Properties{XWin: 5, Dock: true, DockPosition: tree.DockTop})
	if err != nil {
		t.Fatal(err)
	}
	if leaf.Parent != workspace.DockareaOf(output, tree.DockTop) {
		t.Fatal("dock window was not placed in the output's top dockarea")
	}
}

func TestAdoptSkipsAlreadyRanAssignment(t *testing.T) {
	cfg := config.Default()
	cfg.Assignments = []config.WindowAssignment{
		{MatchClass: "^Firefox$", Workspace: "web"},
	}
	s, w, _ := setup(cfg)
	a := adopt.New(s, w, cfg)

	leaf, err := a.Adopt(s.Root, adopt.Properties{XWin: 6, Class: "Firefox"})
	if err != nil {
		t.Fatal(err)
	}
	if !leaf.Window.RanAssignments["assign_0"] {
		t.Fatal("expected the matching rule to be recorded in ran_assignments")
	}
}

func TestAdoptAssignsToNamedOutput(t *testing.T) {
	cfg := config.Default()
	cfg.Assignments = []config.WindowAssignment{
		{MatchClass: "^Firefox$", Output: "HDMI-1"},
	}
	s, w, _ := setup(cfg)
	secondOutput := w.NewOutput(s.Root, "HDMI-1")
	w.Show(s.Root, w.CreateOnOutput(secondOutput, "2"))
	a := adopt.New(s, w, cfg)

	leaf, err := a.Adopt(s.Root, adopt.Properties{XWin: 8, Class: "Firefox"})
	if err != nil {
		t.Fatal(err)
	}
	if tree.AncestorOfKind(leaf, tree.Output) != secondOutput {
		t.Fatal("leaf was not placed on the output named by the output action")
	}
}

func TestAdoptMatchesOnMarkAssignedByEarlierRule(t *testing.T) {
	cfg := config.Default()
	cfg.Assignments = []config.WindowAssignment{
		{MatchClass: "^Firefox$", Mark: "browser"},
		{MatchMark: "^browser$", Workspace: "web"},
	}
	s, w, _ := setup(cfg)
	a := adopt.New(s, w, cfg)

	leaf, err := a.Adopt(s.Root, adopt.Properties{XWin: 9, Class: "Firefox"})
	if err != nil {
		t.Fatal(err)
	}
	ws := tree.AncestorOfKind(leaf, tree.Workspace)
	if ws == nil || ws.Name != "web" {
		t.Fatalf("second rule should have matched the mark the first rule assigned, got workspace %+v", ws)
	}
}

func TestAdoptMatchesOnExactWindowID(t *testing.T) {
	cfg := config.Default()
	cfg.Assignments = []config.WindowAssignment{
		{MatchWindowID: 42, Workspace: "pinned"},
	}
	s, w, _ := setup(cfg)
	a := adopt.New(s, w, cfg)

	leaf, err := a.Adopt(s.Root, adopt.Properties{XWin: 42, Class: "xterm"})
	if err != nil {
		t.Fatal(err)
	}
	ws := tree.AncestorOfKind(leaf, tree.Workspace)
	if ws == nil || ws.Name != "pinned" {
		t.Fatalf("got workspace %+v, want pinned", ws)
	}

	other, err := a.Adopt(s.Root, adopt.Properties{XWin: 43, Class: "xterm"})
	if err != nil {
		t.Fatal(err)
	}
	ws = tree.AncestorOfKind(other, tree.Workspace)
	if ws != nil && ws.Name == "pinned" {
		t.Fatal("a different window id should not have matched the exact window_id rule")
	}
}

func TestAdoptFallsBackToStartupSequenceWorkspace(t *testing.T) {
	s, w, _ := setup(config.Default())
	a := adopt.New(s, w, config.Default())
	a.StartupSequences["123"] = "editor"

	leaf, err := a.Adopt(s.Root, adopt.Properties{XWin: 7, Class: "vim", NetStartupID: "123"})
	if err != nil {
		t.Fatal(err)
	}
	ws := tree.AncestorOfKind(leaf, tree.Workspace)
	if ws == nil || ws.Name != "editor" {
		t.Fatalf("got workspace %+v, want editor", ws)
	}
}
