// Package adopt implements window adoption and matching (C5): turning a
// freshly mapped X11 window into a LEAF, running assignment rules against
// it, and placing it in the tree, generalizing taowm's inline "new top
// level window" handling in xinit.go's mapRequest into a standalone,
// testable step with user-configurable rules.
package adopt

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/axewm/axewm/internal/config"
	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
)

var errNoDockarea = errors.New("adopt: output has no matching dockarea")

// Properties is everything C7 extracts from ICCCM/EWMH properties before
// handing a newly mapped window to Adopt (spec.md §4.5 step 1).
type Properties struct {
	XWin         uint32
	Leader       uint32
	TransientFor uint32
	Class        string
	Instance     string
	TitleUTF8    string
	TitleUCS2    []uint16

	Dock           bool
	DockPosition   tree.DockPosition
	Struts         tree.Struts
	NeedsTakeFocus bool
	GloballyActive bool
	WMDeleteWindow bool

	// WantsFloating is true when a window-type hint (_NET_WM_WINDOW_TYPE
	// dialog/utility/splash, or a transient-for set) suggests floating
	// placement absent a more specific assignment.
	WantsFloating bool

	// NetStartupID is the EWMH _NET_STARTUP_ID property, used to resolve
	// the startup-sequence placement fallback below.
	NetStartupID string
}

// Rule is a compiled config.WindowAssignment: a regex match against
// class/instance/title/mark plus a handful of tri-state property checks,
// and the action to take on the first match (spec.md §4.5 step 2).
type Rule struct {
	Name string

	ClassRe    *regexp.Regexp
	InstanceRe *regexp.Regexp
	TitleRe    *regexp.Regexp
	MarkRe     *regexp.Regexp

	MatchFloating     *bool
	MatchDock         *bool
	MatchTransientFor *bool
	MatchWindowID     uint32

	ToWorkspace string
	ToOutput    string
	Floating    bool
	Mark        string
}

// matchState is what a Rule matches against: the window's static
// Properties plus the mark/floating state earlier rules in this pass may
// already have assigned, so a rule can key off an earlier rule's action
// (e.g. "anything an earlier rule marked scratch should also float").
type matchState struct {
	Properties
	Mark     string
	Floating bool
}

func (r Rule) matches(s matchState) bool {
	if r.ClassRe != nil && !r.ClassRe.MatchString(s.Class) {
		return false
	}
	if r.InstanceRe != nil && !r.InstanceRe.MatchString(s.Instance) {
		return false
	}
	if r.TitleRe != nil && !r.TitleRe.MatchString(s.TitleUTF8) {
		return false
	}
	if r.MarkRe != nil && !r.MarkRe.MatchString(s.Mark) {
		return false
	}
	if r.MatchFloating != nil && *r.MatchFloating != s.Floating {
		return false
	}
	if r.MatchDock != nil && *r.MatchDock != s.Dock {
		return false
	}
	if r.MatchTransientFor != nil && *r.MatchTransientFor != (s.TransientFor != 0) {
		return false
	}
	if r.MatchWindowID != 0 && r.MatchWindowID != s.XWin {
		return false
	}
	return true
}

// CompileRules compiles config.WindowAssignment entries into Rules,
// naming each by its position so RanAssignments bookkeeping is stable
// across calls (spec.md §4.5 step 2's "skipping rules already recorded").
// A malformed regex is skipped rather than rejected outright, since a
// config file written for a differently-cased pattern should not prevent
// every other window from being adopted.
func CompileRules(assignments []config.WindowAssignment) []Rule {
	rules := make([]Rule, 0, len(assignments))
	for i, a := range assignments {
		r := Rule{
			Name:              ruleName(i),
			ToWorkspace:       a.Workspace,
			ToOutput:          a.Output,
			Floating:          a.Floating,
			Mark:              a.Mark,
			MatchFloating:     a.MatchFloating,
			MatchDock:         a.MatchDock,
			MatchTransientFor: a.MatchTransientFor,
			MatchWindowID:     a.MatchWindowID,
		}
		if a.MatchClass != "" {
			if re, err := regexp.Compile(a.MatchClass); err == nil {
				r.ClassRe = re
			}
		}
		if a.MatchInstance != "" {
			if re, err := regexp.Compile(a.MatchInstance); err == nil {
				r.InstanceRe = re
			}
		}
		if a.MatchTitle != "" {
			if re, err := regexp.Compile(a.MatchTitle); err == nil {
				r.TitleRe = re
			}
		}
		if a.MatchMark != "" {
			if re, err := regexp.Compile(a.MatchMark); err == nil {
				r.MarkRe = re
			}
		}
		rules = append(rules, r)
	}
	return rules
}

func ruleName(i int) string {
	return "assign_" + strconv.Itoa(i)
}

// Adopter runs C5 against the tree, given a workspace manager for target
// resolution and compiled assignment rules.
type Adopter struct {
	store *tree.Store
	ws    *workspace.Manager
	rules []Rule

	// StartupSequences maps an X11 startup id to the workspace that was
	// active when the launching command ran, the SUPPLEMENTED FEATURES
	// startup-sequence placement fallback (original_source/src/startup.c).
	StartupSequences map[string]string
}

func New(store *tree.Store, ws *workspace.Manager, cfg config.Config) *Adopter {
	return &Adopter{
		store:            store,
		ws:               ws,
		rules:            CompileRules(cfg.Assignments),
		StartupSequences: make(map[string]string),
	}
}

// Adopt builds a LEAF for a newly mapped window, runs assignment rules,
// places it in the target workspace's tiling tree or wraps it in a
// FLOATING_WRAPPER, and returns the new LEAF (spec.md §4.5).
func (a *Adopter) Adopt(root *tree.Container, p Properties) (*tree.Container, error) {
	leaf := a.store.NewContainer(tree.Leaf)
	leaf.Window = &tree.Window{
		XWin:           p.XWin,
		Leader:         p.Leader,
		TransientFor:   p.TransientFor,
		Class:          p.Class,
		Instance:       p.Instance,
		TitleUTF8:      p.TitleUTF8,
		TitleUCS2:      p.TitleUCS2,
		Dock:           p.Dock,
		DockPosition:   p.DockPosition,
		NeedsTakeFocus: p.NeedsTakeFocus,
		GloballyActive: p.GloballyActive,
		WMDeleteWindow: p.WMDeleteWindow,
		Struts:         p.Struts,
		RanAssignments: make(map[string]bool),
	}

	targetWsName := ""
	targetOutputName := ""
	floating := p.WantsFloating

	for _, rule := range a.rules {
		if leaf.Window.RanAssignments[rule.Name] {
			continue
		}
		if !rule.matches(matchState{Properties: p, Mark: leaf.Mark, Floating: floating}) {
			continue
		}
		leaf.Window.RanAssignments[rule.Name] = true
		if rule.Mark != "" {
			leaf.Mark = rule.Mark
		}
		if rule.Floating {
			floating = true
		}
		if rule.ToWorkspace != "" && targetWsName == "" {
			targetWsName = rule.ToWorkspace
		}
		if rule.ToOutput != "" && targetOutputName == "" {
			targetOutputName = rule.ToOutput
		}
	}

	var targetWs *tree.Container
	switch {
	case targetWsName != "":
		targetWs, _ = a.ws.Get(root, targetWsName)
	case targetOutputName != "":
		targetWs = a.outputVisibleWorkspace(targetOutputName)
	}

	if targetWs == nil && p.NetStartupID != "" {
		if name, ok := a.StartupSequences[p.NetStartupID]; ok {
			targetWs, _ = a.ws.Get(root, name)
		}
	}

	if targetWs == nil {
		targetWs = a.ws.Current(root)
	}

	switch {
	case p.Dock:
		output := tree.AncestorOfKind(targetWs, tree.Output)
		dockarea := workspace.DockareaOf(output, p.DockPosition)
		if dockarea == nil {
			return nil, errNoDockarea
		}
		if err := a.store.Attach(leaf, dockarea, false); err != nil {
			return nil, err
		}
	case floating:
		fw := a.store.NewContainer(tree.FloatingWrapper)
		if err := a.store.Attach(fw, targetWs, false); err != nil {
			return nil, err
		}
		if err := a.store.Attach(leaf, fw, false); err != nil {
			return nil, err
		}
		leaf.FloatingState = tree.FloatingAutoOn
	default:
		if err := a.place(targetWs, leaf); err != nil {
			return nil, err
		}
	}

	return leaf, nil
}

// outputVisibleWorkspace resolves an `output` assignment action to the
// workspace currently shown on the named output, matching how
// command.Executor.doMoveToOutput resolves a `move container to output`
// target. A name that does not match any output, or that matches one with
// nothing currently visible on it, falls through to the caller's next
// placement fallback.
func (a *Adopter) outputVisibleWorkspace(name string) *tree.Container {
	for _, c := range a.store.All() {
		if c.Kind == tree.Output && c.Name == name {
			return a.ws.Visible(c)
		}
	}
	return nil
}

// place implements step 3's "default insertion point if the workspace
// layout is default; else a new SPLIT child of the workspace with the
// workspace's layout containing the LEAF" (spec.md §4.5).
func (a *Adopter) place(targetWs, leaf *tree.Container) error {
	if targetWs.Layout == tree.LayoutSplit || targetWs.Layout == tree.LayoutOutput {
		return a.store.Attach(leaf, a.defaultInsertionParent(targetWs), false)
	}

	split := a.store.NewContainer(tree.Split)
	split.Layout = targetWs.Layout
	if err := a.store.Attach(split, targetWs, false); err != nil {
		return err
	}
	return a.store.Attach(leaf, split, false)
}

// defaultInsertionParent places a new window next to the currently
// focused tiling leaf's parent, falling back to the workspace itself when
// nothing is focused yet, matching i3's "insert as a sibling of the
// focused container" default (original_source/src/tree.c con_attach).
func (a *Adopter) defaultInsertionParent(targetWs *tree.Container) *tree.Container {
	focused := tree.DescendFocused(targetWs)
	if focused.Kind == tree.Leaf && !focused.Floating() && focused.Parent != nil {
		return focused.Parent
	}
	return targetWs
}

// UpdateProperty refreshes a managed window's descriptor from a later
// PropertyNotify, returning whether urgency changed so the caller can run
// workspace.Manager.UpdateUrgentFlag (spec.md §4.5 "Property tracking").
func (a *Adopter) UpdateProperty(leaf *tree.Container, title string, urgent bool, struts tree.Struts) (urgencyChanged bool) {
	if leaf.Window == nil {
		return false
	}
	leaf.Window.TitleUTF8 = title
	leaf.Window.Struts = struts
	urgencyChanged = leaf.Urgent != urgent
	leaf.Urgent = urgent
	return urgencyChanged
}
