// Package command implements the command executor (C6): criteria
// selection, a closed dispatch table of operations, and the settle step
// that runs after every command sequence, generalizing taowm's doXxx
// dispatch table (taowm/actions.go, taowm/config.go's action bindings)
// from "one key chord, one action, the whole workspace" to "a selection of
// LEAFs, a sequence of operations, an explicit settle step".
package command

import (
	"fmt"
	"os/exec"
	"regexp"
	"syscall"

	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/geom"
	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
)

// Op is the closed set of supported operations (spec.md §4.6).
type Op int

const (
	OpFocus Op = iota
	OpMove
	OpResize
	OpSplit
	OpLayout
	OpFloating
	OpFullscreen
	OpKill
	OpMark
	OpUnmark
	OpWorkspace
	OpExec
	OpNop
	OpRestart
	OpReload
	OpExit
	// OpScratchpadMove/OpScratchpadShow are the SUPPLEMENTED FEATURES
	// scratchpad extension to the closed set (original_source/src/scratchpad.c).
	OpScratchpadMove
	OpScratchpadShow
)

// Toggle is the enable/disable/toggle argument shared by floating and
// fullscreen operations.
type Toggle int

const (
	Disable Toggle = iota
	Enable
	FlipToggle
)

// WorkspaceTarget selects what `workspace ...`/`move ... workspace ...`
// addresses (spec.md §4.6).
type WorkspaceTarget int

const (
	WorkspaceByName WorkspaceTarget = iota
	WorkspaceBackAndForth
	WorkspaceNext
	WorkspacePrev
	WorkspaceNextOnOutput
	WorkspacePrevOnOutput
	WorkspaceCurrent
)

// Operation is one already-parsed step of a command (spec.md §4.6).
type Operation struct {
	Op Op

	Direction   focus.Direction
	FocusTarget string // "parent", "child", "floating", "tiling", "mode_toggle", or "" for Direction

	MoveToWorkspace string
	MoveToOutput    string
	WorkspaceTarget WorkspaceTarget

	ResizeGrow   bool
	ResizeDir    focus.Direction
	ResizeAmount geom.ResizeAmount

	SplitOrientation tree.Orientation

	Layout       tree.Layout
	LayoutToggle bool

	Toggle Toggle

	FullscreenGlobal bool

	KillPolicy tree.KillPolicy

	Mark string

	ExecCommand string
}

// Criterion is one attribute predicate over a LEAF (spec.md §4.6).
type Criterion struct {
	ClassRe    *regexp.Regexp
	InstanceRe *regexp.Regexp
	TitleRe    *regexp.Regexp
	Mark       string
	Floating   *bool
}

func (c Criterion) matches(leaf *tree.Container) bool {
	if leaf.Window == nil {
		return false
	}
	if c.ClassRe != nil && !c.ClassRe.MatchString(leaf.Window.Class) {
		return false
	}
	if c.InstanceRe != nil && !c.InstanceRe.MatchString(leaf.Window.Instance) {
		return false
	}
	if c.TitleRe != nil && !c.TitleRe.MatchString(leaf.Window.TitleUTF8) {
		return false
	}
	if c.Mark != "" && leaf.Mark != c.Mark {
		return false
	}
	if c.Floating != nil && leaf.Floating() != *c.Floating {
		return false
	}
	return true
}

// Record is an already-parsed command: criteria plus the operations to run
// against the resulting selection (spec.md §4.6). The grammar that
// produces Record values is out of scope; C6 only consumes them.
type Record struct {
	Criteria   []Criterion
	Operations []Operation
}

// Result is one command's outcome (spec.md §4.6 "a success boolean and an
// optional error string").
type Result struct {
	Success bool
	Error   string
}

// Launcher runs an `exec` command's program, detached from axewm's own
// process group so it survives a later `restart` (spec.md §4.6 exec;
// SPEC_FULL.md's double-fork grounding in original_source/src/util.c
// start_application).
type Launcher interface {
	Launch(cmdline string) error
}

type execLauncher struct{}

func (execLauncher) Launch(cmdline string) error {
	c := exec.Command("/bin/sh", "-c", cmdline)
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := c.Start(); err != nil {
		return err
	}
	go c.Wait()
	return nil
}

// Hooks are the process-lifecycle side effects C6 cannot perform itself
// (spec.md §4.6 restart/reload/exit).
type Hooks struct {
	Restart func()
	Reload  func()
	Exit    func()
}

// noopUnmapper backs Executor.Unmapper until C7 installs the real X11
// unmapper; it lets C6 be exercised and tested standalone.
type noopUnmapper struct{}

func (noopUnmapper) Unmap(w *tree.Window, selfCaused bool)      {}
func (noopUnmapper) Kill(w *tree.Window, policy tree.KillPolicy) {}

// Executor runs Records against the tree (spec.md §4.6).
type Executor struct {
	Store     *tree.Store
	Focus     *focus.Manager
	Workspace *workspace.Manager
	GeomCfg   geom.Config
	Launcher  Launcher
	Unmapper  tree.Unmapper
	Hooks     Hooks

	// scratchpad is the workspace all `move scratchpad`/`scratchpad show`
	// operations target, created lazily (SUPPLEMENTED FEATURES scratchpad).
	scratchpad *tree.Container
}

func New(store *tree.Store, f *focus.Manager, ws *workspace.Manager, geomCfg geom.Config) *Executor {
	return &Executor{Store: store, Focus: f, Workspace: ws, GeomCfg: geomCfg, Launcher: execLauncher{}, Unmapper: noopUnmapper{}}
}

// allLeaves returns every LEAF the store currently owns, in creation order.
func allLeaves(s *tree.Store) []*tree.Container {
	var out []*tree.Container
	for _, c := range s.All() {
		if c.Kind == tree.Leaf {
			out = append(out, c)
		}
	}
	return out
}

func matchAll(criteria []Criterion, leaf *tree.Container) bool {
	for _, c := range criteria {
		if !c.matches(leaf) {
			return false
		}
	}
	return true
}

// selection enumerates all LEAFs matching every criterion, or the focused
// leaf alone if no criteria were given (spec.md §4.6).
func (e *Executor) selection(root *tree.Container, criteria []Criterion) []*tree.Container {
	if len(criteria) == 0 {
		leaf := e.Focus.FocusedLeaf(root)
		if leaf == nil || leaf.Kind != tree.Leaf {
			return nil
		}
		return []*tree.Container{leaf}
	}
	var sel []*tree.Container
	for _, leaf := range allLeaves(e.Store) {
		if matchAll(criteria, leaf) {
			sel = append(sel, leaf)
		}
	}
	return sel
}

// Execute runs every Record in order and settles the tree once at the end
// (spec.md §4.6).
func (e *Executor) Execute(root *tree.Container, records []Record) []Result {
	var results []Result
	for _, rec := range records {
		sel := e.selection(root, rec.Criteria)
		for _, op := range rec.Operations {
			res := e.apply(root, sel, op)
			results = append(results, res)
			// An operation may move a leaf within the tree but not add or
			// remove leaves from the selection, except kill (spec.md
			// §4.6); re-derive membership is unnecessary since apply
			// mutates the same *tree.Container pointers in place.
			if op.Op == OpKill {
				sel = e.selection(root, rec.Criteria)
			}
		}
	}
	e.settle(root)
	return results
}

func ok() Result           { return Result{Success: true} }
func fail(err error) Result {
	if err == nil {
		return Result{Success: false, Error: "unknown error"}
	}
	return Result{Success: false, Error: err.Error()}
}

func (e *Executor) apply(root *tree.Container, sel []*tree.Container, op Operation) Result {
	switch op.Op {
	case OpFocus:
		return e.doFocus(root, sel, op)
	case OpMove:
		return e.doMove(root, sel, op)
	case OpResize:
		return e.doResize(sel, op)
	case OpSplit:
		return e.doSplit(sel, op)
	case OpLayout:
		return e.doLayout(sel, op)
	case OpFloating:
		return e.doFloating(root, sel, op)
	case OpFullscreen:
		return e.doFullscreen(sel, op)
	case OpKill:
		return e.doKill(sel, op)
	case OpMark:
		return e.doMark(sel, op)
	case OpUnmark:
		return e.doUnmark(sel)
	case OpWorkspace:
		return e.doWorkspace(root, op)
	case OpExec:
		return e.doExec(op)
	case OpNop:
		return ok()
	case OpRestart:
		return e.doHook(e.Hooks.Restart)
	case OpReload:
		return e.doHook(e.Hooks.Reload)
	case OpExit:
		return e.doHook(e.Hooks.Exit)
	case OpScratchpadMove:
		return e.doScratchpadMove(sel)
	case OpScratchpadShow:
		return e.doScratchpadShow(root)
	}
	return fail(fmt.Errorf("command: unsupported operation %d", op.Op))
}

// ApplyToContainer runs a single already-targeted operation, bypassing
// criteria selection, and settles afterward. This is the seam C7 uses to
// translate a ClientMessage whose target window it already holds a
// *tree.Container for directly into a C6 operation (spec.md §4.7's
// ClientMessage row), without fabricating a Criterion that can only match
// by class/instance/title/mark.
func (e *Executor) ApplyToContainer(root, target *tree.Container, op Operation) Result {
	res := e.apply(root, []*tree.Container{target}, op)
	e.settle(root)
	return res
}

func (e *Executor) doHook(hook func()) Result {
	if hook == nil {
		return fail(fmt.Errorf("command: no handler installed for this operation"))
	}
	hook()
	return ok()
}

func (e *Executor) doExec(op Operation) Result {
	if op.ExecCommand == "" {
		return fail(fmt.Errorf("command: exec requires a command line"))
	}
	if err := e.Launcher.Launch(op.ExecCommand); err != nil {
		return fail(err)
	}
	return ok()
}
