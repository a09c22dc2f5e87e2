// Package world assembles C1-C7 plus the IPC layer into one running
// instance: it owns the X11 connection, builds the store/focus/workspace/
// adopt/command stack, and wires the reactor's turn hooks to both EWMH
// property maintenance and IPC event pushes. Grounded on taowm/main.go's
// package-level wiring of xConn/manage/checkers, collapsed into a single
// constructed object so cmd/axewm stays a thin CLI shell.
package world

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xinerama"
	xp "github.com/BurntSushi/xgb/xproto"

	"github.com/axewm/axewm/internal/adopt"
	"github.com/axewm/axewm/internal/command"
	"github.com/axewm/axewm/internal/config"
	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/geom"
	"github.com/axewm/axewm/internal/ipc"
	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
	"github.com/axewm/axewm/internal/x11"
)

// reactorRef lets focus.Manager be constructed (it needs a TakeFocuser
// immediately) before the Reactor it will forward to exists, breaking the
// Reactor<->focus.Manager construction cycle: x11.New takes a
// *focus.Manager, but focus.New takes the TakeFocuser the Reactor itself
// implements.
type reactorRef struct {
	r *x11.Reactor
}

func (rr *reactorRef) SetInputFocus(leaf *tree.Container) {
	if rr.r != nil {
		rr.r.SetInputFocus(leaf)
	}
}

func (rr *reactorRef) SendTakeFocus(leaf *tree.Container) {
	if rr.r != nil {
		rr.r.SendTakeFocus(leaf)
	}
}

// World is one running axewm instance.
type World struct {
	Config config.Config
	Log    *slog.Logger

	Store     *tree.Store
	Focus     *focus.Manager
	Workspace *workspace.Manager
	Adopter   *adopt.Adopter
	Exec      *command.Executor

	IPC     *ipc.Server
	Reactor *x11.Reactor

	conn *xgb.Conn

	prevFocused *tree.Container
	prevVisible map[tree.ID]*tree.Container // output id -> visible workspace
}

// Options configures a World beyond the decoded config file.
type Options struct {
	SocketPath string
	ConfigPath string
	Parser     ipc.CommandParser

	// Restart/Reload/Exit back the restart/reload/exit command operations;
	// cmd/axewm wires these to a re-exec, a config re-read, and a clean
	// process exit respectively.
	Restart func()
	Reload  func()
	Exit    func()
}

// New connects to the X display, becomes the window manager, and builds
// the full C1-C7 stack plus IPC server against it. It does not start the
// event loop; call Run for that.
func New(cfg config.Config, opts Options, log *slog.Logger) (*World, error) {
	if log == nil {
		log = slog.Default()
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("world: connect to X display: %w", err)
	}

	if err := xinerama.Init(conn); err != nil {
		log.Warn("xinerama init failed, falling back to RandR-only output discovery", "err", err)
	}

	setup := xp.Setup(conn)
	if len(setup.Roots) != 1 {
		conn.Close()
		return nil, fmt.Errorf("world: X setup has unsupported number of roots: %d", len(setup.Roots))
	}
	rootXWin := setup.Roots[0].Root

	store := tree.New()

	rr := &reactorRef{}
	focusMgr := focus.New(rr)
	wsMgr := workspace.New(store, focusMgr, cfg)
	adopter := adopt.New(store, wsMgr, cfg)
	exec := command.New(store, focusMgr, wsMgr, geomConfigFrom(cfg))

	reactor := x11.New(conn, rootXWin, store, focusMgr, wsMgr, adopter, exec, geomConfigFrom(cfg), store.Root, log)
	rr.r = reactor
	exec.Unmapper = reactor.AsUnmapper()
	exec.Hooks = command.Hooks{Restart: opts.Restart, Reload: opts.Reload, Exit: opts.Exit}

	if err := reactor.InitEWMH("axewm"); err != nil {
		conn.Close()
		if _, ok := err.(xp.AccessError); ok {
			return nil, fmt.Errorf("world: another window manager is already running")
		}
		return nil, fmt.Errorf("world: become the window manager: %w", err)
	}
	if err := reactor.InitRandR(); err != nil {
		log.Warn("RandR init failed, outputs will not hotplug", "err", err)
	}

	parser := opts.Parser
	if parser == nil {
		parser = func(string) ([]command.Record, error) {
			return nil, fmt.Errorf("world: no command parser configured")
		}
	}
	server := ipc.New(store, wsMgr, focusMgr, parser, log)

	w := &World{
		Config:      cfg,
		Log:         log,
		Store:       store,
		Focus:       focusMgr,
		Workspace:   wsMgr,
		Adopter:     adopter,
		Exec:        exec,
		IPC:         server,
		Reactor:     reactor,
		conn:        conn,
		prevVisible: make(map[tree.ID]*tree.Container),
	}

	wsMgr.OnUrgentChange = func(ws *tree.Container) {
		w.pushWorkspaceEvent("urgent", ws)
	}

	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = cfg.IPCSocketPath
	}
	if socketPath != "" {
		if err := server.Listen(socketPath); err != nil {
			conn.Close()
			return nil, fmt.Errorf("world: listen on %s: %w", socketPath, err)
		}
		reactor.SetI3Properties(socketPath, opts.ConfigPath)
	}

	reactor.PullCommands = func() []x11.CommandBatch {
		batches := server.PullBatches()
		if len(batches) == 0 {
			return nil
		}
		out := make([]x11.CommandBatch, len(batches))
		for i, b := range batches {
			out[i] = x11.CommandBatch{Records: b.Records, Done: b.Done}
		}
		return out
	}
	reactor.OnSettled = w.onSettled

	return w, nil
}

func geomConfigFrom(cfg config.Config) geom.Config {
	return geom.Config{
		GapPx:        cfg.GapPx,
		BorderPx:     cfg.BorderPx,
		FloatingMinW: cfg.FloatingMinW,
		FloatingMinH: cfg.FloatingMinH,
		FloatingMaxW: cfg.FloatingMaxW,
		FloatingMaxH: cfg.FloatingMaxH,
	}
}

// onSettled runs after every turn's settle step: apply the tree's
// computed geometry and visibility to the real X11 windows, refresh the
// EWMH root properties the rest of the desktop (pagers, taskbars) reads,
// and push a workspace/window "focus" event only when the focused leaf
// or an output's visible workspace actually changed, so a no-op settle
// stays silent on the IPC event stream.
func (w *World) onSettled(root *tree.Container) {
	w.Reactor.ApplyGeometry(root)
	w.Reactor.UpdateEWMH(root)

	focused := w.Focus.FocusedLeaf(root)
	if focused != w.prevFocused {
		w.prevFocused = focused
		w.IPC.Push(ipc.EventWindow, struct {
			Change    string       `json:"change"`
			Container ipc.NodeJSON `json:"container"`
		}{"focus", ipc.BuildTree(focusOrRoot(focused, root), focused)})
	}

	for _, out := range root.Children() {
		vis := w.Workspace.Visible(out)
		if vis != w.prevVisible[out.ID] {
			old := w.prevVisible[out.ID]
			w.prevVisible[out.ID] = vis
			if vis != nil {
				w.pushWorkspaceEventWithOld("focus", vis, old)
			}
		}
	}
}

func focusOrRoot(focused, root *tree.Container) *tree.Container {
	if focused != nil {
		return focused
	}
	return root
}

func (w *World) pushWorkspaceEvent(change string, ws *tree.Container) {
	w.pushWorkspaceEventWithOld(change, ws, nil)
}

func (w *World) pushWorkspaceEventWithOld(change string, ws, old *tree.Container) {
	focused := w.Focus.FocusedLeaf(w.Store.Root)
	payload := struct {
		Change  string        `json:"change"`
		Current *ipc.NodeJSON `json:"current"`
		Old     *ipc.NodeJSON `json:"old"`
	}{Change: change}
	if ws != nil {
		n := ipc.BuildTree(ws, focused)
		payload.Current = &n
	}
	if old != nil {
		n := ipc.BuildTree(old, focused)
		payload.Old = &n
	}
	w.IPC.Push(ipc.EventWorkspace, payload)
}

// Run starts the reactor's event loop; it blocks until ctx is canceled.
func (w *World) Run(ctx context.Context) error {
	return w.Reactor.Run(ctx)
}

// Close tears down the IPC listener and the X11 connection.
func (w *World) Close() error {
	w.IPC.Close()
	w.conn.Close()
	return nil
}
