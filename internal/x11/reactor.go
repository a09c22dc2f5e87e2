// Package x11 implements the X11 reactor (C7): the single event loop that
// owns the X connection, translates wire events into C1-C6 calls, and
// maintains the ICCCM/EWMH surface the rest of the world depends on.
// Grounded on taowm's main.go event loop and its checker/ignore-table-less
// unmanage path, generalized to the sequence-number ignore table and
// per-container IgnoreUnmapCount discipline spec.md §4.7 requires, plus
// RandR output hotplug that taowm's xinerama-only model never needed.
package x11

import (
	"log/slog"
	"time"

	"github.com/BurntSushi/xgb"
	xp "github.com/BurntSushi/xgb/xproto"

	"github.com/axewm/axewm/internal/adopt"
	"github.com/axewm/axewm/internal/command"
	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/geom"
	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
)

// checker is a deferred-error-check outgoing request, drained once per
// event-loop turn (taowm/main.go's checker/check() pattern).
type checker interface {
	Check() error
}

// ignoreEntry is one outstanding outgoing request whose resulting event
// must be swallowed rather than acted on (spec.md §4.7, §9).
type ignoreEntry struct {
	responseType string
	recordedAt   time.Time
}

const ignoreTTL = 5 * time.Second

// Reactor owns the X11 connection (spec.md §5 "Shared resources") and
// drives the single-threaded event loop: drain X events, then queued IPC
// command records, then one settle step, then flush.
type Reactor struct {
	conn *xgb.Conn
	root xp.Window

	a *atoms

	Store     *tree.Store
	Focus     *focus.Manager
	Workspace *workspace.Manager
	Adopter   *adopt.Adopter
	Exec      *command.Executor
	GeomCfg   geom.Config

	RootContainer *tree.Container

	Log *slog.Logger

	// PullCommands is called once per turn to collect command batches
	// queued since the last turn (spec.md §5). It is nil until
	// internal/world wires the IPC server in, and treated as "nothing
	// pending" when nil, so the reactor can run standalone.
	PullCommands func() []CommandBatch

	// OnSettled, when set, runs after every turn's settle step, letting
	// internal/world refresh EWMH root properties and push IPC events.
	OnSettled func(root *tree.Container)

	xwins map[xp.Window]*tree.Container

	ignore map[uint16]ignoreEntry

	checkers []checker

	eventTime xp.Timestamp

	focusFollowsMouse bool

	keysyms [256][2]xp.Keysym

	drag *dragState

	quit chan struct{}
}

// New wires a Reactor to an already-connected X11 display and an
// already-constructed world (store/focus/workspace/adopter/executor),
// mirroring taowm's package-level xConn/rootXWin globals collapsed into
// one struct so multiple reactors can exist in tests.
func New(conn *xgb.Conn, root xp.Window, store *tree.Store, f *focus.Manager, ws *workspace.Manager, ad *adopt.Adopter, exec *command.Executor, geomCfg geom.Config, rootContainer *tree.Container, log *slog.Logger) *Reactor {
	if log == nil {
		log = slog.Default()
	}
	r := &Reactor{
		conn:          conn,
		root:          root,
		Store:         store,
		Focus:         f,
		Workspace:     ws,
		Adopter:       ad,
		Exec:          exec,
		GeomCfg:       geomCfg,
		RootContainer: rootContainer,
		Log:           log,
		xwins:         make(map[xp.Window]*tree.Container),
		ignore:        make(map[uint16]ignoreEntry),
		focusFollowsMouse: true,
		quit:          make(chan struct{}),
	}
	r.a = newAtoms(r)
	return r
}

// check defers an outgoing request's error to the end of the current turn
// (taowm/main.go's check()).
func (r *Reactor) check(c checker) {
	r.checkers = append(r.checkers, c)
}

func (r *Reactor) drainCheckers() {
	for _, c := range r.checkers {
		if c == nil {
			continue
		}
		if err := c.Check(); err != nil {
			r.Log.Warn("x11 request failed", "err", err)
		}
	}
	r.checkers = r.checkers[:0]
}

// recordIgnore notes an outgoing request's sequence number so the
// matching incoming event (by responseType) is swallowed instead of
// acted on (spec.md §4.7).
func (r *Reactor) recordIgnore(seq uint16, responseType string) {
	r.ignore[seq] = ignoreEntry{responseType: responseType, recordedAt: time.Now()}
}

// consumeIgnore reports whether (seq, responseType) matches a still-live
// ignore-table entry, removing it if so.
func (r *Reactor) consumeIgnore(seq uint16, responseType string) bool {
	e, ok := r.ignore[seq]
	if !ok || e.responseType != responseType {
		return false
	}
	delete(r.ignore, seq)
	return true
}

// gcIgnoreTable drops entries older than 5 seconds (spec.md §4.7); a
// sequence number we never saw a matching event for means the event was
// lost or never fired (e.g. the window was already gone), and holding
// onto it forever would eventually swallow an unrelated reused sequence
// number once the 16-bit counter wraps.
func (r *Reactor) gcIgnoreTable() {
	now := time.Now()
	for seq, e := range r.ignore {
		if now.Sub(e.recordedAt) > ignoreTTL {
			delete(r.ignore, seq)
		}
	}
}

// registerWindow/unregisterWindow keep the xwin->LEAF lookup C7 needs for
// every event that arrives keyed by X window id rather than container id.
func (r *Reactor) registerWindow(xwin xp.Window, c *tree.Container) {
	r.xwins[xwin] = c
}

func (r *Reactor) unregisterWindow(xwin xp.Window) {
	delete(r.xwins, xwin)
}

func (r *Reactor) leafFor(xwin xp.Window) *tree.Container {
	return r.xwins[xwin]
}

// Unmap implements tree.Unmapper: Store.Close calls this for every leaf a
// close() walks over (spec.md §4.1, §4.7). selfCaused is always true on
// this call path (Store only ever closes windows it knows about), but the
// parameter is kept because the interface is shared with other potential
// callers.
func (r *Reactor) Unmap(w *tree.Window, selfCaused bool) {
	if w == nil || w.XWin == 0 {
		return
	}
	xwin := xp.Window(w.XWin)
	if selfCaused {
		if c := r.leafFor(xwin); c != nil {
			c.IgnoreUnmapCount++
		}
	}
	cookie := xp.UnmapWindowChecked(r.conn, xwin)
	r.recordIgnore(cookie.Sequence, "UnmapNotify")
	r.check(cookie)
}

// Kill implements tree.Unmapper: send WM_DELETE_WINDOW for KillWindow, or
// xp.KillClientChecked for KillClient (spec.md §4.6 kill).
func (r *Reactor) Kill(w *tree.Window, policy tree.KillPolicy) {
	if w == nil || w.XWin == 0 || policy == tree.KillNone {
		return
	}
	xwin := xp.Window(w.XWin)
	switch policy {
	case tree.KillWindow:
		if w.WMDeleteWindow {
			r.sendProtocolMessage(xwin, r.a.WMDeleteWindow)
			return
		}
		fallthrough
	case tree.KillClient:
		r.check(xp.KillClientChecked(r.conn, uint32(xwin)))
	}
}

// SetInputFocus implements focus.TakeFocuser for a window that does not
// need WM_TAKE_FOCUS (taowm/actions.go's focus()).
func (r *Reactor) SetInputFocus(leaf *tree.Container) {
	target := r.root
	if leaf != nil && leaf.Window != nil {
		target = xp.Window(leaf.Window.XWin)
	}
	r.check(xp.SetInputFocusChecked(r.conn, xp.InputFocusPointerRoot, target, r.eventTime))
	if leaf != nil && leaf.Window != nil {
		r.check(xp.ConfigureWindowChecked(r.conn, xp.Window(leaf.Window.XWin), xp.ConfigWindowStackMode, []uint32{xp.StackModeAbove}))
	}
}

// SendTakeFocus implements focus.TakeFocuser for ICCCM WM_TAKE_FOCUS
// windows (taowm/actions.go's focus(), taowm/main.go's sendClientMessage).
func (r *Reactor) SendTakeFocus(leaf *tree.Container) {
	if leaf == nil || leaf.Window == nil {
		return
	}
	r.sendProtocolMessage(xp.Window(leaf.Window.XWin), r.a.WMTakeFocus)
}

func (r *Reactor) sendProtocolMessage(xwin xp.Window, protocolAtom xp.Atom) {
	ev := xp.ClientMessageEvent{
		Format: 32,
		Window: xwin,
		Type:   r.a.WMProtocols,
		Data: xp.ClientMessageDataUnionData32New([]uint32{
			uint32(protocolAtom),
			uint32(r.eventTime),
			0, 0, 0,
		}),
	}
	r.check(xp.SendEventChecked(r.conn, false, xwin, xp.EventMaskNoEvent, string(ev.Bytes())))
}

// AsUnmapper adapts the Reactor to tree.Unmapper for
// internal/command.Executor.Unmapper (the same method set, surfaced
// explicitly so callers wiring the executor can see the seam).
func (r *Reactor) AsUnmapper() tree.Unmapper { return r }
