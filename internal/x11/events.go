package x11

import (
	"context"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	xp "github.com/BurntSushi/xgb/xproto"

	"github.com/axewm/axewm/internal/command"
	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/geom"
	"github.com/axewm/axewm/internal/tree"
)

// xEventOrError pairs one WaitForEvent result (taowm/main.go's type of the
// same name), so the pump goroutine can hand errors and events down the
// same channel.
type xEventOrError struct {
	event xgb.Event
	err   xgb.Error
}

// CommandBatch is one externally-submitted group of command.Records that
// must execute (and have the turn settle) together before their results
// are reported back, letting internal/world bridge IPC's Batch type in
// without x11 importing internal/ipc directly.
type CommandBatch struct {
	Records []command.Record
	Done    chan []command.Result
}

// dragState tracks an in-progress floating move/resize started by a
// ButtonPress on a modified window (spec.md §4.3's floating drag/resize,
// SUPPLEMENTED FEATURES over taowm which has no floating containers).
type dragState struct {
	fw                     *tree.Container // the FLOATING_WRAPPER being moved/resized
	resize                 bool
	startRootX, startRootY int16
	startRect              tree.Rect
}

// Run manages any windows already mapped at startup, then drives the
// single-threaded event loop forever: drain X events, drain queued IPC
// command records, settle once, flush (spec.md §5). It returns when ctx
// is canceled.
func (r *Reactor) Run(ctx context.Context) error {
	if err := r.manageExisting(); err != nil {
		return err
	}

	eeChan := make(chan xEventOrError, 64)
	go func() {
		for {
			e, err := r.conn.WaitForEvent()
			select {
			case eeChan <- xEventOrError{e, err}:
			case <-r.quit:
				return
			}
			if e == nil && err == nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(ignoreTTL)
	defer ticker.Stop()

	for {
		r.drainCheckers()

		select {
		case <-ctx.Done():
			close(r.quit)
			return ctx.Err()
		case <-ticker.C:
			r.gcIgnoreTable()
			continue
		case ee := <-eeChan:
			if ee.event == nil && ee.err == nil {
				return nil
			}
			if ee.err != nil {
				r.handleXError(ee.err)
				continue
			}
			r.dispatch(ee.event)
			// Drain whatever else is already queued before running a
			// settle step, so a burst of events (e.g. many PropertyNotify
			// during startup) costs one geometry recompute, not N.
		drain:
			for {
				select {
				case ee2 := <-eeChan:
					if ee2.err != nil {
						r.handleXError(ee2.err)
					} else if ee2.event != nil {
						r.dispatch(ee2.event)
					}
				default:
					break drain
				}
			}
		}

		var batches []CommandBatch
		if r.PullCommands != nil {
			batches = r.PullCommands()
		}
		if len(batches) > 0 {
			var recs []command.Record
			for _, b := range batches {
				recs = append(recs, b.Records...)
			}
			results := r.Exec.Execute(r.RootContainer, recs)
			off := 0
			for _, b := range batches {
				n := 0
				for _, rec := range b.Records {
					n += len(rec.Operations)
				}
				if b.Done != nil {
					b.Done <- results[off : off+n]
				}
				off += n
			}
		}

		if r.OnSettled != nil {
			r.OnSettled(r.RootContainer)
		}
		r.drainCheckers()
		r.conn.Sync()
	}
}

func (r *Reactor) handleXError(err xgb.Error) {
	if pe, ok := err.(interface{ SequenceId() uint16 }); ok {
		if r.consumeIgnore(pe.SequenceId(), "Error") {
			return
		}
	}
	r.Log.Warn("x11 protocol error", "err", err)
}

func (r *Reactor) dispatch(event xgb.Event) {
	switch e := event.(type) {
	case xp.MapRequestEvent:
		r.handleMapRequest(e)
	case xp.UnmapNotifyEvent:
		r.eventTime = 0
		r.handleUnmapNotify(e)
	case xp.DestroyNotifyEvent:
		r.handleDestroyNotify(e)
	case xp.ConfigureRequestEvent:
		r.handleConfigureRequest(e)
	case xp.ConfigureNotifyEvent:
		// no-op: we are the one generating ConfigureNotify for managed
		// windows (geom.Solve's WindowRect), this is feedback from our
		// own request or an unmanaged override-redirect window.
	case xp.PropertyNotifyEvent:
		r.handlePropertyNotify(e)
	case xp.ClientMessageEvent:
		r.handleClientMessage(e)
	case xp.EnterNotifyEvent:
		r.eventTime = e.Time
		r.handleEnterNotify(e)
	case xp.ButtonPressEvent:
		r.eventTime = e.Time
		r.handleButtonPress(e)
	case xp.ButtonReleaseEvent:
		r.eventTime = e.Time
		r.handleButtonRelease(e)
	case xp.MotionNotifyEvent:
		r.eventTime = e.Time
		r.handleMotionNotify(e)
	case xp.MappingNotifyEvent:
		r.handleMappingNotify(e)
	case randr.ScreenChangeNotifyEvent:
		r.handleScreenChange(e)
	default:
		r.Log.Debug("unhandled x11 event", "type", slogType(event))
	}
}

func slogType(v any) string {
	return fmt.Sprintf("%T", v)
}

// manageExisting adopts every already-mapped top-level window at startup,
// mirroring taowm/main.go's "manage any existing windows" pass, so axewm
// can replace a crashed or killed previous instance without losing
// clients.
func (r *Reactor) manageExisting() error {
	qt, err := xp.QueryTree(r.conn, r.root).Reply()
	if err != nil {
		return err
	}
	for _, c := range qt.Children {
		attrs, err := xp.GetWindowAttributes(r.conn, c).Reply()
		if err != nil || attrs.OverrideRedirect || attrs.MapState == xp.MapStateUnmapped {
			continue
		}
		r.adoptWindow(c)
	}
	return nil
}

func (r *Reactor) handleMapRequest(e xp.MapRequestEvent) {
	if existing := r.leafFor(e.Window); existing != nil {
		r.check(xp.MapWindowChecked(r.conn, e.Window))
		return
	}
	r.check(xp.MapWindowChecked(r.conn, e.Window))
	r.adoptWindow(e.Window)
}

func (r *Reactor) adoptWindow(xwin xp.Window) {
	props := r.queryProperties(xwin)
	leaf, err := r.Adopter.Adopt(r.RootContainer, props)
	if err != nil {
		r.Log.Warn("adopt failed", "window", xwin, "err", err)
		return
	}
	r.registerWindow(xwin, leaf)

	r.check(xp.ChangeWindowAttributesChecked(r.conn, xwin, xp.CwEventMask, []uint32{
		xp.EventMaskEnterWindow | xp.EventMaskPropertyChange | xp.EventMaskStructureNotify,
	}))

	geom.Solve(r.GeomCfg, r.RootContainer)
	r.Focus.Focus(r.RootContainer, leaf)
}

func (r *Reactor) handleUnmapNotify(e xp.UnmapNotifyEvent) {
	if r.consumeIgnore(e.Sequence, "UnmapNotify") {
		return
	}
	leaf := r.leafFor(e.Window)
	if leaf == nil {
		return
	}
	if leaf.IgnoreUnmapCount > 0 {
		leaf.IgnoreUnmapCount--
		return
	}
	r.closeLeaf(leaf)
}

func (r *Reactor) handleDestroyNotify(e xp.DestroyNotifyEvent) {
	leaf := r.leafFor(e.Window)
	if leaf == nil {
		return
	}
	r.closeLeaf(leaf)
}

func (r *Reactor) closeLeaf(leaf *tree.Container) {
	if leaf.Window != nil {
		r.unregisterWindow(xp.Window(leaf.Window.XWin))
	}
	emptied, err := r.Store.Close(leaf, tree.KillNone, false, r)
	if err != nil {
		r.Log.Warn("close failed", "err", err)
		return
	}
	for _, ws := range emptied {
		r.Workspace.PruneIfEmpty(ws)
	}
	r.Store.SettleSplits()
	geom.Solve(r.GeomCfg, r.RootContainer)
}

func (r *Reactor) handleConfigureRequest(e xp.ConfigureRequestEvent) {
	if leaf := r.leafFor(e.Window); leaf != nil {
		cne := xp.ConfigureNotifyEvent{
			Event:  e.Window,
			Window: e.Window,
			X:      int16(leaf.WindowRect.X),
			Y:      int16(leaf.WindowRect.Y),
			Width:  uint16(leaf.WindowRect.W),
			Height: uint16(leaf.WindowRect.H),
		}
		r.check(xp.SendEventChecked(r.conn, false, e.Window, xp.EventMaskStructureNotify, string(cne.Bytes())))
		return
	}
	mask, values := uint16(0), []uint32(nil)
	if e.ValueMask&xp.ConfigWindowX != 0 {
		mask |= xp.ConfigWindowX
		values = append(values, uint32(e.X))
	}
	if e.ValueMask&xp.ConfigWindowY != 0 {
		mask |= xp.ConfigWindowY
		values = append(values, uint32(e.Y))
	}
	if e.ValueMask&xp.ConfigWindowWidth != 0 {
		mask |= xp.ConfigWindowWidth
		values = append(values, uint32(e.Width))
	}
	if e.ValueMask&xp.ConfigWindowHeight != 0 {
		mask |= xp.ConfigWindowHeight
		values = append(values, uint32(e.Height))
	}
	if e.ValueMask&xp.ConfigWindowBorderWidth != 0 {
		mask |= xp.ConfigWindowBorderWidth
		values = append(values, uint32(e.BorderWidth))
	}
	if e.ValueMask&xp.ConfigWindowSibling != 0 {
		mask |= xp.ConfigWindowSibling
		values = append(values, uint32(e.Sibling))
	}
	if e.ValueMask&xp.ConfigWindowStackMode != 0 {
		mask |= xp.ConfigWindowStackMode
		values = append(values, uint32(e.StackMode))
	}
	r.check(xp.ConfigureWindowChecked(r.conn, e.Window, mask, values))
}

func (r *Reactor) handlePropertyNotify(e xp.PropertyNotifyEvent) {
	leaf := r.leafFor(e.Window)
	if leaf == nil || leaf.Window == nil {
		return
	}
	switch e.Atom {
	case r.a.NetWMName, r.a.WMName:
		title := r.getUTF8Property(e.Window, r.a.NetWMName)
		if title == "" {
			title = r.getUTF8Property(e.Window, r.a.WMName)
		}
		urgent := r.getUrgencyHint(e.Window)
		if changed := r.Adopter.UpdateProperty(leaf, title, urgent, leaf.Window.Struts); changed {
			if ws := tree.AncestorOfKind(leaf, tree.Workspace); ws != nil {
				r.Workspace.UpdateUrgentFlag(ws)
			}
		}
	case r.a.WMHints:
		urgent := r.getUrgencyHint(e.Window)
		if changed := r.Adopter.UpdateProperty(leaf, leaf.Window.TitleUTF8, urgent, leaf.Window.Struts); changed {
			if ws := tree.AncestorOfKind(leaf, tree.Workspace); ws != nil {
				r.Workspace.UpdateUrgentFlag(ws)
			}
		}
	case r.a.NetWMStrutPartial:
		struts := r.getStrutPartial(e.Window)
		r.Adopter.UpdateProperty(leaf, leaf.Window.TitleUTF8, leaf.Urgent, struts)
		geom.Solve(r.GeomCfg, r.RootContainer)
	}
}

// handleClientMessage translates the small set of EWMH/i3 ClientMessages
// axewm answers into C6 operations against the already-known target
// container (spec.md §4.7's ClientMessage row).
func (r *Reactor) handleClientMessage(e xp.ClientMessageEvent) {
	data := e.Data.Data32
	switch e.Type {
	case r.a.NetActiveWindow:
		if leaf := r.leafFor(e.Window); leaf != nil {
			r.Exec.ApplyToContainer(r.RootContainer, leaf, command.Operation{Op: command.OpFocus})
		}
	case r.a.NetWMState:
		if leaf := r.leafFor(e.Window); leaf != nil && len(data) >= 2 {
			if xp.Atom(data[1]) == r.a.NetWMStateFullscreen || (len(data) >= 3 && xp.Atom(data[2]) == r.a.NetWMStateFullscreen) {
				toggle := command.FlipToggle
				switch data[0] {
				case 0:
					toggle = command.Disable
				case 1:
					toggle = command.Enable
				}
				r.Exec.ApplyToContainer(r.RootContainer, leaf, command.Operation{Op: command.OpFullscreen, Toggle: toggle})
			}
		}
	case r.a.NetCloseWindow:
		if leaf := r.leafFor(e.Window); leaf != nil {
			r.Exec.ApplyToContainer(r.RootContainer, leaf, command.Operation{Op: command.OpKill, KillPolicy: tree.KillWindow})
		}
	case r.a.NetCurrentDesktop:
		if len(data) >= 1 {
			all := r.Workspace.All()
			idx := int(data[0])
			if idx >= 0 && idx < len(all) {
				r.Workspace.Show(r.RootContainer, all[idx])
				geom.Solve(r.GeomCfg, r.RootContainer)
			}
		}
	case r.a.I3Sync:
		// i3's IPC sync protocol: echo the ClientMessage back at the
		// requesting window once this turn's settle step has run, so the
		// requester knows every prior command has taken effect.
		if r.OnSettled != nil {
			prev := r.OnSettled
			r.OnSettled = func(root *tree.Container) {
				prev(root)
				r.check(xp.SendEventChecked(r.conn, false, e.Window, xp.EventMaskNoEvent, string(e.Bytes())))
				r.OnSettled = prev
			}
		}
	}
}

func (r *Reactor) handleEnterNotify(e xp.EnterNotifyEvent) {
	if !r.focusFollowsMouse {
		return
	}
	if e.Mode != xp.NotifyModeNormal {
		return
	}
	leaf := r.leafFor(e.Event)
	if leaf == nil {
		return
	}
	r.Focus.Focus(r.RootContainer, leaf)
}

func (r *Reactor) handleButtonPress(e xp.ButtonPressEvent) {
	leaf := r.leafFor(e.Event)
	if leaf == nil {
		return
	}
	r.Focus.Focus(r.RootContainer, leaf)
	if leaf.Floating() {
		if fw := tree.AncestorOfKind(leaf, tree.FloatingWrapper); fw != nil {
			switch e.Detail {
			case 1:
				r.drag = &dragState{fw: fw, resize: false, startRootX: e.RootX, startRootY: e.RootY, startRect: fw.Rect}
			case 3:
				r.drag = &dragState{fw: fw, resize: true, startRootX: e.RootX, startRootY: e.RootY, startRect: fw.Rect}
			}
		}
	}
	r.check(xp.AllowEventsChecked(r.conn, xp.AllowReplayPointer, e.Time))
}

func (r *Reactor) handleButtonRelease(e xp.ButtonReleaseEvent) {
	r.drag = nil
}

func (r *Reactor) handleMotionNotify(e xp.MotionNotifyEvent) {
	if r.drag == nil {
		return
	}
	dx := int32(e.RootX - r.drag.startRootX)
	dy := int32(e.RootY - r.drag.startRootY)
	rect := r.drag.startRect
	if r.drag.resize {
		rect.W, rect.H = geom.ClampFloatingSize(r.GeomCfg, uint32(int32(rect.W)+dx), uint32(int32(rect.H)+dy))
	} else {
		rect.X += dx
		rect.Y += dy
	}
	r.drag.fw.Rect = rect
	geom.Solve(r.GeomCfg, r.drag.fw)
	// ApplyGeometry, run from OnSettled once this turn's dispatch returns,
	// diffs the dragged leaf's WindowRect against what was last configured
	// and moves the real window to match.
}

func (r *Reactor) handleMappingNotify(e xp.MappingNotifyEvent) {
	r.loadKeysyms()
}

var _ focus.TakeFocuser = (*Reactor)(nil)
var _ tree.Unmapper = (*Reactor)(nil)
