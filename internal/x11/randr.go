package x11

import (
	"github.com/BurntSushi/xgb/randr"

	"github.com/axewm/axewm/internal/tree"
)

// InitRandR enables RandR ScreenChangeNotify delivery and performs the
// initial output enumeration, replacing taowm's xinerama-only, poll-free
// single-screen-list model (taowm/xinit.go's initScreens) with hotplug
// support (SPEC_FULL.md's RandR output-hotplug supplement).
func (r *Reactor) InitRandR() error {
	if err := randr.Init(r.conn); err != nil {
		return err
	}
	if err := randr.SelectInputChecked(r.conn, r.root, randr.NotifyMaskScreenChange).Check(); err != nil {
		return err
	}
	return r.syncOutputs()
}

// handleScreenChange reconciles the tree's OUTPUT containers against the
// current RandR CRTC layout whenever the display configuration changes
// (monitor plugged/unplugged, resized, rotated).
func (r *Reactor) handleScreenChange(e randr.ScreenChangeNotifyEvent) {
	if err := r.syncOutputs(); err != nil {
		r.Log.Warn("randr rescan failed", "err", err)
	}
}

// syncOutputs diffs the connected, active RandR outputs against the
// tree's current OUTPUT containers: new CRTCs get a fresh OUTPUT (and its
// dockarea/content skeleton) via workspace.Manager.NewOutput, a CRTC that
// disappeared has its workspaces evacuated onto a surviving output, and its
// OUTPUT container is left in the tree (see evacuateOutput).
func (r *Reactor) syncOutputs() error {
	res, err := randr.GetScreenResourcesCurrent(r.conn, r.root).Reply()
	if err != nil {
		return err
	}

	live := make(map[string]tree.Rect)
	for _, crtcID := range res.Crtcs {
		info, err := randr.GetCrtcInfo(r.conn, crtcID, res.ConfigTimestamp).Reply()
		if err != nil || info.NumOutputs == 0 || (info.Width == 0 || info.Height == 0) {
			continue
		}
		name := crtcOutputName(r, res, crtcID)
		live[name] = tree.Rect{X: int32(info.X), Y: int32(info.Y), W: uint32(info.Width), H: uint32(info.Height)}
	}

	existing := make(map[string]*tree.Container)
	for _, c := range r.Store.All() {
		if c.Kind == tree.Output {
			existing[c.Name] = c
		}
	}

	for name, rect := range live {
		out, ok := existing[name]
		if !ok {
			out = r.Workspace.NewOutput(r.RootContainer, name)
		}
		out.Rect = rect
	}

	survivor := ""
	for name := range live {
		survivor = name
		break
	}
	for name, out := range existing {
		if _, ok := live[name]; ok {
			continue
		}
		r.evacuateOutput(out, existing[survivor])
	}

	return nil
}

// evacuateOutput moves every workspace on a disappearing output onto dst
// (an arbitrary surviving output) before the now-empty output container
// would otherwise be left dangling; axewm never deletes the OUTPUT
// container itself here since C1 has no "delete an empty OUTPUT"
// primitive and a redetected monitor reuses the same name.
func (r *Reactor) evacuateOutput(out, dst *tree.Container) {
	if dst == nil {
		return
	}
	for _, ws := range r.Workspace.All() {
		if tree.AncestorOfKind(ws, tree.Output) != out {
			continue
		}
		if _, _, err := r.Workspace.MoveWorkspaceToOutput(r.RootContainer, ws, dst); err != nil {
			r.Log.Warn("evacuate workspace failed", "err", err)
		}
	}
}

func crtcOutputName(r *Reactor, res *randr.GetScreenResourcesCurrentReply, crtcID randr.Crtc) string {
	for _, outID := range res.Outputs {
		info, err := randr.GetOutputInfo(r.conn, outID, res.ConfigTimestamp).Reply()
		if err != nil || info.Crtc != crtcID {
			continue
		}
		return string(info.Name)
	}
	return "unknown"
}
