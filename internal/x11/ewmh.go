package x11

import (
	xp "github.com/BurntSushi/xgb/xproto"

	"github.com/axewm/axewm/internal/tree"
)

// InitEWMH creates the supporting-check window EWMH compliance requires,
// advertises _NET_SUPPORTED, and becomes the window manager by selecting
// for SubstructureRedirect on root (taowm/xinit.go's becomeTheWM +
// initDesktop, extended with the EWMH handshake taowm never did since it
// predates any IPC consumer expecting EWMH).
func (r *Reactor) InitEWMH(wmName string) error {
	if err := xp.ChangeWindowAttributesChecked(r.conn, r.root, xp.CwEventMask, []uint32{
		xp.EventMaskButtonPress |
			xp.EventMaskButtonRelease |
			xp.EventMaskPointerMotion |
			xp.EventMaskPropertyChange |
			xp.EventMaskSubstructureRedirect |
			xp.EventMaskSubstructureNotify,
	}).Check(); err != nil {
		return err
	}

	check, err := xp.NewWindowId(r.conn)
	if err != nil {
		return err
	}
	screen := xp.Setup(r.conn).Roots[0]
	if err := xp.CreateWindowChecked(r.conn, screen.RootDepth, check, r.root,
		-1, -1, 1, 1, 0, xp.WindowClassInputOutput, screen.RootVisual, 0, nil).Check(); err != nil {
		return err
	}

	r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, check, r.a.NetSupportingWMCheck, xp.AtomWindow, 32, 1, encodeWindows([]xp.Window{check})))
	r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, check, r.a.NetWMName, xp.AtomString, 8, uint32(len(wmName)), []byte(wmName)))
	r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, r.root, r.a.NetSupportingWMCheck, xp.AtomWindow, 32, 1, encodeWindows([]xp.Window{check})))

	supported := r.a.supported()
	atomVals := make([]xp.Atom, len(supported))
	copy(atomVals, supported)
	r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, r.root, r.a.NetSupported, xp.AtomAtom, 32, uint32(len(atomVals)), encodeAtoms(atomVals)))

	return nil
}

// SetI3Properties advertises the i3-compatible root properties external
// tools (i3bar, i3-msg clones) look up to find axewm's IPC socket and
// active config file (spec.md §6).
func (r *Reactor) SetI3Properties(socketPath, configPath string) {
	r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, r.root, r.a.I3SocketPath, xp.AtomString, 8, uint32(len(socketPath)), []byte(socketPath)))
	if configPath != "" {
		r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, r.root, r.a.I3ConfigPath, xp.AtomString, 8, uint32(len(configPath)), []byte(configPath)))
	}
}

// UpdateEWMH recomputes and republishes every root property that tracks
// live tree state: _NET_CLIENT_LIST(_STACKING), _NET_CURRENT_DESKTOP,
// _NET_ACTIVE_WINDOW, _NET_WORKAREA (spec.md §6). Called once per turn
// from Reactor.OnSettled, after the settle step has finalized geometry.
func (r *Reactor) UpdateEWMH(root *tree.Container) {
	var clients []xp.Window
	for _, c := range r.Store.All() {
		if c.Kind == tree.Leaf && c.Window != nil {
			clients = append(clients, xp.Window(c.Window.XWin))
		}
	}
	r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, r.root, r.a.NetClientList, xp.AtomWindow, 32, uint32(len(clients)), encodeWindows(clients)))
	r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, r.root, r.a.NetClientListStack, xp.AtomWindow, 32, uint32(len(clients)), encodeWindows(clients)))

	all := r.Workspace.All()
	cur := r.Workspace.Current(root)
	idx := uint32(0)
	var workarea []uint32
	for i, ws := range all {
		if ws == cur {
			idx = uint32(i)
		}
		out := tree.AncestorOfKind(ws, tree.Output)
		if out != nil {
			content := out.Rect
			workarea = append(workarea, uint32(content.X), uint32(content.Y), content.W, content.H)
		} else {
			workarea = append(workarea, 0, 0, 0, 0)
		}
	}
	r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, r.root, r.a.NetCurrentDesktop, xp.AtomCardinal, 32, 1, encodeU32([]uint32{idx})))
	r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, r.root, r.a.NetWorkarea, xp.AtomCardinal, 32, uint32(len(workarea)), encodeU32(workarea)))

	if leaf := r.Focus.FocusedLeaf(root); leaf != nil && leaf.Window != nil {
		r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, r.root, r.a.NetActiveWindow, xp.AtomWindow, 32, 1, encodeWindows([]xp.Window{xp.Window(leaf.Window.XWin)})))
	} else {
		r.check(xp.ChangePropertyChecked(r.conn, xp.PropModeReplace, r.root, r.a.NetActiveWindow, xp.AtomWindow, 32, 1, encodeWindows([]xp.Window{0})))
	}
}

func encodeWindows(ws []xp.Window) []byte {
	out := make([]byte, 0, len(ws)*4)
	for _, w := range ws {
		out = appendU32(out, uint32(w))
	}
	return out
}

func encodeAtoms(as []xp.Atom) []byte {
	out := make([]byte, 0, len(as)*4)
	for _, a := range as {
		out = appendU32(out, uint32(a))
	}
	return out
}

func encodeU32(vs []uint32) []byte {
	out := make([]byte, 0, len(vs)*4)
	for _, v := range vs {
		out = appendU32(out, v)
	}
	return out
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
