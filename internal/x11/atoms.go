package x11

import xp "github.com/BurntSushi/xgb/xproto"

// atoms interns and caches every X atom the reactor reads or writes, one
// round-trip per distinct name for the lifetime of the connection
// (taowm/xinit.go's initAtoms generalized from a handful of package-level
// vars to the full EWMH set spec.md §6 requires).
type atoms struct {
	r *Reactor

	byName map[string]xp.Atom

	WMProtocols    xp.Atom
	WMDeleteWindow xp.Atom
	WMTakeFocus    xp.Atom
	WMName         xp.Atom
	WMClass        xp.Atom
	WMTransientFor xp.Atom
	WMClientLeader xp.Atom
	WMHints        xp.Atom
	WMNormalHints  xp.Atom
	WMState        xp.Atom

	NetWMName            xp.Atom
	NetWMWindowType      xp.Atom
	NetWMWindowTypeUtil  xp.Atom
	NetWMWindowTypeDlg   xp.Atom
	NetWMWindowTypeSplsh xp.Atom
	NetWMWindowTypeDock  xp.Atom
	NetWMStrutPartial    xp.Atom
	NetWMState           xp.Atom
	NetWMStateFullscreen xp.Atom
	NetActiveWindow      xp.Atom
	NetCurrentDesktop    xp.Atom
	NetCloseWindow       xp.Atom
	NetMoveresizeWindow  xp.Atom
	NetClientList        xp.Atom
	NetClientListStack   xp.Atom
	NetWorkarea          xp.Atom
	NetSupported         xp.Atom
	NetSupportingWMCheck xp.Atom
	NetStartupID         xp.Atom

	I3SocketPath xp.Atom
	I3ConfigPath xp.Atom
	I3Sync       xp.Atom
}

func newAtoms(r *Reactor) *atoms {
	a := &atoms{r: r, byName: make(map[string]xp.Atom)}

	a.WMProtocols = a.intern("WM_PROTOCOLS")
	a.WMDeleteWindow = a.intern("WM_DELETE_WINDOW")
	a.WMTakeFocus = a.intern("WM_TAKE_FOCUS")
	a.WMName = a.intern("WM_NAME")
	a.WMClass = a.intern("WM_CLASS")
	a.WMTransientFor = a.intern("WM_TRANSIENT_FOR")
	a.WMClientLeader = a.intern("WM_CLIENT_LEADER")
	a.WMHints = a.intern("WM_HINTS")
	a.WMNormalHints = a.intern("WM_NORMAL_HINTS")
	a.WMState = a.intern("WM_STATE")

	a.NetWMName = a.intern("_NET_WM_NAME")
	a.NetWMWindowType = a.intern("_NET_WM_WINDOW_TYPE")
	a.NetWMWindowTypeUtil = a.intern("_NET_WM_WINDOW_TYPE_UTILITY")
	a.NetWMWindowTypeDlg = a.intern("_NET_WM_WINDOW_TYPE_DIALOG")
	a.NetWMWindowTypeSplsh = a.intern("_NET_WM_WINDOW_TYPE_SPLASH")
	a.NetWMWindowTypeDock = a.intern("_NET_WM_WINDOW_TYPE_DOCK")
	a.NetWMStrutPartial = a.intern("_NET_WM_STRUT_PARTIAL")
	a.NetWMState = a.intern("_NET_WM_STATE")
	a.NetWMStateFullscreen = a.intern("_NET_WM_STATE_FULLSCREEN")
	a.NetActiveWindow = a.intern("_NET_ACTIVE_WINDOW")
	a.NetCurrentDesktop = a.intern("_NET_CURRENT_DESKTOP")
	a.NetCloseWindow = a.intern("_NET_CLOSE_WINDOW")
	a.NetMoveresizeWindow = a.intern("_NET_MOVERESIZE_WINDOW")
	a.NetClientList = a.intern("_NET_CLIENT_LIST")
	a.NetClientListStack = a.intern("_NET_CLIENT_LIST_STACKING")
	a.NetWorkarea = a.intern("_NET_WORKAREA")
	a.NetSupported = a.intern("_NET_SUPPORTED")
	a.NetSupportingWMCheck = a.intern("_NET_SUPPORTING_WM_CHECK")
	a.NetStartupID = a.intern("_NET_STARTUP_ID")

	a.I3SocketPath = a.intern("I3_SOCKET_PATH")
	a.I3ConfigPath = a.intern("I3_CONFIG_PATH")
	a.I3Sync = a.intern("I3_SYNC")

	return a
}

func (a *atoms) intern(name string) xp.Atom {
	if at, ok := a.byName[name]; ok {
		return at
	}
	reply, err := xp.InternAtom(a.r.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		a.r.Log.Error("intern atom failed", "name", name, "err", err)
		return 0
	}
	a.byName[name] = reply.Atom
	return reply.Atom
}

// supported lists every atom axewm advertises in _NET_SUPPORTED (spec.md §6).
func (a *atoms) supported() []xp.Atom {
	return []xp.Atom{
		a.NetWMName, a.NetWMWindowType, a.NetWMWindowTypeUtil, a.NetWMWindowTypeDlg,
		a.NetWMWindowTypeSplsh, a.NetWMWindowTypeDock, a.NetWMStrutPartial,
		a.NetWMState, a.NetWMStateFullscreen, a.NetActiveWindow, a.NetCurrentDesktop,
		a.NetCloseWindow, a.NetMoveresizeWindow, a.NetClientList, a.NetClientListStack,
		a.NetWorkarea, a.NetSupportingWMCheck, a.NetStartupID,
	}
}
