package x11

import (
	xp "github.com/BurntSushi/xgb/xproto"

	"github.com/axewm/axewm/internal/adopt"
	"github.com/axewm/axewm/internal/tree"
)

func u32(b []byte) uint32 {
	return uint32(b[0])<<0 | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// wmHintsUrgency is the WM_HINTS XUrgencyHint flag bit (ICCCM §4.1.2.4).
const wmHintsUrgency = 1 << 8

func (r *Reactor) getProperty32(xwin xp.Window, atom xp.Atom, count uint32) []byte {
	reply, err := xp.GetProperty(r.conn, false, xwin, atom, xp.GetPropertyTypeAny, 0, count).Reply()
	if err != nil || reply == nil {
		return nil
	}
	return reply.Value
}

func (r *Reactor) getWindowProperty(xwin xp.Window, atom xp.Atom) (xp.Window, bool) {
	v := r.getProperty32(xwin, atom, 4)
	if len(v) != 4 {
		return 0, false
	}
	return xp.Window(u32(v)), true
}

func (r *Reactor) getUTF8Property(xwin xp.Window, atom xp.Atom) string {
	v := r.getProperty32(xwin, atom, 256)
	return string(v)
}

// getWMClass splits WM_CLASS's two nul-terminated strings into
// instance/class (ICCCM §4.1.2.5).
func (r *Reactor) getWMClass(xwin xp.Window) (instance, class string) {
	v := r.getProperty32(xwin, r.a.WMClass, 128)
	parts := splitNul(v)
	if len(parts) > 0 {
		instance = parts[0]
	}
	if len(parts) > 1 {
		class = parts[1]
	}
	return instance, class
}

func splitNul(b []byte) []string {
	var out []string
	start := 0
	for i, c := range b {
		if c == 0 {
			out = append(out, string(b[start:i]))
			start = i + 1
		}
	}
	if start < len(b) {
		out = append(out, string(b[start:]))
	}
	return out
}

func (r *Reactor) getUrgencyHint(xwin xp.Window) bool {
	v := r.getProperty32(xwin, r.a.WMHints, 36)
	if len(v) < 4 {
		return false
	}
	return u32(v[:4])&wmHintsUrgency != 0
}

func (r *Reactor) getStrutPartial(xwin xp.Window) tree.Struts {
	v := r.getProperty32(xwin, r.a.NetWMStrutPartial, 48)
	if len(v) < 16 {
		return tree.Struts{}
	}
	return tree.Struts{
		Left:   u32(v[0:4]),
		Right:  u32(v[4:8]),
		Top:    u32(v[8:12]),
		Bottom: u32(v[12:16]),
	}
}

func (r *Reactor) getProtocols(xwin xp.Window) (wmDeleteWindow, wmTakeFocus bool) {
	v := r.getProperty32(xwin, r.a.WMProtocols, 64)
	for b := v; len(b) >= 4; b = b[4:] {
		switch xp.Atom(u32(b)) {
		case r.a.WMDeleteWindow:
			wmDeleteWindow = true
		case r.a.WMTakeFocus:
			wmTakeFocus = true
		}
	}
	return wmDeleteWindow, wmTakeFocus
}

func (r *Reactor) getWindowTypeHints(xwin xp.Window) (isDock bool, wantsFloating bool) {
	v := r.getProperty32(xwin, r.a.NetWMWindowType, 64)
	for b := v; len(b) >= 4; b = b[4:] {
		switch xp.Atom(u32(b)) {
		case r.a.NetWMWindowTypeDock:
			isDock = true
		case r.a.NetWMWindowTypeDlg, r.a.NetWMWindowTypeUtil, r.a.NetWMWindowTypeSplsh:
			wantsFloating = true
		}
	}
	return isDock, wantsFloating
}

// queryProperties extracts everything internal/adopt.Adopt needs from a
// freshly mapped window's ICCCM/EWMH properties, generalizing
// taowm/main.go's manage() inline WM_TRANSIENT_FOR/WM_PROTOCOLS reads to
// the fuller set spec.md §4.5 step 1 lists.
func (r *Reactor) queryProperties(xwin xp.Window) adopt.Properties {
	p := adopt.Properties{XWin: uint32(xwin)}

	p.Instance, p.Class = r.getWMClass(xwin)
	p.TitleUTF8 = r.getUTF8Property(xwin, r.a.NetWMName)
	if p.TitleUTF8 == "" {
		p.TitleUTF8 = r.getUTF8Property(xwin, r.a.WMName)
	}
	p.TitleUCS2 = toUCS2(p.TitleUTF8)

	if leader, ok := r.getWindowProperty(xwin, r.a.WMClientLeader); ok {
		p.Leader = uint32(leader)
	}
	if transientFor, ok := r.getWindowProperty(xwin, r.a.WMTransientFor); ok {
		p.TransientFor = uint32(transientFor)
		p.WantsFloating = true
	}

	p.WMDeleteWindow, p.NeedsTakeFocus = r.getProtocols(xwin)

	isDock, wantsFloating := r.getWindowTypeHints(xwin)
	p.Dock = isDock
	if wantsFloating {
		p.WantsFloating = true
	}
	if isDock {
		p.Struts = r.getStrutPartial(xwin)
		if p.Struts.Bottom > 0 && p.Struts.Top == 0 {
			p.DockPosition = tree.DockBottom
		} else {
			p.DockPosition = tree.DockTop
		}
	}

	p.NetStartupID = r.getUTF8Property(xwin, r.a.NetStartupID)

	return p
}

func toUCS2(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for _, r := range s {
		if r > 0xffff {
			r = '?'
		}
		out = append(out, uint16(r))
	}
	return out
}
