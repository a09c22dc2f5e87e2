package x11

import (
	xp "github.com/BurntSushi/xgb/xproto"
)

const (
	keycodeLo = 8
	keycodeHi = 255
)

// loadKeysyms fills the keycode->keysym table from the X server's current
// keyboard mapping, generalizing taowm/xinit.go's initKeyboardMapping from
// a fixed "grab the WM modifier plus three audio keys" list to a lookup
// table any configured keybinding can resolve against, and re-run on
// MappingNotify so a runtime layout change (setxkbmap) is picked up
// without a restart.
func (r *Reactor) loadKeysyms() {
	km, err := xp.GetKeyboardMapping(r.conn, keycodeLo, keycodeHi-keycodeLo+1).Reply()
	if err != nil {
		r.Log.Warn("get keyboard mapping failed", "err", err)
		return
	}
	n := int(km.KeysymsPerKeycode)
	if n < 1 {
		return
	}
	for i := keycodeLo; i <= keycodeHi; i++ {
		base := (i - keycodeLo) * n
		r.keysyms[i][0] = km.Keysyms[base]
		if n > 1 {
			r.keysyms[i][1] = km.Keysyms[base+1]
		}
	}
}

// findKeycode resolves a keysym (as named in a keybinding, e.g. "XK_t")
// back to the physical keycode axewm must grab, mirroring
// taowm/xinit.go's findKeycode.
func (r *Reactor) findKeycode(keysym xp.Keysym) (keycode xp.Keycode, shift bool) {
	for i, k := range r.keysyms {
		if k[0] == keysym {
			return xp.Keycode(i), false
		}
		if k[1] == keysym {
			return xp.Keycode(i), true
		}
	}
	return 0, false
}

// GrabKeysym grabs every combination of modMask and the keysym's physical
// keycode on root, the generalized replacement for taowm's hardcoded
// grab-the-WM-modifier-key call in initKeyboardMapping, driven instead by
// the keybinding table a config file supplies.
func (r *Reactor) GrabKeysym(keysym xp.Keysym, modMask uint16) error {
	keycode, _ := r.findKeycode(keysym)
	if keycode == 0 {
		return nil
	}
	return xp.GrabKeyChecked(r.conn, true, r.root, modMask, keycode,
		xp.GrabModeAsync, xp.GrabModeAsync).Check()
}
