package geom

import "github.com/axewm/axewm/internal/tree"

// ClampFloatingSize enforces floating_minimum_size/floating_maximum_size
// (spec.md §8 scenario 5). A -1 bound is unlimited.
func ClampFloatingSize(cfg Config, w, h uint32) (uint32, uint32) {
	if cfg.FloatingMinW >= 0 && w < uint32(cfg.FloatingMinW) {
		w = uint32(cfg.FloatingMinW)
	}
	if cfg.FloatingMinH >= 0 && h < uint32(cfg.FloatingMinH) {
		h = uint32(cfg.FloatingMinH)
	}
	if cfg.FloatingMaxW >= 0 && w > uint32(cfg.FloatingMaxW) {
		w = uint32(cfg.FloatingMaxW)
	}
	if cfg.FloatingMaxH >= 0 && h > uint32(cfg.FloatingMaxH) {
		h = uint32(cfg.FloatingMaxH)
	}
	return w, h
}

// TranslateFloatingOnOutputMove repositions a floating wrapper's rect so
// that its position relative to the workspace origin is preserved when the
// workspace migrates from one output to another (spec.md §4.3 and the
// literal scenario in §8 #4): x and y are offset by the difference in
// output origins; width and height are unchanged.
func TranslateFloatingOnOutputMove(fw *tree.Container, oldOrigin, newOrigin tree.Rect) {
	dx := newOrigin.X - oldOrigin.X
	dy := newOrigin.Y - oldOrigin.Y
	fw.Rect.X += dx
	fw.Rect.Y += dy
}

// SolveFloating lays a workspace's floating children out independently of
// the tiling tree, clamped to the configured min/max size (spec.md §4.3).
func SolveFloating(cfg Config, ws *tree.Container) {
	for _, fw := range ws.FloatingChildren() {
		w, h := ClampFloatingSize(cfg, fw.Rect.W, fw.Rect.H)
		fw.Rect.W, fw.Rect.H = w, h
		Solve(cfg, fw)
	}
}
