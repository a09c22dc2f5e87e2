package geom_test

import (
	"testing"

	"github.com/axewm/axewm/internal/geom"
	"github.com/axewm/axewm/internal/tree"
)

func TestSolveSplitPartitionsAxis(t *testing.T) {
	s := tree.New()
	split := s.NewContainer(tree.Split)
	split.Orientation = tree.Horizontal
	split.Rect = tree.Rect{X: 0, Y: 0, W: 1000, H: 500}

	a := s.NewContainer(tree.Leaf)
	b := s.NewContainer(tree.Leaf)
	if err := s.Attach(a, split, false); err != nil {
		t.Fatal(err)
	}
	if err := s.Attach(b, split, false); err != nil {
		t.Fatal(err)
	}
	a.Percent, b.Percent = 0.25, 0.75

	geom.Solve(geom.Config{BorderPx: 0}, split)

	if a.Rect.W != 250 {
		t.Errorf("a.Rect.W = %d, want 250", a.Rect.W)
	}
	if b.Rect.W != 750 {
		t.Errorf("b.Rect.W = %d, want 750", b.Rect.W)
	}
	if a.Rect.X != 0 || b.Rect.X != 250 {
		t.Errorf("unexpected X offsets: a=%d b=%d", a.Rect.X, b.Rect.X)
	}
}

func TestClampFloatingSizeMinimum(t *testing.T) {
	cfg := geom.Config{FloatingMinW: 60, FloatingMinH: 40, FloatingMaxW: -1, FloatingMaxH: -1}
	w, h := geom.ClampFloatingSize(cfg, 20, 20)
	if w != 60 || h != 40 {
		t.Errorf("got %dx%d, want 60x40", w, h)
	}
}

func TestClampFloatingSizeMaximum(t *testing.T) {
	cfg := geom.Config{FloatingMinW: -1, FloatingMinH: -1, FloatingMaxW: 100, FloatingMaxH: 100}
	w, h := geom.ClampFloatingSize(cfg, 150, 150)
	if w != 100 || h != 100 {
		t.Errorf("got %dx%d, want 100x100", w, h)
	}
}

func TestClampFloatingSizeUnlimited(t *testing.T) {
	cfg := geom.Config{FloatingMinW: -1, FloatingMinH: -1, FloatingMaxW: -1, FloatingMaxH: -1}
	w, h := geom.ClampFloatingSize(cfg, 2048, 2048)
	if w != 2048 || h != 2048 {
		t.Errorf("got %dx%d, want 2048x2048", w, h)
	}
}

func TestTranslateFloatingOnOutputMove(t *testing.T) {
	s := tree.New()
	fw := s.NewContainer(tree.FloatingWrapper)
	fw.Rect = tree.Rect{X: 100, Y: 100, W: 200, H: 150}

	geom.TranslateFloatingOnOutputMove(fw,
		tree.Rect{X: 0, Y: 0},
		tree.Rect{X: 1024, Y: 0},
	)

	want := tree.Rect{X: 1124, Y: 100, W: 200, H: 150}
	if fw.Rect != want {
		t.Errorf("fw.Rect = %+v, want %+v", fw.Rect, want)
	}
}

func TestResizeAdjacentGrowShrink(t *testing.T) {
	s := tree.New()
	split := s.NewContainer(tree.Split)
	split.Orientation = tree.Vertical
	split.Rect = tree.Rect{W: 1000, H: 1000}

	upper := s.NewContainer(tree.Leaf)
	lower := s.NewContainer(tree.Leaf)
	s.Attach(upper, split, false)
	s.Attach(lower, split, false)
	upper.Percent, lower.Percent = 0.5, 0.5

	// "resize grow up 10 px or 25 ppt" from the lower child: lower grows,
	// upper shrinks, by 0.25 (25 ppt), per spec.md §8 scenario 6.
	geom.ResizeAdjacent(split, lower, upper, geom.ResizeAmount{HasPpt: true, Ppt: 0.25})

	if lower.Percent != 0.75 || upper.Percent != 0.25 {
		t.Errorf("got lower=%.2f upper=%.2f, want 0.75/0.25", lower.Percent, upper.Percent)
	}
}
