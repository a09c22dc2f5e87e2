package geom

import "github.com/axewm/axewm/internal/tree"

// ResizeUnit distinguishes a resize amount given in pixels from one given
// as a percentage-point fraction of the parent's axis extent (spec.md
// §4.3's "px"/"ppt" resize arguments).
type ResizeUnit int

const (
	Pixels ResizeUnit = iota
	PercentPoints
)

// ResizeAmount is a resize command's amount, possibly carrying both a px
// and a ppt figure (spec.md §4.3: "a command supplying both px and ppt
// uses px for tiling children and ppt for floating").
type ResizeAmount struct {
	HasPx  bool
	Px     int32
	HasPpt bool
	Ppt    float64
}

// pxToPpt converts a pixel amount to a percent-point fraction of axisExtent
// (spec.md §4.3: "A px argument is converted to ppt by dividing by the
// parent's axis extent").
func pxToPpt(px int32, axisExtent uint32) float64 {
	if axisExtent == 0 {
		return 0
	}
	return float64(px) / float64(axisExtent)
}

// amountFor resolves a ResizeAmount against the parent's axis extent and
// whether the target is floating, per spec.md §4.3's px/ppt tie-break.
func amountFor(a ResizeAmount, axisExtent uint32, floating bool) float64 {
	if floating && a.HasPpt {
		return a.Ppt
	}
	if !floating && a.HasPx {
		return pxToPpt(a.Px, axisExtent)
	}
	if a.HasPpt {
		return a.Ppt
	}
	return pxToPpt(a.Px, axisExtent)
}

// ResizeAdjacent changes grown's and shrunk's percentages by the same
// absolute amount, preserving the parent's sum-to-one invariant (spec.md
// §4.3: "Resize commands change two adjacent siblings' percentages by the
// same absolute amount").
func ResizeAdjacent(parent, grown, shrunk *tree.Container, amount ResizeAmount) {
	var axisExtent uint32
	if parent.Orientation == tree.Vertical {
		axisExtent = parent.Rect.H
	} else {
		axisExtent = parent.Rect.W
	}

	delta := amountFor(amount, axisExtent, grown.Floating())
	if delta < 0 {
		delta = -delta
	}
	if delta > shrunk.Percent {
		delta = shrunk.Percent
	}

	grown.Percent += delta
	shrunk.Percent -= delta
}
