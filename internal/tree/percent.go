package tree

import "math"

// percentEpsilon is the tolerance invariant 4 (spec.md §3) and testable
// property 1 (spec.md §8) are stated against.
const percentEpsilon = 1e-6

// rebalanceOnAttach gives the newly attached child its fair share and
// rescales the existing siblings, per spec.md §4.3's attach tie-break:
// "new child gets 1/(n+1), existing children are multiplied by n/(n+1)".
// siblings must not include newChild.
func rebalanceOnAttach(siblings []*Container, newChild *Container) {
	n := len(siblings)
	if n == 0 {
		newChild.Percent = 1
		return
	}
	newChild.Percent = 1 / float64(n+1)
	scale := float64(n) / float64(n+1)
	for _, s := range siblings {
		s.Percent *= scale
	}
	fixPercent(append(append([]*Container{}, siblings...), newChild))
}

// rebalanceOnDetach redistributes a detached child's share across the
// remaining siblings, per spec.md §4.3: "remaining children are multiplied
// by 1/(1-detached.percent)".
func rebalanceOnDetach(remaining []*Container, detachedPercent float64) {
	if len(remaining) == 0 {
		return
	}
	denom := 1 - detachedPercent
	if denom <= 0 {
		share := 1 / float64(len(remaining))
		for _, s := range remaining {
			s.Percent = share
		}
		return
	}
	scale := 1 / denom
	for _, s := range remaining {
		s.Percent *= scale
	}
	fixPercent(remaining)
}

// fixPercent rounds the aggregate floating point error into the last
// child so siblings sum to exactly 1 within percentEpsilon (spec.md §4.3
// "a fix_percent pass rounds aggregate error ε into the last child").
func fixPercent(siblings []*Container) {
	if len(siblings) == 0 {
		return
	}
	sum := 0.0
	for _, s := range siblings {
		sum += s.Percent
	}
	err := 1 - sum
	if math.Abs(err) < percentEpsilon {
		return
	}
	siblings[len(siblings)-1].Percent += err
}

// PercentSumOK reports whether the tiling children of c sum to 1 within
// percentEpsilon (spec.md §8 invariant 1); used by tests and the settle
// step's self-check.
func PercentSumOK(c *Container) bool {
	sum := 0.0
	ringForEach(c.ChildrenHead, ringChildren, func(child *Container) {
		if !child.Floating() {
			sum += child.Percent
		}
	})
	n := c.NumChildren()
	if n == 0 {
		return true
	}
	return math.Abs(sum-1) < percentEpsilon
}
