package geometry

import (
	"math"

	"github.com/citydesk/planex/model"
)

// wallParallelDot is how closely two line directions must align before
// they can be the two faces of one wall.
const wallParallelDot = 0.95

// ExtractWallSegments reconstructs wall centerlines from page vectors.
// Architectural drawings draw each wall as two parallel lines; pairs
// of near-parallel lines closer than maxThickness (drawing units)
// with overlapping extents collapse into one centerline carrying the
// measured thickness. Lines left unpaired become zero-thickness
// segments so downstream room detection still sees them.
func (a *Analyzer) ExtractWallSegments(vectors []model.VectorElement, maxThickness float64) []model.WallSegment {
	var lines []Segment
	for _, v := range vectors {
		if v.Type != model.VectorLine || len(v.Points) != 2 {
			continue
		}
		lines = append(lines, Segment{Start: v.Points[0], End: v.Points[1]})
	}

	paired := make([]bool, len(lines))
	var walls []model.WallSegment
	for i := 0; i < len(lines); i++ {
		if paired[i] {
			continue
		}
		best := -1
		bestGap := maxThickness
		for j := i + 1; j < len(lines); j++ {
			if paired[j] {
				continue
			}
			gap, ok := wallPairGap(lines[i], lines[j], maxThickness)
			if ok && gap <= bestGap {
				best = j
				bestGap = gap
			}
		}
		if best < 0 {
			continue
		}
		paired[i], paired[best] = true, true
		walls = append(walls, centerline(lines[i], lines[best], bestGap))
	}
	for i, line := range lines {
		if !paired[i] {
			walls = append(walls, model.WallSegment{Start: line.Start, End: line.End})
		}
	}
	markExterior(walls, a.tolerance)
	return walls
}

// wallPairGap reports the separation of two lines when they can form a
// wall pair: near-parallel, separated by at most maxThickness, with
// overlapping extents.
func wallPairGap(s1, s2 Segment, maxThickness float64) (float64, bool) {
	u1x, u1y := unit(s1.Start, s1.End)
	u2x, u2y := unit(s2.Start, s2.End)
	if math.Abs(u1x*u2x+u1y*u2y) < wallParallelDot {
		return 0, false
	}
	gap := (distToLine(s1, s2.Start) + distToLine(s1, s2.End)) / 2
	if gap > maxThickness || gap <= 0 {
		return 0, false
	}
	// extents must overlap along the common direction
	proj := func(p model.Point) float64 {
		return (p.X-s1.Start.X)*u1x + (p.Y-s1.Start.Y)*u1y
	}
	b0, b1 := proj(s2.Start), proj(s2.End)
	if b0 > b1 {
		b0, b1 = b1, b0
	}
	if math.Min(s1.Length(), b1)-math.Max(0, b0) <= 0 {
		return 0, false
	}
	return gap, true
}

// centerline merges a wall face pair into one segment on the shared
// midline, spanning the union of both extents.
func centerline(s1, s2 Segment, thickness float64) model.WallSegment {
	ux, uy := unit(s1.Start, s1.End)
	// perpendicular offset from s1 toward s2
	mid2 := model.Point{X: (s2.Start.X + s2.End.X) / 2, Y: (s2.Start.Y + s2.End.Y) / 2}
	side := (mid2.X-s1.Start.X)*(-uy) + (mid2.Y-s1.Start.Y)*ux
	off := thickness / 2
	if side < 0 {
		off = -off
	}
	proj := func(p model.Point) float64 {
		return (p.X-s1.Start.X)*ux + (p.Y-s1.Start.Y)*uy
	}
	ts := []float64{0, s1.Length(), proj(s2.Start), proj(s2.End)}
	lo, hi := ts[0], ts[0]
	for _, t := range ts[1:] {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	at := func(t float64) model.Point {
		return model.Point{
			X: s1.Start.X + t*ux - uy*off,
			Y: s1.Start.Y + t*uy + ux*off,
		}
	}
	return model.WallSegment{Start: at(lo), End: at(hi), Thickness: thickness}
}

// markExterior flags walls lying on the overall footprint boundary.
func markExterior(walls []model.WallSegment, tol float64) {
	if len(walls) == 0 {
		return
	}
	var pts []model.Point
	for _, w := range walls {
		pts = append(pts, w.Start, w.End)
	}
	bb := model.BBoxFromPoints(pts)
	onEdge := func(p model.Point) bool {
		return math.Abs(p.X-bb.X0) <= tol || math.Abs(p.X-bb.X1) <= tol ||
			math.Abs(p.Y-bb.Y0) <= tol || math.Abs(p.Y-bb.Y1) <= tol
	}
	for i := range walls {
		walls[i].Exterior = onEdge(walls[i].Start) && onEdge(walls[i].End)
	}
}
