package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/citydesk/planex/model"
)

// DefaultMinRoomWidthM is the habitable-room width floor used by
// CheckRoomDimensions when no explicit minimum is given.
const DefaultMinRoomWidthM = 2.44

// AreaM2 returns the polygon's area in square meters.
func (a *Analyzer) AreaM2(p orb.Polygon) float64 {
	return math.Abs(planar.Area(p)) * a.scale * a.scale
}

// LengthM returns the distance between two drawing points in meters.
func (a *Analyzer) LengthM(p1, p2 model.Point) float64 {
	return p1.Distance(p2) * a.scale
}

// RoomDimensions returns the width and length of the room's minimum
// area bounding rectangle in meters, width <= length. Irregular rooms
// get the dimensions of the tightest rotated box around them, which is
// what a compliance check against "minimum room width" wants.
func (a *Analyzer) RoomDimensions(room model.Room) (width, length float64) {
	if len(room.Polygon) == 0 {
		return 0, 0
	}
	w, l := minAreaBox(room.Polygon[0])
	return w * a.scale, l * a.scale
}

// CheckRoomDimensions reports whether the room's narrow dimension
// meets the given minimum width in meters. minWidth <= 0 selects the
// default. Exactly meeting the minimum passes.
func (a *Analyzer) CheckRoomDimensions(room model.Room, minWidth float64) (ok bool, width float64) {
	if minWidth <= 0 {
		minWidth = DefaultMinRoomWidthM
	}
	width, _ = a.RoomDimensions(room)
	return width >= minWidth, width
}

// BuildingCoverage returns the building footprint area as a fraction
// of the lot area. A zero-area lot yields 0.
func (a *Analyzer) BuildingCoverage(building, lot orb.Polygon) float64 {
	lotArea := math.Abs(planar.Area(lot))
	if lotArea == 0 {
		return 0
	}
	return math.Abs(planar.Area(building)) / lotArea
}

// minAreaBox computes the minimum area bounding rectangle of a ring by
// rotating with each convex hull edge. Returns (short, long) side
// lengths in drawing units.
func minAreaBox(ring orb.Ring) (float64, float64) {
	hull := convexHull(ring)
	if len(hull) < 2 {
		return 0, 0
	}
	if len(hull) == 2 {
		return 0, hull[0].Distance(hull[1])
	}
	bestArea := math.Inf(1)
	var bestW, bestL float64
	for i := 0; i < len(hull); i++ {
		j := (i + 1) % len(hull)
		ux, uy := unit(hull[i], hull[j])
		if ux == 0 && uy == 0 {
			continue
		}
		// project every vertex on the edge direction and its normal
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			du := p.X*ux + p.Y*uy
			dv := -p.X*uy + p.Y*ux
			minU, maxU = math.Min(minU, du), math.Max(maxU, du)
			minV, maxV = math.Min(minV, dv), math.Max(maxV, dv)
		}
		w, l := maxU-minU, maxV-minV
		if w > l {
			w, l = l, w
		}
		if w*l < bestArea {
			bestArea = w * l
			bestW, bestL = w, l
		}
	}
	return bestW, bestL
}

// convexHull is the Andrew monotone chain hull of the ring vertices.
func convexHull(ring orb.Ring) []model.Point {
	pts := make([]model.Point, 0, len(ring))
	for _, p := range ring {
		pts = append(pts, model.Point{X: p[0], Y: p[1]})
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	// drop duplicates
	uniq := pts[:0]
	for _, p := range pts {
		if len(uniq) == 0 || uniq[len(uniq)-1] != p {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		return pts
	}
	cross := func(o, a, b model.Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}
	var lower, upper []model.Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}
