package geometry

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/citydesk/planex/model"
)

// roomSpatial adapts a room to the rtreego.Spatial interface.
type roomSpatial struct {
	room *model.Room
}

func (r *roomSpatial) Bounds() rtreego.Rect {
	b := r.room.Polygon.Bound()
	w := math.Max(b.Max[0]-b.Min[0], 1e-9)
	h := math.Max(b.Max[1]-b.Min[1], 1e-9)
	rect, _ := rtreego.NewRect(rtreego.Point{b.Min[0], b.Min[1]}, []float64{w, h})
	return rect
}

// RoomIndex is an R-tree over room footprints for point and box
// queries.
type RoomIndex struct {
	tree  *rtreego.Rtree
	rooms []model.Room
}

// NewRoomIndex indexes the given rooms. The slice is retained.
func NewRoomIndex(rooms []model.Room) *RoomIndex {
	idx := &RoomIndex{
		tree:  rtreego.NewTree(2, 4, 16),
		rooms: rooms,
	}
	for i := range rooms {
		idx.tree.Insert(&roomSpatial{room: &idx.rooms[i]})
	}
	return idx
}

// RoomsContainingPoint returns the rooms whose polygon contains the
// point. Candidates come from the R-tree; membership is decided by an
// exact point-in-polygon test.
func (idx *RoomIndex) RoomsContainingPoint(p model.Point) []*model.Room {
	rect, _ := rtreego.NewRect(rtreego.Point{p.X, p.Y}, []float64{1e-9, 1e-9})
	var out []*model.Room
	for _, hit := range idx.tree.SearchIntersect(rect) {
		room := hit.(*roomSpatial).room
		if planar.PolygonContains(room.Polygon, orb.Point{p.X, p.Y}) {
			out = append(out, room)
		}
	}
	return out
}

// AdjacentRooms returns the indices of rooms sharing a wall with room
// i. Two rooms are adjacent when their boundaries run together for
// longer than the tolerance; touching at a single corner does not
// count.
func (a *Analyzer) AdjacentRooms(rooms []model.Room, i int) []int {
	if i < 0 || i >= len(rooms) {
		return nil
	}
	var out []int
	for j := range rooms {
		if j == i {
			continue
		}
		if SharedBoundaryLength(rooms[i].Polygon, rooms[j].Polygon, a.tolerance) > a.tolerance {
			out = append(out, j)
		}
	}
	return out
}

// SharedBoundaryLength measures how far the outer rings of two
// polygons run together, within tol of each other.
func SharedBoundaryLength(p1, p2 orb.Polygon, tol float64) float64 {
	if len(p1) == 0 || len(p2) == 0 {
		return 0
	}
	var total float64
	for _, s1 := range ringSegments(p1[0]) {
		for _, s2 := range ringSegments(p2[0]) {
			total += overlapLength(s1, s2, tol)
		}
	}
	return total
}

func ringSegments(r orb.Ring) []Segment {
	var segs []Segment
	for i := 1; i < len(r); i++ {
		segs = append(segs, Segment{
			Start: model.Point{X: r[i-1][0], Y: r[i-1][1]},
			End:   model.Point{X: r[i][0], Y: r[i][1]},
		})
	}
	return segs
}

// overlapLength returns the length of the collinear overlap of two
// segments that lie within tol of a common carrier line.
func overlapLength(s1, s2 Segment, tol float64) float64 {
	u1x, u1y := unit(s1.Start, s1.End)
	u2x, u2y := unit(s2.Start, s2.End)
	if math.Abs(u1x*u2y-u1y*u2x) > 0.01 {
		return 0
	}
	// both ends of s2 must sit on s1's carrier line
	if distToLine(s1, s2.Start) > tol || distToLine(s1, s2.End) > tol {
		return 0
	}
	// overlap of the projections on s1's direction
	proj := func(p model.Point) float64 {
		return (p.X-s1.Start.X)*u1x + (p.Y-s1.Start.Y)*u1y
	}
	a0, a1 := 0.0, s1.Length()
	b0, b1 := proj(s2.Start), proj(s2.End)
	if b0 > b1 {
		b0, b1 = b1, b0
	}
	lo, hi := math.Max(a0, b0), math.Min(a1, b1)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func distToLine(s Segment, p model.Point) float64 {
	dx, dy := s.End.X-s.Start.X, s.End.Y-s.Start.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return p.Distance(s.Start)
	}
	return math.Abs((p.X-s.Start.X)*dy-(p.Y-s.Start.Y)*dx) / l
}

// MergeTouchingPolygons unions groups of polygons that share boundary
// into single outlines. Edges traced by two group members cancel;
// what remains is renoded and the enclosing face of each group is
// kept. Polygons touching nothing pass through unchanged.
func (a *Analyzer) MergeTouchingPolygons(polys []orb.Polygon) []orb.Polygon {
	if len(polys) < 2 {
		return polys
	}
	// group by shared boundary
	parent := make([]int, len(polys))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for i := 0; i < len(polys); i++ {
		for j := i + 1; j < len(polys); j++ {
			if SharedBoundaryLength(polys[i], polys[j], a.tolerance) > a.tolerance {
				parent[find(i)] = find(j)
			}
		}
	}
	groups := make(map[int][]int)
	for i := range polys {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	var out []orb.Polygon
	for _, members := range groups {
		if len(members) == 1 {
			out = append(out, polys[members[0]])
			continue
		}
		merged := a.mergeGroup(polys, members)
		if merged != nil {
			out = append(out, merged)
		} else {
			for _, m := range members {
				out = append(out, polys[m])
			}
		}
	}
	return out
}

func (a *Analyzer) mergeGroup(polys []orb.Polygon, members []int) orb.Polygon {
	var segs []Segment
	for _, mi := range members {
		if len(polys[mi]) == 0 {
			continue
		}
		segs = append(segs, ringSegments(polys[mi][0])...)
	}
	// node first so a partially shared edge splits into its shared and
	// free pieces, then drop every piece traced by two boundaries
	noded := nodeSegments(dropDegenerate(segs, a.tolerance), a.tolerance)
	var keep []Segment
	for _, seg := range noded {
		boundaries := 0
		for _, mi := range members {
			if len(polys[mi]) == 0 {
				continue
			}
			var covered float64
			for _, other := range ringSegments(polys[mi][0]) {
				covered += overlapLength(seg, other, a.tolerance)
			}
			if covered >= seg.Length()-a.tolerance {
				boundaries++
			}
		}
		if boundaries < 2 {
			keep = append(keep, seg)
		}
	}
	rings := polygonize(keep, a.tolerance)
	if len(rings) == 0 {
		a.log.Warn("polygon merge failed, keeping parts", "members", len(members))
		return nil
	}
	best := rings[0]
	for _, r := range rings[1:] {
		if ringArea(r) > ringArea(best) {
			best = r
		}
	}
	return orb.Polygon{best}
}

// SimplifyPolygon reduces vertex count with Douglas-Peucker at the
// given threshold in drawing units. Rings that would collapse are
// returned unchanged.
func SimplifyPolygon(p orb.Polygon, threshold float64) orb.Polygon {
	if len(p) == 0 {
		return p
	}
	simplified := simplify.DouglasPeucker(threshold).Polygon(p.Clone())
	if len(simplified) == 0 || len(simplified[0]) < 4 {
		return p
	}
	return simplified
}
