package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/citydesk/planex/model"
)

// Segment is a straight piece of line work in drawing units.
type Segment struct {
	Start, End model.Point
}

// Length returns the segment length in drawing units.
func (s Segment) Length() float64 {
	return s.Start.Distance(s.End)
}

// polygonize extracts the minimal enclosed faces of the line network.
// The pipeline: drop degenerate pieces, merge collinear chains, split
// segments at crossings and T-junctions, snap endpoints, prune
// dangling stubs, then walk the planar faces. Returned rings are
// counterclockwise and closed.
func polygonize(segs []Segment, tol float64) []orb.Ring {
	segs = dropDegenerate(segs, tol)
	if len(segs) < 3 {
		return nil
	}
	segs = mergeCollinear(segs, tol)
	segs = nodeSegments(segs, tol)
	g := buildGraph(segs, tol)
	g.pruneDangles()
	return g.faces()
}

func dropDegenerate(segs []Segment, tol float64) []Segment {
	out := segs[:0:0]
	for _, s := range segs {
		if s.Length() >= tol {
			out = append(out, s)
		}
	}
	return out
}

// mergeCollinear joins segment pairs that meet end-to-end on the same
// carrier line with no third segment at the joint. CAD exports often
// split a single wall into many collinear strokes.
func mergeCollinear(segs []Segment, tol float64) []Segment {
	for {
		merged := false
		ends := make(map[[2]int64][]int)
		for i, s := range segs {
			ends[quantize(s.Start, tol)] = append(ends[quantize(s.Start, tol)], i)
			ends[quantize(s.End, tol)] = append(ends[quantize(s.End, tol)], i)
		}
		used := make([]bool, len(segs))
		var next []Segment
		for _, idxs := range ends {
			if len(idxs) != 2 {
				continue
			}
			i, j := idxs[0], idxs[1]
			if i == j || used[i] || used[j] {
				continue
			}
			a, b := segs[i], segs[j]
			joined, ok := joinCollinear(a, b, tol)
			if !ok {
				continue
			}
			used[i], used[j] = true, true
			next = append(next, joined)
			merged = true
		}
		if !merged {
			return segs
		}
		for i, s := range segs {
			if !used[i] {
				next = append(next, s)
			}
		}
		segs = next
	}
}

func joinCollinear(a, b Segment, tol float64) (Segment, bool) {
	// orient both away from the shared endpoint
	var shared, farA, farB model.Point
	switch {
	case a.Start.Distance(b.Start) < tol:
		shared, farA, farB = a.Start, a.End, b.End
	case a.Start.Distance(b.End) < tol:
		shared, farA, farB = a.Start, a.End, b.Start
	case a.End.Distance(b.Start) < tol:
		shared, farA, farB = a.End, a.Start, b.End
	case a.End.Distance(b.End) < tol:
		shared, farA, farB = a.End, a.Start, b.Start
	default:
		return Segment{}, false
	}
	ux, uy := unit(shared, farA)
	vx, vy := unit(shared, farB)
	cross := ux*vy - uy*vx
	dot := ux*vx + uy*vy
	// the two legs must run in opposite directions on one carrier line
	if math.Abs(cross) > 1e-6 || dot > -0.999 {
		return Segment{}, false
	}
	return Segment{Start: farA, End: farB}, true
}

func unit(from, to model.Point) (float64, float64) {
	dx, dy := to.X-from.X, to.Y-from.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return 0, 0
	}
	return dx / l, dy / l
}

// nodeSegments splits every segment at its crossings with other
// segments and at T-junctions where a foreign endpoint touches its
// interior.
func nodeSegments(segs []Segment, tol float64) []Segment {
	cuts := make([][]float64, len(segs))
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			t, u, ok := intersect(segs[i], segs[j])
			if ok {
				cuts[i] = append(cuts[i], t)
				cuts[j] = append(cuts[j], u)
			}
		}
		// foreign endpoints resting on this segment's interior
		for j, other := range segs {
			if i == j {
				continue
			}
			for _, p := range []model.Point{other.Start, other.End} {
				if t, on := projectOn(segs[i], p, tol); on {
					cuts[i] = append(cuts[i], t)
				}
			}
		}
	}

	var out []Segment
	for i, s := range segs {
		ts := cuts[i]
		ts = append(ts, 0, 1)
		sort.Float64s(ts)
		minStep := tol / math.Max(s.Length(), tol)
		prev := 0.0
		prevPt := s.Start
		for _, t := range ts {
			if t-prev < minStep {
				continue
			}
			pt := lerp(s, t)
			out = append(out, Segment{Start: prevPt, End: pt})
			prev, prevPt = t, pt
		}
		if 1-prev >= minStep/2 && prevPt.Distance(s.End) >= tol/2 {
			out = append(out, Segment{Start: prevPt, End: s.End})
		}
	}
	return out
}

func lerp(s Segment, t float64) model.Point {
	return model.Point{
		X: s.Start.X + t*(s.End.X-s.Start.X),
		Y: s.Start.Y + t*(s.End.Y-s.Start.Y),
	}
}

// intersect returns the parameters of a proper crossing between a and
// b, exclusive of shared endpoints.
func intersect(a, b Segment) (float64, float64, bool) {
	r := model.Point{X: a.End.X - a.Start.X, Y: a.End.Y - a.Start.Y}
	s := model.Point{X: b.End.X - b.Start.X, Y: b.End.Y - b.Start.Y}
	denom := r.X*s.Y - r.Y*s.X
	if math.Abs(denom) < 1e-12 {
		return 0, 0, false
	}
	qp := model.Point{X: b.Start.X - a.Start.X, Y: b.Start.Y - a.Start.Y}
	t := (qp.X*s.Y - qp.Y*s.X) / denom
	u := (qp.X*r.Y - qp.Y*r.X) / denom
	const eps = 1e-9
	if t < eps || t > 1-eps || u < eps || u > 1-eps {
		return 0, 0, false
	}
	return t, u, true
}

// projectOn returns the parameter of p's projection along s when p
// lies on the segment interior within tol.
func projectOn(s Segment, p model.Point, tol float64) (float64, bool) {
	dx, dy := s.End.X-s.Start.X, s.End.Y-s.Start.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 0, false
	}
	t := ((p.X-s.Start.X)*dx + (p.Y-s.Start.Y)*dy) / lenSq
	if t <= 0 || t >= 1 {
		return 0, false
	}
	if p.Distance(lerp(s, t)) > tol {
		return 0, false
	}
	// exclude projections indistinguishable from the endpoints
	if lerp(s, t).Distance(s.Start) < tol || lerp(s, t).Distance(s.End) < tol {
		return 0, false
	}
	return t, true
}

func quantize(p model.Point, tol float64) [2]int64 {
	return [2]int64{int64(math.Round(p.X / tol)), int64(math.Round(p.Y / tol))}
}

// graph is the noded planar graph: snapped vertices and undirected
// edges between them.
type graph struct {
	verts []model.Point
	adj   [][]int // per-vertex neighbor vertex indices
	tol   float64
}

func buildGraph(segs []Segment, tol float64) *graph {
	g := &graph{tol: tol}
	index := make(map[[2]int64]int)
	find := func(p model.Point) int {
		// check the 3x3 neighborhood so points straddling a grid cell
		// boundary still snap together
		base := quantize(p, tol)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				if vi, ok := index[[2]int64{base[0] + dx, base[1] + dy}]; ok {
					if g.verts[vi].Distance(p) <= tol {
						return vi
					}
				}
			}
		}
		g.verts = append(g.verts, p)
		g.adj = append(g.adj, nil)
		index[base] = len(g.verts) - 1
		return len(g.verts) - 1
	}

	type edgeKey struct{ a, b int }
	seen := make(map[edgeKey]bool)
	for _, s := range segs {
		u, v := find(s.Start), find(s.End)
		if u == v {
			continue
		}
		k := edgeKey{u, v}
		if u > v {
			k = edgeKey{v, u}
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		g.adj[u] = append(g.adj[u], v)
		g.adj[v] = append(g.adj[v], u)
	}
	return g
}

// pruneDangles removes edges ending at degree-1 vertices until none
// remain. Dimension lines, leaders and axis marks all die here.
func (g *graph) pruneDangles() {
	for {
		removed := false
		for v := range g.adj {
			if len(g.adj[v]) != 1 {
				continue
			}
			w := g.adj[v][0]
			g.adj[v] = nil
			g.adj[w] = deleteNeighbor(g.adj[w], v)
			removed = true
		}
		if !removed {
			return
		}
	}
}

func deleteNeighbor(list []int, v int) []int {
	out := list[:0]
	for _, n := range list {
		if n != v {
			out = append(out, n)
		}
	}
	return out
}

// faces walks the planar faces of the graph. At each vertex the
// outgoing half-edges are ordered by angle; a walk continues with the
// clockwise neighbor of the reversed incoming edge, which traces every
// bounded face counterclockwise. The single clockwise face is the
// unbounded outside and is discarded.
func (g *graph) faces() []orb.Ring {
	type halfEdge struct{ from, to int }
	var edges []halfEdge
	outgoing := make([][]int, len(g.verts)) // half-edge indices per vertex
	for u, ns := range g.adj {
		for _, v := range ns {
			edges = append(edges, halfEdge{u, v})
			outgoing[u] = append(outgoing[u], len(edges)-1)
		}
	}
	angle := func(e halfEdge) float64 {
		return math.Atan2(g.verts[e.to].Y-g.verts[e.from].Y, g.verts[e.to].X-g.verts[e.from].X)
	}
	for v := range outgoing {
		sort.Slice(outgoing[v], func(i, j int) bool {
			return angle(edges[outgoing[v][i]]) < angle(edges[outgoing[v][j]])
		})
	}
	// successor lookup: for half-edge u->v, find v->u among v's
	// outgoing edges and step one position clockwise
	succ := func(ei int) int {
		e := edges[ei]
		list := outgoing[e.to]
		for i, cand := range list {
			if edges[cand].to == e.from {
				return list[(i-1+len(list))%len(list)]
			}
		}
		return -1
	}

	used := make([]bool, len(edges))
	var rings []orb.Ring
	for start := range edges {
		if used[start] {
			continue
		}
		var walk []int
		ei := start
		for !used[ei] {
			used[ei] = true
			walk = append(walk, ei)
			ei = succ(ei)
			if ei < 0 {
				walk = nil
				break
			}
		}
		if len(walk) < 3 || ei != start {
			continue
		}
		ring := make(orb.Ring, 0, len(walk)+1)
		for _, e := range walk {
			p := g.verts[edges[e].from]
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		ring = append(ring, ring[0])
		if ringArea(ring) > 0 {
			rings = append(rings, ring)
		}
	}
	return rings
}

// ringArea is the signed area of a closed ring, positive when wound
// counterclockwise.
func ringArea(r orb.Ring) float64 {
	var sum float64
	for i := 1; i < len(r); i++ {
		sum += r[i-1][0]*r[i][1] - r[i][0]*r[i-1][1]
	}
	return sum / 2
}

// RepairPolygon renodes a possibly self-touching or slightly open
// outer ring and returns the largest enclosed face. A polygon that
// cannot be repaired comes back nil.
func RepairPolygon(p orb.Polygon, tol float64) orb.Polygon {
	if len(p) == 0 || len(p[0]) < 3 {
		return nil
	}
	var segs []Segment
	ring := p[0]
	for i := 1; i < len(ring); i++ {
		segs = append(segs, Segment{
			Start: model.Point{X: ring[i-1][0], Y: ring[i-1][1]},
			End:   model.Point{X: ring[i][0], Y: ring[i][1]},
		})
	}
	// close an open ring explicitly so snapping can seal small gaps
	first, last := ring[0], ring[len(ring)-1]
	if first != last {
		segs = append(segs, Segment{
			Start: model.Point{X: last[0], Y: last[1]},
			End:   model.Point{X: first[0], Y: first[1]},
		})
	}
	rings := polygonize(segs, tol)
	if len(rings) == 0 {
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
