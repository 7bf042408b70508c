package extractor

import (
	"math"

	"github.com/citydesk/planex/model"
	"github.com/citydesk/planex/pdf"
)

// ExtractVectors interprets the content streams of page i and returns
// every painted path as normalized vector elements. Clipping-only
// paths (n) are discarded.
func (d *Document) ExtractVectors(i int) ([]model.VectorElement, error) {
	ops, _, err := d.contents(i)
	if err != nil {
		return nil, err
	}
	vb := newVectorBuilder()
	for _, op := range ops {
		vb.apply(op)
	}
	return vb.out, nil
}

// graphicsState is the subset of the PDF graphics state that vector
// normalization needs.
type graphicsState struct {
	ctm       model.Matrix
	lineWidth float64
	stroke    model.RGB
	fill      model.RGB
}

type subpath struct {
	points   []model.Point
	closed   bool
	hasCurve bool
}

type vectorBuilder struct {
	gs    graphicsState
	stack []graphicsState

	paths   []subpath
	current *subpath
	startPt model.Point
	curPt   model.Point

	out []model.VectorElement
}

func newVectorBuilder() *vectorBuilder {
	return &vectorBuilder{
		gs: graphicsState{
			ctm:       model.Identity(),
			lineWidth: 1.0,
			stroke:    model.Black,
			fill:      model.Black,
		},
	}
}

func (vb *vectorBuilder) apply(op pdf.Op) {
	switch op.Operator {
	case "q":
		vb.stack = append(vb.stack, vb.gs)
	case "Q":
		if n := len(vb.stack); n > 0 {
			vb.gs = vb.stack[n-1]
			vb.stack = vb.stack[:n-1]
		}
	case "cm":
		if m, ok := opMatrix(op); ok {
			vb.gs.ctm = m.Multiply(vb.gs.ctm)
		}
	case "w":
		if w, ok := op.Float(0); ok {
			vb.gs.lineWidth = w
		}
	case "RG":
		if c, ok := opRGB(op); ok {
			vb.gs.stroke = c
		}
	case "rg":
		if c, ok := opRGB(op); ok {
			vb.gs.fill = c
		}
	case "G":
		if g, ok := op.Float(0); ok {
			vb.gs.stroke = model.GrayRGB(g)
		}
	case "g":
		if g, ok := op.Float(0); ok {
			vb.gs.fill = model.GrayRGB(g)
		}
	case "K":
		if c, ok := opCMYK(op); ok {
			vb.gs.stroke = c
		}
	case "k":
		if c, ok := opCMYK(op); ok {
			vb.gs.fill = c
		}

	case "m":
		if p, ok := vb.opPoint(op, 0); ok {
			vb.moveTo(p)
		}
	case "l":
		if p, ok := vb.opPoint(op, 0); ok {
			vb.lineTo(p)
		}
	case "c":
		vb.curveTo(op, 0, 2, 4)
	case "v":
		// first control point coincides with the current point
		if p1, ok := vb.opPoint(op, 0); ok {
			if p2, ok := vb.opPoint(op, 2); ok {
				vb.flattenCurve(vb.curPt, p1, p2)
			}
		}
	case "y":
		if p1, ok := vb.opPoint(op, 0); ok {
			if p2, ok := vb.opPoint(op, 2); ok {
				vb.flattenCurve(p1, p2, p2)
			}
		}
	case "h":
		vb.closePath()
	case "re":
		vb.rect(op)

	case "S":
		vb.flush(true, false)
	case "s":
		vb.closePath()
		vb.flush(true, false)
	case "f", "F", "f*":
		vb.flush(false, true)
	case "B", "B*":
		vb.flush(true, true)
	case "b", "b*":
		vb.closePath()
		vb.flush(true, true)
	case "n":
		vb.discard()
	}
}

func (vb *vectorBuilder) moveTo(p model.Point) {
	vb.endSubpath()
	vb.startPt = p
	vb.curPt = p
	vb.current = &subpath{points: []model.Point{vb.transform(p)}}
}

func (vb *vectorBuilder) lineTo(p model.Point) {
	if vb.current == nil {
		vb.moveTo(p)
		return
	}
	vb.current.points = append(vb.current.points, vb.transform(p))
	vb.curPt = p
}

func (vb *vectorBuilder) curveTo(op pdf.Op, i1, i2, i3 int) {
	p1, ok1 := vb.opPoint(op, i1)
	p2, ok2 := vb.opPoint(op, i2)
	p3, ok3 := vb.opPoint(op, i3)
	if ok1 && ok2 && ok3 {
		vb.flattenCurve(p1, p2, p3)
	}
}

// flattenCurve approximates a cubic segment from the current point
// with a fixed-step polyline. Drawings use curves for door swings and
// fixtures, where 12 steps is well under typical wall thickness.
func (vb *vectorBuilder) flattenCurve(c1, c2, end model.Point) {
	if vb.current == nil {
		vb.moveTo(end)
		return
	}
	p0 := vb.curPt
	const steps = 12
	for i := 1; i <= steps; i++ {
		t := float64(i) / steps
		mt := 1 - t
		x := mt*mt*mt*p0.X + 3*mt*mt*t*c1.X + 3*mt*t*t*c2.X + t*t*t*end.X
		y := mt*mt*mt*p0.Y + 3*mt*mt*t*c1.Y + 3*mt*t*t*c2.Y + t*t*t*end.Y
		vb.current.points = append(vb.current.points, vb.transform(model.Point{X: x, Y: y}))
	}
	vb.current.hasCurve = true
	vb.curPt = end
}

func (vb *vectorBuilder) closePath() {
	if vb.current != nil {
		vb.current.closed = true
		vb.curPt = vb.startPt
	}
}

func (vb *vectorBuilder) rect(op pdf.Op) {
	x, ok1 := op.Float(0)
	y, ok2 := op.Float(1)
	w, ok3 := op.Float(2)
	h, ok4 := op.Float(3)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return
	}
	vb.endSubpath()
	vb.paths = append(vb.paths, subpath{
		points: []model.Point{
			vb.transform(model.Point{X: x, Y: y}),
			vb.transform(model.Point{X: x + w, Y: y}),
			vb.transform(model.Point{X: x + w, Y: y + h}),
			vb.transform(model.Point{X: x, Y: y + h}),
		},
		closed: true,
	})
	vb.startPt = model.Point{X: x, Y: y}
	vb.curPt = vb.startPt
}

func (vb *vectorBuilder) endSubpath() {
	if vb.current != nil {
		vb.paths = append(vb.paths, *vb.current)
		vb.current = nil
	}
}

func (vb *vectorBuilder) discard() {
	vb.current = nil
	vb.paths = nil
}

// flush converts the accumulated subpaths into vector elements.
func (vb *vectorBuilder) flush(stroked, filled bool) {
	vb.endSubpath()
	width := vb.gs.lineWidth * ctmScale(vb.gs.ctm)
	var fill *model.RGB
	if filled {
		c := vb.gs.fill
		fill = &c
	}
	for _, sp := range vb.paths {
		pts := dedupeAdjacent(sp.points)
		if len(pts) < 2 {
			continue
		}
		el := model.VectorElement{
			Points:      pts,
			StrokeWidth: width,
			Stroke:      vb.gs.stroke,
			Fill:        fill,
			BBox:        model.BBoxFromPoints(pts),
			Closed:      sp.closed || filled,
		}
		switch {
		case sp.hasCurve:
			el.Type = model.VectorCurve
		case len(pts) == 2:
			el.Type = model.VectorLine
		case isQuad(pts, el.Closed):
			el.Points = pts[:4]
			el.Closed = true
			if isAxisAligned(pts[:4]) {
				el.Type = model.VectorRect
			} else {
				el.Type = model.VectorQuad
			}
		default:
			// general polyline: hand each leg to callers as a line
			for i := 1; i < len(pts); i++ {
				seg := []model.Point{pts[i-1], pts[i]}
				vb.out = append(vb.out, model.VectorElement{
					Type:        model.VectorLine,
					Points:      seg,
					StrokeWidth: width,
					Stroke:      vb.gs.stroke,
					Fill:        fill,
					BBox:        model.BBoxFromPoints(seg),
				})
			}
			if el.Closed && len(pts) > 2 {
				seg := []model.Point{pts[len(pts)-1], pts[0]}
				vb.out = append(vb.out, model.VectorElement{
					Type:        model.VectorLine,
					Points:      seg,
					StrokeWidth: width,
					Stroke:      vb.gs.stroke,
					Fill:        fill,
					BBox:        model.BBoxFromPoints(seg),
				})
			}
			vb.paths = nil
			continue
		}
		vb.out = append(vb.out, el)
	}
	vb.paths = nil
}

func (vb *vectorBuilder) transform(p model.Point) model.Point {
	return vb.gs.ctm.Transform(p)
}

func (vb *vectorBuilder) opPoint(op pdf.Op, i int) (model.Point, bool) {
	x, ok1 := op.Float(i)
	y, ok2 := op.Float(i + 1)
	if !ok1 || !ok2 {
		return model.Point{}, false
	}
	return model.Point{X: x, Y: y}, true
}

// dedupeAdjacent drops consecutive duplicate points, including the
// closing repeat of an explicitly closed path.
func dedupeAdjacent(pts []model.Point) []model.Point {
	const eps = 1e-9
	out := pts[:0:0]
	for _, p := range pts {
		if len(out) > 0 && math.Abs(p.X-out[len(out)-1].X) < eps && math.Abs(p.Y-out[len(out)-1].Y) < eps {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 2 {
		first, last := out[0], out[len(out)-1]
		if math.Abs(first.X-last.X) < eps && math.Abs(first.Y-last.Y) < eps {
			out = out[:len(out)-1]
		}
	}
	return out
}

// isQuad reports whether the points form a closed four-corner figure.
func isQuad(pts []model.Point, closed bool) bool {
	return closed && len(pts) == 4
}

func isAxisAligned(pts []model.Point) bool {
	const eps = 1e-6
	for i := 0; i < 4; i++ {
		a, b := pts[i], pts[(i+1)%4]
		if math.Abs(a.X-b.X) > eps && math.Abs(a.Y-b.Y) > eps {
			return false
		}
	}
	return true
}

// ctmScale approximates the scalar magnification of a matrix as the
// mean length of its transformed basis vectors.
func ctmScale(m model.Matrix) float64 {
	sx := math.Hypot(m[0], m[1])
	sy := math.Hypot(m[2], m[3])
	return (sx + sy) / 2
}

func opMatrix(op pdf.Op) (model.Matrix, bool) {
	var m model.Matrix
	for i := 0; i < 6; i++ {
		v, ok := op.Float(i)
		if !ok {
			return m, false
		}
		m[i] = v
	}
	return m, true
}

func opRGB(op pdf.Op) (model.RGB, bool) {
	var c model.RGB
	for i := 0; i < 3; i++ {
		v, ok := op.Float(i)
		if !ok {
			return c, false
		}
		c[i] = v
	}
	return c, true
}

func opCMYK(op pdf.Op) (model.RGB, bool) {
	vals := make([]float64, 4)
	for i := range vals {
		v, ok := op.Float(i)
		if !ok {
			return model.RGB{}, false
		}
		vals[i] = v
	}
	return model.CMYKToRGB(vals[0], vals[1], vals[2], vals[3]), true
}
