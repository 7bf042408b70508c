package extractor

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/citydesk/planex/model"
)

// DefaultLabelProximity is the maximum distance, in drawing units,
// between a dimension line and the text that labels it.
const DefaultLabelProximity = 50.0

var (
	ratioScaleRe  = regexp.MustCompile(`(?i)(?:scale\s*)?1\s*:\s*(\d+(?:\.\d+)?)`)
	equivScaleRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*mm\s*=\s*(\d+(?:\.\d+)?)\s*m\b`)
	numericLabelRe = regexp.MustCompile(`^\s*\d[\d.,']*\s*(?:mm|cm|m|M|"|')?\s*$`)
)

// FindScaleNotation scans the page's text for a drawing scale such as
// "1:100", "Scale 1:50" or "10mm = 1m" and returns it as the ratio of
// real-world length to drawn length.
func (d *Document) FindScaleNotation(i int) (float64, bool, error) {
	texts, err := d.ExtractText(i)
	if err != nil {
		return 0, false, err
	}
	for _, t := range texts {
		if ratio, ok := ParseScaleText(t.Text); ok {
			return ratio, true, nil
		}
	}
	return 0, false, nil
}

// ParseScaleText extracts a scale ratio from a single string.
func ParseScaleText(s string) (float64, bool) {
	if m := equivScaleRe.FindStringSubmatch(s); m != nil {
		drawnMM, err1 := strconv.ParseFloat(m[1], 64)
		realM, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil && drawnMM > 0 {
			return realM * 1000 / drawnMM, true
		}
	}
	if m := ratioScaleRe.FindStringSubmatch(s); m != nil {
		ratio, err := strconv.ParseFloat(m[1], 64)
		if err == nil && ratio > 0 {
			return ratio, true
		}
	}
	return 0, false
}

// FindDimensionLines pairs near-horizontal and near-vertical line
// segments with numeric text nearby. The result is a set of hints for
// scale calibration, not authoritative measurements.
func (d *Document) FindDimensionLines(i int) ([]model.DimensionLineCandidate, error) {
	vectors, err := d.ExtractVectors(i)
	if err != nil {
		return nil, err
	}
	texts, err := d.ExtractText(i)
	if err != nil {
		return nil, err
	}
	return PairDimensionLines(vectors, texts, DefaultLabelProximity), nil
}

// PairDimensionLines matches axis-aligned segments to the closest
// numeric label within the proximity threshold.
func PairDimensionLines(vectors []model.VectorElement, texts []model.TextElement, proximity float64) []model.DimensionLineCandidate {
	var labels []model.TextElement
	for _, t := range texts {
		if numericLabelRe.MatchString(strings.TrimSpace(t.Text)) {
			labels = append(labels, t)
		}
	}
	if len(labels) == 0 {
		return nil
	}

	var out []model.DimensionLineCandidate
	for _, v := range vectors {
		if v.Type != model.VectorLine || len(v.Points) != 2 {
			continue
		}
		start, end := v.Points[0], v.Points[1]
		dx, dy := math.Abs(end.X-start.X), math.Abs(end.Y-start.Y)
		horizontal := dx >= dy
		// near-axis only: the short axis must be under a tenth of the
		// long one
		long, short := dx, dy
		if !horizontal {
			long, short = dy, dx
		}
		if long < 1 || short > long*0.1 {
			continue
		}

		best := -1
		bestDist := proximity
		for li, label := range labels {
			dist := pointToSegment(label.BBox.Center(), start, end)
			if dist <= bestDist {
				best = li
				bestDist = dist
			}
		}
		if best < 0 {
			continue
		}
		out = append(out, model.DimensionLineCandidate{
			Start:         start,
			End:           end,
			Label:         labels[best],
			LabelDistance: bestDist,
			Horizontal:    horizontal,
		})
	}
	return out
}

// pointToSegment returns the distance from p to the segment ab.
func pointToSegment(p, a, b model.Point) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Distance(model.Point{X: a.X + t*abx, Y: a.Y + t*aby})
}
