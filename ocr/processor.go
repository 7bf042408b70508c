package ocr

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"sort"

	"github.com/citydesk/planex/model"
)

// Result is a recognized string with its classification, positioned in
// the coordinates of the source image regardless of which rotation
// candidate produced it.
type Result struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
	Type       TextType
	// Rotation is the clockwise rotation, in degrees, that was applied
	// to the image before this text became readable.
	Rotation int
}

// Center returns the box midpoint.
func (r Result) Center() model.Point {
	return model.Point{
		X: float64(r.Box.Min.X+r.Box.Max.X) / 2,
		Y: float64(r.Box.Min.Y+r.Box.Max.Y) / 2,
	}
}

// DimensionText pairs a recognized string with its parsed measurement.
type DimensionText struct {
	Result
	Dimension Dimension
}

// dimensionWhitelist covers digits, separators and unit suffixes used
// on dimension annotations.
const dimensionWhitelist = `0123456789.,'-"xXmMcCfFtTiIn `

// Processor runs OCR over rasterized drawing pages. Drawings carry
// text at several orientations, so every image is recognized at the
// four cardinal rotations and results are mapped back before being
// filtered and classified.
type Processor struct {
	engine Engine
	log    *slog.Logger
}

// NewProcessor wraps an engine. A nil logger falls back to the
// default.
func NewProcessor(engine Engine, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{engine: engine, log: log}
}

// Available reports whether the underlying engine can recognize.
func (p *Processor) Available() bool {
	return p.engine != nil && p.engine.Available()
}

// ExtractText recognizes all text on img at the four cardinal
// rotations, keeps words at or above minConf, classifies them and
// removes duplicates where rotated passes re-read the same region.
// When the engine is unavailable the result is empty rather than an
// error so vector-only pipelines keep working.
func (p *Processor) ExtractText(img image.Image, minConf float64, opts RecognizeOptions) ([]Result, error) {
	if !p.Available() {
		p.log.Warn("ocr engine unavailable, skipping text extraction")
		return nil, nil
	}

	prepared := Preprocess(img)
	w := prepared.Bounds().Dx()
	h := prepared.Bounds().Dy()

	var all []Result
	rotated := prepared
	for _, deg := range []int{0, 90, 180, 270} {
		if deg != 0 {
			rotated = rotateCW(rotated)
		}
		words, err := p.engine.Recognize(rotated, opts)
		if err != nil {
			if deg == 0 {
				return nil, fmt.Errorf("recognize: %w", err)
			}
			p.log.Debug("rotated recognition pass failed",
				"rotation", deg, "error", err)
			continue
		}
		for _, word := range words {
			if word.Confidence < minConf {
				continue
			}
			all = append(all, Result{
				Text:       word.Text,
				Box:        mapBoxBack(word.Box, deg, w, h),
				Confidence: word.Confidence,
				Type:       ClassifyText(word.Text),
				Rotation:   deg,
			})
		}
	}

	return dedupeOverlaps(all), nil
}

// ExtractDimensions finds measurement annotations. The image is
// re-recognized with a character whitelist tuned for dimensions, which
// sharpens digit accuracy; annotations that parse as measurements are
// returned with their millimeter values.
func (p *Processor) ExtractDimensions(img image.Image, minConf float64) ([]DimensionText, error) {
	results, err := p.ExtractText(img, minConf, RecognizeOptions{
		Whitelist:  dimensionWhitelist,
		SparseText: true,
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		// Whitelisted passes occasionally reject everything on noisy
		// scans; fall back to an unrestricted pass.
		results, err = p.ExtractText(img, minConf, RecognizeOptions{SparseText: true})
		if err != nil {
			return nil, err
		}
	}

	var dims []DimensionText
	for _, r := range results {
		d, ok := ParseDimension(r.Text)
		if !ok {
			continue
		}
		r.Type = TextDimension
		dims = append(dims, DimensionText{Result: r, Dimension: d})
	}
	return dims, nil
}

// ExtractRoomLabels recognizes text and keeps room names.
func (p *Processor) ExtractRoomLabels(img image.Image, minConf float64) ([]Result, error) {
	results, err := p.ExtractText(img, minConf, RecognizeOptions{SparseText: true})
	if err != nil {
		return nil, err
	}
	var labels []Result
	for _, r := range results {
		if r.Type == TextRoomLabel {
			labels = append(labels, r)
		}
	}
	return labels, nil
}

// FindScaleNotation looks for a drawing scale such as "1:100" and
// returns the real-world distance per drawn unit.
func (p *Processor) FindScaleNotation(img image.Image, minConf float64) (float64, bool, error) {
	results, err := p.ExtractText(img, minConf, RecognizeOptions{SparseText: true})
	if err != nil {
		return 0, false, err
	}
	for _, r := range results {
		if r.Type != TextScale {
			continue
		}
		if s, ok := ParseScale(r.Text); ok {
			return s, true, nil
		}
	}
	return 0, false, nil
}

// TextNearPoint returns the results whose box center lies within
// radius of pt, nearest first.
func TextNearPoint(results []Result, pt model.Point, radius float64) []Result {
	type scored struct {
		r Result
		d float64
	}
	var near []scored
	for _, r := range results {
		c := r.Center()
		d := math.Hypot(c.X-pt.X, c.Y-pt.Y)
		if d <= radius {
			near = append(near, scored{r, d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].d < near[j].d })
	out := make([]Result, len(near))
	for i, s := range near {
		out[i] = s.r
	}
	return out
}

// dedupeOverlaps drops results that substantially overlap a higher
// confidence result, which happens when rotated passes re-read the
// same region.
func dedupeOverlaps(results []Result) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	var kept []Result
	for _, r := range results {
		dup := false
		for _, k := range kept {
			if overlapFraction(r.Box, k.Box) > 0.5 {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Box.Min.Y != kept[j].Box.Min.Y {
			return kept[i].Box.Min.Y < kept[j].Box.Min.Y
		}
		return kept[i].Box.Min.X < kept[j].Box.Min.X
	})
	return kept
}

// overlapFraction is intersection area over the smaller box area.
func overlapFraction(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := inter.Dx() * inter.Dy()
	minArea := a.Dx() * a.Dy()
	if ba := b.Dx() * b.Dy(); ba < minArea {
		minArea = ba
	}
	if minArea == 0 {
		return 0
	}
	return float64(interArea) / float64(minArea)
}

// rotateCW rotates img 90 degrees clockwise.
func rotateCW(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(h-1-y, x, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// mapBoxBack converts a rectangle found in an image rotated deg
// degrees clockwise into the coordinates of the unrotated image of
// size w by h.
func mapBoxBack(r image.Rectangle, deg, w, h int) image.Rectangle {
	switch deg {
	case 90:
		return image.Rect(r.Min.Y, h-r.Max.X, r.Max.Y, h-r.Min.X)
	case 180:
		return image.Rect(w-r.Max.X, h-r.Max.Y, w-r.Min.X, h-r.Min.Y)
	case 270:
		return image.Rect(w-r.Max.Y, r.Min.X, w-r.Min.Y, r.Max.X)
	default:
		return r
	}
}
