// Package planex provides a fluent API for extracting structured
// geometry and measurements from architectural PDF drawings.
//
// Basic usage:
//
//	rooms, err := planex.Open("plan.pdf").Rooms(0)
//	if err != nil {
//	    // handle error
//	}
//
// With options:
//
//	rooms, err := planex.Open("plan.pdf").
//	    Unit(model.Millimeter).
//	    Tolerance(2).
//	    Rooms(0)
//
// For advanced use cases, the extractor, geometry and ocr packages are
// also available directly.
package planex

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/citydesk/planex/extractor"
	"github.com/citydesk/planex/geometry"
	"github.com/citydesk/planex/model"
	"github.com/citydesk/planex/ocr"
)

// Pipeline provides a fluent interface over a drawing. Each
// configuration method returns a new Pipeline instance, so a
// configured chain can be reused and forked safely. Terminal
// operations open the document on demand and close it again when the
// pipeline owns it.
type Pipeline struct {
	// Source
	path string

	// Lifecycle
	doc       *extractor.Document
	ownsDoc   bool
	docOpened bool

	// Configuration
	options pipelineOptions

	// Accumulated error (fail-fast)
	err error
}

// Open prepares a pipeline over the PDF at path. The file is not read
// until a terminal operation runs.
//
// Example:
//
//	count, err := planex.Open("plan.pdf").PageCount()
func Open(path string) *Pipeline {
	return &Pipeline{
		path:    path,
		options: defaultPipelineOptions(),
	}
}

// FromDocument wraps an already-opened extractor.Document. The caller
// keeps ownership and must close the document itself.
func FromDocument(doc *extractor.Document) *Pipeline {
	return &Pipeline{
		doc:       doc,
		docOpened: true,
		options:   defaultPipelineOptions(),
	}
}

// Must panics when err is non-nil. Intended for scripts and tests.
//
// Example:
//
//	rooms := planex.Must(planex.Open("plan.pdf").Rooms(0))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// clone copies the pipeline so configuration methods never mutate the
// receiver.
func (p *Pipeline) clone() *Pipeline {
	return &Pipeline{
		path:      p.path,
		doc:       p.doc,
		ownsDoc:   p.ownsDoc,
		docOpened: p.docOpened,
		options:   p.options.clone(),
		err:       p.err,
	}
}

// Unit declares the drawing unit used for measurements.
func (p *Pipeline) Unit(u model.Unit) *Pipeline {
	np := p.clone()
	np.options.unit = u
	return np
}

// Scale sets an explicit scale factor in meters per drawing unit,
// overriding the unit and any calibration from annotations.
func (p *Pipeline) Scale(metersPerUnit float64) *Pipeline {
	np := p.clone()
	if metersPerUnit <= 0 {
		np.err = fmt.Errorf("scale factor must be positive, got %v", metersPerUnit)
		return np
	}
	np.options.scale = metersPerUnit
	return np
}

// Tolerance sets the gap-closing tolerance, in drawing units, used
// when assembling room polygons.
func (p *Pipeline) Tolerance(t float64) *Pipeline {
	np := p.clone()
	np.options.tolerance = t
	return np
}

// MinRoomArea sets the smallest face, in square drawing units, that
// counts as a room.
func (p *Pipeline) MinRoomArea(area float64) *Pipeline {
	np := p.clone()
	np.options.minRoomArea = area
	return np
}

// DPI sets the rasterization resolution for Render and OCR.
func (p *Pipeline) DPI(dpi int) *Pipeline {
	np := p.clone()
	np.options.dpi = dpi
	return np
}

// Renderer substitutes the page rasterizer, mainly for tests.
func (p *Pipeline) Renderer(r extractor.Renderer) *Pipeline {
	np := p.clone()
	np.options.renderer = r
	return np
}

// Languages sets the OCR language string, e.g. "eng" or "eng+deu".
func (p *Pipeline) Languages(langs string) *Pipeline {
	np := p.clone()
	np.options.languages = langs
	return np
}

// MinConfidence sets the OCR confidence floor in [0, 1].
func (p *Pipeline) MinConfidence(c float64) *Pipeline {
	np := p.clone()
	np.options.minConfidence = c
	return np
}

// Logger injects a structured logger used across the pipeline.
func (p *Pipeline) Logger(l *slog.Logger) *Pipeline {
	np := p.clone()
	np.options.logger = l
	return np
}

// ensureDoc opens the document if not already open.
func (p *Pipeline) ensureDoc() error {
	if p.docOpened {
		return nil
	}
	if p.path == "" {
		return fmt.Errorf("no file specified")
	}
	var opts []extractor.Option
	if p.options.logger != nil {
		opts = append(opts, extractor.WithLogger(p.options.logger))
	}
	if p.options.renderer != nil {
		opts = append(opts, extractor.WithRenderer(p.options.renderer))
	}
	doc, err := extractor.Open(p.path, opts...)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.path, err)
	}
	p.doc = doc
	p.ownsDoc = true
	p.docOpened = true
	return nil
}

// Close releases the document when the pipeline owns it. Safe to call
// multiple times.
func (p *Pipeline) Close() error {
	if p.ownsDoc && p.doc != nil {
		err := p.doc.Close()
		p.doc = nil
		p.docOpened = false
		p.ownsDoc = false
		return err
	}
	return nil
}

// closeIfOwned is deferred by terminal operations: a pipeline built by
// Open owns its document, one built by FromDocument does not.
func (p *Pipeline) closeIfOwned() {
	if p.ownsDoc {
		p.Close()
	}
}

// PageCount is a terminal operation returning the number of pages.
func (p *Pipeline) PageCount() (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	if err := p.ensureDoc(); err != nil {
		return 0, err
	}
	defer p.closeIfOwned()
	return p.doc.PageCount(), nil
}

// Page is a terminal operation extracting everything from one page:
// vectors, text runs, images and annotations.
func (p *Pipeline) Page(i int) (*model.PageExtractionResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	if err := p.ensureDoc(); err != nil {
		return nil, err
	}
	defer p.closeIfOwned()
	return p.doc.ExtractAll(i)
}

// Rooms is a terminal operation detecting rooms on one page. Vector
// line work is assembled into polygons, areas are converted via the
// configured or calibrated scale, and rooms are labeled from nearby
// text runs.
func (p *Pipeline) Rooms(i int) ([]model.Room, error) {
	if p.err != nil {
		return nil, p.err
	}
	if err := p.ensureDoc(); err != nil {
		return nil, err
	}
	defer p.closeIfOwned()

	res, err := p.doc.ExtractAll(i)
	if err != nil {
		return nil, err
	}
	an, err := p.analyzer(i)
	if err != nil {
		return nil, err
	}
	rooms := an.DetectRoomsFromVectors(res.Vectors)
	an.LabelRooms(rooms, res.Texts)
	return rooms, nil
}

// RoomsGeoJSON is a terminal operation returning the detected rooms of
// one page as a GeoJSON feature collection.
func (p *Pipeline) RoomsGeoJSON(i int) ([]byte, error) {
	rooms, err := p.Rooms(i)
	if err != nil {
		return nil, err
	}
	return geometry.ExportGeoJSON(rooms)
}

// Render is a terminal operation rasterizing one page at the
// configured DPI.
func (p *Pipeline) Render(ctx context.Context, i int) (image.Image, error) {
	if p.err != nil {
		return nil, p.err
	}
	if err := p.ensureDoc(); err != nil {
		return nil, err
	}
	defer p.closeIfOwned()
	return p.doc.RenderPage(ctx, i, p.options.dpi)
}

// RecognizedText is a terminal operation that rasterizes one page and
// runs OCR over it. Without the "ocr" build tag the result is empty.
func (p *Pipeline) RecognizedText(ctx context.Context, i int) ([]ocr.Result, error) {
	if p.err != nil {
		return nil, p.err
	}
	if err := p.ensureDoc(); err != nil {
		return nil, err
	}
	defer p.closeIfOwned()

	img, err := p.doc.RenderPage(ctx, i, p.options.dpi)
	if err != nil {
		return nil, err
	}
	eng, err := ocr.NewEngine()
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	proc := ocr.NewProcessor(eng, p.options.logger)
	return proc.ExtractText(img, p.options.minConfidence, ocr.RecognizeOptions{
		Languages:  p.options.languages,
		SparseText: true,
	})
}

// analyzer builds a geometry analyzer for page i. An explicit Scale
// wins; otherwise a scale notation on the page seeds the factor and
// dimension annotations refine it.
func (p *Pipeline) analyzer(i int) (*geometry.Analyzer, error) {
	scale := p.options.scale
	if scale <= 0 {
		if denom, ok, err := p.doc.FindScaleNotation(i); err == nil && ok {
			scale = p.options.unit.Meters() * denom
		}
	}

	var opts []geometry.Option
	if scale > 0 {
		opts = append(opts, geometry.WithScaleFactor(scale))
	} else {
		opts = append(opts, geometry.WithUnit(p.options.unit))
	}
	if p.options.tolerance > 0 {
		opts = append(opts, geometry.WithTolerance(p.options.tolerance))
	}
	if p.options.minRoomArea > 0 {
		opts = append(opts, geometry.WithMinRoomArea(p.options.minRoomArea))
	}
	if p.options.logger != nil {
		opts = append(opts, geometry.WithAnalyzerLogger(p.options.logger))
	}

	an, err := geometry.NewAnalyzer(opts...)
	if err != nil {
		return nil, err
	}

	if p.options.scale <= 0 {
		cands, err := p.doc.FindDimensionLines(i)
		if err != nil {
			return an, nil
		}
		var hints []geometry.DimensionHint
		for _, c := range cands {
			d, ok := ocr.ParseDimension(c.Label.Text)
			if !ok {
				continue
			}
			hints = append(hints, geometry.DimensionHint{
				Start:   c.Start,
				End:     c.End,
				ValueMM: d.Millimeters,
			})
		}
		an.Calibrate(hints)
	}
	return an, nil
}
