package geometry

import (
	"fmt"
	"log/slog"

	"github.com/citydesk/planex/model"
)

// Defaults for analyzer construction. Tolerance and MinRoomArea are in
// drawing units; areas in square drawing units.
const (
	DefaultTolerance   = 1.0
	DefaultMinRoomArea = 1000.0
)

// Analyzer turns line work into rooms and measurements. The scale
// factor maps one drawing unit to meters; it is fixed at construction
// and refined by Calibrate when dimension hints are available.
type Analyzer struct {
	scale     float64 // meters per drawing unit
	tolerance float64
	minArea   float64
	log       *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithScaleFactor sets how many meters one drawing unit represents.
func WithScaleFactor(metersPerUnit float64) Option {
	return func(a *Analyzer) error {
		if metersPerUnit <= 0 {
			return fmt.Errorf("geometry: scale factor must be positive, got %v", metersPerUnit)
		}
		a.scale = metersPerUnit
		return nil
	}
}

// WithUnit declares the real-world unit one drawing unit stands for.
// Equivalent to WithScaleFactor(u.Meters()).
func WithUnit(u model.Unit) Option {
	return func(a *Analyzer) error {
		m := u.Meters()
		if m <= 0 {
			return fmt.Errorf("geometry: unknown unit %v", u)
		}
		a.scale = m
		return nil
	}
}

// WithTolerance sets the snapping distance, in drawing units, under
// which nearby endpoints are considered coincident.
func WithTolerance(t float64) Option {
	return func(a *Analyzer) error {
		if t <= 0 {
			return fmt.Errorf("geometry: tolerance must be positive, got %v", t)
		}
		a.tolerance = t
		return nil
	}
}

// WithMinRoomArea sets the smallest enclosed area, in square drawing
// units, still reported as a room. Smaller faces are treated as
// artifacts (wall poche, door swings).
func WithMinRoomArea(area float64) Option {
	return func(a *Analyzer) error {
		if area < 0 {
			return fmt.Errorf("geometry: minimum room area must not be negative, got %v", area)
		}
		a.minArea = area
		return nil
	}
}

// WithAnalyzerLogger sets the logger for degraded-geometry warnings.
func WithAnalyzerLogger(l *slog.Logger) Option {
	return func(a *Analyzer) error {
		a.log = l
		return nil
	}
}

// NewAnalyzer builds an analyzer. The default scale treats drawing
// units as millimeters.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		scale:     model.Millimeter.Meters(),
		tolerance: DefaultTolerance,
		minArea:   DefaultMinRoomArea,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a, nil
}

// ScaleFactor returns the current meters-per-drawing-unit factor.
func (a *Analyzer) ScaleFactor() float64 { return a.scale }

// Tolerance returns the snapping distance in drawing units.
func (a *Analyzer) Tolerance() float64 { return a.tolerance }
