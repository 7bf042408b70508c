package model

// VectorType identifies the kind of vector primitive extracted from a
// drawing page.
type VectorType int

const (
	// VectorLine is a single straight segment (2 points).
	VectorLine VectorType = iota
	// VectorRect is an axis-aligned rectangle, expanded to its 4 corners.
	VectorRect
	// VectorQuad is a rotated or skewed 4-corner shape.
	VectorQuad
	// VectorCurve is a Bézier curve flattened to a polyline.
	VectorCurve
)

func (t VectorType) String() string {
	switch t {
	case VectorLine:
		return "Line"
	case VectorRect:
		return "Rect"
	case VectorQuad:
		return "Quad"
	case VectorCurve:
		return "Curve"
	default:
		return "Unknown"
	}
}

// RGB is a normalized color triple with components in [0, 1].
// Grayscale sources are broadcast to all three channels; a missing
// color defaults to black.
type RGB [3]float64

// Black is the default stroke and fill color.
var Black = RGB{0, 0, 0}

// GrayRGB broadcasts a single gray level to an RGB triple.
func GrayRGB(gray float64) RGB {
	return RGB{gray, gray, gray}
}

// CMYKToRGB converts a CMYK color to its RGB approximation.
func CMYKToRGB(c, m, y, k float64) RGB {
	return RGB{
		(1 - c) * (1 - k),
		(1 - m) * (1 - k),
		(1 - y) * (1 - k),
	}
}

// VectorElement is a single normalized vector primitive from a page.
// Elements of type VectorRect and VectorQuad always carry exactly 4
// points and are closed. The element is immutable once produced and
// owned by the caller for the lifetime of the page extraction.
type VectorElement struct {
	Type        VectorType
	Points      []Point
	StrokeWidth float64
	Stroke      RGB
	Fill        *RGB
	BBox        BBox
	Closed      bool
}

// Length returns the total polyline length of the element's points.
func (v VectorElement) Length() float64 {
	var total float64
	for i := 1; i < len(v.Points); i++ {
		total += v.Points[i-1].Distance(v.Points[i])
	}
	if v.Closed && len(v.Points) > 2 {
		total += v.Points[len(v.Points)-1].Distance(v.Points[0])
	}
	return total
}

// TextElement is an embedded text run with its layout attributes.
// Rotation is normalized to the nearest multiple of 90 degrees.
type TextElement struct {
	Text     string
	BBox     BBox
	Font     string
	Size     float64
	Color    RGB
	Bold     bool
	Italic   bool
	Rotation int
}

// ImageElement references an embedded raster image on a page.
// Data is populated only when extraction is asked to include it.
type ImageElement struct {
	BBox   BBox
	Width  int // pixel dimensions
	Height int
	Ref    string // XObject resource name, e.g. "Im1"
	Data   []byte
}

// Annotation is a PDF page annotation (markup, link, stamp, ...).
type Annotation struct {
	Subtype  string
	Rect     BBox
	Contents string
}

// PageMetadata describes a page without its content.
type PageMetadata struct {
	Index    int // 0-based
	Width    float64
	Height   float64
	Rotation int
}

// PageExtractionResult aggregates everything extracted from one page.
type PageExtractionResult struct {
	Metadata    PageMetadata
	Vectors     []VectorElement
	Texts       []TextElement
	Images      []ImageElement
	Annotations []Annotation
}

// DimensionLineCandidate flags a line segment that is probably a
// dimension annotation: a near-horizontal or near-vertical segment with
// numeric text close by. It is a hint, not authoritative geometry.
type DimensionLineCandidate struct {
	Start Point
	End   Point
	Label TextElement
	// Distance between the segment and the label text, drawing units.
	LabelDistance float64
	Horizontal    bool
}
