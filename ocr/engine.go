package ocr

import (
	"errors"
	"image"
)

// ErrEngineUnavailable is returned by an engine whose backing OCR
// support was not compiled in. Rebuild with the "ocr" build tag and
// Tesseract installed to enable recognition.
var ErrEngineUnavailable = errors.New("ocr: engine not available; rebuild with -tags ocr")

// Word is one recognized token with its position and confidence.
type Word struct {
	Text string
	// Box is the word's pixel rectangle in the recognized image.
	Box image.Rectangle
	// Confidence is normalized to [0, 1].
	Confidence float64
}

// RecognizeOptions tune a single recognition pass.
type RecognizeOptions struct {
	// Languages in Tesseract notation, e.g. "eng" or "eng+deu".
	// Empty means the engine default.
	Languages string
	// Whitelist restricts recognition to the given characters.
	Whitelist string
	// SparseText switches the page segmentation mode to sparse, which
	// suits drawings where text is scattered between line work.
	SparseText bool
}

// Engine is a capability interface over an OCR backend. Available
// reports whether Recognize can ever succeed, letting callers degrade
// to vector-only analysis instead of failing.
//
// An Engine is not safe for concurrent use.
type Engine interface {
	Available() bool
	Recognize(img image.Image, opts RecognizeOptions) ([]Word, error)
	Close() error
}
