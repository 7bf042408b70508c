//go:build !ocr

package ocr

import "image"

// TesseractEngine is a stub compiled when OCR support is disabled.
// Every recognition attempt reports ErrEngineUnavailable so callers
// can fall back to vector-only analysis.
type TesseractEngine struct{}

// NewEngine returns a stub engine. It never fails; the unavailability
// surfaces through Available and Recognize instead so that pipelines
// can be constructed uniformly.
func NewEngine() (*TesseractEngine, error) {
	return &TesseractEngine{}, nil
}

func (e *TesseractEngine) Available() bool { return false }

func (e *TesseractEngine) Close() error { return nil }

func (e *TesseractEngine) Recognize(image.Image, RecognizeOptions) ([]Word, error) {
	return nil, ErrEngineUnavailable
}
