//go:build ocr

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes text via the Tesseract C library through
// gosseract. It is only compiled when the "ocr" build tag is set.
type TesseractEngine struct {
	client *gosseract.Client
	closed bool
}

// NewEngine creates a Tesseract-backed engine. The caller owns the
// engine and must Close it.
func NewEngine() (*TesseractEngine, error) {
	return &TesseractEngine{client: gosseract.NewClient()}, nil
}

func (e *TesseractEngine) Available() bool {
	return !e.closed
}

func (e *TesseractEngine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.client.Close()
}

// Recognize runs one pass over img and returns word-level results.
func (e *TesseractEngine) Recognize(img image.Image, opts RecognizeOptions) ([]Word, error) {
	if e.closed {
		return nil, ErrEngineUnavailable
	}

	if opts.Languages != "" {
		if err := e.client.SetLanguage(opts.Languages); err != nil {
			return nil, fmt.Errorf("set language %q: %w", opts.Languages, err)
		}
	}
	if err := e.client.SetWhitelist(opts.Whitelist); err != nil {
		return nil, fmt.Errorf("set whitelist: %w", err)
	}
	psm := gosseract.PSM_AUTO
	if opts.SparseText {
		psm = gosseract.PSM_SPARSE_TEXT
	}
	if err := e.client.SetPageSegMode(psm); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		words = append(words, Word{
			Text:       b.Word,
			Box:        b.Box,
			Confidence: b.Confidence / 100,
		})
	}
	return words, nil
}
