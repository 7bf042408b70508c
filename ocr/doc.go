// Package ocr recognizes text on rasterized drawing pages and
// classifies it into the annotations that matter on a permit set:
// dimensions, room labels, scale notations and elevation markers.
//
// Recognition runs through the Engine interface. The Tesseract
// implementation requires CGO and the "ocr" build tag; without it a
// stub engine reports itself unavailable and pipelines degrade to
// vector-only analysis.
package ocr
