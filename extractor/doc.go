// Package extractor turns drawing files into normalized page content:
// vector primitives, positioned text runs, embedded images, and
// annotations. It also bridges to an external rasterizer for pages
// that need OCR.
//
// A Document is the unit of work. Open one per file, pull what you
// need per page, Close it. Documents are not safe for concurrent use.
package extractor
