// Package model defines the shared value types for the drawing
// extraction pipeline: geometric primitives (Point, BBox, Matrix),
// normalized page elements (vectors, text runs, images, annotations),
// reconstructed floor-plan entities (Room, WallSegment), and the unit
// system that converts drawing units to real-world measurements.
//
// Everything here is a plain value type with no behavior beyond
// geometry math; the extractor, geometry, and ocr packages produce and
// consume these types.
package model
