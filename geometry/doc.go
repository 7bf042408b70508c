// Package geometry reconstructs rooms from floor plan line work and
// measures them for compliance checks.
//
// The core is a planar polygonizer: wall segments are noded at their
// crossings, endpoints within a tolerance are snapped together,
// dangling stubs are pruned, and the minimal enclosed faces of the
// remaining network become room polygons. An Analyzer carries the
// drawing scale and turns unit measurements into meters.
//
// Malformed geometry never fails an analysis; bad input degrades to
// fewer results with a log line.
package geometry
