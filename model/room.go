package model

import "github.com/paulmach/orb"

// RoomType classifies a detected room. Detection always produces
// RoomUnknown; classification from nearby labels is the caller's job.
type RoomType int

const (
	RoomUnknown RoomType = iota
	RoomBedroom
	RoomBathroom
	RoomKitchen
	RoomLiving
	RoomDining
	RoomGarage
	RoomCloset
	RoomHallway
	RoomEntry
	RoomBasement
	RoomOffice
	RoomUtility
	RoomLaundry
	RoomPorch
)

func (t RoomType) String() string {
	switch t {
	case RoomBedroom:
		return "Bedroom"
	case RoomBathroom:
		return "Bathroom"
	case RoomKitchen:
		return "Kitchen"
	case RoomLiving:
		return "LivingRoom"
	case RoomDining:
		return "DiningRoom"
	case RoomGarage:
		return "Garage"
	case RoomCloset:
		return "Closet"
	case RoomHallway:
		return "Hallway"
	case RoomEntry:
		return "Entry"
	case RoomBasement:
		return "Basement"
	case RoomOffice:
		return "Office"
	case RoomUtility:
		return "Utility"
	case RoomLaundry:
		return "Laundry"
	case RoomPorch:
		return "Porch"
	default:
		return "Unknown"
	}
}

// Room is a reconstructed enclosed space on a floor plan.
// AreaM2 always equals AreaUnits * scaleFactor^2 for the analyzer's
// scale factor. Rooms live for the duration of a page analysis; they
// are not persisted by this package.
type Room struct {
	Name      string
	Polygon   orb.Polygon
	AreaUnits float64 // drawing units squared
	AreaM2    float64
	Type      RoomType
	Doors     []Point
	Windows   []Point
	LabelAt   *Point
	Floor     int
}

// Centroid returns the average of the exterior ring vertices.
// Good enough for label placement; not the true area centroid.
func (r Room) Centroid() Point {
	if len(r.Polygon) == 0 || len(r.Polygon[0]) == 0 {
		return Point{}
	}
	ring := r.Polygon[0]
	n := len(ring)
	if ring[0] == ring[n-1] && n > 1 {
		n-- // closing vertex repeats the first
	}
	var cx, cy float64
	for i := 0; i < n; i++ {
		cx += ring[i][0]
		cy += ring[i][1]
	}
	return Point{X: cx / float64(n), Y: cy / float64(n)}
}

// WallSegment is a reconstructed wall centerline. Thickness comes from
// pairing near-parallel lines and is an estimate, not survey data.
type WallSegment struct {
	Start     Point
	End       Point
	Thickness float64
	Exterior  bool
}

// Length returns the centerline length in drawing units.
func (w WallSegment) Length() float64 {
	return w.Start.Distance(w.End)
}

// SetbackAnalysis is the verdict of a setback compliance check.
// Distances holds the measured clear distance to each lot boundary in
// meters, keyed "front", "rear", "left", "right".
type SetbackAnalysis struct {
	Compliant  bool
	Violations []string
	Distances  map[string]float64
}
