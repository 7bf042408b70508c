package geometry

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/citydesk/planex/model"
)

// minRoomAreaM2 is the minimum habitable area per room type in square
// meters. Types without an entry carry no minimum.
var minRoomAreaM2 = map[model.RoomType]float64{
	model.RoomBedroom:  9.29,
	model.RoomLiving:   13.0,
	model.RoomKitchen:  4.65,
	model.RoomBathroom: 2.32,
	model.RoomHallway:  1.0,
}

// SizeCheck is the outcome of a minimum-area check for one room.
type SizeCheck struct {
	Compliant  bool
	RequiredM2 float64
	ActualM2   float64
	// Surplus is ActualM2 - RequiredM2; negative on a deficit.
	Surplus float64
}

// CheckMinimumRoomSize checks the room's area against the minimum for
// its type. A room exactly at the minimum is compliant; rooms of a
// type without a minimum always pass.
func (a *Analyzer) CheckMinimumRoomSize(room model.Room) SizeCheck {
	required := minRoomAreaM2[room.Type]
	actual := room.AreaM2
	if actual == 0 && len(room.Polygon) > 0 {
		actual = a.AreaM2(room.Polygon)
	}
	return SizeCheck{
		Compliant:  actual >= required,
		RequiredM2: required,
		ActualM2:   actual,
		Surplus:    actual - required,
	}
}

// AnalyzeSetbacks checks the building footprint against the required
// clear distances to the lot boundary. front, rear and side are in
// meters. Sides are keyed by lot orientation: a lot deeper than wide
// fronts on its bottom edge, otherwise on its left edge. Distances are
// reported for all four keys; a violation is named after its key, e.g.
// "front_setback".
func (a *Analyzer) AnalyzeSetbacks(building, lot orb.Polygon, front, rear, side float64) model.SetbackAnalysis {
	res := model.SetbackAnalysis{
		Compliant: true,
		Distances: map[string]float64{},
	}
	if len(building) == 0 || len(lot) == 0 {
		return res
	}
	lb := lot.Bound()
	bb := building.Bound()

	type edge struct {
		key      string
		required float64
		clear    float64 // drawing units
	}
	var edges []edge
	deep := lb.Max[1]-lb.Min[1] >= lb.Max[0]-lb.Min[0]
	if deep {
		edges = []edge{
			{"front", front, bb.Min[1] - lb.Min[1]},
			{"rear", rear, lb.Max[1] - bb.Max[1]},
			{"left", side, bb.Min[0] - lb.Min[0]},
			{"right", side, lb.Max[0] - bb.Max[0]},
		}
	} else {
		edges = []edge{
			{"front", front, bb.Min[0] - lb.Min[0]},
			{"rear", rear, lb.Max[0] - bb.Max[0]},
			{"left", side, lb.Max[1] - bb.Max[1]},
			{"right", side, bb.Min[1] - lb.Min[1]},
		}
	}
	for _, e := range edges {
		clearM := math.Max(e.clear, 0) * a.scale
		res.Distances[e.key] = clearM
		if clearM < e.required {
			res.Compliant = false
			res.Violations = append(res.Violations, e.key+"_setback")
		}
	}
	return res
}
