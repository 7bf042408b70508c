package geometry

import (
	"math"
	"sort"
	"testing"

	"github.com/citydesk/planex/model"
)

func TestCheckMinimumRoomSize(t *testing.T) {
	a := mustAnalyzer(t)
	tests := []struct {
		name      string
		room      model.Room
		compliant bool
		surplus   float64
	}{
		{"bedroom above minimum", model.Room{Type: model.RoomBedroom, AreaM2: 12}, true, 12 - 9.29},
		{"bedroom exactly at minimum", model.Room{Type: model.RoomBedroom, AreaM2: 9.29}, true, 0},
		{"bedroom deficit", model.Room{Type: model.RoomBedroom, AreaM2: 8}, false, 8 - 9.29},
		{"living room", model.Room{Type: model.RoomLiving, AreaM2: 13.5}, true, 0.5},
		{"small living room", model.Room{Type: model.RoomLiving, AreaM2: 10}, false, -3},
		{"kitchen", model.Room{Type: model.RoomKitchen, AreaM2: 4.65}, true, 0},
		{"bathroom", model.Room{Type: model.RoomBathroom, AreaM2: 2.0}, false, 2.0 - 2.32},
		{"hallway", model.Room{Type: model.RoomHallway, AreaM2: 1.0}, true, 0},
		{"unknown type always passes", model.Room{Type: model.RoomUnknown, AreaM2: 0.5}, true, 0.5},
		{"garage has no minimum", model.Room{Type: model.RoomGarage, AreaM2: 0.1}, true, 0.1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := a.CheckMinimumRoomSize(tc.room)
			if got.Compliant != tc.compliant {
				t.Errorf("compliant = %v, want %v", got.Compliant, tc.compliant)
			}
			if math.Abs(got.Surplus-tc.surplus) > 1e-9 {
				t.Errorf("surplus = %v, want %v", got.Surplus, tc.surplus)
			}
		})
	}
}

func TestCheckMinimumRoomSizeFromPolygon(t *testing.T) {
	// area computed from the polygon when AreaM2 is unset
	a := mustAnalyzer(t, WithScaleFactor(0.001))
	room := model.Room{Type: model.RoomBedroom, Polygon: rectPolygon(0, 0, 3000, 4000)}
	got := a.CheckMinimumRoomSize(room)
	if !got.Compliant || math.Abs(got.ActualM2-12) > 1e-9 {
		t.Errorf("check = %+v, want compliant 12 m2", got)
	}
}

func TestAnalyzeSetbacksCompliant(t *testing.T) {
	a := mustAnalyzer(t) // millimeters
	lot := rectPolygon(0, 0, 20000, 30000)
	building := rectPolygon(5000, 6000, 10000, 18000)

	res := a.AnalyzeSetbacks(building, lot, 6, 6, 3)
	if !res.Compliant {
		t.Fatalf("violations = %v, want none", res.Violations)
	}
	want := map[string]float64{"front": 6, "rear": 6, "left": 5, "right": 5}
	for key, dist := range want {
		if math.Abs(res.Distances[key]-dist) > 1e-9 {
			t.Errorf("%s distance = %v, want %v", key, res.Distances[key], dist)
		}
	}
}

func TestAnalyzeSetbacksFrontViolation(t *testing.T) {
	a := mustAnalyzer(t)
	lot := rectPolygon(0, 0, 20000, 30000)
	// building 4 m from the street on a 6 m requirement
	building := rectPolygon(5000, 4000, 10000, 20000)

	res := a.AnalyzeSetbacks(building, lot, 6, 6, 3)
	if res.Compliant {
		t.Fatal("expected a violation")
	}
	if len(res.Violations) != 1 || res.Violations[0] != "front_setback" {
		t.Errorf("violations = %v, want [front_setback]", res.Violations)
	}
	if math.Abs(res.Distances["front"]-4) > 1e-9 {
		t.Errorf("front distance = %v, want 4", res.Distances["front"])
	}
}

func TestAnalyzeSetbacksBuildingOverLotLine(t *testing.T) {
	a := mustAnalyzer(t)
	lot := rectPolygon(0, 0, 20000, 30000)
	// building pokes past the left boundary
	building := rectPolygon(-1000, 10000, 8000, 10000)

	res := a.AnalyzeSetbacks(building, lot, 6, 6, 3)
	if res.Compliant {
		t.Fatal("expected violations")
	}
	if res.Distances["left"] != 0 {
		t.Errorf("left distance = %v, want clamped to 0", res.Distances["left"])
	}
	found := false
	for _, v := range res.Violations {
		if v == "left_setback" {
			found = true
		}
	}
	if !found {
		t.Errorf("violations = %v, missing left_setback", res.Violations)
	}
}

func TestAnalyzeSetbacksWideLotOrientation(t *testing.T) {
	a := mustAnalyzer(t)
	// wider than deep: the front is the left edge
	lot := rectPolygon(0, 0, 30000, 20000)
	building := rectPolygon(4000, 5000, 20000, 10000)

	res := a.AnalyzeSetbacks(building, lot, 6, 6, 3)
	sort.Strings(res.Violations)
	if len(res.Violations) != 1 || res.Violations[0] != "front_setback" {
		t.Errorf("violations = %v, want [front_setback]", res.Violations)
	}
	if math.Abs(res.Distances["front"]-4) > 1e-9 {
		t.Errorf("front = %v, want 4", res.Distances["front"])
	}
	if math.Abs(res.Distances["rear"]-6) > 1e-9 {
		t.Errorf("rear = %v, want 6", res.Distances["rear"])
	}
}

func TestAnalyzeSetbacksEmptyInput(t *testing.T) {
	a := mustAnalyzer(t)
	res := a.AnalyzeSetbacks(nil, rectPolygon(0, 0, 100, 100), 1, 1, 1)
	if !res.Compliant || len(res.Distances) != 0 {
		t.Errorf("empty building should be trivially compliant, got %+v", res)
	}
}

// full-plan scenario: five rooms, one undersized bedroom
func TestFivePlanScenario(t *testing.T) {
	a := mustAnalyzer(t) // millimeters
	segs := rectSegments(0, 0, 12000, 8000)
	segs = append(segs,
		// vertical walls
		Segment{Start: model.Point{X: 4000, Y: 0}, End: model.Point{X: 4000, Y: 8000}},
		Segment{Start: model.Point{X: 8000, Y: 0}, End: model.Point{X: 8000, Y: 8000}},
		// horizontal walls in the two outer bays
		Segment{Start: model.Point{X: 0, Y: 4000}, End: model.Point{X: 4000, Y: 4000}},
		Segment{Start: model.Point{X: 8000, Y: 6000}, End: model.Point{X: 12000, Y: 6000}},
	)
	rooms := a.DetectRoomsFromLines(segs)
	if len(rooms) != 5 {
		t.Fatalf("got %d rooms, want 5", len(rooms))
	}

	// label the small top-right room a bedroom: 4000x2000 = 8 m2, under
	// the 9.29 m2 bedroom minimum
	texts := []model.TextElement{
		{Text: "Living", BBox: model.NewBBox(5800, 3900, 6200, 4100)},
		{Text: "Bedroom 1", BBox: model.NewBBox(9800, 2900, 10200, 3100)},
		{Text: "Bedroom 2", BBox: model.NewBBox(9800, 6900, 10200, 7100)},
		{Text: "Kitchen", BBox: model.NewBBox(1800, 1900, 2200, 2100)},
		{Text: "Bath", BBox: model.NewBBox(1800, 5900, 2200, 6100)},
	}
	a.LabelRooms(rooms, texts)

	var deficits []string
	for _, r := range rooms {
		check := a.CheckMinimumRoomSize(r)
		if check.Compliant {
			continue
		}
		deficits = append(deficits, r.Name)
		// 4000x2000 mm = 8 m2 against the 9.29 m2 bedroom minimum.
		if math.Abs(check.Surplus-(-1.29)) > 1e-9 {
			t.Errorf("%s surplus = %v m2, want -1.29", r.Name, check.Surplus)
		}
		if math.Abs(check.ActualM2-8.0) > 1e-9 {
			t.Errorf("%s area = %v m2, want 8.0", r.Name, check.ActualM2)
		}
	}
	if len(deficits) != 1 || deficits[0] != "Bedroom 2" {
		t.Errorf("deficits = %v, want [Bedroom 2]", deficits)
	}
}
