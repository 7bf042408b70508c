package geometry

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/citydesk/planex/model"
)

func TestRoomsContainingPoint(t *testing.T) {
	rooms := []model.Room{
		{Name: "A", Polygon: rectPolygon(0, 0, 100, 100)},
		{Name: "B", Polygon: rectPolygon(100, 0, 100, 100)},
		{Name: "C", Polygon: rectPolygon(0, 200, 50, 50)},
	}
	idx := NewRoomIndex(rooms)

	tests := []struct {
		p    model.Point
		want []string
	}{
		{model.Point{X: 50, Y: 50}, []string{"A"}},
		{model.Point{X: 150, Y: 50}, []string{"B"}},
		{model.Point{X: 25, Y: 225}, []string{"C"}},
		{model.Point{X: 500, Y: 500}, nil},
		{model.Point{X: 50, Y: 150}, nil}, // between rooms
	}
	for _, tc := range tests {
		got := idx.RoomsContainingPoint(tc.p)
		if len(got) != len(tc.want) {
			t.Errorf("point %v: got %d rooms, want %d", tc.p, len(got), len(tc.want))
			continue
		}
		for i, r := range got {
			if r.Name != tc.want[i] {
				t.Errorf("point %v: room %d = %q, want %q", tc.p, i, r.Name, tc.want[i])
			}
		}
	}
}

func TestAdjacentRooms(t *testing.T) {
	rooms := []model.Room{
		{Name: "A", Polygon: rectPolygon(0, 0, 100, 100)},
		{Name: "B", Polygon: rectPolygon(100, 0, 100, 100)},  // shares a wall with A
		{Name: "C", Polygon: rectPolygon(100, 100, 100, 100)}, // corner-touches A, wall with B
		{Name: "D", Polygon: rectPolygon(500, 500, 100, 100)}, // isolated
	}
	a := mustAnalyzer(t)

	tests := []struct {
		room int
		want []int
	}{
		{0, []int{1}},    // corner contact with C does not count
		{1, []int{0, 2}},
		{2, []int{1}},
		{3, nil},
	}
	for _, tc := range tests {
		got := a.AdjacentRooms(rooms, tc.room)
		if len(got) != len(tc.want) {
			t.Errorf("room %d: adjacent = %v, want %v", tc.room, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("room %d: adjacent = %v, want %v", tc.room, got, tc.want)
			}
		}
	}
}

func TestSharedBoundaryLength(t *testing.T) {
	a := rectPolygon(0, 0, 100, 100)
	b := rectPolygon(100, 0, 100, 100)
	if got := SharedBoundaryLength(a, b, 1.0); math.Abs(got-100) > 1e-9 {
		t.Errorf("shared length = %v, want 100", got)
	}
	// partial overlap
	c := rectPolygon(100, 40, 100, 100)
	if got := SharedBoundaryLength(a, c, 1.0); math.Abs(got-60) > 1e-9 {
		t.Errorf("partial shared length = %v, want 60", got)
	}
	// corner contact only
	d := rectPolygon(100, 100, 100, 100)
	if got := SharedBoundaryLength(a, d, 1.0); got > 1e-9 {
		t.Errorf("corner contact length = %v, want 0", got)
	}
}

func TestMergeTouchingPolygons(t *testing.T) {
	a := mustAnalyzer(t, WithMinRoomArea(0))
	polys := []orb.Polygon{
		rectPolygon(0, 0, 2000, 1000),
		rectPolygon(2000, 0, 2000, 1000),
		rectPolygon(9000, 9000, 1000, 1000), // not touching
	}
	merged := a.MergeTouchingPolygons(polys)
	if len(merged) != 2 {
		t.Fatalf("got %d polygons, want 2", len(merged))
	}
	var areas []float64
	for _, p := range merged {
		areas = append(areas, math.Abs(ringArea(p[0])))
	}
	if areas[0] < areas[1] {
		areas[0], areas[1] = areas[1], areas[0]
	}
	if math.Abs(areas[0]-4e6) > 1 {
		t.Errorf("merged area = %v, want 4e6", areas[0])
	}
	if math.Abs(areas[1]-1e6) > 1 {
		t.Errorf("isolated area = %v, want 1e6", areas[1])
	}
}

func TestMergeTouchingPolygonsLShape(t *testing.T) {
	a := mustAnalyzer(t, WithMinRoomArea(0))
	polys := []orb.Polygon{
		rectPolygon(0, 0, 3000, 1000),
		rectPolygon(0, 1000, 1000, 2000),
	}
	merged := a.MergeTouchingPolygons(polys)
	if len(merged) != 1 {
		t.Fatalf("got %d polygons, want 1", len(merged))
	}
	if got := math.Abs(ringArea(merged[0][0])); math.Abs(got-5e6) > 1 {
		t.Errorf("L-shape area = %v, want 5e6", got)
	}
}

func TestSimplifyPolygon(t *testing.T) {
	// rectangle with redundant midpoints on each side
	poly := orb.Polygon{{
		{0, 0}, {500, 0}, {1000, 0},
		{1000, 500}, {1000, 1000},
		{500, 1000}, {0, 1000},
		{0, 500}, {0, 0},
	}}
	got := SimplifyPolygon(poly, 1.0)
	if len(got[0]) != 5 {
		t.Errorf("simplified ring has %d points, want 5", len(got[0]))
	}
	if math.Abs(ringArea(got[0])-1e6) > 1 {
		t.Errorf("area changed to %v", ringArea(got[0]))
	}

	// aggressive threshold must not collapse the ring
	kept := SimplifyPolygon(poly, 1e9)
	if len(kept[0]) < 4 {
		t.Errorf("over-simplified ring has %d points", len(kept[0]))
	}
}

func TestExportGeoJSON(t *testing.T) {
	rooms := []model.Room{
		{Name: "Kitchen", Type: model.RoomKitchen, AreaM2: 12.5, Polygon: rectPolygon(0, 0, 100, 100)},
		{Name: "Room_2", Polygon: rectPolygon(100, 0, 50, 100)},
	}
	data, err := ExportGeoJSON(rooms)
	if err != nil {
		t.Fatal(err)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Fatalf("collection = %s with %d features", fc.Type, len(fc.Features))
	}
	f := fc.Features[0]
	if f.Geometry.Type != "Polygon" {
		t.Errorf("geometry type = %q", f.Geometry.Type)
	}
	if f.Properties["name"] != "Kitchen" || f.Properties["type"] != "Kitchen" {
		t.Errorf("properties = %v", f.Properties)
	}
	if f.Properties["area_m2"].(float64) != 12.5 {
		t.Errorf("area property = %v", f.Properties["area_m2"])
	}
}
