package geometry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/citydesk/planex/model"
)

// DetectRoomsFromLines extracts the enclosed rooms of a wall network.
// Faces smaller than the configured minimum area are dropped as
// drawing artifacts. Rooms are ordered largest first and named
// Room_1, Room_2, ...; labels can rename them afterwards.
func (a *Analyzer) DetectRoomsFromLines(segs []Segment) []model.Room {
	rings := polygonize(segs, a.tolerance)
	var rooms []model.Room
	for _, ring := range rings {
		area := ringArea(ring)
		if area < a.minArea {
			continue
		}
		rooms = append(rooms, model.Room{
			Polygon:   orb.Polygon{ring},
			AreaUnits: area,
			AreaM2:    area * a.scale * a.scale,
			Type:      model.RoomUnknown,
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].AreaUnits > rooms[j].AreaUnits })
	for i := range rooms {
		rooms[i].Name = fmt.Sprintf("Room_%d", i+1)
	}
	if len(rooms) == 0 && len(segs) > 0 {
		a.log.Debug("no rooms detected", "segments", len(segs), "faces", len(rings))
	}
	return rooms
}

// DetectRoomsFromVectors runs room detection over extracted page
// vectors. Lines contribute directly; rectangles, quads and flattened
// curves contribute their outline legs.
func (a *Analyzer) DetectRoomsFromVectors(vectors []model.VectorElement) []model.Room {
	return a.DetectRoomsFromLines(FlattenVectors(vectors))
}

// FlattenVectors reduces vector elements to bare segments.
func FlattenVectors(vectors []model.VectorElement) []Segment {
	var segs []Segment
	for _, v := range vectors {
		pts := v.Points
		if len(pts) < 2 {
			continue
		}
		for i := 1; i < len(pts); i++ {
			segs = append(segs, Segment{Start: pts[i-1], End: pts[i]})
		}
		if v.Closed {
			segs = append(segs, Segment{Start: pts[len(pts)-1], End: pts[0]})
		}
	}
	return segs
}

// DimensionHint ties a measured drawing segment to its annotated
// real-world length.
type DimensionHint struct {
	Start, End model.Point
	// ValueMM is the annotated length in millimeters.
	ValueMM float64
}

// Calibrate refines the scale factor from dimension annotations. Each
// hint contributes the ratio of its annotated length to its drawn
// length; the median ratio wins, so a single misread annotation cannot
// skew the scale. Hints with degenerate geometry are ignored.
func (a *Analyzer) Calibrate(hints []DimensionHint) {
	var ratios []float64
	for _, h := range hints {
		drawn := h.Start.Distance(h.End)
		if drawn < a.tolerance || h.ValueMM <= 0 {
			continue
		}
		ratios = append(ratios, h.ValueMM/1000/drawn)
	}
	if len(ratios) == 0 {
		return
	}
	sort.Float64s(ratios)
	old := a.scale
	a.scale = ratios[len(ratios)/2]
	a.log.Info("scale calibrated", "hints", len(ratios), "old", old, "new", a.scale)
}

// roomVocabulary maps label words to room types. Keys are lowercase;
// abbreviations used on floor plans are included.
var roomVocabulary = map[string]model.RoomType{
	"bedroom":  model.RoomBedroom,
	"bed":      model.RoomBedroom,
	"br":       model.RoomBedroom,
	"master":   model.RoomBedroom,
	"living":   model.RoomLiving,
	"lounge":   model.RoomLiving,
	"family":   model.RoomLiving,
	"kitchen":  model.RoomKitchen,
	"kit":      model.RoomKitchen,
	"bathroom": model.RoomBathroom,
	"bath":     model.RoomBathroom,
	"wc":       model.RoomBathroom,
	"ensuite":  model.RoomBathroom,
	"toilet":   model.RoomBathroom,
	"hall":     model.RoomHallway,
	"hallway":  model.RoomHallway,
	"corridor": model.RoomHallway,
	"entry":    model.RoomEntry,
	"foyer":    model.RoomEntry,
	"dining":   model.RoomDining,
	"garage":   model.RoomGarage,
	"car":      model.RoomGarage,
	"laundry":  model.RoomLaundry,
	"ldry":     model.RoomLaundry,
	"utility":  model.RoomUtility,
	"study":    model.RoomOffice,
	"office":   model.RoomOffice,
	"basement": model.RoomBasement,
	"storage":  model.RoomCloset,
	"store":    model.RoomCloset,
	"closet":   model.RoomCloset,
	"robe":     model.RoomCloset,
	"porch":    model.RoomPorch,
	"deck":     model.RoomPorch,
	"balcony":  model.RoomPorch,
}

// ClassifyRoomLabel maps a floor plan label to a room type.
func ClassifyRoomLabel(label string) model.RoomType {
	for _, word := range strings.Fields(strings.ToLower(label)) {
		word = strings.Trim(word, ".,:;()")
		if t, ok := roomVocabulary[word]; ok {
			return t
		}
	}
	return model.RoomUnknown
}

// LabelRooms assigns text labels to the rooms containing them. A room
// takes the first label found inside it; its name becomes the label
// text and its type comes from the label vocabulary.
func (a *Analyzer) LabelRooms(rooms []model.Room, texts []model.TextElement) {
	for ri := range rooms {
		for _, t := range texts {
			c := t.BBox.Center()
			pt := orb.Point{c.X, c.Y}
			if !planar.PolygonContains(rooms[ri].Polygon, pt) {
				continue
			}
			label := strings.TrimSpace(t.Text)
			if label == "" {
				continue
			}
			kind := ClassifyRoomLabel(label)
			if rooms[ri].LabelAt == nil || kind != model.RoomUnknown {
				rooms[ri].Name = label
				rooms[ri].Type = kind
				rooms[ri].LabelAt = &model.Point{X: c.X, Y: c.Y}
				if kind != model.RoomUnknown {
					break
				}
			}
		}
	}
}
