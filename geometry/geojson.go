package geometry

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"

	"github.com/citydesk/planex/model"
)

// ExportGeoJSON serializes rooms as a GeoJSON FeatureCollection in
// drawing coordinates, with name, room type and area attached as
// feature properties. The output plugs straight into web map viewers
// used for permit review.
func ExportGeoJSON(rooms []model.Room) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, room := range rooms {
		f := geojson.NewFeature(room.Polygon)
		f.Properties = geojson.Properties{
			"name":    room.Name,
			"type":    room.Type.String(),
			"area_m2": room.AreaM2,
			"floor":   room.Floor,
		}
		fc.Append(f)
	}
	return json.Marshal(fc)
}
