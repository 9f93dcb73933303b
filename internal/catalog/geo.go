package catalog

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// SRID of stored profile locations (WGS 84).
const SRID = 4326

// EncodePoint converts a latitude/longitude pair to EWKB with SRID 4326.
// Returns nil, nil when either coordinate is missing.
func EncodePoint(lat, lng *float64) ([]byte, error) {
	if lat == nil || lng == nil {
		return nil, nil
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return nil, eris.Errorf("catalog: coordinates out of range (%f, %f)", *lat, *lng)
	}

	p := geom.NewPointFlat(geom.XY, []float64{*lng, *lat}).SetSRID(SRID)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: encode point")
	}
	return data, nil
}

// DecodePoint reads an EWKB point back into latitude and longitude.
func DecodePoint(data []byte) (lat, lng *float64, err error) {
	if len(data) == 0 {
		return nil, nil, nil
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, nil, eris.Wrap(err, "catalog: decode point")
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return nil, nil, eris.Errorf("catalog: expected point, got %T", g)
	}
	x, y := p.X(), p.Y()
	return &y, &x, nil
}
