// Package geometry converts cadastral boundary rings between coordinate
// systems and the wire-facing Polygon model.
package geometry

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// webMercatorRadius is the spherical radius constant used by EPSG:3857.
const webMercatorRadius = 20037508.34

// FromWebMercator converts a Web Mercator x/y pair to WGS84 lng/lat using the
// inverse spherical Mercator formulas.
func FromWebMercator(x, y float64) (lng, lat float64) {
	lng = x / webMercatorRadius * 180
	lat = y / webMercatorRadius * 180
	lat = 180 / math.Pi * (2*math.Atan(math.Exp(lat*math.Pi/180)) - math.Pi/2)
	return lng, lat
}

// ToWebMercator converts a WGS84 lng/lat pair to Web Mercator x/y.
func ToWebMercator(lng, lat float64) (x, y float64) {
	x = lng * webMercatorRadius / 180
	y = math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	y = y * webMercatorRadius / 180
	return x, y
}

// RingsToPolygon builds a geom.Polygon from raw ring-of-rings boundary data,
// preserving ring order and vertex order. When fromMercator is true each
// vertex is converted from EPSG:3857 to WGS84; otherwise vertices are assumed
// to already be lng/lat.
func RingsToPolygon(rings [][][]float64, fromMercator bool) (*geom.Polygon, error) {
	if len(rings) == 0 {
		return nil, eris.New("geometry: no rings")
	}

	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	for _, ring := range rings {
		flat := make([]float64, 0, len(ring)*2)
		for _, vertex := range ring {
			if len(vertex) < 2 {
				return nil, eris.New("geometry: vertex with fewer than two ordinates")
			}
			x, y := vertex[0], vertex[1]
			if fromMercator {
				x, y = FromWebMercator(x, y)
			}
			flat = append(flat, x, y)
		}
		lr := geom.NewLinearRingFlat(geom.XY, flat)
		if err := poly.Push(lr); err != nil {
			return nil, eris.Wrap(err, "geometry: push ring")
		}
	}
	return poly, nil
}

// VertexCentroid returns the unweighted arithmetic mean of the outer ring's
// vertices. A closing vertex equal to the first is not counted twice. This is
// a centroid-of-vertices approximation, not a true area centroid.
func VertexCentroid(poly *geom.Polygon) (model.Coordinate, error) {
	if poly == nil || poly.NumLinearRings() == 0 {
		return model.Coordinate{}, eris.New("geometry: empty polygon")
	}

	coords := poly.LinearRing(0).Coords()
	if len(coords) == 0 {
		return model.Coordinate{}, eris.New("geometry: empty outer ring")
	}
	if len(coords) > 1 && coords[0][0] == coords[len(coords)-1][0] && coords[0][1] == coords[len(coords)-1][1] {
		coords = coords[:len(coords)-1]
	}

	var sumLng, sumLat float64
	for _, c := range coords {
		sumLng += c[0]
		sumLat += c[1]
	}
	n := float64(len(coords))
	return model.Coordinate{Lat: sumLat / n, Lng: sumLng / n}, nil
}

// CentroidOf computes the vertex centroid of a model Polygon already in
// WGS84 coordinates.
func CentroidOf(p *model.Polygon) (model.Coordinate, error) {
	if p == nil {
		return model.Coordinate{}, eris.New("geometry: nil polygon")
	}
	poly, err := RingsToPolygon(p.Coordinates, false)
	if err != nil {
		return model.Coordinate{}, err
	}
	return VertexCentroid(poly)
}

// ToModel renders a geom.Polygon as the GeoJSON-shaped model Polygon.
func ToModel(poly *geom.Polygon) *model.Polygon {
	if poly == nil {
		return nil
	}

	out := &model.Polygon{Type: "Polygon"}
	for i := 0; i < poly.NumLinearRings(); i++ {
		coords := poly.LinearRing(i).Coords()
		ring := make([][]float64, 0, len(coords))
		for _, c := range coords {
			ring = append(ring, []float64{c[0], c[1]})
		}
		out.Coordinates = append(out.Coordinates, ring)
	}
	return out
}
