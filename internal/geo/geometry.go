package geo

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// ToGeom converts a GeoJSON geometry into a go-geom geometry. Only the
// types that occur in our data files are supported.
func ToGeom(g *geojson.Geometry) (geom.T, error) {
	if g == nil {
		return nil, eris.New("geo: nil geometry")
	}

	switch {
	case g.IsPoint():
		return geom.NewPointFlat(geom.XY, []float64{g.Point[0], g.Point[1]}), nil

	case g.IsPolygon():
		return polygonFromCoords(g.Polygon)

	case g.IsMultiPolygon():
		mp := geom.NewMultiPolygon(geom.XY)
		for _, polyCoords := range g.MultiPolygon {
			poly, err := polygonFromCoords(polyCoords)
			if err != nil {
				return nil, err
			}
			if err := mp.Push(poly); err != nil {
				return nil, eris.Wrap(err, "geo: push polygon")
			}
		}
		return mp, nil

	default:
		return nil, eris.Errorf("geo: unsupported geometry type %q", g.Type)
	}
}

func polygonFromCoords(rings [][][]float64) (*geom.Polygon, error) {
	if len(rings) == 0 {
		return nil, eris.New("geo: empty polygon coordinates")
	}
	coords := make([][]geom.Coord, len(rings))
	for i, ring := range rings {
		coords[i] = make([]geom.Coord, len(ring))
		for j, pt := range ring {
			coords[i][j] = geom.Coord{pt[0], pt[1]}
		}
	}
	poly := geom.NewPolygon(geom.XY)
	if _, err := poly.SetCoords(coords); err != nil {
		return nil, eris.Wrap(err, "geo: set polygon coords")
	}
	return poly, nil
}

// Center returns a representative point for a GeoJSON geometry: the point
// itself for point features, the area centroid otherwise.
func Center(g *geojson.Geometry) (LatLng, error) {
	if g != nil && g.IsPoint() {
		return LatLng{Lat: g.Point[1], Lng: g.Point[0]}, nil
	}

	gg, err := ToGeom(g)
	if err != nil {
		return LatLng{}, err
	}
	c, err := xy.Centroid(gg)
	if err != nil {
		return LatLng{}, eris.Wrap(err, "geo: centroid")
	}
	return LatLng{Lat: c[1], Lng: c[0]}, nil
}

// Contains reports whether a polygonal geometry contains the given point.
// Only exterior rings are tested; hole-punched municipalities do not occur
// in the boundary data.
func Contains(g geom.T, p LatLng) bool {
	coord := geom.Coord{p.Lng, p.Lat}

	switch t := g.(type) {
	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return false
		}
		return xy.IsPointInRing(geom.XY, coord, t.LinearRing(0).FlatCoords())

	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if Contains(t.Polygon(i), p) {
				return true
			}
		}
		return false

	default:
		return false
	}
}
