package dataset

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Boundary is one municipality polygon from the swisstopo
// swissBOUNDARIES3D TLM_HOHEITSGEBIET layer.
type Boundary struct {
	BFSNumber    string
	Name         string
	CantonNumber string
	Geometry     json.RawMessage // GeoJSON MultiPolygon
	EWKB         []byte          // SRID 4326, for the Postgres store
}

// germanBFSRanges are the BFS number ranges covering German-speaking
// municipalities.
var germanBFSRanges = [][2]int{
	{1, 299}, {301, 999}, {1001, 1199}, {1201, 1299}, {1301, 1399}, {1401, 1499},
	{1501, 1599}, {1601, 1699}, {1701, 1999}, {2401, 2699}, {2701, 2759},
	{2761, 2899}, {2901, 2999}, {3001, 3099}, {3101, 3199}, {3201, 3499},
	{3501, 3999}, {4001, 4399}, {4401, 4999},
}

func isGermanSpeaking(bfs int) bool {
	for _, r := range germanBFSRanges {
		if bfs >= r[0] && bfs <= r[1] {
			return true
		}
	}
	return false
}

// ReadBoundaries reads municipality boundaries from a shapefile, keeping
// only Swiss (ICC == CH) German-speaking municipalities. Records without a
// usable polygon are skipped.
func ReadBoundaries(shpPath string) ([]Boundary, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	bfsIdx := fieldIndex(reader, "BFS_NUMMER")
	nameIdx := fieldIndex(reader, "NAME")
	cantonIdx := fieldIndex(reader, "KANTONSNUMMER")
	iccIdx := fieldIndex(reader, "ICC")
	if bfsIdx < 0 || nameIdx < 0 {
		return nil, eris.New("dataset: required shapefile fields (BFS_NUMMER, NAME) not found")
	}

	var boundaries []Boundary
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		if iccIdx >= 0 && attribute(reader, iccIdx) != "CH" {
			continue
		}

		bfsStr := attribute(reader, bfsIdx)
		bfs, err := strconv.Atoi(bfsStr)
		if err != nil || !isGermanSpeaking(bfs) {
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		geoJSON, err := geomjson.Marshal(mp)
		if err != nil {
			skipped++
			continue
		}
		wkb, err := ewkb.Marshal(mp, ewkb.NDR)
		if err != nil {
			skipped++
			continue
		}

		b := Boundary{
			BFSNumber: bfsStr,
			Name:      attribute(reader, nameIdx),
			Geometry:  geoJSON,
			EWKB:      wkb,
		}
		if cantonIdx >= 0 {
			b.CantonNumber = attribute(reader, cantonIdx)
		}
		boundaries = append(boundaries, b)
	}

	if skipped > 0 {
		zap.L().Debug("dataset: skipped boundary records", zap.Int("skipped", skipped))
	}
	if len(boundaries) == 0 {
		return nil, eris.Errorf("dataset: no German-speaking boundaries found in %s", shpPath)
	}
	return boundaries, nil
}

// attribute returns a trimmed shapefile attribute value.
func attribute(reader *shp.Reader, idx int) string {
	return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if
// not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polygonToMultiPolygon converts a shapefile Polygon to a go-geom
// MultiPolygon with SRID 4326.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("dataset: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("dataset: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
