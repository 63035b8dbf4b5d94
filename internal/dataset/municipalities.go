// Package dataset parses the geomarketing input files: the municipality
// register CSV, the FSO income CSV, GeoJSON point layers, the competitor
// JSON export, and the swisstopo boundary shapefile.
package dataset

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/alpenmark/geomarket/internal/model"
)

// Municipality register CSV columns.
const (
	colBFS    = "bfs-nr"
	colName   = "gemeindename"
	colCanton = "kantonskürzel"
	colLng    = "longitude"
	colLat    = "latitude"
)

// ReadMunicipalitiesCSV parses the German-speaking municipality register.
// Columns are located by header name so extra columns are tolerated. Rows
// without a BFS number or with unparseable coordinates are skipped.
func ReadMunicipalitiesCSV(r io.Reader) ([]model.Municipality, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read municipalities header")
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	for _, required := range []string{colBFS, colName, colLng, colLat} {
		if _, ok := idx[required]; !ok {
			return nil, eris.Errorf("dataset: municipalities CSV missing column %q", required)
		}
	}

	now := time.Now().UTC()
	var munis []model.Municipality

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read municipalities row")
		}

		bfs := strings.TrimSpace(field(rec, idx[colBFS]))
		if bfs == "" {
			continue
		}

		lng, errLng := strconv.ParseFloat(strings.TrimSpace(field(rec, idx[colLng])), 64)
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(field(rec, idx[colLat])), 64)
		if errLng != nil || errLat != nil {
			continue
		}

		m := model.Municipality{
			BFSNumber: bfs,
			Name:      strings.TrimSpace(field(rec, idx[colName])),
			Latitude:  lat,
			Longitude: lng,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if i, ok := idx[colCanton]; ok {
			m.Canton = strings.TrimSpace(field(rec, i))
		}
		if i, ok := idx["einwohner"]; ok {
			if pop, err := strconv.Atoi(strings.TrimSpace(field(rec, i))); err == nil {
				m.Population = pop
			}
		}

		munis = append(munis, m)
	}

	if len(munis) == 0 {
		return nil, eris.New("dataset: municipalities CSV contained no usable rows")
	}
	return munis, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
