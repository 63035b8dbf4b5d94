package dataset

import (
	"encoding/json"
	"fmt"
	"io"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/alpenmark/geomarket/internal/geo"
	"github.com/alpenmark/geomarket/internal/model"
)

// ReadPointSites parses a GeoJSON feature collection into point sites of
// the given kind. Polygon features are reduced to their centroid, matching
// the original map behavior for non-point hotspot geometries.
func ReadPointSites(r io.Reader, kind string) ([]model.PointSite, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s layer", kind)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: parse %s GeoJSON", kind)
	}

	var sites []model.PointSite
	var skipped int

	for i, f := range fc.Features {
		if f.Geometry == nil {
			skipped++
			continue
		}
		center, err := geo.Center(f.Geometry)
		if err != nil {
			skipped++
			continue
		}

		site := model.PointSite{
			ID:        fmt.Sprintf("%s-%d", kind, i),
			Kind:      kind,
			Latitude:  center.Lat,
			Longitude: center.Lng,
		}
		if name, err := f.PropertyString("name"); err == nil {
			site.Name = name
		}
		if typ, err := f.PropertyString("type"); err == nil {
			site.Type = typ
		}
		if id, err := f.PropertyString("id"); err == nil {
			site.ID = fmt.Sprintf("%s-%s", kind, id)
		} else if idNum, err := f.PropertyFloat64("id"); err == nil {
			site.ID = fmt.Sprintf("%s-%d", kind, int(idNum))
		}

		sites = append(sites, site)
	}

	if skipped > 0 {
		zap.L().Debug("dataset: skipped features without usable geometry",
			zap.String("kind", kind),
			zap.Int("skipped", skipped),
		)
	}
	return sites, nil
}

// placesResult mirrors the Google Places export shape of competitors.json.
type placesResult struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
	Rating           *float64 `json:"rating"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// ReadCompetitors parses a Places-style competitor export.
func ReadCompetitors(r io.Reader) ([]model.Competitor, error) {
	var results []placesResult
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, eris.Wrap(err, "dataset: parse competitors JSON")
	}

	competitors := make([]model.Competitor, 0, len(results))
	for i, res := range results {
		if res.Name == "" {
			continue
		}
		competitors = append(competitors, model.Competitor{
			ID:        fmt.Sprintf("competitor-%d", i),
			Name:      res.Name,
			Address:   res.FormattedAddress,
			Types:     res.Types,
			Rating:    res.Rating,
			Latitude:  res.Geometry.Location.Lat,
			Longitude: res.Geometry.Location.Lng,
		})
	}
	return competitors, nil
}
