package maprender

import (
	"github.com/rotisserie/eris"

	"github.com/alpenmark/geomarket/internal/geo"
	"github.com/alpenmark/geomarket/internal/model"
	"github.com/alpenmark/geomarket/internal/segment"
)

// Marker colors per overlay.
const (
	colorHotspots    = "red"
	colorAdvertising = "green"
	colorCompetitors = "purple"
)

// ComposeInput bundles everything a segment map needs.
type ComposeInput struct {
	Segment        segment.Segment
	Municipalities []model.Municipality
	Hotspots       []model.PointSite
	Advertising    []model.PointSite
	Competitors    []model.Competitor

	Center      geo.LatLng
	Zoom        int
	TileURL     string
	Attribution string
}

// ComposeSegmentMap builds the full map for one segment: a weight
// choropleth over the municipalities plus hotspot, advertising, and
// competitor overlays.
func ComposeSegmentMap(in ComposeInput) (*Map, error) {
	m := New("Geomarketing – "+in.Segment.DisplayName, in.Center, in.Zoom, in.TileURL, in.Attribution)

	ch := NewChoropleth(in.Segment.DisplayName, in.Segment.Key, in.Segment.DisplayName)
	for _, muni := range in.Municipalities {
		if err := ch.AddMunicipality(muni); err != nil {
			return nil, eris.Wrap(err, "maprender: compose choropleth")
		}
	}
	m.Add(ch)

	if len(in.Hotspots) > 0 {
		hs := NewMarkerGroup("Hotspots", colorHotspots, false)
		for _, s := range in.Hotspots {
			hs.AddSite(s)
		}
		m.Add(hs)
	}

	if len(in.Advertising) > 0 {
		ads := NewMarkerGroup("Werbeflächen", colorAdvertising, false)
		for _, s := range in.Advertising {
			ads.AddSite(s)
		}
		m.Add(ads)
	}

	if len(in.Competitors) > 0 {
		comp := NewMarkerGroup("Wettbewerber", colorCompetitors, true)
		for _, c := range in.Competitors {
			comp.AddCompetitor(c)
		}
		m.Add(comp)
	}

	return m, nil
}

// ComposeBaseMap builds an empty base map with no overlays. Served when
// a request names no valid segment.
func ComposeBaseMap(center geo.LatLng, zoom int, tileURL, attribution string) *Map {
	return New("Geomarketing", center, zoom, tileURL, attribution)
}
