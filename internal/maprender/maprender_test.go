package maprender

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpenmark/geomarket/internal/geo"
	"github.com/alpenmark/geomarket/internal/model"
	"github.com/alpenmark/geomarket/internal/segment"
)

var swissCenter = geo.LatLng{Lat: 46.8, Lng: 8.2}

func TestColorForWeight(t *testing.T) {
	assert.Equal(t, "#ffffb2", colorForWeight(0))
	assert.Equal(t, "#ffffb2", colorForWeight(0.19))
	assert.Equal(t, "#fecc5c", colorForWeight(0.2))
	assert.Equal(t, "#fd8d3c", colorForWeight(0.5))
	assert.Equal(t, "#f03b20", colorForWeight(0.7))
	assert.Equal(t, "#bd0026", colorForWeight(0.8))
	assert.Equal(t, "#bd0026", colorForWeight(1))
}

func testMunicipality(weight float64) model.Municipality {
	geometry, _ := json.Marshal(map[string]any{
		"type": "Polygon",
		"coordinates": [][][]float64{{
			{8.0, 47.0}, {8.2, 47.0}, {8.2, 47.2}, {8.0, 47.2}, {8.0, 47.0},
		}},
	})
	income := 75857.0
	norm := 0.6
	return model.Municipality{
		BFSNumber:  "1",
		Name:       "Aeugst am Albis",
		Canton:     "ZH",
		Geometry:   geometry,
		Income:     &income,
		IncomeNorm: &norm,
		Weights:    map[string]float64{"kmu": weight},
	}
}

func TestMapRender_BaseMap(t *testing.T) {
	m := New("Geomarketing", swissCenter, 8, "", "")
	html, err := m.Render()
	require.NoError(t, err)

	s := string(html)
	assert.Contains(t, s, "<!DOCTYPE html>")
	assert.Contains(t, s, "L.map('map')")
	assert.Contains(t, s, "46.8")
	assert.Contains(t, s, "8.2")
	assert.Contains(t, s, "leaflet@1.9.4")
	// No overlays, no cluster plugin.
	assert.NotContains(t, s, "markercluster")
}

func TestMapRender_Choropleth(t *testing.T) {
	m := New("Geomarketing", swissCenter, 8, "", "")

	ch := NewChoropleth("KMU", "kmu", "KMU")
	require.NoError(t, ch.AddMunicipality(testMunicipality(0.85)))
	m.Add(ch)

	html, err := m.Render()
	require.NoError(t, err)

	s := string(html)
	assert.Contains(t, s, "L.geoJSON")
	assert.Contains(t, s, "Aeugst am Albis")
	assert.Contains(t, s, "#bd0026") // weight 0.85 -> top bin
	assert.Contains(t, s, "Einkommen: 75857 CHF")
	assert.Contains(t, s, "bindTooltip")
	assert.Contains(t, s, "legend")
}

func TestChoropleth_NoIncomeShadedGray(t *testing.T) {
	muni := testMunicipality(0.85)
	muni.Income = nil
	muni.IncomeNorm = nil

	ch := NewChoropleth("KMU", "kmu", "KMU")
	require.NoError(t, ch.AddMunicipality(muni))

	s, err := ch.Script()
	require.NoError(t, err)
	assert.Contains(t, string(s), "#bdbdbd")
	assert.Contains(t, string(s), "Einkommen: N/A")
	assert.NotContains(t, string(s), `"color":"#bd0026"`)
}

func TestChoropleth_SkipsMissingGeometry(t *testing.T) {
	ch := NewChoropleth("KMU", "kmu", "KMU")
	require.NoError(t, ch.AddMunicipality(model.Municipality{BFSNumber: "2", Name: "Ohne Grenzen"}))
	assert.Empty(t, ch.features)
}

func TestChoropleth_BadGeometry(t *testing.T) {
	ch := NewChoropleth("KMU", "kmu", "KMU")
	err := ch.AddMunicipality(model.Municipality{
		BFSNumber: "3",
		Geometry:  json.RawMessage(`{"not":"geojson"`),
	})
	assert.Error(t, err)
}

func TestMapRender_MarkerGroups(t *testing.T) {
	m := New("Geomarketing", swissCenter, 8, "", "")

	hs := NewMarkerGroup("Hotspots", "red", false)
	hs.AddSite(model.PointSite{Name: "Hotspot <1>", Type: "Public WiFi", Latitude: 47.38, Longitude: 8.54})
	m.Add(hs)

	rating := 4.3
	comp := NewMarkerGroup("Wettbewerber", "purple", true)
	comp.AddCompetitor(model.Competitor{
		Name: "Muster AG", Address: "Bahnhofstrasse 12",
		Types: []string{"accounting"}, Rating: &rating,
		Latitude: 47.28, Longitude: 8.45,
	})
	m.Add(comp)

	html, err := m.Render()
	require.NoError(t, err)

	s := string(html)
	assert.Contains(t, s, "L.circleMarker")
	assert.Contains(t, s, `"red"`)
	assert.Contains(t, s, `"purple"`)
	// Popup content is HTML-escaped before JSON encoding.
	assert.Contains(t, s, `Hotspot &lt;1&gt;`)
	// Clustered layer pulls in the plugin.
	assert.Contains(t, s, "markercluster")
	assert.Contains(t, s, "L.markerClusterGroup()")
	assert.Contains(t, s, "Bewertung: 4.3")
}

func TestComposeSegmentMap(t *testing.T) {
	seg, ok := segment.ByKey("kmu")
	require.True(t, ok)

	m, err := ComposeSegmentMap(ComposeInput{
		Segment:        seg,
		Municipalities: []model.Municipality{testMunicipality(0.4)},
		Hotspots:       []model.PointSite{{Name: "H", Latitude: 47.3, Longitude: 8.5}},
		Advertising:    []model.PointSite{{Name: "A", Latitude: 47.3, Longitude: 8.5}},
		Competitors:    []model.Competitor{{Name: "C", Latitude: 47.3, Longitude: 8.5}},
		Center:         swissCenter,
		Zoom:           8,
	})
	require.NoError(t, err)

	html, err := m.Render()
	require.NoError(t, err)

	s := string(html)
	assert.Contains(t, s, "Hotspots")
	assert.Contains(t, s, "Werbefl")
	assert.Contains(t, s, "Wettbewerber")
	assert.Contains(t, s, "KMU")
}

func TestComposeSegmentMap_EmptyLayersOmitted(t *testing.T) {
	seg, _ := segment.ByKey("kmu")
	m, err := ComposeSegmentMap(ComposeInput{
		Segment: seg,
		Center:  swissCenter,
		Zoom:    8,
	})
	require.NoError(t, err)

	html, err := m.Render()
	require.NoError(t, err)

	s := string(html)
	assert.NotContains(t, s, "Hotspots")
	assert.NotContains(t, s, "markercluster")
}
