package maprender

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	texttemplate "text/template"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"

	"github.com/alpenmark/geomarket/internal/model"
)

// ylOrRd is a five-class sequential color ramp used to shade polygons
// from low (pale yellow) to high (dark red) weight.
var ylOrRd = []string{"#ffffb2", "#fecc5c", "#fd8d3c", "#f03b20", "#bd0026"}

// colorNoData shades municipalities whose income could not be matched.
const colorNoData = "#bdbdbd"

// colorForWeight maps a weight in [0, 1] onto the ramp using fixed
// 0.2-wide bins.
func colorForWeight(w float64) string {
	switch {
	case w < 0.2:
		return ylOrRd[0]
	case w < 0.4:
		return ylOrRd[1]
	case w < 0.6:
		return ylOrRd[2]
	case w < 0.8:
		return ylOrRd[3]
	default:
		return ylOrRd[4]
	}
}

// Choropleth shades municipality polygons by their weight for a single
// segment and attaches a hover tooltip per polygon.
type Choropleth struct {
	LayerName   string
	SegmentKey  string
	LegendTitle string

	features []*geojson.Feature
}

// NewChoropleth creates an empty choropleth overlay for the given segment.
func NewChoropleth(layerName, segmentKey, legendTitle string) *Choropleth {
	return &Choropleth{LayerName: layerName, SegmentKey: segmentKey, LegendTitle: legendTitle}
}

// AddMunicipality appends one polygon. Municipalities without geometry
// are skipped silently; the caller filters if it wants to know.
func (c *Choropleth) AddMunicipality(m model.Municipality) error {
	if len(m.Geometry) == 0 {
		return nil
	}

	g, err := geojson.UnmarshalGeometry(m.Geometry)
	if err != nil {
		return eris.Wrapf(err, "maprender: parse geometry for %s", m.BFSNumber)
	}

	w := m.Weight(c.SegmentKey)
	color := colorForWeight(w)
	income := "N/A"
	if m.HasIncome() {
		income = fmt.Sprintf("%.0f CHF", *m.Income)
	} else {
		// No income match: shade gray so the gap is visible on the map.
		color = colorNoData
	}

	f := geojson.NewFeature(g)
	f.SetProperty("bfs", m.BFSNumber)
	f.SetProperty("name", m.Name)
	f.SetProperty("weight", w)
	f.SetProperty("color", color)
	f.SetProperty("tooltip", fmt.Sprintf("<b>%s</b> (%s)<br>BFS-Nr: %s<br>Einkommen: %s<br>Gewichtung: %.2f",
		template.HTMLEscapeString(m.Name), template.HTMLEscapeString(m.Canton), m.BFSNumber, income, w))
	c.features = append(c.features, f)
	return nil
}

func (c *Choropleth) Name() string    { return c.LayerName }
func (c *Choropleth) Clustered() bool { return false }

func (c *Choropleth) Script() (template.JS, error) {
	fc := geojson.NewFeatureCollection()
	fc.Features = c.features
	payload, err := fc.MarshalJSON()
	if err != nil {
		return "", eris.Wrap(err, "maprender: marshal choropleth features")
	}

	var buf bytes.Buffer
	err = choroplethTemplate.Execute(&buf, map[string]any{
		"Name":        jsString(c.LayerName),
		"LegendTitle": jsString(c.LegendTitle),
		"Payload":     template.JS(payload),
		"Colors":      template.JS(mustJSON(ylOrRd)),
	})
	if err != nil {
		return "", eris.Wrap(err, "maprender: execute choropleth template")
	}
	return template.JS(buf.String()), nil
}

// jsString encodes s as a quoted JavaScript string literal.
func jsString(s string) template.JS {
	return template.JS(mustJSON(s))
}

// mustJSON marshals v without HTML escaping; the output is embedded in
// script blocks, not HTML text, so &, < and > must survive verbatim.
func mustJSON(v any) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

var choroplethTemplate = texttemplate.Must(texttemplate.New("choropleth").Parse(`(function() {
	var data = {{.Payload}};
	var layer = L.geoJSON(data, {
		style: function(f) {
			return {fillColor: f.properties.color, color: '#555', weight: 1, fillOpacity: 0.7};
		},
		onEachFeature: function(f, l) {
			l.bindTooltip(f.properties.tooltip, {sticky: true});
		}
	}).addTo(map);
	overlays[{{.Name}}] = layer;

	var legend = L.control({position: 'bottomright'});
	legend.onAdd = function() {
		var div = L.DomUtil.create('div', 'legend');
		var colors = {{.Colors}};
		var bins = ['0.0–0.2', '0.2–0.4', '0.4–0.6', '0.6–0.8', '0.8–1.0'];
		div.innerHTML = '<b>' + {{.LegendTitle}} + '</b><br>';
		for (var i = 0; i < colors.length; i++) {
			div.innerHTML += '<i style="background:' + colors[i] + '"></i>' + bins[i] + '<br>';
		}
		return div;
	};
	legend.addTo(map);
})();`))
