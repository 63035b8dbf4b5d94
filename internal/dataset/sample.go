package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/alpenmark/geomarket/internal/segment"
)

// sampleMunicipality seeds one register row of the sample dataset.
type sampleMunicipality struct {
	BFS        int
	Name       string
	Lat, Lng   float64
	Population int
	IncomeMio  int
	IncomePerT int
}

// The Knonaueramt municipalities make a compact, realistic sample: the
// names exercise the income fuzzy matching and the coordinates cluster
// around Zürich.
var sampleMunicipalities = []sampleMunicipality{
	{1, "Aeugst am Albis", 47.2678, 8.4867, 2000, 111, 115286},
	{2, "Affoltern am Albis", 47.2772, 8.4514, 12600, 412, 74896},
	{3, "Bonstetten", 47.3148, 8.4683, 5600, 231, 91023},
	{4, "Hausen am Albis", 47.2447, 8.5331, 3800, 164, 97382},
	{5, "Hedingen", 47.2983, 8.4486, 3800, 167, 94955},
	{6, "Kappel am Albis", 47.2294, 8.5256, 1200, 55, 97090},
	{7, "Knonau", 47.2236, 8.4622, 2400, 91, 86992},
	{8, "Maschwanden", 47.2353, 8.4303, 650, 22, 72427},
	{9, "Mettmenstetten", 47.2458, 8.4639, 5200, 221, 90336},
	{10, "Obfelden", 47.2631, 8.4206, 5600, 194, 79419},
	{11, "Ottenbach", 47.2833, 8.4058, 2800, 107, 83296},
}

// RequiredFiles reports which of the named input files are missing.
func RequiredFiles(files Files) []string {
	var missing []string
	for _, path := range []string{
		files.MunicipalitiesCSV,
		files.IncomeCSV,
		files.HotspotsGeoJSON,
		files.PublicityGeoJSON,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}

// WriteSampleData writes a small synthetic dataset for local testing.
// Existing files are left untouched; the returned list names the files
// actually created.
func WriteSampleData(files Files, segmentsYAML string) ([]string, error) {
	var created []string

	write := func(path string, gen func() ([]byte, error)) error {
		if path == "" {
			return nil
		}
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		data, err := gen()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return eris.Wrapf(err, "dataset: create dir for %s", path)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return eris.Wrapf(err, "dataset: write %s", path)
		}
		created = append(created, path)
		return nil
	}

	steps := []struct {
		path string
		gen  func() ([]byte, error)
	}{
		{files.MunicipalitiesCSV, sampleMunicipalitiesCSV},
		{files.IncomeCSV, sampleIncomeCSV},
		{files.HotspotsGeoJSON, func() ([]byte, error) { return samplePointLayer("Hotspot", "Public WiFi", 20, 7.5, 46.8, 0.3) }},
		{files.PublicityGeoJSON, func() ([]byte, error) { return samplePointLayer("Ad Space", "Billboard", 15, 7.8, 47.0, 0.25) }},
		{files.CompetitorsJSON, sampleCompetitorsJSON},
		{segmentsYAML, sampleSegmentsYAML},
	}
	for _, s := range steps {
		if err := write(s.path, s.gen); err != nil {
			return created, err
		}
	}
	return created, nil
}

func sampleMunicipalitiesCSV() ([]byte, error) {
	var b strings.Builder
	b.WriteString("bfs-nr,gemeindename,kantonskürzel,latitude,longitude,einwohner\n")
	for _, m := range sampleMunicipalities {
		fmt.Fprintf(&b, "%d,%s,ZH,%.4f,%.4f,%d\n", m.BFS, m.Name, m.Lat, m.Lng, m.Population)
	}
	return []byte(b.String()), nil
}

// sampleIncomeCSV replicates the FSO export shape: banner rows, a
// Schweiz summary row, then the per-municipality rows.
func sampleIncomeCSV() ([]byte, error) {
	var b strings.Builder
	b.WriteString(`"Durchschnittliches steuerbares Einkommen* pro Steuerpflichtigem/-r, 2020",,,27598` + "\n")
	b.WriteString(",,,\n")
	b.WriteString(`,,"Steuerbares Einkommen, in Mio. Franken","Steuerbares Einkommen pro Steuerpflichtigem/-r, in Franken"` + "\n")
	b.WriteString("Regions-ID,Regionsname,,\n")
	b.WriteString(",,,\n")
	b.WriteString(`,Schweiz,"309,266","79,015"` + "\n")
	for _, m := range sampleMunicipalities {
		fmt.Fprintf(&b, "%d,%s,%d,%d\n", m.BFS, m.Name, m.IncomeMio, m.IncomePerT)
	}
	return []byte(b.String()), nil
}

func samplePointLayer(namePrefix, typ string, n int, baseLng, baseLat, step float64) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i := 0; i < n; i++ {
		lng := baseLng + float64(i%5)*step
		lat := baseLat + float64(i/5)*step
		f := geojson.NewPointFeature([]float64{lng, lat})
		f.SetProperty("id", i)
		f.SetProperty("name", fmt.Sprintf("%s %d", namePrefix, i))
		f.SetProperty("type", typ)
		fc.AddFeature(f)
	}
	return fc.MarshalJSON()
}

func sampleCompetitorsJSON() ([]byte, error) {
	competitors := []map[string]any{
		{
			"name":              "Muster Treuhand AG",
			"formatted_address": "Bahnhofstrasse 12, 8910 Affoltern am Albis",
			"types":             []string{"accounting", "finance"},
			"rating":            4.3,
			"geometry":          map[string]any{"location": map[string]float64{"lat": 47.2770, "lng": 8.4510}},
		},
		{
			"name":              "Beispiel Marketing GmbH",
			"formatted_address": "Dorfstrasse 3, 8906 Bonstetten",
			"types":             []string{"marketing_agency"},
			"rating":            4.0,
			"geometry":          map[string]any{"location": map[string]float64{"lat": 47.3150, "lng": 8.4680}},
		},
	}
	return json.MarshalIndent(competitors, "", "  ")
}

func sampleSegmentsYAML() ([]byte, error) {
	return yaml.Marshal(segment.DefaultProfiles())
}
