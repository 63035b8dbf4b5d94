package dataset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFiles(t *testing.T) Files {
	t.Helper()
	dir := t.TempDir()
	return Files{
		MunicipalitiesCSV: filepath.Join(dir, "gemeinden.csv"),
		IncomeCSV:         filepath.Join(dir, "income.csv"),
		HotspotsGeoJSON:   filepath.Join(dir, "hotspots.geojson"),
		PublicityGeoJSON:  filepath.Join(dir, "publicity.geojson"),
		CompetitorsJSON:   filepath.Join(dir, "competitors.json"),
		MatchThreshold:    0.6,
	}
}

func TestWriteSampleDataAndLoad(t *testing.T) {
	files := sampleFiles(t)

	created, err := WriteSampleData(files, "")
	require.NoError(t, err)
	assert.Len(t, created, 5)

	ds, err := Load(context.Background(), files)
	require.NoError(t, err)

	assert.Len(t, ds.Municipalities, 11)
	assert.Len(t, ds.Hotspots, 20)
	assert.Len(t, ds.Publicity, 15)
	assert.Len(t, ds.Competitors, 2)

	// Every sample municipality appears in the income file under the
	// same name, so all of them match.
	assert.Equal(t, 11, ds.IncomeMatched)
	for _, m := range ds.Municipalities {
		assert.True(t, m.HasIncome(), "municipality %s should have income", m.Name)
	}
}

func TestWriteSampleData_KeepsExistingFiles(t *testing.T) {
	files := sampleFiles(t)

	first, err := WriteSampleData(files, "")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := WriteSampleData(files, "")
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestLoad_MissingOptionalFiles(t *testing.T) {
	files := sampleFiles(t)

	created, err := WriteSampleData(Files{MunicipalitiesCSV: files.MunicipalitiesCSV}, "")
	require.NoError(t, err)
	require.Len(t, created, 1)

	ds, err := Load(context.Background(), files)
	require.NoError(t, err)

	assert.Len(t, ds.Municipalities, 11)
	assert.Empty(t, ds.Hotspots)
	assert.Empty(t, ds.Publicity)
	assert.Empty(t, ds.Competitors)
	assert.Equal(t, 0, ds.IncomeMatched)
}

func TestLoad_MissingMunicipalities(t *testing.T) {
	files := sampleFiles(t)
	_, err := Load(context.Background(), files)
	assert.Error(t, err)
}

func TestRequiredFiles(t *testing.T) {
	files := sampleFiles(t)

	missing := RequiredFiles(files)
	assert.Len(t, missing, 4)

	_, err := WriteSampleData(files, "")
	require.NoError(t, err)
	assert.Empty(t, RequiredFiles(files))
}
