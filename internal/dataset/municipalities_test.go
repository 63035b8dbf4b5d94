package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMunicipalitiesCSV(t *testing.T) {
	csv := strings.Join([]string{
		"BFS-Nr,Gemeindename,Kantonskürzel,Latitude,Longitude,Einwohner,Extra",
		"1,Aeugst am Albis,ZH,47.2678,8.4867,2000,x",
		"2,Affoltern am Albis,ZH,47.2772,8.4514,12600,y",
		",Leere Zeile,ZH,47.0,8.0,0,",
		"4,Kaputt,ZH,not-a-number,8.0,0,",
	}, "\n")

	munis, err := ReadMunicipalitiesCSV(strings.NewReader(csv))
	require.NoError(t, err)

	// The row without a BFS number and the one with a bad coordinate
	// are skipped.
	require.Len(t, munis, 2)

	assert.Equal(t, "1", munis[0].BFSNumber)
	assert.Equal(t, "Aeugst am Albis", munis[0].Name)
	assert.Equal(t, "ZH", munis[0].Canton)
	assert.InDelta(t, 47.2678, munis[0].Latitude, 1e-9)
	assert.InDelta(t, 8.4867, munis[0].Longitude, 1e-9)
	assert.Equal(t, 2000, munis[0].Population)
}

func TestReadMunicipalitiesCSV_BOMHeader(t *testing.T) {
	csv := "\uFEFFbfs-nr,gemeindename,latitude,longitude\n261,Zürich,47.3769,8.5417\n"

	munis, err := ReadMunicipalitiesCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, munis, 1)
	assert.Equal(t, "Zürich", munis[0].Name)
}

func TestReadMunicipalitiesCSV_MissingColumn(t *testing.T) {
	_, err := ReadMunicipalitiesCSV(strings.NewReader("bfs-nr,gemeindename\n1,Test\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestReadMunicipalitiesCSV_NoUsableRows(t *testing.T) {
	_, err := ReadMunicipalitiesCSV(strings.NewReader("bfs-nr,gemeindename,latitude,longitude\n"))
	assert.Error(t, err)
}
