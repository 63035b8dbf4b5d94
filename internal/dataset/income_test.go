package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpenmark/geomarket/internal/model"
)

const incomeFixture = `"Durchschnittliches steuerbares Einkommen* pro Steuerpflichtigem/-r, 2020",,,27598
,,,
,,"Steuerbares Einkommen, in Mio. Franken","Steuerbares Einkommen pro Steuerpflichtigem/-r, in Franken"
Regions-ID,Regionsname,,
,,,
,Schweiz,"309,266","79,015"
1,Aeugst am Albis,111,115286
2,Affoltern am Albis,412,74896
3,Bonstetten,231,91023
4,Geheimhausen,X,X
`

func TestReadIncomeCSV(t *testing.T) {
	rows, err := ReadIncomeCSV(strings.NewReader(incomeFixture))
	require.NoError(t, err)

	// Banner rows, the Schweiz summary, and the X-suppressed row are
	// all skipped.
	require.Len(t, rows, 3)

	assert.Equal(t, "1", rows[0].RegionID)
	assert.Equal(t, "Aeugst am Albis", rows[0].Name)
	assert.Equal(t, 111.0, rows[0].TotalMio)
	assert.Equal(t, 115286.0, rows[0].PerTaxpayer)
}

func TestReadIncomeCSV_Empty(t *testing.T) {
	_, err := ReadIncomeCSV(strings.NewReader(",Schweiz,1,2\n"))
	assert.Error(t, err)
}

func TestParseSwissNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`"309,266"`, 309266},
		{"79'015", 79015},
		{"115286", 115286},
		{" 42 ", 42},
	}
	for _, tt := range tests {
		got, err := parseSwissNumber(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	_, err := parseSwissNumber("X")
	assert.Error(t, err)
	_, err = parseSwissNumber("")
	assert.Error(t, err)
}

func TestMergeIncome(t *testing.T) {
	munis := []model.Municipality{
		{BFSNumber: "1", Name: "Aeugst am Albis"},
		{BFSNumber: "2", Name: "Affoltern am Albis"},
		{BFSNumber: "3", Name: "Niemandsdorf"},
	}
	rows := []IncomeRow{
		{Name: "Aeugst am Albis", PerTaxpayer: 115286},
		{Name: "Affoltern am Albis", PerTaxpayer: 74896},
	}

	matched := MergeIncome(munis, rows, 0.6)
	assert.Equal(t, 2, matched)

	require.NotNil(t, munis[0].Income)
	assert.Equal(t, 115286.0, *munis[0].Income)
	require.NotNil(t, munis[1].Income)
	assert.Equal(t, 74896.0, *munis[1].Income)
	assert.Nil(t, munis[2].Income)

	// Min-max normalization: highest income -> 1, lowest -> 0.
	require.NotNil(t, munis[0].IncomeNorm)
	assert.Equal(t, 1.0, *munis[0].IncomeNorm)
	require.NotNil(t, munis[1].IncomeNorm)
	assert.Equal(t, 0.0, *munis[1].IncomeNorm)
	assert.Nil(t, munis[2].IncomeNorm)
}

func TestMergeIncome_SingleValue(t *testing.T) {
	munis := []model.Municipality{{BFSNumber: "1", Name: "Knonau"}}
	rows := []IncomeRow{{Name: "Knonau", PerTaxpayer: 86992}}

	matched := MergeIncome(munis, rows, 0.6)
	assert.Equal(t, 1, matched)

	// A single distinct value normalizes to 0.
	require.NotNil(t, munis[0].IncomeNorm)
	assert.Equal(t, 0.0, *munis[0].IncomeNorm)
}
