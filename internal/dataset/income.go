package dataset

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/alpenmark/geomarket/internal/model"
)

// IncomeRow is one municipality row of the FSO taxable-income dataset.
type IncomeRow struct {
	RegionID    string
	Name        string
	TotalMio    float64 // steuerbares Einkommen, in Mio. Franken
	PerTaxpayer float64 // steuerbares Einkommen pro Steuerpflichtigem/-r, CHF
}

// ReadIncomeCSV parses the FSO income export. The file carries banner and
// header rows before the data, a country-level "Schweiz" row, quoted
// numbers with thousands separators, and `X` placeholders where values are
// statistically suppressed. All of those are skipped; only clean
// municipality rows are returned.
func ReadIncomeCSV(r io.Reader) ([]IncomeRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []IncomeRow
	var skipped int

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read income row")
		}
		if len(rec) < 4 {
			skipped++
			continue
		}

		id := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		if id == "" || name == "" || name == "Schweiz" {
			skipped++
			continue
		}
		// Header and banner rows have non-numeric region ids.
		if _, err := strconv.Atoi(id); err != nil {
			skipped++
			continue
		}

		total, errTotal := parseSwissNumber(rec[2])
		per, errPer := parseSwissNumber(rec[3])
		if errPer != nil {
			// Suppressed income (`X`) disqualifies the row entirely; a
			// missing total alone does not.
			skipped++
			continue
		}
		if errTotal != nil {
			total = 0
		}

		rows = append(rows, IncomeRow{
			RegionID:    id,
			Name:        name,
			TotalMio:    total,
			PerTaxpayer: per,
		})
	}

	if skipped > 0 {
		zap.L().Debug("dataset: skipped income rows", zap.Int("skipped", skipped))
	}
	if len(rows) == 0 {
		return nil, eris.New("dataset: income CSV contained no usable rows")
	}
	return rows, nil
}

// parseSwissNumber parses a number that may carry quotes and thousands
// separators, e.g. `"309,266"` or `79'015`.
func parseSwissNumber(s string) (float64, error) {
	n := strings.TrimSpace(s)
	n = strings.ReplaceAll(n, `"`, "")
	n = strings.ReplaceAll(n, ",", "")
	n = strings.ReplaceAll(n, "'", "")
	if n == "" {
		return 0, eris.New("dataset: empty number")
	}
	v, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "dataset: parse number %q", s)
	}
	return v, nil
}

// MergeIncome attaches per-taxpayer income to municipalities by fuzzy name
// matching, then min-max normalizes the matched values into [0,1].
// Municipalities with no match at or above threshold keep nil income.
// Returns the number of matched municipalities.
func MergeIncome(munis []model.Municipality, rows []IncomeRow, threshold float64) int {
	if len(munis) == 0 || len(rows) == 0 {
		return 0
	}

	candidates := make([]string, len(rows))
	for i, row := range rows {
		candidates[i] = row.Name
	}

	var matched int
	for i := range munis {
		idx, score := BestMatch(munis[i].Name, candidates)
		if idx < 0 || score < threshold {
			continue
		}
		income := rows[idx].PerTaxpayer
		munis[i].Income = &income
		matched++
	}

	normalizeIncome(munis)
	return matched
}

// normalizeIncome scales matched income values to [0,1]. With a single
// distinct value everything maps to 0, mirroring the original behavior.
func normalizeIncome(munis []model.Municipality) {
	var min, max float64
	first := true
	for i := range munis {
		if munis[i].Income == nil {
			continue
		}
		v := *munis[i].Income
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if first {
		return
	}

	span := max - min
	for i := range munis {
		if munis[i].Income == nil {
			continue
		}
		var norm float64
		if span > 0 {
			norm = (*munis[i].Income - min) / span
		}
		munis[i].IncomeNorm = &norm
	}
}
