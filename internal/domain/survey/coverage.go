package survey

import (
	"sort"
	"strings"
	"time"
)

// CoverageRow shows which financial years a GP has submitted.
type CoverageRow struct {
	GPName      string          `json:"gpName"`
	District    string          `json:"district"`
	Block       string          `json:"block"`
	Submitted   map[string]bool `json:"submitted"`
	Count       int             `json:"count"`
	LastTouched time.Time       `json:"lastTouched"`
}

// CoverageTable is the GP by financial-year submission grid.
type CoverageTable struct {
	Years []string      `json:"years"`
	Rows  []CoverageRow `json:"rows"`
}

// Coverage builds the submission grid over the fixed year columns from
// startYear up to one year past the financial year containing asOf. Years
// outside that range are still counted but get no column.
func Coverage(records []SurveyRecord, asOf time.Time, startYear int) CoverageTable {
	years := EnumerateFiscalYears(startYear, asOf)
	rows := make(map[string]*CoverageRow)
	seen := make(map[string]map[string]bool)
	for _, r := range records {
		key := strings.Join([]string{
			strings.TrimSpace(r.District), strings.TrimSpace(r.Block), strings.TrimSpace(r.GPName),
		}, "|")
		row, ok := rows[key]
		if !ok {
			row = &CoverageRow{
				GPName:    strings.TrimSpace(r.GPName),
				District:  strings.TrimSpace(r.District),
				Block:     strings.TrimSpace(r.Block),
				Submitted: make(map[string]bool, len(years)),
			}
			for _, y := range years {
				row.Submitted[y] = false
			}
			rows[key] = row
			seen[key] = make(map[string]bool)
		}
		year := strings.TrimSpace(r.FinancialYear)
		if _, ok := row.Submitted[year]; ok {
			row.Submitted[year] = true
		}
		if !seen[key][year] {
			seen[key][year] = true
			row.Count++
		}
		if t := r.LastTouched(); t.After(row.LastTouched) {
			row.LastTouched = t
		}
	}

	out := CoverageTable{Years: years, Rows: make([]CoverageRow, 0, len(rows))}
	for _, row := range rows {
		out.Rows = append(out.Rows, *row)
	}
	sort.Slice(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i], out.Rows[j]
		if a.District != b.District {
			return a.District < b.District
		}
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		return a.GPName < b.GPName
	})
	return out
}

//Personal.AI order the ending
