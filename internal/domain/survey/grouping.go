package survey

import "strings"

// Granularity is the level a distribution is grouped at.
type Granularity string

const (
	GranularityDistrict Granularity = "district"
	GranularityBlock    Granularity = "block"
	GranularityVillage  Granularity = "village"
)

// GroupRow is one bar of a population distribution.
type GroupRow struct {
	Name       string  `json:"name"`
	Population float64 `json:"population"`
	Households float64 `json:"households"`
	GPCount    int     `json:"gpCount,omitempty"`
}

// DistributionResult is a titled population distribution.
type DistributionResult struct {
	Title       string      `json:"title"`
	Granularity Granularity `json:"granularity"`
	Rows        []GroupRow  `json:"rows"`
}

// GranularityFor picks the grouping level implied by a filter: villages of a
// selected GP, blocks of a selected district, otherwise districts.
func GranularityFor(s FilterState) Granularity {
	n := s.Normalized()
	switch {
	case n.GP != All:
		return GranularityVillage
	case n.District != All:
		return GranularityBlock
	default:
		return GranularityDistrict
	}
}

// Distribution groups the population of the records matching s at the
// granularity the filter implies. Rows are sorted by name.
func Distribution(records []SurveyRecord, s FilterState) DistributionResult {
	n := s.Normalized()
	g := GranularityFor(n)
	res := DistributionResult{Granularity: g, Rows: []GroupRow{}}
	switch g {
	case GranularityVillage:
		res.Title = "Village-wise Population Distribution (" + n.GP + ")"
	case GranularityBlock:
		res.Title = "Block-wise Population Distribution (" + n.District + ")"
	default:
		res.Title = "District-wise Population Distribution"
	}

	// Rows are keyed case-insensitively and named after their first spelling.
	rows := make(map[string]*GroupRow)
	gps := make(map[string]map[string]struct{})
	row := func(name string) (*GroupRow, string) {
		name = strings.TrimSpace(name)
		key := name
		if g == GranularityVillage {
			key = foldVillage(name)
		}
		if r, ok := rows[key]; ok {
			return r, key
		}
		r := &GroupRow{Name: name}
		rows[key] = r
		gps[key] = make(map[string]struct{})
		return r, key
	}

	for _, rec := range Filter(records, n) {
		norm := NormalizeRecord(rec)
		if g == GranularityVillage {
			for _, village := range sortedKeys(norm.Demographics) {
				d := norm.Demographics[village]
				r, _ := row(village)
				r.Population += d.TotalPopulation
				r.Households += d.Households
			}
			continue
		}
		name := rec.District
		if g == GranularityBlock {
			name = rec.Block
		}
		r, key := row(name)
		for _, village := range sortedKeys(norm.Demographics) {
			d := norm.Demographics[village]
			r.Population += d.TotalPopulation
			r.Households += d.Households
		}
		gps[key][strings.TrimSpace(rec.GPName)] = struct{}{}
	}

	for _, key := range sortedKeys(rows) {
		r := rows[key]
		if g != GranularityVillage {
			r.GPCount = len(gps[key])
		}
		res.Rows = append(res.Rows, *r)
	}
	return res
}

// YearRow is the per-financial-year population and migration series.
type YearRow struct {
	Year                    string  `json:"year"`
	MalePopulation          float64 `json:"malePopulation"`
	FemalePopulation        float64 `json:"femalePopulation"`
	SeasonalMigrantsMale    float64 `json:"seasonalMigrantsMale"`
	SeasonalMigrantsFemale  float64 `json:"seasonalMigrantsFemale"`
	PermanentMigrantsMale   float64 `json:"permanentMigrantsMale"`
	PermanentMigrantsFemale float64 `json:"permanentMigrantsFemale"`
}

// YearSeries groups records by financial year, ascending by label.
func YearSeries(records []SurveyRecord) []YearRow {
	byYear := make(map[string]*YearRow)
	for _, rec := range records {
		year := strings.TrimSpace(rec.FinancialYear)
		row, ok := byYear[year]
		if !ok {
			row = &YearRow{Year: year}
			byYear[year] = row
		}
		norm := NormalizeRecord(rec)
		for _, village := range sortedKeys(norm.Demographics) {
			d := norm.Demographics[village]
			row.MalePopulation += d.MalePopulation
			row.FemalePopulation += d.FemalePopulation
		}
		for _, village := range sortedKeys(norm.Migration) {
			m := norm.Migration[village]
			row.SeasonalMigrantsMale += m.SeasonalMale
			row.SeasonalMigrantsFemale += m.SeasonalFemale
			row.PermanentMigrantsMale += m.PermanentMale
			row.PermanentMigrantsFemale += m.PermanentFemale
		}
	}
	out := make([]YearRow, 0, len(byYear))
	for _, y := range sortedKeys(byYear) {
		out = append(out, *byYear[y])
	}
	return out
}

// AgeBucket is one band of the population pyramid.
type AgeBucket struct {
	Band   string  `json:"band"`
	Male   float64 `json:"male"`
	Female float64 `json:"female"`
}

// Age bands of the population pyramid, youngest first.
const (
	AgeBand0To14  = "0-14"
	AgeBand15To60 = "15-60"
	AgeBand60Plus = "60+"
)

// PopulationPyramid sums age-group counts into the three fixed bands.
func PopulationPyramid(records []SurveyRecord) []AgeBucket {
	out := []AgeBucket{{Band: AgeBand0To14}, {Band: AgeBand15To60}, {Band: AgeBand60Plus}}
	for _, rec := range records {
		demo := NormalizeRecord(rec).Demographics
		for _, village := range sortedKeys(demo) {
			d := demo[village]
			out[0].Male += d.Age0To14Male
			out[0].Female += d.Age0To14Female
			out[1].Male += d.Age15To60Male
			out[1].Female += d.Age15To60Female
			out[2].Male += d.Age60PlusMale
			out[2].Female += d.Age60PlusFemale
		}
	}
	return out
}

//Personal.AI order the ending
