package survey

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AggregateMetrics are the dashboard totals over a record set.
type AggregateMetrics struct {
	TotalPopulation       float64 `json:"totalPopulation"`
	TotalHouseholds       float64 `json:"totalHouseholds"`
	TotalSchools          int     `json:"totalSchools"`
	TotalTeachers         float64 `json:"totalTeachers"`
	TotalStudents         float64 `json:"totalStudents"`
	TotalMigrants         float64 `json:"totalMigrants"`
	TotalMGNREGSCards     float64 `json:"totalMgnregsCards"`
	TotalRevenue          float64 `json:"totalRevenue"`
	TotalWaterBodies      int     `json:"totalWaterBodies"`
	TotalForestArea       float64 `json:"totalForestArea"`
	TotalAgriculturalArea float64 `json:"totalAgriculturalArea"`

	GPCount              int     `json:"gpCount"`
	RecordCount          int     `json:"recordCount"`
	DataSubmissionRate   float64 `json:"dataSubmissionRate"`
	AverageHouseholdSize float64 `json:"averageHouseholdSize"`
	CompletedSubmissions int     `json:"completedSubmissions"`

	DataQuality Diagnostics `json:"dataQuality"`
}

// Aggregate sums the normalized content of records. Missing categories and
// unparseable leaves contribute zero; an empty input yields all zeros.
// Villages are visited in name order so repeated calls add the same floats in
// the same order and return identical totals.
func Aggregate(records []SurveyRecord) AggregateMetrics {
	var m AggregateMetrics
	revenue := decimal.Zero
	gps := make(map[string]struct{})
	for _, r := range records {
		m.RecordCount++
		gps[strings.TrimSpace(r.GPName)] = struct{}{}
		if Score(r).IsComplete() {
			m.CompletedSubmissions++
		}

		n := NormalizeRecord(r)
		m.DataQuality.Add(n.Diagnostics)

		for _, name := range sortedKeys(n.Demographics) {
			v := n.Demographics[name]
			m.TotalPopulation += v.TotalPopulation
			m.TotalHouseholds += v.Households
		}
		for _, name := range sortedKeys(n.Education) {
			schools := n.Education[name].Schools
			m.TotalSchools += len(schools)
			for _, s := range schools {
				m.TotalTeachers += s.Teachers()
				m.TotalStudents += s.Students
			}
		}
		for _, name := range sortedKeys(n.Migration) {
			v := n.Migration[name]
			m.TotalMigrants += v.Migrants()
			m.TotalMGNREGSCards += v.MGNREGSCardHolders
		}
		revenue = revenue.Add(n.Finances.Total())
		m.TotalWaterBodies += n.Water.BodyCount()
		for _, name := range sortedKeys(n.LandUse.Rows) {
			row := n.LandUse.Rows[name]
			m.TotalForestArea += row.ForestArea
			m.TotalAgriculturalArea += row.CultivableArea
		}
	}
	m.TotalRevenue = revenue.InexactFloat64()
	m.GPCount = len(gps)
	if m.GPCount > 0 {
		m.DataSubmissionRate = float64(m.RecordCount) / float64(m.GPCount) * 100
	}
	if m.TotalHouseholds > 0 {
		m.AverageHouseholdSize = m.TotalPopulation / m.TotalHouseholds
	}
	return m
}

//Personal.AI order the ending
