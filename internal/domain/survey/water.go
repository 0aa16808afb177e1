package survey

import "strings"

// WaterBodyRow is one water body listed in a survey.
type WaterBodyRow struct {
	GPName        string `json:"gpName"`
	FinancialYear string `json:"financialYear"`
	Village       string `json:"village"`
	Name          string `json:"name,omitempty"`
	Type          string `json:"type,omitempty"`
	Fields        Fields `json:"fields,omitempty"`
}

// WaterBodies lists the water bodies of records in record order, then by
// village. A non-blank village keeps only the bodies of villages with that
// name, compared ignoring case and surrounding whitespace.
func WaterBodies(records []SurveyRecord, village string) []WaterBodyRow {
	out := []WaterBodyRow{}
	village = strings.TrimSpace(village)
	for _, r := range records {
		bodies := NormalizeRecord(r).Water.Bodies
		for _, name := range sortedKeys(bodies) {
			if village != "" && !SameVillage(name, village) {
				continue
			}
			for _, e := range bodies[name] {
				out = append(out, WaterBodyRow{
					GPName:        strings.TrimSpace(r.GPName),
					FinancialYear: strings.TrimSpace(r.FinancialYear),
					Village:       name,
					Name:          e.Name,
					Type:          e.Type,
					Fields:        e.Fields,
				})
			}
		}
	}
	return out
}

//Personal.AI order the ending
