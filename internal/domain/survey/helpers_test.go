package survey

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newRecord(district, block, gp, year string, fd FormData) SurveyRecord {
	return SurveyRecord{
		GPName:        gp,
		District:      district,
		Block:         block,
		FinancialYear: year,
		SubmittedAt:   time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		FormData:      fd,
	}
}

func demographics(villages map[string]any) FormData {
	return FormData{"Demographics": villages}
}

func village(pop, households any) map[string]any {
	return map[string]any{"totalPopulation": pop, "households": households}
}

func decodeRecord(t *testing.T, raw string) SurveyRecord {
	t.Helper()
	var r SurveyRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return r
}

//Personal.AI order the ending
