package survey

import (
	"strings"
)

// CompletionFloor is reported when a record has content but none of it is
// recognized as a filled category. It equals one of eight categories.
const CompletionFloor = 12.5

// maxMeaningfulDepth bounds the walk over nested payloads.
const maxMeaningfulDepth = 16

// Completion is the fill state of one record.
type Completion struct {
	Percentage  float64           `json:"percentage"`
	Filled      int               `json:"filled"`
	PerCategory map[Category]bool `json:"perCategory"`
}

// IsComplete reports whether every category is filled.
func (c Completion) IsComplete() bool {
	return c.Filled == len(AllCategories)
}

// Score computes the completion of r from its raw payload.
func Score(r SurveyRecord) Completion {
	c := Completion{PerCategory: make(map[Category]bool, len(AllCategories))}
	for _, cat := range AllCategories {
		raw, ok := r.FormData.Lookup(cat)
		filled := ok && categoryFilled(cat, raw)
		c.PerCategory[cat] = filled
		if filled {
			c.Filled++
		}
	}
	c.Percentage = float64(c.Filled) / float64(len(AllCategories)) * 100
	if c.Filled == 0 && hasNonEmptyTopLevel(r.FormData) {
		c.Percentage = CompletionFloor
	}
	return c
}

// RecordCompletion pairs a record's identity with its completion.
type RecordCompletion struct {
	GPName        string `json:"gpName"`
	District      string `json:"district"`
	Block         string `json:"block"`
	FinancialYear string `json:"financialYear"`
	Completion
}

// ScoreAll scores records in order.
func ScoreAll(records []SurveyRecord) []RecordCompletion {
	out := make([]RecordCompletion, len(records))
	for i, r := range records {
		out[i] = RecordCompletion{
			GPName:        r.GPName,
			District:      r.District,
			Block:         r.Block,
			FinancialYear: r.FinancialYear,
			Completion:    Score(r),
		}
	}
	return out
}

// AverageCompletion is the mean percentage over scores, 0 for none.
func AverageCompletion(scores []RecordCompletion) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Percentage
	}
	return sum / float64(len(scores))
}

func categoryFilled(cat Category, raw any) bool {
	if cat == CategoryPanchayatFinances {
		if m := asMap(raw); m != nil {
			return financesOf(m, &Diagnostics{}).Reported()
		}
	}
	return meaningful(raw, 0)
}

// meaningful reports whether v carries at least one non-empty, non-zero leaf.
// Arrays count when they are non-empty.
func meaningful(v any, depth int) bool {
	if depth > maxMeaningfulDepth {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case []any:
		return len(t) > 0
	case map[string]any:
		for _, child := range t {
			if meaningful(child, depth+1) {
				return true
			}
		}
		return false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return false
		}
		if f, ok := parseLeaf(s); ok {
			return f != 0
		}
		return true
	case bool:
		return t
	default:
		f, ok := parseLeaf(t)
		return ok && f != 0
	}
}

func hasNonEmptyTopLevel(fd FormData) bool {
	for _, v := range fd {
		switch t := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(t) != "" {
				return true
			}
		case []any:
			if len(t) > 0 {
				return true
			}
		case map[string]any:
			if len(t) > 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

//Personal.AI order the ending
