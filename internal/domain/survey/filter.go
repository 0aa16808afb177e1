package survey

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// All is the wildcard selection of a filter dimension.
const All = "all"

// FilterState is the current district/block/GP/year selection of a dashboard.
type FilterState struct {
	District string `json:"district"`
	Block    string `json:"block"`
	GP       string `json:"gp"`
	Year     string `json:"year"`
}

// NewFilterState returns a state with every dimension set to All.
func NewFilterState() FilterState {
	return FilterState{District: All, Block: All, GP: All, Year: All}
}

// Normalized maps blank selections to All and trims the rest.
func (s FilterState) Normalized() FilterState {
	return FilterState{
		District: selection(s.District),
		Block:    selection(s.Block),
		GP:       selection(s.GP),
		Year:     selection(s.Year),
	}
}

// Key is a stable string form of the state, used for memoization.
func (s FilterState) Key() string {
	n := s.Normalized()
	return strings.Join([]string{n.District, n.Block, n.GP, n.Year}, "|")
}

// WithDistrict selects a district and resets block and GP.
func (s FilterState) WithDistrict(district string) FilterState {
	s.District, s.Block, s.GP = selection(district), All, All
	return s
}

// WithBlock selects a block and resets GP.
func (s FilterState) WithBlock(block string) FilterState {
	s.Block, s.GP = selection(block), All
	return s
}

// WithGP selects a GP.
func (s FilterState) WithGP(gp string) FilterState {
	s.GP = selection(gp)
	return s
}

// WithYear selects a financial year. Location selections are kept.
func (s FilterState) WithYear(year string) FilterState {
	s.Year = selection(year)
	return s
}

// Matches reports whether r satisfies every non-wildcard dimension.
func (s FilterState) Matches(r SurveyRecord) bool {
	n := s.Normalized()
	return matchDim(n.District, r.District) &&
		matchDim(n.Block, r.Block) &&
		matchDim(n.GP, r.GPName) &&
		matchDim(n.Year, r.FinancialYear)
}

// Filter returns the records that match s, in input order.
func Filter(records []SurveyRecord, s FilterState) []SurveyRecord {
	return lo.Filter(records, func(r SurveyRecord, _ int) bool { return s.Matches(r) })
}

// FilterOptions are the values selectable in each dropdown.
type FilterOptions struct {
	Districts []string `json:"districts"`
	Blocks    []string `json:"blocks"`
	GPs       []string `json:"gps"`
	Years     []string `json:"years"`
	Villages  []string `json:"villages"`
}

// ResolveOptions derives the dropdown options from the full record set and
// the current selection. Districts and years are always unconstrained;
// blocks depend on the district, GPs on district and block. Villages are
// listed only once a GP is selected and span all of its years.
func ResolveOptions(all []SurveyRecord, s FilterState) FilterOptions {
	n := s.Normalized()
	blocks := lo.Filter(all, func(r SurveyRecord, _ int) bool {
		return matchDim(n.District, r.District)
	})
	gps := lo.Filter(blocks, func(r SurveyRecord, _ int) bool {
		return matchDim(n.Block, r.Block)
	})
	return FilterOptions{
		Districts: distinctSorted(all, func(r SurveyRecord) string { return r.District }),
		Blocks:    distinctSorted(blocks, func(r SurveyRecord) string { return r.Block }),
		GPs:       distinctSorted(gps, func(r SurveyRecord) string { return r.GPName }),
		Years:     distinctSorted(all, func(r SurveyRecord) string { return r.FinancialYear }),
		Villages:  villageOptions(gps, n.GP),
	}
}

// villageOptions lists the villages of gp once each, ignoring case, in the
// spelling first submitted.
func villageOptions(records []SurveyRecord, gp string) []string {
	out := []string{}
	if gp == All {
		return out
	}
	for _, r := range records {
		if !matchDim(gp, r.GPName) {
			continue
		}
		for _, name := range RecordVillageNames(r) {
			name = strings.TrimSpace(name)
			if name == "" || lo.ContainsBy(out, func(v string) bool { return SameVillage(v, name) }) {
				continue
			}
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return foldVillage(out[i]) < foldVillage(out[j]) })
	return out
}

func distinctSorted(records []SurveyRecord, field func(SurveyRecord) string) []string {
	values := lo.Uniq(lo.FilterMap(records, func(r SurveyRecord, _ int) (string, bool) {
		v := strings.TrimSpace(field(r))
		return v, v != ""
	}))
	sort.Strings(values)
	return values
}

func selection(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, All) {
		return All
	}
	return v
}

func matchDim(sel, value string) bool {
	return sel == All || sel == strings.TrimSpace(value)
}

//Personal.AI order the ending
