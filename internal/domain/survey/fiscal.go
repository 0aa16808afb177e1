package survey

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultFiscalStartYear is the first financial year the survey programme covers.
const DefaultFiscalStartYear = 2020

// FiscalYearLabel renders the label of the financial year starting in April of start.
func FiscalYearLabel(start int) string {
	return fmt.Sprintf("%d-%d", start, start+1)
}

// FiscalYearStart returns the calendar year in which the financial year
// containing asOf began. Financial years run April through March.
func FiscalYearStart(asOf time.Time) int {
	if asOf.Month() >= time.April {
		return asOf.Year()
	}
	return asOf.Year() - 1
}

// CurrentFiscalYear returns the label of the financial year containing asOf.
func CurrentFiscalYear(asOf time.Time) string {
	return FiscalYearLabel(FiscalYearStart(asOf))
}

// EnumerateFiscalYears lists the financial years from startYear through one
// year past the current one, in ascending order. A non-positive startYear
// means DefaultFiscalStartYear. The list is empty when startYear lies beyond
// that range.
func EnumerateFiscalYears(startYear int, asOf time.Time) []string {
	if startYear <= 0 {
		startYear = DefaultFiscalStartYear
	}
	last := FiscalYearStart(asOf) + 1
	if startYear > last {
		return []string{}
	}
	out := make([]string, 0, last-startYear+1)
	for y := startYear; y <= last; y++ {
		out = append(out, FiscalYearLabel(y))
	}
	return out
}

// ParseFiscalYear validates a "YYYY-YYYY" label of consecutive years and
// returns its start year.
func ParseFiscalYear(label string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 || !isYear(parts[0]) || !isYear(parts[1]) {
		return 0, false
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil || end != start+1 {
		return 0, false
	}
	return start, true
}

func isYear(s string) bool {
	if len(s) != 4 || s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
