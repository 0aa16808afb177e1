package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/gpsurvey-insight/internal/application/dashboard"
	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
)

// viewFunc computes one dashboard view for the selected filter.
type viewFunc func(ctx context.Context, svc dashboard.Service, f survey.FilterState) (interface{}, error)

// newViewCmd builds a command that loads records, computes a view over them
// and prints it.
func newViewCmd(use, short, long string, view viewFunc) *cobra.Command {
	src := &sourceOptions{}
	filter := &filterOptions{}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			f, err := filter.state()
			if err != nil {
				return err
			}

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()

			records, err := src.load(ctx, cmd, cliCtx)
			if err != nil {
				return err
			}
			result, err := view(ctx, newOfflineService(cliCtx, records), f)
			if err != nil {
				return err
			}
			return PrintResult(cmd, result)
		},
	}
	src.bind(cmd)
	filter.bind(cmd)
	return cmd
}

func newAggregateCmd() *cobra.Command {
	return newViewCmd("aggregate", "Sum population, education, migration, finance and land totals",
		"Aggregate normalizes every selected record and prints the dashboard totals.",
		func(ctx context.Context, svc dashboard.Service, f survey.FilterState) (interface{}, error) {
			m, err := svc.Metrics(ctx, f)
			if err != nil {
				return nil, err
			}
			return metricsTable{m}, nil
		})
}

func newDistributionCmd() *cobra.Command {
	return newViewCmd("distribution", "Population by district, block or village",
		"Distribution groups the selection one level below the narrowest location chosen.",
		func(ctx context.Context, svc dashboard.Service, f survey.FilterState) (interface{}, error) {
			d, err := svc.Distribution(ctx, f)
			if err != nil {
				return nil, err
			}
			return distributionTable{d}, nil
		})
}

func newCompletionCmd() *cobra.Command {
	return newViewCmd("completion", "Score how many survey categories each record fills",
		"Completion lists every selected record with the share of its survey categories that hold data.",
		func(ctx context.Context, svc dashboard.Service, f survey.FilterState) (interface{}, error) {
			r, err := svc.Completion(ctx, f)
			if err != nil {
				return nil, err
			}
			return completionTable{r}, nil
		})
}

func newFiltersCmd() *cobra.Command {
	return newViewCmd("filters", "List the selectable districts, blocks, GPs and years",
		"Filters prints the dropdown options: blocks depend on the district, GPs on district and block,\nvillages on the selected GP.",
		func(ctx context.Context, svc dashboard.Service, f survey.FilterState) (interface{}, error) {
			o, err := svc.FilterOptions(ctx, f)
			if err != nil {
				return nil, err
			}
			return filtersTable{o}, nil
		})
}

func newCoverageCmd() *cobra.Command {
	return newViewCmd("coverage", "Show which financial years each GP has submitted",
		"Coverage prints the GP by financial-year submission grid.",
		func(ctx context.Context, svc dashboard.Service, f survey.FilterState) (interface{}, error) {
			t, err := svc.Coverage(ctx, f)
			if err != nil {
				return nil, err
			}
			return coverageTable{t}, nil
		})
}

// ─────────────────────────────────────────────────────────────────────────────
// Table renderings. JSON output marshals the embedded view unchanged.
// ─────────────────────────────────────────────────────────────────────────────

type metricsTable struct {
	*survey.AggregateMetrics
}

func (metricsTable) TableHeaders() []string { return []string{"METRIC", "VALUE"} }

func (t metricsTable) TableRows() [][]string {
	m := t.AggregateMetrics
	num := survey.FormatIndianNumber
	return [][]string{
		{"Total population", num(m.TotalPopulation)},
		{"Households", num(m.TotalHouseholds)},
		{"Average household size", num(m.AverageHouseholdSize)},
		{"Schools", strconv.Itoa(m.TotalSchools)},
		{"Teachers", num(m.TotalTeachers)},
		{"Students", num(m.TotalStudents)},
		{"Migrants", num(m.TotalMigrants)},
		{"MGNREGS job cards", num(m.TotalMGNREGSCards)},
		{"Revenue", survey.FormatIndianCurrency(m.TotalRevenue)},
		{"Water bodies", strconv.Itoa(m.TotalWaterBodies)},
		{"Forest area", num(m.TotalForestArea)},
		{"Agricultural area", num(m.TotalAgriculturalArea)},
		{"GPs", strconv.Itoa(m.GPCount)},
		{"Records", strconv.Itoa(m.RecordCount)},
		{"Completed submissions", strconv.Itoa(m.CompletedSubmissions)},
		{"Submission rate", percent(m.DataSubmissionRate)},
	}
}

type distributionTable struct {
	*survey.DistributionResult
}

func (t distributionTable) TableHeaders() []string {
	return []string{strings.ToUpper(string(t.Granularity)), "POPULATION", "HOUSEHOLDS", "GPS"}
}

func (t distributionTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, []string{
			r.Name,
			survey.FormatIndianNumber(r.Population),
			survey.FormatIndianNumber(r.Households),
			strconv.Itoa(r.GPCount),
		})
	}
	return rows
}

type completionTable struct {
	*dashboard.CompletionReport
}

func (completionTable) TableHeaders() []string {
	return []string{"DISTRICT", "BLOCK", "GP", "YEAR", "FILLED", "COMPLETE"}
}

func (t completionTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t.Records)+1)
	for _, r := range t.Records {
		rows = append(rows, []string{
			r.District, r.Block, r.GPName, r.FinancialYear,
			strconv.Itoa(r.Filled) + "/" + strconv.Itoa(len(survey.AllCategories)),
			percent(r.Percentage),
		})
	}
	return append(rows, []string{"", "", "", "average", "", percent(t.Average)})
}

type filtersTable struct {
	*survey.FilterOptions
}

func (filtersTable) TableHeaders() []string { return []string{"FILTER", "OPTIONS"} }

func (t filtersTable) TableRows() [][]string {
	rows := [][]string{
		{"district", strings.Join(t.Districts, ", ")},
		{"block", strings.Join(t.Blocks, ", ")},
		{"gp", strings.Join(t.GPs, ", ")},
		{"year", strings.Join(t.Years, ", ")},
	}
	if len(t.Villages) > 0 {
		rows = append(rows, []string{"village", strings.Join(t.Villages, ", ")})
	}
	return rows
}

type coverageTable struct {
	*survey.CoverageTable
}

func (t coverageTable) TableHeaders() []string {
	return append(append([]string{"DISTRICT", "BLOCK", "GP"}, t.Years...), "COUNT")
}

func (t coverageTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := []string{r.District, r.Block, r.GPName}
		for _, y := range t.Years {
			mark := "-"
			if r.Submitted[y] {
				mark = "x"
			}
			row = append(row, mark)
		}
		rows = append(rows, append(row, strconv.Itoa(r.Count)))
	}
	return rows
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

//Personal.AI order the ending
