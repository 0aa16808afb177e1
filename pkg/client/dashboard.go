package client

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
)

type (
	AggregateMetrics   = survey.AggregateMetrics
	DistributionResult = survey.DistributionResult
	YearRow            = survey.YearRow
	AgeBucket          = survey.AgeBucket
	FilterOptions      = survey.FilterOptions
	CoverageTable      = survey.CoverageTable
	RecordCompletion   = survey.RecordCompletion
	WaterBodyRow       = survey.WaterBodyRow
)

// CompletionReport holds per-record completion and their mean.
type CompletionReport struct {
	Records []RecordCompletion `json:"records"`
	Average float64            `json:"average"`
}

// ExportResult points at a generated workbook.
type ExportResult struct {
	ObjectKey string    `json:"objectKey"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DashboardClient fetches the server-computed dashboard views.
type DashboardClient struct {
	client *Client
}

func (d *DashboardClient) view(ctx context.Context, name string, f Filter, dest interface{}) error {
	return d.client.get(ctx, withQuery("/api/v1/dashboard/"+name, filterQuery(f)), dest)
}

func (d *DashboardClient) Metrics(ctx context.Context, f Filter) (*AggregateMetrics, error) {
	var m AggregateMetrics
	if err := d.view(ctx, "metrics", f, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (d *DashboardClient) Distribution(ctx context.Context, f Filter) (*DistributionResult, error) {
	var r DistributionResult
	if err := d.view(ctx, "distribution", f, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DashboardClient) YearSeries(ctx context.Context, f Filter) ([]YearRow, error) {
	rows := []YearRow{}
	if err := d.view(ctx, "year-series", f, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *DashboardClient) Pyramid(ctx context.Context, f Filter) ([]AgeBucket, error) {
	var buckets []AgeBucket
	if err := d.view(ctx, "pyramid", f, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

func (d *DashboardClient) Completion(ctx context.Context, f Filter) (*CompletionReport, error) {
	var r CompletionReport
	if err := d.view(ctx, "completion", f, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Filters returns the district, block, GP and year choices available under f.
func (d *DashboardClient) Filters(ctx context.Context, f Filter) (*FilterOptions, error) {
	var o FilterOptions
	if err := d.view(ctx, "filters", f, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (d *DashboardClient) Coverage(ctx context.Context, f Filter) (*CoverageTable, error) {
	var t CoverageTable
	if err := d.view(ctx, "coverage", f, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// WaterBodies lists the water bodies under f. A non-blank village keeps one
// village, matched ignoring case.
func (d *DashboardClient) WaterBodies(ctx context.Context, f Filter, village string) ([]WaterBodyRow, error) {
	q := filterQuery(f)
	if v := strings.TrimSpace(village); v != "" {
		q.Set("village", v)
	}
	rows := []WaterBodyRow{}
	if err := d.client.get(ctx, withQuery("/api/v1/dashboard/water-bodies", q), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Export asks the server to render the filtered dataset as a workbook and
// returns a presigned download link. Servers without object storage answer
// with HTTP 503.
func (d *DashboardClient) Export(ctx context.Context, f Filter) (*ExportResult, error) {
	var r ExportResult
	if err := d.client.post(ctx, withQuery("/api/v1/dashboard/export", filterQuery(f)), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

//Personal.AI order the ending
