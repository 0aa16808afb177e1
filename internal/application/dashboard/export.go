package dashboard

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/storage/minio"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// XLSXContentType is the media type of generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook sheet names.
const (
	SheetMetrics      = "Metrics"
	SheetDistribution = "Distribution"
	SheetCompletion   = "Completion"
	SheetCoverage     = "Coverage"
)

// ExportStore persists workbooks and hands out download links.
type ExportStore interface {
	Put(ctx context.Context, req *minio.UploadRequest) (*minio.UploadResult, error)
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// ExportResult locates a stored workbook.
type ExportResult struct {
	ObjectKey string    `json:"objectKey"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var ErrExportsDisabled = errors.New(errors.ErrCodeServiceUnavailable, "export storage is not configured")

// Export renders the metrics, distribution, completion and coverage views of
// f into one workbook and stores it.
func (s *serviceImpl) Export(ctx context.Context, f survey.FilterState) (res *ExportResult, err error) {
	if s.exports == nil {
		return nil, ErrExportsDisabled
	}
	start := time.Now()
	defer func() {
		prometheus.RecordExport(s.metrics, err, time.Since(start))
	}()

	// Every sheet is computed from one snapshot so a concurrent write cannot
	// leave the workbook mixing dataset versions.
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	metrics, err := s.metricsAt(ctx, snap, f)
	if err != nil {
		return nil, err
	}
	dist, err := s.distributionAt(ctx, snap, f)
	if err != nil {
		return nil, err
	}
	completion, err := s.completionAt(ctx, snap, f)
	if err != nil {
		return nil, err
	}
	coverage, err := s.coverageAt(ctx, snap, f)
	if err != nil {
		return nil, err
	}

	data, err := BuildWorkbook(metrics, dist, completion, coverage)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	key := s.config.ExportPrefix + "/" + now.Format("2006/01/02") + "/" + uuid.New().String() + ".xlsx"
	n := f.Normalized()
	up, err := s.exports.Put(ctx, &minio.UploadRequest{
		ObjectKey:   key,
		Data:        data,
		ContentType: XLSXContentType,
		Metadata: map[string]string{
			"district": n.District,
			"block":    n.Block,
			"gp":       n.GP,
			"year":     n.Year,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "failed to store workbook")
	}

	url, err := s.exports.PresignedURL(ctx, key, s.config.PresignExpiry)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExportFailed, "failed to sign workbook url")
	}

	expiry := s.config.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	s.logger.Info("dashboard exported",
		logging.String("object", key),
		logging.Int64("size", up.Size),
		logging.District(n.District))
	return &ExportResult{ObjectKey: key, URL: url, Size: up.Size, ExpiresAt: now.Add(expiry)}, nil
}

// BuildWorkbook renders the views into XLSX bytes.
func BuildWorkbook(m *survey.AggregateMetrics, dist *survey.DistributionResult, completion *CompletionReport, coverage *survey.CoverageTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMetrics); err != nil {
		return nil, workbookErr(err)
	}
	for _, name := range []string{SheetDistribution, SheetCompletion, SheetCoverage} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, workbookErr(err)
		}
	}

	rows := [][]interface{}{{"Metric", "Value", "Display"}}
	rows = append(rows, metricRows(m)...)
	if err := writeRows(f, SheetMetrics, rows); err != nil {
		return nil, err
	}

	rows = [][]interface{}{{dist.Title, string(dist.Granularity)}, {"Name", "Population", "Households", "GPs"}}
	for _, r := range dist.Rows {
		rows = append(rows, []interface{}{r.Name, r.Population, r.Households, r.GPCount})
	}
	if err := writeRows(f, SheetDistribution, rows); err != nil {
		return nil, err
	}

	header := []interface{}{"District", "Block", "GP", "Financial Year", "Filled", "Completion %"}
	for _, c := range survey.AllCategories {
		header = append(header, c.Label())
	}
	rows = [][]interface{}{header}
	for _, r := range completion.Records {
		row := []interface{}{r.District, r.Block, r.GPName, r.FinancialYear, r.Filled, r.Percentage}
		for _, c := range survey.AllCategories {
			mark := ""
			if r.PerCategory[c] {
				mark = "Y"
			}
			row = append(row, mark)
		}
		rows = append(rows, row)
	}
	rows = append(rows, []interface{}{"Average", "", "", "", "", completion.Average})
	if err := writeRows(f, SheetCompletion, rows); err != nil {
		return nil, err
	}

	header = []interface{}{"District", "Block", "GP"}
	for _, y := range coverage.Years {
		header = append(header, y)
	}
	header = append(header, "Submitted", "Last Updated")
	rows = [][]interface{}{header}
	for _, r := range coverage.Rows {
		row := []interface{}{r.District, r.Block, r.GPName}
		for _, y := range coverage.Years {
			mark := ""
			if r.Submitted[y] {
				mark = "Y"
			}
			row = append(row, mark)
		}
		last := ""
		if !r.LastTouched.IsZero() {
			last = r.LastTouched.UTC().Format(time.RFC3339)
		}
		row = append(row, r.Count, last)
		rows = append(rows, row)
	}
	if err := writeRows(f, SheetCoverage, rows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, workbookErr(err)
	}
	return buf.Bytes(), nil
}

func metricRows(m *survey.AggregateMetrics) [][]interface{} {
	num := func(label string, v float64) []interface{} {
		return []interface{}{label, v, survey.FormatIndianNumber(v)}
	}
	return [][]interface{}{
		num("Total Population", m.TotalPopulation),
		num("Total Households", m.TotalHouseholds),
		num("Schools", float64(m.TotalSchools)),
		num("Teachers", m.TotalTeachers),
		num("Students", m.TotalStudents),
		num("Migrants", m.TotalMigrants),
		num("MGNREGS Job Cards", m.TotalMGNREGSCards),
		{"Revenue", m.TotalRevenue, survey.FormatIndianCurrency(m.TotalRevenue)},
		num("Water Bodies", float64(m.TotalWaterBodies)),
		num("Forest Area", m.TotalForestArea),
		num("Agricultural Area", m.TotalAgriculturalArea),
		num("GPs", float64(m.GPCount)),
		num("Records", float64(m.RecordCount)),
		num("Completed Submissions", float64(m.CompletedSubmissions)),
		num("Average Household Size", m.AverageHouseholdSize),
		num("Data Submission Rate", m.DataSubmissionRate),
	}
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return workbookErr(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return workbookErr(err)
		}
	}
	return nil
}

func workbookErr(err error) error {
	return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to render workbook")
}

// assign stores v into the value dest points to.
func assign(dest interface{}, v interface{}) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return errors.New(errors.ErrCodeInternal, "destination must be a non-nil pointer")
	}
	vv := reflect.ValueOf(v)
	if !vv.IsValid() || !vv.Type().AssignableTo(dv.Elem().Type()) {
		return errors.New(errors.ErrCodeInternal, "computed view does not match destination")
	}
	dv.Elem().Set(vv)
	return nil
}

//Personal.AI order the ending
