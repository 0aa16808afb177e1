// Package dashboard serves the derived survey views: totals, distributions,
// year series, pyramid, completion, filter options, coverage and exports.
// Results are recomputed from the stored records and memoized per dataset
// version, so a cached view is always equal to a fresh computation.
package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// CacheKeyPrefix namespaces every memoized view.
const CacheKeyPrefix = "dashboard:"

// Service defines the dashboard read operations.
type Service interface {
	Metrics(ctx context.Context, s survey.FilterState) (*survey.AggregateMetrics, error)
	Distribution(ctx context.Context, s survey.FilterState) (*survey.DistributionResult, error)
	YearSeries(ctx context.Context, s survey.FilterState) ([]survey.YearRow, error)
	Pyramid(ctx context.Context, s survey.FilterState) ([]survey.AgeBucket, error)
	Completion(ctx context.Context, s survey.FilterState) (*CompletionReport, error)
	FilterOptions(ctx context.Context, s survey.FilterState) (*survey.FilterOptions, error)
	Coverage(ctx context.Context, s survey.FilterState) (*survey.CoverageTable, error)
	// WaterBodies lists the water bodies of the filtered records, limited to
	// one village when village is not blank.
	WaterBodies(ctx context.Context, s survey.FilterState, village string) ([]survey.WaterBodyRow, error)
	Export(ctx context.Context, s survey.FilterState) (*ExportResult, error)
	// Invalidate drops memoized views. Stale views are never served anyway;
	// this only reclaims cache space after writes.
	Invalidate(ctx context.Context) (int64, error)
}

// CompletionReport lists per-record completion and the mean over them.
type CompletionReport struct {
	Records []survey.RecordCompletion `json:"records"`
	Average float64                   `json:"average"`
}

// Cache is the subset of the redis cache the service memoizes through.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

// Config tunes the service.
type Config struct {
	FiscalStartYear int
	CacheTTL        time.Duration
	ExportPrefix    string
	PresignExpiry   time.Duration
}

// snapshot is the record set of one dataset version.
type snapshot struct {
	version string
	records []survey.SurveyRecord
}

type serviceImpl struct {
	repo    survey.Repository
	cache   Cache
	exports ExportStore
	metrics *prometheus.AppMetrics
	logger  logging.Logger
	config  Config
	now     func() time.Time

	mu      sync.RWMutex
	current *snapshot
	loads   singleflight.Group
}

// Option customizes the service.
type Option func(*serviceImpl)

// WithCache memoizes views in cache.
func WithCache(c Cache) Option { return func(s *serviceImpl) { s.cache = c } }

// WithExportStore enables Export.
func WithExportStore(e ExportStore) Option { return func(s *serviceImpl) { s.exports = e } }

// WithMetrics records aggregation metrics.
func WithMetrics(m *prometheus.AppMetrics) Option { return func(s *serviceImpl) { s.metrics = m } }

// WithClock overrides the time source used for coverage columns and export keys.
func WithClock(now func() time.Time) Option { return func(s *serviceImpl) { s.now = now } }

// NewService creates a dashboard service over repo.
func NewService(repo survey.Repository, logger logging.Logger, cfg Config, opts ...Option) Service {
	if cfg.FiscalStartYear == 0 {
		cfg.FiscalStartYear = 2020
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	cfg.ExportPrefix = strings.Trim(cfg.ExportPrefix, "/")
	if cfg.ExportPrefix == "" {
		cfg.ExportPrefix = "dashboard"
	}
	s := &serviceImpl{
		repo:   repo,
		logger: logger.Named("dashboard"),
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) Metrics(ctx context.Context, f survey.FilterState) (*survey.AggregateMetrics, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.metricsAt(ctx, snap, f)
}

func (s *serviceImpl) metricsAt(ctx context.Context, snap *snapshot, f survey.FilterState) (*survey.AggregateMetrics, error) {
	var out survey.AggregateMetrics
	err := s.viewAt(ctx, snap, "metrics", f, &out, func(all []survey.SurveyRecord) interface{} {
		m := survey.Aggregate(survey.Filter(all, f))
		s.reportDiagnostics(f, m.DataQuality)
		return m
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *serviceImpl) Distribution(ctx context.Context, f survey.FilterState) (*survey.DistributionResult, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.distributionAt(ctx, snap, f)
}

func (s *serviceImpl) distributionAt(ctx context.Context, snap *snapshot, f survey.FilterState) (*survey.DistributionResult, error) {
	var out survey.DistributionResult
	err := s.viewAt(ctx, snap, "distribution", f, &out, func(all []survey.SurveyRecord) interface{} {
		return survey.Distribution(all, f)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// YearSeries ignores the year selection; the series spans every year.
func (s *serviceImpl) YearSeries(ctx context.Context, f survey.FilterState) ([]survey.YearRow, error) {
	f = f.WithYear(survey.All)
	out := []survey.YearRow{}
	err := s.view(ctx, "year-series", f, &out, func(all []survey.SurveyRecord) interface{} {
		return survey.YearSeries(survey.Filter(all, f))
	})
	return out, err
}

func (s *serviceImpl) Pyramid(ctx context.Context, f survey.FilterState) ([]survey.AgeBucket, error) {
	out := []survey.AgeBucket{}
	err := s.view(ctx, "pyramid", f, &out, func(all []survey.SurveyRecord) interface{} {
		return survey.PopulationPyramid(survey.Filter(all, f))
	})
	return out, err
}

func (s *serviceImpl) Completion(ctx context.Context, f survey.FilterState) (*CompletionReport, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.completionAt(ctx, snap, f)
}

func (s *serviceImpl) completionAt(ctx context.Context, snap *snapshot, f survey.FilterState) (*CompletionReport, error) {
	var out CompletionReport
	err := s.viewAt(ctx, snap, "completion", f, &out, func(all []survey.SurveyRecord) interface{} {
		scores := survey.ScoreAll(survey.Filter(all, f))
		return CompletionReport{Records: scores, Average: survey.AverageCompletion(scores)}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *serviceImpl) FilterOptions(ctx context.Context, f survey.FilterState) (*survey.FilterOptions, error) {
	var out survey.FilterOptions
	err := s.view(ctx, "filters", f, &out, func(all []survey.SurveyRecord) interface{} {
		return survey.ResolveOptions(all, f)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Coverage ignores the year selection; its columns are the fixed year range.
func (s *serviceImpl) Coverage(ctx context.Context, f survey.FilterState) (*survey.CoverageTable, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.coverageAt(ctx, snap, f)
}

func (s *serviceImpl) coverageAt(ctx context.Context, snap *snapshot, f survey.FilterState) (*survey.CoverageTable, error) {
	f = f.WithYear(survey.All)
	asOf := s.now()
	var out survey.CoverageTable
	// The column set moves with the financial year, so it is part of the key.
	view := "coverage:" + survey.CurrentFiscalYear(asOf)
	err := s.viewAt(ctx, snap, view, f, &out, func(all []survey.SurveyRecord) interface{} {
		return survey.Coverage(survey.Filter(all, f), asOf, s.config.FiscalStartYear)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *serviceImpl) WaterBodies(ctx context.Context, f survey.FilterState, village string) ([]survey.WaterBodyRow, error) {
	out := []survey.WaterBodyRow{}
	view := "water-bodies:" + strings.ToLower(strings.TrimSpace(village))
	err := s.view(ctx, view, f, &out, func(all []survey.SurveyRecord) interface{} {
		return survey.WaterBodies(survey.Filter(all, f), village)
	})
	return out, err
}

func (s *serviceImpl) Invalidate(ctx context.Context) (int64, error) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if s.cache == nil {
		return 0, nil
	}
	n, err := s.cache.DeleteByPrefix(ctx, CacheKeyPrefix)
	if err != nil {
		return n, err
	}
	s.logger.Debug("dashboard views invalidated", logging.Int64("keys", n))
	return n, nil
}

// ────────────────────────────────────────────────────────────────────────────────

// view computes one named view of the current dataset version.
func (s *serviceImpl) view(ctx context.Context, name string, f survey.FilterState, dest interface{}, compute func([]survey.SurveyRecord) interface{}) error {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	return s.viewAt(ctx, snap, name, f, dest, compute)
}

// viewAt computes one named view of snap, memoized under the snapshot's
// version and the normalized filter.
func (s *serviceImpl) viewAt(ctx context.Context, snap *snapshot, name string, f survey.FilterState, dest interface{}, compute func([]survey.SurveyRecord) interface{}) error {
	start := time.Now()
	load := func(context.Context) (interface{}, error) {
		v := compute(snap.records)
		prometheus.RecordAggregation(s.metrics, name, len(snap.records), time.Since(start))
		return v, nil
	}

	if s.cache == nil {
		v, _ := load(ctx)
		return assign(dest, v)
	}

	computed := false
	key := CacheKeyPrefix + snap.version + ":" + name + ":" + f.Key()
	err := s.cache.GetOrSet(ctx, key, dest, s.config.CacheTTL, func(ctx context.Context) (interface{}, error) {
		computed = true
		return load(ctx)
	})
	prometheus.RecordCacheAccess(s.metrics, "dashboard", !computed)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to memoize dashboard view").WithDetail(name)
	}
	return nil
}

// snapshot returns the records of the current dataset version, reloading them
// when the stamp moved.
func (s *serviceImpl) snapshot(ctx context.Context) (*snapshot, error) {
	stamp, err := s.repo.Stamp(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "failed to read dataset version")
	}
	version := stamp.Version()

	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur != nil && cur.version == version {
		return cur, nil
	}

	v, err, _ := s.loads.Do(version, func() (interface{}, error) {
		records, err := s.repo.List(ctx, survey.Query{})
		if err != nil {
			return nil, err
		}
		snap := &snapshot{version: version, records: records}
		s.mu.Lock()
		s.current = snap
		s.mu.Unlock()
		prometheus.SetDatasetRecords(s.metrics, len(records))
		s.logger.Debug("dataset snapshot loaded",
			logging.String("version", version),
			logging.Int("records", len(records)))
		return snap, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "failed to load survey records")
	}
	return v.(*snapshot), nil
}

func (s *serviceImpl) reportDiagnostics(f survey.FilterState, d survey.Diagnostics) {
	prometheus.RecordNormalization(s.metrics, d.CoercedLeaves, d.SynthesizedNames)
	if d.CoercedLeaves == 0 && d.SynthesizedNames == 0 {
		return
	}
	n := f.Normalized()
	s.logger.Debug("survey payloads needed repair",
		logging.District(n.District),
		logging.String("block", n.Block),
		logging.GP(n.GP),
		logging.FinancialYear(n.Year),
		logging.Int("coerced_leaves", d.CoercedLeaves),
		logging.Int("synthesized_names", d.SynthesizedNames))
}

// ParseFilter builds a filter from loose input, validating the year label.
func ParseFilter(district, block, gp, year string) (survey.FilterState, error) {
	f := survey.FilterState{District: district, Block: block, GP: gp, Year: year}.Normalized()
	if f.Year != survey.All {
		if _, ok := survey.ParseFiscalYear(f.Year); !ok {
			return f, errors.New(errors.ErrCodeInvalidFiscalYear, "invalid financial year").WithDetail(strings.TrimSpace(year))
		}
	}
	return f, nil
}

//Personal.AI order the ending
