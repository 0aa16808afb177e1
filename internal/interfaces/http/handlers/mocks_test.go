package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/gpsurvey-insight/internal/application/dashboard"
	"github.com/turtacn/gpsurvey-insight/internal/application/submission"
	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
)

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Metrics(ctx context.Context, f survey.FilterState) (*survey.AggregateMetrics, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*survey.AggregateMetrics), args.Error(1)
}

func (m *MockDashboardService) Distribution(ctx context.Context, f survey.FilterState) (*survey.DistributionResult, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*survey.DistributionResult), args.Error(1)
}

func (m *MockDashboardService) YearSeries(ctx context.Context, f survey.FilterState) ([]survey.YearRow, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]survey.YearRow), args.Error(1)
}

func (m *MockDashboardService) Pyramid(ctx context.Context, f survey.FilterState) ([]survey.AgeBucket, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]survey.AgeBucket), args.Error(1)
}

func (m *MockDashboardService) Completion(ctx context.Context, f survey.FilterState) (*dashboard.CompletionReport, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.CompletionReport), args.Error(1)
}

func (m *MockDashboardService) FilterOptions(ctx context.Context, f survey.FilterState) (*survey.FilterOptions, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*survey.FilterOptions), args.Error(1)
}

func (m *MockDashboardService) Coverage(ctx context.Context, f survey.FilterState) (*survey.CoverageTable, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*survey.CoverageTable), args.Error(1)
}

func (m *MockDashboardService) WaterBodies(ctx context.Context, f survey.FilterState, village string) ([]survey.WaterBodyRow, error) {
	args := m.Called(ctx, f, village)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]survey.WaterBodyRow), args.Error(1)
}

func (m *MockDashboardService) Export(ctx context.Context, f survey.FilterState) (*dashboard.ExportResult, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.ExportResult), args.Error(1)
}

func (m *MockDashboardService) Invalidate(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Submit(ctx context.Context, r *survey.SurveyRecord) (*submission.Result, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*submission.Result), args.Error(1)
}

func (m *MockSubmissionService) Import(ctx context.Context, records []survey.SurveyRecord) (*submission.ImportResult, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*submission.ImportResult), args.Error(1)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context, q survey.Query) ([]survey.SurveyRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]survey.SurveyRecord), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, key string) (*survey.SurveyRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*survey.SurveyRecord), args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, r *survey.SurveyRecord, at time.Time) (*survey.SurveyRecord, error) {
	args := m.Called(ctx, r, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*survey.SurveyRecord), args.Error(1)
}

func (m *MockRepository) Stamp(ctx context.Context) (survey.DatasetStamp, error) {
	args := m.Called(ctx)
	return args.Get(0).(survey.DatasetStamp), args.Error(1)
}

//Personal.AI order the ending
