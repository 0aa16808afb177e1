package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/testutil"
	apperrors "github.com/turtacn/gpsurvey-insight/pkg/errors"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context, q survey.Query) ([]survey.SurveyRecord, error) {
	args := m.Called(ctx, q)
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

type MockBulkRepository struct {
	MockRepository
}

func (m *MockBulkRepository) UpsertMany(ctx context.Context, recs []survey.SurveyRecord, at time.Time) (int, error) {
	args := m.Called(ctx, recs, at)
	return args.Int(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg *kafka.ProducerMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

var now = time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

func validRecord() *survey.SurveyRecord {
	return &survey.SurveyRecord{
		GPName:        " Rampur ",
		District:      "Khurda",
		Block:         "Jatni",
		FinancialYear: "2024-2025",
		UserID:        "u-7",
		FormData:      survey.FormData{"Demographics": map[string]any{"Rampur": map[string]any{"households": 10}}},
	}
}

type SubmitTestSuite struct {
	suite.Suite
	repo *MockRepository
	pub  *MockPublisher
	log  *testutil.MockLogger
	svc  Service
}

func (s *SubmitTestSuite) SetupTest() {
	s.repo = new(MockRepository)
	s.pub = new(MockPublisher)
	s.log = testutil.NewMockLogger()
	s.svc = NewService(s.repo, s.log, Config{Topic: "surveys", Source: "test"},
		WithPublisher(s.pub),
		WithClock(func() time.Time { return now }))
}

func (s *SubmitTestSuite) TestCreated_PublishesEvent() {
	stored := *validRecord()
	stored.GPName = "Rampur"
	stored.SubmittedAt = now
	s.repo.On("Upsert", mock.Anything, mock.MatchedBy(func(r *survey.SurveyRecord) bool {
		return r.GPName == "Rampur"
	}), now).Return(&stored, nil)

	var published *kafka.ProducerMessage
	s.pub.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(1).(*kafka.ProducerMessage) }).
		Return(nil)

	res, err := s.svc.Submit(context.Background(), validRecord())
	s.Require().NoError(err)
	s.True(res.Created)

	s.Require().NotNil(published)
	s.Equal("surveys", published.Topic)
	s.Equal("u-7|2024-2025", string(published.Key))
	s.Equal(kafka.EventTypeSurveySubmitted, published.Headers["event_type"])

	env, err := kafka.MessageToEventEnvelope(&kafka.Message{Value: published.Value})
	s.Require().NoError(err)
	var payload kafka.SubmissionPayload
	s.Require().NoError(env.DecodePayload(&payload))
	s.True(payload.Created)
	s.Equal("Rampur", payload.GPName)
	s.True(s.log.HasMessage("info", "survey submitted"))
}

func (s *SubmitTestSuite) TestUpdated() {
	stored := *validRecord()
	updated := now
	stored.LastUpdatedAt = &updated
	s.repo.On("Upsert", mock.Anything, mock.Anything, now).Return(&stored, nil)
	s.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	res, err := s.svc.Submit(context.Background(), validRecord())
	s.Require().NoError(err)
	s.False(res.Created)
}

func (s *SubmitTestSuite) TestPublishFailureDoesNotFailSubmit() {
	stored := *validRecord()
	s.repo.On("Upsert", mock.Anything, mock.Anything, now).Return(&stored, nil)
	s.pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, err := s.svc.Submit(context.Background(), validRecord())
	s.Require().NoError(err)
	s.True(s.log.HasMessage("warn", "failed to publish submission event"))
}

func (s *SubmitTestSuite) TestUnknownSectionsReported() {
	r := validRecord()
	r.FormData["Village Photos"] = []any{"a.jpg"}
	r.FormData["MigrationEmployment"] = map[string]any{}
	r.FormData["remarks"] = "late entry"
	stored := *r
	s.repo.On("Upsert", mock.Anything, mock.Anything, now).Return(&stored, nil)
	s.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	res, err := s.svc.Submit(context.Background(), r)
	s.Require().NoError(err)
	s.Equal([]string{"Village Photos", "remarks"}, res.UnknownSections)

	entry, ok := s.log.Find("warn", "submission carries unrecognized form sections")
	s.Require().True(ok)
	sections, _ := entry.Field("sections")
	s.Equal([]string{"Village Photos", "remarks"}, sections)
}

func (s *SubmitTestSuite) TestKnownSectionsOnly() {
	stored := *validRecord()
	s.repo.On("Upsert", mock.Anything, mock.Anything, now).Return(&stored, nil)
	s.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	res, err := s.svc.Submit(context.Background(), validRecord())
	s.Require().NoError(err)
	s.Empty(res.UnknownSections)
	s.False(s.log.HasMessage("warn", "submission carries unrecognized form sections"))
}

func (s *SubmitTestSuite) TestStoreFailure() {
	s.repo.On("Upsert", mock.Anything, mock.Anything, now).
		Return(nil, apperrors.New(apperrors.ErrCodeDatabaseError, "down"))

	_, err := s.svc.Submit(context.Background(), validRecord())
	s.True(apperrors.IsCode(err, apperrors.ErrCodeDatabaseError))
	s.pub.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything)
}

func (s *SubmitTestSuite) TestRejected() {
	r := validRecord()
	r.FinancialYear = "2024-25"
	_, err := s.svc.Submit(context.Background(), r)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeInvalidFiscalYear))
	s.repo.AssertNotCalled(s.T(), "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitSuite(t *testing.T) {
	suite.Run(t, new(SubmitTestSuite))
}

func TestValidate(t *testing.T) {
	assert.True(t, apperrors.IsCode(Validate(nil), apperrors.ErrCodeInvalidSubmission))

	r := validRecord()
	r.District, r.Block = " ", ""
	err := Validate(r)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidSubmission))
	assert.Contains(t, err.Error(), "district, block")

	assert.NoError(t, Validate(validRecord()))
}

func TestSubmit_WithoutPublisherInvalidates(t *testing.T) {
	repo := new(MockRepository)
	inv := new(MockInvalidator)
	stored := *validRecord()
	repo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(&stored, nil)
	inv.On("Invalidate", mock.Anything).Return(int64(3), nil).Once()

	svc := NewService(repo, logging.NewNopLogger(), Config{}, WithInvalidator(inv))
	_, err := svc.Submit(context.Background(), validRecord())
	require.NoError(t, err)
	inv.AssertExpectations(t)
}

func TestSubmit_PublishFailureInvalidatesLocally(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	inv := new(MockInvalidator)
	stored := *validRecord()
	repo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(&stored, nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	inv.On("Invalidate", mock.Anything).Return(int64(1), nil).Once()

	svc := NewService(repo, logging.NewNopLogger(), Config{}, WithPublisher(pub), WithInvalidator(inv))
	_, err := svc.Submit(context.Background(), validRecord())
	require.NoError(t, err)
	inv.AssertExpectations(t)
}

func TestImport_Bulk(t *testing.T) {
	repo := new(MockBulkRepository)
	bad := *validRecord()
	bad.FinancialYear = ""
	records := []survey.SurveyRecord{*validRecord(), bad, *validRecord()}

	repo.On("UpsertMany", mock.Anything, mock.MatchedBy(func(recs []survey.SurveyRecord) bool {
		return len(recs) == 2 && recs[0].GPName == "Rampur"
	}), now).Return(2, nil)

	svc := NewService(repo, logging.NewNopLogger(), Config{}, WithClock(func() time.Time { return now }))
	res, err := svc.Import(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 1, res.Rejected[0].Index)
	assert.Equal(t, "u-7|", res.Rejected[0].Key)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestImport_FallsBackToUpsert(t *testing.T) {
	repo := new(MockRepository)
	stored := *validRecord()
	repo.On("Upsert", mock.Anything, mock.Anything, now).Return(&stored, nil).Twice()

	svc := NewService(repo, logging.NewNopLogger(), Config{}, WithClock(func() time.Time { return now }))
	res, err := svc.Import(context.Background(), []survey.SurveyRecord{*validRecord(), *validRecord()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Empty(t, res.Rejected)
}

func TestImport_NothingValid(t *testing.T) {
	repo := new(MockBulkRepository)
	svc := NewService(repo, logging.NewNopLogger(), Config{})
	res, err := svc.Import(context.Background(), []survey.SurveyRecord{{}})
	require.NoError(t, err)
	assert.Zero(t, res.Imported)
	assert.Len(t, res.Rejected, 1)
	repo.AssertNotCalled(t, "UpsertMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestImport_StoreFailure(t *testing.T) {
	repo := new(MockBulkRepository)
	repo.On("UpsertMany", mock.Anything, mock.Anything, mock.Anything).
		Return(0, apperrors.New(apperrors.ErrCodeDatabaseError, "tx aborted"))

	svc := NewService(repo, logging.NewNopLogger(), Config{})
	_, err := svc.Import(context.Background(), []survey.SurveyRecord{*validRecord()})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDatabaseError))
}

//Personal.AI order the ending
