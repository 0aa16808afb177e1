package minio

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/turtacn/gpsurvey-insight/internal/config"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/testutil"
	apperrors "github.com/turtacn/gpsurvey-insight/pkg/errors"
)

type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]minio.BucketInfo), args.Error(1)
}

func (m *MockObjectAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *MockObjectAPI) SetBucketLifecycle(ctx context.Context, bucketName string, cfg *lifecycle.Configuration) error {
	return m.Called(ctx, bucketName, cfg).Error(0)
}

func (m *MockObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockObjectAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *MockObjectAPI) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.Called(ctx, bucketName, objectName, opts).Error(0)
}

func (m *MockObjectAPI) PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
	args := m.Called(ctx, bucketName, objectName, expiry, reqParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*url.URL), args.Error(1)
}

type ClientTestSuite struct {
	suite.Suite
	api *MockObjectAPI
	cfg *config.MinIOConfig
}

func (s *ClientTestSuite) SetupTest() {
	s.api = new(MockObjectAPI)
	s.cfg = &config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "exports"}
}

func (s *ClientTestSuite) TestApplyDefaults() {
	cfg := &config.MinIOConfig{}
	applyDefaults(cfg)
	s.Equal("us-east-1", cfg.Region)
	s.Equal("gpsurvey-exports", cfg.Bucket)
	s.Equal(time.Hour, cfg.PresignExpiry)
}

func (s *ClientTestSuite) TestNew_CreatesMissingBucket() {
	s.api.On("ListBuckets", mock.Anything).Return([]minio.BucketInfo{}, nil)
	s.api.On("BucketExists", mock.Anything, "exports").Return(false, nil)
	s.api.On("MakeBucket", mock.Anything, "exports", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)
	s.api.On("SetBucketLifecycle", mock.Anything, "exports", mock.MatchedBy(func(c *lifecycle.Configuration) bool {
		return len(c.Rules) == 1 && c.Rules[0].Expiration.Days == exportRetentionDays
	})).Return(nil)

	c, err := NewClientWithAPI(context.Background(), s.api, s.cfg, logging.NewNopLogger())
	s.Require().NoError(err)
	s.Equal("exports", c.Bucket())
	s.api.AssertExpectations(s.T())
}

func (s *ClientTestSuite) TestNew_ExistingBucketAndLifecycleFailure() {
	log := testutil.NewMockLogger()
	s.api.On("ListBuckets", mock.Anything).Return([]minio.BucketInfo{{Name: "exports"}}, nil)
	s.api.On("BucketExists", mock.Anything, "exports").Return(true, nil)
	s.api.On("SetBucketLifecycle", mock.Anything, "exports", mock.Anything).Return(errors.New("denied"))

	_, err := NewClientWithAPI(context.Background(), s.api, s.cfg, log)
	s.Require().NoError(err)
	s.api.AssertNotCalled(s.T(), "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	s.True(log.HasMessage("warn", "Failed to set lifecycle for export bucket"))
}

func (s *ClientTestSuite) TestNew_Unreachable() {
	s.api.On("ListBuckets", mock.Anything).Return(nil, errors.New("dial tcp: refused"))

	_, err := NewClientWithAPI(context.Background(), s.api, s.cfg, logging.NewNopLogger())
	s.True(apperrors.IsCode(err, apperrors.ErrCodeServiceUnavailable))
}

func (s *ClientTestSuite) TestNew_MakeBucketFails() {
	s.api.On("ListBuckets", mock.Anything).Return([]minio.BucketInfo{}, nil)
	s.api.On("BucketExists", mock.Anything, "exports").Return(false, nil)
	s.api.On("MakeBucket", mock.Anything, "exports", mock.Anything).Return(errors.New("quota"))

	_, err := NewClientWithAPI(context.Background(), s.api, s.cfg, logging.NewNopLogger())
	s.True(apperrors.IsCode(err, apperrors.ErrCodeObjectStorageFailed))
}

func (s *ClientTestSuite) TestHealthCheck() {
	c := &Client{api: s.api, config: s.cfg, logger: logging.NewNopLogger()}
	s.api.On("ListBuckets", mock.Anything).Return([]minio.BucketInfo{}, nil)
	s.api.On("BucketExists", mock.Anything, "exports").Return(false, nil)

	status, err := c.HealthCheck(context.Background())
	s.Require().NoError(err)
	s.False(status.Healthy)
	s.Contains(status.Error, "exports")
}

func (s *ClientTestSuite) TestClose() {
	c := &Client{api: s.api, config: s.cfg, logger: logging.NewNopLogger()}
	s.Require().NoError(c.Close())

	_, err := c.HealthCheck(context.Background())
	s.ErrorIs(err, ErrClientClosed)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestNewClient_InvalidEndpoint(t *testing.T) {
	_, err := NewClient(context.Background(), &config.MinIOConfig{Endpoint: "bad!host"}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidConfig))
}

//Personal.AI order the ending
