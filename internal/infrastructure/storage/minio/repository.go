package minio

import (
	"bytes"
	"context"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// ExportStore keeps generated dashboard exports in the export bucket.
type ExportStore interface {
	Put(ctx context.Context, req *UploadRequest) (*UploadResult, error)
	Exists(ctx context.Context, objectKey string) (bool, error)
	Delete(ctx context.Context, objectKey string) error
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

type UploadRequest struct {
	ObjectKey   string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type UploadResult struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type exportRepository struct {
	client *Client
	logger logging.Logger
}

// NewExportStore returns an ExportStore backed by client.
func NewExportStore(client *Client, log logging.Logger) ExportStore {
	return &exportRepository{client: client, logger: log.Named("export_store")}
}

func (r *exportRepository) Put(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if req == nil || req.ObjectKey == "" || len(req.Data) == 0 {
		return nil, ErrInvalidRequest
	}
	api, err := r.client.acquire()
	if err != nil {
		return nil, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	opts := minio.PutObjectOptions{ContentType: contentType, UserMetadata: req.Metadata}

	info, err := api.PutObject(ctx, r.client.Bucket(), req.ObjectKey, bytes.NewReader(req.Data), int64(len(req.Data)), opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeObjectStorageFailed, "upload failed").WithDetail(req.ObjectKey)
	}

	r.logger.Debug("export stored",
		logging.String("object", req.ObjectKey),
		logging.Int64("size", info.Size))
	return &UploadResult{
		Bucket:     r.client.Bucket(),
		ObjectKey:  req.ObjectKey,
		ETag:       info.ETag,
		Size:       info.Size,
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (r *exportRepository) Exists(ctx context.Context, objectKey string) (bool, error) {
	api, err := r.client.acquire()
	if err != nil {
		return false, err
	}
	if _, err := api.StatObject(ctx, r.client.Bucket(), objectKey, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeObjectStorageFailed, "stat failed").WithDetail(objectKey)
	}
	return true, nil
}

func (r *exportRepository) Delete(ctx context.Context, objectKey string) error {
	api, err := r.client.acquire()
	if err != nil {
		return err
	}
	if err := api.RemoveObject(ctx, r.client.Bucket(), objectKey, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeObjectStorageFailed, "delete failed").WithDetail(objectKey)
	}
	return nil
}

// PresignedURL returns a time-limited download link. A zero expiry uses the
// configured default.
func (r *exportRepository) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if objectKey == "" {
		return "", ErrInvalidRequest
	}
	api, err := r.client.acquire()
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = r.client.config.PresignExpiry
	}
	u, err := api.PresignedGetObject(ctx, r.client.Bucket(), objectKey, expiry, nil)
	if err != nil {
		if isNoSuchKey(err) {
			return "", ErrObjectNotFound.WithDetail(objectKey)
		}
		return "", errors.Wrap(err, errors.ErrCodeObjectStorageFailed, "presign failed").WithDetail(objectKey)
	}
	return u.String(), nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

//Personal.AI order the ending
