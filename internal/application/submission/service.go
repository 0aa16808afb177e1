// Package submission stores survey submissions and announces them.
package submission

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// Submission outcome labels.
const (
	StatusCreated  = "created"
	StatusUpdated  = "updated"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// Publisher emits broker messages.
type Publisher interface {
	Publish(ctx context.Context, msg *kafka.ProducerMessage) error
}

// Invalidator drops derived views after a write when no broker is configured.
type Invalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// BulkWriter stores many records in one transaction.
type BulkWriter interface {
	UpsertMany(ctx context.Context, recs []survey.SurveyRecord, at time.Time) (int, error)
}

// Result is the stored record and whether it was new. UnknownSections lists
// form keys that match no survey category; they are stored but never counted.
type Result struct {
	Record          *survey.SurveyRecord `json:"record"`
	Created         bool                 `json:"created"`
	UnknownSections []string             `json:"unknownSections,omitempty"`
}

// Rejection explains why an imported record was skipped.
type Rejection struct {
	Index  int    `json:"index"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int         `json:"imported"`
	Rejected []Rejection `json:"rejected"`
}

// Service accepts survey writes.
type Service interface {
	Submit(ctx context.Context, r *survey.SurveyRecord) (*Result, error)
	Import(ctx context.Context, records []survey.SurveyRecord) (*ImportResult, error)
}

// Config names the event topic and source.
type Config struct {
	Topic  string
	Source string
}

type serviceImpl struct {
	repo        survey.Repository
	publisher   Publisher
	invalidator Invalidator
	metrics     *prometheus.AppMetrics
	logger      logging.Logger
	config      Config
	now         func() time.Time
}

// Option customizes the service.
type Option func(*serviceImpl)

func WithPublisher(p Publisher) Option { return func(s *serviceImpl) { s.publisher = p } }

func WithInvalidator(i Invalidator) Option { return func(s *serviceImpl) { s.invalidator = i } }

func WithMetrics(m *prometheus.AppMetrics) Option { return func(s *serviceImpl) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *serviceImpl) { s.now = now } }

func NewService(repo survey.Repository, logger logging.Logger, cfg Config, opts ...Option) Service {
	if cfg.Topic == "" {
		cfg.Topic = kafka.TopicSurveySubmitted
	}
	if cfg.Source == "" {
		cfg.Source = "gpsurvey-apiserver"
	}
	s := &serviceImpl{
		repo:   repo,
		logger: logger.Named("submission"),
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks the identity fields and the financial year label. Form
// content is not validated; the engine coerces it on read.
func Validate(r *survey.SurveyRecord) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidSubmission, "record is required")
	}
	var missing []string
	if strings.TrimSpace(r.GPName) == "" {
		missing = append(missing, "gpName")
	}
	if strings.TrimSpace(r.District) == "" {
		missing = append(missing, "district")
	}
	if strings.TrimSpace(r.Block) == "" {
		missing = append(missing, "block")
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeInvalidSubmission, "missing required fields").WithDetail(strings.Join(missing, ", "))
	}
	if _, ok := survey.ParseFiscalYear(r.FinancialYear); !ok {
		return errors.New(errors.ErrCodeInvalidFiscalYear, "invalid financial year").WithDetail(r.FinancialYear)
	}
	return nil
}

func (s *serviceImpl) Submit(ctx context.Context, r *survey.SurveyRecord) (*Result, error) {
	if err := Validate(r); err != nil {
		prometheus.RecordSubmission(s.metrics, StatusRejected)
		return nil, err
	}
	in := clean(*r)

	stored, err := s.repo.Upsert(ctx, &in, s.now().UTC())
	if err != nil {
		prometheus.RecordSubmission(s.metrics, StatusFailed)
		return nil, errors.Wrap(err, errors.CodeUnknown, "failed to store submission")
	}

	res := &Result{Record: stored, Created: stored.LastUpdatedAt == nil, UnknownSections: in.FormData.UnknownKeys()}
	if len(res.UnknownSections) > 0 {
		s.logger.Warn("submission carries unrecognized form sections",
			logging.GP(stored.GPName),
			logging.FinancialYear(stored.FinancialYear),
			logging.Strings("sections", res.UnknownSections))
	}
	status := StatusUpdated
	if res.Created {
		status = StatusCreated
	}
	prometheus.RecordSubmission(s.metrics, status)
	s.logger.Info("survey submitted",
		logging.GP(stored.GPName),
		logging.District(stored.District),
		logging.FinancialYear(stored.FinancialYear),
		logging.Bool("created", res.Created))

	s.announce(ctx, stored)
	return res, nil
}

func (s *serviceImpl) Import(ctx context.Context, records []survey.SurveyRecord) (*ImportResult, error) {
	res := &ImportResult{Rejected: []Rejection{}}
	valid := make([]survey.SurveyRecord, 0, len(records))
	for i := range records {
		if err := Validate(&records[i]); err != nil {
			res.Rejected = append(res.Rejected, Rejection{Index: i, Key: records[i].IdentityKey(), Reason: err.Error()})
			continue
		}
		valid = append(valid, clean(records[i]))
	}
	if len(valid) == 0 {
		return res, nil
	}

	at := s.now().UTC()
	if bulk, ok := s.repo.(BulkWriter); ok {
		n, err := bulk.UpsertMany(ctx, valid, at)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "failed to import submissions")
		}
		res.Imported = n
	} else {
		for i := range valid {
			if _, err := s.repo.Upsert(ctx, &valid[i], at); err != nil {
				return nil, errors.Wrap(err, errors.CodeUnknown, "failed to import submissions").WithDetail(valid[i].IdentityKey())
			}
			res.Imported++
		}
	}

	s.logger.Info("surveys imported",
		logging.Int("imported", res.Imported),
		logging.Int("rejected", len(res.Rejected)))
	s.invalidate(ctx)
	return res, nil
}

// announce publishes the submission event. The write has already committed,
// so failures are logged and counted but not returned; the local views are
// dropped instead since no consumer will hear about the write.
func (s *serviceImpl) announce(ctx context.Context, stored *survey.SurveyRecord) {
	if s.publisher == nil {
		s.invalidate(ctx)
		return
	}
	payload := kafka.NewSubmissionPayload(stored)
	env, err := kafka.NewEventEnvelope(kafka.EventTypeSurveySubmitted, s.config.Source, payload)
	if err == nil {
		var msg *kafka.ProducerMessage
		if msg, err = env.ToMessage(s.config.Topic, payload.IdentityKey); err == nil {
			err = s.publisher.Publish(ctx, msg)
		}
	}
	prometheus.RecordEvent(s.metrics, "published", err)
	if err != nil {
		prometheus.RecordError(s.metrics, "submission", "event_publish")
		s.logger.Warn("failed to publish submission event",
			logging.String("identity_key", payload.IdentityKey),
			logging.Err(err))
		s.invalidate(ctx)
	}
}

func (s *serviceImpl) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if _, err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboard views", logging.Err(err))
	}
}

// clean trims the identity fields and gives the record a non-nil form.
func clean(r survey.SurveyRecord) survey.SurveyRecord {
	r.GPName = strings.TrimSpace(r.GPName)
	r.District = strings.TrimSpace(r.District)
	r.Block = strings.TrimSpace(r.Block)
	r.FinancialYear = strings.TrimSpace(r.FinancialYear)
	r.UserID = strings.TrimSpace(r.UserID)
	if r.FormData == nil {
		r.FormData = survey.FormData{}
	}
	return r
}

//Personal.AI order the ending
