package dashboard

import (
	"context"
	"time"

	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// SubmissionEventHandler reacts to survey.submitted events: it drops the
// memoized views and, when warm is set, recomputes the unfiltered totals and
// the filter options of the submitting district so the next dashboard load
// is a cache hit.
//
// Events of other types are acknowledged and ignored. Malformed events are
// returned as errors and end up in the dead-letter topic.
func SubmissionEventHandler(svc Service, logger logging.Logger, metrics *prometheus.AppMetrics, warm bool) kafka.MessageHandler {
	logger = logger.Named("submission_events")

	return func(ctx context.Context, msg *kafka.Message) (err error) {
		start := time.Now()
		defer func() {
			prometheus.RecordEvent(metrics, "consumed", err)
			prometheus.ObserveEventProcessing(metrics, time.Since(start))
		}()

		env, err := kafka.MessageToEventEnvelope(msg)
		if err != nil {
			return err
		}
		if env.EventType != kafka.EventTypeSurveySubmitted {
			logger.Debug("ignoring event", logging.String("event_type", env.EventType), logging.String("event_id", env.EventID))
			return nil
		}

		var p kafka.SubmissionPayload
		if err := env.DecodePayload(&p); err != nil {
			return err
		}

		n, err := svc.Invalidate(ctx)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCacheError, "failed to invalidate dashboard views")
		}
		logger.Info("dashboard views invalidated",
			logging.String("event_id", env.EventID),
			logging.String("identity_key", p.IdentityKey),
			logging.GP(p.GPName),
			logging.District(p.District),
			logging.FinancialYear(p.FinancialYear),
			logging.Bool("created", p.Created),
			logging.Int64("keys", n))

		if warm {
			warmViews(ctx, svc, logger, p)
		}
		return nil
	}
}

// warmViews precomputes the views most dashboards open with. Failures only
// cost a cold load later, so they are logged.
func warmViews(ctx context.Context, svc Service, logger logging.Logger, p kafka.SubmissionPayload) {
	all := survey.NewFilterState()
	if _, err := svc.Metrics(ctx, all); err != nil {
		logger.Warn("failed to warm dashboard metrics", logging.Err(err))
		return
	}
	if _, err := svc.FilterOptions(ctx, all.WithDistrict(p.District)); err != nil {
		logger.Warn("failed to warm filter options", logging.Err(err))
	}
}

//Personal.AI order the ending
