// Package repositories holds the pgx-backed implementations of the domain
// repository interfaces.
package repositories

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const recordColumns = `identity_key, gp_name, district, block, financial_year, user_id, form_data, submitted_at, last_updated_at`

const upsertSQL = `
INSERT INTO survey_records (identity_key, gp_name, district, block, financial_year, user_id, form_data, submitted_at, last_updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::json, $8, NULL)
ON CONFLICT (identity_key) DO UPDATE SET
	gp_name         = EXCLUDED.gp_name,
	district        = EXCLUDED.district,
	block           = EXCLUDED.block,
	financial_year  = EXCLUDED.financial_year,
	user_id         = EXCLUDED.user_id,
	form_data       = EXCLUDED.form_data,
	last_updated_at = $9
RETURNING ` + recordColumns

// SurveyRepository stores survey records in PostgreSQL. form_data is kept in a
// JSON (not JSONB) column so the submitted village key order survives.
type SurveyRepository struct {
	pool    *pgxpool.Pool
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

var _ survey.Repository = (*SurveyRepository)(nil)

// NewSurveyRepository constructs a SurveyRepository. metrics may be nil.
func NewSurveyRepository(pool *pgxpool.Pool, log logging.Logger, metrics *prometheus.AppMetrics) *SurveyRepository {
	return &SurveyRepository{pool: pool, logger: log.Named("survey_repository"), metrics: metrics}
}

func (r *SurveyRepository) List(ctx context.Context, q survey.Query) (out []survey.SurveyRecord, err error) {
	defer r.observe("list", time.Now(), &err)

	sql, args := buildListQuery(q)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list survey records")
	}
	defer rows.Close()

	out = []survey.SurveyRecord{}
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate survey records")
	}
	return out, nil
}

func (r *SurveyRepository) Get(ctx context.Context, identityKey string) (rec *survey.SurveyRecord, err error) {
	defer r.observe("get", time.Now(), &err)

	row := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM survey_records WHERE identity_key = $1`, identityKey)
	rec, err = scanRecord(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeSurveyNotFound, "survey record not found").WithDetail(identityKey)
		}
		return nil, err
	}
	return rec, nil
}

func (r *SurveyRepository) Upsert(ctx context.Context, rec *survey.SurveyRecord, at time.Time) (stored *survey.SurveyRecord, err error) {
	defer r.observe("upsert", time.Now(), &err)
	return upsert(ctx, r.pool, rec, at)
}

// UpsertMany stores all records in one transaction.
func (r *SurveyRepository) UpsertMany(ctx context.Context, recs []survey.SurveyRecord, at time.Time) (n int, err error) {
	defer r.observe("upsert_many", time.Now(), &err)

	err = postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		for i := range recs {
			if _, err := upsert(ctx, tx, &recs[i], at); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logger.Info("survey records imported", logging.Int("count", n))
	return n, nil
}

func (r *SurveyRepository) Stamp(ctx context.Context) (stamp survey.DatasetStamp, err error) {
	defer r.observe("stamp", time.Now(), &err)

	var last *time.Time
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), MAX(COALESCE(last_updated_at, submitted_at)) FROM survey_records`,
	).Scan(&stamp.Count, &last)
	if err != nil {
		return survey.DatasetStamp{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read dataset stamp")
	}
	if last != nil {
		stamp.LastTouched = last.UTC()
	}
	return stamp, nil
}

func (r *SurveyRepository) observe(op string, start time.Time, err *error) {
	prometheus.RecordDBQuery(r.metrics, op, time.Since(start), *err)
	if *err != nil && !errors.IsNotFound(*err) {
		r.logger.Error("survey repository operation failed", logging.String("operation", op), logging.Err(*err))
	}
}

func upsert(ctx context.Context, db dbtx, rec *survey.SurveyRecord, at time.Time) (*survey.SurveyRecord, error) {
	formData, err := survey.EncodeFormData(rec.FormData, rec.VillageOrder)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode form data")
	}
	if rec.FormData == nil {
		formData = []byte("{}")
	}
	submitted := rec.SubmittedAt
	if submitted.IsZero() {
		submitted = at
	}

	row := db.QueryRow(ctx, upsertSQL,
		rec.IdentityKey(),
		strings.TrimSpace(rec.GPName),
		strings.TrimSpace(rec.District),
		strings.TrimSpace(rec.Block),
		strings.TrimSpace(rec.FinancialYear),
		strings.TrimSpace(rec.UserID),
		string(formData),
		submitted.UTC(),
		at.UTC(),
	)
	return scanRecord(row)
}

func scanRecord(row pgx.Row) (*survey.SurveyRecord, error) {
	var (
		rec      survey.SurveyRecord
		key      string
		formData []byte
		updated  *time.Time
	)
	err := row.Scan(&key, &rec.GPName, &rec.District, &rec.Block, &rec.FinancialYear,
		&rec.UserID, &formData, &rec.SubmittedAt, &updated)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan survey record")
	}
	rec.SubmittedAt = rec.SubmittedAt.UTC()
	if updated != nil {
		u := updated.UTC()
		rec.LastUpdatedAt = &u
	}
	if len(formData) > 0 {
		fd, order, err := survey.DecodeFormData(formData)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "stored form data is not a JSON object").WithDetail(key)
		}
		rec.FormData, rec.VillageOrder = fd, order
	}
	return &rec, nil
}

// buildListQuery renders the filtered listing. "all" and blank filters are skipped.
func buildListQuery(q survey.Query) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" || value == survey.All {
			return
		}
		args = append(args, value)
		where = append(where, column+" = $"+strconv.Itoa(len(args)))
	}
	f := q.FilterState()
	add("district", f.District)
	add("block", f.Block)
	add("gp_name", f.GP)
	add("financial_year", f.Year)

	var sb strings.Builder
	sb.WriteString("SELECT " + recordColumns + " FROM survey_records")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY district, block, gp_name, financial_year")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	return sb.String(), args
}

//Personal.AI order the ending
