// Package memory provides an in-process survey.Repository. The CLI runs the
// dashboard service over it when records come from a file or a remote
// server instead of PostgreSQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// SurveyRepository keeps records keyed by identity key. It follows the
// PostgreSQL repository's upsert and ordering rules.
type SurveyRepository struct {
	mu      sync.RWMutex
	records map[string]survey.SurveyRecord
}

var _ survey.Repository = (*SurveyRepository)(nil)

// NewSurveyRepository seeds a repository with records as they are, keeping
// their timestamps. Later records replace earlier ones with the same key.
func NewSurveyRepository(records ...survey.SurveyRecord) *SurveyRepository {
	r := &SurveyRepository{records: make(map[string]survey.SurveyRecord, len(records))}
	for _, rec := range records {
		r.records[rec.IdentityKey()] = rec
	}
	return r
}

func (r *SurveyRepository) List(_ context.Context, q survey.Query) ([]survey.SurveyRecord, error) {
	f := q.FilterState()

	r.mu.RLock()
	out := make([]survey.SurveyRecord, 0, len(r.records))
	for _, rec := range r.records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.District != b.District {
			return a.District < b.District
		}
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		if a.GPName != b.GPName {
			return a.GPName < b.GPName
		}
		return a.FinancialYear < b.FinancialYear
	})

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []survey.SurveyRecord{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *SurveyRepository) Get(_ context.Context, identityKey string) (*survey.SurveyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[identityKey]
	if !ok {
		return nil, errors.New(errors.ErrCodeSurveyNotFound, "survey record not found").WithDetail(identityKey)
	}
	return &rec, nil
}

func (r *SurveyRepository) Upsert(_ context.Context, rec *survey.SurveyRecord, at time.Time) (*survey.SurveyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.upsertLocked(*rec, at)
	return &stored, nil
}

// UpsertMany stores all records under one lock.
func (r *SurveyRepository) UpsertMany(_ context.Context, recs []survey.SurveyRecord, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recs {
		r.upsertLocked(rec, at)
	}
	return len(recs), nil
}

func (r *SurveyRepository) Stamp(_ context.Context) (survey.DatasetStamp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stamp := survey.DatasetStamp{Count: int64(len(r.records))}
	for _, rec := range r.records {
		if t := rec.LastTouched(); t.After(stamp.LastTouched) {
			stamp.LastTouched = t
		}
	}
	stamp.LastTouched = stamp.LastTouched.UTC()
	return stamp, nil
}

// Len returns the number of stored records.
func (r *SurveyRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *SurveyRepository) upsertLocked(rec survey.SurveyRecord, at time.Time) survey.SurveyRecord {
	key := rec.IdentityKey()
	rec.GPName = strings.TrimSpace(rec.GPName)
	rec.District = strings.TrimSpace(rec.District)
	rec.Block = strings.TrimSpace(rec.Block)
	rec.FinancialYear = strings.TrimSpace(rec.FinancialYear)
	rec.UserID = strings.TrimSpace(rec.UserID)
	if rec.FormData == nil {
		rec.FormData = survey.FormData{}
	}

	if prev, ok := r.records[key]; ok {
		rec.SubmittedAt = prev.SubmittedAt
		updated := at.UTC()
		rec.LastUpdatedAt = &updated
	} else {
		if rec.SubmittedAt.IsZero() {
			rec.SubmittedAt = at
		}
		rec.SubmittedAt = rec.SubmittedAt.UTC()
		rec.LastUpdatedAt = nil
	}
	r.records[key] = rec
	return rec
}

//Personal.AI order the ending
