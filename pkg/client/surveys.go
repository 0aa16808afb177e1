package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// SurveyRecord is one GP's survey for one financial year.
type SurveyRecord = survey.SurveyRecord

// FormData is the category keyed survey payload.
type FormData = survey.FormData

// Filter narrows a request to a district, block, GP and year. Empty fields
// and "all" select everything.
type Filter = survey.FilterState

// DefaultPageSize is the page size ListAll requests.
const DefaultPageSize = 500

// SurveyPage is one page of stored records.
type SurveyPage struct {
	Records []SurveyRecord `json:"records"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	Version string         `json:"version,omitempty"`
}

// SubmitResult reports the stored record and whether it was new.
type SubmitResult struct {
	Record  *SurveyRecord `json:"record"`
	Created bool          `json:"created"`
}

// ImportRejection explains why one record of an import was skipped.
type ImportRejection struct {
	Index  int    `json:"index"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int               `json:"imported"`
	Rejected []ImportRejection `json:"rejected"`
}

// SurveysClient reads and writes survey records.
type SurveysClient struct {
	client *Client
}

// List returns one page of records matching f.
func (s *SurveysClient) List(ctx context.Context, f Filter, limit, offset int) (*SurveyPage, error) {
	if limit < 0 || offset < 0 {
		return nil, errors.New(errors.ErrCodeValidation, "limit and offset must not be negative")
	}
	q := filterQuery(f)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}

	var page SurveyPage
	if err := s.client.get(ctx, withQuery("/api/v1/surveys", q), &page); err != nil {
		return nil, err
	}
	if page.Records == nil {
		page.Records = []SurveyRecord{}
	}
	return &page, nil
}

// Pager walks every record of a filter in fixed-size pages.
type Pager struct {
	surveys  *SurveysClient
	pageSize int
}

// Pager returns a full-scan helper. A non-positive pageSize uses
// DefaultPageSize.
func (s *SurveysClient) Pager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{surveys: s, pageSize: pageSize}
}

// ListAll is shorthand for Pager(DefaultPageSize).ListAll.
func (s *SurveysClient) ListAll(ctx context.Context, f Filter) ([]SurveyRecord, string, error) {
	return s.Pager(DefaultPageSize).ListAll(ctx, f)
}

// ListAll returns every record matching f together with the dataset version
// of the scan. A write landing mid-scan changes the version reported by later
// pages; the scan then restarts once and fails with a conflict the second
// time.
func (p *Pager) ListAll(ctx context.Context, f Filter) ([]SurveyRecord, string, error) {
	return p.listAll(ctx, f, true)
}

func (p *Pager) listAll(ctx context.Context, f Filter, retry bool) ([]SurveyRecord, string, error) {
	var (
		all     []SurveyRecord
		version string
	)
	for offset := 0; ; offset += p.pageSize {
		page, err := p.surveys.List(ctx, f, p.pageSize, offset)
		if err != nil {
			return nil, "", err
		}
		if offset == 0 {
			version = page.Version
		} else if page.Version != version {
			if !retry {
				return nil, "", errors.New(errors.ErrCodeConflict, "dataset changed while listing").
					WithDetail(fmt.Sprintf("version %s became %s", version, page.Version))
			}
			p.surveys.client.logger.Infof("dataset changed during scan (%s -> %s), restarting", version, page.Version)
			return p.listAll(ctx, f, false)
		}
		all = append(all, page.Records...)
		if len(page.Records) < p.pageSize {
			break
		}
	}
	if all == nil {
		all = []SurveyRecord{}
	}
	return all, version, nil
}

// Submit creates or replaces the record for its identity key.
func (s *SurveysClient) Submit(ctx context.Context, r *SurveyRecord) (*SubmitResult, error) {
	if r == nil {
		return nil, errors.New(errors.ErrCodeInvalidSubmission, "record is required")
	}
	var res SubmitResult
	if err := s.client.post(ctx, "/api/v1/surveys", r, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Import stores many records at once. Invalid records are reported in the
// result rather than failing the call.
func (s *SurveysClient) Import(ctx context.Context, records []SurveyRecord) (*ImportResult, error) {
	if records == nil {
		records = []SurveyRecord{}
	}
	var res ImportResult
	if err := s.client.post(ctx, "/api/v1/surveys/import", records, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Lookup fetches one record by identity key.
func (s *SurveysClient) Lookup(ctx context.Context, identityKey string) (*SurveyRecord, error) {
	if identityKey == "" {
		return nil, errors.New(errors.ErrCodeValidation, "identity key is required")
	}
	q := url.Values{}
	q.Set("key", identityKey)

	var rec SurveyRecord
	if err := s.client.get(ctx, withQuery("/api/v1/surveys/lookup", q), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func filterQuery(f Filter) url.Values {
	q := url.Values{}
	n := f.Normalized()
	for name, v := range map[string]string{"district": n.District, "block": n.Block, "gp": n.GP, "year": n.Year} {
		if v != survey.All {
			q.Set(name, v)
		}
	}
	return q
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

//Personal.AI order the ending
