package survey

import (
	"context"
	"strconv"
	"time"
)

// Query narrows a record listing. Blank or "all" fields match everything.
type Query struct {
	District string
	Block    string
	GP       string
	Year     string
	Limit    int
	Offset   int
}

// FilterState converts the location and year part of q.
func (q Query) FilterState() FilterState {
	return FilterState{District: q.District, Block: q.Block, GP: q.GP, Year: q.Year}.Normalized()
}

// DatasetStamp identifies a version of the stored record set. Any write
// changes it, so derived results keyed by it never go stale.
type DatasetStamp struct {
	Count       int64     `json:"count"`
	LastTouched time.Time `json:"lastTouched"`
}

// Version renders the stamp as a cache key segment.
func (s DatasetStamp) Version() string {
	return strconv.FormatInt(s.Count, 10) + "-" + strconv.FormatInt(s.LastTouched.UnixNano(), 10)
}

// Repository persists survey records.
type Repository interface {
	// List returns the records matching q ordered by district, block, GP and year.
	List(ctx context.Context, q Query) ([]SurveyRecord, error)
	// Get returns the record with the given identity key.
	Get(ctx context.Context, identityKey string) (*SurveyRecord, error)
	// Upsert stores r under its identity key. SubmittedAt is kept from the
	// first write; LastUpdatedAt becomes at.
	Upsert(ctx context.Context, r *SurveyRecord, at time.Time) (*SurveyRecord, error)
	// Stamp returns the current dataset version.
	Stamp(ctx context.Context) (DatasetStamp, error)
}

//Personal.AI order the ending
