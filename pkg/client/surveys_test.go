package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

func TestSurveysClient_ListQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/surveys", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Khurda", q.Get("district"))
		assert.Equal(t, "2024-2025", q.Get("year"))
		assert.False(t, q.Has("block"))
		assert.False(t, q.Has("gp"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "20", q.Get("offset"))
		w.Write([]byte(`{"records":null,"limit":10,"offset":20,"version":"v1"}`))
	})

	f := Filter{District: "Khurda", Block: "all", Year: "2024-2025"}
	page, err := c.Surveys().List(context.Background(), f, 10, 20)
	require.NoError(t, err)
	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
	assert.Equal(t, "v1", page.Version)

	_, err = c.Surveys().List(context.Background(), f, -1, 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

// pagedServer serves total records in pages, reporting version() as the
// dataset version of each page.
func pagedServer(total int, version func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		records := []map[string]string{}
		for i := offset; i < total && i < offset+limit; i++ {
			records = append(records, map[string]string{
				"gpName": fmt.Sprintf("GP-%02d", i), "district": "Khurda", "financialYear": "2024-2025",
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"records": records, "limit": limit, "offset": offset, "version": version()})
	}
}

func TestPager_ListAll(t *testing.T) {
	c := newTestClient(t, pagedServer(7, func() string { return "v1" }))

	all, version, err := c.Surveys().Pager(3).ListAll(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, all, 7)
	assert.Equal(t, "GP-00", all[0].GPName)
	assert.Equal(t, "GP-06", all[6].GPName)
	assert.Equal(t, "v1", version)
}

func TestPager_ListAll_ExactMultiple(t *testing.T) {
	var calls int32
	handler := pagedServer(6, func() string { return "v1" })
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	})

	all, _, err := c.Surveys().Pager(3).ListAll(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPager_ListAll_RestartsOnceOnConcurrentWrite(t *testing.T) {
	var calls int32
	c := newTestClient(t, pagedServer(5, func() string {
		// The second page of the first scan sees a new version.
		if atomic.AddInt32(&calls, 1) == 1 {
			return "v1"
		}
		return "v2"
	}))

	all, version, err := c.Surveys().Pager(3).ListAll(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, "v2", version)
}

func TestPager_ListAll_ConflictWhenUnstable(t *testing.T) {
	var calls int32
	c := newTestClient(t, pagedServer(5, func() string {
		return fmt.Sprintf("v%d", atomic.AddInt32(&calls, 1))
	}))

	_, _, err := c.Surveys().Pager(3).ListAll(context.Background(), Filter{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
}

func TestSurveysClient_Submit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/surveys", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"gpName":"Rampur"`)
		assert.Contains(t, string(body), `"formData"`)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"record":%s,"created":true}`, body)
	})

	rec := &SurveyRecord{
		GPName: "Rampur", District: "Khurda", Block: "Jatni", FinancialYear: "2024-2025",
		FormData: FormData{"Demographics": map[string]any{"Rampur": map[string]any{"male": "10"}}},
	}
	res, err := c.Surveys().Submit(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "Rampur", res.Record.GPName)

	_, err = c.Surveys().Submit(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidSubmission))
}

func TestSurveysClient_SubmitValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":"SRV_004","message":"invalid survey submission","detail":"gpName is required"}`))
	})

	_, err := c.Surveys().Submit(context.Background(), &SurveyRecord{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.True(t, errors.IsCode(apiErr.AppError(), errors.ErrCodeInvalidSubmission))
}

func TestSurveysClient_Import(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/surveys/import", r.URL.Path)
		var body []json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(t, body)
		w.Write([]byte(`{"imported":0,"rejected":[{"index":0,"key":"|2024-2025","reason":"gpName is required"}]}`))
	})

	res, err := c.Surveys().Import(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "gpName is required", res.Rejected[0].Reason)
}

func TestSurveysClient_Lookup(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/surveys/lookup", r.URL.Path)
		assert.Equal(t, "u-17|2024-2025", r.URL.Query().Get("key"))
		w.Write([]byte(`{"gpName":"Rampur","district":"Khurda","financialYear":"2024-2025","userId":"u-17","formData":{}}`))
	})

	rec, err := c.Surveys().Lookup(context.Background(), "u-17|2024-2025")
	require.NoError(t, err)
	assert.Equal(t, "u-17|2024-2025", rec.IdentityKey())

	_, err = c.Surveys().Lookup(context.Background(), "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

//Personal.AI order the ending
