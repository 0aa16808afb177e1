// Common helper functions for HTTP handlers.

package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/turtacn/gpsurvey-insight/internal/application/dashboard"
	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000

	// maxBodyBytes bounds a decoded request body. Bulk imports of a full
	// season of surveys stay well below it.
	maxBodyBytes = 32 << 20
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// parseFilter reads the district/block/gp/year query parameters.
func parseFilter(r *http.Request) (survey.FilterState, error) {
	q := r.URL.Query()
	return dashboard.ParseFilter(q.Get("district"), q.Get("block"), q.Get("gp"), q.Get("year"))
}

// parsePagination extracts limit and offset from query parameters.
func parsePagination(r *http.Request) (int, int, error) {
	limit, offset := defaultPageSize, 0
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxPageSize {
			return 0, 0, errors.Newf(errors.ErrCodeValidation, "limit must be between 1 and %d", maxPageSize)
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errors.New(errors.ErrCodeValidation, "offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}

// decodeJSON reads r's body into dest.
func decodeJSON(r *http.Request, dest interface{}) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "malformed request body")
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError maps err to the status of its code. Server-side failures
// are masked behind the code's default message.
func writeAppError(w http.ResponseWriter, err error) {
	var ae *errors.AppError
	if !errors.As(err, &ae) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(errors.ErrCodeInternal),
			Message: errors.DefaultMessageForCode(errors.ErrCodeInternal),
		})
		return
	}

	status := ae.HTTPStatus()
	resp := ErrorResponse{Code: string(ae.Code), Message: ae.Message, Detail: ae.Detail}
	if errors.IsServerError(ae.Code) {
		resp.Message = errors.DefaultMessageForCode(ae.Code)
		resp.Detail = ""
	}
	writeJSON(w, status, resp)
}

//Personal.AI order the ending
