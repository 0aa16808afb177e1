package handlers

import (
	"net/http"

	"github.com/turtacn/gpsurvey-insight/internal/application/submission"
	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// SurveyHandler accepts survey submissions and lists stored records.
type SurveyHandler struct {
	submissions submission.Service
	repo        survey.Repository
	logger      logging.Logger
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(submissions submission.Service, repo survey.Repository, logger logging.Logger) *SurveyHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SurveyHandler{submissions: submissions, repo: repo, logger: logger}
}

// ListResponse is one page of stored records.
type ListResponse struct {
	Records []survey.SurveyRecord `json:"records"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
	Version string                `json:"version,omitempty"`
}

// Submit handles POST /api/v1/surveys. 201 for a new record, 200 for an
// update of an existing one.
func (h *SurveyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var rec survey.SurveyRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeAppError(w, err)
		return
	}

	res, err := h.submissions.Submit(r.Context(), &rec)
	if err != nil {
		h.logFailure("submit", err, logging.GP(rec.GPName), logging.FinancialYear(rec.FinancialYear))
		writeAppError(w, err)
		return
	}

	code := http.StatusOK
	if res.Created {
		code = http.StatusCreated
	}
	writeJSON(w, code, res)
}

// Import handles POST /api/v1/surveys/import with a JSON array of records.
// Invalid records are reported, not fatal.
func (h *SurveyHandler) Import(w http.ResponseWriter, r *http.Request) {
	var records []survey.SurveyRecord
	if err := decodeJSON(r, &records); err != nil {
		writeAppError(w, err)
		return
	}

	res, err := h.submissions.Import(r.Context(), records)
	if err != nil {
		h.logFailure("import", err, logging.Int("records", len(records)))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// List handles GET /api/v1/surveys. Accepts the dashboard filter plus
// limit/offset; the dataset version is returned so clients can detect change.
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	stamp, err := h.repo.Stamp(r.Context())
	if err != nil {
		h.logFailure("stamp", err)
		writeAppError(w, err)
		return
	}
	records, err := h.repo.List(r.Context(), survey.Query{
		District: f.District,
		Block:    f.Block,
		GP:       f.GP,
		Year:     f.Year,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.logFailure("list", err, logging.String("filter", f.Key()))
		writeAppError(w, err)
		return
	}
	if records == nil {
		records = []survey.SurveyRecord{}
	}

	w.Header().Set("X-Dataset-Version", stamp.Version())
	writeJSON(w, http.StatusOK, ListResponse{
		Records: records,
		Limit:   limit,
		Offset:  offset,
		Version: stamp.Version(),
	})
}

// Get handles GET /api/v1/surveys/lookup?key=<identity key>.
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeAppError(w, errors.New(errors.ErrCodeValidation, "key is required"))
		return
	}
	rec, err := h.repo.Get(r.Context(), key)
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logFailure("get", err, logging.String("key", key))
		}
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *SurveyHandler) logFailure(op string, err error, fields ...logging.Field) {
	if code := errors.GetCode(err); errors.IsClientError(code) {
		return
	}
	h.logger.Error("survey request failed", append(fields, logging.String("operation", op), logging.Err(err))...)
}

//Personal.AI order the ending
