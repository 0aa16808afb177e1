package handlers

import (
	"net/http"

	"github.com/turtacn/gpsurvey-insight/internal/application/dashboard"
	"github.com/turtacn/gpsurvey-insight/internal/domain/survey"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// DashboardHandler serves the read-only dashboard views. Every endpoint
// takes the same district/block/gp/year query filter.
type DashboardHandler struct {
	svc    dashboard.Service
	logger logging.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc dashboard.Service, logger logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DashboardHandler{svc: svc, logger: logger}
}

// Metrics handles GET /api/v1/dashboard/metrics.
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(f survey.FilterState) (interface{}, error) {
		return h.svc.Metrics(r.Context(), f)
	})
}

// Distribution handles GET /api/v1/dashboard/distribution.
func (h *DashboardHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(f survey.FilterState) (interface{}, error) {
		return h.svc.Distribution(r.Context(), f)
	})
}

// YearSeries handles GET /api/v1/dashboard/year-series.
func (h *DashboardHandler) YearSeries(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(f survey.FilterState) (interface{}, error) {
		rows, err := h.svc.YearSeries(r.Context(), f)
		if rows == nil && err == nil {
			rows = []survey.YearRow{}
		}
		return rows, err
	})
}

// Pyramid handles GET /api/v1/dashboard/pyramid.
func (h *DashboardHandler) Pyramid(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(f survey.FilterState) (interface{}, error) {
		return h.svc.Pyramid(r.Context(), f)
	})
}

// Completion handles GET /api/v1/dashboard/completion.
func (h *DashboardHandler) Completion(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(f survey.FilterState) (interface{}, error) {
		return h.svc.Completion(r.Context(), f)
	})
}

// Filters handles GET /api/v1/dashboard/filters.
func (h *DashboardHandler) Filters(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(f survey.FilterState) (interface{}, error) {
		return h.svc.FilterOptions(r.Context(), f)
	})
}

// Coverage handles GET /api/v1/dashboard/coverage.
func (h *DashboardHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(f survey.FilterState) (interface{}, error) {
		return h.svc.Coverage(r.Context(), f)
	})
}

// WaterBodies handles GET /api/v1/dashboard/water-bodies. The optional
// village parameter narrows the list to one village of the selection.
func (h *DashboardHandler) WaterBodies(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(f survey.FilterState) (interface{}, error) {
		return h.svc.WaterBodies(r.Context(), f, r.URL.Query().Get("village"))
	})
}

// Export handles POST /api/v1/dashboard/export. The filter is read from the
// query string like the other views; the response carries a presigned link.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	res, err := h.svc.Export(r.Context(), f)
	if err != nil {
		h.fail(w, "export", f, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *DashboardHandler) serve(w http.ResponseWriter, r *http.Request, view func(survey.FilterState) (interface{}, error)) {
	f, err := parseFilter(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	body, err := view(f)
	if err != nil {
		h.fail(w, r.URL.Path, f, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *DashboardHandler) fail(w http.ResponseWriter, op string, f survey.FilterState, err error) {
	if errors.IsServerError(errors.GetCode(err)) || errors.GetCode(err) == errors.CodeUnknown {
		h.logger.Error("dashboard request failed",
			logging.String("operation", op),
			logging.String("filter", f.Key()),
			logging.Err(err))
	}
	writeAppError(w, err)
}

//Personal.AI order the ending
