package http

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sheetkpi/internal/errors"
	"sheetkpi/internal/infrastructure"
)

const maxFieldNameLength = 100

// DashboardHandler serves freshly computed dashboard documents
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetDashboard)
	r.Route("/values/{field}", func(r chi.Router) {
		r.Use(h.FieldCtx)
		r.Get("/", h.GetValues)
	})

	return r
}

// FieldCtx validates the field URL parameter
func (h *DashboardHandler) FieldCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		field := strings.TrimSpace(chi.URLParam(r, "field"))
		if field == "" {
			h.errorHandler.HandleError(w, r, apierrors.NewValidationError("field name is required"))
			return
		}
		if utf8.RuneCountInString(field) > maxFieldNameLength {
			h.errorHandler.HandleError(w, r, apierrors.NewValidationError("field name is too long"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetDashboard handles GET /api/dashboard. Each request runs the pipeline
// against the current sheet contents.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := infrastructure.GetTraceID(r.Context())

	h.logger.InfoContext(r.Context(), "generating dashboard",
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path),
	)

	dashboard, err := h.service.Generate(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, dashboard)
}

// GetValues handles GET /api/dashboard/values/{field}
func (h *DashboardHandler) GetValues(w http.ResponseWriter, r *http.Request) {
	field := strings.TrimSpace(chi.URLParam(r, "field"))

	values, err := h.service.UniqueValues(r.Context(), field)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"field":  field,
		"values": values,
		"count":  len(values),
	})
}
