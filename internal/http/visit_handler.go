package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/care-alarms/internal/alarm"
	"github.com/example/care-alarms/internal/application"
	"github.com/example/care-alarms/internal/domain"
)

type visitService interface {
	List(ctx context.Context) []domain.DoctorVisit
	Get(ctx context.Context, id string) (domain.DoctorVisit, error)
	Create(ctx context.Context, input application.VisitInput) (domain.DoctorVisit, alarm.Result, error)
	Update(ctx context.Context, id string, input application.VisitInput) (domain.DoctorVisit, alarm.Result, error)
	Delete(ctx context.Context, id string) error
}

type VisitHandler struct {
	service   visitService
	responder responder
	logger    *slog.Logger
}

func NewVisitHandler(service visitService, logger *slog.Logger) *VisitHandler {
	base := defaultLogger(logger)
	return &VisitHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *VisitHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "VisitHandler", operation, attrs...)
}

func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listVisitsResponse{Visits: h.service.List(r.Context())})
}

func (h *VisitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	visit, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, visitResponse{Visit: visit})
}

func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input application.VisitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode visit", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	visit, result, err := h.service.Create(r.Context(), input)
	h.writeMutation(r.Context(), w, "Create", http.StatusCreated, visit, result, err)
}

func (h *VisitHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	var input application.VisitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	visit, result, err := h.service.Update(r.Context(), id, input)
	h.writeMutation(r.Context(), w, "Update", http.StatusOK, visit, result, err)
}

func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *VisitHandler) writeMutation(ctx context.Context, w http.ResponseWriter, operation string, status int, visit domain.DoctorVisit, result alarm.Result, err error) {
	if err != nil {
		h.log(ctx, operation, "visit_id", visit.ID).WarnContext(ctx, "visit write failed", "error", err, "error_kind", application.ErrorKind(err))
		var resource any
		if visit.ID != "" {
			resource = visitResponse{Visit: visit, Alarms: &result}
		}
		h.responder.handleServiceError(ctx, w, err, resource)
		return
	}
	h.log(ctx, operation, "visit_id", visit.ID).InfoContext(ctx, "visit saved", "reminders", len(result.References))
	h.responder.writeJSON(ctx, w, status, visitResponse{Visit: visit, Alarms: &result})
}

type listVisitsResponse struct {
	Visits []domain.DoctorVisit `json:"visits"`
}

type visitResponse struct {
	Visit  domain.DoctorVisit `json:"visit"`
	Alarms *alarm.Result      `json:"alarms,omitempty"`
}
