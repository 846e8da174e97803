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

type vaccineService interface {
	Calendar(ctx context.Context) []domain.VaccineInfo
	SaveCalendar(ctx context.Context, calendar []domain.VaccineInfo) error
	Records(ctx context.Context) map[string]domain.VaccineRecord
	SaveRecord(ctx context.Context, vaccineID string, input application.VaccineRecordInput) (domain.VaccineRecord, alarm.Result, error)
	DeleteRecord(ctx context.Context, vaccineID string) error
}

type VaccineHandler struct {
	service   vaccineService
	responder responder
	logger    *slog.Logger
}

func NewVaccineHandler(service vaccineService, logger *slog.Logger) *VaccineHandler {
	base := defaultLogger(logger)
	return &VaccineHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *VaccineHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "VaccineHandler", operation, attrs...)
}

func (h *VaccineHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarResponse{Calendar: h.service.Calendar(r.Context())})
}

func (h *VaccineHandler) SaveCalendar(w http.ResponseWriter, r *http.Request) {
	var req calendarResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.service.SaveCalendar(r.Context(), req.Calendar); err != nil {
		h.log(r.Context(), "SaveCalendar").WarnContext(r.Context(), "calendar rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarResponse{Calendar: h.service.Calendar(r.Context())})
}

func (h *VaccineHandler) Records(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, recordsResponse{Records: h.service.Records(r.Context())})
}

func (h *VaccineHandler) SaveRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	var input application.VaccineRecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	record, result, err := h.service.SaveRecord(r.Context(), id, input)
	if err != nil {
		h.log(r.Context(), "SaveRecord", "vaccine_id", id).WarnContext(r.Context(), "record write failed", "error", err, "error_kind", application.ErrorKind(err))
		var resource any
		if record.VaccineID != "" {
			resource = recordResponse{Record: record, Alarms: &result}
		}
		h.responder.handleServiceError(r.Context(), w, err, resource)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, recordResponse{Record: record, Alarms: &result})
}

func (h *VaccineHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	if err := h.service.DeleteRecord(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type calendarResponse struct {
	Calendar []domain.VaccineInfo `json:"calendar"`
}

type recordsResponse struct {
	Records map[string]domain.VaccineRecord `json:"records"`
}

type recordResponse struct {
	Record domain.VaccineRecord `json:"record"`
	Alarms *alarm.Result        `json:"alarms,omitempty"`
}
