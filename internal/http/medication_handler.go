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

type medicationService interface {
	List(ctx context.Context) []domain.Medication
	Get(ctx context.Context, id string) (domain.Medication, error)
	Create(ctx context.Context, input application.MedicationInput) (domain.Medication, alarm.Result, error)
	Update(ctx context.Context, id string, input application.MedicationInput) (domain.Medication, alarm.Result, error)
	SetActive(ctx context.Context, id string, active bool) (domain.Medication, alarm.Result, error)
	Delete(ctx context.Context, id string) error
	RecordDose(ctx context.Context, id string, input application.DoseInput) (domain.DoseLogEntry, error)
}

type MedicationHandler struct {
	service   medicationService
	responder responder
	logger    *slog.Logger
}

func NewMedicationHandler(service medicationService, logger *slog.Logger) *MedicationHandler {
	base := defaultLogger(logger)
	return &MedicationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MedicationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "MedicationHandler", operation, attrs...)
}

func (h *MedicationHandler) List(w http.ResponseWriter, r *http.Request) {
	meds := h.service.List(r.Context())
	h.log(r.Context(), "List").DebugContext(r.Context(), "medications listed", "result_count", len(meds))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMedicationsResponse{Medications: meds})
}

func (h *MedicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	med, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, medicationResponse{Medication: med})
}

func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input application.MedicationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode medication", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	med, result, err := h.service.Create(r.Context(), input)
	h.writeMutation(r.Context(), w, "Create", http.StatusCreated, med, result, err)
}

func (h *MedicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	var input application.MedicationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.log(r.Context(), "Update", "medication_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode medication", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	med, result, err := h.service.Update(r.Context(), id, input)
	h.writeMutation(r.Context(), w, "Update", http.StatusOK, med, result, err)
}

func (h *MedicationHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	var req activeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	med, result, err := h.service.SetActive(r.Context(), id, *req.Active)
	h.writeMutation(r.Context(), w, "SetActive", http.StatusOK, med, result, err)
}

func (h *MedicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err, nil)
		return
	}
	h.log(r.Context(), "Delete", "medication_id", id).InfoContext(r.Context(), "medication deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *MedicationHandler) RecordDose(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	var input application.DoseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	entry, err := h.service.RecordDose(r.Context(), id, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, doseResponse{Dose: entry})
}

func (h *MedicationHandler) writeMutation(ctx context.Context, w http.ResponseWriter, operation string, status int, med domain.Medication, result alarm.Result, err error) {
	if err != nil {
		h.log(ctx, operation, "medication_id", med.ID).WarnContext(ctx, "medication write failed", "error", err, "error_kind", application.ErrorKind(err))
		var resource any
		if med.ID != "" {
			resource = medicationResponse{Medication: med, Alarms: &result}
		}
		h.responder.handleServiceError(ctx, w, err, resource)
		return
	}
	h.responder.writeJSON(ctx, w, status, medicationResponse{Medication: med, Alarms: &result})
}

type activeRequest struct {
	Active *bool `json:"active"`
}

type listMedicationsResponse struct {
	Medications []domain.Medication `json:"medications"`
}

type medicationResponse struct {
	Medication domain.Medication `json:"medication"`
	Alarms     *alarm.Result     `json:"alarms,omitempty"`
}

type doseResponse struct {
	Dose domain.DoseLogEntry `json:"dose"`
}
