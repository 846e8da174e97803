package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/care-alarms/internal/alarm"
	"github.com/example/care-alarms/internal/debuglog"
	"github.com/example/care-alarms/internal/notifier"
)

const (
	defaultTestSeconds  = 5
	defaultPreviewLimit = 5
	maxPreviewLimit     = 50
)

type alarmService interface {
	RescheduleAll(ctx context.Context) alarm.Report
	SendTestNotification(ctx context.Context, seconds int64) (alarm.TestResult, error)
	ListScheduled(ctx context.Context) ([]notifier.Scheduled, error)
	Preview(ctx context.Context, medicationID string, limit int) ([]alarm.SlotPreview, error)
}

type debugLog interface {
	ReadAll(ctx context.Context) []debuglog.Entry
	ReadByType(ctx context.Context, severity debuglog.Severity) []debuglog.Entry
	Clear(ctx context.Context) error
}

// AlarmHandler exposes reconciliation and the diagnostics of the alarm engine.
type AlarmHandler struct {
	service   alarmService
	debugLog  debugLog
	responder responder
	logger    *slog.Logger
}

func NewAlarmHandler(service alarmService, log debugLog, logger *slog.Logger) *AlarmHandler {
	base := defaultLogger(logger)
	return &AlarmHandler{service: service, debugLog: log, responder: newResponder(base), logger: base}
}

func (h *AlarmHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AlarmHandler", operation, attrs...)
}

func (h *AlarmHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report := h.service.RescheduleAll(r.Context())
	h.log(r.Context(), "Reconcile").InfoContext(r.Context(), "reconciliation finished",
		"permission_granted", report.PermissionGranted,
		"notifications", report.Notifications,
		"failures", len(report.Failures))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, report)
}

func (h *AlarmHandler) Test(w http.ResponseWriter, r *http.Request) {
	seconds := int64(defaultTestSeconds)
	if raw := strings.TrimSpace(r.URL.Query().Get("seconds")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSeconds)
			return
		}
		seconds = parsed
	}

	result, err := h.service.SendTestNotification(r.Context(), seconds)
	if err != nil {
		h.log(r.Context(), "Test", "seconds", seconds).WarnContext(r.Context(), "test notification failed", "error", err)
		var resource any
		if result.Identifier != "" {
			resource = result
		}
		h.responder.handleServiceError(r.Context(), w, err, resource)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusAccepted, result)
}

func (h *AlarmHandler) Scheduled(w http.ResponseWriter, r *http.Request) {
	scheduled, err := h.service.ListScheduled(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err, nil)
		return
	}
	if scheduled == nil {
		scheduled = []notifier.Scheduled{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduledResponse{Scheduled: scheduled})
}

func (h *AlarmHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	limit := defaultPreviewLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPreviewLimit {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = parsed
	}

	slots, err := h.service.Preview(r.Context(), id, limit)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, previewResponse{MedicationID: id, Slots: slots})
}

func (h *AlarmHandler) Logs(w http.ResponseWriter, r *http.Request) {
	filter := debuglog.Severity(strings.TrimSpace(r.URL.Query().Get("type")))
	var entries []debuglog.Entry
	switch {
	case filter == "":
		entries = h.debugLog.ReadAll(r.Context())
	case filter.Valid():
		entries = h.debugLog.ReadByType(r.Context(), filter)
	default:
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidType)
		return
	}
	if entries == nil {
		entries = []debuglog.Entry{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, logsResponse{Logs: entries})
}

func (h *AlarmHandler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := h.debugLog.Clear(r.Context()); err != nil {
		h.log(r.Context(), "ClearLogs").ErrorContext(r.Context(), "clear debug log", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type scheduledResponse struct {
	Scheduled []notifier.Scheduled `json:"scheduled"`
}

type previewResponse struct {
	MedicationID string              `json:"medicationId"`
	Slots        []alarm.SlotPreview `json:"slots"`
}

type logsResponse struct {
	Logs []debuglog.Entry `json:"logs"`
}
