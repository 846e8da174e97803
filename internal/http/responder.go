package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/care-alarms/internal/alarm"
	"github.com/example/care-alarms/internal/application"
	"github.com/example/care-alarms/internal/catalog"
	"github.com/example/care-alarms/internal/logging"
)

var (
	errBadRequestBody = errors.New("Formato de requisição inválido.")
	errMissingID      = errors.New("Identificador ausente na URL.")
	errInvalidSeconds = errors.New("O parâmetro seconds deve ser um inteiro positivo.")
	errInvalidLimit   = errors.New("O parâmetro limit deve ser um inteiro entre 1 e 50.")
	errInvalidType    = errors.New("O parâmetro type deve ser info, success, warning ou error.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps service errors to responses. resource, when not
// nil, is the entity that was stored before the failure.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error, resource any) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   "Há erros nos dados informados.",
			Errors:    vErr.FieldErrors,
		})
	case errors.Is(err, application.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	case errors.Is(err, application.ErrPermissionDenied), alarm.KindOf(err) == alarm.KindPermissionDenied:
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "PERMISSION_DENIED",
			Message:   "Permissão de notificações negada. Os alarmes não vão tocar.",
			Resource:  resource,
		})
	case alarm.KindOf(err) == alarm.KindInvalidInput:
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, application.ErrSchedulingFailed), alarm.KindOf(err) != "":
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
			ErrorCode: "SCHEDULING_FAILED",
			Message:   "Não foi possível agendar os alarmes. Tente novamente.",
			Resource:  resource,
		})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, r.logger)
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requisição inválida."
	case http.StatusNotFound:
		return "Recurso não encontrado."
	case http.StatusConflict:
		return "A requisição conflita com o estado atual."
	case http.StatusServiceUnavailable:
		return "Serviço temporariamente indisponível."
	default:
		return "Erro interno do servidor."
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Resource  any               `json:"resource,omitempty"`
}
