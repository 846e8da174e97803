// Package permission negotiates notification dispatch rights once per
// process and keeps the alarm channel configured.
package permission

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/care-alarms/internal/debuglog"
	"github.com/example/care-alarms/internal/notifier"
)

// ChannelID is the delivery channel every alarm is posted to.
const ChannelID = "alarms"

// AlarmChannel returns the settings of the alarm channel.
func AlarmChannel() notifier.ChannelSettings {
	return notifier.ChannelSettings{
		Name:                 "Alarmes de Medicamentos",
		Importance:           notifier.ImportanceMax,
		VibrationPattern:     []int{0, 250, 250, 250},
		LightColor:           "#FF231F7C",
		Sound:                "default",
		ShowBadge:            true,
		BypassDoNotDisturb:   true,
		LockscreenVisibility: "public",
	}
}

// Result is the outcome of Ensure.
type Result struct {
	Granted  bool   `json:"granted"`
	Error    string `json:"error,omitempty"`
	CanRetry bool   `json:"canRetry,omitempty"`
}

// Gate caches a successful grant until Invalidate is called.
type Gate struct {
	notifier notifier.Scheduler
	log      *debuglog.Sink
	logger   *slog.Logger

	mu      sync.Mutex
	granted bool
}

// New creates a Gate.
func New(n notifier.Scheduler, log *debuglog.Sink, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		notifier: n,
		log:      log,
		logger:   logger.With(slog.String("component", "permission")),
	}
}

// Ensure obtains dispatch rights, asking interactively at most once per
// call when they are not yet granted, then configures the alarm channel.
func (g *Gate) Ensure(ctx context.Context) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.granted {
		return Result{Granted: true}
	}

	if !g.notifier.IsDevice(ctx) {
		g.log.Error(ctx, "Notificações exigem um dispositivo físico")
		return Result{Error: "notifications require a capable device"}
	}

	status, err := g.notifier.PermissionStatus(ctx)
	if err != nil {
		g.log.Error(ctx, "Erro ao consultar permissão: %v", err)
		return Result{Error: err.Error(), CanRetry: true}
	}
	g.log.Info(ctx, "Status da permissão: %s", status)

	if status != notifier.PermissionGranted {
		g.log.Info(ctx, "Solicitando permissão de notificações")
		status, err = g.notifier.RequestPermission(ctx, notifier.PermissionRequest{
			Alert:         true,
			Badge:         true,
			Sound:         true,
			Announcements: true,
		})
		if err != nil {
			g.log.Error(ctx, "Erro ao solicitar permissão: %v", err)
			return Result{Error: err.Error(), CanRetry: true}
		}
		g.log.Info(ctx, "Resposta da permissão: %s", status)
	}

	if status != notifier.PermissionGranted {
		g.log.Error(ctx, "Permissão de notificações negada")
		return Result{Error: "notification permission denied", CanRetry: true}
	}

	if err := g.notifier.ConfigureChannel(ctx, ChannelID, AlarmChannel()); err != nil {
		g.log.Warning(ctx, "Falha ao configurar canal %s: %v", ChannelID, err)
	} else {
		g.log.Success(ctx, "Canal de alarmes configurado")
	}

	g.granted = true
	g.logger.InfoContext(ctx, "notification permission granted")
	return Result{Granted: true}
}

// Invalidate forces the next Ensure to query the scheduler again.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	g.granted = false
	g.mu.Unlock()
}
