package alarm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/care-alarms/internal/catalog"
	"github.com/example/care-alarms/internal/debuglog"
	"github.com/example/care-alarms/internal/doselog"
	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/permission"
	"github.com/example/care-alarms/internal/persistence/memory"
	"github.com/example/care-alarms/internal/recurrence"
	"github.com/example/care-alarms/internal/registry"
	"github.com/example/care-alarms/internal/testfixtures"
)

type harness struct {
	service  *Service
	fake     *testfixtures.FakeNotifier
	clock    *testfixtures.Clock
	store    *memory.Storage
	registry *registry.Registry
	doses    *doselog.Log
	catalog  *catalog.Repository
	debugLog *debuglog.Sink
	gate     *permission.Gate
	ids      *testfixtures.IDGenerator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	store := memory.New()
	logger := testfixtures.DiscardLogger()
	fake := testfixtures.NewFakeNotifier(clock)
	sink := debuglog.New(store,
		debuglog.WithClock(clock.NowFunc()),
		debuglog.WithLocation(testfixtures.Location),
		debuglog.WithLogger(logger))
	gate := permission.New(fake, sink, logger)
	reg := registry.New(store, logger)
	doses := doselog.New(store, clock.NowFunc(), testfixtures.Location, logger)
	repo := catalog.New(store, logger)
	ids := testfixtures.NewIDGenerator("uuid")

	service, err := NewService(Dependencies{
		Notifier:     fake,
		Gate:         gate,
		Registry:     reg,
		Doses:        doses,
		Catalog:      repo,
		Engine:       recurrence.NewEngine(testfixtures.Location),
		DebugLog:     sink,
		Logger:       logger,
		Now:          clock.NowFunc(),
		NewID:        ids.Next,
		TestTimeout:  50 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	return &harness{
		service:  service,
		fake:     fake,
		clock:    clock,
		store:    store,
		registry: reg,
		doses:    doses,
		catalog:  repo,
		debugLog: sink,
		gate:     gate,
		ids:      ids,
	}
}

func (h *harness) deny() {
	h.fake.Status = notifier.PermissionDenied
	h.fake.RequestResult = notifier.PermissionDenied
	h.gate.Invalidate()
}

func identifiers(calls []testfixtures.ScheduleCall) []string {
	out := make([]string, len(calls))
	for i, call := range calls {
		out[i] = call.Identifier
	}
	return out
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(Dependencies{})
	require.Error(t, err)
}

func TestSchedulingErrorUnwraps(t *testing.T) {
	h := newHarness(t)
	h.deny()

	_, err := h.service.ScheduleMedicationAlarms(context.Background(), testfixtures.NewMedication())
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.Equal(t, KindPermissionDenied, KindOf(err))
	require.Equal(t, Kind(""), KindOf(nil))
}
