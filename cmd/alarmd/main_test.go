package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/care-alarms/internal/alarm"
	"github.com/example/care-alarms/internal/config"
	"github.com/example/care-alarms/internal/persistence/memory"
	"github.com/example/care-alarms/internal/push"
	"github.com/example/care-alarms/internal/testfixtures"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("ALARMS_STORE_DRIVER", "sqlite")
	t.Setenv("ALARMS_SQLITE_DSN", "file:"+filepath.Join(t.TempDir(), "alarms.db"))
	t.Setenv("ALARMS_LOG_LEVEL", "error")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"serve", "reconcile", "test-notification", "logs", "migrate"})
}

func TestOpenStoreDrivers(t *testing.T) {
	ctx := context.Background()
	logger := testfixtures.DiscardLogger()

	store, err := openStore(ctx, config.Config{StoreDriver: config.DriverMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, store)

	mr := miniredis.RunT(t)
	store, err = openStore(ctx, config.Config{StoreDriver: config.DriverRedis, Redis: config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "t:"}}, logger)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	assert.True(t, mr.Exists("t:k"))
	require.NoError(t, store.Close())

	dsn := "file:" + filepath.Join(t.TempDir(), "alarms.db")
	store, err = openStore(ctx, config.Config{StoreDriver: config.DriverSQLite, SQLiteDSN: dsn}, logger)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	require.NoError(t, store.Close())

	_, err = openStore(ctx, config.Config{StoreDriver: "mongo"}, logger)
	assert.Error(t, err)
}

func TestNewDelivererFallsBackToLog(t *testing.T) {
	deliverer, err := newDeliverer(context.Background(), config.Config{}, testfixtures.DiscardLogger())
	require.NoError(t, err)
	assert.IsType(t, &push.LogDeliverer{}, deliverer)
}

func TestWiredHandlerServesAPI(t *testing.T) {
	logger := testfixtures.DiscardLogger()
	a, err := wire(config.Config{Location: testfixtures.Location}, logger, memory.New(), push.NewLogDeliverer(logger))
	require.NoError(t, err)
	handler := a.handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := strings.NewReader(`{"name":"Losartana","schedules":["08:00"]}`)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/medications", body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	scheduled, err := a.scheduler.ListScheduled(context.Background())
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.True(t, strings.HasSuffix(scheduled[0].Identifier, "-08:00"))
}

func TestReconcileCommand(t *testing.T) {
	useSQLite(t)

	out, err := runCommand(t, "reconcile")
	require.NoError(t, err)

	var report alarm.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.PermissionGranted)
	assert.Empty(t, report.Failures)
}

func TestTestNotificationAndLogsCommands(t *testing.T) {
	useSQLite(t)

	out, err := runCommand(t, "test-notification", "--seconds", "30")
	require.NoError(t, err)
	var result alarm.TestResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, strings.HasPrefix(result.Identifier, "test-"))

	out, err = runCommand(t, "logs", "--type", "success")
	require.NoError(t, err)
	assert.Contains(t, out, result.Identifier)

	_, err = runCommand(t, "logs", "--type", "loud")
	assert.Error(t, err)

	_, err = runCommand(t, "logs", "--clear")
	require.NoError(t, err)
	out, err = runCommand(t, "logs")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMigrateCommand(t *testing.T) {
	useSQLite(t)

	out, err := runCommand(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "0 pending")

	out, err = runCommand(t, "migrate", "--status")
	require.NoError(t, err)
	assert.NotContains(t, out, "applied")

	t.Setenv("ALARMS_STORE_DRIVER", "memory")
	_, err = runCommand(t, "migrate")
	assert.Error(t, err)
}

func TestStartCron(t *testing.T) {
	logger := testfixtures.DiscardLogger()
	a, err := wire(config.Config{Location: testfixtures.Location}, logger, memory.New(), push.NewLogDeliverer(logger))
	require.NoError(t, err)

	jobs, err := a.startCron(context.Background())
	require.NoError(t, err)
	assert.Nil(t, jobs)

	a.cfg.ReconcileCron = "not a spec"
	_, err = a.startCron(context.Background())
	assert.Error(t, err)

	a.cfg.ReconcileCron = "0 3 * * *"
	jobs, err = a.startCron(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs.Entries(), 1)
	assert.True(t, jobs.Entries()[0].Next.After(time.Now()))
	<-jobs.Stop().Done()
}
