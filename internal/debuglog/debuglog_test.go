package debuglog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/care-alarms/internal/persistence"
	"github.com/example/care-alarms/internal/persistence/memory"
	"github.com/example/care-alarms/internal/testfixtures"
)

var brt = time.FixedZone("BRT", -3*60*60)

func newSink(store persistence.Store, clock *testfixtures.Clock, opts ...Option) *Sink {
	opts = append([]Option{WithClock(clock.NowFunc()), WithLocation(brt), WithLogger(testfixtures.DiscardLogger())}, opts...)
	return New(store, opts...)
}

func TestAppendBoundsAndOrdersEntries(t *testing.T) {
	ctx := context.Background()
	clock := testfixtures.NewClock(time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))
	sink := newSink(memory.New(), clock)

	for i := 0; i < 150; i++ {
		sink.Info(ctx, "entry %d", i)
	}

	entries := sink.ReadAll(ctx)
	require.Len(t, entries, DefaultCapacity)
	assert.Equal(t, "entry 149", entries[0].Message)
	assert.Equal(t, "entry 50", entries[len(entries)-1].Message)
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i-1].ID, entries[i].ID, "ids strictly decrease from head")
	}
}

func TestAppendFormatsTimestampInLocation(t *testing.T) {
	ctx := context.Background()
	clock := testfixtures.NewClock(time.Date(2024, time.May, 1, 2, 3, 4, 0, time.UTC))
	sink := newSink(memory.New(), clock)

	sink.Append(ctx, "hello", SeveritySuccess)
	sink.Append(ctx, "bogus severity", Severity("loud"))

	entries := sink.ReadAll(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, "30/04/2024 23:03:04", entries[1].Timestamp)
	assert.Equal(t, clock.Now().UnixMilli(), entries[1].ID)
	assert.Equal(t, SeverityInfo, entries[0].Type)
}

func TestEntriesSurviveRestart(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clock := testfixtures.NewClock(time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))

	first := newSink(store, clock)
	first.Warning(ctx, "permission pending")
	clock.Advance(time.Second)
	first.Error(ctx, "schedule failed for %s", "med-1")

	second := newSink(store, clock)
	entries := second.ReadAll(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, "schedule failed for med-1", entries[0].Message)

	clock.Advance(time.Second)
	second.Success(ctx, "rescheduled")
	assert.Len(t, second.ReadAll(ctx), 3)

	raw, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"success"`)
}

func TestReadByTypeAndClear(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sink := newSink(store, testfixtures.NewClock(time.Time{}))

	sink.Info(ctx, "a")
	sink.Error(ctx, "b")
	sink.Error(ctx, "c")

	errorsOnly := sink.ReadByType(ctx, SeverityError)
	require.Len(t, errorsOnly, 2)
	assert.Equal(t, "c", errorsOnly[0].Message)
	assert.Empty(t, sink.ReadByType(ctx, SeverityWarning))

	require.NoError(t, sink.Clear(ctx))
	assert.Empty(t, sink.ReadAll(ctx))
	_, err := store.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestStorageFailuresDegradeToMemory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.FailGet[StorageKey] = errors.New("read failed")
	store.FailSet[StorageKey] = errors.New("write failed")
	sink := newSink(store, testfixtures.NewClock(time.Time{}))

	sink.Info(ctx, "kept in memory")
	entries := sink.ReadAll(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept in memory", entries[0].Message)
}

func TestCustomCapacityTruncatesLoadedBuffer(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clock := testfixtures.NewClock(time.Time{})
	full := newSink(store, clock)
	for i := 0; i < 10; i++ {
		full.Info(ctx, "%d", i)
	}

	small := newSink(store, clock, WithCapacity(3))
	entries := small.ReadAll(ctx)
	require.Len(t, entries, 3)
	assert.Equal(t, "9", entries[0].Message)
}
