package alarm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/care-alarms/internal/debuglog"
	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/testfixtures"
)

func TestScheduleMedicationEveryDay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	med := testfixtures.NewMedication(testfixtures.WithMedicationID("med-1"))

	result, err := h.service.ScheduleMedicationAlarms(ctx, med)
	require.NoError(t, err)

	calls := h.fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"med-1-08:00", "med-1-20:00"}, identifiers(calls))
	for _, call := range calls {
		assert.Equal(t, notifier.TriggerDaily, call.Trigger.Kind)
		assert.True(t, call.Trigger.Repeats)
		assert.Equal(t, "med-1", call.Content.Data["medicationId"])
		assert.Equal(t, "high", call.Content.Data["priority"])
	}
	assert.Equal(t, 8, calls[0].Trigger.Hour)
	assert.Equal(t, "20:00", calls[1].Content.Data["scheduleTime"])

	want := []notifier.Reference{testfixtures.Reference("med-1-08:00"), testfixtures.Reference("med-1-20:00")}
	assert.Equal(t, want, result.References)
	assert.Equal(t, want, h.registry.Get(ctx, "med-1"))
	assert.Empty(t, result.Failures)
}

func TestScheduleMedicationLogsFirstFireDay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	med := testfixtures.NewMedication(testfixtures.WithMedicationID("med-1"))

	_, err := h.service.ScheduleMedicationAlarms(ctx, med)
	require.NoError(t, err)

	warnings := h.debugLog.ReadByType(ctx, debuglog.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "08:00")
	assert.Contains(t, warnings[0].Message, "amanhã")

	var today bool
	for _, entry := range h.debugLog.ReadByType(ctx, debuglog.SeverityInfo) {
		if entry.Message == "Losartana às 20:00: primeiro alarme hoje" {
			today = true
		}
	}
	assert.True(t, today)

	pending := h.fake.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, h.clock.At(8, 0).AddDate(0, 0, 1), pending[0].NextFire)
	assert.Equal(t, h.clock.At(20, 0), pending[1].NextFire)
}

func TestScheduleMedicationSkipsDoseTakenToday(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	med := testfixtures.NewMedication(testfixtures.WithMedicationID("med-1"))
	_, err := h.doses.Record(ctx, domain.DoseLogEntry{MedicationID: "med-1", ScheduleTime: "08:00", Status: domain.DoseTaken})
	require.NoError(t, err)

	result, err := h.service.ScheduleMedicationAlarms(ctx, med)
	require.NoError(t, err)

	assert.Equal(t, []string{"med-1-20:00"}, identifiers(h.fake.Calls()))
	assert.Equal(t, []notifier.Reference{testfixtures.Reference("med-1-20:00")}, h.registry.Get(ctx, "med-1"))
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, Skip{Identifier: "med-1-08:00", Reason: ReasonTakenToday}, result.Skipped[0])
}

func TestScheduleMedicationUntakenDoseIsScheduled(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	med := testfixtures.NewMedication(testfixtures.WithMedicationID("med-1"))
	_, err := h.doses.Record(ctx, domain.DoseLogEntry{MedicationID: "med-1", ScheduleTime: "08:00", Status: domain.DoseUntaken})
	require.NoError(t, err)

	result, err := h.service.ScheduleMedicationAlarms(ctx, med)
	require.NoError(t, err)
	assert.Len(t, result.References, 2)
}

func TestScheduleMedicationWeekdays(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	med := testfixtures.NewMedication(
		testfixtures.WithMedicationID("med-2"),
		testfixtures.WithSchedules("09:00"),
		testfixtures.WithWeekdays(0, 3, 5),
	)

	result, err := h.service.ScheduleMedicationAlarms(ctx, med)
	require.NoError(t, err)

	calls := h.fake.Calls()
	assert.Equal(t, []string{"med-2-09:00-7", "med-2-09:00-3", "med-2-09:00-5"}, identifiers(calls))
	for _, call := range calls {
		assert.Equal(t, notifier.TriggerWeekly, call.Trigger.Kind)
		assert.True(t, call.Trigger.Repeats)
	}
	assert.Equal(t, 7, calls[0].Trigger.Weekday)
	assert.Equal(t, 3, calls[1].Trigger.Weekday)
	assert.Equal(t, 5, calls[2].Trigger.Weekday)
	assert.Len(t, h.registry.Get(ctx, "med-2"), 3)
	assert.Len(t, result.References, 3)
}

func TestScheduleMedicationEmptyWeekdaysMeansEveryDay(t *testing.T) {
	h := newHarness(t)
	med := testfixtures.NewMedication(testfixtures.WithMedicationID("med-3"), testfixtures.WithWeekdays())

	_, err := h.service.ScheduleMedicationAlarms(context.Background(), med)
	require.NoError(t, err)
	assert.Equal(t, []string{"med-3-08:00", "med-3-20:00"}, identifiers(h.fake.Calls()))
}

func TestScheduleMedicationReplacesPreviousSet(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	med := testfixtures.NewMedication(testfixtures.WithMedicationID("med-1"))

	first, err := h.service.ScheduleMedicationAlarms(ctx, med)
	require.NoError(t, err)

	med.Schedules = []string{"12:00"}
	second, err := h.service.ScheduleMedicationAlarms(ctx, med)
	require.NoError(t, err)

	assert.ElementsMatch(t, first.References, h.fake.Cancelled())
	assert.Equal(t, 2, second.Replaced)
	assert.Equal(t, []notifier.Reference{testfixtures.Reference("med-1-12:00")}, h.registry.Get(ctx, "med-1"))
	assert.Equal(t, []string{"med-1-12:00"}, h.fake.PendingIdentifiers())
}

func TestScheduleMedicationPartialFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.fake.ScheduleErrs["med-1-08:00"] = errors.New("os rejected")
	med := testfixtures.NewMedication(testfixtures.WithMedicationID("med-1"), testfixtures.WithSchedules("08:00", "25:00", "20:00"))

	result, err := h.service.ScheduleMedicationAlarms(ctx, med)
	require.NoError(t, err)

	assert.Equal(t, []notifier.Reference{testfixtures.Reference("med-1-20:00")}, result.References)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, "med-1-08:00", result.Failures[0].Identifier)
	assert.Equal(t, "med-1-25:00", result.Failures[1].Identifier)
	assert.NotEmpty(t, h.debugLog.ReadByType(ctx, debuglog.SeverityError))
}

func TestScheduleMedicationDuplicateTimes(t *testing.T) {
	h := newHarness(t)
	med := testfixtures.NewMedication(testfixtures.WithMedicationID("med-1"), testfixtures.WithSchedules("8:00", "08:00"))

	result, err := h.service.ScheduleMedicationAlarms(context.Background(), med)
	require.NoError(t, err)
	assert.Len(t, result.References, 1)
}

func TestScheduleMedicationPermissionDenied(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	med := testfixtures.NewMedication(testfixtures.WithMedicationID("med-1"))
	_, err := h.service.ScheduleMedicationAlarms(ctx, med)
	require.NoError(t, err)
	h.fake.ResetCalls()
	h.deny()

	_, err = h.service.ScheduleMedicationAlarms(ctx, med)

	var schedErr *SchedulingError
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, KindPermissionDenied, schedErr.Kind)
	assert.Equal(t, "med-1", schedErr.EntityKey)
	assert.Empty(t, h.fake.Calls())
	assert.Empty(t, h.fake.Cancelled())
	assert.Len(t, h.registry.Get(ctx, "med-1"), 2)
}

func TestScheduleMedicationInvalidInput(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.service.ScheduleMedicationAlarms(ctx, domain.Medication{})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = h.service.ScheduleMedicationAlarms(ctx, testfixtures.NewMedication(testfixtures.WithWeekdays(1, 9)))
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Empty(t, h.fake.Calls())
}

func TestScheduleMedicationRegistryFailure(t *testing.T) {
	h := newHarness(t)
	h.store.FailSet["notifications:med-1"] = errors.New("disk full")

	result, err := h.service.ScheduleMedicationAlarms(context.Background(), testfixtures.NewMedication(testfixtures.WithMedicationID("med-1")))
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Len(t, result.References, 2)
}

func TestCancelMedicationAlarmsBestEffort(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.service.ScheduleMedicationAlarms(ctx, testfixtures.NewMedication(testfixtures.WithMedicationID("med-1")))
	require.NoError(t, err)
	h.fake.CancelErrs[testfixtures.Reference("med-1-08:00")] = errors.New("unknown id")

	result, err := h.service.CancelMedicationAlarms(ctx, "med-1")
	require.NoError(t, err)

	assert.Equal(t, CancelResult{EntityKey: "med-1", Cancelled: 1, Failed: 1}, result)
	assert.Len(t, h.fake.Cancelled(), 2)
	assert.Empty(t, h.registry.Get(ctx, "med-1"))

	result, err = h.service.CancelMedicationAlarms(ctx, "med-1")
	require.NoError(t, err)
	assert.Zero(t, result.Cancelled)
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	med := testfixtures.NewMedication(testfixtures.WithMedicationID("med-1"), testfixtures.WithWeekdays(1, 3))
	require.NoError(t, h.catalog.SaveMedication(ctx, med))

	previews, err := h.service.Preview(ctx, "med-1", 3)
	require.NoError(t, err)
	require.Len(t, previews, 2)

	morning := previews[0]
	assert.Equal(t, "08:00", morning.ScheduleTime)
	assert.Equal(t, []int{1, 3}, morning.Weekdays)
	require.Len(t, morning.Fires, 3)
	assert.Equal(t, h.clock.At(8, 0).AddDate(0, 0, 5), morning.Fires[0])
	assert.Equal(t, h.clock.At(20, 0), previews[1].Fires[0])

	_, err = h.service.Preview(ctx, "missing", 3)
	assert.Error(t, err)
}
