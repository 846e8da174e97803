package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/testfixtures"
)

func newMedicationService(t *testing.T) (*MedicationService, *alarmsStub, *doseStub) {
	t.Helper()
	repo, _ := newCatalog()
	alarms := &alarmsStub{}
	doses := &doseStub{}
	ids := testfixtures.NewIDGenerator("med")
	return NewMedicationService(repo, alarms, doses, ids.Next, testfixtures.DiscardLogger()), alarms, doses
}

func TestMedicationCreateSchedulesAlarms(t *testing.T) {
	ctx := context.Background()
	svc, alarms, _ := newMedicationService(t)

	med, result, err := svc.Create(ctx, MedicationInput{
		Name:      " Losartana ",
		Dosage:    "50mg",
		Schedules: []string{"8:00", "20:00"},
		Weekdays:  []int{5, 1, 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "med-1", med.ID)
	assert.Equal(t, "Losartana", med.Name)
	assert.True(t, med.Active)
	assert.Equal(t, []string{"08:00", "20:00"}, med.Schedules)
	assert.Equal(t, []int{1, 5}, med.Weekdays)
	require.Len(t, alarms.scheduledMeds, 1)
	assert.Len(t, result.References, 1)

	stored, err := svc.Get(ctx, "med-1")
	require.NoError(t, err)
	assert.Equal(t, med, stored)
}

func TestMedicationCreateExpandsInterval(t *testing.T) {
	svc, _, _ := newMedicationService(t)

	med, _, err := svc.Create(context.Background(), MedicationInput{
		Name:          "Amoxicilina",
		IntervalHours: 8,
		StartTime:     "22:00",
		Schedules:     []string{"ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"06:00", "14:00", "22:00"}, med.Schedules)
	assert.Equal(t, "22:00", med.StartTime)
}

func TestMedicationCreateValidation(t *testing.T) {
	svc, alarms, _ := newMedicationService(t)

	_, _, err := svc.Create(context.Background(), MedicationInput{
		Schedules: []string{"25:00"},
		Weekdays:  []int{7},
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "name")
	assert.Contains(t, vErr.FieldErrors, "schedules")
	assert.Contains(t, vErr.FieldErrors, "weekdays")
	assert.Empty(t, svc.List(context.Background()))
	assert.Empty(t, alarms.scheduledMeds)

	_, _, err = svc.Create(context.Background(), MedicationInput{Name: "X", IntervalHours: 30, StartTime: "08:00"})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "intervalHours")
}

func TestMedicationCreateInactiveCancels(t *testing.T) {
	svc, alarms, _ := newMedicationService(t)

	_, _, err := svc.Create(context.Background(), MedicationInput{Name: "X", Schedules: []string{"08:00"}, Active: boolPtr(false)})
	require.NoError(t, err)
	assert.Empty(t, alarms.scheduledMeds)
	assert.Equal(t, []string{"med-1"}, alarms.cancelled)
}

func TestMedicationPermissionDeniedStillPersists(t *testing.T) {
	ctx := context.Background()
	svc, alarms, _ := newMedicationService(t)
	alarms.scheduleErr = deniedErr()

	med, _, err := svc.Create(ctx, MedicationInput{Name: "X", Schedules: []string{"08:00"}})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, "permission_denied", ErrorKind(err))

	_, getErr := svc.Get(ctx, med.ID)
	assert.NoError(t, getErr)
}

func TestMedicationUpdateAndSetActive(t *testing.T) {
	ctx := context.Background()
	svc, alarms, _ := newMedicationService(t)
	med, _, err := svc.Create(ctx, MedicationInput{Name: "X", Schedules: []string{"08:00"}})
	require.NoError(t, err)

	updated, _, err := svc.Update(ctx, med.ID, MedicationInput{Name: "Y", Schedules: []string{"09:30"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:30"}, updated.Schedules)
	assert.True(t, updated.Active)
	require.Len(t, alarms.scheduledMeds, 2)
	assert.Equal(t, "Y", alarms.scheduledMeds[1].Name)

	paused, _, err := svc.SetActive(ctx, med.ID, false)
	require.NoError(t, err)
	assert.False(t, paused.Active)
	assert.Equal(t, []string{med.ID}, alarms.cancelled)

	_, _, err = svc.Update(ctx, "missing", MedicationInput{Name: "Y", Schedules: []string{"09:30"}})
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = svc.SetActive(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMedicationDelete(t *testing.T) {
	ctx := context.Background()
	svc, alarms, _ := newMedicationService(t)
	med, _, err := svc.Create(ctx, MedicationInput{Name: "X", Schedules: []string{"08:00"}})
	require.NoError(t, err)
	alarms.cancelErr = errors.New("registry unavailable")

	require.NoError(t, svc.Delete(ctx, med.ID))
	assert.Equal(t, []string{med.ID}, alarms.cancelled)
	assert.ErrorIs(t, svc.Delete(ctx, med.ID), ErrNotFound)
}

func TestMedicationRecordDose(t *testing.T) {
	ctx := context.Background()
	svc, _, doses := newMedicationService(t)
	med, _, err := svc.Create(ctx, MedicationInput{Name: "X", Schedules: []string{"08:00"}})
	require.NoError(t, err)

	entry, err := svc.RecordDose(ctx, med.ID, DoseInput{ScheduleTime: "8:00", Taken: true})
	require.NoError(t, err)
	assert.Equal(t, domain.DoseTaken, entry.Status)
	assert.Equal(t, "08:00", entry.ScheduleTime)
	require.Len(t, doses.entries, 1)

	_, err = svc.RecordDose(ctx, med.ID, DoseInput{ScheduleTime: "8h", Date: "06/03/2024"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.FieldErrors, 2)

	_, err = svc.RecordDose(ctx, "missing", DoseInput{ScheduleTime: "08:00"})
	assert.ErrorIs(t, err, ErrNotFound)
}
