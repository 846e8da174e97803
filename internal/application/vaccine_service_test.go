package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/testfixtures"
)

func newVaccineService(t *testing.T) (*VaccineService, *alarmsStub) {
	t.Helper()
	repo, _ := newCatalog()
	alarms := &alarmsStub{}
	svc := NewVaccineService(repo, alarms, testfixtures.DiscardLogger())
	require.NoError(t, svc.SaveCalendar(context.Background(), []domain.VaccineInfo{
		testfixtures.NewVaccineInfo("dt", "A cada 10 anos"),
		testfixtures.NewVaccineInfo("hpv", "Dose única"),
	}))
	return svc, alarms
}

func TestVaccineSaveRecordApplied(t *testing.T) {
	ctx := context.Background()
	svc, alarms := newVaccineService(t)

	record, result, err := svc.SaveRecord(ctx, "dt", VaccineRecordInput{Status: domain.VaccineApplied, AppliedDate: "2022-03-06"})
	require.NoError(t, err)
	assert.Equal(t, "dt", record.VaccineID)
	assert.Len(t, result.References, 1)
	require.Len(t, alarms.scheduledVaccines, 1)
	assert.Equal(t, record, svc.Records(ctx)["dt"])
}

func TestVaccineSaveRecordPendingCancels(t *testing.T) {
	svc, alarms := newVaccineService(t)

	_, _, err := svc.SaveRecord(context.Background(), "hpv", VaccineRecordInput{Status: domain.VaccinePending})
	require.NoError(t, err)
	assert.Empty(t, alarms.scheduledVaccines)
	assert.Equal(t, []string{"vaccine-hpv"}, alarms.cancelled)
}

func TestVaccineSaveRecordValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newVaccineService(t)

	_, _, err := svc.SaveRecord(ctx, "bcg", VaccineRecordInput{Status: domain.VaccineApplied, AppliedDate: "2022-03-06"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.SaveRecord(ctx, "dt", VaccineRecordInput{Status: domain.VaccineApplied})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "appliedDate")

	_, _, err = svc.SaveRecord(ctx, "dt", VaccineRecordInput{Status: "lost", ScheduledDate: "amanhã"})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "status")
	assert.Contains(t, vErr.FieldErrors, "scheduledDate")
}

func TestVaccineSaveCalendarReschedulesApplied(t *testing.T) {
	ctx := context.Background()
	svc, alarms := newVaccineService(t)
	_, _, err := svc.SaveRecord(ctx, "dt", VaccineRecordInput{Status: domain.VaccineApplied, AppliedDate: "2022-03-06"})
	require.NoError(t, err)

	require.NoError(t, svc.SaveCalendar(ctx, []domain.VaccineInfo{testfixtures.NewVaccineInfo("dt", "Anual")}))
	assert.Len(t, alarms.scheduledVaccines, 2)
	assert.Len(t, svc.Calendar(ctx), 1)

	err = svc.SaveCalendar(ctx, []domain.VaccineInfo{{ID: "a", Name: "A"}, {ID: "a"}})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "calendar[1].id")
	assert.Contains(t, vErr.FieldErrors, "calendar[1].name")
}

func TestVaccineDeleteRecord(t *testing.T) {
	ctx := context.Background()
	svc, alarms := newVaccineService(t)
	_, _, err := svc.SaveRecord(ctx, "dt", VaccineRecordInput{Status: domain.VaccineApplied, AppliedDate: "2022-03-06"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecord(ctx, "dt"))
	assert.Contains(t, alarms.cancelled, "vaccine-dt")
	assert.Empty(t, svc.Records(ctx))
	assert.ErrorIs(t, svc.DeleteRecord(ctx, "dt"), ErrNotFound)
}

func TestVaccinePermissionDenied(t *testing.T) {
	svc, alarms := newVaccineService(t)
	alarms.scheduleErr = deniedErr()

	record, _, err := svc.SaveRecord(context.Background(), "dt", VaccineRecordInput{Status: domain.VaccineApplied, AppliedDate: "2022-03-06"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, domain.VaccineApplied, record.Status)
}
