// Package http provides HTTP handlers and middleware for the alarm API.
//
// The router exposes the following endpoints:
//   - GET /medications, POST /medications, GET|PUT|DELETE /medications/{id}:
//     medication management exchanging application.MedicationInput. Writes
//     respond with the stored medication and the alarm.Result of the
//     scheduling pass.
//   - PUT /medications/{id}/active: body {"active": bool}. Pausing cancels
//     every alarm of the medication, resuming schedules them again.
//   - POST /medications/{id}/doses: confirms or reverts one dose for today
//     (or the given date) using application.DoseInput.
//   - GET /visits, POST /visits, GET|PUT|DELETE /visits/{id}: doctor visits
//     and their reminders.
//   - GET|PUT /vaccines/calendar, GET /vaccines/records,
//     PUT|DELETE /vaccines/records/{vaccineId}: the vaccine calendar and the
//     user's records. Applied records get follow-up reminders.
//   - POST /alarms/reconcile: cancels and rebuilds every alarm and returns
//     the alarm.Report.
//   - POST /alarms/test?seconds=N: schedules a test notification N seconds
//     ahead (default 5) and waits until the scheduler lists it.
//   - GET /alarms/scheduled: every pending notification.
//   - GET /alarms/preview/{medicationId}?limit=N: next fire instants per slot.
//   - GET /debug/logs?type=info|success|warning|error, DELETE /debug/logs:
//     the persisted debug log, most recent first.
//   - GET /healthz: liveness probe.
//
// When an entity is stored but its alarms cannot be scheduled, the error
// response carries the stored entity under "resource". Permission problems
// map to 409 and scheduler failures to 503.
package http
