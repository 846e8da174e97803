package alarm

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/permission"
)

// Payload types carried in Content.Data["type"].
const (
	TypeMedication = "medication"
	TypeVisit      = "visit"
	TypeVaccine    = "vaccine"
	TypeTest       = "test"
)

func medicationContent(med domain.Medication, scheduleTime string) notifier.Content {
	body := med.Name
	if med.Dosage != "" {
		body += " - " + med.Dosage
	}
	if med.Fasting {
		body += " (em jejum)"
	}
	return notifier.Content{
		Title: "💊 Hora do medicamento",
		Body:  fmt.Sprintf("%s às %s", body, scheduleTime),
		Data: map[string]string{
			"type":         TypeMedication,
			"medicationId": med.ID,
			"name":         med.Name,
			"dosage":       med.Dosage,
			"scheduleTime": scheduleTime,
			"fasting":      strconv.FormatBool(med.Fasting),
			"priority":     "high",
		},
		Sound:     "default",
		Priority:  notifier.PriorityMax,
		ChannelID: permission.ChannelID,
		Sticky:    true,
	}
}

func visitContent(visit domain.DoctorVisit, kind string, loc *time.Location) notifier.Content {
	at := visit.DateTime.In(loc)
	title := "🩺 Lembrete de consulta"
	if kind == "evening" {
		title = "🩺 Consulta amanhã"
	}
	parts := []string{visit.DoctorName}
	if visit.Specialty != "" {
		parts = append(parts, visit.Specialty)
	}
	body := fmt.Sprintf("%s em %s às %s", strings.Join(parts, " - "), at.Format("02/01"), at.Format("15:04"))
	if visit.Location != "" {
		body += " · " + visit.Location
	}
	return notifier.Content{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":     TypeVisit,
			"visitId":  visit.ID,
			"reminder": kind,
			"priority": "high",
		},
		Sound:     "default",
		Priority:  notifier.PriorityHigh,
		ChannelID: permission.ChannelID,
	}
}

func vaccineContent(info domain.VaccineInfo, due time.Time, kind string) notifier.Content {
	body := fmt.Sprintf("A vacina %s vence em %s", info.Name, due.Format("02/01/2006"))
	if kind == "day" {
		body = fmt.Sprintf("Hoje é o dia da vacina %s", info.Name)
	}
	return notifier.Content{
		Title: "💉 Lembrete de vacina",
		Body:  body,
		Data: map[string]string{
			"type":      TypeVaccine,
			"vaccineId": info.ID,
			"dueDate":   due.Format("2006-01-02"),
			"reminder":  kind,
			"priority":  "high",
		},
		Sound:     "default",
		Priority:  notifier.PriorityHigh,
		ChannelID: permission.ChannelID,
	}
}

func testContent(seconds int64) notifier.Content {
	return notifier.Content{
		Title: "🔔 Teste de alarme",
		Body:  fmt.Sprintf("Notificação de teste agendada para %d segundos", seconds),
		Data: map[string]string{
			"type":     TypeTest,
			"priority": "high",
		},
		Sound:     "default",
		Priority:  notifier.PriorityMax,
		ChannelID: permission.ChannelID,
	}
}
