package recurrence

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Period is a calendar offset in years and months.
type Period struct {
	Years  int
	Months int
}

var (
	annualPattern  = regexp.MustCompile(`\b(?:anual|annual|yearly)`)
	yearsPattern   = regexp.MustCompile(`(?:a cada|every)\s+(\d+)\s+(?:anos?|years?)`)
	monthsPattern  = regexp.MustCompile(`(?:a cada|every)\s+(\d+)\s+(?:meses|m[eê]s|months?)`)
	boosterPattern = regexp.MustCompile(`(?:refor[cç]o|booster|reinforcement)\s+(?:ap[oó]s|after)\s+(\d+)\s+(?:anos?|years?)`)
)

// ParseFrequency reads a vaccine frequency description. Patterns are tried
// in order: annual keyword, every N years, every N months, booster after
// N years. Portuguese and English phrasings are accepted.
func ParseFrequency(description string) (Period, bool) {
	text := strings.ToLower(strings.TrimSpace(description))
	if text == "" {
		return Period{}, false
	}
	if annualPattern.MatchString(text) {
		return Period{Years: 1}, true
	}
	if n, ok := firstNumber(yearsPattern, text); ok {
		return Period{Years: n}, true
	}
	if n, ok := firstNumber(monthsPattern, text); ok {
		return Period{Months: n}, true
	}
	if n, ok := firstNumber(boosterPattern, text); ok {
		return Period{Years: n}, true
	}
	return Period{}, false
}

func firstNumber(pattern *regexp.Regexp, text string) (int, bool) {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// NextDueDate adds the parsed frequency to lastApplied. It reports false when
// the description is not recognised.
func NextDueDate(description string, lastApplied time.Time) (time.Time, bool) {
	period, ok := ParseFrequency(description)
	if !ok {
		return time.Time{}, false
	}
	return lastApplied.AddDate(period.Years, period.Months, 0), true
}

// ParseDate parses a stored calendar date (YYYY-MM-DD or RFC 3339) as
// midnight in the engine's location.
func (e *Engine) ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if day, err := time.ParseInLocation("2006-01-02", value, e.location); err == nil {
		return day, true
	}
	if instant, err := time.Parse(time.RFC3339, value); err == nil {
		y, m, d := instant.In(e.location).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, e.location), true
	}
	return time.Time{}, false
}

// NextVaccineDate computes the next due date from a frequency description
// and the stored applied date. It reports false when either cannot be parsed.
func (e *Engine) NextVaccineDate(frequency, appliedDate string) (time.Time, bool) {
	applied, ok := e.ParseDate(appliedDate)
	if !ok {
		return time.Time{}, false
	}
	return NextDueDate(frequency, applied)
}
