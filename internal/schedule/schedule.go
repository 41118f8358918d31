package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WindowConfig is a course's class-slot configuration as stored by the
// admin dashboard. All fields are optional strings; empty means the
// corresponding check does not apply.
type WindowConfig struct {
	Day       string // full weekday name, e.g. "Monday"
	StartTime string // "H[:MM] AM|PM", e.g. "10:00 AM"
	Duration  string // leading integer hours, e.g. "2 Hours"
}

// Result reports whether an instant falls inside the configured window.
type Result struct {
	Valid    bool
	Reason   string
	Degraded bool // a config string failed to parse and the check fell open
}

// Evaluate decides whether now is inside the course's class slot.
// Day and time checks are independent: an empty Day skips the weekday
// gate, an empty StartTime skips the time-of-day gate. Malformed
// StartTime or Duration strings degrade to Valid rather than blocking
// check-in; Degraded is set so callers can log it.
func Evaluate(cfg WindowConfig, now time.Time) Result {
	if day := strings.TrimSpace(cfg.Day); day != "" {
		today := now.Weekday().String()
		if !strings.EqualFold(day, today) {
			return Result{Reason: fmt.Sprintf("class holds on %s, today is %s", day, today)}
		}
	}

	start, ok := parseStartTime(cfg.StartTime)
	if !ok {
		if strings.TrimSpace(cfg.StartTime) == "" {
			return Result{Valid: true}
		}
		return Result{Valid: true, Degraded: true}
	}

	hours, parsed := parseDurationHours(cfg.Duration)
	startAt := time.Date(now.Year(), now.Month(), now.Day(), start.hour, start.minute, 0, 0, now.Location())
	endAt := startAt.Add(time.Duration(hours) * time.Hour)

	switch {
	case now.Before(startAt):
		return Result{Reason: fmt.Sprintf("session has not started yet, starts at %s", startAt.Format("3:04 PM"))}
	case now.After(endAt):
		return Result{Reason: fmt.Sprintf("session has ended, was available until %s", endAt.Format("3:04 PM"))}
	default:
		return Result{Valid: true, Degraded: !parsed && strings.TrimSpace(cfg.Duration) != ""}
	}
}

type clockTime struct {
	hour   int
	minute int
}

// parseStartTime parses "H[:MM] AM|PM" into 24-hour clock values.
// 12 AM maps to hour 0 and 12 PM stays 12.
func parseStartTime(s string) (clockTime, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return clockTime{}, false
	}

	fields := strings.Fields(s)
	if len(fields) != 2 {
		return clockTime{}, false
	}
	meridiem := strings.ToUpper(fields[1])
	if meridiem != "AM" && meridiem != "PM" {
		return clockTime{}, false
	}

	hourStr, minuteStr := fields[0], "0"
	if idx := strings.Index(fields[0], ":"); idx >= 0 {
		hourStr, minuteStr = fields[0][:idx], fields[0][idx+1:]
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return clockTime{}, false
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil || minute < 0 || minute > 59 {
		return clockTime{}, false
	}

	if meridiem == "AM" && hour == 12 {
		hour = 0
	}
	if meridiem == "PM" && hour != 12 {
		hour += 12
	}
	return clockTime{hour: hour, minute: minute}, true
}

// parseDurationHours extracts the leading integer from strings like
// "2 Hours". Unparseable input falls back to a single hour.
func parseDurationHours(s string) (hours int, ok bool) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 1, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil || n <= 0 {
		return 1, false
	}
	return n, true
}
