package schedule

import (
	"strings"
	"testing"
	"time"
)

// 2026-08-31 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2026, 8, 31, hour, minute, 0, 0, time.Local)
}

func TestEvaluateEmptyDayNeverRejectsOnDay(t *testing.T) {
	days := []time.Time{monday(9, 0), monday(9, 0).AddDate(0, 0, 1), monday(9, 0).AddDate(0, 0, 5)}
	for _, now := range days {
		res := Evaluate(WindowConfig{Day: ""}, now)
		if !res.Valid {
			t.Fatalf("expected valid on %s, got reason %q", now.Weekday(), res.Reason)
		}
	}
}

func TestEvaluateWrongDayNamesBothDays(t *testing.T) {
	tuesday := monday(10, 0).AddDate(0, 0, 1)
	res := Evaluate(WindowConfig{Day: "Monday"}, tuesday)
	if res.Valid {
		t.Fatalf("expected invalid on Tuesday")
	}
	if !strings.Contains(res.Reason, "Monday") || !strings.Contains(res.Reason, "Tuesday") {
		t.Fatalf("reason should name both days, got %q", res.Reason)
	}
}

func TestEvaluateDayCheckCaseInsensitive(t *testing.T) {
	res := Evaluate(WindowConfig{Day: "monday"}, monday(10, 0))
	if !res.Valid {
		t.Fatalf("expected case-insensitive day match, got %q", res.Reason)
	}
}

func TestEvaluateInsideWindow(t *testing.T) {
	cfg := WindowConfig{Day: "Monday", StartTime: "10:00 AM", Duration: "2 Hours"}
	res := Evaluate(cfg, monday(11, 30))
	if !res.Valid {
		t.Fatalf("11:30 AM should be inside 10:00 AM + 2h, got %q", res.Reason)
	}
}

func TestEvaluateAfterWindow(t *testing.T) {
	cfg := WindowConfig{Day: "Monday", StartTime: "10:00 AM", Duration: "2 Hours"}
	res := Evaluate(cfg, monday(13, 0))
	if res.Valid {
		t.Fatalf("1:00 PM should be past the window")
	}
	if !strings.Contains(res.Reason, "until 12:00 PM") {
		t.Fatalf("reason should carry the end time, got %q", res.Reason)
	}
}

func TestEvaluateBeforeWindow(t *testing.T) {
	cfg := WindowConfig{StartTime: "10:00 AM", Duration: "2 Hours"}
	res := Evaluate(cfg, monday(8, 15))
	if res.Valid {
		t.Fatalf("8:15 AM should be before the window")
	}
	if !strings.Contains(res.Reason, "starts at 10:00 AM") {
		t.Fatalf("reason should carry the start time, got %q", res.Reason)
	}
}

func TestEvaluateWindowBoundariesInclusive(t *testing.T) {
	cfg := WindowConfig{StartTime: "10:00 AM", Duration: "2 Hours"}
	for _, now := range []time.Time{monday(10, 0), monday(12, 0)} {
		if res := Evaluate(cfg, now); !res.Valid {
			t.Fatalf("boundary %s should be inside the window, got %q", now.Format("3:04 PM"), res.Reason)
		}
	}
}

func TestEvaluateEmptyStartTimeSkipsTimeCheck(t *testing.T) {
	res := Evaluate(WindowConfig{Day: "Monday"}, monday(23, 59))
	if !res.Valid {
		t.Fatalf("no start time configured, should always be valid: %q", res.Reason)
	}
}

func TestEvaluateMalformedStartTimeFailsOpen(t *testing.T) {
	res := Evaluate(WindowConfig{StartTime: "ten o'clock"}, monday(3, 0))
	if !res.Valid {
		t.Fatalf("malformed start time should fail open, got %q", res.Reason)
	}
	if !res.Degraded {
		t.Fatalf("expected degraded flag on malformed start time")
	}
}

func TestEvaluateMalformedDurationDefaultsToOneHour(t *testing.T) {
	cfg := WindowConfig{StartTime: "10:00 AM", Duration: "a while"}
	if res := Evaluate(cfg, monday(10, 30)); !res.Valid {
		t.Fatalf("10:30 AM should be inside the default one-hour window: %q", res.Reason)
	}
	if res := Evaluate(cfg, monday(11, 30)); res.Valid {
		t.Fatalf("11:30 AM should be past the default one-hour window")
	}
}

func TestParseStartTime(t *testing.T) {
	cases := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"10:00 AM", 10, 0, true},
		{"10:30 PM", 22, 30, true},
		{"12 AM", 0, 0, true},
		{"12:00 PM", 12, 0, true},
		{"1 PM", 13, 0, true},
		{"9:05 am", 9, 5, true},
		{"", 0, 0, false},
		{"13:00 PM", 0, 0, false},
		{"10:75 AM", 0, 0, false},
		{"10:00", 0, 0, false},
		{"noon", 0, 0, false},
	}
	for _, tc := range cases {
		got, ok := parseStartTime(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q: expected ok=%v got %v", tc.in, tc.ok, ok)
		}
		if ok && (got.hour != tc.hour || got.minute != tc.minute) {
			t.Fatalf("%q: expected %d:%02d got %d:%02d", tc.in, tc.hour, tc.minute, got.hour, got.minute)
		}
	}
}

func TestParseDurationHours(t *testing.T) {
	cases := []struct {
		in    string
		hours int
	}{
		{"2 Hours", 2},
		{"1 Hour", 1},
		{"3Hours", 3},
		{"Hours", 1},
		{"", 1},
	}
	for _, tc := range cases {
		if got, _ := parseDurationHours(tc.in); got != tc.hours {
			t.Fatalf("%q: expected %d got %d", tc.in, tc.hours, got)
		}
	}
}
