package verify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"classattend/internal/attendance"
	"classattend/internal/geo"
	"classattend/internal/rotcode"
	"classattend/internal/schedule"
)

// Method is the student's chosen verification method.
type Method string

const (
	MethodBiometric Method = "biometric"
	MethodPasscode  Method = "passcode"
	MethodAdminCode Method = "admin_code"
	MethodStaff     Method = "staff"
)

// ParseMethod validates a client-supplied method string.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodBiometric, MethodPasscode, MethodAdminCode:
		return Method(s), nil
	default:
		return "", errors.New("unknown verification method: " + s)
	}
}

// adminFallbackCode is the fixed literal the admin-code path has always
// accepted alongside the course-derived value. A documented weakness of
// the shipped product, preserved as-is.
const adminFallbackCode = "0000"

// Attempt is one ephemeral verification attempt. It lives for a single
// check-in flow and ends either in exactly one committed mark or in a
// reported failure with no record.
type Attempt struct {
	Course   attendance.Course
	Student  attendance.Student
	Method   Method
	Now      time.Time
	Location *geo.Point // nil when the device denied or lacks a fix
	Passcode string
	ImageURL string // check-in photo for the biometric oracle
}

// Records is the slice of the record store the dispatcher needs.
type Records interface {
	TodayMarks(ctx context.Context, studentID, date string) ([]attendance.Mark, error)
	Commit(ctx context.Context, entry attendance.LogEntry, mark attendance.Mark) error
}

// BiometricOracle is the external face-matching service. The engine only
// sees a boolean; the matching itself lives behind a URL elsewhere.
type BiometricOracle interface {
	Verify(ctx context.Context, studentID, imageURL string) (bool, error)
}

// Outcome is a successful check-in: the committed mark plus the id of
// its linked verification log entry.
type Outcome struct {
	Mark  attendance.Mark
	LogID string
}

// Dispatcher coordinates method selection, the schedule, duplicate and
// geofence checks, and final persistence.
type Dispatcher struct {
	records Records
	oracle  BiometricOracle
}

// NewDispatcher creates a dispatcher over a record store and the
// biometric oracle. The oracle may be nil when biometric check-in is
// disabled; biometric attempts then fail with ErrPermissionDenied.
func NewDispatcher(records Records, oracle BiometricOracle) *Dispatcher {
	return &Dispatcher{records: records, oracle: oracle}
}

// CheckIn runs a self-service attempt through the fixed order: duplicate
// guard, schedule window, method verification, geofence, commit. The
// first rejection short-circuits with its failure; no partial state is
// kept. Context cancellation at any step aborts with zero side effects.
func (d *Dispatcher) CheckIn(ctx context.Context, a Attempt) (Outcome, error) {
	if err := d.guard(ctx, a.Student.ID, a.Course.Code, a.Now); err != nil {
		return Outcome{}, err
	}

	if res := schedule.Evaluate(a.Course.Window(), a.Now); !res.Valid {
		return Outcome{}, &ScheduleClosedError{Reason: res.Reason}
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if err := d.verifyMethod(ctx, a); err != nil {
		return Outcome{}, err
	}

	if fence := a.Course.Fence(); fence.Center != nil {
		if a.Location == nil {
			return Outcome{}, ErrPermissionDenied
		}
		if res := geo.Check(fence, *a.Location); !res.WithinRange {
			return Outcome{}, &OutOfRangeError{DistanceMeters: res.DistanceMeters}
		}
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	return d.commit(ctx, a)
}

// RecordByStaff marks a student present on behalf of course staff. The
// duplicate guard still applies; the schedule window and geofence do not.
func (d *Dispatcher) RecordByStaff(ctx context.Context, course attendance.Course, student attendance.Student, now time.Time) (Outcome, error) {
	if err := d.guard(ctx, student.ID, course.Code, now); err != nil {
		return Outcome{}, err
	}
	return d.commit(ctx, Attempt{Course: course, Student: student, Method: MethodStaff, Now: now})
}

// guard rejects when any mark already exists for the student, course and
// day. Evaluated before the interactive steps to avoid pointless
// prompts; the store's uniqueness constraint re-checks at commit.
func (d *Dispatcher) guard(ctx context.Context, studentID, courseCode string, now time.Time) error {
	marks, err := d.records.TodayMarks(ctx, studentID, attendance.DateOf(now))
	if err != nil {
		return &NetworkError{Op: "read", Err: err}
	}
	for _, m := range marks {
		if m.CourseCode == courseCode {
			return ErrAlreadyMarked
		}
	}
	return nil
}

func (d *Dispatcher) verifyMethod(ctx context.Context, a Attempt) error {
	switch a.Method {
	case MethodBiometric:
		if d.oracle == nil || a.ImageURL == "" {
			return ErrPermissionDenied
		}
		ok, err := d.oracle.Verify(ctx, a.Student.ID, a.ImageURL)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return ErrPermissionDenied
		}
		if !ok {
			return ErrVerificationFailed
		}
		return nil

	case MethodPasscode:
		if !rotcode.Accept(a.Course.Code, a.Passcode, a.Now) {
			return ErrVerificationFailed
		}
		return nil

	case MethodAdminCode:
		if a.Passcode == adminFallbackCode {
			return nil
		}
		code := a.Course.Code
		if len(code) > 4 {
			code = code[len(code)-4:]
		}
		if a.Passcode != code {
			return ErrVerificationFailed
		}
		return nil

	default:
		return ErrVerificationFailed
	}
}

func (d *Dispatcher) commit(ctx context.Context, a Attempt) (Outcome, error) {
	entry := attendance.LogEntry{
		ID:         uuid.NewString(),
		StudentID:  a.Student.ID,
		CourseCode: a.Course.Code,
		Status:     "verified",
		Method:     string(a.Method),
		ImageURL:   a.ImageURL,
		Timestamp:  a.Now,
	}
	mark := attendance.Mark{
		ID:          uuid.NewString(),
		StudentID:   a.Student.ID,
		StudentName: a.Student.Name,
		MarkDate:    attendance.DateOf(a.Now),
		CourseCode:  a.Course.Code,
		RegNumber:   a.Student.RegNumber,
		Department:  a.Student.Department,
		Level:       a.Student.Level,
		Method:      string(a.Method),
		RecordedAt:  a.Now,
	}

	if err := d.records.Commit(ctx, entry, mark); err != nil {
		if errors.Is(err, attendance.ErrDuplicateMark) {
			return Outcome{}, ErrAlreadyMarked
		}
		return Outcome{}, &NetworkError{Op: "write", Err: err}
	}
	return Outcome{Mark: mark, LogID: entry.ID}, nil
}
