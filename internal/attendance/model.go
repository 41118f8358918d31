package attendance

import (
	"time"

	"classattend/internal/geo"
	"classattend/internal/schedule"
)

// Course is a course as configured by the admin dashboard.
type Course struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Department    string    `json:"department"`
	Level         string    `json:"level"`
	SessionDay    string    `json:"session_day"`
	SessionTime   string    `json:"session_time"`
	Duration      string    `json:"duration"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	RadiusMeters  float64   `json:"radius_meters"`
	TotalSessions int       `json:"total_sessions"`
	CreatedAt     time.Time `json:"created_at"`
}

// Window returns the course's schedule configuration.
func (c Course) Window() schedule.WindowConfig {
	return schedule.WindowConfig{Day: c.SessionDay, StartTime: c.SessionTime, Duration: c.Duration}
}

// Fence returns the course's geofence. Courses without both coordinates
// have no fence and skip the location check.
func (c Course) Fence() geo.Fence {
	if c.Latitude == nil || c.Longitude == nil {
		return geo.Fence{}
	}
	return geo.Fence{
		Center:       &geo.Point{Latitude: *c.Latitude, Longitude: *c.Longitude},
		RadiusMeters: c.RadiusMeters,
	}
}

// Student is immutable for the duration of a verification attempt.
type Student struct {
	ID         string    `json:"id"`
	RegNumber  string    `json:"reg_number"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Level      string    `json:"level"`
	CreatedAt  time.Time `json:"created_at"`
}

// LogEntry is the normalized verification log row.
type LogEntry struct {
	ID         string     `json:"id"`
	StudentID  string     `json:"student_id"`
	CourseCode string     `json:"course_code"`
	Status     string     `json:"status"`
	Method     string     `json:"method"`
	AuditScore *float64   `json:"audit_score,omitempty"`
	ImageURL   string     `json:"image_url,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	CreatedAt  time.Time  `json:"created_at"`
	AuditedAt  *time.Time `json:"audited_at,omitempty"`
}

// Mark is the flat denormalized attendance row kept for reporting
// compatibility. At most one may exist per (student, course, date).
type Mark struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	MarkDate    string    `json:"mark_date"` // YYYY-MM-DD, device-local
	CourseCode  string    `json:"course_code"`
	RegNumber   string    `json:"reg_number"`
	Department  string    `json:"department"`
	Level       string    `json:"level"`
	Method      string    `json:"method"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// DateOf formats an instant as a mark date.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
