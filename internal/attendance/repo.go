package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateMark is returned by Commit when the unique index on
// (student_id, course_code, mark_date) rejects the insert. The index is
// what holds the at-most-one-mark invariant under concurrent devices;
// the in-process pre-check only spares the user a pointless prompt.
var ErrDuplicateMark = errors.New("attendance already marked for this course today")

// ErrNotFound is returned when a course or student does not exist.
var ErrNotFound = errors.New("not found")

const uniqueViolation = "23505"

// Repository persists courses, students and attendance marks in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertDevice ensures a device record exists for the mobile client.
func (r *Repository) UpsertDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return errors.New("device id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (device_id)
		VALUES ($1)
		ON CONFLICT (device_id) DO NOTHING
	`, deviceID)
	return err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, deviceID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (device_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, deviceID, token, expiresAt)
	return err
}

// CreateCourse inserts a course configured by the dashboard.
func (r *Repository) CreateCourse(ctx context.Context, c Course) (Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.RadiusMeters <= 0 {
		c.RadiusMeters = 50
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO courses (id, code, name, department, level, session_day, session_time, duration, latitude, longitude, radius_meters, total_sessions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at
	`, c.ID, c.Code, c.Name, c.Department, c.Level, c.SessionDay, c.SessionTime, c.Duration, c.Latitude, c.Longitude, c.RadiusMeters, c.TotalSessions)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return Course{}, err
	}
	return c, nil
}

// UpdateCourse overwrites a course's configuration by code.
func (r *Repository) UpdateCourse(ctx context.Context, c Course) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE courses
		SET name = $2, department = $3, level = $4, session_day = $5, session_time = $6,
		    duration = $7, latitude = $8, longitude = $9, radius_meters = $10, total_sessions = $11
		WHERE code = $1
	`, c.Code, c.Name, c.Department, c.Level, c.SessionDay, c.SessionTime, c.Duration, c.Latitude, c.Longitude, c.RadiusMeters, c.TotalSessions)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCourse removes a course by code.
func (r *Repository) DeleteCourse(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE code = $1`, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const courseColumns = `id, code, name, department, level, session_day, session_time, duration, latitude, longitude, radius_meters, total_sessions, created_at`

// GetCourse returns a course by its short code.
func (r *Repository) GetCourse(ctx context.Context, code string) (Course, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE code = $1`, code)
	var c Course
	if err := scanCourse(row, &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	return c, nil
}

// ListCourses returns all courses ordered by code.
func (r *Repository) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		var c Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner, c *Course) error {
	return row.Scan(&c.ID, &c.Code, &c.Name, &c.Department, &c.Level, &c.SessionDay, &c.SessionTime,
		&c.Duration, &c.Latitude, &c.Longitude, &c.RadiusMeters, &c.TotalSessions, &c.CreatedAt)
}

// UpsertStudent creates or updates a student by registration number.
func (r *Repository) UpsertStudent(ctx context.Context, s Student) (Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, reg_number, name, department, level)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (reg_number) DO UPDATE SET
			name = EXCLUDED.name,
			department = EXCLUDED.department,
			level = EXCLUDED.level
		RETURNING id, created_at
	`, s.ID, s.RegNumber, s.Name, s.Department, s.Level)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return Student{}, err
	}
	return s, nil
}

// GetStudent returns a student by id.
func (r *Repository) GetStudent(ctx context.Context, id string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, reg_number, name, department, level, created_at
		FROM students WHERE id = $1
	`, id)
	var s Student
	if err := row.Scan(&s.ID, &s.RegNumber, &s.Name, &s.Department, &s.Level, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, err
	}
	return s, nil
}

// ListStudents returns all students ordered by registration number.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, reg_number, name, department, level, created_at
		FROM students ORDER BY reg_number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.RegNumber, &s.Name, &s.Department, &s.Level, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TodayMarks returns the student's marks for the given date.
func (r *Repository) TodayMarks(ctx context.Context, studentID, date string) ([]Mark, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, student_name, mark_date, course_code, reg_number, department, level, method, recorded_at
		FROM attendance_marks
		WHERE student_id = $1 AND mark_date = $2
		ORDER BY recorded_at
	`, studentID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMarks(rows)
}

// ListMarks returns marks filtered by course and date for reporting.
func (r *Repository) ListMarks(ctx context.Context, courseCode, date string, limit int) ([]Mark, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, student_name, mark_date, course_code, reg_number, department, level, method, recorded_at
		FROM attendance_marks
		WHERE ($1 = '' OR course_code = $1) AND ($2 = '' OR mark_date = $2)
		ORDER BY recorded_at DESC
		LIMIT $3
	`, courseCode, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMarks(rows)
}

func collectMarks(rows *sql.Rows) ([]Mark, error) {
	var out []Mark
	for rows.Next() {
		var m Mark
		if err := rows.Scan(&m.ID, &m.StudentID, &m.StudentName, &m.MarkDate, &m.CourseCode,
			&m.RegNumber, &m.Department, &m.Level, &m.Method, &m.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Commit writes the verification log entry and the flat reporting mark
// as one transaction. Either both rows land or neither does. A conflict
// on the (student_id, course_code, mark_date) unique index surfaces as
// ErrDuplicateMark. The mark ID is fixed before insert, so replaying a
// commit after an ambiguous network failure can only conflict, never
// double-record.
func (r *Repository) Commit(ctx context.Context, entry LogEntry, mark Mark) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO verification_logs (id, student_id, course_code, status, method, image_url, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, entry.StudentID, entry.CourseCode, entry.Status, entry.Method, entry.ImageURL, entry.Timestamp); err != nil {
		return mapDuplicate(err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_marks (id, student_id, student_name, mark_date, course_code, reg_number, department, level, method, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, mark.ID, mark.StudentID, mark.StudentName, mark.MarkDate, mark.CourseCode,
		mark.RegNumber, mark.Department, mark.Level, mark.Method, mark.RecordedAt); err != nil {
		return mapDuplicate(err)
	}

	return tx.Commit()
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateMark
	}
	return err
}

// GetLogEntry returns a verification log row by id.
func (r *Repository) GetLogEntry(ctx context.Context, id string) (LogEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, course_code, status, method, audit_score, image_url, occurred_at, created_at, audited_at
		FROM verification_logs WHERE id = $1
	`, id)
	var e LogEntry
	if err := row.Scan(&e.ID, &e.StudentID, &e.CourseCode, &e.Status, &e.Method,
		&e.AuditScore, &e.ImageURL, &e.Timestamp, &e.CreatedAt, &e.AuditedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LogEntry{}, ErrNotFound
		}
		return LogEntry{}, err
	}
	return e, nil
}

// SetAuditScore records the worker's face-audit outcome on a log entry.
func (r *Repository) SetAuditScore(ctx context.Context, id, status string, score *float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE verification_logs
		SET status = $2, audit_score = COALESCE($3, audit_score), audited_at = NOW()
		WHERE id = $1
	`, id, status, score)
	return err
}
