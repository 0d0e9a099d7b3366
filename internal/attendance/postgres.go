package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres implements Repository on top of the shared sql.DB pool.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed repository.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// CourseByID returns nil, nil when the course does not exist.
func (r *Postgres) CourseByID(ctx context.Context, id string) (*Course, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, name FROM courses WHERE id = $1
	`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Code, &c.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// IsEnrolled reports whether the student is enrolled in the course.
func (r *Postgres) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2
		)
	`, courseID, studentID)
	var enrolled bool
	if err := row.Scan(&enrolled); err != nil {
		return false, err
	}
	return enrolled, nil
}

// UpdateStatus overwrites an existing record's status, reporting whether one existed.
func (r *Postgres) UpdateStatus(ctx context.Context, courseID, studentID string, date time.Time, status Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records
		SET status = $4, updated_at = NOW()
		WHERE course_id = $1 AND student_id = $2 AND date = $3
	`, courseID, studentID, date, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertRecord writes a new record. A unique-index conflict on
// (course_id, student_id, date) is mapped to ErrDuplicate so the caller
// can retry as an update.
func (r *Postgres) InsertRecord(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, course_id, student_id, date, status)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.CourseID, rec.StudentID, rec.Date, rec.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListRecords returns course records within [start, end] inclusive.
func (r *Postgres) ListRecords(ctx context.Context, courseID string, start, end time.Time, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, student_id, date, status, created_at, updated_at
		FROM attendance_records
		WHERE course_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, student_id
		LIMIT $4 OFFSET $5
	`, courseID, start, end, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// StudentRecords returns one student's records, newest first.
func (r *Postgres) StudentRecords(ctx context.Context, studentID, courseID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT id, course_id, student_id, date, status, created_at, updated_at
		FROM attendance_records
		WHERE student_id = $1`
	args := []any{studentID}
	if courseID != "" {
		query += ` AND course_id = $2`
		args = append(args, courseID)
	}
	query += ` ORDER BY date DESC, course_id LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.CourseID, &rec.StudentID, &rec.Date, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// ExportRows returns export lines ordered by date, student name, student id.
// The ordering is total so repeated exports of unchanged data are byte-identical.
func (r *Postgres) ExportRows(ctx context.Context, courseID string, start, end time.Time, limit int) ([]ExportRow, error) {
	if limit <= 0 {
		limit = 50000
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.date, u.name, u.email, a.status
		FROM attendance_records a
		JOIN users u ON u.id = a.student_id
		WHERE a.course_id = $1 AND a.date >= $2 AND a.date <= $3
		ORDER BY a.date, u.name, a.student_id
		LIMIT $4
	`, courseID, start, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.Date, &row.StudentName, &row.StudentEmail, &row.Status); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// DailySummary returns nil, nil when no summary row exists yet.
func (r *Postgres) DailySummary(ctx context.Context, courseID string, date time.Time) (*DailySummary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT course_id, date, present, absent, late, excused
		FROM attendance_daily_summary
		WHERE course_id = $1 AND date = $2
	`, courseID, date)
	var s DailySummary
	if err := row.Scan(&s.CourseID, &s.Date, &s.Present, &s.Absent, &s.Late, &s.Excused); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// RefreshDailySummary recomputes one course day's counts from the records.
func (r *Postgres) RefreshDailySummary(ctx context.Context, courseID string, date time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_daily_summary (course_id, date, present, absent, late, excused, refreshed_at)
		SELECT $1, $2,
			COUNT(*) FILTER (WHERE status = 'present'),
			COUNT(*) FILTER (WHERE status = 'absent'),
			COUNT(*) FILTER (WHERE status = 'late'),
			COUNT(*) FILTER (WHERE status = 'excused'),
			NOW()
		FROM attendance_records
		WHERE course_id = $1 AND date = $2
		ON CONFLICT (course_id, date) DO UPDATE SET
			present = EXCLUDED.present,
			absent = EXCLUDED.absent,
			late = EXCLUDED.late,
			excused = EXCLUDED.excused,
			refreshed_at = NOW()
	`, courseID, date)
	return err
}
