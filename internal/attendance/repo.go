package attendance

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by repository implementations.
var (
	// ErrDuplicate signals a unique-index conflict on (course, student, date).
	ErrDuplicate = errors.New("duplicate attendance record")
	// ErrCourseNotFound signals a missing course reference.
	ErrCourseNotFound = errors.New("course not found")
)

// Repository persists attendance data and the course/enrollment
// lookups the service needs for precondition checks.
type Repository interface {
	// CourseByID returns nil, nil when the course does not exist.
	CourseByID(ctx context.Context, id string) (*Course, error)
	// IsEnrolled reports whether the student is enrolled in the course.
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)

	// UpdateStatus overwrites the status of an existing record and
	// reports whether a record was found.
	UpdateStatus(ctx context.Context, courseID, studentID string, date time.Time, status Status) (bool, error)
	// InsertRecord writes a new record, returning ErrDuplicate when the
	// (course, student, date) key already exists.
	InsertRecord(ctx context.Context, rec Record) error

	// ListRecords returns course records within [start, end] inclusive,
	// ordered by date then student id.
	ListRecords(ctx context.Context, courseID string, start, end time.Time, limit, offset int) ([]Record, error)
	// StudentRecords returns one student's records, newest first,
	// optionally filtered by course.
	StudentRecords(ctx context.Context, studentID, courseID string, limit, offset int) ([]Record, error)
	// ExportRows returns export lines for the course and range, ordered by
	// date ascending, then student name, then student id.
	ExportRows(ctx context.Context, courseID string, start, end time.Time, limit int) ([]ExportRow, error)

	// DailySummary returns nil, nil when no summary row exists yet.
	DailySummary(ctx context.Context, courseID string, date time.Time) (*DailySummary, error)
	// RefreshDailySummary recomputes the summary row for one course day
	// from the underlying records. Idempotent.
	RefreshDailySummary(ctx context.Context, courseID string, date time.Time) error
}
