package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

// All returns the full migration list. Versions 2-6 encode the attendance
// data repair steps: earlier deployments shipped a two-field
// (course, date) index that let same-day duplicates through, stored dates
// with time-of-day components, and accepted rows without a student
// reference. The authoritative constraint is the three-field unique index
// on (course_id, student_id, date); it is created last, after the data it
// must hold over has been cleaned.
func All() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "base_tables",
			Run: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, `
					CREATE TABLE IF NOT EXISTS users (
						id UUID PRIMARY KEY,
						name TEXT NOT NULL,
						email TEXT NOT NULL UNIQUE,
						role TEXT NOT NULL,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					);
					CREATE TABLE IF NOT EXISTS courses (
						id UUID PRIMARY KEY,
						code TEXT NOT NULL UNIQUE,
						name TEXT NOT NULL,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					);
					CREATE TABLE IF NOT EXISTS enrollments (
						course_id UUID NOT NULL REFERENCES courses(id),
						student_id UUID NOT NULL REFERENCES users(id),
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						PRIMARY KEY (course_id, student_id)
					);
					CREATE TABLE IF NOT EXISTS attendance_records (
						id UUID PRIMARY KEY,
						course_id UUID NOT NULL REFERENCES courses(id),
						student_id UUID REFERENCES users(id),
						date TIMESTAMPTZ NOT NULL,
						status TEXT NOT NULL CHECK (status IN ('present','absent','late','excused')),
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					);
					CREATE TABLE IF NOT EXISTS announcements (
						id UUID PRIMARY KEY,
						course_id UUID NOT NULL REFERENCES courses(id),
						author_id UUID NOT NULL REFERENCES users(id),
						title TEXT NOT NULL,
						body TEXT NOT NULL,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
					);
				`)
				return err
			},
		},
		{
			Version: 2,
			Name:    "drop_wrong_attendance_indexes",
			Run:     dropWrongAttendanceIndexes,
		},
		{
			Version: 3,
			Name:    "normalize_attendance_dates",
			Run: func(ctx context.Context, tx *sql.Tx) error {
				// Touch only rows whose stored date differs from its
				// start-of-day value.
				_, err := tx.ExecContext(ctx, `
					UPDATE attendance_records
					SET date = date_trunc('day', date AT TIME ZONE 'UTC') AT TIME ZONE 'UTC'
					WHERE date <> date_trunc('day', date AT TIME ZONE 'UTC') AT TIME ZONE 'UTC'
				`)
				return err
			},
		},
		{
			Version: 4,
			Name:    "dedupe_attendance_records",
			Run: func(ctx context.Context, tx *sql.Tx) error {
				// Within each (course, student, day) group keep the
				// most recently created row; id breaks created_at ties.
				_, err := tx.ExecContext(ctx, `
					DELETE FROM attendance_records a
					USING attendance_records b
					WHERE a.course_id = b.course_id
					  AND a.student_id = b.student_id
					  AND a.date = b.date
					  AND (a.created_at < b.created_at
					       OR (a.created_at = b.created_at AND a.id < b.id))
				`)
				return err
			},
		},
		{
			Version: 5,
			Name:    "drop_orphan_attendance_records",
			Run: func(ctx context.Context, tx *sql.Tx) error {
				if _, err := tx.ExecContext(ctx, `
					DELETE FROM attendance_records WHERE student_id IS NULL
				`); err != nil {
					return err
				}
				_, err := tx.ExecContext(ctx, `
					ALTER TABLE attendance_records ALTER COLUMN student_id SET NOT NULL
				`)
				return err
			},
		},
		{
			Version: 6,
			Name:    "unique_attendance_course_student_date",
			Run: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, `
					CREATE UNIQUE INDEX IF NOT EXISTS uq_attendance_course_student_date
					ON attendance_records (course_id, student_id, date)
				`)
				return err
			},
		},
		{
			Version: 7,
			Name:    "attendance_daily_summary",
			Run: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, `
					CREATE TABLE IF NOT EXISTS attendance_daily_summary (
						course_id UUID NOT NULL REFERENCES courses(id),
						date TIMESTAMPTZ NOT NULL,
						present INT NOT NULL DEFAULT 0,
						absent INT NOT NULL DEFAULT 0,
						late INT NOT NULL DEFAULT 0,
						excused INT NOT NULL DEFAULT 0,
						refreshed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						PRIMARY KEY (course_id, date)
					)
				`)
				return err
			},
		},
	}
}

// dropWrongAttendanceIndexes removes every index on attendance_records
// that is not the primary key and not the three-field unique index. This
// retires the legacy two-field (course_id, date) index that blocked
// legitimate records while letting duplicates through.
func dropWrongAttendanceIndexes(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT indexname FROM pg_indexes
		WHERE schemaname = current_schema() AND tablename = 'attendance_records'
	`)
	if err != nil {
		return err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range names {
		if name == "attendance_records_pkey" || name == "uq_attendance_course_student_date" {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS %q`, name)); err != nil {
			return err
		}
	}
	return nil
}
