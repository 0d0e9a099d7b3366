package attendance

import (
	"errors"
	"time"
)

// Status is the per-student attendance status for one course day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Valid reports whether s is one of the four allowed values.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Record is one student's attendance for one course on one calendar day.
// The (CourseID, StudentID, Date) triple is unique.
type Record struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Course is the slice of course data this package needs.
type Course struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Entry is one (student, status) pair in a marking batch.
type Entry struct {
	StudentID string `json:"id"`
	Status    Status `json:"status"`
}

// EntryError describes why a single batch entry was rejected.
type EntryError struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// MarkSummary reports the outcome of a marking batch.
// Created+Updated+Failed always equals the number of submitted entries.
type MarkSummary struct {
	Created int          `json:"created"`
	Updated int          `json:"updated"`
	Failed  int          `json:"failed"`
	Errors  []EntryError `json:"errors,omitempty"`
}

// ExportRow is one line of the CSV export, already joined with student data.
type ExportRow struct {
	Date         time.Time
	StudentName  string
	StudentEmail string
	Status       Status
}

// DailySummary holds per-status counts for one course day.
type DailySummary struct {
	CourseID string    `json:"course_id"`
	Date     time.Time `json:"date"`
	Present  int       `json:"present"`
	Absent   int       `json:"absent"`
	Late     int       `json:"late"`
	Excused  int       `json:"excused"`
}

// ErrInvalidDate is returned when a submitted date cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// StartOfDay truncates t to midnight UTC so same-day values compare equal.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and normalizes to start of day.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return StartOfDay(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return StartOfDay(t), nil
	}
	return time.Time{}, ErrInvalidDate
}
