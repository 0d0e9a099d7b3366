package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Notifier is told when a course day's attendance changed so derived
// data (daily summaries) can be refreshed out of band.
type Notifier interface {
	AttendanceMarked(ctx context.Context, courseID string, date time.Time)
}

type noopNotifier struct{}

func (noopNotifier) AttendanceMarked(context.Context, string, time.Time) {}

// Service coordinates attendance marking, listing, and export.
type Service struct {
	repo        Repository
	notifier    Notifier
	exportLimit int
}

// NewService creates a service backed by a repository. notifier may be nil.
func NewService(repo Repository, notifier Notifier, exportLimit int) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if exportLimit <= 0 {
		exportLimit = 50000
	}
	return &Service{repo: repo, notifier: notifier, exportLimit: exportLimit}
}

// ErrInvalidRange is returned when an export range has start after end.
var ErrInvalidRange = errors.New("start date after end date")

// Mark upserts one record per entry for the course and date. Entries are
// processed independently: a bad entry is counted as failed and the rest
// of the batch continues. Repository errors abort the whole call.
func (s *Service) Mark(ctx context.Context, courseID, dateStr string, entries []Entry) (MarkSummary, error) {
	date, err := ParseDate(dateStr)
	if err != nil {
		return MarkSummary{}, err
	}
	course, err := s.repo.CourseByID(ctx, courseID)
	if err != nil {
		return MarkSummary{}, err
	}
	if course == nil {
		return MarkSummary{}, ErrCourseNotFound
	}

	var sum MarkSummary
	for _, e := range entries {
		reason, err := s.checkEntry(ctx, courseID, e)
		if err != nil {
			return MarkSummary{}, err
		}
		if reason != "" {
			sum.Failed++
			sum.Errors = append(sum.Errors, EntryError{StudentID: e.StudentID, Reason: reason})
			continue
		}

		created, err := s.upsert(ctx, courseID, e.StudentID, date, e.Status)
		if err != nil {
			return MarkSummary{}, err
		}
		if created {
			sum.Created++
		} else {
			sum.Updated++
		}
	}

	marksCreated.Add(float64(sum.Created))
	marksUpdated.Add(float64(sum.Updated))
	marksFailed.Add(float64(sum.Failed))

	if sum.Created+sum.Updated > 0 {
		s.notifier.AttendanceMarked(ctx, courseID, date)
	}
	return sum, nil
}

// checkEntry validates a single batch entry. A non-empty reason means the
// entry is rejected; a non-nil error means the lookup itself failed and
// the batch must abort.
func (s *Service) checkEntry(ctx context.Context, courseID string, e Entry) (string, error) {
	if !e.Status.Valid() {
		return "invalid status", nil
	}
	if _, err := uuid.Parse(e.StudentID); err != nil {
		return "malformed student id", nil
	}
	enrolled, err := s.repo.IsEnrolled(ctx, courseID, e.StudentID)
	if err != nil {
		return "", err
	}
	if !enrolled {
		return "student not enrolled", nil
	}
	return "", nil
}

// upsert tries update-then-insert. A concurrent insert losing the race on
// the unique index comes back as ErrDuplicate and is retried as an update.
func (s *Service) upsert(ctx context.Context, courseID, studentID string, date time.Time, status Status) (created bool, err error) {
	updated, err := s.repo.UpdateStatus(ctx, courseID, studentID, date, status)
	if err != nil {
		return false, err
	}
	if updated {
		return false, nil
	}
	err = s.repo.InsertRecord(ctx, Record{
		CourseID:  courseID,
		StudentID: studentID,
		Date:      date,
		Status:    status,
	})
	if errors.Is(err, ErrDuplicate) {
		if _, uerr := s.repo.UpdateStatus(ctx, courseID, studentID, date, status); uerr != nil {
			return false, uerr
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns course records within an inclusive date range.
func (s *Service) List(ctx context.Context, courseID, startStr, endStr string, limit, offset int) ([]Record, error) {
	start, end, err := parseRange(startStr, endStr)
	if err != nil {
		return nil, err
	}
	course, err := s.repo.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return s.repo.ListRecords(ctx, courseID, start, end, limit, offset)
}

// StudentRecords returns the student's own records, optionally filtered by course.
func (s *Service) StudentRecords(ctx context.Context, studentID, courseID string, limit, offset int) ([]Record, error) {
	return s.repo.StudentRecords(ctx, studentID, courseID, limit, offset)
}

// Summary returns the precomputed counts for one course day. Zero counts
// come back when the worker has not refreshed the day yet.
func (s *Service) Summary(ctx context.Context, courseID, dateStr string) (*DailySummary, error) {
	date, err := ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	course, err := s.repo.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	sum, err := s.repo.DailySummary(ctx, courseID, date)
	if err != nil {
		return nil, err
	}
	if sum == nil {
		sum = &DailySummary{CourseID: courseID, Date: date}
	}
	return sum, nil
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return start, end, nil
}
