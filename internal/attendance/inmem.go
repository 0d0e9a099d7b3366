package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMem is a map-backed Repository for tests and local development.
type InMem struct {
	mu          sync.Mutex
	courses     map[string]Course
	students    map[string]inmemStudent
	enrollments map[string]map[string]bool
	records     map[recordKey]Record
	summaries   map[recordKey]DailySummary
	clock       func() time.Time
}

type inmemStudent struct {
	Name  string
	Email string
}

type recordKey struct {
	CourseID  string
	StudentID string
	Date      int64
}

// NewInMem creates an empty in-memory repository.
func NewInMem() *InMem {
	return &InMem{
		courses:     make(map[string]Course),
		students:    make(map[string]inmemStudent),
		enrollments: make(map[string]map[string]bool),
		records:     make(map[recordKey]Record),
		summaries:   make(map[recordKey]DailySummary),
		clock:       time.Now,
	}
}

// AddCourse seeds a course.
func (r *InMem) AddCourse(c Course) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[c.ID] = c
}

// AddStudent seeds a student.
func (r *InMem) AddStudent(id, name, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[id] = inmemStudent{Name: name, Email: email}
}

// Enroll seeds an enrollment.
func (r *InMem) Enroll(courseID, studentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enrollments[courseID] == nil {
		r.enrollments[courseID] = make(map[string]bool)
	}
	r.enrollments[courseID][studentID] = true
}

func (r *InMem) CourseByID(_ context.Context, id string) (*Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *InMem) IsEnrolled(_ context.Context, courseID, studentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enrollments[courseID][studentID], nil
}

func (r *InMem) UpdateStatus(_ context.Context, courseID, studentID string, date time.Time, status Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{courseID, studentID, StartOfDay(date).Unix()}
	rec, ok := r.records[key]
	if !ok {
		return false, nil
	}
	rec.Status = status
	rec.UpdatedAt = r.clock()
	r.records[key] = rec
	return true, nil
}

func (r *InMem) InsertRecord(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{rec.CourseID, rec.StudentID, StartOfDay(rec.Date).Unix()}
	if _, ok := r.records[key]; ok {
		return ErrDuplicate
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := r.clock()
	rec.Date = StartOfDay(rec.Date)
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.records[key] = rec
	return nil
}

func (r *InMem) ListRecords(_ context.Context, courseID string, start, end time.Time, limit, offset int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var res []Record
	for _, rec := range r.records {
		if rec.CourseID != courseID || rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		res = append(res, rec)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.Before(res[j].Date)
		}
		return res[i].StudentID < res[j].StudentID
	})
	return paginate(res, limit, offset), nil
}

func (r *InMem) StudentRecords(_ context.Context, studentID, courseID string, limit, offset int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var res []Record
	for _, rec := range r.records {
		if rec.StudentID != studentID {
			continue
		}
		if courseID != "" && rec.CourseID != courseID {
			continue
		}
		res = append(res, rec)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.After(res[j].Date)
		}
		return res[i].CourseID < res[j].CourseID
	})
	return paginate(res, limit, offset), nil
}

func (r *InMem) ExportRows(_ context.Context, courseID string, start, end time.Time, limit int) ([]ExportRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50000
	}
	type joined struct {
		row       ExportRow
		studentID string
	}
	var rows []joined
	for _, rec := range r.records {
		if rec.CourseID != courseID || rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		s := r.students[rec.StudentID]
		rows = append(rows, joined{
			row: ExportRow{
				Date:         rec.Date,
				StudentName:  s.Name,
				StudentEmail: s.Email,
				Status:       rec.Status,
			},
			studentID: rec.StudentID,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].row.Date.Equal(rows[j].row.Date) {
			return rows[i].row.Date.Before(rows[j].row.Date)
		}
		if rows[i].row.StudentName != rows[j].row.StudentName {
			return rows[i].row.StudentName < rows[j].row.StudentName
		}
		return rows[i].studentID < rows[j].studentID
	})
	res := make([]ExportRow, 0, len(rows))
	for i, jr := range rows {
		if i >= limit {
			break
		}
		res = append(res, jr.row)
	}
	return res, nil
}

func (r *InMem) DailySummary(_ context.Context, courseID string, date time.Time) (*DailySummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{CourseID: courseID, Date: StartOfDay(date).Unix()}
	s, ok := r.summaries[key]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *InMem) RefreshDailySummary(_ context.Context, courseID string, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := StartOfDay(date)
	s := DailySummary{CourseID: courseID, Date: day}
	for _, rec := range r.records {
		if rec.CourseID != courseID || !rec.Date.Equal(day) {
			continue
		}
		switch rec.Status {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		case StatusLate:
			s.Late++
		case StatusExcused:
			s.Excused++
		}
	}
	r.summaries[recordKey{CourseID: courseID, Date: day.Unix()}] = s
	return nil
}

// RecordCount reports how many records are stored; used by tests.
func (r *InMem) RecordCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func paginate(recs []Record, limit, offset int) []Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(recs) {
		return nil
	}
	recs = recs[offset:]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
