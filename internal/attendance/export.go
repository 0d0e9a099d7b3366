package attendance

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
)

// Export holds a generated CSV file ready to stream to the client.
type Export struct {
	Filename string
	Data     []byte
}

// csvHeader is a wire contract; changing it breaks downstream spreadsheets.
var csvHeader = []string{"Date", "Student Name", "Student Email", "Status"}

// ErrExportTooLarge is returned when the range holds more rows than the
// configured export limit. A silently truncated file would also break
// the byte-stability guarantee, so the caller must narrow the range.
var ErrExportTooLarge = errors.New("export exceeds row limit, narrow the date range")

// Export builds the attendance CSV for a course and inclusive date range.
// Output is deterministic: identical arguments against unchanged data
// produce byte-identical files. An empty range yields a header-only CSV.
func (s *Service) Export(ctx context.Context, courseID, startStr, endStr string) (Export, error) {
	start, end, err := parseRange(startStr, endStr)
	if err != nil {
		return Export{}, err
	}
	course, err := s.repo.CourseByID(ctx, courseID)
	if err != nil {
		return Export{}, err
	}
	if course == nil {
		return Export{}, ErrCourseNotFound
	}

	// Fetch one row past the limit so truncation is detectable.
	rows, err := s.repo.ExportRows(ctx, courseID, start, end, s.exportLimit+1)
	if err != nil {
		return Export{}, err
	}
	if len(rows) > s.exportLimit {
		return Export{}, ErrExportTooLarge
	}

	data, err := writeCSV(rows)
	if err != nil {
		return Export{}, err
	}
	exportsTotal.Inc()

	filename := fmt.Sprintf("attendance_%s_%s_to_%s.csv",
		course.Code, start.Format("2006-01-02"), end.Format("2006-01-02"))
	return Export{Filename: filename, Data: data}, nil
}

func writeCSV(rows []ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := []string{
			r.Date.Format("2006-01-02"),
			r.StudentName,
			r.StudentEmail,
			string(r.Status),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
