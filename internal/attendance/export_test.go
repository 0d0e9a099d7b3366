package attendance

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestService_Export_concreteScenario(t *testing.T) {
	repo := seededRepo()
	svc := NewService(repo, nil, 0)
	ctx := context.Background()

	if _, err := svc.Mark(ctx, courseC101, "2024-03-01", []Entry{
		{StudentID: studentB, Status: StatusAbsent},
		{StudentID: studentA, Status: StatusPresent},
	}); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	export, err := svc.Export(ctx, courseC101, "2024-03-01", "2024-03-01")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if export.Filename != "attendance_C101_2024-03-01_to_2024-03-01.csv" {
		t.Errorf("filename = %q", export.Filename)
	}

	lines := strings.Split(strings.TrimRight(string(export.Data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("export has %d lines, want header + 2 rows:\n%s", len(lines), export.Data)
	}
	if lines[0] != "Date,Student Name,Student Email,Status" {
		t.Errorf("header = %q", lines[0])
	}
	// Rows are sorted by student name, not by marking order.
	if lines[1] != "2024-03-01,Alice Adams,alice@example.edu,present" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "2024-03-01,Bob Brown,bob@example.edu,absent" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestService_Export_byteIdentical(t *testing.T) {
	repo := seededRepo()
	svc := NewService(repo, nil, 0)
	ctx := context.Background()

	if _, err := svc.Mark(ctx, courseC101, "2024-03-01", []Entry{
		{StudentID: studentA, Status: StatusPresent},
		{StudentID: studentB, Status: StatusLate},
		{StudentID: studentC, Status: StatusExcused},
	}); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	if _, err := svc.Mark(ctx, courseC101, "2024-03-02", []Entry{
		{StudentID: studentA, Status: StatusAbsent},
	}); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	first, err := svc.Export(ctx, courseC101, "2024-03-01", "2024-03-02")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	second, err := svc.Export(ctx, courseC101, "2024-03-01", "2024-03-02")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Fatalf("repeated export differs:\n%s\n---\n%s", first.Data, second.Data)
	}
}

func TestService_Export_emptyRangeIsHeaderOnly(t *testing.T) {
	svc := NewService(seededRepo(), nil, 0)
	export, err := svc.Export(context.Background(), courseC101, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if string(export.Data) != "Date,Student Name,Student Email,Status\n" {
		t.Fatalf("empty export = %q, want header only", export.Data)
	}
}

func TestService_Export_quotesCommaFields(t *testing.T) {
	repo := seededRepo()
	repo.AddStudent(studentA, "Adams, Alice", "alice@example.edu")
	svc := NewService(repo, nil, 0)
	ctx := context.Background()

	if _, err := svc.Mark(ctx, courseC101, "2024-03-01", []Entry{{StudentID: studentA, Status: StatusPresent}}); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	export, err := svc.Export(ctx, courseC101, "2024-03-01", "2024-03-01")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(string(export.Data), `"Adams, Alice"`) {
		t.Fatalf("comma field not quoted:\n%s", export.Data)
	}
}

func TestService_Export_validation(t *testing.T) {
	svc := NewService(seededRepo(), nil, 0)
	ctx := context.Background()

	if _, err := svc.Export(ctx, courseC101, "2024-03-02", "2024-03-01"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("inverted range error = %v, want ErrInvalidRange", err)
	}
	if _, err := svc.Export(ctx, courseC101, "soon", "2024-03-01"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("bad date error = %v, want ErrInvalidDate", err)
	}
	if _, err := svc.Export(ctx, "5f0c3b54-0000-4a7b-9e70-00000000beef", "2024-03-01", "2024-03-01"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("missing course error = %v, want ErrCourseNotFound", err)
	}
}

func TestService_Export_tooLargeRejectedNotTruncated(t *testing.T) {
	repo := seededRepo()
	svc := NewService(repo, nil, 2)
	ctx := context.Background()

	if _, err := svc.Mark(ctx, courseC101, "2024-03-01", []Entry{
		{StudentID: studentA, Status: StatusPresent},
		{StudentID: studentB, Status: StatusPresent},
		{StudentID: studentC, Status: StatusPresent},
	}); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	if _, err := svc.Export(ctx, courseC101, "2024-03-01", "2024-03-01"); !errors.Is(err, ErrExportTooLarge) {
		t.Fatalf("Export() over the row limit error = %v, want ErrExportTooLarge", err)
	}

	// Exactly at the limit still exports in full.
	svc = NewService(repo, nil, 3)
	export, err := svc.Export(ctx, courseC101, "2024-03-01", "2024-03-01")
	if err != nil {
		t.Fatalf("Export() at the row limit error = %v", err)
	}
	if got := strings.Count(string(export.Data), "\n"); got != 4 {
		t.Fatalf("export has %d lines, want header + 3 rows", got)
	}
}
