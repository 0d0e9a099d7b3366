// Package announce holds course-scoped announcements: faculty post,
// everyone enrolled reads.
package announce

import (
	"context"
	"time"
)

// Announcement is one posted notice for a course.
type Announcement struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists announcements.
type Repository interface {
	Create(ctx context.Context, a Announcement) (Announcement, error)
	ListByCourse(ctx context.Context, courseID string, limit, offset int) ([]Announcement, error)
}
