package announce

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Postgres implements Repository on the shared sql.DB pool.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed repository.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create inserts a new announcement and returns it with id and timestamp set.
func (r *Postgres) Create(ctx context.Context, a Announcement) (Announcement, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO announcements (id, course_id, author_id, title, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, a.ID, a.CourseID, a.AuthorID, a.Title, a.Body)
	if err := row.Scan(&a.CreatedAt); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

// ListByCourse returns a course's announcements, newest first.
func (r *Postgres) ListByCourse(ctx context.Context, courseID string, limit, offset int) ([]Announcement, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, author_id, title, body, created_at
		FROM announcements
		WHERE course_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, courseID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.CourseID, &a.AuthorID, &a.Title, &a.Body, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}
