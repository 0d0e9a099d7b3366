package announce

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMem is a map-backed Repository for tests.
type InMem struct {
	mu    sync.Mutex
	items []Announcement
}

// NewInMem creates an empty in-memory repository.
func NewInMem() *InMem {
	return &InMem{}
}

func (r *InMem) Create(_ context.Context, a Announcement) (Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()
	r.items = append(r.items, a)
	return a, nil
}

func (r *InMem) ListByCourse(_ context.Context, courseID string, limit, offset int) ([]Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var res []Announcement
	for _, a := range r.items {
		if a.CourseID == courseID {
			res = append(res, a)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID < res[j].ID
	})
	if offset >= len(res) {
		return nil, nil
	}
	res = res[offset:]
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}
