package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Abhinav5603/generator-1/internal/domain/submission"
)

type SubmissionsRepo struct {
	mu    sync.RWMutex
	items []submission.Submission
}

func NewSubmissionsRepo() *SubmissionsRepo {
	return &SubmissionsRepo{}
}

func (r *SubmissionsRepo) Create(_ context.Context, s submission.Submission) error {
	r.mu.Lock()
	r.items = append(r.items, s)
	r.mu.Unlock()
	return nil
}

func (r *SubmissionsRepo) ListByUserAndSet(_ context.Context, userID, questionSetID string) ([]submission.Submission, error) {
	r.mu.RLock()
	out := make([]submission.Submission, 0)
	for _, s := range r.items {
		if s.UserID == userID && s.QuestionSetID == questionSetID {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *SubmissionsRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
