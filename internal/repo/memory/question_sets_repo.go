package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abhinav5603/generator-1/internal/domain/questionset"
)

var now = func() time.Time { return time.Now().UTC() }

type QuestionSetsRepo struct {
	mu    sync.RWMutex
	items map[string]questionset.QuestionSet
}

func NewQuestionSetsRepo() *QuestionSetsRepo {
	return &QuestionSetsRepo{
		items: make(map[string]questionset.QuestionSet),
	}
}

func (r *QuestionSetsRepo) Create(_ context.Context, qs questionset.QuestionSet) error {
	if err := qs.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.items[qs.ID] = cloneSet(qs)
	r.mu.Unlock()

	return nil
}

func (r *QuestionSetsRepo) GetByID(_ context.Context, id string) (questionset.QuestionSet, error) {
	r.mu.RLock()
	qs, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return questionset.QuestionSet{}, questionset.ErrNotFound
	}
	return cloneSet(qs), nil
}

func (r *QuestionSetsRepo) ListByUser(_ context.Context, userID string, limit int) ([]questionset.QuestionSet, error) {
	r.mu.RLock()
	out := make([]questionset.QuestionSet, 0)
	for _, qs := range r.items {
		if qs.UserID == userID {
			out = append(out, cloneSet(qs))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// callers must not be able to mutate stored slices
func cloneSet(qs questionset.QuestionSet) questionset.QuestionSet {
	qs.Questions = append([]string(nil), qs.Questions...)
	qs.ExpectedAnswers = append([]string(nil), qs.ExpectedAnswers...)
	qs.Skills = append([]string(nil), qs.Skills...)
	return qs
}
