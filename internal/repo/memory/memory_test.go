package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abhinav5603/generator-1/internal/domain/questionset"
	"github.com/Abhinav5603/generator-1/internal/domain/submission"
	"github.com/Abhinav5603/generator-1/internal/domain/user"
	"github.com/google/uuid"
)

func TestUsersRepo_Uniqueness(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	alice := user.User{ID: "1", Username: "alice", Email: "alice@x.com", PasswordHash: "h1"}
	if _, err := r.Create(ctx, alice); err != nil {
		t.Fatalf("create alice: %v", err)
	}

	if _, err := r.Create(ctx, user.User{ID: "2", Username: "alice", Email: "other@x.com"}); !errors.Is(err, user.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := r.Create(ctx, user.User{ID: "3", Username: "bob", Email: "alice@x.com"}); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := r.GetByEmail(ctx, "alice@x.com")
	if err != nil || got != alice {
		t.Fatalf("alice changed: %+v %v", got, err)
	}
}

func TestUsersRepo_ConcurrentRegistrationsOneWinner(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Create(ctx, user.User{ID: uuid.NewString(), Username: uuid.NewString(), Email: "same@x.com"})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected one winner, got %d", wins)
	}
}

func TestUsersRepo_UpdatePasswordHash(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	_, _ = r.Create(ctx, user.User{ID: "1", Username: "a", Email: "a@x.com", PasswordHash: "old"})

	if err := r.UpdatePasswordHash(ctx, "1", "new"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := r.GetByID(ctx, "1")
	if got.PasswordHash != "new" {
		t.Fatalf("hash = %q", got.PasswordHash)
	}

	if err := r.UpdatePasswordHash(ctx, "missing", "x"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuestionSetsRepo_ListNewestFirstWithLimit(t *testing.T) {
	r := NewQuestionSetsRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := r.Create(ctx, questionset.QuestionSet{
			ID:        uuid.NewString(),
			UserID:    "u1",
			Questions: []string{"q"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	_ = r.Create(ctx, questionset.QuestionSet{ID: "other", UserID: "u2", CreatedAt: base})

	list, err := r.ListByUser(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2, got %d", len(list))
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Fatalf("expected newest first")
	}
}

func TestQuestionSetsRepo_RejectsMisaligned(t *testing.T) {
	r := NewQuestionSetsRepo()

	err := r.Create(context.Background(), questionset.QuestionSet{
		ID:              "x",
		Questions:       []string{"q1", "q2"},
		ExpectedAnswers: []string{"a1"},
	})
	if !errors.Is(err, questionset.ErrMisaligned) {
		t.Fatalf("expected ErrMisaligned, got %v", err)
	}
	if _, err := r.GetByID(context.Background(), "x"); !errors.Is(err, questionset.ErrNotFound) {
		t.Fatalf("misaligned set must not be stored")
	}
}

func TestQuestionSetsRepo_ReturnsCopies(t *testing.T) {
	r := NewQuestionSetsRepo()
	ctx := context.Background()

	_ = r.Create(ctx, questionset.QuestionSet{ID: "x", Questions: []string{"q1"}})

	got, _ := r.GetByID(ctx, "x")
	got.Questions[0] = "mutated"

	again, _ := r.GetByID(ctx, "x")
	if again.Questions[0] != "q1" {
		t.Fatalf("stored set was mutated through a returned copy")
	}
}

func TestSubmissionsRepo_FiltersByUserAndSet(t *testing.T) {
	r := NewSubmissionsRepo()
	ctx := context.Background()

	_ = r.Create(ctx, submission.Submission{ID: "1", UserID: "u1", QuestionSetID: "s1"})
	_ = r.Create(ctx, submission.Submission{ID: "2", UserID: "u2", QuestionSetID: "s1"})
	_ = r.Create(ctx, submission.Submission{ID: "3", UserID: "u1", QuestionSetID: "s2"})

	list, _ := r.ListByUserAndSet(ctx, "u1", "s1")
	if len(list) != 1 || list[0].ID != "1" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 stored, got %d", r.Len())
	}
}
