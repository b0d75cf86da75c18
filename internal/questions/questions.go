package questions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Abhinav5603/generator-1/internal/domain/questionset"
	"github.com/Abhinav5603/generator-1/internal/ingest"
	"github.com/Abhinav5603/generator-1/internal/llm"
	"github.com/google/uuid"
)

var ErrEmptyInput = errors.New("no text to generate questions from")

// Generator is the part of the model client the pipeline needs.
type Generator interface {
	GenerateQuestions(ctx context.Context, skills []string, resumeText string, n int) ([]string, error)
	GenerateExpectedAnswers(ctx context.Context, questions, skills []string, resumeText string) ([]string, error)
	GenerateExpectedAnswer(ctx context.Context, question string, skills []string) (string, error)
}

type Store interface {
	Create(ctx context.Context, qs questionset.QuestionSet) error
	GetByID(ctx context.Context, id string) (questionset.QuestionSet, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]questionset.QuestionSet, error)
}

type Service struct {
	gen          Generator
	store        Store
	count        int
	storeTimeout time.Duration
	deadline     time.Duration
	log          *slog.Logger
	now          func() time.Time
}

func NewService(gen Generator, store Store, count int, log *slog.Logger) *Service {
	if count <= 0 {
		count = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		gen:          gen,
		store:        store,
		count:        count,
		storeTimeout: 3 * time.Second,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithDeadline bounds every Create to d, model calls and store write
// included. The server's write timeout must be longer than d, otherwise a set
// can be stored after its response is lost.
func (s *Service) WithDeadline(d time.Duration) *Service {
	s.deadline = d
	return s
}

// Create runs the whole pipeline for one resume or transcript and stores the
// result as a single set. Nothing is written when any model call fails or the
// deadline passes first.
func (s *Service) Create(ctx context.Context, ownerID string, source questionset.Source, text string) (questionset.QuestionSet, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return questionset.QuestionSet{}, ErrEmptyInput
	}

	if s.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deadline)
		defer cancel()
	}

	info := ingest.ExtractInfo(text)

	qs, err := s.GenerateQuestions(ctx, info.Skills, text)
	if err != nil {
		return questionset.QuestionSet{}, err
	}

	answers, err := s.GenerateExpectedAnswers(ctx, qs, info.Skills, text)
	if err != nil {
		return questionset.QuestionSet{}, err
	}

	set := questionset.QuestionSet{
		ID:              uuid.NewString(),
		UserID:          ownerID,
		Questions:       qs,
		ExpectedAnswers: answers,
		Skills:          info.Skills,
		Source:          source,
		CreatedAt:       s.now(),
	}

	// the caller may already be gone; do not store a set nobody receives
	if err := ctx.Err(); err != nil {
		return questionset.QuestionSet{}, fmt.Errorf("generate question set: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.store.Create(cctx, set); err != nil {
		return questionset.QuestionSet{}, fmt.Errorf("store question set: %w", err)
	}

	s.log.InfoContext(ctx, "question set created",
		"question_set_id", set.ID,
		"source", set.Source,
		"questions", len(set.Questions),
		"skills", len(set.Skills),
	)
	return set, nil
}

func (s *Service) GenerateQuestions(ctx context.Context, skills []string, resumeText string) ([]string, error) {
	qs, err := s.gen.GenerateQuestions(ctx, skills, resumeText, s.count)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("%w: model returned no questions", llm.ErrUnavailable)
	}
	return qs, nil
}

// GenerateExpectedAnswers returns exactly one answer per question, in order.
// A batch reply of the wrong length is discarded and every question is asked
// again on its own.
func (s *Service) GenerateExpectedAnswers(ctx context.Context, qs, skills []string, resumeText string) ([]string, error) {
	answers, err := s.gen.GenerateExpectedAnswers(ctx, qs, skills, resumeText)
	if err == nil && len(answers) == len(qs) {
		return answers, nil
	}

	if err != nil {
		s.log.WarnContext(ctx, "batch expected answers failed, asking per question", "err", err)
	} else {
		s.log.WarnContext(ctx, "batch expected answers misaligned, asking per question",
			"questions", len(qs), "answers", len(answers))
	}

	out := make([]string, len(qs))
	for i, q := range qs {
		a, err := s.gen.GenerateExpectedAnswer(ctx, q, skills)
		if err != nil {
			return nil, fmt.Errorf("expected answer %d: %w", i, err)
		}
		out[i] = a
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (questionset.QuestionSet, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.store.GetByID(cctx, id)
}

// ListByOwner returns the owner's sets newest first. limit <= 0 means all.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, limit int) ([]questionset.QuestionSet, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.store.ListByUser(cctx, ownerID, limit)
}
