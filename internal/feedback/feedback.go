package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Abhinav5603/generator-1/internal/domain/questionset"
	"github.com/Abhinav5603/generator-1/internal/domain/submission"
	"github.com/google/uuid"
)

var ErrEmptyAnswer = errors.New("answer is required")

const (
	coveredMessage = "Your answer covers the relevant technical concepts. Consider elaborating further with specific examples and more precise technical terminology to strengthen your response."
	missingFormat  = "Your answer could be strengthened by addressing these key concepts: %s. Consider reviewing these areas and incorporating them into your explanation for a more comprehensive response."

	// at most this many missing concepts are named
	maxMissingNamed = 3
)

// Evaluator is the part of the model client feedback needs.
type Evaluator interface {
	EvaluateAnswer(ctx context.Context, question, expected, answer string) (string, error)
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}

type SetReader interface {
	GetByID(ctx context.Context, id string) (questionset.QuestionSet, error)
}

type SubmissionStore interface {
	Create(ctx context.Context, s submission.Submission) error
	ListByUserAndSet(ctx context.Context, userID, questionSetID string) ([]submission.Submission, error)
}

type FallbackCounter interface {
	IncFeedbackFallback()
}

type Service struct {
	model        Evaluator
	sets         SetReader
	submissions  SubmissionStore
	fallbacks    FallbackCounter
	storeTimeout time.Duration
	log          *slog.Logger
	now          func() time.Time
}

func NewService(model Evaluator, sets SetReader, submissions SubmissionStore, fallbacks FallbackCounter, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		model:        model,
		sets:         sets,
		submissions:  submissions,
		fallbacks:    fallbacks,
		storeTimeout: 3 * time.Second,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate grades one answer against the set's expected answer and records
// the submission. Unknown sets report questionset.ErrNotFound and bad indexes
// questionset.ErrIndexOutOfRange; neither writes anything. Model failures are
// absorbed by the keyword fallback.
func (s *Service) Evaluate(ctx context.Context, submitterID, questionSetID string, index int, answer string) (submission.Submission, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return submission.Submission{}, ErrEmptyAnswer
	}

	set, err := s.getSet(ctx, questionSetID)
	if err != nil {
		return submission.Submission{}, err
	}

	expected, err := set.ExpectedAnswer(index)
	if err != nil {
		return submission.Submission{}, err
	}
	question := set.Questions[index]

	text, source := s.feedback(ctx, question, expected, answer)

	sub := submission.Submission{
		ID:             uuid.NewString(),
		UserID:         submitterID,
		QuestionSetID:  set.ID,
		QuestionIndex:  index,
		Question:       question,
		UserAnswer:     answer,
		ExpectedAnswer: expected,
		Feedback:       text,
		FeedbackSource: source,
		CreatedAt:      s.now(),
	}

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.submissions.Create(cctx, sub); err != nil {
		return submission.Submission{}, fmt.Errorf("store submission: %w", err)
	}

	return sub, nil
}

// ListAnswers returns submitterID's answers for one set, newest first.
func (s *Service) ListAnswers(ctx context.Context, submitterID, questionSetID string) ([]submission.Submission, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.submissions.ListByUserAndSet(cctx, submitterID, questionSetID)
}

func (s *Service) getSet(ctx context.Context, id string) (questionset.QuestionSet, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.sets.GetByID(cctx, id)
}

func (s *Service) feedback(ctx context.Context, question, expected, answer string) (string, submission.FeedbackSource) {
	out, err := s.model.EvaluateAnswer(ctx, question, expected, answer)
	if err == nil {
		if cleaned := scrubScores(out); cleaned != "" {
			return cleaned, submission.FromModel
		}
		err = errors.New("feedback was only score lines")
	}

	s.log.WarnContext(ctx, "model feedback unavailable, using keyword check", "err", err)
	if s.fallbacks != nil {
		s.fallbacks.IncFeedbackFallback()
	}

	return s.keywordFeedback(ctx, expected, answer), submission.FromFallback
}

func (s *Service) keywordFeedback(ctx context.Context, expected, answer string) string {
	keywords, err := s.model.ExtractKeywords(ctx, expected)
	if err != nil || len(keywords) == 0 {
		keywords = localKeywords(expected)
	}

	lowered := strings.ToLower(answer)
	var missing []string
	for _, kw := range keywords {
		if !strings.Contains(lowered, strings.ToLower(kw)) {
			missing = append(missing, kw)
		}
	}

	if len(missing) == 0 {
		return coveredMessage
	}
	if len(missing) > maxMissingNamed {
		missing = missing[:maxMissingNamed]
	}
	return fmt.Sprintf(missingFormat, strings.Join(missing, ", "))
}
