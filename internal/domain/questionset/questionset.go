package questionset

import (
	"errors"
	"time"
)

// PublicOwner owns every set created through the unauthenticated routes.
const PublicOwner = "public_user"

type Source string

const (
	SourceResume Source = "resume"
	SourceVoice  Source = "voice"
)

var (
	ErrNotFound        = errors.New("question set not found")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrMisaligned      = errors.New("expected answers do not line up with questions")
)

// QuestionSet is one ingestion event. ExpectedAnswers is either empty or
// index-aligned with Questions.
type QuestionSet struct {
	ID              string
	UserID          string
	Questions       []string
	ExpectedAnswers []string
	Skills          []string
	Source          Source
	CreatedAt       time.Time
}

func (qs QuestionSet) Validate() error {
	if len(qs.ExpectedAnswers) != 0 && len(qs.ExpectedAnswers) != len(qs.Questions) {
		return ErrMisaligned
	}
	return nil
}

func (qs QuestionSet) InBounds(index int) bool {
	return index >= 0 && index < len(qs.Questions)
}

// ExpectedAnswer returns the reference answer for a question, falling back to
// the question text itself for sets stored before answers were generated.
func (qs QuestionSet) ExpectedAnswer(index int) (string, error) {
	if !qs.InBounds(index) {
		return "", ErrIndexOutOfRange
	}
	if len(qs.ExpectedAnswers) == len(qs.Questions) {
		return qs.ExpectedAnswers[index], nil
	}
	return qs.Questions[index], nil
}

// View is what untrusted callers get: no expected answers.
type View struct {
	ID        string    `json:"id"`
	Questions []string  `json:"questions"`
	Skills    []string  `json:"skills"`
	Source    Source    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func (qs QuestionSet) View() View {
	return View{
		ID:        qs.ID,
		Questions: nonNil(qs.Questions),
		Skills:    nonNil(qs.Skills),
		Source:    qs.Source,
		Timestamp: qs.CreatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
