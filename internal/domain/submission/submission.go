package submission

import "time"

type FeedbackSource string

const (
	FromModel    FeedbackSource = "model"
	FromFallback FeedbackSource = "fallback"
)

// Submission records one answer evaluated against a question set. It holds the
// set by id only.
type Submission struct {
	ID             string         `json:"id"`
	UserID         string         `json:"-"`
	QuestionSetID  string         `json:"question_set_id"`
	QuestionIndex  int            `json:"question_index"`
	Question       string         `json:"question"`
	UserAnswer     string         `json:"user_answer"`
	ExpectedAnswer string         `json:"expected_answer"`
	Feedback       string         `json:"feedback"`
	FeedbackSource FeedbackSource `json:"feedback_source"`
	CreatedAt      time.Time      `json:"timestamp"`
}
