package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Abhinav5603/generator-1/internal/domain/questionset"
	"github.com/Abhinav5603/generator-1/internal/domain/submission"
	"github.com/Abhinav5603/generator-1/internal/feedback"
	"github.com/Abhinav5603/generator-1/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type FeedbackService interface {
	Evaluate(ctx context.Context, submitterID, questionSetID string, index int, answer string) (submission.Submission, error)
	ListAnswers(ctx context.Context, submitterID, questionSetID string) ([]submission.Submission, error)
}

type AnswersHandler struct {
	svc FeedbackService
}

func NewAnswersHandler(svc FeedbackService) *AnswersHandler {
	return &AnswersHandler{svc: svc}
}

type SubmitAnswerRequest struct {
	QuestionSetID string `json:"question_set_id" binding:"required"`
	// pointer so that index 0 passes "required"
	QuestionIndex *int   `json:"question_index" binding:"required"`
	Answer        string `json:"answer" binding:"required"`
}

type SubmitAnswerResponse struct {
	Feedback       string `json:"feedback"`
	ExpectedAnswer string `json:"expected_answer"`
	SubmissionID   string `json:"submission_id"`
}

// SubmitAnswer runs on OptionalAuth. Anonymous answers are filed under the
// public owner.
func (h *AnswersHandler) SubmitAnswer(ctx *gin.Context) {
	var req SubmitAnswerRequest

	if !BindJSON(ctx, &req) {
		return
	}

	submitterID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		submitterID = questionset.PublicOwner
	}

	sub, err := h.svc.Evaluate(ctx.Request.Context(), submitterID, req.QuestionSetID, *req.QuestionIndex, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, questionset.ErrNotFound):
			RespondNotFound(ctx, "Question set not found")
		case errors.Is(err, questionset.ErrIndexOutOfRange):
			RespondBadRequest(ctx, "Invalid question index", gin.H{"field": "question_index"})
		case errors.Is(err, feedback.ErrEmptyAnswer):
			RespondBadRequest(ctx, "Answer is required", gin.H{"field": "answer"})
		default:
			respondDependencyError(ctx, err, "Could not save answer")
		}
		return
	}

	ctx.JSON(http.StatusOK, SubmitAnswerResponse{
		Feedback:       sub.Feedback,
		ExpectedAnswer: sub.ExpectedAnswer,
		SubmissionID:   sub.ID,
	})
}

func (h *AnswersHandler) GetAnswers(ctx *gin.Context) {
	submitterID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "token_missing", "Token is missing!")
		return
	}

	setID := strings.TrimSpace(ctx.Query("question_set_id"))
	if setID == "" {
		RespondBadRequest(ctx, "question_set_id is required", gin.H{"field": "question_set_id"})
		return
	}

	subs, err := h.svc.ListAnswers(ctx.Request.Context(), submitterID, setID)
	if err != nil {
		respondDependencyError(ctx, err, "Could not load answers")
		return
	}

	if subs == nil {
		subs = []submission.Submission{}
	}

	ctx.JSON(http.StatusOK, subs)
}
