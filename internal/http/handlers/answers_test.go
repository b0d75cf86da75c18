package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abhinav5603/generator-1/internal/domain/questionset"
	"github.com/Abhinav5603/generator-1/internal/domain/submission"
	"github.com/Abhinav5603/generator-1/internal/feedback"
	"github.com/Abhinav5603/generator-1/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type fakeFeedbackService struct {
	evaluateFn func(ctx context.Context, submitterID, questionSetID string, index int, answer string) (submission.Submission, error)
	listFn     func(ctx context.Context, submitterID, questionSetID string) ([]submission.Submission, error)
}

func (f *fakeFeedbackService) Evaluate(ctx context.Context, submitterID, questionSetID string, index int, answer string) (submission.Submission, error) {
	if f.evaluateFn != nil {
		return f.evaluateFn(ctx, submitterID, questionSetID, index, answer)
	}
	return submission.Submission{}, nil
}

func (f *fakeFeedbackService) ListAnswers(ctx context.Context, submitterID, questionSetID string) ([]submission.Submission, error) {
	if f.listFn != nil {
		return f.listFn(ctx, submitterID, questionSetID)
	}
	return nil, nil
}

func newAnswersRouter(svc handlers.FeedbackService, authed bool) *gin.Engine {
	h := handlers.NewAnswersHandler(svc)

	r := gin.New()
	if authed {
		r.Use(withUser(testUser))
	}
	r.POST("/api/submit-answer", h.SubmitAnswer)
	r.GET("/api/get-answers", h.GetAnswers)
	return r
}

func TestSubmitAnswerHandler(t *testing.T) {
	tests := []struct {
		name          string
		authed        bool
		body          string
		evalErr       error
		wantStatus    int
		wantCode      string
		wantSubmitter string
		wantIndex     int
	}{
		{
			name:          "anonymous submission",
			body:          `{"question_set_id":"qs-1","question_index":0,"answer":"Goroutines are cheap threads."}`,
			wantStatus:    http.StatusOK,
			wantSubmitter: questionset.PublicOwner,
		},
		{
			name:          "authenticated submission",
			authed:        true,
			body:          `{"question_set_id":"qs-1","question_index":1,"answer":"Channels pass values."}`,
			wantStatus:    http.StatusOK,
			wantSubmitter: testUser.ID,
			wantIndex:     1,
		},
		{
			name:       "index out of range",
			body:       `{"question_set_id":"qs-1","question_index":7,"answer":"x"}`,
			evalErr:    questionset.ErrIndexOutOfRange,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "negative index",
			body:       `{"question_set_id":"qs-1","question_index":-1,"answer":"x"}`,
			evalErr:    questionset.ErrIndexOutOfRange,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "unknown set",
			body:       `{"question_set_id":"missing","question_index":0,"answer":"x"}`,
			evalErr:    questionset.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "blank answer",
			body:       `{"question_set_id":"qs-1","question_index":0,"answer":"  "}`,
			evalErr:    feedback.ErrEmptyAnswer,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "missing answer",
			body:       `{"question_set_id":"qs-1","question_index":0}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "store unreachable",
			body:       `{"question_set_id":"qs-1","question_index":0,"answer":"x"}`,
			evalErr:    fmt.Errorf("store submission: %w", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "service_unavailable",
		},
		{
			name:       "store timeout",
			body:       `{"question_set_id":"qs-1","question_index":0,"answer":"x"}`,
			evalErr:    fmt.Errorf("store submission: %w", context.DeadlineExceeded),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "service_unavailable",
		},
		{
			name:       "unexpected failure",
			body:       `{"question_set_id":"qs-1","question_index":0,"answer":"x"}`,
			evalErr:    errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSubmitter string
			var gotIndex int
			svc := &fakeFeedbackService{
				evaluateFn: func(ctx context.Context, submitterID, questionSetID string, index int, answer string) (submission.Submission, error) {
					gotSubmitter, gotIndex = submitterID, index
					if tt.evalErr != nil {
						return submission.Submission{}, tt.evalErr
					}
					return submission.Submission{
						ID:             "sub-1",
						QuestionSetID:  questionSetID,
						QuestionIndex:  index,
						ExpectedAnswer: "A lightweight thread.",
						Feedback:       "Mention the scheduler.",
						CreatedAt:      time.Now().UTC(),
					}, nil
				},
			}
			r := newAnswersRouter(svc, tt.authed)

			w := postJSON(r, "/api/submit-answer", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				if got := errorCode(t, w); got != tt.wantCode {
					t.Fatalf("code: got %q want %q", got, tt.wantCode)
				}
				return
			}

			if gotSubmitter != tt.wantSubmitter || gotIndex != tt.wantIndex {
				t.Fatalf("evaluated for submitter=%q index=%d", gotSubmitter, gotIndex)
			}

			var resp handlers.SubmitAnswerResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.SubmissionID != "sub-1" || resp.Feedback != "Mention the scheduler." || resp.ExpectedAnswer != "A lightweight thread." {
				t.Fatalf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestGetAnswersHandler(t *testing.T) {
	var gotSubmitter, gotSet string
	svc := &fakeFeedbackService{
		listFn: func(ctx context.Context, submitterID, questionSetID string) ([]submission.Submission, error) {
			gotSubmitter, gotSet = submitterID, questionSetID
			return []submission.Submission{{ID: "sub-2", UserID: submitterID, QuestionSetID: questionSetID, Feedback: "ok"}}, nil
		},
	}

	t.Run("lists own answers", func(t *testing.T) {
		r := newAnswersRouter(svc, true)

		req := httptest.NewRequest(http.MethodGet, "/api/get-answers?question_set_id=qs-1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", w.Code)
		}
		if gotSubmitter != testUser.ID || gotSet != "qs-1" {
			t.Fatalf("listed submitter=%q set=%q", gotSubmitter, gotSet)
		}

		var subs []map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &subs); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(subs) != 1 || subs[0]["id"] != "sub-2" {
			t.Fatalf("unexpected answers: %s", w.Body.String())
		}
		if _, ok := subs[0]["UserID"]; ok {
			t.Fatalf("submitter id must not be serialized")
		}
	})

	t.Run("requires question_set_id", func(t *testing.T) {
		r := newAnswersRouter(svc, true)

		req := httptest.NewRequest(http.MethodGet, "/api/get-answers", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", w.Code)
		}
	})

	t.Run("requires a user", func(t *testing.T) {
		r := newAnswersRouter(svc, false)

		req := httptest.NewRequest(http.MethodGet, "/api/get-answers?question_set_id=qs-1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}
	})
}
