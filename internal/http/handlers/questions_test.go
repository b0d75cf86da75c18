package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abhinav5603/generator-1/internal/domain/questionset"
	"github.com/Abhinav5603/generator-1/internal/http/handlers"
	"github.com/Abhinav5603/generator-1/internal/llm"
	"github.com/Abhinav5603/generator-1/internal/questions"
	"github.com/Abhinav5603/generator-1/internal/storage"
	"github.com/gin-gonic/gin"
)

type fakeQuestionService struct {
	createFn func(ctx context.Context, ownerID string, source questionset.Source, text string) (questionset.QuestionSet, error)
	getFn    func(ctx context.Context, id string) (questionset.QuestionSet, error)
	listFn   func(ctx context.Context, ownerID string, limit int) ([]questionset.QuestionSet, error)
}

func (f *fakeQuestionService) Create(ctx context.Context, ownerID string, source questionset.Source, text string) (questionset.QuestionSet, error) {
	if f.createFn != nil {
		return f.createFn(ctx, ownerID, source, text)
	}
	return questionset.QuestionSet{}, nil
}

func (f *fakeQuestionService) Get(ctx context.Context, id string) (questionset.QuestionSet, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return questionset.QuestionSet{}, questionset.ErrNotFound
}

func (f *fakeQuestionService) ListByOwner(ctx context.Context, ownerID string, limit int) ([]questionset.QuestionSet, error) {
	if f.listFn != nil {
		return f.listFn(ctx, ownerID, limit)
	}
	return nil, nil
}

type fakeFileStore struct {
	keys    []string
	deleted []string
	data    map[string][]byte
	err     error
}

func (f *fakeFileStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.err != nil {
		return f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if f.data == nil {
		f.data = map[string][]byte{}
	}
	f.keys = append(f.keys, key)
	f.data[key] = b
	return nil
}

func (f *fakeFileStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.data, key)
	return nil
}

var sampleSet = questionset.QuestionSet{
	ID:              "qs-1",
	UserID:          "user-1",
	Questions:       []string{"What is a goroutine?", "Explain channels."},
	ExpectedAnswers: []string{"A lightweight thread.", "Typed conduits."},
	Skills:          []string{"Go"},
	Source:          questionset.SourceResume,
	CreatedAt:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	} else if err := mw.WriteField("note", "no file here"); err != nil {
		t.Fatalf("write field: %v", err)
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func newQuestionsRouter(svc handlers.QuestionService, files *fakeFileStore) *gin.Engine {
	var store storage.Store
	if files != nil {
		store = files
	}

	h := handlers.NewQuestionsHandler(svc, store, 1<<20, nil)

	r := gin.New()
	r.POST("/api/upload-resume", withUser(testUser), h.UploadResume)
	r.POST("/api/upload-resume-public", h.UploadResumePublic)
	r.POST("/api/process-voice", withUser(testUser), h.ProcessVoice)
	r.POST("/api/process-voice-public", h.ProcessVoicePublic)
	r.GET("/api/question-history", withUser(testUser), h.History)
	r.GET("/api/question-history-public", h.HistoryPublic)
	r.GET("/api/get-question-set/:id", h.GetQuestionSet)
	return r
}

func TestUploadResume_TextFile(t *testing.T) {
	var gotOwner, gotText string
	var gotSource questionset.Source

	svc := &fakeQuestionService{
		createFn: func(ctx context.Context, ownerID string, source questionset.Source, text string) (questionset.QuestionSet, error) {
			gotOwner, gotSource, gotText = ownerID, source, text
			return sampleSet, nil
		},
	}
	files := &fakeFileStore{}
	r := newQuestionsRouter(svc, files)

	body, ct := multipartUpload(t, "file", "../../etc/resume.txt", "  Go developer  \n\nPostgreSQL and Docker\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload-resume", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}
	if gotOwner != testUser.ID || gotSource != questionset.SourceResume {
		t.Fatalf("unexpected owner/source: %q %q", gotOwner, gotSource)
	}
	if gotText != "Go developer\nPostgreSQL and Docker" {
		t.Fatalf("unexpected extracted text: %q", gotText)
	}

	if len(files.keys) != 1 {
		t.Fatalf("expected one stored upload, got %v", files.keys)
	}
	key := files.keys[0]
	if !strings.HasPrefix(key, "resume_") || !strings.HasSuffix(key, ".txt") || strings.Contains(key, "etc") {
		t.Fatalf("stored key must be generated, got %q", key)
	}

	var resp handlers.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.QuestionSetID != "qs-1" || len(resp.Questions) != 2 || resp.Skills[0] != "Go" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if strings.Contains(w.Body.String(), "lightweight thread") {
		t.Fatalf("expected answers leaked: %s", w.Body.String())
	}
}

func TestUploadResume_PublicOwner(t *testing.T) {
	var gotOwner string
	svc := &fakeQuestionService{
		createFn: func(ctx context.Context, ownerID string, source questionset.Source, text string) (questionset.QuestionSet, error) {
			gotOwner = ownerID
			return sampleSet, nil
		},
	}
	r := newQuestionsRouter(svc, nil)

	body, ct := multipartUpload(t, "file", "cv.md", "# Jane\nKubernetes")
	req := httptest.NewRequest(http.MethodPost, "/api/upload-resume-public", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}
	if gotOwner != questionset.PublicOwner {
		t.Fatalf("expected public owner, got %q", gotOwner)
	}
}

func TestUploadResume_Errors(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		filename   string
		content    string
		createErr  error
		storeErr   error
		wantStatus int
		wantCode   string
	}{
		{name: "no file part", wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "unsupported extension", field: "file", filename: "cv.exe", content: "MZ", wantStatus: http.StatusUnsupportedMediaType, wantCode: "unsupported_media_type"},
		{name: "blank document", field: "file", filename: "cv.txt", content: " \n\t\n", wantStatus: http.StatusUnprocessableEntity, wantCode: "empty_document"},
		{name: "not utf-8", field: "file", filename: "cv.txt", content: "\xff\xfe\xfd", wantStatus: http.StatusUnprocessableEntity, wantCode: "unreadable_document"},
		{name: "broken docx", field: "file", filename: "cv.docx", content: "not a zip", wantStatus: http.StatusUnprocessableEntity, wantCode: "unreadable_document"},
		{name: "model down", field: "file", filename: "cv.txt", content: "Go", createErr: fmt.Errorf("generate questions: %w", llm.ErrUnavailable), wantStatus: http.StatusServiceUnavailable, wantCode: "service_unavailable"},
		{name: "storage failure", field: "file", filename: "cv.txt", content: "Go", storeErr: fmt.Errorf("disk full"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &fakeQuestionService{
				createFn: func(ctx context.Context, ownerID string, source questionset.Source, text string) (questionset.QuestionSet, error) {
					called = true
					return sampleSet, tt.createErr
				},
			}
			r := newQuestionsRouter(svc, &fakeFileStore{err: tt.storeErr})

			body, ct := multipartUpload(t, tt.field, tt.filename, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/upload-resume", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := errorCode(t, w); got != tt.wantCode {
				t.Fatalf("code: got %q want %q", got, tt.wantCode)
			}
			if tt.createErr == nil && called {
				t.Fatalf("service must not run when the upload is rejected")
			}
		})
	}
}

func TestUploadResume_FailedGenerationRemovesUpload(t *testing.T) {
	for _, createErr := range []error{
		fmt.Errorf("generate questions: %w", llm.ErrUnavailable),
		questions.ErrEmptyInput,
	} {
		svc := &fakeQuestionService{
			createFn: func(ctx context.Context, ownerID string, source questionset.Source, text string) (questionset.QuestionSet, error) {
				return questionset.QuestionSet{}, createErr
			},
		}
		files := &fakeFileStore{}
		r := newQuestionsRouter(svc, files)

		body, ct := multipartUpload(t, "file", "cv.txt", "Go and Kafka")
		req := httptest.NewRequest(http.MethodPost, "/api/upload-resume-public", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code == http.StatusOK {
			t.Fatalf("%v: expected a failure status, got 200", createErr)
		}
		if len(files.keys) != 1 || len(files.deleted) != 1 || files.deleted[0] != files.keys[0] {
			t.Fatalf("%v: stored %v, deleted %v", createErr, files.keys, files.deleted)
		}
		if len(files.data) != 0 {
			t.Fatalf("%v: uploads left behind: %v", createErr, files.data)
		}
	}
}

func TestUploadResume_SuccessKeepsUpload(t *testing.T) {
	svc := &fakeQuestionService{
		createFn: func(ctx context.Context, ownerID string, source questionset.Source, text string) (questionset.QuestionSet, error) {
			return sampleSet, nil
		},
	}
	files := &fakeFileStore{}
	r := newQuestionsRouter(svc, files)

	body, ct := multipartUpload(t, "file", "cv.txt", "Go and Kafka")
	req := httptest.NewRequest(http.MethodPost, "/api/upload-resume-public", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if len(files.deleted) != 0 || len(files.data) != 1 {
		t.Fatalf("successful upload must stay stored: data=%d deleted=%v", len(files.data), files.deleted)
	}
}

func TestProcessVoice(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		createErr  error
		wantStatus int
		wantOwner  string
	}{
		{name: "authenticated", path: "/api/process-voice", body: `{"transcription":"I build Go services on AWS"}`, wantStatus: http.StatusOK, wantOwner: testUser.ID},
		{name: "public", path: "/api/process-voice-public", body: `{"transcription":"I build Go services on AWS"}`, wantStatus: http.StatusOK, wantOwner: questionset.PublicOwner},
		{name: "missing transcription", path: "/api/process-voice-public", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "blank transcription", path: "/api/process-voice", body: `{"transcription":"   "}`, createErr: questions.ErrEmptyInput, wantStatus: http.StatusBadRequest, wantOwner: testUser.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOwner string
			var gotSource questionset.Source
			svc := &fakeQuestionService{
				createFn: func(ctx context.Context, ownerID string, source questionset.Source, text string) (questionset.QuestionSet, error) {
					gotOwner, gotSource = ownerID, source
					return sampleSet, tt.createErr
				},
			}
			r := newQuestionsRouter(svc, nil)

			w := postJSON(r, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if gotOwner != tt.wantOwner {
				t.Fatalf("owner: got %q want %q", gotOwner, tt.wantOwner)
			}
			if tt.wantOwner != "" && gotSource != questionset.SourceVoice {
				t.Fatalf("source: got %q", gotSource)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	var gotOwner string
	var gotLimit int
	svc := &fakeQuestionService{
		listFn: func(ctx context.Context, ownerID string, limit int) ([]questionset.QuestionSet, error) {
			gotOwner, gotLimit = ownerID, limit
			return []questionset.QuestionSet{sampleSet}, nil
		},
	}
	r := newQuestionsRouter(svc, nil)

	tests := []struct {
		path      string
		wantOwner string
		wantLimit int
	}{
		{path: "/api/question-history", wantOwner: testUser.ID, wantLimit: 0},
		{path: "/api/question-history-public", wantOwner: questionset.PublicOwner, wantLimit: 20},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, want 200", w.Code)
			}
			if gotOwner != tt.wantOwner || gotLimit != tt.wantLimit {
				t.Fatalf("listed owner=%q limit=%d", gotOwner, gotLimit)
			}

			var views []questionset.View
			if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(views) != 1 || views[0].ID != "qs-1" || views[0].Source != questionset.SourceResume {
				t.Fatalf("unexpected history: %s", w.Body.String())
			}
			if strings.Contains(w.Body.String(), "expected") {
				t.Fatalf("history must not carry expected answers: %s", w.Body.String())
			}
		})
	}
}

func TestHistory_EmptyIsArray(t *testing.T) {
	r := newQuestionsRouter(&fakeQuestionService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/question-history-public", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %d %s", w.Code, w.Body.String())
	}
}

func TestGetQuestionSet_ETag(t *testing.T) {
	svc := &fakeQuestionService{
		getFn: func(ctx context.Context, id string) (questionset.QuestionSet, error) {
			if id != "qs-1" {
				return questionset.QuestionSet{}, questionset.ErrNotFound
			}
			return sampleSet, nil
		},
	}
	r := newQuestionsRouter(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/get-question-set/qs-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/get-question-set/qs-1", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/get-question-set/missing", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}
