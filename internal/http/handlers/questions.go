package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Abhinav5603/generator-1/internal/domain/questionset"
	"github.com/Abhinav5603/generator-1/internal/http/middlewares"
	"github.com/Abhinav5603/generator-1/internal/ingest"
	"github.com/Abhinav5603/generator-1/internal/questions"
	"github.com/Abhinav5603/generator-1/internal/storage"
	"github.com/gin-gonic/gin"
)

// public history only ever shows this many sets
const publicHistoryLimit = 20

const uploadField = "file"

type QuestionService interface {
	Create(ctx context.Context, ownerID string, source questionset.Source, text string) (questionset.QuestionSet, error)
	Get(ctx context.Context, id string) (questionset.QuestionSet, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]questionset.QuestionSet, error)
}

type QuestionsHandler struct {
	svc       QuestionService
	files     storage.Store
	maxUpload int64
	log       *slog.Logger
}

// NewQuestionsHandler builds the generation handler. files may be nil, in
// which case uploads are parsed but not kept.
func NewQuestionsHandler(svc QuestionService, files storage.Store, maxUpload int64, log *slog.Logger) *QuestionsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &QuestionsHandler{
		svc:       svc,
		files:     files,
		maxUpload: maxUpload,
		log:       log,
	}
}

type ProcessVoiceRequest struct {
	Transcription string `json:"transcription" binding:"required"`
}

type GenerateResponse struct {
	QuestionSetID string   `json:"question_set_id"`
	Questions     []string `json:"questions"`
	Skills        []string `json:"skills"`
}

func (h *QuestionsHandler) UploadResume(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "token_missing", "Token is missing!")
		return
	}
	h.upload(ctx, ownerID)
}

func (h *QuestionsHandler) UploadResumePublic(ctx *gin.Context) {
	h.upload(ctx, questionset.PublicOwner)
}

func (h *QuestionsHandler) ProcessVoice(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "token_missing", "Token is missing!")
		return
	}
	h.voice(ctx, ownerID)
}

func (h *QuestionsHandler) ProcessVoicePublic(ctx *gin.Context) {
	h.voice(ctx, questionset.PublicOwner)
}

func (h *QuestionsHandler) History(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "token_missing", "Token is missing!")
		return
	}
	h.history(ctx, ownerID, 0)
}

func (h *QuestionsHandler) HistoryPublic(ctx *gin.Context) {
	h.history(ctx, questionset.PublicOwner, publicHistoryLimit)
}

func (h *QuestionsHandler) GetQuestionSet(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		RespondBadRequest(ctx, "Question set id is required", nil)
		return
	}

	qs, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, questionset.ErrNotFound) {
			RespondNotFound(ctx, "Question set not found")
			return
		}
		respondDependencyError(ctx, err, "Could not load question set")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, qs.View())
}

func (h *QuestionsHandler) upload(ctx *gin.Context, ownerID string) {
	header, err := ctx.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large", nil)
			return
		}
		RespondBadRequest(ctx, "No file part", gin.H{"field": uploadField})
		return
	}

	if header.Filename == "" {
		RespondBadRequest(ctx, "No selected file", gin.H{"field": uploadField})
		return
	}

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "File is too large", nil)
		return
	}

	if !ingest.Supported(header.Filename) {
		RespondError(ctx, http.StatusUnsupportedMediaType, "unsupported_media_type", "Unsupported file format", gin.H{"allowed": ingest.Extensions})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))

	tmpPath, err := spoolUpload(header, ext)
	if err != nil {
		respondDependencyError(ctx, err, "Could not read upload")
		return
	}
	defer os.Remove(tmpPath)

	text, err := ingest.ExtractText(ctx.Request.Context(), tmpPath)
	if err != nil {
		h.respondIngestError(ctx, err)
		return
	}

	key, err := h.keep(ctx.Request.Context(), tmpPath, ext, header.Size)
	if err != nil {
		respondDependencyError(ctx, err, "Could not store upload")
		return
	}

	// a failed generation must not leave an upload nobody can reference
	if !h.create(ctx, ownerID, questionset.SourceResume, text) {
		h.discard(ctx.Request.Context(), key)
	}
}

func (h *QuestionsHandler) voice(ctx *gin.Context, ownerID string) {
	var req ProcessVoiceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	h.create(ctx, ownerID, questionset.SourceVoice, req.Transcription)
}

// create generates and persists a set, reporting whether it succeeded. On
// failure the error response is already written.
func (h *QuestionsHandler) create(ctx *gin.Context, ownerID string, source questionset.Source, text string) bool {
	qs, err := h.svc.Create(ctx.Request.Context(), ownerID, source, text)
	if err != nil {
		if errors.Is(err, questions.ErrEmptyInput) {
			RespondBadRequest(ctx, "No text to generate questions from", nil)
			return false
		}
		respondDependencyError(ctx, err, "Could not generate questions")
		return false
	}

	view := qs.View()
	ctx.JSON(http.StatusOK, GenerateResponse{
		QuestionSetID: view.ID,
		Questions:     view.Questions,
		Skills:        view.Skills,
	})
	return true
}

func (h *QuestionsHandler) history(ctx *gin.Context, ownerID string, limit int) {
	sets, err := h.svc.ListByOwner(ctx.Request.Context(), ownerID, limit)
	if err != nil {
		respondDependencyError(ctx, err, "Could not load question history")
		return
	}

	out := make([]questionset.View, 0, len(sets))
	for _, qs := range sets {
		out = append(out, qs.View())
	}

	ctx.JSON(http.StatusOK, out)
}

func (h *QuestionsHandler) respondIngestError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		RespondError(ctx, http.StatusUnsupportedMediaType, "unsupported_media_type", "Unsupported file format", gin.H{"allowed": ingest.Extensions})
	case errors.Is(err, ingest.ErrEmptyDocument):
		RespondError(ctx, http.StatusUnprocessableEntity, "empty_document", "No text could be extracted from the file", nil)
	case errors.Is(err, ingest.ErrUnreadable):
		_ = ctx.Error(err)
		RespondError(ctx, http.StatusUnprocessableEntity, "unreadable_document", "The file could not be read", nil)
	default:
		respondDependencyError(ctx, err, "Could not read upload")
	}
}

// keep persists the raw upload under a generated key. With no file store it
// returns an empty key.
func (h *QuestionsHandler) keep(ctx context.Context, path, ext string, size int64) (string, error) {
	if h.files == nil {
		return "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := storage.NewKey("resume", ext)
	if err := h.files.Put(ctx, key, f, size, storage.ContentType(ext)); err != nil {
		return "", err
	}

	h.log.DebugContext(ctx, "upload stored", "key", key, "bytes", size)
	return key, nil
}

// discard removes a kept upload. It runs even when the request context is
// already done, since a timed out generation is the usual reason to get here.
func (h *QuestionsHandler) discard(ctx context.Context, key string) {
	if h.files == nil || key == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := h.files.Delete(ctx, key); err != nil {
		h.log.WarnContext(ctx, "could not remove upload after failed generation", "key", key, "err", err)
	}
}

// spoolUpload copies the multipart file to a temp file so extractors can
// open it by path.
func spoolUpload(header *multipart.FileHeader, ext string) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}

	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return dst.Name(), nil
}
