package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/qbank-io/apiserver/internal/services"
	"github.com/qbank-io/apiserver/internal/store"
	"github.com/qbank-io/apiserver/types"
)

// QuestionHandler provides HTTP handlers for questions. Every mutation is
// followed by a Recorder.Record call emitting the audit trail entry and the
// relational audit row.
type QuestionHandler struct {
	questionService *services.QuestionService
	recorder        *services.Recorder
}

// NewQuestionHandler constructs a handler with the provided dependencies.
func NewQuestionHandler(questionService *services.QuestionService, recorder *services.Recorder) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		recorder:        recorder,
	}
}

// QuestionRouter registers question routes on the given router. Reads are
// open to any authenticated role; mutations require editor or admin. Auth is
// attached per route so the group can carry sibling routes with their own
// middleware chains.
func QuestionRouter(r chi.Router, handler *QuestionHandler, authMiddleware func(http.Handler) http.Handler) {
	requireEditor := RequireEditor()

	r.With(authMiddleware).Get("/", handler.ListQuestions)
	r.With(authMiddleware, requireEditor).Post("/", handler.CreateQuestion)
	r.With(authMiddleware).Get("/{questionID}", handler.GetQuestion)
	r.With(authMiddleware, requireEditor).Put("/{questionID}", handler.UpdateQuestion)
	r.With(authMiddleware, requireEditor).Delete("/{questionID}", handler.DeleteQuestion)
	r.With(authMiddleware, requireEditor).Put("/{questionID}/status", handler.SetQuestionStatus)
}

// QuestionListResponse is the paginated list response payload.
type QuestionListResponse struct {
	Questions []types.Question `json:"questions"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	Size      int              `json:"size"`
}

func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	skip, limit, err := parseSkipLimit(r, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter, err := parseQuestionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Viewers only ever see published questions.
	filter.Status = VisibleStatus(user.Role, filter.Status)
	if !CanIncludeDeleted(user.Role) {
		filter.IncludeDeleted = false
	}

	questions, total, err := h.questionService.List(r.Context(), filter, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list questions")
		return
	}

	writeJSON(w, http.StatusOK, QuestionListResponse{
		Questions: questions,
		Total:     total,
		Page:      skip/limit + 1,
		Size:      limit,
	})
}

func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseQuestionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	includeDeleted := parseBoolParam(r, "include_deleted") && CanIncludeDeleted(user.Role)

	question, err := h.questionService.Get(r.Context(), id, includeDeleted)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch question")
		return
	}

	// A hidden question reads as missing, not forbidden.
	if !CanSeeQuestion(user.Role, question) {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}

	writeJSON(w, http.StatusOK, question)
}

type CreateQuestionRequest struct {
	Subject            string           `json:"subject"`
	Topic              string           `json:"topic"`
	Question           string           `json:"question"`
	Difficulty         types.Difficulty `json:"difficulty"`
	Status             types.Status     `json:"status"`
	AttachmentFilename *string          `json:"attachment_filename"`
	AttachmentPath     *string          `json:"attachment_path"`
}

func (req *CreateQuestionRequest) validate() error {
	req.Subject = strings.TrimSpace(req.Subject)
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Subject == "" || req.Topic == "" || strings.TrimSpace(req.Question) == "" {
		return errors.New("subject, topic and question are required")
	}
	if !req.Difficulty.IsValid() {
		return errors.New("invalid difficulty")
	}
	if req.Status != "" && !req.Status.IsValid() {
		return errors.New("invalid status")
	}
	return nil
}

func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.questionService.Create(r.Context(), types.Question{
		Subject:            req.Subject,
		Topic:              req.Topic,
		Question:           req.Question,
		Difficulty:         req.Difficulty,
		Status:             req.Status,
		AttachmentFilename: req.AttachmentFilename,
		AttachmentPath:     req.AttachmentPath,
	}, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create question")
		return
	}

	h.recorder.Record(r.Context(), services.Mutation{
		QuestionID: created.ID,
		User:       user,
		Action:     types.ActionCreate,
		NewData:    created.Snapshot(),
		Summary:    fmt.Sprintf("Question created: %s - %s", created.Subject, created.Topic),
	})

	writeJSON(w, http.StatusCreated, created)
}

func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseQuestionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req types.QuestionUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Difficulty != nil && !req.Difficulty.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid difficulty")
		return
	}
	if req.Status != nil && !req.Status.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	// Prior snapshot for the audit diff.
	original, err := h.questionService.Get(r.Context(), id, false)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch question")
		return
	}

	updated, err := h.questionService.Update(r.Context(), id, req, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update question")
		return
	}

	h.recorder.Record(r.Context(), services.Mutation{
		QuestionID: updated.ID,
		User:       user,
		Action:     types.ActionUpdate,
		OldData:    original.Snapshot(),
		NewData:    updated.Snapshot(),
		Summary:    fmt.Sprintf("Question updated: %s - %s", updated.Subject, updated.Topic),
	})

	writeJSON(w, http.StatusOK, updated)
}

func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseQuestionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	question, err := h.questionService.Get(r.Context(), id, false)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch question")
		return
	}

	if err := h.questionService.SoftDelete(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete question")
		return
	}

	h.recorder.Record(r.Context(), services.Mutation{
		QuestionID: id,
		User:       user,
		Action:     types.ActionDelete,
		Summary:    fmt.Sprintf("Question soft deleted: %s - %s", question.Subject, question.Topic),
	})

	writeJSON(w, http.StatusOK, MessageResponse{Message: "question deleted successfully"})
}

type SetStatusRequest struct {
	Status types.Status `json:"status"`
}

func (h *QuestionHandler) SetQuestionStatus(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseQuestionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !req.Status.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	question, err := h.questionService.Get(r.Context(), id, false)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch question")
		return
	}
	oldStatus := question.Status

	updated, err := h.questionService.SetStatus(r.Context(), id, req.Status, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	h.recorder.Record(r.Context(), services.Mutation{
		QuestionID: id,
		User:       user,
		Action:     types.ActionStatusChange,
		OldData:    map[string]any{"status": string(oldStatus)},
		NewData:    map[string]any{"status": string(req.Status)},
		Summary:    fmt.Sprintf("Status changed from %s to %s", oldStatus, req.Status),
	})

	writeJSON(w, http.StatusOK, updated)
}

func parseQuestionID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "questionID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid question id")
	}
	return id, nil
}

func parseQuestionFilter(r *http.Request) (types.QuestionFilter, error) {
	filter := types.QuestionFilter{
		Subject:        strings.TrimSpace(r.URL.Query().Get("subject")),
		Topic:          strings.TrimSpace(r.URL.Query().Get("topic")),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("difficulty")); raw != "" {
		difficulty := types.Difficulty(raw)
		if !difficulty.IsValid() {
			return types.QuestionFilter{}, errors.New("invalid difficulty")
		}
		filter.Difficulty = difficulty
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := types.Status(raw)
		if !status.IsValid() {
			return types.QuestionFilter{}, errors.New("invalid status")
		}
		filter.Status = status
	}

	return filter, nil
}
