package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/qbank-io/apiserver/internal/audit"
	"github.com/qbank-io/apiserver/internal/store"
)

const defaultHistoryDays = 30

// AuditHandler exposes both audit records for a question: the queryable
// relational rows and the diff-bearing file trail.
type AuditHandler struct {
	rows  *store.AuditLogRepository
	trail *audit.Trail
}

func NewAuditHandler(rows *store.AuditLogRepository, trail *audit.Trail) *AuditHandler {
	return &AuditHandler{rows: rows, trail: trail}
}

// ListRows returns the relational audit rows for a question, newest first.
func (h *AuditHandler) ListRows(w http.ResponseWriter, r *http.Request) {
	id, err := parseQuestionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	skip, limit, err := parseSkipLimit(r, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.rows.ListByQuestion(r.Context(), id, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// HistoryResponse wraps the file-trail entries for a question.
type HistoryResponse struct {
	History []audit.Entry `json:"history"`
}

// History returns the file-trail entries for a question over the last
// days_back days (default 30), newest first.
func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := parseQuestionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	daysBack := defaultHistoryDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days_back")); raw != "" {
		daysBack, err = strconv.Atoi(raw)
		if err != nil || daysBack < 1 {
			writeError(w, http.StatusBadRequest, "invalid days_back")
			return
		}
	}

	history, err := h.trail.History(id, daysBack)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read audit history")
		return
	}
	if history == nil {
		history = []audit.Entry{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{History: history})
}
