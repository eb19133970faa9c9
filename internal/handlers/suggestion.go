package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"studyden-backend/internal/middleware"
	"studyden-backend/internal/models"
	"studyden-backend/internal/repository"
	"studyden-backend/internal/services"
)

type SuggestionHandler struct {
	suggestions *services.SuggestionService
	sessions    *repository.SessionRepo
	courses     *repository.CourseRepo
	tasks       *repository.TaskRepo
	exams       *repository.ExamRepo
}

func NewSuggestionHandler(
	suggestions *services.SuggestionService,
	sessions *repository.SessionRepo,
	courses *repository.CourseRepo,
	tasks *repository.TaskRepo,
	exams *repository.ExamRepo,
) *SuggestionHandler {
	return &SuggestionHandler{
		suggestions: suggestions,
		sessions:    sessions,
		courses:     courses,
		tasks:       tasks,
		exams:       exams,
	}
}

// NextSession proposes what to study next. The suggestion is advisory only;
// when the planner is unavailable the client starts a session manually.
func (h *SuggestionHandler) NextSession(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	courses, err := h.courses.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	tasks, err := h.tasks.ListByWorkspace(r.Context(), workspaceID, models.TaskOpen)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	exams, err := h.exams.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	suggestion, err := h.suggestions.NextSession(r.Context(), courses, tasks, exams)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("SUGGESTION_UNAVAILABLE", "Could not generate a suggestion right now", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestion": suggestion})
}

// SummarizeSession produces a short recap of a finished session's notes.
func (h *SuggestionHandler) SummarizeSession(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req models.SessionSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Notes) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"notes": "Notes are required"}, r))
		return
	}

	sess, err := h.sessions.GetByID(r.Context(), workspaceID, req.SessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !sess.IsTerminal() {
		writeJSON(w, http.StatusConflict, errorResp("INVALID_STATE", "Only finished sessions can be summarized", r))
		return
	}

	summary, err := h.suggestions.SummarizeSession(r.Context(), sess, req.Notes)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("SUGGESTION_UNAVAILABLE", "Could not generate a summary right now", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}
