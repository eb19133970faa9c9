package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyden-backend/internal/middleware"
	"studyden-backend/internal/models"
	"studyden-backend/internal/repository"
	"studyden-backend/internal/session"
)

type SessionHandler struct {
	manager *session.Manager
	repo    *repository.SessionRepo
}

func NewSessionHandler(manager *session.Manager, repo *repository.SessionRepo) *SessionHandler {
	return &SessionHandler{manager: manager, repo: repo}
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	state, err := h.manager.Start(r.Context(), workspaceID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, state)
}

func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	state, err := h.manager.Pause(workspaceID, sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	state, err := h.manager.Resume(workspaceID, sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.manager.Complete)
}

func (h *SessionHandler) Interrupt(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.manager.Interrupt)
}

func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.manager.Cancel)
}

func (h *SessionHandler) finish(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, workspaceID, sessionID uuid.UUID, notes *string) (*models.StudySession, error)) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req models.FinishSessionRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	sess, err := op(r.Context(), workspaceID, sessionID, req.Notes)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": sess})
}

// Active returns the running countdown. After a server restart there is no
// in-memory runtime, so it falls back to the ACTIVE row in storage with an
// estimated remaining time.
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	state, err := h.manager.Active(workspaceID)
	if err == nil {
		writeJSON(w, http.StatusOK, state)
		return
	}

	sess, repoErr := h.repo.FindActive(r.Context(), workspaceID)
	if repoErr != nil {
		handleServiceError(w, r, repoErr)
		return
	}
	if sess == nil {
		handleServiceError(w, r, err)
		return
	}

	remaining := sess.PlannedDurationMinutes*60 - int(time.Since(sess.StartedAt).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	writeJSON(w, http.StatusOK, models.SessionState{
		Session:          sess,
		RemainingSeconds: remaining,
	})
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	sessions, err := h.repo.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	sess, err := h.repo.GetByID(r.Context(), workspaceID, sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": sess})
}
