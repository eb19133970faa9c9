package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyden-backend/internal/middleware"
	"studyden-backend/internal/models"
	"studyden-backend/internal/repository"
)

type NoteHandler struct {
	repo *repository.NoteRepo
}

func NewNoteHandler(repo *repository.NoteRepo) *NoteHandler {
	return &NoteHandler{repo: repo}
}

type noteRequest struct {
	CourseID *uuid.UUID `json:"course_id"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	IsPinned bool       `json:"is_pinned"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"title": "Note title is required"}, r))
		return
	}

	note := &models.Note{
		WorkspaceID: workspaceID,
		CourseID:    req.CourseID,
		Title:       strings.TrimSpace(req.Title),
		Body:        req.Body,
		IsPinned:    req.IsPinned,
	}

	if err := h.repo.Create(r.Context(), note); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create note", r))
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	notes, err := h.repo.ListByWorkspace(r.Context(), workspaceID, r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid note ID", r))
		return
	}

	note, err := h.repo.GetByID(r.Context(), workspaceID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid note ID", r))
		return
	}

	note, err := h.repo.GetByID(r.Context(), workspaceID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"title": "Note title is required"}, r))
		return
	}

	note.CourseID = req.CourseID
	note.Title = strings.TrimSpace(req.Title)
	note.Body = req.Body
	note.IsPinned = req.IsPinned

	if err := h.repo.Update(r.Context(), note); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update note", r))
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid note ID", r))
		return
	}

	if err := h.repo.Delete(r.Context(), workspaceID, id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete note", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}
