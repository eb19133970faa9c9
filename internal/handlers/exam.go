package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyden-backend/internal/middleware"
	"studyden-backend/internal/models"
	"studyden-backend/internal/repository"
)

type ExamHandler struct {
	repo *repository.ExamRepo
}

func NewExamHandler(repo *repository.ExamRepo) *ExamHandler {
	return &ExamHandler{repo: repo}
}

type examRequest struct {
	CourseID *uuid.UUID `json:"course_id"`
	Title    string     `json:"title"`
	StartsAt time.Time  `json:"starts_at"`
	Location *string    `json:"location"`
	Notes    *string    `json:"notes"`
}

func (req *examRequest) validate() map[string]string {
	fieldErrors := make(map[string]string)
	if strings.TrimSpace(req.Title) == "" {
		fieldErrors["title"] = "Exam title is required"
	}
	if req.StartsAt.IsZero() {
		fieldErrors["starts_at"] = "Exam start time is required"
	}
	return fieldErrors
}

func (h *ExamHandler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req examRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	exam := &models.Exam{
		WorkspaceID: workspaceID,
		CourseID:    req.CourseID,
		Title:       strings.TrimSpace(req.Title),
		StartsAt:    req.StartsAt,
		Location:    req.Location,
		Notes:       req.Notes,
	}

	if err := h.repo.Create(r.Context(), exam); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create exam", r))
		return
	}

	writeJSON(w, http.StatusCreated, exam)
}

func (h *ExamHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	exams, err := h.repo.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"exams": exams})
}

func (h *ExamHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid exam ID", r))
		return
	}

	exam, err := h.repo.GetByID(r.Context(), workspaceID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, exam)
}

func (h *ExamHandler) Update(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid exam ID", r))
		return
	}

	exam, err := h.repo.GetByID(r.Context(), workspaceID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req examRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	exam.CourseID = req.CourseID
	exam.Title = strings.TrimSpace(req.Title)
	exam.StartsAt = req.StartsAt
	exam.Location = req.Location
	exam.Notes = req.Notes

	if err := h.repo.Update(r.Context(), exam); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update exam", r))
		return
	}

	writeJSON(w, http.StatusOK, exam)
}

func (h *ExamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid exam ID", r))
		return
	}

	if err := h.repo.Delete(r.Context(), workspaceID, id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete exam", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Exam deleted"})
}
