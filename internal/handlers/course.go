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

type CourseHandler struct {
	repo *repository.CourseRepo
}

func NewCourseHandler(repo *repository.CourseRepo) *CourseHandler {
	return &CourseHandler{repo: repo}
}

type courseRequest struct {
	Code  string  `json:"code"`
	Title string  `json:"title"`
	Color *string `json:"color"`
	Term  *string `json:"term"`
}

func (req *courseRequest) validate() map[string]string {
	fieldErrors := make(map[string]string)
	if strings.TrimSpace(req.Code) == "" {
		fieldErrors["code"] = "Course code is required"
	}
	if strings.TrimSpace(req.Title) == "" {
		fieldErrors["title"] = "Course title is required"
	}
	return fieldErrors
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	course := &models.Course{
		WorkspaceID: workspaceID,
		Code:        strings.TrimSpace(req.Code),
		Title:       strings.TrimSpace(req.Title),
		Color:       req.Color,
		Term:        req.Term,
	}

	if err := h.repo.Create(r.Context(), course); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create course", r))
		return
	}

	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	courses, err := h.repo.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	course, err := h.repo.GetByID(r.Context(), workspaceID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	course, err := h.repo.GetByID(r.Context(), workspaceID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	course.Code = strings.TrimSpace(req.Code)
	course.Title = strings.TrimSpace(req.Title)
	course.Color = req.Color
	course.Term = req.Term

	if err := h.repo.Update(r.Context(), course); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update course", r))
		return
	}

	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Archive(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	if err := h.repo.Archive(r.Context(), workspaceID, id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to archive course", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Course archived"})
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	if err := h.repo.Delete(r.Context(), workspaceID, id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete course", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Course deleted"})
}
