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

type TaskHandler struct {
	repo *repository.TaskRepo
}

func NewTaskHandler(repo *repository.TaskRepo) *TaskHandler {
	return &TaskHandler{repo: repo}
}

type taskRequest struct {
	CourseID    *uuid.UUID `json:"course_id"`
	ExamID      *uuid.UUID `json:"exam_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"title": "Task title is required"}, r))
		return
	}

	task := &models.Task{
		WorkspaceID: workspaceID,
		CourseID:    req.CourseID,
		ExamID:      req.ExamID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		DueAt:       req.DueAt,
	}

	if err := h.repo.Create(r.Context(), task); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create task", r))
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	status := r.URL.Query().Get("status")
	if status != "" && status != models.TaskOpen && status != models.TaskDone {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "status must be 'open' or 'done'", r))
		return
	}

	tasks, err := h.repo.ListByWorkspace(r.Context(), workspaceID, status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	task, err := h.repo.GetByID(r.Context(), workspaceID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	task, err := h.repo.GetByID(r.Context(), workspaceID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"title": "Task title is required"}, r))
		return
	}

	task.CourseID = req.CourseID
	task.ExamID = req.ExamID
	task.Title = strings.TrimSpace(req.Title)
	task.Description = req.Description
	task.DueAt = req.DueAt

	if err := h.repo.Update(r.Context(), task); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update task", r))
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Status != models.TaskOpen && req.Status != models.TaskDone {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"status": "Status must be 'open' or 'done'"}, r))
		return
	}

	if _, err := h.repo.GetByID(r.Context(), workspaceID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.repo.SetStatus(r.Context(), workspaceID, id, req.Status); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update task status", r))
		return
	}

	task, err := h.repo.GetByID(r.Context(), workspaceID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	if err := h.repo.Delete(r.Context(), workspaceID, id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete task", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}
