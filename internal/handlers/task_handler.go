package handlers

import (
	"net/http"

	"triproom/internal/service"
)

// TaskHandler handles task board requests
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// ListTasks returns the room's tasks together with its members, who are
// the candidate assignees
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	board, err := h.tasks.ListTasks(r.Context(), roomID)
	if err != nil {
		respondWithServiceError(w, "Failed to list tasks", err)
		return
	}
	board.Tasks = nonNil(board.Tasks)
	board.Members = nonNil(board.Members)
	respondWithJSON(w, http.StatusOK, board)
}

// AddTask adds a task to a room
func (h *TaskHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Assignee    string `json:"assignee"`
		DueDate     string `json:"due_date"`
		Status      string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.tasks.AddTask(r.Context(), roomID, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		DueDate:     req.DueDate,
		Status:      req.Status,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to add task", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, task)
}

// SetStatus relabels a task
func (h *TaskHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.tasks.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		respondWithServiceError(w, "Failed to update task status", err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

// DeleteTask removes a task. Unknown ids succeed.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), id); err != nil {
		respondWithServiceError(w, "Failed to delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
