package service

import (
	"context"
	"fmt"
	"strings"

	"triproom/internal/database"
	"triproom/internal/models"
	"triproom/internal/repository"
	"triproom/internal/validation"
)

// TaskInput carries the fields of a new task. Status defaults to pending.
type TaskInput struct {
	Title       string
	Description string
	Assignee    string
	DueDate     string
	Status      string
}

// TaskService manages a room's shared task board
type TaskService struct {
	rooms    *RoomService
	taskRepo *repository.TaskRepository
}

// NewTaskService creates a new task service
func NewTaskService(rooms *RoomService, taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{rooms: rooms, taskRepo: taskRepo}
}

// AddTask adds a task to the room's board
func (s *TaskService) AddTask(ctx context.Context, roomID int64, in TaskInput) (*models.Task, error) {
	task := &models.Task{
		RoomID:      roomID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Assignee:    strings.TrimSpace(in.Assignee),
		DueDate:     strings.TrimSpace(in.DueDate),
		Status:      strings.TrimSpace(in.Status),
	}
	if err := validation.Required("title", task.Title); err != nil {
		return nil, err
	}
	if task.DueDate != "" {
		if err := validation.ValidateDate("due_date", task.DueDate); err != nil {
			return nil, err
		}
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if _, err := s.rooms.GetRoomByID(ctx, roomID); err != nil {
		return nil, err
	}

	if err := s.taskRepo.CreateTask(ctx, task); err != nil {
		return nil, insertFailed("failed to add task", err, ErrRoomNotFound)
	}
	return task, nil
}

// ListTasks returns the room's ordered tasks and its members, who are the
// candidates for assignment.
func (s *TaskService) ListTasks(ctx context.Context, roomID int64) (*models.TaskBoard, error) {
	members, err := s.rooms.RoomMembers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListTasks(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return &models.TaskBoard{Tasks: tasks, Members: members}, nil
}

// SetStatus changes a task's status to any non-blank label
func (s *TaskService) SetStatus(ctx context.Context, id int64, status string) (*models.Task, error) {
	status = strings.TrimSpace(status)
	if err := validation.Required("status", status); err != nil {
		return nil, err
	}

	found, err := s.taskRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if !found {
		return nil, ErrTaskNotFound
	}

	task, err := s.taskRepo.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// DeleteTask removes a task. Deleting a missing task succeeds.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.taskRepo.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// CountPending counts pending tasks across rooms
func (s *TaskService) CountPending(ctx context.Context, rooms database.RoomIDSet) (int, error) {
	return s.taskRepo.CountPending(ctx, rooms)
}
