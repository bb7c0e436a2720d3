package models

import "time"

// Task statuses. Status is an open set; dashboard counts only look at
// TaskStatusPending.
const (
	TaskStatusPending = "pending"
	TaskStatusDone    = "done"
)

// Task is an item on a room's shared task board
type Task struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"room_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Assignee    string    `json:"assignee"`
	DueDate     string    `json:"due_date,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskBoard is a room's ordered tasks plus the members they can be assigned to.
type TaskBoard struct {
	Tasks   []Task       `json:"tasks"`
	Members []RoomMember `json:"members"`
}
