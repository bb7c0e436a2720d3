package models

import "time"

// Room is a shared space for planning one trip. Members join it by Code.
type Room struct {
	ID          int64     `json:"id"`
	CreatorID   int64     `json:"creator_id"`
	Name        string    `json:"name"`
	Destination string    `json:"destination"`
	StartDate   string    `json:"start_date,omitempty"`
	EndDate     string    `json:"end_date,omitempty"`
	Budget      *Amount   `json:"budget,omitempty"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsCreator reports whether userID created the room.
func (r *Room) IsCreator(userID int64) bool {
	return r.CreatorID == userID
}

// RoomMember pairs a membership row with the member's public details.
type RoomMember struct {
	UserID   int64     `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// DeleteOutcome describes what DeleteRoom did for the acting user.
type DeleteOutcome string

const (
	// RoomDeleted means the creator removed the room and everything in it.
	RoomDeleted DeleteOutcome = "deleted"
	// RoomLeft means a non-creator only removed their own membership.
	RoomLeft DeleteOutcome = "left"
)
