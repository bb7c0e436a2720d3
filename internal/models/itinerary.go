package models

import "time"

// ItineraryEntry is one scheduled item on a day of the trip.
// Day is YYYY-MM-DD; StartTime and EndTime are HH:MM or empty.
type ItineraryEntry struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"room_id"`
	Day         string    `json:"day"`
	Description string    `json:"description"`
	StartTime   string    `json:"start_time,omitempty"`
	EndTime     string    `json:"end_time,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
