package models

import "time"

// Expense is one entry in a room's shared ledger
type Expense struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"room_id"`
	Description string    `json:"description"`
	Amount      Amount    `json:"amount"`
	SpentOn     string    `json:"date"`
	Category    string    `json:"category"`
	PaidBy      string    `json:"paid_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
