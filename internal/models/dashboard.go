package models

// DashboardSummary aggregates a user's rooms
type DashboardSummary struct {
	Rooms         []Room `json:"rooms"`
	PendingTasks  int    `json:"pending_tasks"`
	OpenPolls     int    `json:"open_polls"`
	TotalExpenses Amount `json:"total_expenses"`
}

// RoomTotals aggregates a single room
type RoomTotals struct {
	ItineraryCount int    `json:"itinerary_count"`
	PendingTasks   int    `json:"pending_tasks"`
	OpenPolls      int    `json:"open_polls"`
	TotalExpenses  Amount `json:"total_expenses"`
}
