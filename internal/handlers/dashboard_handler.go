package handlers

import (
	"net/http"

	"triproom/internal/service"
)

// DashboardHandler serves the aggregated views
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary returns the user's rooms with pending tasks, open polls and total
// spend across all of them
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	summary, err := h.dashboard.SummaryForUser(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Failed to build dashboard", err)
		return
	}
	summary.Rooms = nonNil(summary.Rooms)
	respondWithJSON(w, http.StatusOK, summary)
}

// RoomTotals returns the per-room counters
func (h *DashboardHandler) RoomTotals(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	totals, err := h.dashboard.TotalsForRoom(r.Context(), roomID)
	if err != nil {
		respondWithServiceError(w, "Failed to build room totals", err)
		return
	}
	respondWithJSON(w, http.StatusOK, totals)
}
