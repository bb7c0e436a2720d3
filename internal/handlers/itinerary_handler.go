package handlers

import (
	"net/http"

	"triproom/internal/service"
)

// ItineraryHandler handles itinerary requests
type ItineraryHandler struct {
	itinerary *service.ItineraryService
}

// NewItineraryHandler creates a new itinerary handler
func NewItineraryHandler(itinerary *service.ItineraryService) *ItineraryHandler {
	return &ItineraryHandler{itinerary: itinerary}
}

type entryRequest struct {
	Day         string `json:"day"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

func (req entryRequest) input() service.EntryInput {
	return service.EntryInput{
		Day:         req.Day,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
}

// ListEntries returns a room's itinerary in day and start time order
func (h *ItineraryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.itinerary.ListEntries(r.Context(), roomID)
	if err != nil {
		respondWithServiceError(w, "Failed to list itinerary", err)
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(entries))
}

// AddEntry adds an itinerary entry to a room
func (h *ItineraryHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req entryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.itinerary.AddEntry(r.Context(), roomID, req.input())
	if err != nil {
		respondWithServiceError(w, "Failed to add itinerary entry", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, entry)
}

// EditEntry replaces an entry's fields
func (h *ItineraryHandler) EditEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req entryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.itinerary.EditEntry(r.Context(), id, req.input())
	if err != nil {
		respondWithServiceError(w, "Failed to edit itinerary entry", err)
		return
	}
	respondWithJSON(w, http.StatusOK, entry)
}

// DeleteEntry removes an entry. Unknown ids succeed.
func (h *ItineraryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.itinerary.DeleteEntry(r.Context(), id); err != nil {
		respondWithServiceError(w, "Failed to delete itinerary entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
