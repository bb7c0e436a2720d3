package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"triproom/internal/service"
	"triproom/internal/validation"
)

// PollHandler handles poll requests
type PollHandler struct {
	polls   *service.PollService
	metrics *Metrics
}

// NewPollHandler creates a new poll handler
func NewPollHandler(polls *service.PollService, metrics *Metrics) *PollHandler {
	return &PollHandler{polls: polls, metrics: metrics}
}

// ListPolls returns a room's polls with their tallies, newest first
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	polls, err := h.polls.ListPolls(r.Context(), roomID)
	if err != nil {
		respondWithServiceError(w, "Failed to list polls", err)
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(polls))
}

// CreatePoll creates a poll with its options
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Options     []string `json:"options"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	poll, err := h.polls.CreatePoll(r.Context(), roomID, service.PollInput{
		Title:       req.Title,
		Description: req.Description,
		Options:     req.Options,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to create poll", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, poll)
}

// CastVote records one vote for the option at option_index
func (h *PollHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		OptionIndex json.RawMessage `json:"option_index"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	index, err := optionIndex(req.OptionIndex)
	if err != nil {
		respondWithServiceError(w, "Failed to cast vote", err)
		return
	}

	if err := h.polls.CastVote(r.Context(), pollID, index); err != nil {
		respondWithServiceError(w, "Failed to cast vote", err)
		return
	}
	h.metrics.voteCast()
	respondWithJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// ClosePoll stops a poll from accepting votes
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.polls.ClosePoll(r.Context(), pollID); err != nil {
		respondWithServiceError(w, "Failed to close poll", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// DeletePoll removes a poll with its options and votes. Unknown ids succeed.
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.polls.DeletePoll(r.Context(), pollID); err != nil {
		respondWithServiceError(w, "Failed to delete poll", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// optionIndex reads option_index as a whole number. A missing or null value
// is passed on as nil so the service reports it as required.
func optionIndex(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var index int
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, validation.ValidationError{Field: "option_index", Message: "option_index must be a whole number"}
	}
	return &index, nil
}
