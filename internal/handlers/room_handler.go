package handlers

import (
	"net/http"
	"strings"

	"triproom/internal/models"
	"triproom/internal/service"
	"triproom/internal/validation"
)

// RoomHandler handles room and membership requests
type RoomHandler struct {
	rooms      *service.RoomService
	membership *service.MembershipService
	email      *service.EmailService
	metrics    *Metrics
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *service.RoomService, membership *service.MembershipService, email *service.EmailService, metrics *Metrics) *RoomHandler {
	return &RoomHandler{
		rooms:      rooms,
		membership: membership,
		email:      email,
		metrics:    metrics,
	}
}

type roomRequest struct {
	Name        string        `json:"name"`
	Destination string        `json:"destination"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	Budget      decimalString `json:"budget"`
	Description string        `json:"description"`
}

// ListRooms returns the rooms the user created or joined, newest first
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	rooms, err := h.membership.RoomsForUser(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Failed to list rooms", err)
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(rooms))
}

// CreateRoom creates a room with the user as creator and first member
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req roomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	room, err := h.rooms.CreateRoom(r.Context(), user.ID, service.RoomInput{
		Name:        req.Name,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      string(req.Budget),
		Description: req.Description,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to create room", err)
		return
	}

	h.metrics.roomCreated()
	respondWithJSON(w, http.StatusCreated, room)
}

// JoinRoom adds the user to the room addressed by a code. Joining twice
// succeeds with joined=false.
func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	room, joined, err := h.membership.JoinByCode(r.Context(), user.ID, req.Code)
	if err != nil {
		respondWithServiceError(w, "Failed to join room", err)
		return
	}
	respondWithJSON(w, http.StatusOK, struct {
		Room   *models.Room `json:"room"`
		Joined bool         `json:"joined"`
	}{room, joined})
}

// GetRoomByCode looks a room up by its share code
func (h *RoomHandler) GetRoomByCode(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.GetRoomByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		respondWithServiceError(w, "Failed to get room", err)
		return
	}
	respondWithJSON(w, http.StatusOK, room)
}

// GetRoom returns a room with its members
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	room, err := h.rooms.GetRoomByID(r.Context(), roomID)
	if err != nil {
		respondWithServiceError(w, "Failed to get room", err)
		return
	}
	members, err := h.rooms.RoomMembers(r.Context(), roomID)
	if err != nil {
		respondWithServiceError(w, "Failed to list room members", err)
		return
	}

	respondWithJSON(w, http.StatusOK, struct {
		*models.Room
		Members []models.RoomMember `json:"members"`
	}{room, nonNil(members)})
}

// DeleteRoom deletes the room for its creator and leaves it for anyone else
func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	outcome, err := h.rooms.DeleteRoom(r.Context(), user.ID, r.PathValue("code"))
	if err != nil {
		respondWithServiceError(w, "Failed to delete room", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]models.DeleteOutcome{"outcome": outcome})
}

// LeaveRoom removes the user's membership
func (h *RoomHandler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.membership.Leave(r.Context(), user.ID, roomID); err != nil {
		respondWithServiceError(w, "Failed to leave room", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]models.DeleteOutcome{"outcome": models.RoomLeft})
}

// InviteToRoom emails the room code and join link to an address
func (h *RoomHandler) InviteToRoom(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.ValidateEmail(req.Email); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	room, err := h.rooms.GetRoomByID(r.Context(), roomID)
	if err != nil {
		respondWithServiceError(w, "Failed to get room", err)
		return
	}

	if err := h.email.SendRoomInvite(r.Context(), req.Email, user.Name, room); err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to send invitation", "Room invite failed", err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, struct {
		Sent     bool   `json:"sent"`
		JoinLink string `json:"join_link"`
	}{h.email.IsEnabled(), h.email.JoinLink(room.Code)})
}
