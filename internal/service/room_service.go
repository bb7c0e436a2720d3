package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"triproom/internal/credentials"
	"triproom/internal/models"
	"triproom/internal/repository"
	"triproom/internal/validation"
)

const maxCodeAttempts = 10

// RoomInput carries the caller-supplied fields of a new room. Budget is a
// decimal string; empty means no budget.
type RoomInput struct {
	Name        string
	Destination string
	StartDate   string
	EndDate     string
	Budget      string
	Description string
}

// RoomService creates, looks up and removes rooms
type RoomService struct {
	roomRepo       *repository.RoomRepository
	membershipRepo *repository.MembershipRepository
	generateCode   func() (string, error)
}

// NewRoomService creates a new room service
func NewRoomService(roomRepo *repository.RoomRepository, membershipRepo *repository.MembershipRepository) *RoomService {
	return &RoomService{
		roomRepo:       roomRepo,
		membershipRepo: membershipRepo,
		generateCode:   credentials.GenerateRoomCode,
	}
}

// CreateRoom validates input and stores the room together with the
// creator's membership. A code collision regenerates the code and retries.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID int64, in RoomInput) (*models.Room, error) {
	room, err := buildRoom(creatorID, in)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}
		room.Code = code

		err = s.roomRepo.CreateRoomWithCreator(ctx, room)
		if errors.Is(err, repository.ErrCodeTaken) {
			slog.Debug("Room code collision, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		slog.Info("Room created", "room_id", room.ID, "code", room.Code, "creator_id", creatorID)
		return room, nil
	}

	return nil, ErrCodeSpaceExhausted
}

func buildRoom(creatorID int64, in RoomInput) (*models.Room, error) {
	room := &models.Room{
		CreatorID:   creatorID,
		Name:        strings.TrimSpace(in.Name),
		Destination: strings.TrimSpace(in.Destination),
		StartDate:   strings.TrimSpace(in.StartDate),
		EndDate:     strings.TrimSpace(in.EndDate),
		Description: strings.TrimSpace(in.Description),
	}

	if err := validation.Required("name", room.Name); err != nil {
		return nil, err
	}
	if err := validation.Required("destination", room.Destination); err != nil {
		return nil, err
	}
	if room.StartDate != "" {
		if err := validation.ValidateDate("start_date", room.StartDate); err != nil {
			return nil, err
		}
	}
	if room.EndDate != "" {
		if err := validation.ValidateDate("end_date", room.EndDate); err != nil {
			return nil, err
		}
	}
	// ISO dates compare correctly as strings.
	if room.StartDate != "" && room.EndDate != "" && room.EndDate < room.StartDate {
		return nil, validation.ValidationError{Field: "end_date", Message: "end date must not be before start date"}
	}
	if strings.TrimSpace(in.Budget) != "" {
		budget, err := validation.ParseAmount("budget", in.Budget)
		if err != nil {
			return nil, err
		}
		room.Budget = &budget
	}
	return room, nil
}

// GetRoomByCode looks a room up by its join code. Codes are matched
// case-insensitively.
func (s *RoomService) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	code = validation.NormalizeRoomCode(code)
	if validation.ValidateRoomCode(code) != nil {
		return nil, ErrRoomNotFound
	}

	room, err := s.roomRepo.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// GetRoomByID retrieves a room by ID
func (s *RoomService) GetRoomByID(ctx context.Context, id int64) (*models.Room, error) {
	room, err := s.roomRepo.GetRoomByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// DeleteRoom removes the room when actorID created it. For anyone else it
// only removes their own membership and reports RoomLeft.
func (s *RoomService) DeleteRoom(ctx context.Context, actorID int64, code string) (models.DeleteOutcome, error) {
	room, err := s.GetRoomByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if !room.IsCreator(actorID) {
		if err := s.membershipRepo.Remove(ctx, room.ID, actorID); err != nil {
			return "", fmt.Errorf("failed to leave room: %w", err)
		}
		slog.Info("Member left room", "room_id", room.ID, "user_id", actorID)
		return models.RoomLeft, nil
	}

	if err := s.roomRepo.DeleteRoomCascade(ctx, room.ID); err != nil {
		return "", fmt.Errorf("failed to delete room: %w", err)
	}
	slog.Info("Room deleted", "room_id", room.ID, "code", room.Code)
	return models.RoomDeleted, nil
}

// RoomMembers returns the members of a room in join order
func (s *RoomService) RoomMembers(ctx context.Context, roomID int64) ([]models.RoomMember, error) {
	if _, err := s.GetRoomByID(ctx, roomID); err != nil {
		return nil, err
	}
	members, err := s.roomRepo.Members(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room members: %w", err)
	}
	return members, nil
}
