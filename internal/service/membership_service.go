package service

import (
	"context"
	"fmt"
	"log/slog"

	"triproom/internal/models"
	"triproom/internal/repository"
)

// MembershipService handles joining and leaving rooms
type MembershipService struct {
	rooms          *RoomService
	membershipRepo *repository.MembershipRepository
}

// NewMembershipService creates a new membership service
func NewMembershipService(rooms *RoomService, membershipRepo *repository.MembershipRepository) *MembershipService {
	return &MembershipService{rooms: rooms, membershipRepo: membershipRepo}
}

// Join adds userID to the room. It reports false when the user was already
// a member; a concurrent duplicate join also reports false.
func (s *MembershipService) Join(ctx context.Context, userID, roomID int64) (bool, error) {
	if _, err := s.rooms.GetRoomByID(ctx, roomID); err != nil {
		return false, err
	}

	isMember, err := s.membershipRepo.IsMember(ctx, roomID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return false, nil
	}

	joined, err := s.membershipRepo.Add(ctx, roomID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to join room: %w", err)
	}
	if joined {
		slog.Info("User joined room", "room_id", roomID, "user_id", userID)
	}
	return joined, nil
}

// JoinByCode resolves a room code and joins it
func (s *MembershipService) JoinByCode(ctx context.Context, userID int64, code string) (*models.Room, bool, error) {
	room, err := s.rooms.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, false, err
	}
	joined, err := s.Join(ctx, userID, room.ID)
	if err != nil {
		return nil, false, err
	}
	return room, joined, nil
}

// RoomsForUser returns every room the user created or joined, once each
func (s *MembershipService) RoomsForUser(ctx context.Context, userID int64) ([]models.Room, error) {
	rooms, err := s.membershipRepo.RoomsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms for user: %w", err)
	}
	return rooms, nil
}

// Leave removes the user's membership. Leaving a room twice is fine.
func (s *MembershipService) Leave(ctx context.Context, userID, roomID int64) error {
	if err := s.membershipRepo.Remove(ctx, roomID, userID); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	return nil
}
