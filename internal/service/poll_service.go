package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"triproom/internal/database"
	"triproom/internal/models"
	"triproom/internal/repository"
	"triproom/internal/validation"
)

// PollInput carries the fields of a new poll
type PollInput struct {
	Title       string
	Description string
	Options     []string
}

// PollService manages room polls and their vote log
type PollService struct {
	rooms    *RoomService
	pollRepo *repository.PollRepository
}

// NewPollService creates a new poll service
func NewPollService(rooms *RoomService, pollRepo *repository.PollRepository) *PollService {
	return &PollService{rooms: rooms, pollRepo: pollRepo}
}

// CreatePoll opens a poll. Options are trimmed and blank ones dropped; at
// least one must remain. The option list cannot change afterwards.
func (s *PollService) CreatePoll(ctx context.Context, roomID int64, in PollInput) (*models.Poll, error) {
	poll := &models.Poll{
		RoomID:      roomID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Options:     validation.CleanOptions(in.Options),
		Status:      models.PollStatusOpen,
	}
	if err := validation.Required("title", poll.Title); err != nil {
		return nil, err
	}
	if len(poll.Options) == 0 {
		return nil, validation.ValidationError{Field: "options", Message: "at least one option is required"}
	}
	if _, err := s.rooms.GetRoomByID(ctx, roomID); err != nil {
		return nil, err
	}

	if err := s.pollRepo.CreatePoll(ctx, poll); err != nil {
		return nil, insertFailed("failed to create poll", err, ErrRoomNotFound)
	}
	return poll, nil
}

// ListPolls returns the room's polls with tallies, newest first
func (s *PollService) ListPolls(ctx context.Context, roomID int64) ([]models.PollWithTally, error) {
	if _, err := s.rooms.GetRoomByID(ctx, roomID); err != nil {
		return nil, err
	}
	polls, err := s.pollRepo.ListPolls(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	return polls, nil
}

// CastVote appends one vote for the option at index. Voters are not
// deduplicated.
func (s *PollService) CastVote(ctx context.Context, pollID int64, index *int) error {
	if index == nil {
		return validation.ValidationError{Field: "option_index", Message: "option_index is required"}
	}

	poll, err := s.getPoll(ctx, pollID)
	if err != nil {
		return err
	}
	if !poll.ValidOption(*index) {
		return validation.ValidationError{
			Field:   "option_index",
			Message: fmt.Sprintf("option_index must be between 0 and %d", len(poll.Options)-1),
		}
	}
	if !poll.IsOpen() {
		return validation.ValidationError{Field: "status", Message: "poll is closed"}
	}

	if err := s.pollRepo.AddVote(ctx, pollID, *index); err != nil {
		return insertFailed("failed to cast vote", err, ErrPollNotFound)
	}
	return nil
}

// ClosePoll stops a poll from accepting votes
func (s *PollService) ClosePoll(ctx context.Context, pollID int64) error {
	found, err := s.pollRepo.UpdateStatus(ctx, pollID, models.PollStatusClosed)
	if err != nil {
		return fmt.Errorf("failed to close poll: %w", err)
	}
	if !found {
		return ErrPollNotFound
	}
	slog.Info("Poll closed", "poll_id", pollID)
	return nil
}

// DeletePoll removes a poll and all of its votes atomically. Deleting a
// missing poll succeeds.
func (s *PollService) DeletePoll(ctx context.Context, pollID int64) error {
	if err := s.pollRepo.DeletePoll(ctx, pollID); err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	return nil
}

// CountOpen counts open polls across rooms
func (s *PollService) CountOpen(ctx context.Context, rooms database.RoomIDSet) (int, error) {
	return s.pollRepo.CountOpen(ctx, rooms)
}

func (s *PollService) getPoll(ctx context.Context, pollID int64) (*models.Poll, error) {
	poll, err := s.pollRepo.GetPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	if poll == nil {
		return nil, ErrPollNotFound
	}
	return poll, nil
}
