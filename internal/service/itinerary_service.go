package service

import (
	"context"
	"fmt"
	"strings"

	"triproom/internal/database"
	"triproom/internal/models"
	"triproom/internal/repository"
	"triproom/internal/validation"
)

// EntryInput carries the mutable fields of an itinerary entry
type EntryInput struct {
	Day         string
	Description string
	StartTime   string
	EndTime     string
}

func (in EntryInput) validate() (EntryInput, error) {
	in = EntryInput{
		Day:         strings.TrimSpace(in.Day),
		Description: strings.TrimSpace(in.Description),
		StartTime:   strings.TrimSpace(in.StartTime),
		EndTime:     strings.TrimSpace(in.EndTime),
	}
	if err := validation.Required("day", in.Day); err != nil {
		return in, err
	}
	if err := validation.ValidateDate("day", in.Day); err != nil {
		return in, err
	}
	if err := validation.Required("description", in.Description); err != nil {
		return in, err
	}
	if in.StartTime != "" {
		if err := validation.ValidateTimeOfDay("start_time", in.StartTime); err != nil {
			return in, err
		}
	}
	if in.EndTime != "" {
		if err := validation.ValidateTimeOfDay("end_time", in.EndTime); err != nil {
			return in, err
		}
	}
	// HH:MM strings order the same way as the times they name.
	if in.StartTime != "" && in.EndTime != "" && in.EndTime < in.StartTime {
		return in, validation.ValidationError{Field: "end_time", Message: "end_time must not be before start_time"}
	}
	return in, nil
}

// ItineraryService manages a room's day-by-day schedule
type ItineraryService struct {
	rooms         *RoomService
	itineraryRepo *repository.ItineraryRepository
}

// NewItineraryService creates a new itinerary service
func NewItineraryService(rooms *RoomService, itineraryRepo *repository.ItineraryRepository) *ItineraryService {
	return &ItineraryService{rooms: rooms, itineraryRepo: itineraryRepo}
}

// AddEntry adds an entry to the room's itinerary
func (s *ItineraryService) AddEntry(ctx context.Context, roomID int64, in EntryInput) (*models.ItineraryEntry, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetRoomByID(ctx, roomID); err != nil {
		return nil, err
	}

	entry := &models.ItineraryEntry{
		RoomID:      roomID,
		Day:         in.Day,
		Description: in.Description,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
	}
	if err := s.itineraryRepo.CreateEntry(ctx, entry); err != nil {
		return nil, insertFailed("failed to add itinerary entry", err, ErrRoomNotFound)
	}
	return entry, nil
}

// ListEntries returns the room's itinerary ordered by day and start time
func (s *ItineraryService) ListEntries(ctx context.Context, roomID int64) ([]models.ItineraryEntry, error) {
	if _, err := s.rooms.GetRoomByID(ctx, roomID); err != nil {
		return nil, err
	}
	entries, err := s.itineraryRepo.ListEntries(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list itinerary: %w", err)
	}
	return entries, nil
}

// EditEntry replaces every mutable field of the entry
func (s *ItineraryService) EditEntry(ctx context.Context, id int64, in EntryInput) (*models.ItineraryEntry, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}

	entry := &models.ItineraryEntry{
		ID:          id,
		Day:         in.Day,
		Description: in.Description,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
	}
	found, err := s.itineraryRepo.UpdateEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to edit itinerary entry: %w", err)
	}
	if !found {
		return nil, ErrEntryNotFound
	}

	updated, err := s.itineraryRepo.GetEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload itinerary entry: %w", err)
	}
	if updated == nil {
		return nil, ErrEntryNotFound
	}
	return updated, nil
}

// DeleteEntry removes an entry. Deleting a missing entry succeeds.
func (s *ItineraryService) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.itineraryRepo.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("failed to delete itinerary entry: %w", err)
	}
	return nil
}

// CountEntries counts itinerary entries across rooms
func (s *ItineraryService) CountEntries(ctx context.Context, rooms database.RoomIDSet) (int, error) {
	return s.itineraryRepo.CountEntries(ctx, rooms)
}
