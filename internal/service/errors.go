package service

import (
	"errors"
	"fmt"

	"triproom/internal/repository"
)

// ErrNotFound is wrapped by every "no such entity" error so callers can
// tell unknown ids apart from bad input with a single errors.Is.
var ErrNotFound = errors.New("not found")

var (
	ErrRoomNotFound  = fmt.Errorf("room %w", ErrNotFound)
	ErrEntryNotFound = fmt.Errorf("itinerary entry %w", ErrNotFound)
	ErrTaskNotFound  = fmt.Errorf("task %w", ErrNotFound)
	ErrPollNotFound  = fmt.Errorf("poll %w", ErrNotFound)
	ErrUserNotFound  = fmt.Errorf("user %w", ErrNotFound)

	// ErrCodeSpaceExhausted means every room code attempt collided. With
	// 36^6 codes this points at a broken generator rather than bad luck.
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique room code")
)

// insertFailed reports an insert whose room or poll was deleted after it
// was looked up as notFound. Other errors are wrapped with msg.
func insertFailed(msg string, err, notFound error) error {
	if errors.Is(err, repository.ErrParentMissing) {
		return notFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
