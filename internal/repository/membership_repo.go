package repository

import (
	"context"

	"triproom/internal/database"
	"triproom/internal/models"
)

// MembershipRepository handles the (room, user) membership pairs
type MembershipRepository struct {
	db *database.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *database.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Add inserts a membership. It reports false when the pair already exists,
// including when a concurrent insert won the unique constraint.
func (r *MembershipRepository) Add(ctx context.Context, roomID, userID int64) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO room_members (room_id, user_id, joined_at) VALUES (?, ?, ?)",
		roomID, userID, now())
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return false, nil
		}
		return false, storeError("add membership", err)
	}
	return true, nil
}

// IsMember reports whether userID belongs to roomID
func (r *MembershipRepository) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM room_members WHERE room_id = ? AND user_id = ?",
		roomID, userID).Scan(&count)
	if err != nil {
		return false, storeError("check membership", err)
	}
	return count > 0, nil
}

// Remove deletes the membership if present
func (r *MembershipRepository) Remove(ctx context.Context, roomID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM room_members WHERE room_id = ? AND user_id = ?",
		roomID, userID)
	if err != nil {
		return storeError("remove membership", err)
	}
	return nil
}

// RoomsForUser returns the rooms userID created together with the rooms
// they joined, each room once, newest first.
func (r *MembershipRepository) RoomsForUser(ctx context.Context, userID int64) ([]models.Room, error) {
	query := `
		SELECT ` + roomColumns + ` FROM rooms WHERE creator_id = ?
		UNION
		SELECT ` + roomColumns + ` FROM rooms WHERE id IN (SELECT room_id FROM room_members WHERE user_id = ?)
		ORDER BY created_at DESC, id DESC
	`
	return queryRooms(ctx, r.db, query, userID, userID)
}
