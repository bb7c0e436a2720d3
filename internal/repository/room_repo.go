package repository

import (
	"context"
	"database/sql"
	"errors"

	"triproom/internal/database"
	"triproom/internal/models"
)

// RoomRepository handles rooms and the rows scoped to them
type RoomRepository struct {
	db *database.DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, creator_id, name, destination, COALESCE(start_date, ''), COALESCE(end_date, ''),
	budget_cents, description, code, created_at`

func scanRoom(row rowScanner) (*models.Room, error) {
	room := &models.Room{}
	var budget sql.NullInt64
	err := row.Scan(
		&room.ID,
		&room.CreatorID,
		&room.Name,
		&room.Destination,
		&room.StartDate,
		&room.EndDate,
		&budget,
		&room.Description,
		&room.Code,
		&room.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	room.Budget = amountPtr(budget)
	return room, nil
}

// CreateRoomWithCreator inserts room and the creator's membership in one
// transaction. room.ID and room.CreatedAt are filled in on success.
// ErrCodeTaken is returned when room.Code is already in use; nothing is
// written in that case.
func (r *RoomRepository) CreateRoomWithCreator(ctx context.Context, room *models.Room) error {
	ts := now()
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := `
			INSERT INTO rooms (creator_id, name, destination, start_date, end_date, budget_cents, description, code, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		id, err := tx.ExecReturningID(ctx, query,
			room.CreatorID, room.Name, room.Destination,
			nullString(room.StartDate), nullString(room.EndDate),
			nullAmount(room.Budget), room.Description, room.Code, ts)
		if err != nil {
			if tx.IsUniqueViolation(err) {
				return ErrCodeTaken
			}
			return storeError("create room", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO room_members (room_id, user_id, joined_at) VALUES (?, ?, ?)",
			id, room.CreatorID, ts)
		if err != nil {
			return storeError("add creator membership", err)
		}

		room.ID = id
		room.CreatedAt = ts
		return nil
	})
}

// GetRoomByCode retrieves a room by its join code
func (r *RoomRepository) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+roomColumns+" FROM rooms WHERE code = ?", code)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get room by code", err)
	}
	return room, nil
}

// GetRoomByID retrieves a room by ID
func (r *RoomRepository) GetRoomByID(ctx context.Context, id int64) (*models.Room, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+roomColumns+" FROM rooms WHERE id = ?", id)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get room", err)
	}
	return room, nil
}

// DeleteRoomCascade removes the room and every row scoped to it. Children go
// first so no foreign key is ever left dangling; any failure rolls the whole
// delete back.
func (r *RoomRepository) DeleteRoomCascade(ctx context.Context, roomID int64) error {
	steps := []struct {
		op    string
		query string
	}{
		{"delete poll votes", "DELETE FROM poll_votes WHERE poll_id IN (SELECT id FROM polls WHERE room_id = ?)"},
		{"delete poll options", "DELETE FROM poll_options WHERE poll_id IN (SELECT id FROM polls WHERE room_id = ?)"},
		{"delete polls", "DELETE FROM polls WHERE room_id = ?"},
		{"delete expenses", "DELETE FROM expenses WHERE room_id = ?"},
		{"delete tasks", "DELETE FROM tasks WHERE room_id = ?"},
		{"delete itinerary", "DELETE FROM itinerary_entries WHERE room_id = ?"},
		{"delete memberships", "DELETE FROM room_members WHERE room_id = ?"},
		{"delete room", "DELETE FROM rooms WHERE id = ?"},
	}

	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, roomID); err != nil {
				return storeError(step.op, err)
			}
		}
		return nil
	})
}

// Members returns the room's members in join order
func (r *RoomRepository) Members(ctx context.Context, roomID int64) ([]models.RoomMember, error) {
	query := `
		SELECT u.id, u.name, u.email, m.joined_at
		FROM room_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = ?
		ORDER BY m.joined_at, m.id
	`
	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, storeError("query room members", err)
	}
	defer rows.Close()

	members := []models.RoomMember{}
	for rows.Next() {
		var m models.RoomMember
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.JoinedAt); err != nil {
			return nil, storeError("scan room member", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate room members", err)
	}
	return members, nil
}

func queryRooms(ctx context.Context, db database.DBTX, query string, args ...any) ([]models.Room, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("query rooms", err)
	}
	defer rows.Close()

	rooms := []models.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, storeError("scan room", err)
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate rooms", err)
	}
	return rooms, nil
}
