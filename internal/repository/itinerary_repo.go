package repository

import (
	"context"
	"database/sql"
	"errors"

	"triproom/internal/database"
	"triproom/internal/models"
)

// ItineraryRepository handles itinerary entries
type ItineraryRepository struct {
	db *database.DB
}

// NewItineraryRepository creates a new itinerary repository
func NewItineraryRepository(db *database.DB) *ItineraryRepository {
	return &ItineraryRepository{db: db}
}

const entryColumns = `id, room_id, day, description, COALESCE(start_time, ''), COALESCE(end_time, ''), created_at`

func scanEntry(row rowScanner) (*models.ItineraryEntry, error) {
	e := &models.ItineraryEntry{}
	if err := row.Scan(&e.ID, &e.RoomID, &e.Day, &e.Description, &e.StartTime, &e.EndTime, &e.CreatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEntry inserts entry and fills in its ID and CreatedAt
func (r *ItineraryRepository) CreateEntry(ctx context.Context, entry *models.ItineraryEntry) error {
	ts := now()
	query := `
		INSERT INTO itinerary_entries (room_id, day, description, start_time, end_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		entry.RoomID, entry.Day, entry.Description,
		nullString(entry.StartTime), nullString(entry.EndTime), ts)
	if err != nil {
		return insertError(r.db, "create itinerary entry", err)
	}
	entry.ID = id
	entry.CreatedAt = ts
	return nil
}

// GetEntry retrieves an entry by ID
func (r *ItineraryRepository) GetEntry(ctx context.Context, id int64) (*models.ItineraryEntry, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM itinerary_entries WHERE id = ?", id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get itinerary entry", err)
	}
	return entry, nil
}

// ListEntries returns the room's entries by day then start time. Entries
// without a start time sort first within their day; ties keep insertion
// order.
func (r *ItineraryRepository) ListEntries(ctx context.Context, roomID int64) ([]models.ItineraryEntry, error) {
	query := "SELECT " + entryColumns + ` FROM itinerary_entries
		WHERE room_id = ?
		ORDER BY day, COALESCE(start_time, ''), id`
	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, storeError("query itinerary", err)
	}
	defer rows.Close()

	entries := []models.ItineraryEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, storeError("scan itinerary entry", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate itinerary", err)
	}
	return entries, nil
}

// UpdateEntry replaces the mutable fields of entry. It reports false when no
// entry has that ID.
func (r *ItineraryRepository) UpdateEntry(ctx context.Context, entry *models.ItineraryEntry) (bool, error) {
	query := `
		UPDATE itinerary_entries
		SET day = ?, description = ?, start_time = ?, end_time = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		entry.Day, entry.Description, nullString(entry.StartTime), nullString(entry.EndTime), entry.ID)
	if err != nil {
		return false, storeError("update itinerary entry", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, storeError("read update result", err)
	}
	return n > 0, nil
}

// DeleteEntry removes an entry; a missing entry is not an error
func (r *ItineraryRepository) DeleteEntry(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM itinerary_entries WHERE id = ?", id); err != nil {
		return storeError("delete itinerary entry", err)
	}
	return nil
}

// CountEntries counts itinerary entries across rooms
func (r *ItineraryRepository) CountEntries(ctx context.Context, rooms database.RoomIDSet) (int, error) {
	return countIn(ctx, r.db, "itinerary_entries", "", rooms)
}

// countIn runs SELECT COUNT(*) over table restricted to rooms plus an
// optional extra predicate with one bound argument.
func countIn(ctx context.Context, db database.DBTX, table, predicate string, rooms database.RoomIDSet, extra ...any) (int, error) {
	in, args, err := rooms.InClause("room_id")
	if err != nil {
		return 0, err
	}
	query := "SELECT COUNT(*) FROM " + table + " WHERE " + in
	if predicate != "" {
		query += " AND " + predicate
		args = append(args, extra...)
	}

	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, storeError("count "+table, err)
	}
	return count, nil
}
