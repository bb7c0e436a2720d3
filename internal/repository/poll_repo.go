package repository

import (
	"context"
	"database/sql"
	"errors"

	"triproom/internal/database"
	"triproom/internal/models"
)

// PollRepository handles polls, their options and the vote log
type PollRepository struct {
	db *database.DB
}

// NewPollRepository creates a new poll repository
func NewPollRepository(db *database.DB) *PollRepository {
	return &PollRepository{db: db}
}

const pollColumns = `id, room_id, title, description, status, created_at`

func scanPoll(row rowScanner) (*models.Poll, error) {
	p := &models.Poll{}
	if err := row.Scan(&p.ID, &p.RoomID, &p.Title, &p.Description, &p.Status, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePoll inserts the poll and its options in one transaction. Options
// are stored at positions 0..n-1 in the order given.
func (r *PollRepository) CreatePoll(ctx context.Context, poll *models.Poll) error {
	ts := now()
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := `
			INSERT INTO polls (room_id, title, description, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`
		id, err := tx.ExecReturningID(ctx, query, poll.RoomID, poll.Title, poll.Description, poll.Status, ts)
		if err != nil {
			return insertError(tx, "create poll", err)
		}

		for pos, label := range poll.Options {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO poll_options (poll_id, position, label) VALUES (?, ?, ?)",
				id, pos, label)
			if err != nil {
				return storeError("create poll option", err)
			}
		}

		poll.ID = id
		poll.CreatedAt = ts
		return nil
	})
}

// GetPoll retrieves a poll with its options
func (r *PollRepository) GetPoll(ctx context.Context, id int64) (*models.Poll, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+pollColumns+" FROM polls WHERE id = ?", id)
	poll, err := scanPoll(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get poll", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT label FROM poll_options WHERE poll_id = ? ORDER BY position", id)
	if err != nil {
		return nil, storeError("query poll options", err)
	}
	defer rows.Close()

	poll.Options = []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, storeError("scan poll option", err)
		}
		poll.Options = append(poll.Options, label)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate poll options", err)
	}
	return poll, nil
}

// ListPolls returns the room's polls, newest first, each with a tally as
// long as its option list.
func (r *PollRepository) ListPolls(ctx context.Context, roomID int64) ([]models.PollWithTally, error) {
	polls, err := r.queryPolls(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(polls) == 0 {
		return []models.PollWithTally{}, nil
	}

	byID := make(map[int64]*models.Poll, len(polls))
	for i := range polls {
		polls[i].Options = []string{}
		byID[polls[i].ID] = &polls[i]
	}

	optionQuery := `
		SELECT o.poll_id, o.label
		FROM poll_options o
		JOIN polls p ON p.id = o.poll_id
		WHERE p.room_id = ?
		ORDER BY o.poll_id, o.position
	`
	rows, err := r.db.QueryContext(ctx, optionQuery, roomID)
	if err != nil {
		return nil, storeError("query poll options", err)
	}
	for rows.Next() {
		var pollID int64
		var label string
		if err := rows.Scan(&pollID, &label); err != nil {
			rows.Close()
			return nil, storeError("scan poll option", err)
		}
		if p, ok := byID[pollID]; ok {
			p.Options = append(p.Options, label)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate poll options", err)
	}

	counts, err := r.voteCounts(ctx, roomID)
	if err != nil {
		return nil, err
	}

	result := make([]models.PollWithTally, 0, len(polls))
	for _, p := range polls {
		result = append(result, models.NewTally(p, counts[p.ID]))
	}
	return result, nil
}

func (r *PollRepository) queryPolls(ctx context.Context, roomID int64) ([]models.Poll, error) {
	query := "SELECT " + pollColumns + " FROM polls WHERE room_id = ? ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, storeError("query polls", err)
	}
	defer rows.Close()

	var polls []models.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, storeError("scan poll", err)
		}
		polls = append(polls, *poll)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate polls", err)
	}
	return polls, nil
}

// voteCounts groups the room's vote log by poll and option position.
func (r *PollRepository) voteCounts(ctx context.Context, roomID int64) (map[int64]map[int]int, error) {
	query := `
		SELECT v.poll_id, v.option_position, COUNT(*)
		FROM poll_votes v
		JOIN polls p ON p.id = v.poll_id
		WHERE p.room_id = ?
		GROUP BY v.poll_id, v.option_position
	`
	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, storeError("count votes", err)
	}
	defer rows.Close()

	counts := make(map[int64]map[int]int)
	for rows.Next() {
		var pollID int64
		var pos, n int
		if err := rows.Scan(&pollID, &pos, &n); err != nil {
			return nil, storeError("scan vote count", err)
		}
		if counts[pollID] == nil {
			counts[pollID] = make(map[int]int)
		}
		counts[pollID][pos] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate vote counts", err)
	}
	return counts, nil
}

// AddVote appends one vote for the option at position
func (r *PollRepository) AddVote(ctx context.Context, pollID int64, position int) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO poll_votes (poll_id, option_position, created_at) VALUES (?, ?, ?)",
		pollID, position, now())
	if err != nil {
		return insertError(r.db, "add vote", err)
	}
	return nil
}

// CountVotes returns the number of votes recorded for a poll
func (r *PollRepository) CountVotes(ctx context.Context, pollID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM poll_votes WHERE poll_id = ?", pollID).Scan(&n); err != nil {
		return 0, storeError("count votes", err)
	}
	return n, nil
}

// UpdateStatus sets a poll's status. It reports false when no poll has id.
func (r *PollRepository) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE polls SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return false, storeError("update poll status", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, storeError("read update result", err)
	}
	return n > 0, nil
}

// DeletePoll removes the poll's votes, options and the poll itself in one
// transaction. A missing poll is not an error.
func (r *PollRepository) DeletePoll(ctx context.Context, id int64) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM poll_votes WHERE poll_id = ?", id); err != nil {
			return storeError("delete poll votes", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM poll_options WHERE poll_id = ?", id); err != nil {
			return storeError("delete poll options", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM polls WHERE id = ?", id); err != nil {
			return storeError("delete poll", err)
		}
		return nil
	})
}

// CountOpen counts polls still accepting votes across rooms
func (r *PollRepository) CountOpen(ctx context.Context, rooms database.RoomIDSet) (int, error) {
	return countIn(ctx, r.db, "polls", "status = ?", rooms, models.PollStatusOpen)
}
