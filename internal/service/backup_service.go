package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"triproom/internal/database"
	"triproom/internal/models"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string                  `json:"version"`
	ExportedAt time.Time               `json:"exported_at"`
	Users      []UserBackup            `json:"users"`
	Rooms      []RoomBackup            `json:"rooms"`
	Itinerary  []models.ItineraryEntry `json:"itinerary"`
	Tasks      []models.Task           `json:"tasks"`
	Expenses   []models.Expense        `json:"expenses"`
	Polls      []PollBackup            `json:"polls"`
}

// UserBackup represents a user record for backup. Unlike models.User it
// carries the password hash and OAuth identity.
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RoomBackup represents a room and its memberships
type RoomBackup struct {
	models.Room
	Members []MemberBackup `json:"members"`
}

// MemberBackup represents one membership of a room
type MemberBackup struct {
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// PollBackup represents a poll, its options and its vote log
type PollBackup struct {
	models.Poll
	Votes []VoteBackup `json:"vote_log"`
}

// VoteBackup represents one vote
type VoteBackup struct {
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a JSON backup of every room and account to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	slog.Info("Starting database export")

	backup, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	slog.Info("Database exported",
		"users", len(backup.Users),
		"rooms", len(backup.Rooms),
		"itinerary", len(backup.Itinerary),
		"tasks", len(backup.Tasks),
		"expenses", len(backup.Expenses),
		"polls", len(backup.Polls))
	return backup, nil
}

func (s *BackupService) snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{Version: backupVersion, ExportedAt: time.Now().UTC()}
	var err error

	if backup.Users, err = s.exportUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	if backup.Rooms, err = s.exportRooms(ctx); err != nil {
		return nil, fmt.Errorf("failed to export rooms: %w", err)
	}
	if backup.Itinerary, err = s.exportItinerary(ctx); err != nil {
		return nil, fmt.Errorf("failed to export itinerary: %w", err)
	}
	if backup.Tasks, err = s.exportTasks(ctx); err != nil {
		return nil, fmt.Errorf("failed to export tasks: %w", err)
	}
	if backup.Expenses, err = s.exportExpenses(ctx); err != nil {
		return nil, fmt.Errorf("failed to export expenses: %w", err)
	}
	if backup.Polls, err = s.exportPolls(ctx); err != nil {
		return nil, fmt.Errorf("failed to export polls: %w", err)
	}
	return backup, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// collect runs query and scans every row with scan
func collect[T any](ctx context.Context, db database.DBTX, query string, scan func(scanner) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *BackupService) exportUsers(ctx context.Context) ([]UserBackup, error) {
	query := `SELECT id, email, password_hash, name, COALESCE(phone, ''), COALESCE(oauth_provider, ''),
		COALESCE(oauth_subject, ''), created_at, updated_at FROM users ORDER BY id`
	return collect(ctx, s.db, query, func(row scanner) (UserBackup, error) {
		var u UserBackup
		err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.OAuthProvider, &u.OAuthSubject, &u.CreatedAt, &u.UpdatedAt)
		return u, err
	})
}

func (s *BackupService) exportRooms(ctx context.Context) ([]RoomBackup, error) {
	query := `SELECT id, creator_id, name, destination, COALESCE(start_date, ''), COALESCE(end_date, ''),
		budget_cents, description, code, created_at FROM rooms ORDER BY id`
	rooms, err := collect(ctx, s.db, query, func(row scanner) (RoomBackup, error) {
		var r RoomBackup
		var budget sql.NullInt64
		err := row.Scan(&r.ID, &r.CreatorID, &r.Name, &r.Destination, &r.StartDate, &r.EndDate, &budget, &r.Description, &r.Code, &r.CreatedAt)
		if budget.Valid {
			amount := models.Amount(budget.Int64)
			r.Budget = &amount
		}
		return r, err
	})
	if err != nil {
		return nil, err
	}

	for i := range rooms {
		rooms[i].Members, err = collect(ctx, s.db,
			"SELECT user_id, joined_at FROM room_members WHERE room_id = ? ORDER BY id",
			func(row scanner) (MemberBackup, error) {
				var m MemberBackup
				err := row.Scan(&m.UserID, &m.JoinedAt)
				return m, err
			}, rooms[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

func (s *BackupService) exportItinerary(ctx context.Context) ([]models.ItineraryEntry, error) {
	query := `SELECT id, room_id, day, description, COALESCE(start_time, ''), COALESCE(end_time, ''), created_at
		FROM itinerary_entries ORDER BY id`
	return collect(ctx, s.db, query, func(row scanner) (models.ItineraryEntry, error) {
		var e models.ItineraryEntry
		err := row.Scan(&e.ID, &e.RoomID, &e.Day, &e.Description, &e.StartTime, &e.EndTime, &e.CreatedAt)
		return e, err
	})
}

func (s *BackupService) exportTasks(ctx context.Context) ([]models.Task, error) {
	query := `SELECT id, room_id, title, description, assignee, COALESCE(due_date, ''), status, created_at
		FROM tasks ORDER BY id`
	return collect(ctx, s.db, query, func(row scanner) (models.Task, error) {
		var t models.Task
		err := row.Scan(&t.ID, &t.RoomID, &t.Title, &t.Description, &t.Assignee, &t.DueDate, &t.Status, &t.CreatedAt)
		return t, err
	})
}

func (s *BackupService) exportExpenses(ctx context.Context) ([]models.Expense, error) {
	query := `SELECT id, room_id, description, amount_cents, spent_on, category, COALESCE(paid_by, ''), created_at
		FROM expenses ORDER BY id`
	return collect(ctx, s.db, query, func(row scanner) (models.Expense, error) {
		var e models.Expense
		var cents int64
		err := row.Scan(&e.ID, &e.RoomID, &e.Description, &cents, &e.SpentOn, &e.Category, &e.PaidBy, &e.CreatedAt)
		e.Amount = models.Amount(cents)
		return e, err
	})
}

func (s *BackupService) exportPolls(ctx context.Context) ([]PollBackup, error) {
	polls, err := collect(ctx, s.db,
		"SELECT id, room_id, title, description, status, created_at FROM polls ORDER BY id",
		func(row scanner) (PollBackup, error) {
			var p PollBackup
			err := row.Scan(&p.ID, &p.RoomID, &p.Title, &p.Description, &p.Status, &p.CreatedAt)
			return p, err
		})
	if err != nil {
		return nil, err
	}

	for i := range polls {
		polls[i].Options, err = collect(ctx, s.db,
			"SELECT label FROM poll_options WHERE poll_id = ? ORDER BY position",
			func(row scanner) (string, error) {
				var label string
				err := row.Scan(&label)
				return label, err
			}, polls[i].ID)
		if err != nil {
			return nil, err
		}
		polls[i].Votes, err = collect(ctx, s.db,
			"SELECT option_position, created_at FROM poll_votes WHERE poll_id = ? ORDER BY id",
			func(row scanner) (VoteBackup, error) {
				var v VoteBackup
				err := row.Scan(&v.Position, &v.CreatedAt)
				return v, err
			}, polls[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return polls, nil
}

// Import restores a backup read from r. Ids are preserved. Everything is
// written in one transaction, so a failing row leaves the database as it
// was.
func (s *BackupService) Import(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	slog.Info("Starting database import", "version", backup.Version, "exported_at", backup.ExportedAt)

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		steps := []struct {
			name string
			fn   func(context.Context, *database.Tx, *BackupData) error
		}{
			{"users", importUsers},
			{"rooms", importRooms},
			{"itinerary", importItinerary},
			{"tasks", importTasks},
			{"expenses", importExpenses},
			{"polls", importPolls},
		}
		for _, step := range steps {
			if err := step.fn(ctx, tx, &backup); err != nil {
				return fmt.Errorf("failed to import %s: %w", step.name, err)
			}
		}
		if s.db.Dialect.DriverName() == "postgres" {
			return resetSequences(ctx, tx)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Database import completed", "users", len(backup.Users), "rooms", len(backup.Rooms))
	return nil
}

func importUsers(ctx context.Context, tx *database.Tx, b *BackupData) error {
	query := `INSERT INTO users (id, email, password_hash, name, phone, oauth_provider, oauth_subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, u := range b.Users {
		_, err := tx.ExecContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.Name,
			nullIfEmpty(u.Phone), nullIfEmpty(u.OAuthProvider), nullIfEmpty(u.OAuthSubject), u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	return nil
}

func importRooms(ctx context.Context, tx *database.Tx, b *BackupData) error {
	query := `INSERT INTO rooms (id, creator_id, name, destination, start_date, end_date, budget_cents, description, code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, r := range b.Rooms {
		var budget any
		if r.Budget != nil {
			budget = int64(*r.Budget)
		}
		_, err := tx.ExecContext(ctx, query, r.ID, r.CreatorID, r.Name, r.Destination,
			nullIfEmpty(r.StartDate), nullIfEmpty(r.EndDate), budget, r.Description, r.Code, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("room %d: %w", r.ID, err)
		}
		for _, m := range r.Members {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO room_members (room_id, user_id, joined_at) VALUES (?, ?, ?)",
				r.ID, m.UserID, m.JoinedAt)
			if err != nil {
				return fmt.Errorf("room %d member %d: %w", r.ID, m.UserID, err)
			}
		}
	}
	return nil
}

func importItinerary(ctx context.Context, tx *database.Tx, b *BackupData) error {
	query := `INSERT INTO itinerary_entries (id, room_id, day, description, start_time, end_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, e := range b.Itinerary {
		_, err := tx.ExecContext(ctx, query, e.ID, e.RoomID, e.Day, e.Description,
			nullIfEmpty(e.StartTime), nullIfEmpty(e.EndTime), e.CreatedAt)
		if err != nil {
			return fmt.Errorf("entry %d: %w", e.ID, err)
		}
	}
	return nil
}

func importTasks(ctx context.Context, tx *database.Tx, b *BackupData) error {
	query := `INSERT INTO tasks (id, room_id, title, description, assignee, due_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, t := range b.Tasks {
		_, err := tx.ExecContext(ctx, query, t.ID, t.RoomID, t.Title, t.Description, t.Assignee,
			nullIfEmpty(t.DueDate), t.Status, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("task %d: %w", t.ID, err)
		}
	}
	return nil
}

func importExpenses(ctx context.Context, tx *database.Tx, b *BackupData) error {
	query := `INSERT INTO expenses (id, room_id, description, amount_cents, spent_on, category, paid_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, e := range b.Expenses {
		_, err := tx.ExecContext(ctx, query, e.ID, e.RoomID, e.Description, int64(e.Amount),
			e.SpentOn, e.Category, nullIfEmpty(e.PaidBy), e.CreatedAt)
		if err != nil {
			return fmt.Errorf("expense %d: %w", e.ID, err)
		}
	}
	return nil
}

func importPolls(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, p := range b.Polls {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO polls (id, room_id, title, description, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			p.ID, p.RoomID, p.Title, p.Description, p.Status, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("poll %d: %w", p.ID, err)
		}
		for pos, label := range p.Options {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO poll_options (poll_id, position, label) VALUES (?, ?, ?)",
				p.ID, pos, label)
			if err != nil {
				return fmt.Errorf("poll %d option %d: %w", p.ID, pos, err)
			}
		}
		for _, v := range p.Votes {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO poll_votes (poll_id, option_position, created_at) VALUES (?, ?, ?)",
				p.ID, v.Position, v.CreatedAt)
			if err != nil {
				return fmt.Errorf("poll %d vote: %w", p.ID, err)
			}
		}
	}
	return nil
}

// resetSequences moves PostgreSQL serial sequences past the imported ids.
func resetSequences(ctx context.Context, tx *database.Tx) error {
	tables := []string{
		"users", "rooms", "room_members", "itinerary_entries", "tasks",
		"expenses", "polls", "poll_options", "poll_votes",
	}
	for _, table := range tables {
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
			table, table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
