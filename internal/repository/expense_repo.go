package repository

import (
	"context"

	"triproom/internal/database"
	"triproom/internal/models"
)

// ExpenseRepository handles the room expense ledger
type ExpenseRepository struct {
	db *database.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *database.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// CreateExpense inserts expense and fills in its ID and CreatedAt
func (r *ExpenseRepository) CreateExpense(ctx context.Context, expense *models.Expense) error {
	ts := now()
	query := `
		INSERT INTO expenses (room_id, description, amount_cents, spent_on, category, paid_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		expense.RoomID, expense.Description, int64(expense.Amount), expense.SpentOn,
		expense.Category, nullString(expense.PaidBy), ts)
	if err != nil {
		return insertError(r.db, "create expense", err)
	}
	expense.ID = id
	expense.CreatedAt = ts
	return nil
}

// ListExpenses returns the room's expenses, most recent date first
func (r *ExpenseRepository) ListExpenses(ctx context.Context, roomID int64) ([]models.Expense, error) {
	query := `
		SELECT id, room_id, description, amount_cents, spent_on, category, COALESCE(paid_by, ''), created_at
		FROM expenses
		WHERE room_id = ?
		ORDER BY spent_on DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, storeError("query expenses", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		var cents int64
		if err := rows.Scan(&e.ID, &e.RoomID, &e.Description, &cents, &e.SpentOn, &e.Category, &e.PaidBy, &e.CreatedAt); err != nil {
			return nil, storeError("scan expense", err)
		}
		e.Amount = models.Amount(cents)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate expenses", err)
	}
	return expenses, nil
}

// DeleteExpense removes an expense; a missing expense is not an error
func (r *ExpenseRepository) DeleteExpense(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return storeError("delete expense", err)
	}
	return nil
}

// SumExpenses totals expenses across rooms. No rows sum to zero.
func (r *ExpenseRepository) SumExpenses(ctx context.Context, rooms database.RoomIDSet) (models.Amount, error) {
	in, args, err := rooms.InClause("room_id")
	if err != nil {
		return 0, err
	}

	var total int64
	query := "SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE " + in
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, storeError("sum expenses", err)
	}
	return models.Amount(total), nil
}
