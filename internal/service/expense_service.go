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

// ExpenseInput carries the fields of a new expense. Amount is a decimal
// string such as "50.50".
type ExpenseInput struct {
	Description string
	Amount      string
	Date        string
	Category    string
	PaidBy      string
}

// ExpenseService manages a room's shared ledger
type ExpenseService struct {
	rooms       *RoomService
	expenseRepo *repository.ExpenseRepository
}

// NewExpenseService creates a new expense service
func NewExpenseService(rooms *RoomService, expenseRepo *repository.ExpenseRepository) *ExpenseService {
	return &ExpenseService{rooms: rooms, expenseRepo: expenseRepo}
}

// AddExpense records an expense. Amounts that do not parse as a
// non-negative number are rejected rather than coerced.
func (s *ExpenseService) AddExpense(ctx context.Context, roomID int64, in ExpenseInput) (*models.Expense, error) {
	expense := &models.Expense{
		RoomID:      roomID,
		Description: strings.TrimSpace(in.Description),
		SpentOn:     strings.TrimSpace(in.Date),
		Category:    strings.TrimSpace(in.Category),
		PaidBy:      strings.TrimSpace(in.PaidBy),
	}
	if err := validation.Required("description", expense.Description); err != nil {
		return nil, err
	}
	amount, err := validation.ParseAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	expense.Amount = amount
	if err := validation.Required("date", expense.SpentOn); err != nil {
		return nil, err
	}
	if err := validation.ValidateDate("date", expense.SpentOn); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetRoomByID(ctx, roomID); err != nil {
		return nil, err
	}

	if err := s.expenseRepo.CreateExpense(ctx, expense); err != nil {
		return nil, insertFailed("failed to add expense", err, ErrRoomNotFound)
	}
	return expense, nil
}

// ListExpenses returns the room's expenses, most recent date first
func (s *ExpenseService) ListExpenses(ctx context.Context, roomID int64) ([]models.Expense, error) {
	if _, err := s.rooms.GetRoomByID(ctx, roomID); err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.ListExpenses(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes an expense. Deleting a missing expense succeeds.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.expenseRepo.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// SumExpenses totals expenses across rooms; no expenses sum to zero
func (s *ExpenseService) SumExpenses(ctx context.Context, rooms database.RoomIDSet) (models.Amount, error) {
	return s.expenseRepo.SumExpenses(ctx, rooms)
}
