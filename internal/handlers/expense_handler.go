package handlers

import (
	"net/http"

	"triproom/internal/service"
)

// ExpenseHandler handles expense ledger requests
type ExpenseHandler struct {
	expenses *service.ExpenseService
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(expenses *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// ListExpenses returns a room's expenses, most recent first
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	expenses, err := h.expenses.ListExpenses(r.Context(), roomID)
	if err != nil {
		respondWithServiceError(w, "Failed to list expenses", err)
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(expenses))
}

// AddExpense records an expense. The amount may be sent as a JSON number
// or a decimal string.
func (h *ExpenseHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Description string        `json:"description"`
		Amount      decimalString `json:"amount"`
		Date        string        `json:"date"`
		Category    string        `json:"category"`
		PaidBy      string        `json:"paid_by"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	expense, err := h.expenses.AddExpense(r.Context(), roomID, service.ExpenseInput{
		Description: req.Description,
		Amount:      string(req.Amount),
		Date:        req.Date,
		Category:    req.Category,
		PaidBy:      req.PaidBy,
	})
	if err != nil {
		respondWithServiceError(w, "Failed to add expense", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, expense)
}

// DeleteExpense removes an expense. Unknown ids succeed.
func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.expenses.DeleteExpense(r.Context(), id); err != nil {
		respondWithServiceError(w, "Failed to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
