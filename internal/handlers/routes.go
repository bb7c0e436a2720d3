package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers bundles everything the router mounts
type Handlers struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Rooms      *RoomHandler
	Itinerary  *ItineraryHandler
	Tasks      *TaskHandler
	Expenses   *ExpenseHandler
	Polls      *PollHandler
	Dashboard  *DashboardHandler
	Metrics    *Metrics
	Store      Pinger
}

// NewRouter registers every route and wraps the mux with request logging
// and metrics
func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()
	auth := h.Middleware.RequireAuth
	limit := h.Middleware.RateLimit

	// Operations
	mux.HandleFunc("GET /healthz", healthz(h.Store))
	mux.Handle("GET /metrics", h.Metrics.Handler())

	// Accounts
	mux.HandleFunc("POST /api/signup", limit(h.Auth.Signup))
	mux.HandleFunc("POST /api/login", limit(h.Auth.Login))
	mux.HandleFunc("POST /api/logout", h.Auth.Logout)
	mux.HandleFunc("POST /api/check-email", limit(h.Auth.CheckEmail))
	mux.HandleFunc("GET /api/me", auth(h.Auth.Me))
	mux.HandleFunc("POST /api/token", auth(h.Auth.IssueToken))
	mux.HandleFunc("GET /api/auth/providers", h.Auth.OAuthProviders)
	mux.HandleFunc("GET /auth/{provider}/start", h.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", h.Auth.OAuthCallback)

	// Rooms and membership
	mux.HandleFunc("GET /api/rooms", auth(h.Rooms.ListRooms))
	mux.HandleFunc("POST /api/rooms", auth(h.Rooms.CreateRoom))
	mux.HandleFunc("POST /api/rooms/join", limit(auth(h.Rooms.JoinRoom)))
	mux.HandleFunc("GET /api/codes/{code}", limit(auth(h.Rooms.GetRoomByCode)))
	mux.HandleFunc("DELETE /api/codes/{code}", auth(h.Rooms.DeleteRoom))
	mux.HandleFunc("GET /api/rooms/{id}", auth(h.Rooms.GetRoom))
	mux.HandleFunc("POST /api/rooms/{id}/leave", auth(h.Rooms.LeaveRoom))
	mux.HandleFunc("POST /api/rooms/{id}/invite", limit(auth(h.Rooms.InviteToRoom)))

	// Itinerary
	mux.HandleFunc("GET /api/rooms/{id}/itinerary", auth(h.Itinerary.ListEntries))
	mux.HandleFunc("POST /api/rooms/{id}/itinerary", auth(h.Itinerary.AddEntry))
	mux.HandleFunc("PUT /api/itinerary/{id}", auth(h.Itinerary.EditEntry))
	mux.HandleFunc("DELETE /api/itinerary/{id}", auth(h.Itinerary.DeleteEntry))

	// Tasks
	mux.HandleFunc("GET /api/rooms/{id}/tasks", auth(h.Tasks.ListTasks))
	mux.HandleFunc("POST /api/rooms/{id}/tasks", auth(h.Tasks.AddTask))
	mux.HandleFunc("PUT /api/tasks/{id}/status", auth(h.Tasks.SetStatus))
	mux.HandleFunc("DELETE /api/tasks/{id}", auth(h.Tasks.DeleteTask))

	// Expenses
	mux.HandleFunc("GET /api/rooms/{id}/expenses", auth(h.Expenses.ListExpenses))
	mux.HandleFunc("POST /api/rooms/{id}/expenses", auth(h.Expenses.AddExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", auth(h.Expenses.DeleteExpense))

	// Polls
	mux.HandleFunc("GET /api/rooms/{id}/polls", auth(h.Polls.ListPolls))
	mux.HandleFunc("POST /api/rooms/{id}/polls", auth(h.Polls.CreatePoll))
	mux.HandleFunc("POST /api/polls/{id}/votes", auth(h.Polls.CastVote))
	mux.HandleFunc("POST /api/polls/{id}/close", auth(h.Polls.ClosePoll))
	mux.HandleFunc("DELETE /api/polls/{id}", auth(h.Polls.DeletePoll))

	// Dashboard
	mux.HandleFunc("GET /api/dashboard", auth(h.Dashboard.Summary))
	mux.HandleFunc("GET /api/rooms/{id}/totals", auth(h.Dashboard.RoomTotals))

	return h.Metrics.Instrument(Logging(mux))
}

func healthz(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.PingContext(ctx); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, "Database unavailable", "Health check failed", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
