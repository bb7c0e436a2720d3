package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"triproom/internal/config"
	"triproom/internal/database"
	"triproom/internal/models"
	"triproom/internal/repository"
	"triproom/internal/security"
	"triproom/internal/service"
)

type capturingSender struct {
	to []string
}

func (c *capturingSender) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	c.to = append(c.to, in.Destination.ToAddresses...)
	return &sesv2.SendEmailOutput{MessageId: aws.String("test")}, nil
}

type testApp struct {
	server *httptest.Server
	sender *capturingSender
}

func newTestApp(t *testing.T, rateLimit int) *testApp {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	membershipRepo := repository.NewMembershipRepository(db)
	rooms := service.NewRoomService(repository.NewRoomRepository(db), membershipRepo)
	membership := service.NewMembershipService(rooms, membershipRepo)
	itinerary := service.NewItineraryService(rooms, repository.NewItineraryRepository(db))
	tasks := service.NewTaskService(rooms, repository.NewTaskRepository(db))
	expenses := service.NewExpenseService(rooms, repository.NewExpenseRepository(db))
	polls := service.NewPollService(rooms, repository.NewPollRepository(db))
	auth := service.NewAuthService(repository.NewUserRepository(db), security.NewTokenManager("test-secret", time.Hour), time.Hour)

	sender := &capturingSender{}
	email := service.NewEmailServiceWithClient(sender, "trips@example.com", "Trip Room", "http://trips.test")
	csrf := security.NewCSRFGenerator("csrf-secret")
	metrics := NewMetrics()

	router := NewRouter(Handlers{
		Middleware: NewMiddleware(auth, csrf, security.NewRateLimiter(rateLimit, time.Minute)),
		Auth:       NewAuthHandler(auth, csrf, NewOAuthProviders(&config.Config{GoogleClientID: "id", GoogleClientSecret: "secret"}), "http://trips.test"),
		Rooms:      NewRoomHandler(rooms, membership, email, metrics),
		Itinerary:  NewItineraryHandler(itinerary),
		Tasks:      NewTaskHandler(tasks),
		Expenses:   NewExpenseHandler(expenses),
		Polls:      NewPollHandler(polls, metrics),
		Dashboard:  NewDashboardHandler(service.NewDashboardService(membership, rooms, itinerary, tasks, expenses, polls)),
		Metrics:    metrics,
		Store:      db,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testApp{server: server, sender: sender}
}

// client is one browser-like user: a cookie jar plus the CSRF token from
// the last login.
type client struct {
	t      *testing.T
	app    *testApp
	http   *http.Client
	csrf   string
	bearer string
}

func (a *testApp) newClient(t *testing.T) *client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &client{
		t:    t,
		app:  a,
		http: &http.Client{Jar: jar, CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }},
	}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			data, err := json.Marshal(body)
			if err != nil {
				c.t.Fatal(err)
			}
			raw = string(data)
		}
		reader = strings.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.app.server.URL+path, reader)
	if err != nil {
		c.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.csrf != "" {
		req.Header.Set(security.CSRFHeaderName, c.csrf)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatal(err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (c *client) signup(email string) *models.User {
	c.t.Helper()
	var resp authResponse
	status := c.do(http.MethodPost, "/api/signup", map[string]string{
		"email": email, "password": "password123", "name": "Traveller",
	}, &resp)
	if status != http.StatusCreated {
		c.t.Fatalf("signup status = %d", status)
	}
	if resp.CSRFToken == "" {
		c.t.Fatal("signup returned no CSRF token")
	}
	c.csrf = resp.CSRFToken
	return resp.User
}

func (c *client) createRoom() models.Room {
	c.t.Helper()
	var room models.Room
	status := c.do(http.MethodPost, "/api/rooms", map[string]any{
		"name": "Summer", "destination": "Lisbon", "budget": 1500.5,
	}, &room)
	if status != http.StatusCreated {
		c.t.Fatalf("create room status = %d", status)
	}
	return room
}

func path(format string, id int64) string {
	return strings.Replace(format, "{id}", strconv.FormatInt(id, 10), 1)
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t, 100)
	ana := app.newClient(t)

	if status := ana.do(http.MethodGet, "/api/me", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous /api/me status = %d, want 401", status)
	}

	user := ana.signup("ana@example.com")

	var me authResponse
	if status := ana.do(http.MethodGet, "/api/me", nil, &me); status != http.StatusOK || me.User.ID != user.ID {
		t.Fatalf("/api/me = %d %+v", status, me.User)
	}

	var dup errorBody
	other := app.newClient(t)
	status := other.do(http.MethodPost, "/api/signup", map[string]string{
		"email": "ANA@example.com", "password": "password123", "name": "Other",
	}, &dup)
	if status != http.StatusBadRequest || dup.Field != "email" {
		t.Errorf("duplicate signup = %d %+v", status, dup)
	}

	var available map[string]bool
	other.do(http.MethodPost, "/api/check-email", map[string]string{"email": "ana@example.com"}, &available)
	if available["available"] {
		t.Error("taken email reported available")
	}

	if status := other.do(http.MethodPost, "/api/login", map[string]string{"email": "ana@example.com", "password": "nope"}, nil); status != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", status)
	}

	if status := ana.do(http.MethodPost, "/api/logout", nil, nil); status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}
	if status := ana.do(http.MethodGet, "/api/me", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("/api/me after logout status = %d, want 401", status)
	}
}

func TestCookieWritesRequireCSRFToken(t *testing.T) {
	app := newTestApp(t, 100)
	ana := app.newClient(t)
	ana.signup("ana@example.com")

	token := ana.csrf
	ana.csrf = ""
	if status := ana.do(http.MethodPost, "/api/rooms", map[string]string{"name": "Trip", "destination": "Rome"}, nil); status != http.StatusForbidden {
		t.Fatalf("create without CSRF status = %d, want 403", status)
	}

	ana.csrf = token
	room := ana.createRoom()
	if room.Budget == nil || *room.Budget != 150050 {
		t.Errorf("budget = %v, want 1500.50", room.Budget)
	}
}

func TestBearerTokenClients(t *testing.T) {
	app := newTestApp(t, 100)
	ana := app.newClient(t)
	ana.signup("ana@example.com")
	room := ana.createRoom()

	ben := app.newClient(t)
	ben.signup("ben@example.com")
	var issued struct {
		Token string `json:"token"`
	}
	if status := ben.do(http.MethodPost, "/api/token", nil, &issued); status != http.StatusOK || issued.Token == "" {
		t.Fatalf("issue token = %d", status)
	}

	api := app.newClient(t)
	api.bearer = issued.Token

	var joined struct {
		Room   models.Room `json:"room"`
		Joined bool        `json:"joined"`
	}
	code := strings.ToLower(room.Code)
	if status := api.do(http.MethodPost, "/api/rooms/join", map[string]string{"code": " " + code + " "}, &joined); status != http.StatusOK || !joined.Joined {
		t.Fatalf("join = %d %+v", status, joined)
	}
	api.do(http.MethodPost, "/api/rooms/join", map[string]string{"code": room.Code}, &joined)
	if joined.Joined {
		t.Error("second join reported joined=true")
	}

	var detail struct {
		models.Room
		Members []models.RoomMember `json:"members"`
	}
	api.do(http.MethodGet, path("/api/rooms/{id}", room.ID), nil, &detail)
	if len(detail.Members) != 2 {
		t.Errorf("members = %d, want 2", len(detail.Members))
	}

	api.bearer = issued.Token + "tampered"
	if status := api.do(http.MethodGet, "/api/rooms", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("tampered token status = %d, want 401", status)
	}
}

func TestRoomContentEndpoints(t *testing.T) {
	app := newTestApp(t, 100)
	ana := app.newClient(t)
	ana.signup("ana@example.com")
	room := ana.createRoom()

	t.Run("itinerary", func(t *testing.T) {
		var entry models.ItineraryEntry
		status := ana.do(http.MethodPost, path("/api/rooms/{id}/itinerary", room.ID),
			map[string]string{"day": "2025-07-01", "description": "Arrive", "start_time": "14:00"}, &entry)
		if status != http.StatusCreated {
			t.Fatalf("add entry status = %d", status)
		}

		var bad errorBody
		status = ana.do(http.MethodPost, path("/api/rooms/{id}/itinerary", room.ID),
			map[string]string{"day": "tomorrow", "description": "Museum"}, &bad)
		if status != http.StatusBadRequest || bad.Field != "day" {
			t.Errorf("bad day = %d %+v", status, bad)
		}

		status = ana.do(http.MethodPut, path("/api/itinerary/{id}", entry.ID),
			map[string]string{"day": "2025-07-02", "description": "Arrive late"}, &entry)
		if status != http.StatusOK || entry.Description != "Arrive late" {
			t.Errorf("edit = %d %+v", status, entry)
		}
		if status := ana.do(http.MethodPut, "/api/itinerary/9999", map[string]string{"day": "2025-07-02", "description": "x"}, nil); status != http.StatusNotFound {
			t.Errorf("edit unknown status = %d, want 404", status)
		}
		if status := ana.do(http.MethodDelete, path("/api/itinerary/{id}", entry.ID), nil, nil); status != http.StatusNoContent {
			t.Errorf("delete status = %d", status)
		}
		if status := ana.do(http.MethodDelete, path("/api/itinerary/{id}", entry.ID), nil, nil); status != http.StatusNoContent {
			t.Errorf("repeat delete status = %d", status)
		}
	})

	t.Run("tasks", func(t *testing.T) {
		var task models.Task
		ana.do(http.MethodPost, path("/api/rooms/{id}/tasks", room.ID), map[string]string{"title": "Book hotel"}, &task)
		if task.Status != models.TaskStatusPending {
			t.Errorf("status = %q, want pending", task.Status)
		}
		status := ana.do(http.MethodPut, path("/api/tasks/{id}/status", task.ID), map[string]string{"status": "done"}, &task)
		if status != http.StatusOK || task.Status != "done" {
			t.Errorf("set status = %d %+v", status, task)
		}

		var board models.TaskBoard
		ana.do(http.MethodGet, path("/api/rooms/{id}/tasks", room.ID), nil, &board)
		if len(board.Tasks) != 1 || len(board.Members) != 1 {
			t.Errorf("board = %+v", board)
		}
	})

	t.Run("expenses", func(t *testing.T) {
		for _, amount := range []any{"20.25", 50.5} {
			status := ana.do(http.MethodPost, path("/api/rooms/{id}/expenses", room.ID),
				map[string]any{"description": "Dinner", "amount": amount, "date": "2025-07-01"}, nil)
			if status != http.StatusCreated {
				t.Fatalf("add expense %v status = %d", amount, status)
			}
		}

		var bad errorBody
		status := ana.do(http.MethodPost, path("/api/rooms/{id}/expenses", room.ID),
			`{"description":"Taxi","amount":"abc","date":"2025-07-01"}`, &bad)
		if status != http.StatusBadRequest || bad.Field != "amount" {
			t.Errorf("bad amount = %d %+v", status, bad)
		}
		if status := ana.do(http.MethodPost, path("/api/rooms/{id}/expenses", room.ID), `{"amount": true}`, nil); status != http.StatusBadRequest {
			t.Errorf("boolean amount status = %d, want 400", status)
		}
	})

	t.Run("polls", func(t *testing.T) {
		var poll models.Poll
		ana.do(http.MethodPost, path("/api/rooms/{id}/polls", room.ID),
			map[string]any{"title": "Beach?", "options": []string{"Yes", " ", "No"}}, &poll)
		if len(poll.Options) != 2 {
			t.Fatalf("options = %v, want blanks dropped", poll.Options)
		}

		for _, idx := range []int{0, 1, 1} {
			if status := ana.do(http.MethodPost, path("/api/polls/{id}/votes", poll.ID), map[string]int{"option_index": idx}, nil); status != http.StatusCreated {
				t.Fatalf("vote status = %d", status)
			}
		}

		var bad errorBody
		status := ana.do(http.MethodPost, path("/api/polls/{id}/votes", poll.ID), map[string]int{"option_index": 2}, &bad)
		if status != http.StatusBadRequest || bad.Field != "option_index" {
			t.Errorf("out of range vote = %d %+v", status, bad)
		}
		for _, body := range []string{`{"option_index":1.5}`, `{"option_index":"1"}`, `{}`} {
			var malformed errorBody
			status := ana.do(http.MethodPost, path("/api/polls/{id}/votes", poll.ID), body, &malformed)
			if status != http.StatusBadRequest || malformed.Field != "option_index" {
				t.Errorf("vote %s = %d %+v, want 400 on option_index", body, status, malformed)
			}
		}
		if status := ana.do(http.MethodPost, "/api/polls/9999/votes", map[string]int{"option_index": 0}, nil); status != http.StatusNotFound {
			t.Errorf("unknown poll status = %d, want 404", status)
		}

		var polls []models.PollWithTally
		ana.do(http.MethodGet, path("/api/rooms/{id}/polls", room.ID), nil, &polls)
		if len(polls) != 1 || len(polls[0].Tally) != 2 || polls[0].Tally[0] != 1 || polls[0].Tally[1] != 2 {
			t.Errorf("polls = %+v", polls)
		}

		ana.do(http.MethodPost, path("/api/polls/{id}/close", poll.ID), nil, nil)
		status = ana.do(http.MethodPost, path("/api/polls/{id}/votes", poll.ID), map[string]int{"option_index": 0}, &bad)
		if status != http.StatusBadRequest || bad.Field != "status" {
			t.Errorf("vote on closed poll = %d %+v", status, bad)
		}
	})

	t.Run("dashboard", func(t *testing.T) {
		var summary models.DashboardSummary
		ana.do(http.MethodGet, "/api/dashboard", nil, &summary)
		if len(summary.Rooms) != 1 || summary.PendingTasks != 0 || summary.OpenPolls != 0 || summary.TotalExpenses != 7075 {
			t.Errorf("summary = %+v", summary)
		}

		var totals models.RoomTotals
		ana.do(http.MethodGet, path("/api/rooms/{id}/totals", room.ID), nil, &totals)
		if totals.TotalExpenses != 7075 {
			t.Errorf("totals = %+v", totals)
		}
		if status := ana.do(http.MethodGet, "/api/rooms/9999/totals", nil, nil); status != http.StatusNotFound {
			t.Errorf("unknown room totals status = %d, want 404", status)
		}
	})
}

func TestDeleteRoomByCode(t *testing.T) {
	app := newTestApp(t, 100)
	ana := app.newClient(t)
	ana.signup("ana@example.com")
	room := ana.createRoom()

	ben := app.newClient(t)
	ben.signup("ben@example.com")
	ben.do(http.MethodPost, "/api/rooms/join", map[string]string{"code": room.Code}, nil)

	var outcome map[string]string
	ben.do(http.MethodDelete, "/api/codes/"+room.Code, nil, &outcome)
	if outcome["outcome"] != string(models.RoomLeft) {
		t.Errorf("non-creator outcome = %v", outcome)
	}

	ana.do(http.MethodDelete, "/api/codes/"+room.Code, nil, &outcome)
	if outcome["outcome"] != string(models.RoomDeleted) {
		t.Errorf("creator outcome = %v", outcome)
	}
	if status := ana.do(http.MethodGet, "/api/codes/"+room.Code, nil, nil); status != http.StatusNotFound {
		t.Errorf("deleted room lookup status = %d, want 404", status)
	}

	var rooms []models.Room
	ana.do(http.MethodGet, "/api/rooms", nil, &rooms)
	if rooms == nil || len(rooms) != 0 {
		t.Errorf("rooms = %v, want empty list", rooms)
	}
}

func TestInviteToRoom(t *testing.T) {
	app := newTestApp(t, 100)
	ana := app.newClient(t)
	ana.signup("ana@example.com")
	room := ana.createRoom()

	var resp struct {
		Sent     bool   `json:"sent"`
		JoinLink string `json:"join_link"`
	}
	status := ana.do(http.MethodPost, path("/api/rooms/{id}/invite", room.ID), map[string]string{"email": "friend@example.com"}, &resp)
	if status != http.StatusAccepted || !resp.Sent {
		t.Fatalf("invite = %d %+v", status, resp)
	}
	if resp.JoinLink != "http://trips.test/join?code="+room.Code {
		t.Errorf("join link = %q", resp.JoinLink)
	}
	if len(app.sender.to) != 1 || app.sender.to[0] != "friend@example.com" {
		t.Errorf("sent to %v", app.sender.to)
	}

	var bad errorBody
	if status := ana.do(http.MethodPost, path("/api/rooms/{id}/invite", room.ID), map[string]string{"email": "nope"}, &bad); status != http.StatusBadRequest || bad.Field != "email" {
		t.Errorf("bad invite = %d %+v", status, bad)
	}
}

func TestRateLimitedLogin(t *testing.T) {
	app := newTestApp(t, 2)
	c := app.newClient(t)
	creds := map[string]string{"email": "ana@example.com", "password": "whatever1"}

	for i := 0; i < 2; i++ {
		if status := c.do(http.MethodPost, "/api/login", creds, nil); status != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, status)
		}
	}
	if status := c.do(http.MethodPost, "/api/login", creds, nil); status != http.StatusTooManyRequests {
		t.Errorf("third attempt status = %d, want 429", status)
	}
}

func TestOperationsEndpoints(t *testing.T) {
	app := newTestApp(t, 100)
	c := app.newClient(t)

	var health map[string]string
	if status := c.do(http.MethodGet, "/healthz", nil, &health); status != http.StatusOK || health["status"] != "ok" {
		t.Errorf("healthz = %d %v", status, health)
	}

	var providers []OAuthProviderView
	c.do(http.MethodGet, "/api/auth/providers", nil, &providers)
	if len(providers) != 1 || providers[0].Name != "google" {
		t.Errorf("providers = %+v, want only google", providers)
	}
	if status := c.do(http.MethodGet, "/auth/apple/start", nil, nil); status != http.StatusNotFound {
		t.Errorf("unconfigured provider status = %d, want 404", status)
	}
	if status := c.do(http.MethodGet, "/auth/google/start", nil, nil); status != http.StatusFound {
		t.Errorf("google start status = %d, want 302", status)
	}

	resp, err := http.Get(app.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `triproom_http_requests_total{method="GET",route="GET /healthz",status="200"} 1`) {
		t.Errorf("metrics missing healthz counter:\n%s", buf.String())
	}
}
