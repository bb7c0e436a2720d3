package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"triproom/internal/database"
	"triproom/internal/models"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *database.DB, email string) *models.User {
	t.Helper()
	user, err := NewUserRepository(db).CreateUser(context.Background(), email, "hash", "Test User", "")
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", email, err)
	}
	return user
}

func createTestRoom(t *testing.T, db *database.DB, creatorID int64, code string) *models.Room {
	t.Helper()
	room := &models.Room{CreatorID: creatorID, Name: "Trip " + code, Destination: "Lisbon", Code: code}
	if err := NewRoomRepository(db).CreateRoomWithCreator(context.Background(), room); err != nil {
		t.Fatalf("CreateRoomWithCreator(%s) error = %v", code, err)
	}
	return room
}

func countRows(t *testing.T, db *database.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count query %q failed: %v", query, err)
	}
	return n
}

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "ana@example.com", "hash", "Ana", "555-0100")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if _, err := repo.CreateUser(ctx, "ana@example.com", "hash", "Other", ""); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("duplicate CreateUser() error = %v, want ErrDuplicateEmail", err)
	}

	got, err := repo.GetUserByEmail(ctx, "ana@example.com")
	if err != nil || got == nil || got.ID != user.ID || got.Phone != "555-0100" {
		t.Fatalf("GetUserByEmail() = %+v, %v", got, err)
	}

	missing, err := repo.GetUserByID(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("GetUserByID(missing) = %+v, %v; want nil, nil", missing, err)
	}

	if err := repo.LinkOAuthProvider(ctx, user.ID, "google", "sub-1"); err != nil {
		t.Fatalf("LinkOAuthProvider() error = %v", err)
	}
	if err := repo.LinkOAuthProvider(ctx, user.ID, "facebook", "sub-2"); err == nil {
		t.Error("second LinkOAuthProvider() should fail")
	}
	linked, err := repo.GetUserByOAuth(ctx, "google", "sub-1")
	if err != nil || linked == nil || linked.ID != user.ID {
		t.Errorf("GetUserByOAuth() = %+v, %v", linked, err)
	}
}

func TestRoomCreateAddsCreatorMembership(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "creator@example.com")

	budget := models.Amount(150000)
	room := &models.Room{
		CreatorID:   user.ID,
		Name:        "Summer",
		Destination: "Porto",
		StartDate:   "2025-07-01",
		Budget:      &budget,
		Code:        "ABC123",
	}
	if err := NewRoomRepository(db).CreateRoomWithCreator(ctx, room); err != nil {
		t.Fatalf("CreateRoomWithCreator() error = %v", err)
	}
	if room.ID == 0 {
		t.Fatal("room ID not set")
	}

	member, err := NewMembershipRepository(db).IsMember(ctx, room.ID, user.ID)
	if err != nil || !member {
		t.Errorf("creator membership missing: %v, %v", member, err)
	}

	got, err := NewRoomRepository(db).GetRoomByCode(ctx, "ABC123")
	if err != nil || got == nil {
		t.Fatalf("GetRoomByCode() = %+v, %v", got, err)
	}
	if got.Budget == nil || *got.Budget != budget || got.EndDate != "" {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestRoomCreateCodeTaken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "creator@example.com")
	createTestRoom(t, db, user.ID, "SAME01")

	dup := &models.Room{CreatorID: user.ID, Name: "Dup", Destination: "Rome", Code: "SAME01"}
	err := NewRoomRepository(db).CreateRoomWithCreator(ctx, dup)
	if !errors.Is(err, ErrCodeTaken) {
		t.Fatalf("error = %v, want ErrCodeTaken", err)
	}

	if n := countRows(t, db, "SELECT COUNT(*) FROM rooms"); n != 1 {
		t.Errorf("rooms = %d, want 1", n)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM room_members"); n != 1 {
		t.Errorf("memberships = %d, want 1 (no orphan from the failed create)", n)
	}
}

func TestDeleteRoomCascade(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	creator := createTestUser(t, db, "creator@example.com")
	member := createTestUser(t, db, "member@example.com")
	room := createTestRoom(t, db, creator.ID, "CASC01")
	other := createTestRoom(t, db, creator.ID, "KEEP01")

	if _, err := NewMembershipRepository(db).Add(ctx, room.ID, member.ID); err != nil {
		t.Fatal(err)
	}
	for _, roomID := range []int64{room.ID, other.ID} {
		seedRoomContent(t, db, roomID)
	}

	if err := NewRoomRepository(db).DeleteRoomCascade(ctx, room.ID); err != nil {
		t.Fatalf("DeleteRoomCascade() error = %v", err)
	}

	scoped := map[string]string{
		"room_members":      "SELECT COUNT(*) FROM room_members WHERE room_id = ?",
		"itinerary_entries": "SELECT COUNT(*) FROM itinerary_entries WHERE room_id = ?",
		"tasks":             "SELECT COUNT(*) FROM tasks WHERE room_id = ?",
		"expenses":          "SELECT COUNT(*) FROM expenses WHERE room_id = ?",
		"polls":             "SELECT COUNT(*) FROM polls WHERE room_id = ?",
		"rooms":             "SELECT COUNT(*) FROM rooms WHERE id = ?",
	}
	for table, query := range scoped {
		if n := countRows(t, db, query, room.ID); n != 0 {
			t.Errorf("%s rows left for deleted room = %d", table, n)
		}
		if n := countRows(t, db, query, other.ID); n == 0 {
			t.Errorf("%s rows of the other room were removed", table)
		}
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM poll_votes WHERE poll_id NOT IN (SELECT id FROM polls)"); n != 0 {
		t.Errorf("orphan votes = %d", n)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM poll_options WHERE poll_id NOT IN (SELECT id FROM polls)"); n != 0 {
		t.Errorf("orphan options = %d", n)
	}
}

func seedRoomContent(t *testing.T, db *database.DB, roomID int64) {
	t.Helper()
	ctx := context.Background()

	if err := NewItineraryRepository(db).CreateEntry(ctx, &models.ItineraryEntry{RoomID: roomID, Day: "2025-07-01", Description: "Arrive"}); err != nil {
		t.Fatal(err)
	}
	if err := NewTaskRepository(db).CreateTask(ctx, &models.Task{RoomID: roomID, Title: "Book hotel", Status: models.TaskStatusPending}); err != nil {
		t.Fatal(err)
	}
	if err := NewExpenseRepository(db).CreateExpense(ctx, &models.Expense{RoomID: roomID, Description: "Taxi", Amount: 1500, SpentOn: "2025-07-01"}); err != nil {
		t.Fatal(err)
	}
	polls := NewPollRepository(db)
	poll := &models.Poll{RoomID: roomID, Title: "Dinner?", Options: []string{"Fish", "Tapas"}, Status: models.PollStatusOpen}
	if err := polls.CreatePoll(ctx, poll); err != nil {
		t.Fatal(err)
	}
	for _, pos := range []int{0, 1, 1} {
		if err := polls.AddVote(ctx, poll.ID, pos); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMembershipAddIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	creator := createTestUser(t, db, "creator@example.com")
	joiner := createTestUser(t, db, "joiner@example.com")
	room := createTestRoom(t, db, creator.ID, "JOIN01")
	repo := NewMembershipRepository(db)

	first, err := repo.Add(ctx, room.ID, joiner.ID)
	if err != nil || !first {
		t.Fatalf("first Add() = %v, %v; want true", first, err)
	}
	second, err := repo.Add(ctx, room.ID, joiner.ID)
	if err != nil || second {
		t.Fatalf("second Add() = %v, %v; want false, nil", second, err)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM room_members WHERE room_id = ? AND user_id = ?", room.ID, joiner.ID); n != 1 {
		t.Errorf("membership rows = %d, want 1", n)
	}

	if err := repo.Remove(ctx, room.ID, joiner.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.Remove(ctx, room.ID, joiner.ID); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
}

func TestRoomsForUserUnion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ana := createTestUser(t, db, "ana@example.com")
	ben := createTestUser(t, db, "ben@example.com")
	repo := NewMembershipRepository(db)

	created := createTestRoom(t, db, ana.ID, "ANA001")
	joined := createTestRoom(t, db, ben.ID, "BEN001")
	createTestRoom(t, db, ben.ID, "BEN002")
	if _, err := repo.Add(ctx, joined.ID, ana.ID); err != nil {
		t.Fatal(err)
	}

	// The creator also leaves their own room: it is still listed.
	if err := repo.Remove(ctx, created.ID, ana.ID); err != nil {
		t.Fatal(err)
	}

	rooms, err := repo.RoomsForUser(ctx, ana.ID)
	if err != nil {
		t.Fatalf("RoomsForUser() error = %v", err)
	}
	ids := map[int64]int{}
	for _, r := range rooms {
		ids[r.ID]++
	}
	if len(rooms) != 2 || ids[created.ID] != 1 || ids[joined.ID] != 1 {
		t.Errorf("RoomsForUser() = %+v, want rooms %d and %d once each", rooms, created.ID, joined.ID)
	}

	none, err := repo.RoomsForUser(ctx, 9999)
	if err != nil || len(none) != 0 {
		t.Errorf("RoomsForUser(stranger) = %v, %v", none, err)
	}
}

func TestItineraryOrdering(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "ana@example.com")
	room := createTestRoom(t, db, user.ID, "ITIN01")
	repo := NewItineraryRepository(db)

	inputs := []models.ItineraryEntry{
		{Day: "2025-07-02", Description: "day two late", StartTime: "18:00"},
		{Day: "2025-07-01", Description: "day one noon", StartTime: "12:00"},
		{Day: "2025-07-02", Description: "day two early", StartTime: "08:00"},
		{Day: "2025-07-01", Description: "day one noon again", StartTime: "12:00"},
		{Day: "2025-07-01", Description: "day one untimed"},
	}
	for i := range inputs {
		inputs[i].RoomID = room.ID
		if err := repo.CreateEntry(ctx, &inputs[i]); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := repo.ListEntries(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"day one untimed", "day one noon", "day one noon again", "day two early", "day two late"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Description != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, e.Description, want[i])
		}
	}

	edited := entries[0]
	edited.Description = "breakfast"
	edited.StartTime = "07:30"
	found, err := repo.UpdateEntry(ctx, &edited)
	if err != nil || !found {
		t.Fatalf("UpdateEntry() = %v, %v", found, err)
	}
	found, err = repo.UpdateEntry(ctx, &models.ItineraryEntry{ID: 9999, Day: "2025-07-01", Description: "x"})
	if err != nil || found {
		t.Errorf("UpdateEntry(missing) = %v, %v; want false", found, err)
	}

	if err := repo.DeleteEntry(ctx, edited.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteEntry(ctx, edited.ID); err != nil {
		t.Errorf("repeat DeleteEntry() error = %v", err)
	}
}

func TestTaskOrderingAndCounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "ana@example.com")
	room := createTestRoom(t, db, user.ID, "TASK01")
	repo := NewTaskRepository(db)

	inputs := []models.Task{
		{Title: "undated old", Status: models.TaskStatusPending},
		{Title: "due later", DueDate: "2025-08-01", Status: models.TaskStatusPending},
		{Title: "due sooner", DueDate: "2025-07-01", Status: "done"},
		{Title: "undated new", Status: "in progress"},
	}
	for i := range inputs {
		inputs[i].RoomID = room.ID
		if err := repo.CreateTask(ctx, &inputs[i]); err != nil {
			t.Fatal(err)
		}
	}

	tasks, err := repo.ListTasks(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"due sooner", "due later", "undated new", "undated old"}
	for i, task := range tasks {
		if task.Title != want[i] {
			t.Errorf("tasks[%d] = %q, want %q", i, task.Title, want[i])
		}
	}

	set := database.NewRoomIDSet(room.ID)
	if n, err := repo.CountPending(ctx, set); err != nil || n != 2 {
		t.Errorf("CountPending() = %d, %v; want 2", n, err)
	}

	found, err := repo.UpdateStatus(ctx, inputs[0].ID, models.TaskStatusDone)
	if err != nil || !found {
		t.Fatalf("UpdateStatus() = %v, %v", found, err)
	}
	if n, _ := repo.CountPending(ctx, set); n != 1 {
		t.Errorf("CountPending() after update = %d, want 1", n)
	}

	if _, err := repo.CountPending(ctx, database.NewRoomIDSet()); !errors.Is(err, database.ErrEmptyRoomSet) {
		t.Errorf("empty set error = %v, want ErrEmptyRoomSet", err)
	}
}

func TestExpenseSum(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "ana@example.com")
	room := createTestRoom(t, db, user.ID, "EXPN01")
	empty := createTestRoom(t, db, user.ID, "EXPN02")
	repo := NewExpenseRepository(db)

	for _, e := range []models.Expense{
		{Description: "Dinner", Amount: 5050, SpentOn: "2025-07-01"},
		{Description: "Museum", Amount: 2025, SpentOn: "2025-07-03", PaidBy: "Ana"},
	} {
		e.RoomID = room.ID
		if err := repo.CreateExpense(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		rooms database.RoomIDSet
		want  models.Amount
	}{
		{name: "room with expenses", rooms: database.NewRoomIDSet(room.ID), want: 7075},
		{name: "room without expenses", rooms: database.NewRoomIDSet(empty.ID), want: 0},
		{name: "both rooms", rooms: database.NewRoomIDSet(room.ID, empty.ID), want: 7075},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.SumExpenses(ctx, tt.rooms)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("SumExpenses() = %s, want %s", got, tt.want)
			}
		})
	}

	list, err := repo.ListExpenses(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Description != "Museum" || list[0].PaidBy != "Ana" {
		t.Errorf("ListExpenses() = %+v, want newest date first", list)
	}
}

func TestPollTallyAndDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "ana@example.com")
	room := createTestRoom(t, db, user.ID, "POLL01")
	repo := NewPollRepository(db)

	first := &models.Poll{RoomID: room.ID, Title: "First", Options: []string{"A", "B", "C"}, Status: models.PollStatusOpen}
	second := &models.Poll{RoomID: room.ID, Title: "Second", Options: []string{"Yes", "No"}, Status: models.PollStatusOpen}
	for _, p := range []*models.Poll{first, second} {
		if err := repo.CreatePoll(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	for _, pos := range []int{0, 1, 1, 2} {
		if err := repo.AddVote(ctx, first.ID, pos); err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.AddVote(ctx, first.ID, 3); err == nil {
		t.Error("vote for a missing option position should violate the foreign key")
	}

	polls, err := repo.ListPolls(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(polls) != 2 || polls[0].ID != second.ID {
		t.Fatalf("ListPolls() order = %+v, want newest first", polls)
	}
	if fmt.Sprint(polls[1].Tally) != "[1 2 1]" {
		t.Errorf("tally = %v, want [1 2 1]", polls[1].Tally)
	}
	if fmt.Sprint(polls[0].Tally) != "[0 0]" {
		t.Errorf("empty tally = %v, want [0 0]", polls[0].Tally)
	}

	if n, err := repo.CountOpen(ctx, database.NewRoomIDSet(room.ID)); err != nil || n != 2 {
		t.Errorf("CountOpen() = %d, %v; want 2", n, err)
	}
	if _, err := repo.UpdateStatus(ctx, second.ID, models.PollStatusClosed); err != nil {
		t.Fatal(err)
	}
	if n, _ := repo.CountOpen(ctx, database.NewRoomIDSet(room.ID)); n != 1 {
		t.Errorf("CountOpen() after close = %d, want 1", n)
	}

	if err := repo.DeletePoll(ctx, first.ID); err != nil {
		t.Fatalf("DeletePoll() error = %v", err)
	}
	if n, _ := repo.CountVotes(ctx, first.ID); n != 0 {
		t.Errorf("votes left after delete = %d", n)
	}
	if p, err := repo.GetPoll(ctx, first.ID); err != nil || p != nil {
		t.Errorf("GetPoll(deleted) = %+v, %v", p, err)
	}
	if err := repo.DeletePoll(ctx, first.ID); err != nil {
		t.Errorf("repeat DeletePoll() error = %v", err)
	}
}

func TestInsertIntoDeletedRoom(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	creator := createTestUser(t, db, "creator@example.com")
	room := createTestRoom(t, db, creator.ID, "GONE01")

	poll := &models.Poll{RoomID: room.ID, Title: "Dinner?", Status: models.PollStatusOpen, Options: []string{"Yes", "No"}}
	if err := NewPollRepository(db).CreatePoll(ctx, poll); err != nil {
		t.Fatal(err)
	}
	if err := NewRoomRepository(db).DeleteRoomCascade(ctx, room.ID); err != nil {
		t.Fatal(err)
	}

	inserts := map[string]func() error{
		"itinerary entry": func() error {
			return NewItineraryRepository(db).CreateEntry(ctx, &models.ItineraryEntry{RoomID: room.ID, Day: "2025-07-01", Description: "Museum"})
		},
		"task": func() error {
			return NewTaskRepository(db).CreateTask(ctx, &models.Task{RoomID: room.ID, Title: "Book", Status: "pending"})
		},
		"expense": func() error {
			return NewExpenseRepository(db).CreateExpense(ctx, &models.Expense{RoomID: room.ID, Description: "Taxi", Amount: 1200, SpentOn: "2025-07-01"})
		},
		"poll": func() error {
			return NewPollRepository(db).CreatePoll(ctx, &models.Poll{RoomID: room.ID, Title: "Beach?", Status: models.PollStatusOpen, Options: []string{"Yes"}})
		},
		"vote": func() error {
			return NewPollRepository(db).AddVote(ctx, poll.ID, 0)
		},
	}
	for name, insert := range inserts {
		t.Run(name, func(t *testing.T) {
			err := insert()
			if !errors.Is(err, ErrParentMissing) {
				t.Errorf("error = %v, want ErrParentMissing", err)
			}
			if errors.Is(err, ErrStoreUnavailable) {
				t.Errorf("error = %v should not be a store failure", err)
			}
		})
	}
}
