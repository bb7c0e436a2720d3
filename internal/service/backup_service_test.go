package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
)

func TestBackupRoundTrip(t *testing.T) {
	src := newTestServices(t)
	ctx := context.Background()

	ana := src.user(t, "ana@example.com")
	ben := src.user(t, "ben@example.com")
	room, err := src.rooms.CreateRoom(ctx, ana.ID, RoomInput{Name: "Summer", Destination: "Lisbon", Budget: "900.10"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.membership.Join(ctx, ben.ID, room.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := src.itinerary.AddEntry(ctx, room.ID, EntryInput{Day: "2025-07-01", Description: "Arrive", StartTime: "14:00"}); err != nil {
		t.Fatal(err)
	}
	if _, err := src.tasks.AddTask(ctx, room.ID, TaskInput{Title: "Pack", DueDate: "2025-06-30"}); err != nil {
		t.Fatal(err)
	}
	if _, err := src.expenses.AddExpense(ctx, room.ID, ExpenseInput{Description: "Dinner", Amount: "50.50", Date: "2025-07-01"}); err != nil {
		t.Fatal(err)
	}
	poll, err := src.polls.CreatePoll(ctx, room.ID, PollInput{Title: "Beach?", Options: []string{"Yes", "No", "Maybe"}})
	if err != nil {
		t.Fatal(err)
	}
	for _, idx := range []int{0, 1, 1, 2} {
		idx := idx
		if err := src.polls.CastVote(ctx, poll.ID, &idx); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	exported, err := src.backup.Export(ctx, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(exported.Users) != 2 || len(exported.Rooms) != 1 || len(exported.Rooms[0].Members) != 2 {
		t.Errorf("export = %d users, %d rooms", len(exported.Users), len(exported.Rooms))
	}

	dst := newTestServices(t)
	if err := dst.backup.Import(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	restored, err := dst.rooms.GetRoomByCode(ctx, room.Code)
	if err != nil {
		t.Fatal(err)
	}
	if restored.ID != room.ID || restored.Budget == nil || restored.Budget.String() != "900.10" {
		t.Errorf("restored room = %+v", restored)
	}

	polls, err := dst.polls.ListPolls(ctx, room.ID)
	if err != nil || len(polls) != 1 || fmt.Sprint(polls[0].Tally) != "[1 2 1]" {
		t.Errorf("restored polls = %+v, %v", polls, err)
	}

	summary, err := dst.dashboard.SummaryForUser(ctx, ben.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.PendingTasks != 1 || summary.OpenPolls != 1 || summary.TotalExpenses.String() != "50.50" {
		t.Errorf("restored summary = %+v", summary)
	}

	// New rows get fresh ids after an import.
	if _, err := dst.rooms.CreateRoom(ctx, ana.ID, RoomInput{Name: "Winter", Destination: "Oslo"}); err != nil {
		t.Errorf("CreateRoom() after import error = %v", err)
	}
}

func TestImportIsAtomic(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	// The second user repeats the first email, so the whole import fails.
	doc := `{"version":"1.0","users":[
		{"id":1,"email":"a@example.com","password_hash":"h","name":"A","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"},
		{"id":2,"email":"a@example.com","password_hash":"h","name":"B","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"}
	]}`
	if err := svc.backup.Import(ctx, bytes.NewBufferString(doc)); err == nil {
		t.Fatal("Import() should fail on duplicate email")
	}
	if n := svc.count(t, "SELECT COUNT(*) FROM users"); n != 0 {
		t.Errorf("users after failed import = %d, want 0", n)
	}
}
