package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"triproom/internal/database"
	"triproom/internal/models"
)

// DashboardService rolls per-room facts up into user and room summaries
type DashboardService struct {
	memberships *MembershipService
	rooms       *RoomService
	itinerary   *ItineraryService
	tasks       *TaskService
	expenses    *ExpenseService
	polls       *PollService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	memberships *MembershipService,
	rooms *RoomService,
	itinerary *ItineraryService,
	tasks *TaskService,
	expenses *ExpenseService,
	polls *PollService,
) *DashboardService {
	return &DashboardService{
		memberships: memberships,
		rooms:       rooms,
		itinerary:   itinerary,
		tasks:       tasks,
		expenses:    expenses,
		polls:       polls,
	}
}

// SummaryForUser aggregates pending tasks, open polls and spend over every
// room the user created or joined. A user without rooms gets zeros and no
// aggregate query is issued.
func (s *DashboardService) SummaryForUser(ctx context.Context, userID int64) (*models.DashboardSummary, error) {
	rooms, err := s.memberships.RoomsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{Rooms: rooms}
	if len(rooms) == 0 {
		return summary, nil
	}

	ids := make([]int64, len(rooms))
	for i, room := range rooms {
		ids[i] = room.ID
	}
	set := database.NewRoomIDSet(ids...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.tasks.CountPending(gctx, set)
		summary.PendingTasks = n
		return err
	})
	g.Go(func() error {
		n, err := s.polls.CountOpen(gctx, set)
		summary.OpenPolls = n
		return err
	})
	g.Go(func() error {
		total, err := s.expenses.SumExpenses(gctx, set)
		summary.TotalExpenses = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return summary, nil
}

// TotalsForRoom aggregates a single room. Every counter is zero for a room
// with no content.
func (s *DashboardService) TotalsForRoom(ctx context.Context, roomID int64) (*models.RoomTotals, error) {
	if _, err := s.rooms.GetRoomByID(ctx, roomID); err != nil {
		return nil, err
	}
	set := database.NewRoomIDSet(roomID)
	totals := &models.RoomTotals{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.itinerary.CountEntries(gctx, set)
		totals.ItineraryCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.tasks.CountPending(gctx, set)
		totals.PendingTasks = n
		return err
	})
	g.Go(func() error {
		n, err := s.polls.CountOpen(gctx, set)
		totals.OpenPolls = n
		return err
	})
	g.Go(func() error {
		total, err := s.expenses.SumExpenses(gctx, set)
		totals.TotalExpenses = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to total room: %w", err)
	}
	return totals, nil
}
