package models

import "time"

// Poll statuses
const (
	PollStatusOpen   = "open"
	PollStatusClosed = "closed"
)

// Poll is a question put to a room. Options are positional: an option's
// identity is its zero-based index and never changes.
type Poll struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"room_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Options     []string  `json:"options"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsOpen reports whether the poll still accepts votes.
func (p *Poll) IsOpen() bool {
	return p.Status == PollStatusOpen
}

// ValidOption reports whether idx addresses one of the poll's options.
func (p *Poll) ValidOption(idx int) bool {
	return idx >= 0 && idx < len(p.Options)
}

// PollWithTally is a poll together with its vote counts.
// Tally[i] is the number of votes for Options[i].
type PollWithTally struct {
	Poll
	Tally []int `json:"votes"`
}

// NewTally returns a zero-filled tally for the poll with counts applied.
// Counts for positions outside the option list are ignored.
func NewTally(poll Poll, counts map[int]int) PollWithTally {
	tally := make([]int, len(poll.Options))
	for idx, n := range counts {
		if poll.ValidOption(idx) {
			tally[idx] = n
		}
	}
	return PollWithTally{Poll: poll, Tally: tally}
}
