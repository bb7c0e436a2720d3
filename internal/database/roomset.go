package database

import (
	"errors"
	"strings"
)

// ErrEmptyRoomSet is returned when an aggregate is asked to scope itself to
// no rooms at all. Callers short-circuit before reaching the store.
var ErrEmptyRoomSet = errors.New("room id set is empty")

// RoomIDSet is a de-duplicated set of room ids used to scope aggregate
// queries. It expands to a bound IN list; ids are never formatted into SQL.
type RoomIDSet struct {
	ids []int64
}

// NewRoomIDSet builds a set from ids, dropping duplicates and keeping the
// first-seen order.
func NewRoomIDSet(ids ...int64) RoomIDSet {
	seen := make(map[int64]struct{}, len(ids))
	set := RoomIDSet{ids: make([]int64, 0, len(ids))}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		set.ids = append(set.ids, id)
	}
	return set
}

// Len returns the number of distinct ids.
func (s RoomIDSet) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the ids in the set.
func (s RoomIDSet) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

// InClause returns "<column> IN (?, ?, ...)" and the matching arguments.
func (s RoomIDSet) InClause(column string) (string, []any, error) {
	if len(s.ids) == 0 {
		return "", nil, ErrEmptyRoomSet
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(s.ids)), ", ")
	args := make([]any, len(s.ids))
	for i, id := range s.ids {
		args[i] = id
	}
	return column + " IN (" + placeholders + ")", args, nil
}
