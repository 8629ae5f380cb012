package recurrence

import (
	"encoding/json"
	"slices"
)

// Selection is an insertion-ordered set bounded by the recurrence count.
// Membership checks are linear; the largest selection is 31 month days.
type Selection[T comparable] struct {
	members []T
}

func NewSelection[T comparable](members ...T) Selection[T] {
	selection := Selection[T]{}
	for _, member := range members {
		if !selection.Contains(member) {
			selection.members = append(selection.members, member)
		}
	}
	return selection
}

func (selection Selection[T]) Contains(member T) bool {
	return slices.Contains(selection.members, member)
}

func (selection Selection[T]) Len() int {
	return len(selection.members)
}

// Members returns a copy in insertion order.
func (selection Selection[T]) Members() []T {
	return slices.Clone(selection.members)
}

// Toggle removes a present member or inserts a new one. At capacity the
// earliest-added member is evicted first. The last remaining member can not
// be removed: a recurrence always keeps at least one active day.
func (selection Selection[T]) Toggle(member T, capacity int) Selection[T] {
	if index := slices.Index(selection.members, member); index >= 0 {
		if len(selection.members) == 1 {
			return selection
		}
		return Selection[T]{members: slices.Delete(slices.Clone(selection.members), index, index+1)}
	}

	members := slices.Clone(selection.members)
	if capacity < 1 {
		capacity = 1
	}
	for len(members) >= capacity {
		members = members[1:]
	}
	return Selection[T]{members: append(slices.Clone(members), member)}
}

// Truncate keeps the first capacity members without re-sorting them.
func (selection Selection[T]) Truncate(capacity int) Selection[T] {
	if capacity < 0 {
		capacity = 0
	}
	if len(selection.members) <= capacity {
		return selection
	}
	return Selection[T]{members: slices.Clone(selection.members[:capacity])}
}

// CanSelect reports whether member could be added without eviction.
func (selection Selection[T]) CanSelect(member T, capacity int) bool {
	if selection.Contains(member) {
		return true
	}
	return len(selection.members) < capacity
}

func (selection Selection[T]) MarshalJSON() ([]byte, error) {
	if selection.members == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(selection.members)
}

func (selection *Selection[T]) UnmarshalJSON(data []byte) error {
	var members []T
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	*selection = NewSelection(members...)
	return nil
}
