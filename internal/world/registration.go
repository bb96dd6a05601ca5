package world

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Faultbox/bluebear/internal/engine/input"
	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
)

// Event tags fired by the picking pipeline.
const (
	EventMouseIn   = "mouse-in"
	EventMouseOut  = "mouse-out"
	EventMouseDown = "mouse-down"
	EventMouseUp   = "mouse-up"
)

// EventCallback receives the input that triggered an event and the
// instance it landed on.
type EventCallback func(meta input.Metadata, target *scenegraph.Model)

// ClassSet is an unordered set of class tags.
type ClassSet map[string]struct{}

// NewClassSet builds a set from tags. Duplicates collapse.
func NewClassSet(tags ...string) ClassSet {
	s := make(ClassSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Equal reports whether both sets hold exactly the same tags.
func (s ClassSet) Equal(other ClassSet) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if _, ok := other[t]; !ok {
			return false
		}
	}
	return true
}

// Has reports whether tag is in the set.
func (s ClassSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

func (s ClassSet) String() string {
	tags := make([]string, 0, len(s))
	for t := range s {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return "{" + strings.Join(tags, ",") + "}"
}

// ModelRegistration is a live instance placed in the world.
type ModelRegistration struct {
	ID         uuid.UUID
	OriginalID string
	Classes    ClassSet
	Instance   *scenegraph.Model

	// Events maps an event tag to its callback slots. A cleared slot is
	// nil and is reused by the next registration for that tag.
	Events map[string][]EventCallback
}

func newRegistration(originalID string, classes ClassSet, instance *scenegraph.Model) *ModelRegistration {
	return &ModelRegistration{
		ID:         uuid.New(),
		OriginalID: originalID,
		Classes:    classes,
		Instance:   instance,
		Events:     make(map[string][]EventCallback),
	}
}

// addEvent stores cb in the first empty slot for tag, appending when none
// is free, and returns the slot index. A nil cb is not stored and yields -1.
func (r *ModelRegistration) addEvent(tag string, cb EventCallback) int {
	if cb == nil {
		return -1
	}
	slots := r.Events[tag]
	for i, existing := range slots {
		if existing == nil {
			slots[i] = cb
			return i
		}
	}
	r.Events[tag] = append(slots, cb)
	return len(slots)
}

// clearEvent empties a slot without shrinking the list.
func (r *ModelRegistration) clearEvent(tag string, slot int) bool {
	slots := r.Events[tag]
	if slot < 0 || slot >= len(slots) || slots[slot] == nil {
		return false
	}
	slots[slot] = nil
	return true
}

// fire calls every filled slot for tag in slot order. A callback that
// calls meta.CancelAll stops the rest.
func (r *ModelRegistration) fire(tag string, meta input.Metadata) {
	cancelled := false
	meta = input.WithCancel(meta, &cancelled)
	// Callbacks may register more events, so iterate over a snapshot.
	slots := append([]EventCallback(nil), r.Events[tag]...)
	for _, cb := range slots {
		if cb == nil {
			continue
		}
		cb(meta, r.Instance)
		if cancelled {
			return
		}
	}
}
