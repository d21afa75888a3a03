// Package draft keeps the per-section working copy a user edits before it is
// synced to the profile service.
package draft

import (
	"fmt"
	"sync"

	"github.com/khoahotran/provenpro/internal/domain/collection"
	"github.com/khoahotran/provenpro/pkg/apperror"
)

// Store is the working collection of one kind plus at most one open edit
// buffer. Nothing here is persisted.
type Store struct {
	mu        sync.Mutex
	kind      collection.Kind
	validator *Validator
	working   collection.Collection
	buffer    *collection.Item
	origin    *collection.Item
	closed    bool
}

func NewStore(kind collection.Kind, v *Validator) *Store {
	return &Store{kind: kind, validator: v, working: collection.Collection{}}
}

func (s *Store) Kind() collection.Kind {
	return s.kind
}

// Load replaces the working collection with a copy of initial.
func (s *Store) Load(initial collection.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = initial.Clone()
}

// BeginEdit opens the buffer on a copy of item, or on the kind's empty form
// when item is nil. It returns the opened buffer.
func (s *Store) BeginEdit(item *collection.Item) collection.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item == nil {
		buf := s.kind.EmptyItem()
		s.buffer = &buf
		s.origin = nil
		return buf.Clone()
	}
	buf := item.Clone()
	orig := item.Clone()
	s.buffer = &buf
	s.origin = &orig
	return buf.Clone()
}

// CommitEdit validates buffer and merges it into the working collection.
// Editing replaces the item the buffer was opened from; creating appends
// unless an equal item exists. The working collection is untouched on error.
func (s *Store) CommitEdit(buffer collection.Item) (collection.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.validator.Clean(buffer)
	if err := s.validator.Check(s.kind, item); err != nil {
		return nil, err
	}

	next := s.working.Clone()
	target := s.targetIndex(item)

	if target < 0 && (s.origin != nil || item.HasID()) {
		return nil, apperror.NewNotFound(s.kind.Name, s.describe(item))
	}

	if dup := collection.IndexOfDuplicate(next, item, s.kind.KeyFields, target); dup >= 0 {
		return nil, apperror.NewDuplicate(s.kind.Name, s.describe(next[dup]))
	}

	if target >= 0 {
		if item.ID == "" {
			item.ID = next[target].ID
		}
		next[target] = item
	} else {
		next = append(next, item)
	}

	s.working = next
	s.buffer = nil
	s.origin = nil
	return next.Clone(), nil
}

// targetIndex finds the item being edited: by id when there is one, else by
// equality with the item the buffer was opened from. -1 means create.
func (s *Store) targetIndex(item collection.Item) int {
	if item.HasID() {
		return s.working.IndexOfID(item.ID)
	}
	if s.origin == nil {
		return -1
	}
	if s.origin.HasID() {
		return s.working.IndexOfID(s.origin.ID)
	}
	return collection.IndexOfDuplicate(s.working, *s.origin, s.kind.KeyFields, -1)
}

func (s *Store) describe(item collection.Item) string {
	if len(s.kind.KeyFields) == 0 {
		return item.ID
	}
	return fmt.Sprintf("%s '%s'", s.kind.KeyFields[0], item.Get(s.kind.KeyFields[0]))
}

// DiscardEdit closes the buffer without touching the working collection.
func (s *Store) DiscardEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = nil
	s.origin = nil
}

func (s *Store) Working() collection.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

func (s *Store) Buffer() (collection.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return collection.Item{}, false
	}
	return s.buffer.Clone(), true
}

// RemoveByID drops a confirmed-deleted item. It reports whether one was found.
func (s *Store) RemoveByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.working.IndexOfID(id) < 0 {
		return false
	}
	s.working = s.working.WithoutID(id)
	return true
}

// Close marks the store as gone; results of in-flight requests are not
// applied to a closed store.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buffer = nil
	s.origin = nil
}

func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// LoadIfOpen replaces the working collection unless the store was closed.
func (s *Store) LoadIfOpen(c collection.Collection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.working = c.Clone()
	return true
}
