// Package assignment holds the mutable splitting state of one session: which
// people are registered and which of them share each receipt item.
package assignment

import (
	"slices"
	"strings"

	"github.com/mmynk/tabsplit/internal/models"
)

// MaxPeople caps the person registry.
const MaxPeople = 50

// Store maps receipt items to the people sharing them and keeps the ordered
// person registry. There is exactly one assignment per item of the receipt it
// was initialized with.
//
// Store is not safe for concurrent use; a session mutates it from one goroutine.
type Store struct {
	itemIDs []string
	people  map[string][]string
	// registry keeps insertion order
	registry []string
}

// NewStore returns a store with one empty assignment per item.
func NewStore(items []models.ReceiptItem) *Store {
	s := &Store{}
	s.Initialize(items)
	return s
}

// Initialize replaces all assignments with one empty assignment per item and
// clears the registry. It must be called whenever the receipt changes.
func (s *Store) Initialize(items []models.ReceiptItem) {
	s.itemIDs = make([]string, 0, len(items))
	s.people = make(map[string][]string, len(items))
	for _, item := range items {
		if _, exists := s.people[item.ID]; exists {
			continue
		}
		s.itemIDs = append(s.itemIDs, item.ID)
		s.people[item.ID] = []string{}
	}
	s.registry = nil
}

// AddPerson appends a name to the registry. Blank names, exact duplicates and
// additions beyond MaxPeople are ignored. It reports whether the name was added.
func (s *Store) AddPerson(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || len(s.registry) >= MaxPeople || s.HasPerson(name) {
		return false
	}
	s.registry = append(s.registry, name)
	return true
}

// HasPerson reports whether name is registered (exact match).
func (s *Store) HasPerson(name string) bool {
	return slices.Contains(s.registry, name)
}

// People returns a copy of the registry in insertion order.
func (s *Store) People() []string {
	return slices.Clone(s.registry)
}

// ToggleAssignment adds person to the item if absent and removes them if
// present. Unknown items and unregistered people are ignored. It reports
// whether anything changed.
func (s *Store) ToggleAssignment(itemID, person string) bool {
	current, exists := s.people[itemID]
	if !exists || !s.HasPerson(person) {
		return false
	}
	if i := slices.Index(current, person); i >= 0 {
		s.people[itemID] = slices.Delete(current, i, i+1)
		return true
	}
	s.people[itemID] = append(current, person)
	return true
}

// RemovePersonFromItem removes person from the item if present.
func (s *Store) RemovePersonFromItem(itemID, person string) bool {
	current, exists := s.people[itemID]
	if !exists {
		return false
	}
	i := slices.Index(current, person)
	if i < 0 {
		return false
	}
	s.people[itemID] = slices.Delete(current, i, i+1)
	return true
}

// SetPeople replaces the item's people. Duplicates and unregistered names are
// dropped.
func (s *Store) SetPeople(itemID string, people []string) bool {
	if _, exists := s.people[itemID]; !exists {
		return false
	}
	next := []string{}
	for _, p := range people {
		if s.HasPerson(p) && !slices.Contains(next, p) {
			next = append(next, p)
		}
	}
	s.people[itemID] = next
	return true
}

// Assignment returns a copy of one item's assignment.
func (s *Store) Assignment(itemID string) (models.Assignment, bool) {
	people, exists := s.people[itemID]
	if !exists {
		return models.Assignment{}, false
	}
	return models.Assignment{ItemID: itemID, People: slices.Clone(people)}, true
}

// Assignments returns a copy of every assignment in receipt order.
func (s *Store) Assignments() []models.Assignment {
	out := make([]models.Assignment, 0, len(s.itemIDs))
	for _, id := range s.itemIDs {
		out = append(out, models.Assignment{ItemID: id, People: slices.Clone(s.people[id])})
	}
	return out
}
