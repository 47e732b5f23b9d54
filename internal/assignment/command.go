package assignment

import (
	"slices"
	"strings"

	"github.com/mmynk/tabsplit/internal/models"
)

// ItemMatcher decides whether a name from an interpreted command refers to a
// receipt item. Loose matching belongs to the interpreter; implementations
// here only need to be as forgiving as the interpreter's output requires.
type ItemMatcher interface {
	Match(itemName string, item models.ReceiptItem) bool
}

// ItemMatcherFunc adapts a function to ItemMatcher.
type ItemMatcherFunc func(itemName string, item models.ReceiptItem) bool

func (f ItemMatcherFunc) Match(itemName string, item models.ReceiptItem) bool {
	return f(itemName, item)
}

// ExactMatcher matches names case-insensitively after trimming whitespace.
var ExactMatcher ItemMatcher = ItemMatcherFunc(func(itemName string, item models.ReceiptItem) bool {
	return strings.EqualFold(strings.TrimSpace(itemName), strings.TrimSpace(item.Name))
})

// Apply applies an interpreted command to the store.
//
// New people are registered first. Each update then applies to every item
// whose name matches: "set" replaces the item's people, "add" is a set union
// and "remove" a set difference. People named by "set" or "add" who are not
// registered are registered on the fly when the cap allows. Updates with an
// unknown action or no matching item are skipped.
//
// It returns the number of item assignments that were updated.
func (s *Store) Apply(items []models.ReceiptItem, result models.CommandResult, matcher ItemMatcher) int {
	if matcher == nil {
		matcher = ExactMatcher
	}
	for _, name := range result.NewPeople {
		s.AddPerson(name)
	}

	updated := 0
	for _, update := range result.Assignments {
		people := trimNames(update.People)
		switch update.Action {
		case models.ActionAdd, models.ActionSet:
			for _, p := range people {
				s.AddPerson(p)
			}
		case models.ActionRemove:
		default:
			continue
		}

		for _, item := range items {
			if !matcher.Match(update.ItemName, item) {
				continue
			}
			current, exists := s.people[item.ID]
			if !exists {
				continue
			}

			var next []string
			switch update.Action {
			case models.ActionSet:
				next = people
			case models.ActionAdd:
				next = append(slices.Clone(current), people...)
			case models.ActionRemove:
				next = slices.DeleteFunc(slices.Clone(current), func(p string) bool {
					return slices.Contains(people, p)
				})
			}
			s.SetPeople(item.ID, next)
			updated++
		}
	}
	return updated
}

func trimNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
