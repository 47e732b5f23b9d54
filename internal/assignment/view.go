package assignment

// ViewState is the ephemeral UI state of a session. None of it affects the
// allocation; it is passed explicitly instead of living in globals.
type ViewState struct {
	// Selected is the person item toggles apply to.
	Selected string

	// Expanded is the person whose breakdown is shown in detail.
	Expanded string

	TipPanelOpen bool
}

// AddPerson registers name and selects it when nobody is selected yet.
func (v *ViewState) AddPerson(s *Store, name string) bool {
	if !s.AddPerson(name) {
		return false
	}
	if v.Selected == "" {
		people := s.People()
		v.Selected = people[len(people)-1]
	}
	return true
}

// Select makes name the selected person. Unregistered names are ignored.
func (v *ViewState) Select(s *Store, name string) bool {
	if !s.HasPerson(name) {
		return false
	}
	v.Selected = name
	return true
}

// ToggleSelected toggles the selected person on an item. It is a no-op when
// nobody is selected.
func (v *ViewState) ToggleSelected(s *Store, itemID string) bool {
	if v.Selected == "" {
		return false
	}
	return s.ToggleAssignment(itemID, v.Selected)
}

// Reset clears everything, as after a rescan.
func (v *ViewState) Reset() {
	*v = ViewState{}
}
