package models

// CommandAction is how an assignment update changes an item's people.
type CommandAction string

const (
	ActionAdd    CommandAction = "add"    // union with current people
	ActionRemove CommandAction = "remove" // difference with current people
	ActionSet    CommandAction = "set"    // replace current people
)

// AssignmentUpdate is one change requested by a free-text command.
type AssignmentUpdate struct {
	// ItemName is matched against current item names; the interpreter is
	// responsible for loose matching.
	ItemName string        `json:"itemName"`
	People   []string      `json:"people"`
	Action   CommandAction `json:"action"`
}

// CommandResult is the interpreted form of a free-text command.
type CommandResult struct {
	Assignments []AssignmentUpdate `json:"assignments"`

	// NewPeople are names mentioned in the command that are not registered yet.
	NewPeople []string `json:"newPeople,omitempty"`

	// Response is a human-readable confirmation of what changed.
	Response string `json:"response"`
}

// CommandSnapshot is the state sent along with a command for interpretation.
type CommandSnapshot struct {
	Items       []ReceiptItem `json:"items"`
	People      []string      `json:"people"`
	Assignments []Assignment  `json:"assignments"`
}
