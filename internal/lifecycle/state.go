package lifecycle

// State is a report document's position in its lifecycle. Documents are
// uploaded into New; the controller is the only thing that moves them.
type State string

const (
	StateNew        State = "NEW"
	StateInProgress State = "IN_PROGRESS"
	StateDone       State = "DONE"
)

var validStates = map[State]bool{
	StateNew:        true,
	StateInProgress: true,
	StateDone:       true,
}

// IsTerminal returns true if no further transitions are allowed. Done is
// terminal even for failed runs: a report is never re-processed, a human
// must re-upload it.
func (s State) IsTerminal() bool {
	return s == StateDone
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// Folder returns the document-store folder holding documents in this
// state.
func (s State) Folder() string {
	switch s {
	case StateNew:
		return "New"
	case StateInProgress:
		return "InProgress"
	default:
		return "Done"
	}
}

// Trigger is an event that moves a document between states
type Trigger string

const (
	// TriggerClaim takes the single New document into processing.
	TriggerClaim Trigger = "CLAIM"
	// TriggerComplete moves a document to Done, whether or not
	// processing succeeded.
	TriggerComplete Trigger = "COMPLETE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
