package lifecycle

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a trigger is not allowed in the
// current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// Machine tracks one document's lifecycle state and validates every
// transition before the controller touches the document store.
type Machine struct {
	current     State
	transitions map[State]map[Trigger]State
}

// NewMachine returns a machine holding the report lifecycle:
// New --CLAIM--> InProgress --COMPLETE--> Done.
func NewMachine(initial State) *Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}
	return &Machine{
		current: initial,
		transitions: map[State]map[Trigger]State{
			StateNew:        {TriggerClaim: StateInProgress},
			StateInProgress: {TriggerComplete: StateDone},
		},
	}
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state
func (m *Machine) CanFire(trigger Trigger) bool {
	_, ok := m.transitions[m.current][trigger]
	return ok
}

// Fire executes the trigger, transitioning to the new state if allowed
func (m *Machine) Fire(trigger Trigger) error {
	next, ok := m.transitions[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = next
	return nil
}
