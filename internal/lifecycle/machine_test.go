package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_HappyPath(t *testing.T) {
	m := NewMachine(StateNew)
	assert.Equal(t, StateNew, m.State())
	assert.False(t, m.State().IsTerminal())

	require.True(t, m.CanFire(TriggerClaim))
	require.NoError(t, m.Fire(TriggerClaim))
	assert.Equal(t, StateInProgress, m.State())

	require.True(t, m.CanFire(TriggerComplete))
	require.NoError(t, m.Fire(TriggerComplete))
	assert.Equal(t, StateDone, m.State())
	assert.True(t, m.State().IsTerminal())
}

func TestMachine_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		initial State
		trigger Trigger
	}{
		{"complete from new", StateNew, TriggerComplete},
		{"claim from in progress", StateInProgress, TriggerClaim},
		{"claim from done", StateDone, TriggerClaim},
		{"complete from done", StateDone, TriggerComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(tt.initial)
			assert.False(t, m.CanFire(tt.trigger))
			err := m.Fire(tt.trigger)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.initial, m.State(), "failed fire must not change state")
		})
	}
}

func TestNewMachine_PanicsOnInvalidState(t *testing.T) {
	assert.Panics(t, func() { NewMachine(State("LIMBO")) })
}

func TestState_Folder(t *testing.T) {
	assert.Equal(t, "New", StateNew.Folder())
	assert.Equal(t, "InProgress", StateInProgress.Folder())
	assert.Equal(t, "Done", StateDone.Folder())
}
