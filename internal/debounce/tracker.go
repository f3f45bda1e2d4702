// Package debounce turns a noisy 0..255 signal into one of a fixed number of
// discrete states.
package debounce

// MaxStates keeps the sub-band width (256 / (2*states-1)) above zero.
const MaxStates = 128

// ChangeFunc is called with the new and the previous state.
type ChangeFunc func(newState, previousState int)

// Tracker splits the byte range into 2N-1 sub-bands. Even bands belong to a
// single state, odd bands sit between two states and resolve to the upper
// one, so a reading has to cross a whole band to move the state.
type Tracker struct {
	states   int
	bands    int
	current  int
	onChange ChangeFunc
}

// New creates a tracker with states clamped to 1..MaxStates, starting at initial.
func New(states, initial int, onChange ChangeFunc) *Tracker {
	states = max(1, min(states, MaxStates))
	initial = max(0, min(initial, states-1))
	return &Tracker{
		states:   states,
		bands:    2*states - 1,
		current:  initial,
		onChange: onChange,
	}
}

// Observe classifies raw and fires the change callback when the state moves.
func (t *Tracker) Observe(raw byte) {
	band := int(raw) / (256 / t.bands)
	state := (band + 1) / 2
	// Integer band width leaves a remainder at the top of the range that
	// can land several bands past the last state.
	if state >= t.states {
		state = t.states - 1
	}

	if state == t.current {
		return
	}
	previous := t.current
	if t.onChange != nil {
		t.onChange(state, previous)
	}
	t.current = state
}

// State returns the current state, always within [0, States()).
func (t *Tracker) State() int {
	return t.current
}

// States returns the number of states.
func (t *Tracker) States() int {
	return t.states
}
