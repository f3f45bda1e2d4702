package fsm

import "github.com/librescoot/librefsm"

// NewDefinition creates the connection FSM definition. Retrying after a
// failure is driven by the session loop, which sends EvConnect again once
// the reconnect delay has passed.
func NewDefinition(actions Actions) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateDisconnected,
			librefsm.WithOnEnter(actions.EnterDisconnected),
		).
		State(StateConnecting,
			librefsm.WithOnEnter(actions.EnterConnecting),
		).
		State(StateConnected,
			librefsm.WithOnEnter(actions.EnterConnected),
			librefsm.WithOnExit(actions.ExitConnected),
		).
		Transition(StateDisconnected, EvConnect, StateConnecting).
		Transition(StateConnecting, EvOpened, StateConnected).
		Transition(StateConnecting, EvOpenFailed, StateDisconnected).
		Transition(StateConnected, EvReadFailed, StateDisconnected).
		Initial(StateDisconnected)
}
