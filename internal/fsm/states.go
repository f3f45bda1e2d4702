package fsm

import "github.com/librescoot/librefsm"

// Connection states of a serial session
const (
	StateDisconnected librefsm.StateID = "disconnected"
	StateConnecting   librefsm.StateID = "connecting"
	StateConnected    librefsm.StateID = "connected"
)

// Connection events
const (
	EvConnect    librefsm.EventID = "connect"
	EvOpened     librefsm.EventID = "opened"
	EvOpenFailed librefsm.EventID = "open-failed"
	EvReadFailed librefsm.EventID = "read-failed"
)
