package fsm

import "github.com/librescoot/librefsm"

// Actions is implemented by the session that owns the machine.
type Actions interface {
	EnterDisconnected(c *librefsm.Context) error
	EnterConnecting(c *librefsm.Context) error

	// EnterConnected prepares fresh per-connection state (calibration,
	// mode selector) before the first line is read.
	EnterConnected(c *librefsm.Context) error

	// ExitConnected stops every controller, whichever one was active.
	ExitConnected(c *librefsm.Context) error
}
