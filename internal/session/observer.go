package session

import "serial-controller/internal/types"

// Observer is notified of session events. Calls arrive from the session
// goroutine, so implementations shared by several sessions must be safe for
// concurrent use and must not block.
type Observer interface {
	ConnectionChanged(port string, state types.ConnectionState)
	// ModeChanged reports the new mode index and the name of its
	// controller, or types.DisabledMode.
	ModeChanged(port string, mode int, controller string)
	ChannelActivated(port string, channel byte, name string)
	CalibrationReset(port string, channels []byte)
}

// Observers fans every event out to each member in order.
type Observers []Observer

func (o Observers) ConnectionChanged(port string, state types.ConnectionState) {
	for _, obs := range o {
		obs.ConnectionChanged(port, state)
	}
}

func (o Observers) ModeChanged(port string, mode int, controller string) {
	for _, obs := range o {
		obs.ModeChanged(port, mode, controller)
	}
}

func (o Observers) ChannelActivated(port string, channel byte, name string) {
	for _, obs := range o {
		obs.ChannelActivated(port, channel, name)
	}
}

func (o Observers) CalibrationReset(port string, channels []byte) {
	for _, obs := range o {
		obs.CalibrationReset(port, channels)
	}
}
