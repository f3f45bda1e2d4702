package types

// ConnectionState is the lifecycle of one serial port session.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)

// DisabledMode is the controller name reported while routing points at the
// empty slot.
const DisabledMode = "disabled"
