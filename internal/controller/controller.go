// Package controller translates calibrated device input into simulated
// input for one target application.
package controller

// Controller receives input only while it is the active mode of a session.
// Start and Stop are called from the session goroutine and must tolerate
// repeated calls.
type Controller interface {
	Start()
	Stop()
	OnAnalogInput(channel byte, value byte)
	OnDigitalInput(channel byte, value bool)
}

// Named is implemented by controllers that report a display name for mode
// changes.
type Named interface {
	Name() string
}

// NameOf returns the controller's name, or "unnamed" when it has none.
func NameOf(c Controller) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return "unnamed"
}
