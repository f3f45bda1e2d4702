package input

import "serial-controller/internal/logger"

// Nop logs every call at debug level and injects nothing. Useful for a dry
// run against real hardware.
type Nop struct {
	logger *logger.Logger
}

func NewNop(l *logger.Logger) *Nop {
	return &Nop{logger: l}
}

func (n *Nop) KeyDown(key Key) error {
	n.logger.Debugf("key down %s", key)
	return nil
}

func (n *Nop) KeyUp(key Key) error {
	n.logger.Debugf("key up %s", key)
	return nil
}

func (n *Nop) KeyPress(key Key) error {
	n.logger.Debugf("key press %s", key)
	return nil
}

func (n *Nop) SetAxis(axis Axis, value float32) error {
	n.logger.Debugf("axis %s = %.3f", axis, value)
	return nil
}

func (n *Nop) ResetAxes() error {
	n.logger.Debugf("axes reset")
	return nil
}

func (n *Nop) Close() error {
	return nil
}
