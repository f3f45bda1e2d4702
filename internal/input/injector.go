// Package input injects simulated keyboard and gamepad input.
package input

import (
	"errors"
	"sync"
)

// Key names a keyboard key independent of the backend ("A", "F5", "Space").
type Key string

// Axis names a gamepad axis. The stick takes -1..1, triggers 0..1.
type Axis int

const (
	AxisLeftTrigger Axis = iota
	AxisRightTrigger
	AxisLeftStickX
	AxisLeftStickY
)

func (a Axis) String() string {
	switch a {
	case AxisLeftTrigger:
		return "left-trigger"
	case AxisRightTrigger:
		return "right-trigger"
	case AxisLeftStickX:
		return "left-stick-x"
	case AxisLeftStickY:
		return "left-stick-y"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownKey  = errors.New("unknown key")
	ErrUnsupported = errors.New("not supported by this injector")
)

// Injector is the capability controllers use to drive the target application.
type Injector interface {
	KeyDown(key Key) error
	KeyUp(key Key) error
	KeyPress(key Key) error
	SetAxis(axis Axis, value float32) error
	ResetAxes() error
	Close() error
}

// Locked serialises calls to an injector shared by several sessions.
type Locked struct {
	mu    sync.Mutex
	inner Injector
}

func NewLocked(inner Injector) *Locked {
	return &Locked{inner: inner}
}

func (l *Locked) KeyDown(key Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.KeyDown(key)
}

func (l *Locked) KeyUp(key Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.KeyUp(key)
}

func (l *Locked) KeyPress(key Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.KeyPress(key)
}

func (l *Locked) SetAxis(axis Axis, value float32) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.SetAxis(axis, value)
}

func (l *Locked) ResetAxes() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.ResetAxes()
}

func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Close()
}

func clampAxis(axis Axis, value float32) float32 {
	lo := float32(-1)
	if axis == AxisLeftTrigger || axis == AxisRightTrigger {
		lo = 0
	}
	if value < lo {
		return lo
	}
	if value > 1 {
		return 1
	}
	return value
}
