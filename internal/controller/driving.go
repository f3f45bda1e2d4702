package controller

import (
	"serial-controller/internal/debounce"
	"serial-controller/internal/input"
	"serial-controller/internal/logger"
	"serial-controller/internal/pwm"
)

// Analog channels of the driving rig.
const (
	ChannelSteering   byte = 1
	ChannelThrottle   byte = 2
	ChannelBrake      byte = 3
	ChannelTurnSignal byte = 4
	ChannelShifter    byte = 5
)

const (
	// Brake pressure is simulated by holding the brake key for a fraction
	// of every period.
	BrakeFrequency = 10.0

	brakeKey       input.Key = "B"
	leftSignalKey  input.Key = "Z"
	rightSignalKey input.Key = "C"
	parkKey        input.Key = "P"

	steeringCenter byte = 127
)

// Three-position levers: down, center, up.
const (
	leverStates = 3
	leverDown   = 0
	leverCenter = 1
	leverUp     = 2
)

var drivingDigitalKeys = map[byte]input.Key{
	2:  "Y", // cruise control
	3:  "R", // boost
	4:  "G", // horn
	5:  "H", // headlights
	6:  "J", // high beams
	7:  "U", // emergency lights
	8:  "V", // spoiler
	9:  "L", // lock
	10: "F", // flip
	11: "X", // hazards
}

// Driving maps a wheel, two pedals, a turn signal stalk, a shifter and a
// button panel onto a gamepad and keyboard.
type Driving struct {
	injector input.Injector
	logger   *logger.Logger

	brake      *pwm.KeySignal
	turnSignal *debounce.Tracker
	shifter    *debounce.Tracker

	enabled   bool
	reversing bool
	steering  byte
	throttle  byte
	brakeLoad byte
}

func NewDriving(injector input.Injector, l *logger.Logger) *Driving {
	d := &Driving{
		injector: injector,
		logger:   l,
		steering: steeringCenter,
	}
	d.brake = pwm.NewKeySignal(brakeKey, BrakeFrequency, injector, l)
	d.brake.SetDutyCycle(0)
	d.turnSignal = debounce.New(leverStates, leverCenter, d.onTurnSignal)
	d.shifter = debounce.New(leverStates, leverCenter, d.onShift)
	return d
}

func (d *Driving) Name() string {
	return "driving"
}

func (d *Driving) Start() {
	if d.enabled {
		return
	}
	d.enabled = true
	d.logger.Debugf("Started")
	d.push()
}

// Stop centers every axis, releases the brake and resets the gamepad.
func (d *Driving) Stop() {
	if !d.enabled {
		return
	}
	d.enabled = false
	d.setAxis(input.AxisLeftStickX, 0)
	d.setAxis(input.AxisLeftTrigger, 0)
	d.setAxis(input.AxisRightTrigger, 0)
	d.brake.SetDutyCycle(0)
	d.brake.Stop()
	d.brake.Release()
	if err := d.injector.ResetAxes(); err != nil {
		d.logger.Warnf("Failed to reset gamepad: %v", err)
	}
	d.logger.Debugf("Stopped")
}

func (d *Driving) OnAnalogInput(channel byte, value byte) {
	switch channel {
	case ChannelSteering:
		d.steering = value
		d.push()
	case ChannelThrottle:
		d.throttle = value
		d.push()
	case ChannelBrake:
		d.brakeLoad = value
		d.push()
	case ChannelTurnSignal:
		d.turnSignal.Observe(value)
	case ChannelShifter:
		d.shifter.Observe(value)
	}
}

func (d *Driving) OnDigitalInput(channel byte, value bool) {
	key, ok := drivingDigitalKeys[channel]
	if !ok {
		return
	}
	var err error
	if value {
		err = d.injector.KeyDown(key)
	} else {
		err = d.injector.KeyUp(key)
	}
	if err != nil {
		d.logger.Warnf("Failed to send %s (down: %v): %v", key, value, err)
	}
}

// push sends the cached analog values to the injector while enabled.
func (d *Driving) push() {
	if !d.enabled {
		return
	}
	d.setAxis(input.AxisLeftStickX, float32(d.steering)/127.5-1)

	pedal := float32(d.throttle) / 255
	if d.reversing {
		d.setAxis(input.AxisRightTrigger, 0)
		d.setAxis(input.AxisLeftTrigger, pedal)
	} else {
		d.setAxis(input.AxisLeftTrigger, 0)
		d.setAxis(input.AxisRightTrigger, pedal)
	}

	d.brake.SetDutyCycle(float64(d.brakeLoad) / 255)
	d.brake.Start()
}

func (d *Driving) onTurnSignal(newState, previousState int) {
	switch {
	case newState == leverDown || (newState == leverCenter && previousState == leverDown):
		d.press(leftSignalKey)
	case newState == leverUp || (newState == leverCenter && previousState == leverUp):
		d.press(rightSignalKey)
	}
}

func (d *Driving) onShift(newState, previousState int) {
	reversing := newState == leverDown
	if reversing != d.reversing {
		d.reversing = reversing
		d.logger.Debugf("Reverse: %v", reversing)
		d.push()
	}
	if newState == leverUp || (newState == leverCenter && previousState == leverUp) {
		d.press(parkKey)
	}
}

func (d *Driving) setAxis(axis input.Axis, value float32) {
	if err := d.injector.SetAxis(axis, value); err != nil {
		d.logger.Warnf("Failed to set %s: %v", axis, err)
	}
}

func (d *Driving) press(key input.Key) {
	if err := d.injector.KeyPress(key); err != nil {
		d.logger.Warnf("Failed to press %s: %v", key, err)
	}
}

// Reversing reports whether the shifter is in reverse.
func (d *Driving) Reversing() bool {
	return d.reversing
}
