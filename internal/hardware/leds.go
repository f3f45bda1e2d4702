package hardware

import (
	"sync"

	"serial-controller/internal/logger"
	"serial-controller/internal/pwm"
	"serial-controller/internal/types"
)

// StatusLED summarises every session on one output: dark while no port is
// connected, blinking while a device is connected with controls disabled,
// and steady while any controller is active.
type StatusLED struct {
	signal *pwm.Signal
	logger *logger.Logger

	mu        sync.Mutex
	connected map[string]bool
	driving   map[string]bool
}

func NewStatusLED(output pwm.Hooks, frequency float64, l *logger.Logger) *StatusLED {
	led := &StatusLED{
		signal:    pwm.NewSignal(frequency, output),
		logger:    l,
		connected: make(map[string]bool),
		driving:   make(map[string]bool),
	}
	led.signal.SetDutyCycle(dutyIdle)
	return led
}

func (s *StatusLED) Start() {
	s.signal.Start()
}

// Stop halts the blink goroutine and waits for it to exit.
func (s *StatusLED) Stop() {
	s.signal.Stop()
	s.signal.Wait()
}

func (s *StatusLED) DutyCycle() float64 {
	return s.signal.DutyCycle()
}

func (s *StatusLED) ConnectionChanged(port string, state types.ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == types.StateConnected {
		s.connected[port] = true
	} else {
		delete(s.connected, port)
		delete(s.driving, port)
	}
	s.update()
}

func (s *StatusLED) ModeChanged(port string, mode int, controller string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if controller != types.DisabledMode {
		s.driving[port] = true
	} else {
		delete(s.driving, port)
	}
	s.update()
}

func (s *StatusLED) ChannelActivated(string, byte, string) {}

func (s *StatusLED) CalibrationReset(string, []byte) {}

func (s *StatusLED) update() {
	duty := dutyIdle
	switch {
	case len(s.driving) > 0:
		duty = dutyDriving
	case len(s.connected) > 0:
		duty = dutyConnected
	}
	if duty != s.signal.DutyCycle() {
		s.logger.Debugf("Status duty %.1f (%d connected, %d driving)", duty, len(s.connected), len(s.driving))
		s.signal.SetDutyCycle(duty)
	}
}
