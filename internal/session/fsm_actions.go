package session

import (
	"github.com/librescoot/librefsm"

	"serial-controller/internal/calibration"
	"serial-controller/internal/debounce"
	"serial-controller/internal/types"
)

// === State Entry Actions ===

func (s *Session) EnterDisconnected(c *librefsm.Context) error {
	s.mappers = nil
	s.values = nil
	s.mode = nil
	return nil
}

func (s *Session) EnterConnecting(c *librefsm.Context) error {
	return nil
}

// EnterConnected creates fresh calibration for every configured channel and
// a new mode selector starting at the disabled slot.
func (s *Session) EnterConnected(c *librefsm.Context) error {
	s.mappers = make([]*calibration.Mapper, len(s.cfg.Channels))
	s.values = make([]int, len(s.cfg.Channels))
	for i, ch := range s.cfg.Channels {
		s.mappers[i] = calibration.New(ch.Calibration)
		s.values[i] = unsetValue
	}
	s.mode = debounce.New(s.cfg.ModeStates, 0, s.onModeChange)
	s.active = nil

	s.logger.Infof("Opened on port %s", s.cfg.Port)
	return nil
}

// === State Exit Actions ===

// ExitConnected stops every controller, not just the active one, so no key
// or axis is left held after the device goes away.
func (s *Session) ExitConnected(c *librefsm.Context) error {
	for _, ctrl := range s.controllers {
		if ctrl != nil {
			ctrl.Stop()
		}
	}
	if s.active != nil {
		s.active = nil
		s.observer.ModeChanged(s.cfg.Port, 0, types.DisabledMode)
	}
	s.logger.Infof("Closed port %s", s.cfg.Port)
	return nil
}
