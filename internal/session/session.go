// Package session reads control frames from one serial port and routes them
// to the controller selected by the device's mode selector.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/librescoot/librefsm"

	"serial-controller/internal/calibration"
	"serial-controller/internal/controller"
	"serial-controller/internal/debounce"
	"serial-controller/internal/fsm"
	"serial-controller/internal/logger"
	"serial-controller/internal/types"
)

const (
	DefaultReconnectDelay = 200 * time.Millisecond

	// ModeChannel is the analog channel of the mode selector.
	ModeChannel byte = 0

	fullScale  = 255
	unsetValue = -1
)

// DefaultResetChannels are the two pedals. Holding both fully down resets
// their calibration.
var DefaultResetChannels = []byte{2, 3}

// ChannelConfig describes one analog channel; its index is the channel
// number.
type ChannelConfig struct {
	Name        string
	Calibration calibration.Params
}

type Config struct {
	Port           string
	ReconnectDelay time.Duration

	// ModeStates is the number of mode selector positions. Zero means one
	// per controller slot.
	ModeStates int

	// ResetChannels holds the pair of channels whose calibration is reset
	// when both read full scale. Empty disables the check.
	ResetChannels []byte

	Channels []ChannelConfig
}

// Session owns one port. Slot 0 of the controller list is conventionally
// nil, meaning controls are disabled.
type Session struct {
	cfg         Config
	opener      PortOpener
	controllers []controller.Controller
	observer    Observer
	logger      *logger.Logger
	machine     *librefsm.Machine

	// Per-connection state, owned by the Run goroutine.
	mode    *debounce.Tracker
	active  controller.Controller
	mappers []*calibration.Mapper
	values  []int

	lastOpenErr string
	recalibrate atomic.Bool
}

// New builds a session. observer may be nil.
func New(cfg Config, opener PortOpener, controllers []controller.Controller, observer Observer, l *logger.Logger) (*Session, error) {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.ModeStates <= 0 {
		cfg.ModeStates = max(len(controllers), 1)
	}
	if observer == nil {
		observer = Observers(nil)
	}
	s := &Session{
		cfg:         cfg,
		opener:      opener,
		controllers: controllers,
		observer:    observer,
		logger:      l,
	}

	machine, err := fsm.NewDefinition(s).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection state machine: %w", err)
	}
	machine.OnStateChange(func(from, to librefsm.StateID) {
		s.logger.Debugf("Connection %s -> %s", from, to)
		s.observer.ConnectionChanged(s.cfg.Port, types.ConnectionState(to))
	})
	s.machine = machine
	return s, nil
}

func (s *Session) Port() string {
	return s.cfg.Port
}

// State returns the current connection state.
func (s *Session) State() types.ConnectionState {
	return types.ConnectionState(s.machine.CurrentState())
}

// RequestRecalibration resets every channel's calibration before the next
// frame is handled. Safe to call from any goroutine.
func (s *Session) RequestRecalibration() {
	s.recalibrate.Store(true)
}

// Run connects, reads until the port fails and reconnects after the
// configured delay, until ctx is cancelled. It must be called once.
func (s *Session) Run(ctx context.Context) error {
	// The machine outlives ctx so the final disconnect still runs the
	// connected state's exit action.
	machineCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	defer stop()
	if err := s.machine.Start(machineCtx); err != nil {
		return fmt.Errorf("failed to start connection state machine: %w", err)
	}

	for ctx.Err() == nil {
		s.connect(ctx)

		select {
		case <-ctx.Done():
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
	return ctx.Err()
}

func (s *Session) connect(ctx context.Context) {
	s.send(fsm.EvConnect)

	port, err := s.opener.Open(s.cfg.Port)
	if err != nil {
		// Most of the pool is usually absent, so only log when the reason
		// changes.
		if msg := err.Error(); msg != s.lastOpenErr {
			s.lastOpenErr = msg
			s.logger.Debugf("%v", err)
		}
		s.send(fsm.EvOpenFailed)
		return
	}
	s.lastOpenErr = ""
	s.send(fsm.EvOpened)

	stopClose := context.AfterFunc(ctx, func() { port.Close() })
	err = s.readLoop(port)
	if stopClose() {
		port.Close()
	}

	switch {
	case ctx.Err() != nil:
		s.logger.Debugf("Closed on shutdown")
	case errors.Is(err, io.EOF):
		s.logger.Warnf("Port closed by device")
	default:
		s.logger.Warnf("Read failed: %v", err)
	}
	s.send(fsm.EvReadFailed)
}

func (s *Session) send(ev librefsm.EventID) {
	if err := s.machine.SendSync(librefsm.Event{ID: ev}); err != nil {
		s.logger.Errorf("Failed to process %s: %v", ev, err)
	}
}

func (s *Session) readLoop(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		s.handleLine(line)
	}
}

func (s *Session) handleLine(line string) {
	if s.recalibrate.Swap(false) {
		s.resetAll()
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	frame, err := DecodeFrame(line)
	if err != nil {
		if errors.Is(err, ErrUnknownKind) {
			s.logger.Debugf("Ignoring input: %s", line)
		}
		return
	}

	switch frame.Kind {
	case Analog:
		s.handleAnalog(frame.Channel, frame.Value)
	case Digital:
		if s.active != nil {
			s.active.OnDigitalInput(frame.Channel, frame.On())
		}
	}
}

func (s *Session) handleAnalog(channel byte, raw int) {
	if int(channel) >= len(s.mappers) {
		return
	}
	m := s.mappers[channel]
	wasMet := m.MinimumRangeMet()
	value := m.Observe(raw)
	if !m.MinimumRangeMet() {
		return
	}

	if channel == ModeChannel {
		s.mode.Observe(value)
		return
	}

	s.values[channel] = int(value)
	if !wasMet {
		name := s.channelName(channel)
		s.logger.Infof("%s is now active.", name)
		s.observer.ChannelActivated(s.cfg.Port, channel, name)
	}
	if s.active != nil {
		s.active.OnAnalogInput(channel, value)
	}
	s.checkResetPair(channel)
}

// checkResetPair recovers pedals whose calibration got stuck: when both
// channels of the reset pair read full scale they are recalibrated once.
func (s *Session) checkResetPair(channel byte) {
	pair := s.cfg.ResetChannels
	if len(pair) != 2 || (channel != pair[0] && channel != pair[1]) {
		return
	}
	a, b := int(pair[0]), int(pair[1])
	if a >= len(s.values) || b >= len(s.values) {
		return
	}
	if s.values[a] != fullScale || s.values[b] != fullScale {
		return
	}

	s.logger.Infof("Resetting %s and %s.", s.channelName(pair[0]), s.channelName(pair[1]))
	s.mappers[a].Reset()
	s.mappers[b].Reset()
	s.values[a] = unsetValue
	s.values[b] = unsetValue
	s.observer.CalibrationReset(s.cfg.Port, []byte{pair[0], pair[1]})
}

func (s *Session) resetAll() {
	if len(s.mappers) == 0 {
		return
	}
	channels := make([]byte, len(s.mappers))
	for i, m := range s.mappers {
		m.Reset()
		s.values[i] = unsetValue
		channels[i] = byte(i)
	}
	s.logger.Infof("Recalibrating all channels")
	s.observer.CalibrationReset(s.cfg.Port, channels)
}

func (s *Session) onModeChange(newState, previousState int) {
	next := s.slot(newState)
	if s.active != nil {
		s.active.Stop()
	}
	if next != nil {
		next.Start()
	}
	s.active = next

	name := types.DisabledMode
	if next != nil {
		name = controller.NameOf(next)
		s.logger.Infof("Using controls for %s", name)
	} else {
		s.logger.Infof("Disabled controls")
	}
	s.observer.ModeChanged(s.cfg.Port, newState, name)
}

func (s *Session) slot(i int) controller.Controller {
	if i < 0 || i >= len(s.controllers) {
		return nil
	}
	return s.controllers[i]
}

func (s *Session) channelName(channel byte) string {
	if int(channel) < len(s.cfg.Channels) && s.cfg.Channels[channel].Name != "" {
		return s.cfg.Channels[channel].Name
	}
	return fmt.Sprintf("Channel %d", channel)
}
