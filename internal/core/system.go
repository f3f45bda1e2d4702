// Package core supervises one session per configured serial port.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"serial-controller/internal/config"
	"serial-controller/internal/controller"
	"serial-controller/internal/input"
	"serial-controller/internal/logger"
	"serial-controller/internal/messaging"
	"serial-controller/internal/session"
	"serial-controller/internal/types"
)

var ErrUnknownPort = errors.New("no session for port")

// ControllerFactory builds the controller list of one session. Slot 0 is
// the disabled mode and should be nil.
type ControllerFactory func(port string, injector input.Injector, l *logger.Logger) []controller.Controller

// DefaultControllers offers two modes: disabled and driving.
func DefaultControllers(port string, injector input.Injector, l *logger.Logger) []controller.Controller {
	return []controller.Controller{
		nil,
		controller.NewDriving(injector, l.WithTag("driving")),
	}
}

type Options struct {
	Config   *config.Config
	Injector input.Injector
	Opener   session.PortOpener

	// Optional collaborators.
	Messaging   MessagingClient
	Status      StatusIndicator
	Controllers ControllerFactory
}

type System struct {
	logger    *logger.Logger
	injector  input.Injector
	redis     MessagingClient
	status    StatusIndicator
	sessions  []Runner
	observers session.Observers

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSystem(opts Options, l *logger.Logger) (*System, error) {
	if opts.Config == nil || opts.Injector == nil || opts.Opener == nil {
		return nil, errors.New("config, injector and opener are required")
	}
	factory := opts.Controllers
	if factory == nil {
		factory = DefaultControllers
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &System{
		logger:   l,
		injector: opts.Injector,
		redis:    opts.Messaging,
		status:   opts.Status,
		ctx:      ctx,
		cancel:   cancel,
	}

	cfg := opts.Config
	channels := cfg.Channels()
	for _, port := range cfg.Ports {
		sl := l.WithTag("session[" + port + "]")
		sess, err := session.New(session.Config{
			Port:           port,
			ReconnectDelay: cfg.ReconnectDelay,
			ModeStates:     cfg.ModeStates,
			ResetChannels:  cfg.ResetPair(),
			Channels:       channels,
		}, opts.Opener, factory(port, opts.Injector, sl), s, sl)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create session for %s: %w", port, err)
		}
		s.sessions = append(s.sessions, sess)
	}
	return s, nil
}

// Start connects the optional collaborators and launches one goroutine per
// port. Redis being unavailable is not fatal.
func (s *System) Start() error {
	s.logger.Infof("Starting %d sessions", len(s.sessions))

	if s.redis != nil {
		s.redis.SetCallbacks(messaging.Callbacks{
			CalibrateCallback: s.handleCalibrate,
		})
		if err := s.redis.Connect(); err != nil {
			s.logger.Warnf("Continuing without Redis: %v", err)
			s.redis = nil
		} else {
			s.observers = append(s.observers, s.redis)
			s.redis.StartListening()
		}
	}
	if s.status != nil {
		s.status.Start()
		s.observers = append(s.observers, s.status)
	}

	for _, sess := range s.sessions {
		s.wg.Add(1)
		go func(r Runner) {
			defer s.wg.Done()
			if err := r.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Errorf("Session %s stopped: %v", r.Port(), err)
			}
		}(sess)
	}
	return nil
}

// Shutdown cancels every session, waits for them and releases the
// collaborators. Controllers are stopped by their sessions on the way out.
func (s *System) Shutdown() {
	s.logger.Infof("Shutting down")
	s.cancel()
	s.wg.Wait()

	if s.status != nil {
		s.status.Stop()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warnf("Failed to close Redis: %v", err)
		}
	}
	if err := s.injector.Close(); err != nil {
		s.logger.Warnf("Failed to close injector: %v", err)
	}
}

// handleCalibrate serves remote recalibration requests.
func (s *System) handleCalibrate(target string) error {
	found := false
	for _, sess := range s.sessions {
		if target == messaging.CalibrateAll || sess.Port() == target {
			sess.RequestRecalibration()
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownPort, target)
	}
	s.logger.Infof("Recalibration requested for %s", target)
	return nil
}

// System observes every session and forwards to the active collaborators.

func (s *System) ConnectionChanged(port string, state types.ConnectionState) {
	if state == types.StateConnected {
		s.logger.Infof("%s connected", port)
	}
	s.observers.ConnectionChanged(port, state)
}

func (s *System) ModeChanged(port string, mode int, name string) {
	s.observers.ModeChanged(port, mode, name)
}

func (s *System) ChannelActivated(port string, channel byte, name string) {
	s.observers.ChannelActivated(port, channel, name)
}

func (s *System) CalibrationReset(port string, channels []byte) {
	s.observers.CalibrationReset(port, channels)
}
