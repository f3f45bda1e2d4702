// Package pwm drives a two-level output with a software timed duty cycle.
package pwm

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Hooks are invoked at the start of each active and inactive phase.
type Hooks interface {
	Active()
	Inactive()
}

// HookFuncs adapts two plain functions to Hooks.
type HookFuncs struct {
	OnActive   func()
	OnInactive func()
}

func (h HookFuncs) Active() {
	if h.OnActive != nil {
		h.OnActive()
	}
}

func (h HookFuncs) Inactive() {
	if h.OnInactive != nil {
		h.OnInactive()
	}
}

// Signal runs at most one timing goroutine while enabled. The duty cycle is
// lock-free: the goroutine takes a snapshot at the start of every phase, so
// a new value is honoured within one phase.
type Signal struct {
	hooks  Hooks
	period time.Duration

	duty    atomic.Uint64 // math.Float64bits
	enabled atomic.Bool
	running atomic.Bool

	mu   sync.Mutex
	done chan struct{} // closed when the current timing goroutine exits

	sleep func(time.Duration)
}

// NewSignal creates a stopped signal with a duty cycle of 0.5. A frequency
// that is not positive is treated as 1 Hz.
func NewSignal(frequency float64, hooks Hooks) *Signal {
	if !(frequency > 0) {
		frequency = 1
	}
	period := time.Duration(float64(time.Second) / frequency)
	if period <= 0 {
		period = time.Millisecond
	}
	s := &Signal{
		hooks:  hooks,
		period: period,
		sleep:  time.Sleep,
	}
	s.SetDutyCycle(0.5)
	return s
}

func (s *Signal) Period() time.Duration {
	return s.period
}

// SetDutyCycle clamps d to [0,1]. Safe to call from any goroutine.
func (s *Signal) SetDutyCycle(d float64) {
	if math.IsNaN(d) || d < 0 {
		d = 0
	}
	if d > 1 {
		d = 1
	}
	s.duty.Store(math.Float64bits(d))
}

func (s *Signal) DutyCycle() float64 {
	return math.Float64frombits(s.duty.Load())
}

func (s *Signal) Enabled() bool {
	return s.enabled.Load()
}

// Start enables the signal and launches the timing goroutine unless one is
// already running. Safe to call while another goroutine is in Wait.
func (s *Signal) Start() {
	s.enabled.Store(true)
	if s.running.CompareAndSwap(false, true) {
		done := make(chan struct{})
		s.mu.Lock()
		s.done = done
		s.mu.Unlock()
		go s.run(done)
	}
}

// Stop disables the signal. The goroutine checks the flag once per period,
// so it finishes the period it is in before exiting.
func (s *Signal) Stop() {
	s.enabled.Store(false)
}

// Wait blocks until the most recently started timing goroutine has exited.
func (s *Signal) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Signal) run(done chan struct{}) {
	defer close(done)
	for {
		for s.enabled.Load() {
			s.cycle()
		}
		s.running.Store(false)
		// A Start that raced with the exit above found running still set and
		// relied on this goroutine to keep going.
		if !s.enabled.Load() || !s.running.CompareAndSwap(false, true) {
			return
		}
	}
}

func (s *Signal) cycle() {
	if d := s.phase(s.DutyCycle()); d > 0 {
		s.hooks.Active()
		s.sleep(d)
	}
	if d := s.phase(1 - s.DutyCycle()); d > 0 {
		s.hooks.Inactive()
		s.sleep(d)
	}
}

func (s *Signal) phase(fraction float64) time.Duration {
	return time.Duration(float64(s.period) * fraction)
}
