package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"serial-controller/internal/calibration"
	"serial-controller/internal/controller"
	"serial-controller/internal/logger"
	"serial-controller/internal/types"
)

// ===== Fakes =====

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	calls := l.calls
	l.calls = nil
	return calls
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type recordingController struct {
	name string
	log  *callLog
}

func (c *recordingController) Name() string { return c.name }
func (c *recordingController) Start()       { c.log.add("%s start", c.name) }
func (c *recordingController) Stop()        { c.log.add("%s stop", c.name) }

func (c *recordingController) OnAnalogInput(channel byte, value byte) {
	c.log.add("%s analog %d=%d", c.name, channel, value)
}

func (c *recordingController) OnDigitalInput(channel byte, value bool) {
	c.log.add("%s digital %d=%v", c.name, channel, value)
}

type recordingObserver struct {
	log callLog
}

func (o *recordingObserver) ConnectionChanged(port string, state types.ConnectionState) {
	o.log.add("state %s", state)
}

func (o *recordingObserver) ModeChanged(port string, mode int, name string) {
	o.log.add("mode %d %s", mode, name)
}

func (o *recordingObserver) ChannelActivated(port string, channel byte, name string) {
	o.log.add("active %d %s", channel, name)
}

func (o *recordingObserver) CalibrationReset(port string, channels []byte) {
	o.log.add("reset %v", channels)
}

type fakePort struct {
	io.Reader
	closed bool
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

// scriptedOpener hands out one result per Open call and calls onExhausted
// once the script has run out.
type scriptedOpener struct {
	mu          sync.Mutex
	script      []any // string contents or error
	opened      []*fakePort
	onExhausted func()
}

func (o *scriptedOpener) Open(name string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.script) == 0 {
		if o.onExhausted != nil {
			o.onExhausted()
		}
		return nil, errors.New("no such device")
	}
	next := o.script[0]
	o.script = o.script[1:]
	if err, ok := next.(error); ok {
		return nil, err
	}
	port := &fakePort{Reader: strings.NewReader(next.(string))}
	o.opened = append(o.opened, port)
	return port, nil
}

func testLogger() *logger.Logger {
	return logger.NewLogger(log.New(io.Discard, "", 0), logger.LogLevelDebug)
}

func intp(v int) *int { return &v }

// fullRange is a channel that is calibrated from the first sample: raw 0
// maps to 0 and raw 1023 to 255.
func fullRange(name string) ChannelConfig {
	return ChannelConfig{
		Name: name,
		Calibration: calibration.Params{
			MinRange:   100,
			MaxRange:   1024,
			InitialMin: intp(0),
			InitialMax: intp(1023),
		},
	}
}

func learning(name string) ChannelConfig {
	return ChannelConfig{
		Name:        name,
		Calibration: calibration.Params{MinRange: 100, MaxRange: 1024},
	}
}

type fixture struct {
	session  *Session
	calls    *callLog
	observer *recordingObserver
}

// newFixture builds a session with slots [disabled, first, second] and
// enters the connected state without a port.
func newFixture(t *testing.T, channels ...ChannelConfig) *fixture {
	t.Helper()
	calls := &callLog{}
	observer := &recordingObserver{}
	controllers := []controller.Controller{
		nil,
		&recordingController{name: "first", log: calls},
		&recordingController{name: "second", log: calls},
	}
	if len(channels) == 0 {
		channels = []ChannelConfig{
			fullRange("Mode Selector"),
			learning("Steering Wheel"),
			fullRange("Right Pedal"),
			fullRange("Left Pedal"),
		}
	}
	cfg := Config{
		Port:          "/dev/ttyTEST0",
		ResetChannels: DefaultResetChannels,
		Channels:      channels,
	}
	s, err := New(cfg, &scriptedOpener{}, controllers, observer, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.EnterConnected(nil); err != nil {
		t.Fatalf("EnterConnected() error = %v", err)
	}
	return &fixture{session: s, calls: calls, observer: observer}
}

func (f *fixture) feed(lines ...string) {
	for _, line := range lines {
		f.session.handleLine(line + "\r\n")
	}
}

func assertCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// ===== Mode selector =====

func TestModeTransitionStopsThenStarts(t *testing.T) {
	f := newFixture(t)

	f.feed("A0,512")
	assertCalls(t, f.calls.take(), []string{"first start"})

	f.feed("A0,1023")
	assertCalls(t, f.calls.take(), []string{"first stop", "second start"})

	f.feed("A0,1023", "A0,1000")
	assertCalls(t, f.calls.take(), nil)

	f.feed("A0,0")
	assertCalls(t, f.calls.take(), []string{"second stop"})

	assertCalls(t, f.observer.log.snapshot(), []string{
		"mode 1 first",
		"mode 2 second",
		"mode 0 disabled",
	})
}

func TestModeBeyondControllerListIsDisabled(t *testing.T) {
	f := newFixture(t)
	f.session.cfg.ModeStates = 4
	f.session.EnterConnected(nil)

	// Four states: 0..35 → 0, 36..107 → 1, 108..179 → 2, 180..255 → 3.
	f.feed("A0,1023")
	assertCalls(t, f.calls.take(), nil)
	f.feed("A0,600")
	assertCalls(t, f.calls.take(), []string{"second start"})
	f.feed("A0,1023")
	assertCalls(t, f.calls.take(), []string{"second stop"})
}

// ===== Analog routing =====

func TestAnalogForwardedOnlyOnceCalibrated(t *testing.T) {
	f := newFixture(t)
	f.feed("A0,512")
	f.calls.take()

	f.feed("A1,500")
	assertCalls(t, f.calls.take(), nil)

	f.feed("A1,650", "A1,575")
	assertCalls(t, f.calls.take(), []string{"first analog 1=255", "first analog 1=127"})

	var activations []string
	for _, call := range f.observer.log.snapshot() {
		if strings.HasPrefix(call, "active") {
			activations = append(activations, call)
		}
	}
	assertCalls(t, activations, []string{"active 1 Steering Wheel"})
}

func TestAnalogWithoutControllerIsDropped(t *testing.T) {
	f := newFixture(t)

	f.feed("A2,1023", "D3,1")
	assertCalls(t, f.calls.take(), nil)
}

func TestUnconfiguredChannelIgnored(t *testing.T) {
	f := newFixture(t)
	f.feed("A0,512")
	f.calls.take()

	f.feed("A9,100", "A200,5")
	assertCalls(t, f.calls.take(), nil)
}

func TestMalformedLinesDropped(t *testing.T) {
	f := newFixture(t)
	f.feed("A0,512")
	f.calls.take()

	f.feed("garbage", "A3", "X1,20", "A1,-4", "", "D2,x")
	assertCalls(t, f.calls.take(), nil)

	f.feed("A2,1023")
	assertCalls(t, f.calls.take(), []string{"first analog 2=255"})
}

// ===== Digital routing =====

func TestDigitalPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.feed("A0,512")
	f.calls.take()

	f.feed("D4,1", "D4,0", "D7,2")
	assertCalls(t, f.calls.take(), []string{
		"first digital 4=true",
		"first digital 4=false",
		"first digital 7=true",
	})
}

// ===== Calibration resets =====

func TestPedalResetHappensOnce(t *testing.T) {
	f := newFixture(t)
	f.feed("A0,512")

	f.feed("A2,1023", "A3,1023", "A2,1023", "A3,1023", "A3,1023")

	var resets []string
	for _, call := range f.observer.log.snapshot() {
		if strings.HasPrefix(call, "reset") {
			resets = append(resets, call)
		}
	}
	assertCalls(t, resets, []string{"reset [2 3]"})

	lo, hi := f.session.mappers[2].Bounds()
	if hi-lo != 0 {
		t.Errorf("pedal bounds = %d..%d, want a single relearned sample", lo, hi)
	}
}

func TestPedalResetNeedsBothAtFullScale(t *testing.T) {
	f := newFixture(t)
	f.feed("A0,512")

	f.feed("A2,1023", "A3,1000", "A2,1023", "A1,1023")

	for _, call := range f.observer.log.snapshot() {
		if strings.HasPrefix(call, "reset") {
			t.Errorf("unexpected %s", call)
		}
	}
}

func TestRequestRecalibrationResetsAllChannels(t *testing.T) {
	f := newFixture(t)
	f.feed("A0,512", "A1,500", "A1,650")
	f.calls.take()

	f.session.RequestRecalibration()
	f.feed("A1,575")

	assertCalls(t, f.calls.take(), nil)
	found := false
	for _, call := range f.observer.log.snapshot() {
		if call == "reset [0 1 2 3]" {
			found = true
		}
	}
	if !found {
		t.Errorf("no full calibration reset in %q", f.observer.log.snapshot())
	}
	if f.session.mappers[0].MinimumRangeMet() {
		t.Errorf("mode selector should need recalibration")
	}
}

// ===== Run loop =====

func TestRunStopsControllersAndReconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := &callLog{}
	observer := &recordingObserver{}
	opener := &scriptedOpener{
		script: []any{
			errors.New("busy"),
			"A0,512\ngarbage\nD4,1\n",
			"D4,0\n",
		},
		onExhausted: cancel,
	}
	controllers := []controller.Controller{
		nil,
		&recordingController{name: "first", log: calls},
		&recordingController{name: "second", log: calls},
	}
	cfg := Config{
		Port:           "/dev/ttyTEST0",
		ReconnectDelay: time.Millisecond,
		Channels:       []ChannelConfig{fullRange("Mode Selector")},
	}
	s, err := New(cfg, opener, controllers, observer, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after the script ran out")
	}

	// The second connection starts with a fresh mode selector, so the
	// digital frame has nowhere to go.
	assertCalls(t, calls.snapshot(), []string{
		"first start",
		"first digital 4=true",
		"first stop",
		"second stop",
		"first stop",
		"second stop",
	})
	for i, port := range opener.opened {
		if !port.closed {
			t.Errorf("port %d was not closed", i)
		}
	}
	if s.State() != types.StateDisconnected {
		t.Errorf("State() = %s, want %s", s.State(), types.StateDisconnected)
	}

	var states []string
	for _, call := range observer.log.snapshot() {
		if call == "state connected" || call == "state disconnected" {
			states = append(states, call)
		}
	}
	connected := 0
	for _, st := range states {
		if st == "state connected" {
			connected++
		}
	}
	if connected != 2 {
		t.Errorf("connected %d times, want 2 (%q)", connected, states)
	}
	if states[len(states)-1] != "state disconnected" {
		t.Errorf("last state = %s, want disconnected", states[len(states)-1])
	}
}

func TestRunClosesPortOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader, writer := io.Pipe()
	calls := &callLog{}
	s, err := New(Config{
		Port:     "/dev/ttyTEST0",
		Channels: []ChannelConfig{fullRange("Mode Selector")},
	}, pipeOpener{reader}, []controller.Controller{
		nil,
		&recordingController{name: "first", log: calls},
	}, nil, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	if _, err := writer.Write([]byte("A0,1023\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(calls.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	assertCalls(t, calls.snapshot(), []string{"first start", "first stop"})
}

type pipeOpener struct {
	r *io.PipeReader
}

func (p pipeOpener) Open(string) (io.ReadCloser, error) {
	return p.r, nil
}
