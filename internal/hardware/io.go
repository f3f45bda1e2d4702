package hardware

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"serial-controller/internal/logger"
)

// gpioLine is the subset of *gpiocdev.Line used here.
type gpioLine interface {
	SetValue(value int) error
	Close() error
}

// LineOutput drives one GPIO output line. It implements pwm.Hooks, so a
// pwm.Signal can blink it.
type LineOutput struct {
	name   string
	line   gpioLine
	logger *logger.Logger

	mu    sync.Mutex
	value int
}

// OpenLineOutput requests offset on chip as an output, initially inactive.
func OpenLineOutput(chip string, offset int, activeLow bool, l *logger.Logger) (*LineOutput, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer(Consumer),
	}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := gpiocdev.RequestLine(chip, offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to request GPIO line %s:%d: %w", chip, offset, err)
	}
	l.Infof("Configured output %s:%d (active low: %v)", chip, offset, activeLow)
	return newLineOutput(fmt.Sprintf("%s:%d", chip, offset), line, l), nil
}

func newLineOutput(name string, line gpioLine, l *logger.Logger) *LineOutput {
	return &LineOutput{name: name, line: line, logger: l}
}

func (o *LineOutput) Active() {
	o.set(1)
}

func (o *LineOutput) Inactive() {
	o.set(0)
}

// Value returns the last value written to the line.
func (o *LineOutput) Value() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

func (o *LineOutput) set(value int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.value == value {
		return
	}
	if err := o.line.SetValue(value); err != nil {
		o.logger.Warnf("Failed to set %s=%d: %v", o.name, value, err)
		return
	}
	o.value = value
}

// Close drives the line inactive and releases it.
func (o *LineOutput) Close() error {
	o.set(0)
	if err := o.line.Close(); err != nil {
		return fmt.Errorf("failed to release GPIO line %s: %w", o.name, err)
	}
	return nil
}
