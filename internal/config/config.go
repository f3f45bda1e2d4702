// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"serial-controller/internal/calibration"
	"serial-controller/internal/hardware"
	"serial-controller/internal/logger"
	"serial-controller/internal/messaging"
	"serial-controller/internal/session"
)

// DefaultFileName is looked up from the working directory upwards.
const DefaultFileName = "serial-controller.yaml"

// Injector backends.
const (
	InjectorUinput = "uinput"
	InjectorKeybd  = "keybd"
	InjectorNone   = "none"
)

var ErrNotFound = errors.New("configuration file not found")

// DefaultChannelNames label the analog channels of the driving rig.
var DefaultChannelNames = []string{
	"Mode Selector",
	"Steering Wheel",
	"Right Pedal",
	"Left Pedal",
	"Left Shifter",
	"Right Shifter",
}

type AnalogInput struct {
	Name       string  `yaml:"name"`
	Inverted   bool    `yaml:"inverted"`
	InitialMin *int    `yaml:"initial_min"`
	InitialMax *int    `yaml:"initial_max"`
	MinRange   *int    `yaml:"min_range"`
	MaxRange   *int    `yaml:"max_range"`
	DeadZone   float64 `yaml:"dead_zone"`
}

// Params converts the entry to mapper parameters, filling range defaults.
func (a AnalogInput) Params() calibration.Params {
	p := calibration.Params{
		Inverted:   a.Inverted,
		DeadZone:   a.DeadZone,
		MinRange:   calibration.DefaultMinRange,
		MaxRange:   calibration.DefaultMaxRange,
		InitialMin: a.InitialMin,
		InitialMax: a.InitialMax,
	}
	if a.MinRange != nil {
		p.MinRange = *a.MinRange
	}
	if a.MaxRange != nil {
		p.MaxRange = *a.MaxRange
	}
	return p
}

type Redis struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

type StatusLED struct {
	Enabled   bool    `yaml:"enabled"`
	Chip      string  `yaml:"chip"`
	Line      int     `yaml:"line"`
	ActiveLow bool    `yaml:"active_low"`
	Frequency float64 `yaml:"frequency"`
}

type Config struct {
	LogLevel       string        `yaml:"log_level"`
	Ports          []string      `yaml:"ports"`
	BaudRate       int           `yaml:"baud_rate"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	ModeStates     int           `yaml:"mode_states"`
	ResetChannels  []int         `yaml:"reset_channels"`
	Injector       string        `yaml:"injector"`
	UinputPath     string        `yaml:"uinput_path"`
	AnalogInputs   []AnalogInput `yaml:"analog_inputs"`
	Redis          Redis         `yaml:"redis"`
	StatusLED      StatusLED     `yaml:"status_led"`
}

// DefaultPorts is the probe pool used when no ports are configured: every
// USB serial adapter and CDC ACM device node up to index 15.
func DefaultPorts() []string {
	var ports []string
	for _, prefix := range []string{"/dev/ttyUSB", "/dev/ttyACM"} {
		for i := 0; i < 16; i++ {
			ports = append(ports, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	return ports
}

func Default() *Config {
	return &Config{
		LogLevel:       "info",
		Ports:          DefaultPorts(),
		BaudRate:       session.DefaultBaudRate,
		ReconnectDelay: session.DefaultReconnectDelay,
		ResetChannels:  []int{2, 3},
		Injector:       InjectorUinput,
		UinputPath:     hardware.DefaultUinputPath,
		Redis: Redis{
			Addr:   messaging.DefaultAddr,
			Prefix: messaging.DefaultPrefix,
		},
		StatusLED: StatusLED{
			Chip:      hardware.DefaultChip,
			Line:      hardware.DefaultStatusLEDLine,
			Frequency: hardware.DefaultStatusLEDFrequency,
		},
	}
}

// Find looks for name in dir and then in each parent directory.
func Find(name, dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	for {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s in %s or any parent directory", ErrNotFound, name, dir)
		}
		dir = parent
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i := range cfg.AnalogInputs {
		if cfg.AnalogInputs[i].Name == "" && i < len(DefaultChannelNames) {
			cfg.AnalogInputs[i].Name = DefaultChannelNames[i]
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if len(c.Ports) == 0 {
		return errors.New("no ports configured")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", c.BaudRate)
	}
	if c.ReconnectDelay < 0 {
		return fmt.Errorf("reconnect_delay must not be negative, got %v", c.ReconnectDelay)
	}
	if c.ModeStates < 0 || c.ModeStates > 128 {
		return fmt.Errorf("mode_states must be within 0..128, got %d", c.ModeStates)
	}
	if len(c.ResetChannels) != 0 && len(c.ResetChannels) != 2 {
		return fmt.Errorf("reset_channels must name two channels, got %v", c.ResetChannels)
	}
	for _, ch := range c.ResetChannels {
		if ch < 0 || ch > 255 {
			return fmt.Errorf("reset channel %d out of range", ch)
		}
	}
	switch c.Injector {
	case InjectorUinput, InjectorKeybd, InjectorNone:
	default:
		return fmt.Errorf("unknown injector %q", c.Injector)
	}
	if len(c.AnalogInputs) == 0 {
		return errors.New("analog_inputs must at least describe the mode selector")
	}
	for i, in := range c.AnalogInputs {
		if err := in.validate(); err != nil {
			return fmt.Errorf("analog input %d (%s): %w", i, in.Name, err)
		}
	}
	if c.StatusLED.Enabled && c.StatusLED.Frequency <= 0 {
		return fmt.Errorf("status_led frequency must be positive, got %v", c.StatusLED.Frequency)
	}
	return nil
}

func (a AnalogInput) validate() error {
	if a.DeadZone < 0 || a.DeadZone >= 1 {
		return fmt.Errorf("dead_zone must be within [0,1), got %v", a.DeadZone)
	}
	p := a.Params()
	if p.MinRange < 0 || p.MaxRange < 0 {
		return errors.New("ranges must not be negative")
	}
	if p.MinRange > p.MaxRange {
		return fmt.Errorf("min_range %d exceeds max_range %d", p.MinRange, p.MaxRange)
	}
	if (a.InitialMin == nil) != (a.InitialMax == nil) {
		return errors.New("initial_min and initial_max must be given together")
	}
	if a.InitialMin != nil && *a.InitialMin > *a.InitialMax {
		return fmt.Errorf("initial_min %d exceeds initial_max %d", *a.InitialMin, *a.InitialMax)
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() logger.LogLevel {
	lvl, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LogLevelInfo
	}
	return lvl
}

// ResetPair returns the reset channels as bytes.
func (c *Config) ResetPair() []byte {
	pair := make([]byte, len(c.ResetChannels))
	for i, ch := range c.ResetChannels {
		pair[i] = byte(ch)
	}
	return pair
}

// Channels converts the analog inputs into session channel descriptions.
func (c *Config) Channels() []session.ChannelConfig {
	channels := make([]session.ChannelConfig, len(c.AnalogInputs))
	for i, in := range c.AnalogInputs {
		channels[i] = session.ChannelConfig{Name: in.Name, Calibration: in.Params()}
	}
	return channels
}
