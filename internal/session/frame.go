package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind tells analog frames from digital ones.
type Kind byte

const (
	Analog  Kind = 'A'
	Digital Kind = 'D'
)

func (k Kind) String() string {
	switch k {
	case Analog:
		return "analog"
	case Digital:
		return "digital"
	default:
		return fmt.Sprintf("kind(%q)", byte(k))
	}
}

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownKind    = errors.New("unknown frame kind")
)

const minFrameLength = 4

// Frame is one decoded line of device input. Analog values are raw sensor
// readings and may exceed a byte; digital values are 0 or not.
type Frame struct {
	Kind    Kind
	Channel byte
	Value   int
}

// On reports a digital frame's state.
func (f Frame) On() bool {
	return f.Value != 0
}

// DecodeFrame parses "<A|D><channel>,<value>" with surrounding whitespace
// already trimmed.
func DecodeFrame(line string) (Frame, error) {
	comma := strings.IndexByte(line, ',')
	if len(line) < minFrameLength || comma < 0 {
		return Frame{}, fmt.Errorf("%w: %q", ErrMalformedFrame, line)
	}

	kind := Kind(line[0])
	if kind != Analog && kind != Digital {
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownKind, line[:1])
	}

	channel, err := strconv.ParseUint(line[1:comma], 10, 8)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid channel in %q: %w", line, err)
	}
	value, err := strconv.Atoi(line[comma+1:])
	if err != nil {
		return Frame{}, fmt.Errorf("invalid value in %q: %w", line, err)
	}
	if value < 0 {
		return Frame{}, fmt.Errorf("%w: negative value in %q", ErrMalformedFrame, line)
	}

	return Frame{Kind: kind, Channel: byte(channel), Value: value}, nil
}
