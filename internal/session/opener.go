package session

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// DefaultBaudRate is the device firmware's line speed.
const DefaultBaudRate = 9600

// PortOpener opens the named port for reading. Closing the returned port
// must unblock a pending Read.
type PortOpener interface {
	Open(name string) (io.ReadCloser, error)
}

// SerialOpener opens real serial ports at 8N1.
type SerialOpener struct {
	BaudRate int
}

func (o SerialOpener) Open(name string) (io.ReadCloser, error) {
	baud := o.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	// Drop whatever the device sent before we were listening.
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return port, nil
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
