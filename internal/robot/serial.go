package robot

import (
	"fmt"
	"io"
	"os"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the Arduino sketch driving the jaw servo.
const DefaultBaudRate = 9600

// commonPorts are probed in order when no port is configured. USB-serial
// adapters enumerate as ttyUSB*, native Arduino boards as ttyACM*.
var commonPorts = []string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyACM0", "/dev/ttyACM1"}

// Link is a byte-oriented actuator channel. Commands are fire-and-forget,
// there is no acknowledgment protocol.
type Link interface {
	io.WriteCloser
}

// OpenLink opens the serial connection to the jaw controller. An empty port
// name probes the common device paths and then whatever the OS enumerates.
func OpenLink(portName string, baudRate int) (Link, string, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	if portName != "" {
		port, err := serial.Open(portName, mode)
		if err != nil {
			return nil, "", fmt.Errorf("robot: open serial port %s: %w", portName, err)
		}
		return port, portName, nil
	}

	for _, candidate := range candidatePorts() {
		port, err := serial.Open(candidate, mode)
		if err != nil {
			continue
		}
		return port, candidate, nil
	}
	return nil, "", fmt.Errorf("robot: no serial port found")
}

// candidatePorts returns the common device paths that exist, followed by any
// other port the OS reports.
func candidatePorts() []string {
	var candidates []string
	for _, p := range commonPorts {
		if _, err := os.Stat(p); err == nil {
			candidates = append(candidates, p)
		}
	}

	detected, err := serial.GetPortsList()
	if err != nil {
		return candidates
	}
	for _, p := range detected {
		seen := false
		for _, c := range candidates {
			if c == p {
				seen = true
				break
			}
		}
		if !seen {
			candidates = append(candidates, p)
		}
	}
	return candidates
}
