package truerng

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// DeviceNamePrefix is the prefix used in the device name/description to
// identify a TrueRNG serial device.
const DeviceNamePrefix = "TrueRNG"

// ReadTimeout bounds a single ReadBits call.
const ReadTimeout = 10 * time.Second

// ErrNotFound is returned when no TrueRNG port is present.
var ErrNotFound = errors.New("TrueRNG device not found")

// Detect returns true if a TrueRNG serial device is present on the system.
func Detect() (bool, error) {
	_, err := FindPort()
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// FindPort returns the first serial port path of a detected TrueRNG device,
// e.g. "/dev/ttyACM0" or "COM5".
func FindPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerating ports: %w", err)
	}
	for _, p := range ports {
		if isTrueRNG(p) && p.Name != "" {
			return p.Name, nil
		}
	}
	return "", ErrNotFound
}

// Session is an open TrueRNG serial port.
type Session struct {
	port serial.Port
	name string
}

// Open finds the TrueRNG port, sets DTR and flushes buffered input.
func Open() (*Session, error) {
	name, err := FindPort()
	if err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: 3000000, // OS clamps if unsupported
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	_ = port.SetDTR(true)
	_ = port.SetReadTimeout(time.Second)
	_ = port.ResetInputBuffer()
	return &Session{port: port, name: name}, nil
}

// Port returns the serial port path of the session.
func (s *Session) Port() string { return s.name }

// Close releases the serial port.
func (s *Session) Close() error {
	if s == nil || s.port == nil {
		return nil
	}
	return s.port.Close()
}

// ReadBits reads bitCount bits packed MSB-first in each byte. The final byte
// may be partially filled.
func (s *Session) ReadBits(bitCount int) ([]byte, error) {
	if bitCount <= 0 {
		return nil, errors.New("bitCount must be positive")
	}
	buf := make([]byte, (bitCount+7)/8)
	total := 0
	deadline := time.Now().Add(ReadTimeout)
	for total < len(buf) {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("read timeout after %s: read %d/%d bytes", ReadTimeout, total, len(buf))
		}
		n, err := s.port.Read(buf[total:])
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		total += n
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
	if extra := (8 - (bitCount % 8)) % 8; extra != 0 {
		buf[len(buf)-1] &= byte(0xFF << extra)
	}
	return buf, nil
}

func isTrueRNG(p *enumerator.PortDetails) bool {
	if p == nil {
		return false
	}
	if p.IsUSB && (strings.HasPrefix(p.Product, DeviceNamePrefix) || strings.HasPrefix(p.SerialNumber, DeviceNamePrefix)) {
		return true
	}
	if strings.HasPrefix(p.Name, DeviceNamePrefix) {
		return true
	}
	// Common TrueRNG VID/PIDs
	return strings.EqualFold(p.VID, "16D0") && (strings.EqualFold(p.PID, "0AA0") || strings.EqualFold(p.PID, "0AA2") || strings.EqualFold(p.PID, "0AA4"))
}
