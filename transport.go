package rigsync

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Transport is a byte stream to a rig. A read that hits the read timeout
// returns 0 bytes and a nil error, the way go.bug.st/serial ports do.
type Transport interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	// ResetInputBuffer drops received bytes nobody has read yet.
	ResetInputBuffer() error
}

type StopBits int

const (
	OneStopBit StopBits = iota
	TwoStopBits
)

// OpenSerial opens a serial port in 8N1 or 8N2 framing.
func OpenSerial(port string, baudrate int, stopBits StopBits, readTimeout time.Duration) (Transport, error) {
	if runtime.GOOS == "windows" {
		port = strings.ToUpper(port)
	}
	mode := &serial.Mode{
		BaudRate: baudrate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	if stopBits == TwoStopBits {
		mode.StopBits = serial.TwoStopBits
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open com port %q : %v", port, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %q: %w", port, err)
	}
	p.ResetOutputBuffer()
	p.ResetInputBuffer()
	return p, nil
}

type PortInfo struct {
	Name         string
	IsUSB        bool
	VID, PID     string
	SerialNumber string
}

func (p PortInfo) String() string {
	if !p.IsUSB {
		return p.Name
	}
	return fmt.Sprintf("%s (USB %s:%s %s)", p.Name, p.VID, p.PID, p.SerialNumber)
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		return nil, errors.New("no serial ports found")
	}
	out := make([]PortInfo, 0, len(ports))
	for _, port := range ports {
		out = append(out, PortInfo{
			Name:         port.Name,
			IsUSB:        port.IsUSB,
			VID:          port.VID,
			PID:          port.PID,
			SerialNumber: port.SerialNumber,
		})
	}
	return out, nil
}

func readByte(t Transport) (byte, error) {
	var b [1]byte
	n, err := t.Read(b[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrReadTimeout
	}
	return b[0], nil
}

// readFull reads exactly n bytes, one at a time, so that partial reads
// never lose framing.
func readFull(t Transport, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		b, err := readByte(t)
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
	return out, nil
}

// readUntil reads until delim is seen or max bytes have been read.
func readUntil(t Transport, delim byte, max int) ([]byte, error) {
	out := make([]byte, 0, max)
	for len(out) < max {
		b, err := readByte(t)
		if err != nil {
			return out, err
		}
		out = append(out, b)
		if b == delim {
			return out, nil
		}
	}
	return out, ErrMalformedReply
}
