package rigsync

import (
	"time"
)

// FT818Baudrates are the rates tried by DiscoverFT818, in order.
var FT818Baudrates = []int{4800, 9600, 38400}

// Candidate is a port and baud rate on which an FT-818 answered.
type Candidate struct {
	Port      string
	Baudrate  int
	Frequency Frequency
}

// PortOpener opens a port for probing.
type PortOpener func(port string, baudrate int) (Transport, error)

// DiscoverFT818 tries every port at every rate in bauds and returns the
// combinations that answered a frequency read with a parsable reply.
// Ports that fail to open are skipped.
func DiscoverFT818(ports []string, bauds []int, open PortOpener) []Candidate {
	var out []Candidate
	for _, port := range ports {
		for _, baud := range bauds {
			t, err := open(port, baud)
			if err != nil {
				continue
			}
			hz, err := ft818ReadFrequency(t, func(b []byte) error {
				_, err := t.Write(b)
				return err
			}, func([]byte) {})
			t.Close()
			if err != nil || hz == Unknown {
				continue
			}
			out = append(out, Candidate{Port: port, Baudrate: baud, Frequency: hz})
		}
	}
	return out
}

// DiscoverFT818Serial scans all serial ports present on the system.
func DiscoverFT818Serial(readTimeout time.Duration) ([]Candidate, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	return DiscoverFT818(names, FT818Baudrates, func(port string, baudrate int) (Transport, error) {
		return OpenSerial(port, baudrate, TwoStopBits, readTimeout)
	}), nil
}
