package rigsync

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/albenik/bcd"
	"github.com/charmbracelet/log"
)

// mockTransport is an in-memory Transport. Every Write is handed to respond
// and whatever it returns becomes readable.
type mockTransport struct {
	mu      sync.Mutex
	rx      []byte
	tx      []byte
	writes  [][]byte
	closed  bool
	resets  int
	timeout time.Duration
	respond func([]byte) []byte
}

func newMockTransport(respond func([]byte) []byte) *mockTransport {
	return &mockTransport{timeout: 20 * time.Millisecond, respond: respond}
}

func (m *mockTransport) Read(b []byte) (int, error) {
	deadline := time.Now().Add(m.timeout)
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return 0, io.EOF
		}
		if len(m.rx) > 0 {
			n := copy(b, m.rx)
			m.rx = m.rx[n:]
			m.mu.Unlock()
			return n, nil
		}
		m.mu.Unlock()
		if time.Now().After(deadline) {
			return 0, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (m *mockTransport) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	frame := append([]byte(nil), b...)
	m.tx = append(m.tx, frame...)
	m.writes = append(m.writes, frame)
	if m.respond != nil {
		m.rx = append(m.rx, m.respond(frame)...)
	}
	return len(b), nil
}

func (m *mockTransport) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	m.timeout = t
	m.mu.Unlock()
	return nil
}

func (m *mockTransport) ResetInputBuffer() error {
	m.mu.Lock()
	m.rx = nil
	m.resets++
	m.mu.Unlock()
	return nil
}

func (m *mockTransport) resetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// feed makes b readable as if a client had sent it.
func (m *mockTransport) feed(b []byte) {
	m.mu.Lock()
	m.rx = append(m.rx, b...)
	m.mu.Unlock()
}

func (m *mockTransport) written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.tx...)
}

func (m *mockTransport) writeCount(match func([]byte) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.writes {
		if match(w) {
			n++
		}
	}
	return n
}

// fakeRig holds the frequency of a simulated rig.
type fakeRig struct {
	mu   sync.Mutex
	freq Frequency
	// ignoreSets makes the rig drop frequency changes
	ignoreSets bool
	sets       int
}

func (r *fakeRig) get() Frequency {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freq
}

// twiddle changes the frequency as if the knob was turned.
func (r *fakeRig) twiddle(hz Frequency) {
	r.mu.Lock()
	r.freq = hz
	r.mu.Unlock()
}

func (r *fakeRig) setCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

// ts2000 answers FA; and accepts FAnnnnnnnnnnn;
func (r *fakeRig) ts2000(b []byte) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := string(b)
	switch {
	case s == "FA;":
		return []byte(fmt.Sprintf("FA%011d;", int64(r.freq)))
	case len(s) == 14 && s[:2] == "FA":
		r.sets++
		if v, err := strconv.ParseInt(s[2:13], 10, 64); err == nil && !r.ignoreSets {
			r.freq = Frequency(v)
		}
	}
	return nil
}

// ft818 answers the binary read and set frequency frames.
func (r *fakeRig) ft818(b []byte) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(b) != 5 {
		return nil
	}
	switch b[4] {
	case 0x03:
		return append(bcd.FromUint32(uint32(r.freq/10)), 0x01) // 0x01 = USB
	case 0x01:
		r.sets++
		if !r.ignoreSets {
			r.freq = Frequency(bcd.ToUint32(b[:4])) * 10
		}
		return []byte{0x00}
	}
	return nil
}

func testConfig(t *testing.T, tr Transport) *ControllerConfig {
	t.Helper()
	return &ControllerConfig{
		Transport:      tr,
		PollInterval:   5 * time.Millisecond,
		ConfirmTimeout: time.Second,
		Logger:         log.NewWithOptions(io.Discard, log.Options{}),
	}
}

func openTest(t *testing.T, name string, cfg *ControllerConfig) Controller {
	t.Helper()
	c, err := OpenController(context.Background(), name, cfg)
	if err != nil {
		t.Fatalf("OpenController(%s): %v", name, err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
