package rigsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
)

// TS2000 talks to a Kenwood TS-2000, or anything emulating its CAT
// protocol such as SDR Console.
type TS2000 struct {
	*BaseController
}

const (
	ts2000Baudrate    = 57600
	ts2000Poll        = 250 * time.Millisecond
	ts2000ReadTimeout = 500 * time.Millisecond
	// FA + 11 digits + ;
	catReplyLength = 14
	catMaxReply    = 64
)

var catQueryFA = []byte("FA;")

func init() {
	if err := RegisterController(&ControllerInfo{
		Name:               "TS2000",
		Description:        "Kenwood TS-2000 compatible ASCII CAT",
		RequiresSerialPort: true,
		Capabilities: ControllerCapabilities{
			Polling: true,
		},
		New: NewTS2000,
	}); err != nil {
		panic(err)
	}
}

func NewTS2000(cfg *ControllerConfig) (Controller, error) {
	cfg = cfg.withDefaults(ts2000Baudrate, ts2000Poll, ts2000ReadTimeout)
	return &TS2000{
		BaseController: NewBaseController("TS2000", cfg),
	}, nil
}

func (ts *TS2000) Open(ctx context.Context) error {
	if err := ts.attach(func() (Transport, error) {
		return OpenSerial(ts.cfg.Port, ts.cfg.PortBaudrate, OneStopBit, ts.cfg.ReadTimeout)
	}); err != nil {
		return err
	}
	ts.startPoller(ctx, ts.readFrequency)
	return nil
}

// readFrequency queries VFO A. The caller must hold ts.mu.
func (ts *TS2000) readFrequency() Frequency {
	if err := ts.port.ResetInputBuffer(); err != nil {
		ts.Error(fmt.Errorf("failed to reset input buffer: %w", err))
		return Unknown
	}
	if err := ts.write(catQueryFA); err != nil {
		ts.Error(fmt.Errorf("failed to write to com port: %w", err))
		return Unknown
	}
	resp, err := readUntil(ts.port, ';', catMaxReply)
	ts.trace(resp)
	if err != nil {
		ts.Debug(fmt.Sprintf("read FA: %v: %q", err, resp))
		return Unknown
	}
	hz, err := decodeFA(resp)
	if err != nil {
		ts.Debug(err.Error())
		return Unknown
	}
	return hz
}

func (ts *TS2000) SetFrequency(ctx context.Context, hz Frequency) error {
	if hz < 0 || hz >= maxCATDigits {
		return &OutOfRangeError{Controller: ts.name, Frequency: hz, Max: maxCATDigits}
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.closed() {
		return ErrClosed
	}
	if err := ts.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to reset input buffer: %w", err)
	}
	if err := ts.write(encodeFA(hz)); err != nil {
		return fmt.Errorf("failed to write to com port: %w", err)
	}
	ts.store(hz)

	confirmCtx, cancel := context.WithTimeout(ctx, ts.cfg.ConfirmTimeout)
	defer cancel()
	err := retry.Do(func() error {
		if ts.closed() {
			return retry.Unrecoverable(ErrClosed)
		}
		if got := ts.readFrequency(); got != hz {
			return fmt.Errorf("%w: want %d got %d", ErrNotConfirmed, hz, got)
		}
		return nil
	},
		retry.Context(confirmCtx),
		retry.Attempts(1000),
		retry.Delay(10*time.Millisecond),
		retry.MaxDelay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrClosed) {
		return ErrClosed
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &TimeoutError{Timeout: ts.cfg.ConfirmTimeout, Op: "set frequency", Err: ErrNotConfirmed}
}

func encodeFA(hz Frequency) []byte {
	return []byte("FA" + formatDigits(hz) + ";")
}

// decodeFA parses a FA00432100000; style reply.
func decodeFA(b []byte) (Frequency, error) {
	return decodeCATFrequency("FA", b)
}

func decodeCATFrequency(prefix string, b []byte) (Frequency, error) {
	if len(b) != catReplyLength || !bytes.HasPrefix(b, []byte(prefix)) || b[len(b)-1] != ';' {
		return Unknown, fmt.Errorf("%w: %q", ErrMalformedReply, b)
	}
	return parseDigits(b[len(prefix) : len(b)-1])
}
