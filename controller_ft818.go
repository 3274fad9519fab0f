package rigsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/albenik/bcd"
	"github.com/avast/retry-go"
)

// FT818 talks to a Yaesu FT-817/818 using the 5 byte binary CAT frames.
type FT818 struct {
	*BaseController
}

const (
	ft818Baudrate    = 9600
	ft818Poll        = 50 * time.Millisecond
	ft818ReadTimeout = 1 * time.Second

	ft818OpSetFrequency  = 0x01
	ft818OpReadFrequency = 0x03

	// the frame carries 8 digits of tens of Hertz
	ft818MaxFrequency Frequency = 1 * GHz
)

var ft818ReadFrequencyCmd = []byte{0x00, 0x00, 0x00, 0x00, ft818OpReadFrequency}

func init() {
	if err := RegisterController(&ControllerInfo{
		Name:               "FT818",
		Description:        "Yaesu FT-817/818 binary CAT",
		RequiresSerialPort: true,
		Capabilities: ControllerCapabilities{
			Polling: true,
		},
		New: NewFT818,
	}); err != nil {
		panic(err)
	}
}

func NewFT818(cfg *ControllerConfig) (Controller, error) {
	cfg = cfg.withDefaults(ft818Baudrate, ft818Poll, ft818ReadTimeout)
	return &FT818{
		BaseController: NewBaseController("FT818", cfg),
	}, nil
}

func (ft *FT818) Open(ctx context.Context) error {
	if err := ft.attach(func() (Transport, error) {
		return OpenSerial(ft.cfg.Port, ft.cfg.PortBaudrate, TwoStopBits, ft.cfg.ReadTimeout)
	}); err != nil {
		return err
	}
	ft.startPoller(ctx, ft.readFrequency)
	return nil
}

// readFrequency must be called with ft.mu held.
func (ft *FT818) readFrequency() Frequency {
	hz, err := ft818ReadFrequency(ft.port, ft.write, ft.trace)
	if err != nil {
		ft.Debug(fmt.Sprintf("read frequency: %v", err))
		return Unknown
	}
	return hz
}

func ft818ReadFrequency(port Transport, write func([]byte) error, trace func([]byte)) (Frequency, error) {
	// a late ack left in the buffer would shift the reply by one byte
	if err := port.ResetInputBuffer(); err != nil {
		return Unknown, fmt.Errorf("failed to reset input buffer: %w", err)
	}
	if err := write(ft818ReadFrequencyCmd); err != nil {
		return Unknown, fmt.Errorf("failed to write to com port: %w", err)
	}
	resp, err := readFull(port, 5)
	trace(resp)
	if err != nil {
		return Unknown, err
	}
	return decodeFT818Frequency(resp)
}

func (ft *FT818) SetFrequency(ctx context.Context, hz Frequency) error {
	if hz < 0 || hz >= ft818MaxFrequency {
		return &OutOfRangeError{Controller: ft.name, Frequency: hz, Max: ft818MaxFrequency}
	}
	// the rig tunes in 10 Hz steps, cache what it will report back
	want := hz - hz%10
	frame := encodeFT818Frequency(want)

	ft.mu.Lock()
	defer ft.mu.Unlock()
	if ft.closed() {
		return ErrClosed
	}
	if ft.Frequency() == want {
		return nil
	}

	confirmCtx, cancel := context.WithTimeout(ctx, ft.cfg.ConfirmTimeout)
	defer cancel()
	err := retry.Do(func() error {
		if ft.closed() {
			return retry.Unrecoverable(ErrClosed)
		}
		if err := ft.port.ResetInputBuffer(); err != nil {
			return fmt.Errorf("failed to reset input buffer: %w", err)
		}
		if err := ft.write(frame); err != nil {
			return fmt.Errorf("failed to write to com port: %w", err)
		}
		ft.store(want)
		// The rig acks with a single byte. Losing it is not fatal, the
		// frame has been written.
		ack, err := readByte(ft.port)
		if err != nil {
			ft.Debug(fmt.Sprintf("set frequency %d: no confirmation: %v", want, err))
			return nil
		}
		ft.trace([]byte{ack})
		return nil
	},
		retry.Context(confirmCtx),
		retry.Attempts(10),
		retry.Delay(50*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
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
	return &TimeoutError{Timeout: ft.cfg.ConfirmTimeout, Op: "set frequency", Err: err}
}

// encodeFT818Frequency builds the set frequency frame. 439700000 Hz is sent
// as 43 97 00 00 01, the frame holds the decimal digits of the frequency in
// tens of Hertz, two per byte.
func encodeFT818Frequency(hz Frequency) []byte {
	frame := bcd.FromUint32(uint32(hz / 10))
	return append(frame, ft818OpSetFrequency)
}

// decodeFT818Frequency parses the first four bytes of a read frequency
// reply. A byte that does not hold two decimal digits makes the reply
// unparsable.
func decodeFT818Frequency(b []byte) (Frequency, error) {
	if len(b) < 4 {
		return Unknown, fmt.Errorf("%w: short reply % X", ErrMalformedReply, b)
	}
	for _, c := range b[:4] {
		if c>>4 > 9 || c&0x0F > 9 {
			return Unknown, fmt.Errorf("%w: % X", ErrMalformedReply, b)
		}
	}
	return Frequency(bcd.ToUint32(b[:4])) * 10, nil
}
