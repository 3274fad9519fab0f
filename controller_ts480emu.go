package rigsync

import (
	"bytes"
	"context"
	"fmt"
	"time"
)

// TS480Emu pretends to be a Kenwood TS-480 so that client software such as
// SDR Console (Track Radio, through Omnirig) can follow the frequency held
// by this controller. It never emits FrequencyChanged.
type TS480Emu struct {
	*BaseController
	ttyName string
}

const (
	ts480Baudrate    = 57600
	ts480ReadTimeout = 100 * time.Millisecond
	// longest recognised command is 4 bytes
	emuBufferTail = 16
	ifReplyLength = 38
	// PtyPort makes the emulator create a pseudo terminal instead of
	// opening a serial port.
	PtyPort = "pty"
)

func init() {
	if err := RegisterController(&ControllerInfo{
		Name:               "TS480Emu",
		Description:        "Emulated Kenwood TS-480 for client software",
		RequiresSerialPort: true,
		Capabilities: ControllerCapabilities{
			Emulator: true,
		},
		New: NewTS480Emu,
	}); err != nil {
		panic(err)
	}
}

func NewTS480Emu(cfg *ControllerConfig) (Controller, error) {
	cfg = cfg.withDefaults(ts480Baudrate, time.Second, ts480ReadTimeout)
	return &TS480Emu{
		BaseController: NewBaseController("TS480Emu", cfg),
	}, nil
}

func (emu *TS480Emu) Open(ctx context.Context) error {
	if err := emu.attach(func() (Transport, error) {
		if emu.cfg.Port == PtyPort {
			t, name, err := openPty(emu.cfg.ReadTimeout)
			if err != nil {
				return nil, err
			}
			emu.ttyName = name
			emu.log.Info("pseudo terminal ready", "tty", name)
			return t, nil
		}
		return OpenSerial(emu.cfg.Port, emu.cfg.PortBaudrate, TwoStopBits, emu.cfg.ReadTimeout)
	}); err != nil {
		return err
	}
	emu.wg.Add(1)
	go emu.recvManager(ctx)
	return nil
}

// TTYName returns the device clients should open when the emulator runs on
// a pseudo terminal.
func (emu *TS480Emu) TTYName() string {
	return emu.ttyName
}

func (emu *TS480Emu) SetFrequency(_ context.Context, hz Frequency) error {
	if hz < 0 || hz >= maxCATDigits {
		return &OutOfRangeError{Controller: emu.name, Frequency: hz, Max: maxCATDigits}
	}
	emu.store(hz)
	return nil
}

func (emu *TS480Emu) recvManager(ctx context.Context) {
	defer emu.wg.Done()
	buf := make([]byte, 0, emuBufferTail)
	rx := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return
		case <-emu.closeChan:
			return
		default:
		}
		n, err := emu.port.Read(rx)
		if err != nil {
			if !emu.closed() && ctx.Err() == nil {
				emu.Error(fmt.Errorf("failed to read com port: %w", err))
			}
			return
		}
		if n == 0 {
			continue
		}
		emu.trace(rx[:n])
		buf = append(buf, rx[:n]...)
		var reply []byte
		reply, buf, err = interpretCAT(buf, emu.Frequency())
		if err != nil {
			emu.Error(err)
			continue
		}
		if reply == nil {
			continue
		}
		if err := emu.write(reply); err != nil {
			emu.Error(fmt.Errorf("failed to write to com port: %w", err))
		}
	}
}

// interpretCAT looks for a command at the end of buf. When one is found the
// reply is returned together with an empty buffer, anything received before
// the command is discarded. Otherwise buf is returned trimmed to its last
// emuBufferTail bytes.
func interpretCAT(buf []byte, hz Frequency) ([]byte, []byte, error) {
	switch {
	case bytes.HasSuffix(buf, []byte("AI0;")):
		return []byte("AI0;"), buf[:0], nil
	case bytes.HasSuffix(buf, []byte("IF;")):
		reply, err := buildIFReply(hz)
		return reply, buf[:0], err
	case bytes.HasSuffix(buf, []byte("FA;")):
		return []byte("FA" + formatDigits(hz) + ";"), buf[:0], nil
	case bytes.HasSuffix(buf, []byte("FB;")):
		return []byte("FB" + formatDigits(hz) + ";"), buf[:0], nil
	}
	if len(buf) > emuBufferTail {
		buf = append(buf[:0], buf[len(buf)-emuBufferTail:]...)
	}
	return nil, buf, nil
}

// buildIFReply renders the TS-480 IF status record. Everything but the
// frequency is reported as idle: RIT/XIT off, memory channel 0, receiving,
// no split, no tone.
func buildIFReply(hz Frequency) ([]byte, error) {
	var (
		rit        = 0
		ritOn      = 0
		xitOn      = 0
		bank       = 0
		channel    = 0
		tx         = 0
		mode       = 0
		p10, p11   = 0, 0
		split      = 0
		tone       = 0
		toneNumber = 0
	)
	reply := fmt.Sprintf("IF%s%5s%05d%d%d%01d%02d%d%01d%01d%01d%d%d%02d%1s;",
		formatDigits(hz), "", rit, ritOn, xitOn, bank, channel, tx, mode, p10, p11, split, tone, toneNumber, "")
	if len(reply) != ifReplyLength {
		return nil, fmt.Errorf("%w: IF reply is %d bytes, want %d", ErrInvariant, len(reply), ifReplyLength)
	}
	return []byte(reply), nil
}
