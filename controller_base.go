package rigsync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

type BaseController struct {
	name string
	cfg  *ControllerConfig
	log  *log.Logger
	port Transport

	// mu serializes every request/reply exchange on port, including the
	// compare and store of the cached frequency that follows a read.
	mu   sync.Mutex
	freq atomic.Int64

	subMu sync.RWMutex
	subs  map[*Subscriber]struct{}

	evtChan chan Event

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeChan chan struct{}
}

func NewBaseController(name string, cfg *ControllerConfig) *BaseController {
	return &BaseController{
		name:      name,
		cfg:       cfg,
		log:       cfg.Logger.WithPrefix(name),
		subs:      make(map[*Subscriber]struct{}),
		evtChan:   make(chan Event, 100),
		closeChan: make(chan struct{}),
	}
}

// Name returns the controller name.
func (base *BaseController) Name() string {
	return base.name
}

func (base *BaseController) Frequency() Frequency {
	return Frequency(base.freq.Load())
}

func (base *BaseController) Event() <-chan Event {
	return base.evtChan
}

// attach takes ownership of the configured transport, or of the one
// returned by open when none was configured.
func (base *BaseController) attach(open func() (Transport, error)) error {
	if base.cfg.Transport != nil {
		base.port = base.cfg.Transport
		return nil
	}
	p, err := open()
	if err != nil {
		return err
	}
	base.port = p
	return nil
}

func (base *BaseController) closed() bool {
	select {
	case <-base.closeChan:
		return true
	default:
		return false
	}
}

// Close stops the background goroutines, closes the transport and closes
// all subscriber channels.
func (base *BaseController) Close() error {
	var err error
	base.closeOnce.Do(func() {
		close(base.closeChan)
		if base.port != nil {
			err = base.port.Close()
		}
		base.wg.Wait()
		base.subMu.Lock()
		for sub := range base.subs {
			delete(base.subs, sub)
			close(sub.ch)
		}
		base.subMu.Unlock()
	})
	return err
}

// startPoller runs read every PollInterval until ctx is done or the
// controller is closed.
func (base *BaseController) startPoller(ctx context.Context, read func() Frequency) {
	base.wg.Add(1)
	go func() {
		defer base.wg.Done()
		t := time.NewTicker(base.cfg.PollInterval)
		defer t.Stop()
		for {
			base.poll(read)
			select {
			case <-ctx.Done():
				return
			case <-base.closeChan:
				return
			case <-t.C:
			}
		}
	}()
}

// poll performs one read and publishes a change if there was a baseline
// to compare against. Unknown readings are skipped.
func (base *BaseController) poll(read func() Frequency) {
	base.mu.Lock()
	if base.closed() {
		base.mu.Unlock()
		return
	}
	hz := read()
	changed := false
	if hz != Unknown {
		prev := Frequency(base.freq.Swap(int64(hz)))
		changed = prev != hz && prev != Unknown
	}
	base.mu.Unlock()
	if changed {
		base.publish(hz)
	}
}

func (base *BaseController) store(hz Frequency) {
	base.freq.Store(int64(hz))
}

func (base *BaseController) write(b []byte) error {
	if base.cfg.Debug {
		base.log.Debug(">> " + printable(b))
	}
	_, err := base.port.Write(b)
	return err
}

func (base *BaseController) trace(b []byte) {
	if base.cfg.Debug {
		base.log.Debug("<< " + printable(b))
	}
}

func (base *BaseController) sendEvent(eventType EventType, details string) {
	select {
	case base.evtChan <- Event{Source: base.name, Type: eventType, Details: details}:
	default:
		base.log.Warn("event channel full", "details", details)
	}
}

// Send an error event
func (base *BaseController) Error(err error) {
	base.sendEvent(EventTypeError, err.Error())
}

// Send a warning event
func (base *BaseController) Warn(warn string) {
	base.sendEvent(EventTypeWarning, warn)
}

// Send an info event
func (base *BaseController) Info(info string) {
	base.sendEvent(EventTypeInfo, info)
}

// Send a debug event
func (base *BaseController) Debug(debug string) {
	base.sendEvent(EventTypeDebug, debug)
}

func printable(b []byte) string {
	out := make([]byte, 0, len(b)*2)
	const hexdigits = "0123456789ABCDEF"
	for _, c := range b {
		if c >= 0x20 && c < 0x7f {
			out = append(out, c)
			continue
		}
		out = append(out, '\\', 'x', hexdigits[c>>4], hexdigits[c&0xF])
	}
	return string(out)
}
