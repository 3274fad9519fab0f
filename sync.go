package rigsync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

const (
	DefaultOffset          Frequency = 10057500000
	DefaultUplinkLO        Frequency = 1968000000
	DefaultInitialDownlink Frequency = 10489700000
)

type SyncConfig struct {
	Offset Frequency
	// UplinkLO is added to the primary frequency to display the uplink.
	UplinkLO Frequency
	// InitialDownlink tunes both rigs when Run starts. Unknown skips it.
	InitialDownlink Frequency
	Logger          *log.Logger
}

// Status is a snapshot for display.
type Status struct {
	Primary   Frequency `json:"primary"`
	Uplink    Frequency `json:"uplink"`
	Secondary Frequency `json:"secondary"`
	Offset    Frequency `json:"offset"`
	Segment   Segment   `json:"segment"`
}

// Sync keeps secondary = primary + offset. Changes observed on either
// controller are pushed to the other one. A pushed frequency lands in the
// target's cache, so the target's next poll does not report it back.
type Sync struct {
	primary, secondary Controller
	uplinkLO           Frequency
	initial            Frequency
	log                *log.Logger

	offset atomic.Int64
	pushCh chan struct{}

	watchMu  sync.Mutex
	watchers map[chan Status]struct{}
}

func NewSync(primary, secondary Controller, cfg SyncConfig) *Sync {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Sync{
		primary:   primary,
		secondary: secondary,
		uplinkLO:  cfg.UplinkLO,
		initial:   cfg.InitialDownlink,
		log:       cfg.Logger,
		pushCh:    make(chan struct{}, 1),
		watchers:  make(map[chan Status]struct{}),
	}
	s.offset.Store(int64(cfg.Offset))
	return s
}

func (s *Sync) Offset() Frequency {
	return Frequency(s.offset.Load())
}

// Step adds delta to the offset and retunes the primary.
func (s *Sync) Step(delta Frequency) Frequency {
	o := Frequency(s.offset.Add(int64(delta)))
	s.requestPush()
	return o
}

// SetOffset replaces the offset and retunes the primary.
func (s *Sync) SetOffset(o Frequency) {
	s.offset.Store(int64(o))
	s.requestPush()
}

func (s *Sync) requestPush() {
	select {
	case s.pushCh <- struct{}{}:
	default:
	}
}

func (s *Sync) Status() Status {
	p, sec := s.primary.Frequency(), s.secondary.Frequency()
	st := Status{
		Primary:   p,
		Secondary: sec,
		Offset:    s.Offset(),
		Segment:   SegmentOf(sec),
	}
	if p != Unknown {
		st.Uplink = p + s.uplinkLO
	}
	return st
}

// Watch returns a channel that receives a Status after every change. Only
// the latest snapshot is kept for a slow reader. Call cancel to stop.
func (s *Sync) Watch() (<-chan Status, func()) {
	ch := make(chan Status, 1)
	s.watchMu.Lock()
	ch <- s.Status()
	s.watchers[ch] = struct{}{}
	s.watchMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.watchMu.Lock()
			defer s.watchMu.Unlock()
			delete(s.watchers, ch)
			close(ch)
		})
	}
}

func (s *Sync) notify() {
	st := s.Status()
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- st:
			continue
		default:
		}
		// replace the stale snapshot
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// Run performs the optional initial tune and then propagates changes until
// ctx is done or a controller is closed.
func (s *Sync) Run(ctx context.Context) error {
	psub := s.primary.Subscribe()
	defer psub.Close()
	ssub := s.secondary.Subscribe()
	defer ssub.Close()

	if s.initial != Unknown {
		if err := s.secondary.SetFrequency(ctx, s.initial); err != nil {
			return fmt.Errorf("initial tune %s: %w", s.secondary.Name(), err)
		}
		if err := s.primary.SetFrequency(ctx, s.initial-s.Offset()); err != nil {
			return fmt.Errorf("initial tune %s: %w", s.primary.Name(), err)
		}
	}
	s.notify()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-psub.Chan():
			if !ok {
				return fmt.Errorf("%s: %w", s.primary.Name(), ErrClosed)
			}
			s.log.Debug("primary changed", "freq", evt.Frequency)
			s.tune(ctx, s.secondary, evt.Frequency+s.Offset())
		case evt, ok := <-ssub.Chan():
			if !ok {
				return fmt.Errorf("%s: %w", s.secondary.Name(), ErrClosed)
			}
			s.log.Debug("secondary changed", "freq", evt.Frequency)
			s.tune(ctx, s.primary, evt.Frequency-s.Offset())
		case <-s.pushCh:
			if sec := s.secondary.Frequency(); sec != Unknown {
				s.tune(ctx, s.primary, sec-s.Offset())
			}
		case evt := <-s.primary.Event():
			s.logEvent(evt)
			continue
		case evt := <-s.secondary.Event():
			s.logEvent(evt)
			continue
		}
		s.notify()
	}
}

func (s *Sync) tune(ctx context.Context, c Controller, hz Frequency) {
	if err := c.SetFrequency(ctx, hz); err != nil && ctx.Err() == nil {
		s.log.Warn("failed to set frequency", "controller", c.Name(), "freq", hz, "err", err)
	}
}

func (s *Sync) logEvent(evt Event) {
	switch evt.Type {
	case EventTypeError:
		s.log.Error(evt.Details, "source", evt.Source)
	case EventTypeWarning:
		s.log.Warn(evt.Details, "source", evt.Source)
	case EventTypeInfo:
		s.log.Info(evt.Details, "source", evt.Source)
	default:
		s.log.Debug(evt.Details, "source", evt.Source)
	}
}
