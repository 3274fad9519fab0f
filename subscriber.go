package rigsync

import (
	"context"
	"fmt"
	"sync"
)

const subscriberBuffer = 16

type Subscriber struct {
	base      *BaseController
	ch        chan FrequencyChanged
	closeOnce sync.Once
}

// Subscribe registers a new receiver of FrequencyChanged events. The
// channel is closed when the subscriber or the controller is closed.
func (base *BaseController) Subscribe() *Subscriber {
	sub := &Subscriber{
		base: base,
		ch:   make(chan FrequencyChanged, subscriberBuffer),
	}
	base.subMu.Lock()
	defer base.subMu.Unlock()
	if base.closed() {
		close(sub.ch)
		return sub
	}
	base.subs[sub] = struct{}{}
	return sub
}

func (s *Subscriber) Chan() <-chan FrequencyChanged {
	return s.ch
}

func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		s.base.unsubscribe(s)
	})
}

// Wait returns the next event.
func (s *Subscriber) Wait(ctx context.Context) (FrequencyChanged, error) {
	select {
	case <-ctx.Done():
		return FrequencyChanged{}, fmt.Errorf("timeout: %w", ctx.Err())
	case evt, ok := <-s.ch:
		if !ok {
			return FrequencyChanged{}, ErrClosed
		}
		return evt, nil
	}
}

func (base *BaseController) unsubscribe(sub *Subscriber) {
	base.subMu.Lock()
	defer base.subMu.Unlock()
	if _, ok := base.subs[sub]; ok {
		delete(base.subs, sub)
		close(sub.ch)
	}
}

// NOTE: We send while holding RLock on subMu. unsubscribe acquires the write
// lock and closes sub.ch. Holding RLock guarantees the channel won't be
// closed mid-send, avoiding send-on-closed-channel panics.
func (base *BaseController) publish(hz Frequency) {
	evt := FrequencyChanged{Source: base.name, Frequency: hz}
	base.subMu.RLock()
	defer base.subMu.RUnlock()
	for sub := range base.subs {
		select {
		case sub.ch <- evt:
		default:
			base.Warn(fmt.Sprintf("failed to deliver %s: %v", evt, ErrDroppedEvent))
		}
	}
}
