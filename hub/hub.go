package hub

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jd3nn1s/forzadash"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Subscriber is a connected consumer of the telemetry stream. Send must not
// block; a returned error removes the subscriber from the hub. Close must be
// safe to call more than once. Implementations should be pointer types so a
// stale handle with a reused ID cannot remove the live registration.
type Subscriber interface {
	ID() string
	Send(payload []byte) error
	Close()
}

// Hub pushes the live state to every subscriber at a fixed interval that is
// independent of the packet rate.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]Subscriber

	source   forzadash.StateSource
	encoder  Encoder
	interval time.Duration

	// set while encoding fails so the error is logged once, not every tick
	encodeFailing atomic.Bool
}

func New(source forzadash.StateSource, interval time.Duration, encoder Encoder) *Hub {
	return &Hub{
		subs:     make(map[string]Subscriber),
		source:   source,
		encoder:  encoder,
		interval: interval,
	}
}

func (h *Hub) Encoder() Encoder {
	return h.encoder
}

// Subscribe registers s and sends it the current state straight away so a
// new dashboard does not wait for the next tick.
func (h *Hub) Subscribe(s Subscriber) {
	h.mu.Lock()
	_, exists := h.subs[s.ID()]
	if !exists {
		h.subs[s.ID()] = s
	}
	n := len(h.subs)
	h.mu.Unlock()
	if exists {
		return
	}
	log.WithField("subscriber", s.ID()).
		WithField("subscribers", n).
		Info("subscriber connected")

	payload, ok := h.payload()
	if ok {
		h.send(s, payload)
	}
}

// Unsubscribe removes and closes s. Calling it for an unknown or already
// removed subscriber does nothing.
func (h *Hub) Unsubscribe(s Subscriber) {
	h.mu.Lock()
	cur, ok := h.subs[s.ID()]
	ok = ok && sameSubscriber(cur, s)
	if ok {
		delete(h.subs, s.ID())
	}
	n := len(h.subs)
	h.mu.Unlock()
	if !ok {
		return
	}
	s.Close()
	log.WithField("subscriber", s.ID()).
		WithField("subscribers", n).
		Info("subscriber disconnected")
}

// sameSubscriber reports whether a and b, which share an ID, are the same
// registration. Values of a type that cannot be compared are matched on ID
// alone.
func sameSubscriber(a, b Subscriber) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		return true
	}
	return a == b
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Run ticks until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.Tick()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Tick delivers the current state once to the subscribers registered when the
// tick started and returns how many sends succeeded.
func (h *Hub) Tick() int {
	subs := h.subscribers()
	if len(subs) == 0 {
		return 0
	}
	payload, ok := h.payload()
	if !ok {
		return 0
	}

	delivered := 0
	for _, s := range subs {
		if h.send(s, payload) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) subscribers() []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	return subs
}

// payload encodes the current state. It reports false when there is no state
// yet or it cannot be encoded.
func (h *Hub) payload() ([]byte, bool) {
	state, ok := h.source.Snapshot()
	if !ok {
		return nil, false
	}
	b, err := h.encoder.Marshal(&state.Telemetry)
	if err != nil {
		if !h.encodeFailing.Swap(true) {
			log.WithField("err", errors.Wrapf(err, "unable to marshal telemetry as %s", h.encoder.Name)).
				Error("unable to encode telemetry, skipping broadcasts until it succeeds")
		}
		return nil, false
	}
	if h.encodeFailing.Swap(false) {
		log.Info("telemetry encoding recovered")
	}
	return b, true
}

func (h *Hub) send(s Subscriber, payload []byte) bool {
	if err := s.Send(payload); err != nil {
		log.WithField("subscriber", s.ID()).
			WithField("err", err).
			Debug("send failed, removing subscriber")
		h.Unsubscribe(s)
		return false
	}
	return true
}
