package forzadash

import (
	"sync/atomic"
	"time"
)

// State is a consistent view of the latest packet.
type State struct {
	Telemetry Telemetry
	RaceOn    bool
	Received  time.Time
}

// LiveState holds the most recently decoded packet. There is one writer, the
// UDP listener, and any number of readers. Every Update swaps in a new value
// so readers never see fields from two packets.
type LiveState struct {
	cur atomic.Pointer[State]
}

func NewLiveState() *LiveState {
	return &LiveState{}
}

func (s *LiveState) Update(t *Telemetry) {
	s.cur.Store(&State{
		Telemetry: *t,
		RaceOn:    t.RaceOn(),
		Received:  time.Now(),
	})
}

// Snapshot returns a copy of the current state. ok is false until the first
// packet has been stored.
func (s *LiveState) Snapshot() (state State, ok bool) {
	p := s.cur.Load()
	if p == nil {
		return State{}, false
	}
	return *p, true
}
