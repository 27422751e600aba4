// Package broadcast implements the single-slot latest-value rendezvous
// spec section 4.2 calls the Shared Frame Slot: one producer publishes
// frames, any number of consumers subscribe to the latest one, and a
// consumer slower than the producer silently skips the frames it missed.
//
// This is the generalization of warpcomdev/asicamera2's mutex+sync.Cond
// frame pool (internal/driver/jpeg/pool.go) to a single slot instead of a
// hash of N slots: streameye never needs history, only "now".
package broadcast

import "sync"

// Frame is an owned, immutable byte sequence — a complete JPEG, start
// marker to end marker. Once published it is never mutated; consumers
// only ever read it.
type Frame struct {
	Data []byte
}

// Slot holds the most recently published Frame behind a monotonically
// increasing epoch. Epoch 0 means the slot has never been published to.
type Slot struct {
	mu       sync.Mutex
	cond     *sync.Cond
	frame    Frame
	epoch    uint64
	shutdown bool
}

// NewSlot returns an empty slot ready to publish to and subscribe from.
func NewSlot() *Slot {
	s := &Slot{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Publish replaces the slot's contents, advances the epoch, and wakes
// every waiting subscriber. The caller retains no reference to frame
// after calling Publish if it intends to mutate the bytes — Slot treats
// them as owned from this point on.
func (s *Slot) Publish(frame Frame) {
	s.mu.Lock()
	s.frame = frame
	s.epoch++
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Subscribe blocks until the current epoch is greater than lastSeenEpoch
// or shutdown has been requested. It returns the current frame and its
// epoch; the caller should pass that epoch back in on the next call. A
// zero lastSeenEpoch always waits for the first published frame.
//
// ok is false whenever the wake-up carries nothing new for this caller:
// either shutdown was requested before a fresher frame arrived, or
// shutdown happened and no frame was ever published at all. Callers must
// stop subscribing once ok is false.
func (s *Slot) Subscribe(lastSeenEpoch uint64) (frame Frame, epoch uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.epoch <= lastSeenEpoch && !s.shutdown {
		s.cond.Wait()
	}
	if s.epoch <= lastSeenEpoch {
		return Frame{}, lastSeenEpoch, false
	}
	return s.frame, s.epoch, true
}

// Shutdown wakes every blocked subscriber so it can observe the shutdown
// and exit instead of waiting forever for a frame that will never come.
func (s *Slot) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Epoch returns the current epoch without blocking.
func (s *Slot) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}
