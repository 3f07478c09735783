package session

import (
	"context"
	"fmt"
	"time"
)

// SetQuery marks a register as included in (true) or excluded from (false)
// polling cycles. All readable registers are queried by default.
func (s *Session) SetQuery(name string, query bool) error {
	if _, err := s.lookup(name); err != nil {
		return err
	}
	s.mu.Lock()
	s.queried[name] = query
	s.mu.Unlock()
	return nil
}

// StartPolling reads every queried register in map order at the given
// interval and hands each cycle's readings to the callback. One polling
// goroutine per session; reads are serialized with any concurrent direct
// access on the same session.
func (s *Session) StartPolling(interval time.Duration, callback PollCallback) error {
	if callback == nil {
		return fmt.Errorf("callback cannot be nil")
	}
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	s.mu.Lock()
	if s.state < StateMapReady {
		s.mu.Unlock()
		return ErrNotConnected
	}
	if s.polling {
		s.mu.Unlock()
		return fmt.Errorf("session is already polling")
	}
	s.polling = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go s.pollLoop(interval, callback, stop, done)
	return nil
}

// StopPolling signals the polling goroutine to exit after the current
// cycle. It does not wait, so it is safe to call from inside the callback.
func (s *Session) StopPolling() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.polling {
		return
	}
	s.polling = false
	close(s.stop)
}

// Polling reports whether a polling loop is running.
func (s *Session) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polling
}

func (s *Session) pollLoop(interval time.Duration, callback PollCallback, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		callback(s.pollCycle(stop))
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// pollCycle reads every queried readable register once, in original map
// order. Per-register failures are recorded, not fatal.
func (s *Session) pollCycle(stop chan struct{}) []Reading {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()

	readings := make([]Reading, 0, len(doc.Descriptors))
	for _, desc := range doc.Descriptors {
		select {
		case <-stop:
			return readings
		default:
		}
		if !desc.Readable() || !s.isQueried(desc.Name) {
			continue
		}
		value, err := s.ReadByName(context.Background(), desc.Name)
		readings = append(readings, Reading{Name: desc.Name, Value: value, Err: err})
	}
	return readings
}

func (s *Session) isQueried(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queried[name]
	return !ok || q
}
