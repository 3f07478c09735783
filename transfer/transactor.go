package transfer

import (
	"context"
	"time"
)

// Transactor is the word-level Modbus transaction primitive supplied by the
// caller. The protocol is strictly half-duplex: implementations may assume
// one outstanding transaction at a time per device connection.
//
// The transport package provides an implementation backed by a real Modbus
// client; tests use in-memory fakes.
type Transactor interface {
	// ReadHoldingRegisters reads count holding registers starting at address
	ReadHoldingRegisters(address, count uint16) ([]uint16, error)

	// WriteRegisters writes words to consecutive holding registers starting
	// at address
	WriteRegisters(address uint16, words []uint16) error
}

// readWithDeadline issues one block read bounded by the configured timeout
// and the caller's context. A zero timeout disables the deadline.
func readWithDeadline(ctx context.Context, tr Transactor, address, count uint16, timeout time.Duration) ([]uint16, error) {
	type result struct {
		words []uint16
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		words, err := tr.ReadHoldingRegisters(address, count)
		ch <- result{words, err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case r := <-ch:
		return r.words, r.err
	case <-expired:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
