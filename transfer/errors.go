package transfer

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates that the map transfer made no progress within the
// configured deadline, either on a single block read or because the device
// never signalled the end of the transfer.
var ErrTimeout = errors.New("transfer timeout")

// ErrTruncated indicates that the stream ended while a partial line was
// still buffered: the device terminated the transfer mid-line.
var ErrTruncated = errors.New("truncated transfer")

// TransferError wraps a failure during map transfer with the operation that
// caused it. Use errors.Is to test for ErrTimeout and ErrTruncated.
type TransferError struct {
	// Op is the transfer operation that failed ("reset", "read block", "flush")
	Op string

	// Err is the underlying error
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("map transfer: %s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
