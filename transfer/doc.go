// Package transfer implements the streaming protocol that pulls a
// self-describing register map out of a device.
//
// # Transfer Protocol
//
// The whole map is served through one well-known holding register
// (130 by default). The host first writes ASCII "-1" to that register to
// reset the device's read pointer, then repeatedly reads fixed-size
// 120-word blocks from it. Each 16-bit word carries two ASCII bytes
// (high byte first). The byte stream is NUL-delimited text: every '\0'
// terminates one logical line of the map document.
//
// A device pads the unused tail of a block with NUL bytes, and signals the
// end of the transfer with a block whose very first line is empty. Lines
// may span block boundaries; the scanner reassembles them regardless of
// where the device chunks the stream.
//
// # Usage
//
//	s := transfer.NewLineScanner(device, transfer.DefaultConfig())
//	for s.Scan(ctx) {
//	    fmt.Println(s.Text())
//	}
//	if err := s.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// The scanner is a finite, non-restartable sequence: once it reports the
// end of the transfer it never touches the transport again. Create a new
// scanner to download the map again.
//
// # Transport
//
// This package does NOT implement the Modbus transport. Callers supply a
// Transactor, the half-duplex word-level transaction primitive. The
// transport package provides a production implementation; tests and
// simulations implement it in memory.
//
// # Error Handling
//
// Transport failures surface as *TransferError. Two sentinel conditions
// can be tested with errors.Is: ErrTimeout (a block read exceeded the
// configured deadline, or the device never terminated the transfer within
// MaxBlocks) and ErrTruncated (the stream ended with an unterminated
// partial line).
package transfer
