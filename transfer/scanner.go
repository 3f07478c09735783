package transfer

import (
	"context"
	"time"
)

// Defaults for the map transfer stream.
const (
	// DefaultMapRegister is the well-known holding register serving the map
	DefaultMapRegister = 130

	// DefaultBlockWords is the fixed block size of one map read
	DefaultBlockWords = 120

	// DefaultBytesPerWord is how many ASCII bytes each register word
	// carries (high byte first)
	DefaultBytesPerWord = 2

	// DefaultMaxBlocks bounds a transfer that never terminates
	DefaultMaxBlocks = 512

	// DefaultReadTimeout is the per-block-read deadline
	DefaultReadTimeout = 2 * time.Second

	// resetCommand repositions the device's map read pointer
	resetCommand = "-1"
)

// Config controls the map transfer stream. The zero value of any field is
// replaced by the corresponding default.
type Config struct {
	// MapRegister is the holding register the map is served through.
	// The zero value selects the default (130), so holding register 0
	// cannot be used as the map channel.
	MapRegister uint16

	// BlockWords is the word count of each block read
	BlockWords uint16

	// BytesPerWord is 2 (high and low byte of each word) or 1 (low byte only)
	BytesPerWord int

	// MaxBlocks aborts the transfer with ErrTimeout after this many block
	// reads without termination
	MaxBlocks int

	// ReadTimeout bounds each block read; ErrTimeout on expiry.
	// Negative disables the deadline.
	ReadTimeout time.Duration
}

// DefaultConfig returns the default transfer configuration.
func DefaultConfig() Config {
	return Config{
		MapRegister:  DefaultMapRegister,
		BlockWords:   DefaultBlockWords,
		BytesPerWord: DefaultBytesPerWord,
		MaxBlocks:    DefaultMaxBlocks,
		ReadTimeout:  DefaultReadTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MapRegister == 0 {
		c.MapRegister = d.MapRegister
	}
	if c.BlockWords == 0 {
		c.BlockWords = d.BlockWords
	}
	if c.BytesPerWord != 1 && c.BytesPerWord != 2 {
		c.BytesPerWord = d.BytesPerWord
	}
	if c.MaxBlocks <= 0 {
		c.MaxBlocks = d.MaxBlocks
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	} else if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	return c
}

// LineScanner reassembles the device's block reads into logical map lines.
// The interface follows bufio.Scanner: call Scan until it returns false,
// then check Err.
//
// The sequence is finite and non-restartable; the scanner issues the reset
// command on the first Scan and never reads past the terminator block.
type LineScanner struct {
	tr      Transactor
	cfg     Config
	buf     []byte
	pending []string
	line    string
	err     error
	started bool
	done    bool
	blocks  int
}

// NewLineScanner returns a scanner pulling the map through tr.
func NewLineScanner(tr Transactor, cfg Config) *LineScanner {
	return &LineScanner{tr: tr, cfg: cfg.withDefaults()}
}

// Reset writes the reset command so the device repositions its map read
// pointer to the start of the map. Scan calls it automatically; it is
// exported so a caller abandoning the stream mid-transfer can leave the
// device in a sane state.
func (s *LineScanner) Reset() error {
	var words []uint16
	if s.cfg.BytesPerWord == 1 {
		words = make([]uint16, len(resetCommand))
		for i := 0; i < len(resetCommand); i++ {
			words[i] = uint16(resetCommand[i])
		}
	} else {
		words = []uint16{uint16(resetCommand[0])<<8 | uint16(resetCommand[1])}
	}
	if err := s.tr.WriteRegisters(s.cfg.MapRegister, words); err != nil {
		return &TransferError{Op: "reset", Err: err}
	}
	return nil
}

// Scan advances to the next map line. It returns false at the end of the
// transfer or on error; Err tells the two apart.
func (s *LineScanner) Scan(ctx context.Context) bool {
	if s.err != nil {
		return false
	}
	if !s.started {
		if err := s.Reset(); err != nil {
			s.err = err
			return false
		}
		s.started = true
	}

	for {
		if len(s.pending) > 0 {
			s.line = s.pending[0]
			s.pending = s.pending[1:]
			return true
		}
		if s.done {
			if len(s.buf) > 0 {
				s.err = &TransferError{Op: "flush", Err: ErrTruncated}
				s.buf = nil
			}
			return false
		}
		if s.blocks >= s.cfg.MaxBlocks {
			s.err = &TransferError{Op: "read block", Err: ErrTimeout}
			return false
		}

		words, err := readWithDeadline(ctx, s.tr, s.cfg.MapRegister, s.cfg.BlockWords, s.cfg.ReadTimeout)
		if err != nil {
			s.err = &TransferError{Op: "read block", Err: err}
			return false
		}
		s.blocks++
		s.consumeBlock(s.decodeWords(words))
	}
}

// Text returns the current line. Valid until the next Scan call.
func (s *LineScanner) Text() string { return s.line }

// Err returns the first error encountered, nil on a clean end of transfer.
func (s *LineScanner) Err() error { return s.err }

// decodeWords widens register words into stream bytes.
func (s *LineScanner) decodeWords(words []uint16) []byte {
	data := make([]byte, 0, len(words)*s.cfg.BytesPerWord)
	for _, w := range words {
		if s.cfg.BytesPerWord == 2 {
			data = append(data, byte(w>>8), byte(w))
		} else {
			data = append(data, byte(w))
		}
	}
	return data
}

// consumeBlock splits block bytes on NUL delimiters, queueing complete
// lines and keeping a trailing partial line for the next block.
//
// A block whose first line is empty marks the end of the transfer; any
// partial line still buffered at that point surfaces as ErrTruncated when
// the stream is flushed. An empty line later in a block is tail padding:
// the remainder of that block carries no data.
func (s *LineScanner) consumeBlock(data []byte) {
	if len(data) == 0 || data[0] == 0 {
		s.done = true
		return
	}
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c != 0 {
			s.buf = append(s.buf, c)
			continue
		}
		if len(s.buf) == 0 {
			// padding, nothing more in this block
			return
		}
		s.pending = append(s.pending, string(s.buf))
		s.buf = s.buf[:0]
	}
}
