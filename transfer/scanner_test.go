package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockDevice serves a byte stream through the map register the way a real
// device does: sequential block reads walk the stream, the reset command
// rewinds it, and reads past the end return all-zero blocks.
type blockDevice struct {
	stream       []byte
	pos          int
	bytesPerWord int
	fill         byte // when set, serve endless blocks of this byte instead
	delay        time.Duration
	readErr      error

	reads     int
	resets    int
	lastWrite []uint16
}

func newBlockDevice(stream string) *blockDevice {
	return &blockDevice{stream: []byte(stream), bytesPerWord: 2}
}

func (d *blockDevice) ReadHoldingRegisters(address, count uint16) ([]uint16, error) {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.readErr != nil {
		return nil, d.readErr
	}
	d.reads++

	chunk := make([]byte, int(count)*d.bytesPerWord)
	if d.fill != 0 {
		for i := range chunk {
			chunk[i] = d.fill
		}
	} else {
		n := copy(chunk, d.stream[min(d.pos, len(d.stream)):])
		d.pos += n
	}

	words := make([]uint16, count)
	for i := range words {
		if d.bytesPerWord == 2 {
			words[i] = uint16(chunk[2*i])<<8 | uint16(chunk[2*i+1])
		} else {
			words[i] = uint16(chunk[i])
		}
	}
	return words, nil
}

func (d *blockDevice) WriteRegisters(address uint16, words []uint16) error {
	d.lastWrite = words
	d.resets++
	d.pos = 0
	return nil
}

func scanAll(s *LineScanner) ([]string, error) {
	var lines []string
	for s.Scan(context.Background()) {
		lines = append(lines, s.Text())
	}
	return lines, s.Err()
}

const testStream = "alpha\x00bravo123\x00charlie!\x00"

func TestLineScannerReassembly(t *testing.T) {
	want := []string{"alpha", "bravo123", "charlie!"}

	// the same stream must come out identically regardless of where the
	// block boundaries fall
	for _, blockWords := range []uint16{3, 4, 5, DefaultBlockWords} {
		dev := newBlockDevice(testStream)
		s := NewLineScanner(dev, Config{BlockWords: blockWords})

		lines, err := scanAll(s)
		require.NoError(t, err, "blockWords=%d", blockWords)
		assert.Equal(t, want, lines, "blockWords=%d", blockWords)
	}
}

func TestLineScannerStopsAfterTerminator(t *testing.T) {
	dev := newBlockDevice(testStream)
	s := NewLineScanner(dev, Config{BlockWords: 4})

	_, err := scanAll(s)
	require.NoError(t, err)

	// 24 stream bytes fit exactly in three 8-byte blocks, plus the
	// terminator block
	assert.Equal(t, 4, dev.reads)

	// further Scan calls stay false without touching the device
	assert.False(t, s.Scan(context.Background()))
	assert.Equal(t, 4, dev.reads)
}

func TestLineScannerResetCommand(t *testing.T) {
	dev := newBlockDevice(testStream)
	s := NewLineScanner(dev, Config{})

	require.True(t, s.Scan(context.Background()))
	assert.Equal(t, 1, dev.resets)
	assert.Equal(t, []uint16{0x2D31}, dev.lastWrite) // "-1"
}

func TestLineScannerSingleByteWords(t *testing.T) {
	dev := newBlockDevice(testStream)
	dev.bytesPerWord = 1
	s := NewLineScanner(dev, Config{BlockWords: 4, BytesPerWord: 1})

	lines, err := scanAll(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo123", "charlie!"}, lines)
	assert.Equal(t, []uint16{0x2D, 0x31}, dev.lastWrite)
}

func TestLineScannerTruncated(t *testing.T) {
	// "PARTY" never gets its delimiter before the device terminates
	dev := newBlockDevice("L1\x00PARTY")
	s := NewLineScanner(dev, Config{BlockWords: 4})

	lines, err := scanAll(s)
	assert.Equal(t, []string{"L1"}, lines)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestLineScannerReadTimeout(t *testing.T) {
	dev := newBlockDevice(testStream)
	dev.delay = 50 * time.Millisecond
	s := NewLineScanner(dev, Config{ReadTimeout: 5 * time.Millisecond})

	assert.False(t, s.Scan(context.Background()))
	assert.ErrorIs(t, s.Err(), ErrTimeout)
}

func TestLineScannerMaxBlocks(t *testing.T) {
	dev := newBlockDevice("")
	dev.fill = 'A' // never terminates, never delimits
	s := NewLineScanner(dev, Config{MaxBlocks: 3})

	assert.False(t, s.Scan(context.Background()))
	assert.ErrorIs(t, s.Err(), ErrTimeout)
	assert.Equal(t, 3, dev.reads)
}

func TestLineScannerTransportError(t *testing.T) {
	busFault := errors.New("bus fault")
	dev := newBlockDevice(testStream)
	dev.readErr = busFault
	s := NewLineScanner(dev, Config{})

	assert.False(t, s.Scan(context.Background()))

	var terr *TransferError
	require.ErrorAs(t, s.Err(), &terr)
	assert.Equal(t, "read block", terr.Op)
	assert.ErrorIs(t, s.Err(), busFault)
}

func TestLineScannerContextCancelled(t *testing.T) {
	dev := newBlockDevice(testStream)
	dev.delay = 100 * time.Millisecond
	s := NewLineScanner(dev, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, s.Scan(ctx))
	assert.ErrorIs(t, s.Err(), context.Canceled)
}

func TestConfigWithDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, uint16(DefaultMapRegister), c.MapRegister)
	assert.Equal(t, uint16(DefaultBlockWords), c.BlockWords)
	assert.Equal(t, DefaultBytesPerWord, c.BytesPerWord)
	assert.Equal(t, DefaultMaxBlocks, c.MaxBlocks)
	assert.Equal(t, DefaultReadTimeout, c.ReadTimeout)

	// negative timeout disables the deadline
	c = Config{ReadTimeout: -1}.withDefaults()
	assert.Equal(t, time.Duration(0), c.ReadTimeout)
}
