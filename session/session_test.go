package session

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimb/go-regmap/mapcache"
	"github.com/minimb/go-regmap/regmap"
	"github.com/minimb/go-regmap/transfer"
)

const testUUID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

var testMapLines = []string{
	"# title : modbus register map for Mock Widget",
	"# uuid  : " + testUUID,
	"100,2,2,0,TEMPERATURE,>f,C,,",
	"102,1,1,0,COUNT,>H,,,",
	"103,1,0,0,STATUS,>H,,,",
	"104,0,1,0,COMMAND,>H,,,",
	"105,4,0,0,LABEL,>8s,,,",
}

// mockDevice is a register-level device fake. It serves its map text
// through the map register the way a real device does and backs every
// other address with a plain word store.
type mockDevice struct {
	mapText string
	pos     int
	regs    map[uint16][]uint16
	writes  map[uint16][]uint16

	mapReads int
	resets   int
}

func newMockDevice() *mockDevice {
	return &mockDevice{
		mapText: strings.Join(testMapLines, "\x00") + "\x00",
		regs: map[uint16][]uint16{
			100: {0x4248, 0x0000}, // 50.0 as big-endian float32
			102: {7},
			103: {3},
			105: {0x4D4F, 0x434B, 0x4445, 0x5600}, // "MOCKDEV"
		},
		writes: make(map[uint16][]uint16),
	}
}

func (d *mockDevice) ReadHoldingRegisters(address, count uint16) ([]uint16, error) {
	words := make([]uint16, count)
	if address == transfer.DefaultMapRegister {
		d.mapReads++
		for i := range words {
			var hi, lo byte
			if d.pos < len(d.mapText) {
				hi = d.mapText[d.pos]
				d.pos++
			}
			if d.pos < len(d.mapText) {
				lo = d.mapText[d.pos]
				d.pos++
			}
			words[i] = uint16(hi)<<8 | uint16(lo)
		}
		return words, nil
	}
	copy(words, d.regs[address])
	return words, nil
}

func (d *mockDevice) WriteRegisters(address uint16, words []uint16) error {
	if address == transfer.DefaultMapRegister {
		d.resets++
		d.pos = 0
		return nil
	}
	d.writes[address] = words
	return nil
}

func TestNewNilTransactor(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestSessionNotConnected(t *testing.T) {
	sess := New(newMockDevice())
	ctx := context.Background()

	assert.Equal(t, StateDisconnected, sess.State())
	assert.Nil(t, sess.Document())

	_, err := sess.ReadByName(ctx, "TEMPERATURE")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, sess.WriteByName(ctx, "COUNT", 1), ErrNotConnected)
	assert.ErrorIs(t, sess.SetQuery("COUNT", false), ErrNotConnected)
	assert.ErrorIs(t, sess.StartPolling(time.Second, func([]Reading) {}), ErrNotConnected)
	assert.ErrorIs(t, sess.VerifyAndRefresh(ctx), ErrNotConnected)
}

func TestSessionDownloadAndAccess(t *testing.T) {
	dev := newMockDevice()
	sess := New(dev)
	ctx := context.Background()

	require.NoError(t, sess.DownloadOrLoadMap(ctx))
	assert.Equal(t, StateMapReady, sess.State())

	doc := sess.Document()
	require.NotNil(t, doc)
	assert.Equal(t, "Mock Widget", doc.Title)
	assert.Equal(t, testUUID, doc.UUID)
	assert.Len(t, doc.Descriptors, 5)

	value, err := sess.ReadByName(ctx, "TEMPERATURE")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, value, 1e-6)
	assert.Equal(t, StateActive, sess.State())

	value, err = sess.ReadByName(ctx, "LABEL")
	require.NoError(t, err)
	assert.Equal(t, "MOCKDEV", value)

	require.NoError(t, sess.WriteByName(ctx, "COUNT", 9))
	assert.Equal(t, []uint16{9}, dev.writes[102])

	// access direction is enforced per descriptor
	_, err = sess.ReadByName(ctx, "COMMAND")
	var access *AccessError
	require.ErrorAs(t, err, &access)
	assert.Equal(t, "read", access.Op)

	err = sess.WriteByName(ctx, "STATUS", 1)
	require.ErrorAs(t, err, &access)
	assert.Equal(t, "write", access.Op)

	_, err = sess.ReadByName(ctx, "MISSING")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "MISSING", notFound.Name)
}

func TestSessionWriteEncodeErrorAborts(t *testing.T) {
	dev := newMockDevice()
	sess := New(dev)
	ctx := context.Background()
	require.NoError(t, sess.DownloadOrLoadMap(ctx))

	err := sess.WriteByName(ctx, "COUNT", -1)
	var rangeErr *regmap.ValueOutOfRangeError
	require.ErrorAs(t, err, &rangeErr)

	// nothing reached the device
	_, written := dev.writes[102]
	assert.False(t, written)
}

func TestSessionMalformedMap(t *testing.T) {
	dev := newMockDevice()
	dev.mapText = "100,2,2,0,BROKEN,>zz,,,\x00"
	sess := New(dev)

	err := sess.DownloadOrLoadMap(context.Background())
	var malformed *regmap.MalformedRegisterError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, StateDisconnected, sess.State())
}

func TestSessionCache(t *testing.T) {
	store := mapcache.New(t.TempDir())
	ctx := context.Background()

	dev1 := newMockDevice()
	sess1 := New(dev1, WithCache(store))
	require.NoError(t, sess1.DownloadOrLoadMap(ctx))
	assert.Equal(t, 2, dev1.mapReads) // map block plus terminator

	_, err := os.Stat(store.Path(testUUID))
	require.NoError(t, err)

	// a second device with the same uuid short-circuits the transfer
	dev2 := newMockDevice()
	sess2 := New(dev2, WithCache(store))
	require.NoError(t, sess2.DownloadOrLoadMap(ctx))

	assert.Equal(t, 1, dev2.mapReads)
	assert.Equal(t, 2, dev2.resets) // start of transfer plus abandonment
	assert.Equal(t, sess1.Document().Raw, sess2.Document().Raw)

	value, err := sess2.ReadByName(ctx, "TEMPERATURE")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, value, 1e-6)
}

func TestSessionUUIDLessMapNotCached(t *testing.T) {
	dir := t.TempDir()
	dev := newMockDevice()
	dev.mapText = "100,1,0,0,ONLY,>H,,,\x00"
	sess := New(dev, WithCacheDir(dir))

	require.NoError(t, sess.DownloadOrLoadMap(context.Background()))
	assert.Equal(t, "", sess.Document().UUID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSessionVerifyAndRefresh(t *testing.T) {
	dev := newMockDevice()
	sess := New(dev)
	ctx := context.Background()
	require.NoError(t, sess.DownloadOrLoadMap(ctx))
	doc := sess.Document()

	// same uuid, the map in use stays
	require.NoError(t, sess.VerifyAndRefresh(ctx))
	assert.Same(t, doc, sess.Document())

	// device got a new map behind our back
	replaced := strings.Replace(strings.Join(testMapLines, "\x00")+"\x00",
		testUUID, "f47ac10b-58cc-4372-a567-0e02b2c3d479", 1)
	dev.mapText = strings.Replace(replaced, "Mock Widget", "Other Widget", 1)

	require.NoError(t, sess.VerifyAndRefresh(ctx))
	assert.Equal(t, "f47ac10b-58cc-4372-a567-0e02b2c3d479", sess.Document().UUID)
	assert.Equal(t, "Other Widget", sess.Document().Title)
}

func TestSessionPolling(t *testing.T) {
	dev := newMockDevice()
	sess := New(dev)
	ctx := context.Background()
	require.NoError(t, sess.DownloadOrLoadMap(ctx))

	require.NoError(t, sess.SetQuery("STATUS", false))

	cycles := make(chan []Reading, 1)
	callback := func(readings []Reading) {
		select {
		case cycles <- readings:
		default:
		}
	}
	require.NoError(t, sess.StartPolling(10*time.Millisecond, callback))
	assert.True(t, sess.Polling())
	assert.Error(t, sess.StartPolling(10*time.Millisecond, callback))

	var readings []Reading
	select {
	case readings = <-cycles:
	case <-time.After(time.Second):
		t.Fatal("no polling cycle arrived")
	}

	// readable registers in map order, minus the excluded one
	names := make([]string, len(readings))
	for i, r := range readings {
		require.NoError(t, r.Err, r.Name)
		names[i] = r.Name
	}
	assert.Equal(t, []string{"TEMPERATURE", "COUNT", "LABEL"}, names)

	sess.StopPolling()
	assert.False(t, sess.Polling())
	sess.StopPolling() // idempotent
}

func TestSessionPollingArgumentChecks(t *testing.T) {
	sess := New(newMockDevice())
	require.NoError(t, sess.DownloadOrLoadMap(context.Background()))

	assert.Error(t, sess.StartPolling(time.Second, nil))
	assert.Error(t, sess.StartPolling(0, func([]Reading) {}))
}

func TestSessionTransportErrorIsLocal(t *testing.T) {
	busFault := errors.New("bus fault")
	faulty := &faultyDevice{mockDevice: newMockDevice(), err: busFault}
	sess := New(faulty)
	ctx := context.Background()
	require.NoError(t, sess.DownloadOrLoadMap(ctx))
	faulty.failing = true

	_, err := sess.ReadByName(ctx, "TEMPERATURE")
	assert.ErrorIs(t, err, busFault)
	assert.Equal(t, StateMapReady, sess.State())
}

func TestSessionDownloadTransportError(t *testing.T) {
	busFault := errors.New("bus fault")
	dev := &faultyMapDevice{mockDevice: newMockDevice(), err: busFault}
	sess := New(dev)
	ctx := context.Background()

	require.NoError(t, sess.DownloadOrLoadMap(ctx))
	assert.Equal(t, StateMapReady, sess.State())

	// a transport fault during a re-download drops the session back to
	// Disconnected, even though a map was previously in use
	dev.failing = true
	err := sess.DownloadOrLoadMap(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, busFault)
	assert.Equal(t, StateDisconnected, sess.State())

	_, err = sess.ReadByName(ctx, "TEMPERATURE")
	assert.ErrorIs(t, err, ErrNotConnected)
}

// faultyMapDevice fails map-register reads on demand while leaving data
// register access intact.
type faultyMapDevice struct {
	*mockDevice
	err     error
	failing bool
}

func (d *faultyMapDevice) ReadHoldingRegisters(address, count uint16) ([]uint16, error) {
	if d.failing && address == transfer.DefaultMapRegister {
		return nil, d.err
	}
	return d.mockDevice.ReadHoldingRegisters(address, count)
}

// faultyDevice fails register reads on demand while leaving the map
// transfer path intact.
type faultyDevice struct {
	*mockDevice
	err     error
	failing bool
}

func (d *faultyDevice) ReadHoldingRegisters(address, count uint16) ([]uint16, error) {
	if d.failing && address != transfer.DefaultMapRegister {
		return nil, d.err
	}
	return d.mockDevice.ReadHoldingRegisters(address, count)
}
