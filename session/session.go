package session

import (
	"context"
	"strings"
	"sync"

	"github.com/minimb/go-regmap/regmap"
	"github.com/minimb/go-regmap/transfer"
)

// State is the session lifecycle state.
type State int

const (
	// StateDisconnected means no register map has been acquired yet, or the
	// last map acquisition failed
	StateDisconnected State = iota

	// StateHeaderReceived means the map header (title/uuid) has arrived but
	// the map is not complete yet
	StateHeaderReceived

	// StateMapReady means the register table is built and named access is
	// available
	StateMapReady

	// StateActive means at least one named access has completed
	StateActive
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateHeaderReceived:
		return "header-received"
	case StateMapReady:
		return "map-ready"
	case StateActive:
		return "active"
	}
	return "unknown"
}

// Session owns one device connection and translates named register access
// into raw Modbus word transactions using the device's own register map.
//
// The transport is assumed already open; Session never opens or closes it.
type Session struct {
	tr     transfer.Transactor
	config Config

	mu      sync.Mutex // guards state, doc, table, queried, poll bookkeeping
	txMu    sync.Mutex // serializes transport transactions (half-duplex)
	state   State
	doc     *regmap.Document
	table   *regmap.Table
	queried map[string]bool
	polling bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a Session over the given transaction primitive.
//
// Example:
//
//	device, _ := transport.NewClient(transport.Config{URL: "rtu:///dev/ttyUSB0"})
//	sess := session.New(device,
//	    session.WithCacheDir("ModbusRegistermaps"),
//	    session.WithReadTimeout(5*time.Second),
//	)
func New(tr transfer.Transactor, opts ...Option) *Session {
	if tr == nil {
		panic("transactor cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		tr:      tr,
		config:  cfg,
		state:   StateDisconnected,
		queried: make(map[string]bool),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Document returns the register map document in use, nil before
// DownloadOrLoadMap has completed.
func (s *Session) Document() *regmap.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// DownloadOrLoadMap acquires the device's register map and builds the
// register table.
//
// The map header streams in first; as soon as the UUID is known the
// configured cache is consulted. On a hit the live transfer is abandoned
// (with a reset so the device's read pointer is not left mid-transfer) and
// the cached document is used. On a miss the transfer runs to completion
// and the result is cached.
//
// Any transport or parse failure aborts the whole call and returns the
// session to Disconnected.
func (s *Session) DownloadOrLoadMap(ctx context.Context) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.setState(StateDisconnected)

	scanner := transfer.NewLineScanner(s.tr, s.config.Transfer)
	builder := regmap.NewBuilder()

	var doc *regmap.Document
	cacheChecked := false
	for scanner.Scan(ctx) {
		if err := builder.AddLine(scanner.Text()); err != nil {
			s.setState(StateDisconnected)
			return err
		}
		if cacheChecked || builder.UUID() == "" {
			continue
		}
		cacheChecked = true
		s.setState(StateHeaderReceived)
		s.logDebug("map header received", "uuid", builder.UUID(), "title", builder.Title())

		if s.config.Cache == nil {
			continue
		}
		cached, err := s.config.Cache.Load(builder.UUID())
		if err != nil {
			s.logDebug("no cached map", "uuid", builder.UUID())
			continue
		}
		// Abandon the live stream; reset the device's read pointer so it is
		// not left mid-transfer.
		if err := scanner.Reset(); err != nil {
			s.setState(StateDisconnected)
			return err
		}
		s.logInfo("using cached register map", "uuid", cached.UUID, "registers", len(cached.Descriptors))
		doc = cached
		break
	}

	if doc == nil {
		if err := scanner.Err(); err != nil {
			s.setState(StateDisconnected)
			return err
		}
		var err error
		doc, err = builder.Document()
		if err != nil {
			s.setState(StateDisconnected)
			return err
		}
		if s.config.Cache != nil {
			// A failed save must not take down a successfully downloaded map.
			if err := s.config.Cache.Save(doc); err != nil {
				s.logError("cache save failed", "uuid", doc.UUID, "error", err)
			}
		}
		s.logInfo("register map downloaded", "uuid", doc.UUID, "title", doc.Title, "registers", len(doc.Descriptors))
	}

	table, err := regmap.NewTable(doc)
	if err != nil {
		s.setState(StateDisconnected)
		return err
	}

	s.mu.Lock()
	s.doc = doc
	s.table = table
	s.state = StateMapReady
	s.mu.Unlock()
	return nil
}

// VerifyAndRefresh re-reads the live map header and compares the device's
// UUID with the map currently in use. On mismatch (or when either side has
// no UUID to compare) the map is re-downloaded. On match the device's read
// pointer is reset and the current map stays in place.
func (s *Session) VerifyAndRefresh(ctx context.Context) error {
	s.mu.Lock()
	if s.state < StateMapReady {
		s.mu.Unlock()
		return ErrNotConnected
	}
	current := s.doc.UUID
	s.mu.Unlock()

	s.txMu.Lock()
	scanner := transfer.NewLineScanner(s.tr, s.config.Transfer)
	builder := regmap.NewBuilder()
	for scanner.Scan(ctx) {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" && !regmap.IsComment(line) {
			break // header is over, no uuid is coming
		}
		_ = builder.AddLine(line)
		if builder.UUID() != "" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		s.txMu.Unlock()
		return err
	}
	live := builder.UUID()
	if live != "" && live == current {
		err := scanner.Reset()
		s.txMu.Unlock()
		return err
	}
	s.txMu.Unlock()

	s.logInfo("map uuid changed, refreshing", "was", current, "now", live)
	return s.DownloadOrLoadMap(ctx)
}

// ReadByName reads a register and decodes its engineering value.
// Requires a register map; codec and transport errors are local to the
// call and do not change the session state.
func (s *Session) ReadByName(ctx context.Context, name string) (interface{}, error) {
	desc, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if !desc.Readable() {
		return nil, &AccessError{Name: name, Op: "read"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.txMu.Lock()
	words, err := s.tr.ReadHoldingRegisters(desc.Address, desc.ReadWords)
	s.txMu.Unlock()
	if err != nil {
		return nil, &transfer.TransferError{Op: "read " + name, Err: err}
	}

	value, err := desc.Decode(words)
	if err != nil {
		return nil, err
	}
	s.markActive()
	return value, nil
}

// WriteByName encodes an engineering value and writes it to a register.
// An encode error (out of range, truncated string, wrong type) aborts the
// call before anything is written.
func (s *Session) WriteByName(ctx context.Context, name string, value interface{}) error {
	desc, err := s.lookup(name)
	if err != nil {
		return err
	}
	if !desc.Writable() {
		return &AccessError{Name: name, Op: "write"}
	}
	words, err := desc.Encode(value)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	err = s.tr.WriteRegisters(desc.Address, words)
	s.txMu.Unlock()
	if err != nil {
		return &transfer.TransferError{Op: "write " + name, Err: err}
	}
	s.markActive()
	return nil
}

// Lookup resolves a register name to its descriptor.
func (s *Session) Lookup(name string) (*regmap.Descriptor, error) {
	return s.lookup(name)
}

func (s *Session) lookup(name string) (*regmap.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state < StateMapReady {
		return nil, ErrNotConnected
	}
	desc, ok := s.table.Lookup(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return desc, nil
}

func (s *Session) markActive() {
	s.mu.Lock()
	if s.state == StateMapReady {
		s.state = StateActive
	}
	s.mu.Unlock()
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// logDebug logs a debug message if a logger is configured.
func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
