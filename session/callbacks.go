package session

// Reading is one register's result from a polling cycle.
type Reading struct {
	// Name is the register name
	Name string

	// Value is the decoded engineering value, nil if Err is set
	Value interface{}

	// Err is the read or decode error for this register, if any. A failed
	// register does not abort the cycle.
	Err error
}

// PollCallback is called at the end of every polling cycle with the
// cycle's readings. Implementations should return quickly; the next cycle
// does not start until the callback returns.
type PollCallback func(readings []Reading)

// Logger is an optional logging interface that can be provided to the
// session. This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	sess := session.New(device, session.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
