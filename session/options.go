package session

import (
	"time"

	"github.com/minimb/go-regmap/mapcache"
	"github.com/minimb/go-regmap/transfer"
)

// Config holds the session configuration.
type Config struct {
	// Transfer controls the map download stream (block size, map register,
	// per-block timeout)
	Transfer transfer.Config

	// Cache is the UUID-keyed map cache (optional)
	Cache *mapcache.Store

	// Logger is used for logging operations (optional)
	Logger Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Transfer: transfer.DefaultConfig(),
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithCache sets the map cache store. Sessions on different connections
// may share one store.
//
// Example:
//
//	store := mapcache.New("ModbusRegistermaps")
//	sess := session.New(device, session.WithCache(store))
func WithCache(store *mapcache.Store) Option {
	return func(c *Config) {
		c.Cache = store
	}
}

// WithCacheDir is shorthand for WithCache(mapcache.New(dir)).
func WithCacheDir(dir string) Option {
	return func(c *Config) {
		c.Cache = mapcache.New(dir)
	}
}

// WithLogger sets a logger for session operations.
//
// Example:
//
//	sess := session.New(device, session.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTransferConfig replaces the whole map transfer configuration.
func WithTransferConfig(cfg transfer.Config) Option {
	return func(c *Config) {
		c.Transfer = cfg
	}
}

// WithMapRegister sets the holding register the map is served through.
// Default is 130.
func WithMapRegister(address uint16) Option {
	return func(c *Config) {
		c.Transfer.MapRegister = address
	}
}

// WithReadTimeout sets the deadline for each block read during map
// transfer. Default is 2 seconds.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Transfer.ReadTimeout = timeout
	}
}
