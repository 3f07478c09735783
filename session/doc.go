// Package session provides the high-level API for talking to a device
// through its self-describing register map.
//
// # Overview
//
// A Session owns one device connection for its lifetime and orchestrates
// the full sequence:
//   - Downloading the register map from the device (or loading it from a
//     UUID-keyed cache)
//   - Building the name index over the map
//   - Translating named reads and writes into raw word transactions with
//     correct packing, scaling and offset
//
// # Basic Usage
//
//	// User provides the word-level Modbus transaction primitive
//	device, err := transport.NewClient(transport.Config{URL: "rtu:///dev/ttyUSB0"})
//
//	sess := session.New(device,
//	    session.WithCacheDir("ModbusRegistermaps"),
//	)
//
//	if err := sess.DownloadOrLoadMap(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	temp, err := sess.ReadByName(ctx, "TEMPERATURE")
//	err = sess.WriteByName(ctx, "SETPOINT", 42.5)
//
// # Session States
//
// A session moves through Disconnected -> HeaderReceived -> MapReady ->
// Active. ReadByName and WriteByName require at least MapReady; calling
// them earlier returns ErrNotConnected. Protocol errors during the map
// download return the session to Disconnected; codec errors during named
// access are local to the call and leave the session Active.
//
// # Map Cache
//
// With a cache configured, the session extracts the device UUID from the
// map header as early as possible and short-circuits the transfer when a
// cached copy exists. A later UUID change on the device is not detected
// automatically; call VerifyAndRefresh to re-check the live header and
// re-download on mismatch.
//
// # Polling
//
//	err := sess.StartPolling(500*time.Millisecond, func(readings []session.Reading) {
//	    for _, r := range readings {
//	        fmt.Printf("%s = %v\n", r.Name, r.Value)
//	    }
//	})
//	defer sess.StopPolling()
//
// Individual registers can be excluded from the cycle with SetQuery to
// keep cycle times down.
//
// # Concurrency
//
// The protocol is half-duplex: one transaction at a time per connection.
// The session serializes its own transport use, so the poller and direct
// ReadByName/WriteByName calls may coexist. Independent sessions on
// distinct connections run fully in parallel and may share one
// mapcache.Store.
//
// # Logging
//
// Integrate with any logging framework through the Logger interface:
//
//	sess := session.New(device, session.WithLogger(myLogger))
package session
