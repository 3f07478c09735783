// Package regmap provides parsing and value packing for self-describing
// Modbus register maps.
//
// # Register Map Format
//
// A register map is a small CSV document served by the device itself. It
// starts with comment lines carrying the device identity, followed by one
// data line per register:
//
//	# title : modbus register map for Widget Mk3
//	# uuid  : 8a6e1f0c-2f9b-4c57-9c04-8c9f315c1fd2
//	42,2,2,0,TEMPERATURE,>f,C,"{value:.1f}","Temperature reading"
//
// Each data line has exactly nine comma-separated fields:
//
//	address,readWords,writeWords,persist,name,packing,unit,printFormat,hint
//
// The hint (and any other field) may be double-quoted and may then contain
// embedded commas and escaped quotes, following standard CSV rules.
//
// # Packing Specifiers
//
// The packing field is a compact specifier combining endianness, element
// type and optional scale/offset:
//
//	>f          big-endian float32
//	<h:0.1      little-endian int16, value = raw * 0.1
//	>L:0.001:50 big-endian uint32, value = raw * 0.001 + 50
//	>16s        big-endian 16-byte ASCII string
//	#           reserved placeholder, no codec
//
// Type codes follow the usual struct convention: b/B int8/uint8, h/H
// int16/uint16, l/L int32/uint32, q/Q int64/uint64, f/d float32/float64,
// <N>s fixed-length string.
//
// # Usage
//
// Parse a complete document:
//
//	doc, err := regmap.ParseReader(strings.NewReader(text))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table, err := regmap.NewTable(doc)
//	desc, ok := table.Lookup("TEMPERATURE")
//
// Or feed lines one at a time while they stream in from the device:
//
//	b := regmap.NewBuilder()
//	for scanner.Scan(ctx) {
//	    if err := b.AddLine(scanner.Text()); err != nil {
//	        return err
//	    }
//	}
//	doc, err := b.Document()
//
// The builder exposes Title and UUID as soon as the header lines have been
// consumed, which lets callers short-circuit to a cached copy of the map
// before the transfer finishes.
//
// # Error Handling
//
// Malformed data lines abort the parse with a *MalformedRegisterError
// carrying the line number, the raw line and a reason. Partial maps are
// never returned. Codec errors (*ValueOutOfRangeError,
// *ValueTruncatedError) are local to a single encode/decode call.
package regmap
