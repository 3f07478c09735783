package regmap

import (
	"fmt"
)

// MalformedRegisterError indicates that a register map document is invalid.
// The whole parse is aborted when it occurs; partial maps are unsafe to use.
type MalformedRegisterError struct {
	// Line is the 1-based line number in the document, 0 if unknown
	Line int

	// Raw is the offending line as transferred
	Raw string

	// Reason describes what is wrong with the line
	Reason string
}

func (e *MalformedRegisterError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: malformed register: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed register: %s", e.Reason)
}

// ValueOutOfRangeError indicates that a value cannot be encoded because it
// overflows the target element type.
type ValueOutOfRangeError struct {
	Value float64
	Type  ElementType
}

func (e *ValueOutOfRangeError) Error() string {
	return fmt.Sprintf("value %v out of range for %s", e.Value, e.Type)
}

// ValueTruncatedError indicates that a string value was longer than the
// declared element width and was truncated during encoding. The truncated
// words are still returned alongside this error; the caller decides whether
// to use them.
type ValueTruncatedError struct {
	// Width is the declared string width in bytes
	Width int

	// Length is the length of the value that was encoded
	Length int
}

func (e *ValueTruncatedError) Error() string {
	return fmt.Sprintf("string value truncated: %d bytes exceed declared width %d", e.Length, e.Width)
}
