package session

import (
	"errors"
	"fmt"
)

// ErrNotConnected indicates that a named access was attempted before the
// session had a register map. Call DownloadOrLoadMap first.
var ErrNotConnected = errors.New("session has no register map")

// NotFoundError indicates that a register name is not present in the
// device's register map.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("register %q not found in map", e.Name)
}

// AccessError indicates that a register exists but does not support the
// requested operation (its word count for that direction is zero, or it is
// a reserved placeholder).
type AccessError struct {
	Name string
	Op   string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("register %q does not support %s", e.Name, e.Op)
}
