package owl

import (
	"fmt"
	"time"
)

// BindError is returned when the local UDP socket could not be bound.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("owl: unable to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when no datagram arrived within the wait window.
type TimeoutError struct {
	Addr    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("owl: timeout (%s) waiting for data on %s", e.Timeout, e.Addr)
}

// ParseError is returned for payloads that are not valid UTF-8 or not
// well-formed XML. Payload holds the raw datagram.
type ParseError struct {
	Payload []byte
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("owl: unable to parse received data: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnknownClassError is returned for well-formed documents whose root tag is
// not a known DeviceClass.
type UnknownClassError struct {
	Tag string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("owl: unsupported type '%s'", e.Tag)
}

// NoDataError is returned when the Store holds no Snapshot for a class yet.
type NoDataError struct {
	Class DeviceClass
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("owl: no %s data received yet", e.Class)
}

// MissingFieldError is returned when a Snapshot lacks an element the
// extractor expected.
type MissingFieldError struct {
	Class DeviceClass
	Path  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("owl: %s data has no '%s'", e.Class, e.Path)
}

// ValueError is returned when a field is present but its content cannot be
// converted.
type ValueError struct {
	Class DeviceClass
	Path  string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("owl: invalid value '%s' at %s '%s': %v", e.Value, e.Class, e.Path, e.Err)
	}
	return fmt.Sprintf("owl: invalid value '%s' at %s '%s'", e.Value, e.Class, e.Path)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}
