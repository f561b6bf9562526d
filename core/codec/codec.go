// Package codec defines the fixed-width encoding contract a user input
// type must satisfy to be stored, transmitted, and predicted by the
// buffers and managers in this module. It performs no reflection: every
// implementation is a concrete, compile-time-known type supplied by the
// caller.
package codec

import "bytes"

// Codec is the capability a user input type T must provide. ByteWidth is
// a compile-time-known constant for a given T. Encode is total; Decode
// MUST NOT panic on malformed input and returns an error instead.
// Default supplies the value used by the "last observation carried
// forward" prediction policy before any input has ever been finalized.
type Codec[T any] interface {
	ByteWidth() int
	Encode(v T) []byte
	Decode(b []byte) (T, error)
	Default() T
}

// Equal reports whether two values of T compare equal under c's encoding,
// per the contract that two inputs are equal iff their encodings are.
func Equal[T any](c Codec[T], a, b T) bool {
	return bytes.Equal(c.Encode(a), c.Encode(b))
}
