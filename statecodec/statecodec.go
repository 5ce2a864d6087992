// Package statecodec defines the Writer/Reader contract every stage's
// state-exchange code is written against once, with two concrete
// implementations: the binary TOON format (package toon) and the host
// object-tree format (package hostobj). The two are semantically
// identical (same container nesting, same primitive set, same
// validation rules), so a stage author writes SerializeTOON/
// DeserializeTOON and SerializeHost/DeserializeHost as thin wrappers
// around one shared read/write routine per stage.
package statecodec

// Writer produces a self-delimited state stream. Writes never fail: a
// Writer backed by an in-memory buffer or object tree has no I/O to fail
// on, matching the TOON format's writer contract.
type Writer interface {
	BeginObject()
	EndObject()
	BeginArray()
	EndArray()

	WriteString(v string)
	WriteBool(v bool)
	WriteInt32(v int32)
	WriteFloat32(v float32)
	WriteFloat64(v float64)
	// WriteFloatArray writes a length-prefixed block of float32 values,
	// copied verbatim (no per-element framing).
	WriteFloatArray(v []float32)
}

// Reader consumes a state stream written by a matching Writer. BeginObject/
// BeginArray/EndObject/EndArray validate the expected delimiter is present
// (TOON's consume_token(expected)); PeekEndObject/PeekEndArray let a stage
// detect whether another element follows without consuming it (TOON's
// peek_token), which is how EMA's per-channel array and similar
// variable-length containers are read without a separate length prefix.
type Reader interface {
	BeginObject() error
	EndObject() error
	BeginArray() error
	EndArray() error

	// PeekEndObject reports whether the next token closes the current
	// object, without consuming it.
	PeekEndObject() bool
	// PeekEndArray reports whether the next token closes the current
	// array, without consuming it.
	PeekEndArray() bool

	ReadString() (string, error)
	ReadBool() (bool, error)
	ReadInt32() (int32, error)
	ReadFloat32() (float32, error)
	ReadFloat64() (float64, error)
	ReadFloatArray() ([]float32, error)
}
