// Package toon implements the runtime's binary state-exchange format: a
// typed, length-prefixed, self-delimiting token stream used by every
// stage's SerializeTOON/DeserializeTOON.
package toon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

var byteOrder = binary.LittleEndian

// Writer serializes a sequence of TOON tokens into a byte buffer. The
// zero value is ready to use.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns a Writer ready to accept tokens.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated token stream.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) putToken(t Token) { w.buf.WriteByte(byte(t)) }

// BeginObject writes an OBJECT_START token.
func (w *Writer) BeginObject() { w.putToken(ObjectStart) }

// EndObject writes an OBJECT_END token.
func (w *Writer) EndObject() { w.putToken(ObjectEnd) }

// BeginArray writes an ARRAY_START token.
func (w *Writer) BeginArray() { w.putToken(ArrayStart) }

// EndArray writes an ARRAY_END token.
func (w *Writer) EndArray() { w.putToken(ArrayEnd) }

// WriteString writes a length-prefixed UTF-8 string token.
func (w *Writer) WriteString(v string) {
	w.putToken(TString)
	var lenBuf [4]byte
	byteOrder.PutUint32(lenBuf[:], uint32(len(v)))
	w.buf.Write(lenBuf[:])
	w.buf.WriteString(v)
}

// WriteBool writes a single-byte bool token.
func (w *Writer) WriteBool(v bool) {
	w.putToken(TBool)
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// WriteInt32 writes a 4-byte signed integer token.
func (w *Writer) WriteInt32(v int32) {
	w.putToken(TInt32)
	var b [4]byte
	byteOrder.PutUint32(b[:], uint32(v))
	w.buf.Write(b[:])
}

// WriteFloat32 writes a 4-byte IEEE-754 float token.
func (w *Writer) WriteFloat32(v float32) {
	w.putToken(TFloat32)
	var b [4]byte
	byteOrder.PutUint32(b[:], math.Float32bits(v))
	w.buf.Write(b[:])
}

// WriteFloat64 writes an 8-byte IEEE-754 double token.
func (w *Writer) WriteFloat64(v float64) {
	w.putToken(TFloat64)
	var b [8]byte
	byteOrder.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
}

// WriteFloatArray writes a length-prefixed contiguous block of float32
// values as a single token, mirroring a contiguous binary copy.
func (w *Writer) WriteFloatArray(v []float32) {
	w.putToken(TFloatArray)
	var lenBuf [4]byte
	byteOrder.PutUint32(lenBuf[:], uint32(len(v)))
	w.buf.Write(lenBuf[:])
	var elemBuf [4]byte
	for _, f := range v {
		byteOrder.PutUint32(elemBuf[:], math.Float32bits(f))
		w.buf.Write(elemBuf[:])
	}
}

// Reader parses a TOON token stream produced by Writer.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader { return &Reader{data: data} }

// peekToken returns the token at the current position without advancing,
// or an error if the stream is exhausted.
func (r *Reader) peekToken() (Token, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("toon: unexpected end of stream")
	}
	return Token(r.data[r.pos]), nil
}

// consumeToken reads the next token and fails unless it matches expected.
func (r *Reader) consumeToken(expected Token) error {
	got, err := r.peekToken()
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("toon: expected %s token, got %s", expected, got)
	}
	r.pos++
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("toon: unexpected end of stream reading %d bytes", n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// BeginObject consumes an expected OBJECT_START token.
func (r *Reader) BeginObject() error { return r.consumeToken(ObjectStart) }

// EndObject consumes an expected OBJECT_END token.
func (r *Reader) EndObject() error { return r.consumeToken(ObjectEnd) }

// BeginArray consumes an expected ARRAY_START token.
func (r *Reader) BeginArray() error { return r.consumeToken(ArrayStart) }

// EndArray consumes an expected ARRAY_END token.
func (r *Reader) EndArray() error { return r.consumeToken(ArrayEnd) }

// PeekEndObject reports whether the next token is OBJECT_END.
func (r *Reader) PeekEndObject() bool {
	t, err := r.peekToken()
	return err == nil && t == ObjectEnd
}

// PeekEndArray reports whether the next token is ARRAY_END.
func (r *Reader) PeekEndArray() bool {
	t, err := r.peekToken()
	return err == nil && t == ArrayEnd
}

// ReadString consumes a string token.
func (r *Reader) ReadString() (string, error) {
	if err := r.consumeToken(TString); err != nil {
		return "", err
	}
	lenBytes, err := r.take(4)
	if err != nil {
		return "", err
	}
	n := int(byteOrder.Uint32(lenBytes))
	sb, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(sb), nil
}

// ReadBool consumes a bool token.
func (r *Reader) ReadBool() (bool, error) {
	if err := r.consumeToken(TBool); err != nil {
		return false, err
	}
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadInt32 consumes an int32 token.
func (r *Reader) ReadInt32() (int32, error) {
	if err := r.consumeToken(TInt32); err != nil {
		return 0, err
	}
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(byteOrder.Uint32(b)), nil
}

// ReadFloat32 consumes a float32 token.
func (r *Reader) ReadFloat32() (float32, error) {
	if err := r.consumeToken(TFloat32); err != nil {
		return 0, err
	}
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(byteOrder.Uint32(b)), nil
}

// ReadFloat64 consumes a float64 token.
func (r *Reader) ReadFloat64() (float64, error) {
	if err := r.consumeToken(TFloat64); err != nil {
		return 0, err
	}
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(byteOrder.Uint64(b)), nil
}

// ReadFloatArray consumes a float_array token.
func (r *Reader) ReadFloatArray() ([]float32, error) {
	if err := r.consumeToken(TFloatArray); err != nil {
		return nil, err
	}
	lenBytes, err := r.take(4)
	if err != nil {
		return nil, err
	}
	n := int(byteOrder.Uint32(lenBytes))
	out := make([]float32, n)
	for i := range out {
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		out[i] = math.Float32frombits(byteOrder.Uint32(b))
	}
	return out, nil
}
