// Package hostobj implements the runtime's second state-exchange format:
// a mirrored schema built from the host embedder's own object, array,
// number, boolean, and string primitives rather than a binary stream.
// Semantics are identical to package toon (same container nesting, same
// primitive set, same validation rules on restore), so a Writer/Reader
// pair here is a drop-in statecodec backend next to toon.Writer/Reader.
package hostobj

import "fmt"

// object is the host-visible "plain object" container: an ordered
// sequence of values with no field names, matching TOON's OBJECT_START/
// OBJECT_END framing (a stage's field order is its schema).
type object struct{ items []any }

// array is the host-visible "array" container.
type array struct{ items []any }

// Writer builds a host object tree by recording a sequence of primitive
// writes and container boundaries, mirroring toon.Writer's token stream
// but materialized as nested Go values instead of bytes.
type Writer struct {
	root  []any
	stack []*[]any
}

// NewWriter returns a Writer ready to accept values.
func NewWriter() *Writer {
	w := &Writer{}
	w.stack = []*[]any{&w.root}
	return w
}

// Root returns the top-level sequence of values written so far, the
// tree to hand to the host embedder, or to feed back into NewReader.
func (w *Writer) Root() []any { return w.root }

func (w *Writer) cur() *[]any { return w.stack[len(w.stack)-1] }

func (w *Writer) push(v any, items *[]any) {
	*w.cur() = append(*w.cur(), v)
	w.stack = append(w.stack, items)
}

// BeginObject opens a new object container nested in the current one.
func (w *Writer) BeginObject() {
	obj := &object{}
	w.push(obj, &obj.items)
}

// EndObject closes the innermost open object container.
func (w *Writer) EndObject() { w.stack = w.stack[:len(w.stack)-1] }

// BeginArray opens a new array container nested in the current one.
func (w *Writer) BeginArray() {
	arr := &array{}
	w.push(arr, &arr.items)
}

// EndArray closes the innermost open array container.
func (w *Writer) EndArray() { w.stack = w.stack[:len(w.stack)-1] }

// WriteString appends a string value.
func (w *Writer) WriteString(v string) { *w.cur() = append(*w.cur(), v) }

// WriteBool appends a bool value.
func (w *Writer) WriteBool(v bool) { *w.cur() = append(*w.cur(), v) }

// WriteInt32 appends an int32 value.
func (w *Writer) WriteInt32(v int32) { *w.cur() = append(*w.cur(), v) }

// WriteFloat32 appends a float32 value.
func (w *Writer) WriteFloat32(v float32) { *w.cur() = append(*w.cur(), v) }

// WriteFloat64 appends a float64 value.
func (w *Writer) WriteFloat64(v float64) { *w.cur() = append(*w.cur(), v) }

// WriteFloatArray appends a copy of v as a single opaque block, mirroring
// TOON's fused float_array token rather than exploding it into one array
// element per sample.
func (w *Writer) WriteFloatArray(v []float32) {
	cp := append([]float32(nil), v...)
	*w.cur() = append(*w.cur(), cp)
}

// Reader walks a host object tree produced by Writer (or an equivalent
// tree handed in by the host embedder).
type Reader struct {
	stack []*cursor
}

type cursor struct {
	items []any
	pos   int
}

// NewReader returns a Reader over the top-level sequence root, as
// returned by Writer.Root.
func NewReader(root []any) *Reader {
	return &Reader{stack: []*cursor{{items: root}}}
}

func (r *Reader) cur() *cursor { return r.stack[len(r.stack)-1] }

func (r *Reader) next() (any, error) {
	c := r.cur()
	if c.pos >= len(c.items) {
		return nil, fmt.Errorf("hostobj: unexpected end of container")
	}
	v := c.items[c.pos]
	c.pos++
	return v, nil
}

// BeginObject enters the next value, which must be an object container.
func (r *Reader) BeginObject() error {
	v, err := r.next()
	if err != nil {
		return err
	}
	obj, ok := v.(*object)
	if !ok {
		return fmt.Errorf("hostobj: expected object, got %T", v)
	}
	r.stack = append(r.stack, &cursor{items: obj.items})
	return nil
}

// EndObject closes the innermost open object container.
func (r *Reader) EndObject() error {
	if len(r.stack) <= 1 {
		return fmt.Errorf("hostobj: EndObject without matching BeginObject")
	}
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// BeginArray enters the next value, which must be an array container.
func (r *Reader) BeginArray() error {
	v, err := r.next()
	if err != nil {
		return err
	}
	arr, ok := v.(*array)
	if !ok {
		return fmt.Errorf("hostobj: expected array, got %T", v)
	}
	r.stack = append(r.stack, &cursor{items: arr.items})
	return nil
}

// EndArray closes the innermost open array container.
func (r *Reader) EndArray() error {
	if len(r.stack) <= 1 {
		return fmt.Errorf("hostobj: EndArray without matching BeginArray")
	}
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// PeekEndObject reports whether the current container has no more values.
func (r *Reader) PeekEndObject() bool {
	c := r.cur()
	return c.pos >= len(c.items)
}

// PeekEndArray reports whether the current container has no more values.
func (r *Reader) PeekEndArray() bool {
	c := r.cur()
	return c.pos >= len(c.items)
}

// ReadString reads the next value as a string.
func (r *Reader) ReadString() (string, error) {
	v, err := r.next()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("hostobj: expected string, got %T", v)
	}
	return s, nil
}

// ReadBool reads the next value as a bool.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.next()
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("hostobj: expected bool, got %T", v)
	}
	return b, nil
}

// ReadInt32 reads the next value as an int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	n, ok := v.(int32)
	if !ok {
		return 0, fmt.Errorf("hostobj: expected int32, got %T", v)
	}
	return n, nil
}

// ReadFloat32 reads the next value as a float32.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	f, ok := v.(float32)
	if !ok {
		return 0, fmt.Errorf("hostobj: expected float32, got %T", v)
	}
	return f, nil
}

// ReadFloat64 reads the next value as a float64.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("hostobj: expected float64, got %T", v)
	}
	return f, nil
}

// ReadFloatArray reads the next value as a float32 block.
func (r *Reader) ReadFloatArray() ([]float32, error) {
	v, err := r.next()
	if err != nil {
		return nil, err
	}
	f, ok := v.([]float32)
	if !ok {
		return nil, fmt.Errorf("hostobj: expected float array, got %T", v)
	}
	return f, nil
}
