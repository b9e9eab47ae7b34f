// Package persist implements the tag-then-payload binary stream every tactic,
// dependency and selection object is saved with.
//
// Every value is little-endian. Writers and Readers carry a sticky error: after
// the first failure every further call is a no-op and Err reports the cause.
package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrUnknownTag is returned when a decoder reads a tag it has no variant for.
var ErrUnknownTag = errors.New("unknown tag")

// maxSliceLen bounds decoded lengths so a corrupt stream cannot allocate
// unbounded memory.
const maxSliceLen = 1 << 20

// Tag identifies a concrete variant within one interface family.
type Tag int32

// UnknownTagError builds the error returned for an unrecognised tag.
func UnknownTagError(family string, tag Tag) error {
	return fmt.Errorf("persist: %s: %w %d", family, ErrUnknownTag, tag)
}

// Writer encodes primitives to an io.Writer.
type Writer struct {
	w   io.Writer
	err error
	buf [8]byte
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first write error, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	if _, err := w.w.Write(p); err != nil {
		w.err = fmt.Errorf("persist: write: %w", err)
	}
}

// Tag writes a variant tag.
func (w *Writer) Tag(t Tag) { w.Int32(int32(t)) }

// Int32 writes v.
func (w *Writer) Int32(v int32) {
	binary.LittleEndian.PutUint32(w.buf[:4], uint32(v))
	w.write(w.buf[:4])
}

// Int writes v as a 64-bit integer.
func (w *Writer) Int(v int) {
	binary.LittleEndian.PutUint64(w.buf[:8], uint64(int64(v)))
	w.write(w.buf[:8])
}

// Float writes v.
func (w *Writer) Float(v float64) {
	binary.LittleEndian.PutUint64(w.buf[:8], math.Float64bits(v))
	w.write(w.buf[:8])
}

// Bool writes v as one byte.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf[0] = 1
	} else {
		w.buf[0] = 0
	}
	w.write(w.buf[:1])
}

// String writes a length-prefixed string.
func (w *Writer) String(s string) {
	w.Int(len(s))
	w.write([]byte(s))
}

// Ints writes a length-prefixed int slice.
func (w *Writer) Ints(vs []int) {
	w.Int(len(vs))
	for _, v := range vs {
		w.Int(v)
	}
}

// Reader decodes primitives from an io.Reader.
type Reader struct {
	r   io.Reader
	err error
	buf [8]byte
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first read error, if any.
func (r *Reader) Err() error { return r.err }

// Fail records err unless an earlier error is already held.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) read(n int) []byte {
	if r.err != nil {
		return nil
	}
	if _, err := io.ReadFull(r.r, r.buf[:n]); err != nil {
		r.err = fmt.Errorf("persist: read: %w", err)
		return nil
	}
	return r.buf[:n]
}

// Tag reads a variant tag.
func (r *Reader) Tag() Tag { return Tag(r.Int32()) }

// Int32 reads an int32.
func (r *Reader) Int32() int32 {
	b := r.read(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// Int reads a 64-bit integer.
func (r *Reader) Int() int {
	b := r.read(8)
	if b == nil {
		return 0
	}
	return int(int64(binary.LittleEndian.Uint64(b)))
}

// Float reads a float64.
func (r *Reader) Float() float64 {
	b := r.read(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// Bool reads one byte as a bool.
func (r *Reader) Bool() bool {
	b := r.read(1)
	return b != nil && b[0] != 0
}

// Len reads a length prefix and validates it.
func (r *Reader) Len() int {
	n := r.Int()
	if r.err == nil && (n < 0 || n > maxSliceLen) {
		r.err = fmt.Errorf("persist: invalid length %d", n)
		return 0
	}
	return n
}

// String reads a length-prefixed string.
func (r *Reader) String() string {
	n := r.Len()
	if r.err != nil || n == 0 {
		return ""
	}
	p := make([]byte, n)
	if _, err := io.ReadFull(r.r, p); err != nil {
		r.err = fmt.Errorf("persist: read: %w", err)
		return ""
	}
	return string(p)
}

// Ints reads a length-prefixed int slice.
func (r *Reader) Ints() []int {
	n := r.Len()
	if r.err != nil {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.Int())
	}
	return out
}
