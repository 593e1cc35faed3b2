package ledger

import (
	"errors"
	"fmt"
)

// Decode failures. Callers that persist encoded objects (the store) rely on
// these never panicking: bytes read back from disk can be corrupted by
// external tooling or partial writes, and must surface as errors.
var (
	ErrTruncated = errors.New("ledger: truncated input")
	ErrTrailing  = errors.New("ledger: trailing bytes after decode")
	ErrOversize  = errors.New("ledger: declared length exceeds input")
)

// maxFieldLen bounds any single length-prefixed field, so a corrupt length
// prefix cannot trigger a huge allocation.
const maxFieldLen = 1 << 24

// Encoder builds the canonical binary form of ledger objects.
// All integers are little-endian; variable-size fields carry a u32 length
// prefix. Encoding cannot fail.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) U8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) U32(v uint32) {
	e.buf = append(e.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (e *Encoder) U64(v uint64) {
	e.buf = append(e.buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// Bytes32 writes a fixed 32-byte value with no length prefix.
func (e *Encoder) Bytes32(v [32]byte) {
	e.buf = append(e.buf, v[:]...)
}

// VarBytes writes a u32 length prefix followed by the raw bytes.
func (e *Encoder) VarBytes(v []byte) {
	e.U32(uint32(len(v)))
	e.buf = append(e.buf, v...)
}

// Decoder reads the canonical binary form produced by Encoder.
// The first failure sticks: subsequent reads return zero values and
// Finish reports the original error.
type Decoder struct {
	b   []byte
	pos int
	err error
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{b: b}
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.pos+n > len(d.b) {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncated, n, d.pos, len(d.b)-d.pos)
		return nil
	}
	v := d.b[d.pos : d.pos+n]
	d.pos += n
	return v
}

func (d *Decoder) U8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *Decoder) U32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (d *Decoder) U64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

func (d *Decoder) Bytes32() (v [32]byte) {
	b := d.take(32)
	if b != nil {
		copy(v[:], b)
	}
	return
}

func (d *Decoder) VarBytes() []byte {
	n := d.U32()
	if d.err != nil {
		return nil
	}
	if n > maxFieldLen || int(n) > len(d.b)-d.pos {
		d.err = fmt.Errorf("%w: field of %d bytes at offset %d", ErrOversize, n, d.pos)
		return nil
	}
	v := make([]byte, n)
	copy(v, d.take(int(n)))
	return v
}

// Err reports the first decode failure, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Finish reports the first decode failure, or ErrTrailing if input remains.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.pos != len(d.b) {
		return fmt.Errorf("%w: %d of %d bytes consumed", ErrTrailing, d.pos, len(d.b))
	}
	return nil
}
