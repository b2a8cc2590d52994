package spec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxBufferSize bounds a single window refill. A length field pointing past
// this limit indicates a corrupt file, not a legitimate read request.
const MaxBufferSize = 2500000

// ReadBuffer decodes map file data from a fixed working window with a cursor.
// All fixed-width integers are big-endian. The window is refilled explicitly
// with ReadFromFile; every multi-byte read that would run past the window end
// fails with a format error instead of reading garbage.
type ReadBuffer struct {
	src        io.ReaderAt
	fileOffset int64
	data       []byte
	pos        int
}

func NewReadBuffer(src io.ReaderAt) *ReadBuffer {
	return &ReadBuffer{src: src}
}

// SeekTo positions the next ReadFromFile at the given absolute file offset
// and discards the current window.
func (rb *ReadBuffer) SeekTo(offset int64) {
	rb.fileOffset = offset
	rb.data = nil
	rb.pos = 0
}

// ReadFromFile replaces the working window with the next length bytes of the
// underlying file.
func (rb *ReadBuffer) ReadFromFile(length int) error {
	if length <= 0 || length > MaxBufferSize {
		return fmt.Errorf("%w: window refill of %d bytes", ErrFormat, length)
	}
	if cap(rb.data) < length {
		rb.data = make([]byte, length)
	}
	rb.data = rb.data[:length]
	if _, err := rb.src.ReadAt(rb.data, rb.fileOffset); err != nil {
		return fmt.Errorf("reading %d bytes at offset %d: %w", length, rb.fileOffset, err)
	}
	rb.fileOffset += int64(length)
	rb.pos = 0
	return nil
}

// Remaining returns the number of unread bytes left in the working window.
func (rb *ReadBuffer) Remaining() int {
	return len(rb.data) - rb.pos
}

// Skip advances the cursor without decoding.
func (rb *ReadBuffer) Skip(n int) error {
	if n < 0 || rb.Remaining() < n {
		return fmt.Errorf("%w: skip %d with %d remaining", ErrBufferUnderflow, n, rb.Remaining())
	}
	rb.pos += n
	return nil
}

func (rb *ReadBuffer) take(n int) ([]byte, error) {
	if rb.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, %d remaining", ErrBufferUnderflow, n, rb.Remaining())
	}
	b := rb.data[rb.pos : rb.pos+n]
	rb.pos += n
	return b, nil
}

func (rb *ReadBuffer) ReadInt8() (int8, error) {
	b, err := rb.take(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (rb *ReadBuffer) ReadInt16() (int16, error) {
	b, err := rb.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (rb *ReadBuffer) ReadInt32() (int32, error) {
	b, err := rb.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (rb *ReadBuffer) ReadInt64() (int64, error) {
	b, err := rb.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// ReadVarUint decodes a variable-length unsigned integer: the high bit of
// each byte marks a continuation, the low seven bits carry the value,
// least-significant group first. Values wider than 32 bits are rejected.
func (rb *ReadBuffer) ReadVarUint() (uint32, error) {
	var value uint32
	var shift uint
	for {
		b, err := rb.take(1)
		if err != nil {
			return 0, err
		}
		if b[0]&0x80 == 0 {
			if shift == 28 && b[0] > 0x0f {
				return 0, ErrVarintOverflow
			}
			return value | uint32(b[0])<<shift, nil
		}
		if shift > 21 {
			return 0, ErrVarintOverflow
		}
		value |= uint32(b[0]&0x7f) << shift
		shift += 7
	}
}

// ReadVarInt decodes a variable-length signed integer. Continuation bytes
// carry seven value bits; the terminal byte carries six value bits and the
// sign in bit 0x40.
func (rb *ReadBuffer) ReadVarInt() (int32, error) {
	var value int32
	var shift uint
	for {
		b, err := rb.take(1)
		if err != nil {
			return 0, err
		}
		if b[0]&0x80 == 0 {
			value |= int32(b[0]&0x3f) << shift
			if b[0]&0x40 != 0 {
				value = -value
			}
			return value, nil
		}
		if shift > 21 {
			return 0, ErrVarintOverflow
		}
		value |= int32(b[0]&0x7f) << shift
		shift += 7
	}
}

// ReadString decodes a length-prefixed UTF-8 string. A zero length, a length
// running past the window, or a broken length prefix yields ok == false
// rather than an error, because optional header fields are encoded this way.
func (rb *ReadBuffer) ReadString() (string, bool) {
	length, err := rb.ReadVarUint()
	if err != nil || length == 0 || int(length) > rb.Remaining() {
		return "", false
	}
	b, _ := rb.take(int(length))
	return string(b), true
}

// ReadFixedString decodes a string of a known byte length.
func (rb *ReadBuffer) ReadFixedString(length int) (string, error) {
	b, err := rb.take(length)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
