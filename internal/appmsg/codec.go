package appmsg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrOverflow is returned when a message does not fit the buffer.
	ErrOverflow = errors.New("appmsg: message exceeds buffer size")
	// ErrMalformed is returned for envelopes that cannot be parsed.
	ErrMalformed = errors.New("appmsg: malformed envelope")
)

// Marshal encodes d into a single envelope no larger than capacity bytes.
func Marshal(d Dict, capacity int) ([]byte, error) {
	if len(d) > maxTuples {
		return nil, fmt.Errorf("%w: %d tuples", ErrOverflow, len(d))
	}
	size := d.Size()
	if size > capacity {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrOverflow, size, capacity)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, byte(len(d)))
	for _, t := range d {
		if len(t.Value) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: tuple %d value too long", ErrOverflow, t.Key)
		}
		buf = binary.LittleEndian.AppendUint32(buf, t.Key)
		buf = append(buf, byte(t.Type))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(t.Value)))
		buf = append(buf, t.Value...)
	}
	return buf, nil
}

// Unmarshal decodes an envelope. Oversized or truncated input, trailing bytes
// and unknown tuple types are reported as ErrMalformed or ErrOverflow; the
// function never panics on arbitrary input.
func Unmarshal(data []byte, capacity int) (Dict, error) {
	if len(data) > capacity {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrOverflow, len(data), capacity)
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: empty envelope", ErrMalformed)
	}

	count := int(data[0])
	rest := data[headerSize:]
	d := make(Dict, 0, count)

	for i := 0; i < count; i++ {
		if len(rest) < tupleHeaderSize {
			return nil, fmt.Errorf("%w: tuple %d header truncated", ErrMalformed, i)
		}
		key := binary.LittleEndian.Uint32(rest[0:4])
		typ := TupleType(rest[4])
		length := int(binary.LittleEndian.Uint16(rest[5:7]))
		rest = rest[tupleHeaderSize:]

		if typ > TypeInt {
			return nil, fmt.Errorf("%w: tuple %d has unknown type %d", ErrMalformed, i, typ)
		}
		if len(rest) < length {
			return nil, fmt.Errorf("%w: tuple %d value truncated (%d < %d)", ErrMalformed, i, len(rest), length)
		}

		value := make([]byte, length)
		copy(value, rest[:length])
		rest = rest[length:]

		d = append(d, Tuple{Key: key, Type: typ, Value: value})
	}

	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}
	return d, nil
}

// Builder accumulates tuples for an outbound message, refusing writes that
// would exceed its capacity.
type Builder struct {
	capacity int
	dict     Dict
	size     int
}

// NewBuilder returns a Builder bounded to capacity bytes.
func NewBuilder(capacity int) *Builder {
	return &Builder{capacity: capacity, size: headerSize}
}

func (b *Builder) add(t Tuple) error {
	if len(b.dict) >= maxTuples {
		return fmt.Errorf("%w: too many tuples", ErrOverflow)
	}
	if b.size+t.encodedSize() > b.capacity {
		return fmt.Errorf("%w: tuple %d needs %d bytes, %d left", ErrOverflow, t.Key, t.encodedSize(), b.capacity-b.size)
	}
	b.dict = append(b.dict, t)
	b.size += t.encodedSize()
	return nil
}

// WriteUint8 appends a one-byte unsigned tuple.
func (b *Builder) WriteUint8(key uint32, v uint8) error {
	return b.add(Tuple{Key: key, Type: TypeUint, Value: []byte{v}})
}

// WriteInt32 appends a four-byte signed tuple.
func (b *Builder) WriteInt32(key uint32, v int32) error {
	return b.add(Tuple{Key: key, Type: TypeInt, Value: binary.LittleEndian.AppendUint32(nil, uint32(v))})
}

// WriteCString appends a NUL-terminated string tuple.
func (b *Builder) WriteCString(key uint32, s string) error {
	v := make([]byte, 0, len(s)+1)
	v = append(v, s...)
	v = append(v, 0)
	return b.add(Tuple{Key: key, Type: TypeCString, Value: v})
}

// WriteBytes appends a raw byte-array tuple.
func (b *Builder) WriteBytes(key uint32, p []byte) error {
	v := make([]byte, len(p))
	copy(v, p)
	return b.add(Tuple{Key: key, Type: TypeByteArray, Value: v})
}

// Dict returns the tuples written so far.
func (b *Builder) Dict() Dict {
	return b.dict
}

// Size returns the encoded size of the tuples written so far.
func (b *Builder) Size() int {
	return b.size
}
