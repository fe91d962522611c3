// Package appmsg implements the tuple dictionary exchanged with the weather peer.
//
// # Wire format
//
// A message is a single envelope holding an ordered list of tuples:
//
//	byte 0      tuple count (uint8)
//	per tuple   key (uint32, little endian)
//	            type (uint8): 0 byte array, 1 cstring, 2 uint, 3 int
//	            length (uint16, little endian)
//	            value (length bytes)
//
// Integers are little endian and 1, 2 or 4 bytes wide. Cstrings carry their
// trailing NUL inside length. Envelopes are bounded by the channel buffer size
// (128 bytes in each direction by default); nothing is fragmented.
package appmsg

import (
	"encoding/binary"
)

// TupleType identifies how a tuple value is encoded.
type TupleType uint8

const (
	TypeByteArray TupleType = 0
	TypeCString   TupleType = 1
	TypeUint      TupleType = 2
	TypeInt       TupleType = 3
)

func (t TupleType) String() string {
	switch t {
	case TypeByteArray:
		return "bytes"
	case TypeCString:
		return "cstring"
	case TypeUint:
		return "uint"
	case TypeInt:
		return "int"
	default:
		return "unknown"
	}
}

// DefaultBufferSize is the inbox and outbox size negotiated with the peer.
const DefaultBufferSize = 128

const (
	headerSize      = 1 // tuple count
	tupleHeaderSize = 7 // key(4) + type(1) + length(2)
	maxTuples       = 255
)

// Tuple is one key/value pair of a message.
type Tuple struct {
	Key   uint32
	Type  TupleType
	Value []byte
}

// Int32 decodes the tuple as a signed integer. Int tuples of width 1, 2 or 4
// are sign-extended; uint tuples of width 1 or 2 are zero-extended. Any other
// shape reports false.
func (t Tuple) Int32() (int32, bool) {
	switch t.Type {
	case TypeInt:
		switch len(t.Value) {
		case 1:
			return int32(int8(t.Value[0])), true
		case 2:
			return int32(int16(binary.LittleEndian.Uint16(t.Value))), true
		case 4:
			return int32(binary.LittleEndian.Uint32(t.Value)), true
		}
	case TypeUint:
		switch len(t.Value) {
		case 1:
			return int32(t.Value[0]), true
		case 2:
			return int32(binary.LittleEndian.Uint16(t.Value)), true
		}
	}
	return 0, false
}

func (t Tuple) encodedSize() int {
	return tupleHeaderSize + len(t.Value)
}

// Dict is an ordered set of tuples. Keys are expected to be unique; Find
// returns the first match when they are not.
type Dict []Tuple

// Find returns the tuple stored under key.
func (d Dict) Find(key uint32) (Tuple, bool) {
	for _, t := range d {
		if t.Key == key {
			return t, true
		}
	}
	return Tuple{}, false
}

// Size returns the encoded envelope size in bytes.
func (d Dict) Size() int {
	n := headerSize
	for _, t := range d {
		n += t.encodedSize()
	}
	return n
}
