package spec

import "encoding/binary"

// Append helpers mirror the ReadBuffer decoders. They are used by the
// map-file writer and by tests that need bit-exact header fragments.

// AppendVarUint appends a variable-length unsigned integer in
// continuation-bit encoding, least-significant group first.
func AppendVarUint(buf []byte, value uint32) []byte {
	for value >= 0x80 {
		buf = append(buf, byte(value)|0x80)
		value >>= 7
	}
	return append(buf, byte(value))
}

// AppendVarInt appends a variable-length signed integer. The terminal byte
// carries six value bits and the sign in bit 0x40.
func AppendVarInt(buf []byte, value int32) []byte {
	var sign byte
	if value < 0 {
		sign = 0x40
		value = -value
	}
	uval := uint32(value)
	for uval >= 0x40 {
		buf = append(buf, byte(uval&0x7f)|0x80)
		uval >>= 7
	}
	return append(buf, byte(uval)|sign)
}

// AppendString appends a length-prefixed UTF-8 string.
func AppendString(buf []byte, s string) []byte {
	buf = AppendVarUint(buf, uint32(len(s)))
	return append(buf, s...)
}

// AppendIndexEntry appends a 5-byte big-endian block index entry. The top
// bit marks a pure-water block; the remaining 39 bits hold the block offset
// relative to the sub-file start.
func AppendIndexEntry(buf []byte, blockOffset int64, water bool) []byte {
	entry := uint64(blockOffset) & BitmaskIndexOffset
	if water {
		entry |= BitmaskIndexWater
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], entry)
	return append(buf, b[3:]...)
}

// IndexEntryOffset extracts the block offset from a 5-byte index entry.
func IndexEntryOffset(entry uint64) int64 {
	return int64(entry & BitmaskIndexOffset)
}

// IndexEntryWater reports whether a 5-byte index entry marks a water block.
func IndexEntryWater(entry uint64) bool {
	return entry&BitmaskIndexWater != 0
}
