package params

// MaxVarIntLen is the longest encoding of a 64-bit value (10 * 7 >= 64).
const MaxVarIntLen = 10

// DecodeVarInt reads one variable width value from the start of b.
//
// Each byte contributes its low 7 bits, least significant group first. A clear
// high bit ends the value. The accumulated 64 bits are reinterpreted as a
// signed integer, so a value with bit 63 set comes back negative. Reading stops
// after MaxVarIntLen bytes even if the last one still has its high bit set.
func DecodeVarInt(b []byte) (int64, int, error) {
	var v uint64
	for i := 0; i < MaxVarIntLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncatedVarInt
		}
		c := b[i]
		v |= uint64(c&0x7f) << (7 * uint(i))
		if c&0x80 == 0 {
			return int64(v), i + 1, nil
		}
	}
	return int64(v), MaxVarIntLen, nil
}

// EncodeVarInt returns the shortest encoding of v that DecodeVarInt maps back
// to v. The decoder never sign extends, so negative values always take the
// full ten bytes.
func EncodeVarInt(v int64) []byte {
	return AppendVarInt(make([]byte, 0, VarIntLen(v)), v)
}

// AppendVarInt appends the encoding of v to dst.
func AppendVarInt(dst []byte, v int64) []byte {
	u := uint64(v)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

// VarIntLen reports how many bytes EncodeVarInt(v) produces.
func VarIntLen(v int64) int {
	u := uint64(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}
