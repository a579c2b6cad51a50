package params

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestDecodeVarInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  int64
		n     int
	}{
		{"single byte", []byte{0x73}, 0x73, 1},
		{"multi byte", []byte{0xF3, 0x42}, 0x2173, 2},
		{"negative", []byte{0xF3, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}, -13, 10},
		{"31 bit", []byte{0x80, 0x80, 0x80, 0x80, 0x04}, 1073741824, 5},
		{"32 bit", []byte{0x80, 0x80, 0x80, 0x80, 0x08}, 2147483648, 5},
		{"33 bit", []byte{0x80, 0x80, 0x80, 0x80, 0x10}, 4294967296, 5},
		{"trailing bytes ignored", []byte{0x05, 0xFF, 0xFF}, 5, 1},
		{"zero", []byte{0x00}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, n, err := DecodeVarInt(tt.input)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want || n != tt.n {
				t.Fatalf("decode mismatch: got (%d, %d) want (%d, %d)", got, n, tt.want, tt.n)
			}
		})
	}
}

func TestDecodeVarIntTruncated(t *testing.T) {
	t.Parallel()

	for _, input := range [][]byte{nil, {}, {0x80}, {0xFF, 0xFF, 0xFF}} {
		_, _, err := DecodeVarInt(input)
		if !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("decode %x: expected ErrMalformedInput, got %v", input, err)
		}
	}
}

func TestDecodeVarIntStopsAfterTenBytes(t *testing.T) {
	t.Parallel()

	input := bytes.Repeat([]byte{0xFF}, 12)
	_, n, err := DecodeVarInt(input)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != MaxVarIntLen {
		t.Fatalf("consumed mismatch: got %d want %d", n, MaxVarIntLen)
	}
}

func TestEncodeVarInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input int64
		want  []byte
	}{
		{0, []byte{0x00}},
		{0x73, []byte{0x73}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x80, 0x01}},
		{0x2173, []byte{0xF3, 0x42}},
		{0x023C, []byte{0xBC, 0x04}},
		{-13, []byte{0xF3, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
	}

	for _, tt := range tests {
		got := EncodeVarInt(tt.input)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("EncodeVarInt(%d): got % x want % x", tt.input, got, tt.want)
		}
		if VarIntLen(tt.input) != len(tt.want) {
			t.Errorf("VarIntLen(%d): got %d want %d", tt.input, VarIntLen(tt.input), len(tt.want))
		}
	}
}

func TestVarIntRoundTrip(t *testing.T) {
	t.Parallel()

	values := []int64{
		0, 1, -1, 63, 64, 127, 128, 255, 256, 16383, 16384,
		math.MaxInt32, math.MinInt32, math.MaxInt32 + 1,
		math.MaxInt64, math.MinInt64, -0x2173, 1 << 56, 1<<63 - 1,
	}
	for shift := 0; shift < 63; shift += 5 {
		values = append(values, int64(1)<<shift, -(int64(1) << shift), int64(1)<<shift-1)
	}

	for _, v := range values {
		enc := EncodeVarInt(v)
		got, n, err := DecodeVarInt(enc)
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v || n != len(enc) {
			t.Fatalf("round-trip mismatch for %d: got (%d, %d) want (%d, %d)", v, got, n, v, len(enc))
		}
	}
}
